package fixture

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestParse(t *testing.T) {
	doc := "# Title\n\nIntro text.\n\n" +
		"## first\n\n" +
		"```wikitext\n a\n b\n```\n\n" +
		"```html\n<pre>a\nb</pre>\n```\n\n" +
		"## second\n\n" +
		"```wikitext inline\n x\n```\n\n" +
		"```tokens\n\" x\"\nEOF\n```\n"

	cases, err := Parse([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, []Case{
		{Name: "first", Wikitext: " a\n b", HTML: strPtr("<pre>a\nb</pre>")},
		{Name: "second", Wikitext: " x", Inline: true, Tokens: []string{`" x"`, "EOF"}},
	}, cases)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{
			name:    "block before heading",
			doc:     "```wikitext\nx\n```\n",
			wantErr: "before the first case heading",
		},
		{
			name:    "no expectation",
			doc:     "## a\n\n```wikitext\nx\n```\n",
			wantErr: `case "a" has no expectation`,
		},
		{
			name:    "no input",
			doc:     "## a\n\n```html\nx\n```\n",
			wantErr: `case "a" has no wikitext block`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParse_IgnoresUnlabelledBlocks(t *testing.T) {
	doc := "## a\n\n```\nnotes\n```\n\n```wikitext\nx\n```\n\n```html\nx\n```\n"
	cases, err := Parse([]byte(doc))
	require.NoError(t, err)
	require.Len(t, cases, 1)
	assert.Equal(t, "x", cases[0].Wikitext)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.md"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read fixture file")
}

func TestRun_Mismatch(t *testing.T) {
	cases := []Case{
		{Name: "ok", Wikitext: " a", HTML: strPtr("<pre>a</pre>")},
		{Name: "wrong html", Wikitext: " a", HTML: strPtr("<p>a</p>")},
		{Name: "wrong tokens", Wikitext: "a", Tokens: []string{`"b"`, "EOF"}},
		{Name: "bad input", Wikitext: "\xff", Tokens: []string{}},
	}

	results, err := Run(context.Background(), nil, cases, 2)
	require.NoError(t, err)
	require.Len(t, results, 4)

	assert.True(t, results[0].Passed())

	assert.False(t, results[1].Passed())
	require.Len(t, results[1].Failures, 1)
	assert.Equal(t, Mismatch{What: "html", Want: "<p>a</p>", Got: "<pre>a</pre>"}, results[1].Failures[0])

	assert.False(t, results[2].Passed())
	assert.Equal(t, Mismatch{What: "tokens", Want: "\"b\"\nEOF", Got: "\"a\"\nEOF"}, results[2].Failures[0])

	assert.False(t, results[3].Passed())
	assert.Error(t, results[3].Err)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, nil, []Case{{Name: "a", Wikitext: "a", Tokens: []string{}}}, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTestdata(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "*.md"))
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, file := range files {
		cases, err := Load(file)
		require.NoError(t, err, file)

		results, err := Run(context.Background(), nil, cases, 0)
		require.NoError(t, err)

		for _, r := range results {
			t.Run(filepath.Base(file)+"/"+r.Case.Name, func(t *testing.T) {
				require.NoError(t, r.Err)
				for _, f := range r.Failures {
					assert.Equal(t, f.Want, f.Got, f.What)
				}
			})
		}
	}
}
