package treebuild

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-cli-collective/wtx/pkg/env"
	"github.com/open-cli-collective/wtx/pkg/handler"
	"github.com/open-cli-collective/wtx/pkg/lexer"
	"github.com/open-cli-collective/wtx/pkg/token"
)

func init() {
	color.NoColor = true
}

func transform(t *testing.T, src string) []token.Token {
	t.Helper()
	toks, err := lexer.Tokenize(src)
	require.NoError(t, err)
	out, err := handler.NewDefaultChain(nil, handler.Options{}).Run(toks)
	require.NoError(t, err)
	return out
}

func TestSerialize(t *testing.T) {
	tests := []struct {
		name string
		toks []token.Token
		want string
	}{
		{
			name: "list",
			toks: []token.Token{
				token.Open("ul", nil, token.Meta{}), token.Open("li", nil, token.Meta{}),
				token.Text("a"), token.Close("li"), token.Close("ul"), token.EOF(),
			},
			want: "<ul><li>a</li></ul>",
		},
		{
			name: "text is escaped",
			toks: []token.Token{token.Text(`a<b&"c"`)},
			want: "a&lt;b&amp;&#34;c&#34;",
		},
		{
			name: "attribute values are escaped",
			toks: []token.Token{token.Open("span", []token.Attr{{Key: "title", Value: `x"y`}}, token.Meta{})},
			want: `<span title="x&#34;y">`,
		},
		{
			name: "void element",
			toks: []token.Token{token.SelfClosing("br", nil, token.Meta{})},
			want: "<br>",
		},
		{
			name: "self-closed non-void element",
			toks: []token.Token{token.SelfClosing("span", nil, token.Meta{})},
			want: "<span></span>",
		},
		{
			name: "comment and newline",
			toks: []token.Token{token.Comment(" c "), token.Newline(nil)},
			want: "<!-- c -->\n",
		},
		{
			name: "newline after pre is doubled",
			toks: []token.Token{token.Open("pre", nil, token.Meta{}), token.Newline(nil), token.Text("x"), token.Close("pre")},
			want: "<pre>\n\nx</pre>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Serialize(tt.toks, nil))
		})
	}
}

func TestSerialize_InvalidAttributeWarns(t *testing.T) {
	e := env.New()
	var buf bytes.Buffer
	e.SetWriter(&buf)

	got := Serialize([]token.Token{
		token.Open("span", []token.Attr{{Key: "class", Value: "x"}, {Key: "bad name", Value: "y"}}, token.Meta{}),
	}, e)

	assert.Equal(t, `<span class="x">`, got)
	require.Len(t, e.Warnings(), 1)
	assert.Contains(t, e.Warnings()[0], `"bad name"`)
	assert.Contains(t, buf.String(), "WARN: dropping invalid attribute")
}

func TestSerialize_StrayListMarker(t *testing.T) {
	e := env.New()
	e.SetWriter(&bytes.Buffer{})

	got := Serialize([]token.Token{token.ListItem("*#", token.Meta{}), token.Text("a")}, e)
	assert.Equal(t, "*#a", got)
	assert.Len(t, e.Warnings(), 1)
}

func TestToHTML(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "indent pre",
			input: " a\n b",
			want:  "<pre>a\nb</pre>",
		},
		{
			name:  "nested list",
			input: "*a\n**b",
			want:  "<ul><li>a\n<ul><li>b</li></ul></li></ul>",
		},
		{
			name:  "definition list",
			input: ";t:d",
			want:  "<dl><dt>t</dt><dd>d</dd></dl>",
		},
		{
			name:  "table cells are closed by the parser",
			input: "{|\n|a||b\n|}",
			want:  "<table>\n<tbody><tr><td>a</td><td>b\n</td></tr></tbody></table>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToHTML(transform(t, tt.input), nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuild(t *testing.T) {
	nodes, err := Build(transform(t, "*a\n#b"), nil)
	require.NoError(t, err)

	var names []string
	for _, n := range nodes {
		names = append(names, n.Data)
	}
	assert.Equal(t, []string{"ul", "\n", "ol"}, names)
}

func TestToMarkdown(t *testing.T) {
	t.Run("list", func(t *testing.T) {
		md, err := ToMarkdown(transform(t, "*a\n*b"), nil)
		require.NoError(t, err)
		assert.Contains(t, md, "- a")
		assert.Contains(t, md, "- b")
	})

	t.Run("pre", func(t *testing.T) {
		md, err := ToMarkdown(transform(t, " x := 1"), nil)
		require.NoError(t, err)
		assert.Contains(t, md, "```")
		assert.Contains(t, md, "x := 1")
	})

	t.Run("empty", func(t *testing.T) {
		md, err := ToMarkdown([]token.Token{token.EOF()}, nil)
		require.NoError(t, err)
		assert.Empty(t, md)
	})
}
