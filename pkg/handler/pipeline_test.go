package handler

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-cli-collective/wtx/pkg/env"
	"github.com/open-cli-collective/wtx/pkg/token"
)

// upperHandler upper-cases text in OnAny and doubles <b> tags in OnTag.
type upperHandler struct {
	base
	skip   bool
	seen   []string
	resets int
}

func (h *upperHandler) Name() string { return "upper" }
func (h *upperHandler) Reset()       { h.resets++ }

func (h *upperHandler) OnTag(tok token.Token) (*Result, error) {
	if tok.Name != "b" {
		return nil, nil
	}
	return &Result{Tokens: []token.Token{tok, txt("bold")}, SkipOnAny: h.skip}, nil
}

func (h *upperHandler) OnAny(tok token.Token) (Result, error) {
	h.seen = append(h.seen, tok.String())
	if tok.Kind == token.KindText {
		tok.Text = strings.ToUpper(tok.Text)
	}
	return Result{Tokens: []token.Token{tok}}, nil
}

func TestDispatch_Protocol(t *testing.T) {
	tests := []struct {
		name     string
		skip     bool
		disabled bool
		input    token.Token
		want     []string
		wantSeen []string
	}{
		{
			name:     "unclaimed token goes to OnAny",
			input:    txt("a"),
			want:     []string{`"A"`},
			wantSeen: []string{`"a"`},
		},
		{
			name:     "unclaimed tag goes to OnAny",
			input:    open("i"),
			want:     []string{"<i>"},
			wantSeen: []string{"<i>"},
		},
		{
			name:     "handled result is post-processed",
			input:    open("b"),
			want:     []string{"<b>", `"BOLD"`},
			wantSeen: []string{"<b>", `"bold"`},
		},
		{
			name:     "skip flag bypasses OnAny",
			skip:     true,
			input:    open("b"),
			want:     []string{"<b>", `"bold"`},
			wantSeen: nil,
		},
		{
			name:     "disabled handler passes through",
			disabled: true,
			input:    open("b"),
			want:     []string{"<b>"},
			wantSeen: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &upperHandler{skip: tt.skip}
			h.anyEnabled = true
			h.disabled = tt.disabled

			got, err := dispatch(h, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, token.Strings(got))
			assert.Equal(t, tt.wantSeen, h.seen)
		})
	}
}

func TestPipeline_ChainOrderAndReset(t *testing.T) {
	first := &upperHandler{}
	first.anyEnabled = true
	second := &upperHandler{}
	second.anyEnabled = true

	p := NewPipeline(nil, 1, first, second)
	out, err := p.Run([]token.Token{txt("a"), open("b")})
	require.NoError(t, err)

	// The second stage sees the first stage's output.
	assert.Equal(t, []string{`"a"`, "<b>", `"bold"`, "EOF"}, first.seen)
	assert.Equal(t, []string{`"A"`, "<b>", `"bold"`, `"BOLD"`, "EOF"}, second.seen)
	assert.Equal(t, []string{`"A"`, "<b>", `"BOLD"`, `"BOLD"`, "EOF"}, token.Strings(out))

	assert.Equal(t, 1, first.resets)
	assert.Equal(t, 1, second.resets)
	assert.Len(t, p.Handlers(), 2)
}

func TestPipeline_RunAppendsEOF(t *testing.T) {
	p := NewPipeline(nil, 1, NewPreHandler(nil, 1, Options{}))

	out, err := p.Run(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"EOF"}, token.Strings(out))

	out, err = p.Run([]token.Token{txt(" x"), token.EOF()})
	require.NoError(t, err)
	assert.Equal(t, []string{"<pre>", `"x"`, "</pre>", "EOF"}, token.Strings(out))
}

func TestDefaultChain_PreThenList(t *testing.T) {
	p := NewDefaultChain(env.New(), Options{})
	out, err := p.Run([]token.Token{
		li("*"), txt("a"), nl(),
		txt(" code"), nl(),
		li("#"), txt("b"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"<ul>", "<li>", `"a"`, "</li>", "</ul>", "NL",
		"<pre>", `"code"`, "</pre>", "NL",
		"<ol>", "<li>", `"b"`, "</li>", "</ol>", "EOF",
	}, token.Strings(out))
}

func TestDefaultChain_IndentInsideListItemIsNotPre(t *testing.T) {
	p := NewDefaultChain(nil, Options{})
	out, err := p.Run([]token.Token{li("*"), txt(" a"), nl()})
	require.NoError(t, err)
	assert.Equal(t, []string{"<ul>", "<li>", `" a"`, "</li>", "</ul>", "NL", "EOF"}, token.Strings(out))
}

func TestDefaultChain_ReusableAfterEOF(t *testing.T) {
	p := NewDefaultChain(nil, Options{})
	input := []token.Token{li("**"), txt("a"), nl(), txt(" b")}

	first, err := p.Run(input)
	require.NoError(t, err)
	second, err := p.Run(input)
	require.NoError(t, err)
	assert.Equal(t, token.Strings(first), token.Strings(second))
}

func TestRunAll(t *testing.T) {
	inputs := [][]token.Token{
		{txt(" a"), nl(), txt(" b")},
		{li("*"), txt("x"), nl(), li("**"), txt("y")},
		{txt("plain")},
	}

	var want [][]string
	for _, in := range inputs {
		out, err := NewDefaultChain(nil, Options{}).Run(in)
		require.NoError(t, err)
		want = append(want, token.Strings(out))
	}

	got, err := RunAll(context.Background(), env.New(), Options{}, inputs, 2)
	require.NoError(t, err)
	require.Len(t, got, len(inputs))
	for i := range got {
		assert.Equal(t, want[i], token.Strings(got[i]))
	}
}

func TestRunAll_Error(t *testing.T) {
	inputs := [][]token.Token{
		{txt("ok")},
		{li("*?")},
	}
	_, err := RunAll(context.Background(), nil, Options{}, inputs, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, token.ErrUnknownBullet)
	assert.Contains(t, err.Error(), "input 1")
}

func TestRunAll_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := RunAll(ctx, nil, Options{}, [][]token.Token{{txt("a")}}, 1)
	assert.ErrorIs(t, err, context.Canceled)
}
