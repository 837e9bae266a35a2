// Package handler implements the streaming token transforms that turn the
// flat lexer output into a properly nested token stream: the indent-pre
// detector and the list synthesizer, plus the protocol and driver that host
// them.
package handler

import (
	"errors"

	"github.com/open-cli-collective/wtx/pkg/env"
	"github.com/open-cli-collective/wtx/pkg/token"
)

// Programming-error conditions. Seeing one of these means the nesting
// invariant was already broken; the pipeline must stop.
var (
	ErrStackUnderflow  = errors.New("end-tag stack underflow")
	ErrIgnoreState     = errors.New("generic callback invoked in ignore state")
	ErrMalformedMarker = errors.New("malformed list marker")
)

// Result is what a callback hands back to the driver.
type Result struct {
	Tokens []token.Token

	// SkipOnAny stops the driver from post-processing Tokens with the
	// handler's OnAny callback.
	SkipOnAny bool
}

// Handler is the part of the protocol every stage implements.
type Handler interface {
	Name() string
	// Reset returns the handler to its initial state, discarding buffers.
	Reset()
	// Disabled handlers pass every token through untouched.
	Disabled() bool
}

// AnyHandler receives tokens no specific callback claimed.
type AnyHandler interface {
	Handler
	// AnyEnabled gates OnAny; handlers switch it off while idle.
	AnyEnabled() bool
	OnAny(tok token.Token) (Result, error)
}

// TagHandler receives tag-like tokens (including list markers). A nil
// result means the token was not handled.
type TagHandler interface {
	Handler
	OnTag(tok token.Token) (*Result, error)
}

// NewlineHandler receives newline tokens. A nil result means not handled.
type NewlineHandler interface {
	Handler
	OnNewline(tok token.Token) (*Result, error)
}

// EndHandler receives the end-of-input token. A nil result means not
// handled.
type EndHandler interface {
	Handler
	OnEnd(tok token.Token) (*Result, error)
}

// Options configures the handlers built by NewDefaultChain.
type Options struct {
	// InlineContext disables block-level transforms such as indent-pre.
	InlineContext bool
}

// base carries the fields shared by the concrete handlers.
type base struct {
	env        *env.Env
	pipelineID int
	disabled   bool
	anyEnabled bool
}

func (b *base) Disabled() bool   { return b.disabled }
func (b *base) AnyEnabled() bool { return b.anyEnabled }

func (b *base) trace(channel string, args ...interface{}) {
	b.env.Trace(channel, b.pipelineID, args...)
}

// dispatch runs a single token through h following the callback protocol.
func dispatch(h Handler, tok token.Token) ([]token.Token, error) {
	if h.Disabled() {
		return []token.Token{tok}, nil
	}

	var (
		res *Result
		err error
	)
	switch tok.Kind {
	case token.KindNewline:
		if nh, ok := h.(NewlineHandler); ok {
			res, err = nh.OnNewline(tok)
		}
	case token.KindEOF:
		if eh, ok := h.(EndHandler); ok {
			res, err = eh.OnEnd(tok)
		}
	case token.KindTagOpen, token.KindTagClose, token.KindSelfClosing, token.KindListItem:
		if th, ok := h.(TagHandler); ok {
			res, err = th.OnTag(tok)
		}
	}
	if err != nil {
		return nil, err
	}

	ah, hasAny := h.(AnyHandler)
	if res == nil {
		if hasAny && ah.AnyEnabled() {
			r, err := ah.OnAny(tok)
			if err != nil {
				return nil, err
			}
			return r.Tokens, nil
		}
		return []token.Token{tok}, nil
	}

	if res.SkipOnAny || !hasAny {
		return res.Tokens, nil
	}

	var out []token.Token
	for _, t := range res.Tokens {
		if !ah.AnyEnabled() {
			out = append(out, t)
			continue
		}
		r, err := ah.OnAny(t)
		if err != nil {
			return nil, err
		}
		out = append(out, r.Tokens...)
	}
	return out, nil
}
