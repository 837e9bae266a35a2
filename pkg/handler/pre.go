package handler

import (
	"errors"
	"strings"

	"golang.org/x/net/html"

	"github.com/open-cli-collective/wtx/pkg/env"
	"github.com/open-cli-collective/wtx/pkg/token"
)

// errLostLineBreak is raised when the committed pre lines do not end with
// the line break that preceded the current line.
var errLostLineBreak = errors.New("pre buffer lost its line break")

// PreState is a state of the indent-pre automaton.
type PreState int

const (
	StartOfLine       PreState = iota + 1 // watching for a leading space
	MaybeIndentPre                        // saw the indent space, nothing else yet
	CollectingPre                         // collecting the content of a pre line
	MaybeMultilinePre                     // at a line break inside a pre
	Ignore                                // line cannot start a pre; wait for newline
)

func (s PreState) String() string {
	switch s {
	case StartOfLine:
		return "sol"
	case MaybeIndentPre:
		return "pre"
	case CollectingPre:
		return "pre_collect"
	case MaybeMultilinePre:
		return "multiline_pre"
	case Ignore:
		return "ignore"
	}
	return "?"
}

// PreHandler turns runs of lines indented by a single leading space into
// pre blocks.
//
// The first space of each line is the indent marker and is consumed; the
// rest of the line becomes pre content. Lines carrying a block-level tag
// never become pre content.
type PreHandler struct {
	base

	state PreState

	// tokens holds committed content: sol-transparent tokens while in
	// StartOfLine, completed pre lines afterwards.
	tokens         []token.Token
	currentLine    []token.Token
	solTransparent []token.Token
	lastNl         *token.Token
	preWS          *token.Token
	multilineWS    *token.Token

	// preTSR is the source offset of the indent space, token.Unknown when
	// it cannot be computed.
	preTSR int
}

var _ interface {
	AnyHandler
	NewlineHandler
	EndHandler
} = (*PreHandler)(nil)

// NewPreHandler creates a pre handler. It is disabled in inline contexts.
func NewPreHandler(e *env.Env, pipelineID int, opts Options) *PreHandler {
	h := &PreHandler{base: base{env: e, pipelineID: pipelineID, disabled: opts.InlineContext}}
	h.reset()
	return h
}

// Name implements Handler.
func (h *PreHandler) Name() string { return "pre" }

// State returns the current automaton state.
func (h *PreHandler) State() PreState { return h.state }

// Reset implements Handler.
func (h *PreHandler) Reset() { h.reset() }

func (h *PreHandler) reset() {
	h.state = StartOfLine
	h.lastNl = nil
	// Zero rather than unknown: the first line has no newline to anchor it.
	h.preTSR = 0
	h.tokens = nil
	h.currentLine = nil
	h.preWS = nil
	h.multilineWS = nil
	h.solTransparent = nil
	h.anyEnabled = true
}

func (h *PreHandler) moveToIgnoreState() {
	h.anyEnabled = false
	h.state = Ignore
}

func (h *PreHandler) popLastNl(into []token.Token) []token.Token {
	if h.lastNl != nil {
		into = append(into, *h.lastNl)
		h.lastNl = nil
	}
	return into
}

func (h *PreHandler) resetPreCollectCurrentLine() {
	if len(h.currentLine) > 0 {
		h.tokens = append(h.tokens, h.currentLine...)
		h.currentLine = nil
		// The line materialized, so its marker space is part of the pre.
		h.multilineWS = nil
	}
}

// getResultAndReset flushes everything buffered, unchanged, followed by tok.
func (h *PreHandler) getResultAndReset(tok token.Token) []token.Token {
	h.tokens = h.popLastNl(h.tokens)

	ret := h.tokens
	if h.preWS != nil {
		ret = append(ret, *h.preWS)
		h.preWS = nil
	}
	ret = append(ret, h.solTransparent...)
	h.solTransparent = nil
	ret = append(ret, tok)

	h.tokens = nil
	h.multilineWS = nil
	return ret
}

// processPre wraps the committed lines in a pre block. Pending line break
// and sol-transparent tokens go after the block, then tok if non-nil.
func (h *PreHandler) processPre(tok *token.Token) []token.Token {
	var ret []token.Token

	if len(h.tokens) > 0 {
		var meta token.Meta
		if h.preTSR != token.Unknown {
			meta = meta.WithTSR(token.Range(h.preTSR, h.preTSR+1))
		}
		ret = append(ret, token.Open("pre", nil, meta))
		ret = append(ret, h.tokens...)
		ret = append(ret, token.Close("pre"))
	}

	if h.multilineWS != nil {
		ret = append(ret, *h.multilineWS)
		h.multilineWS = nil
	}
	ret = h.popLastNl(ret)
	ret = append(ret, h.solTransparent...)
	if tok != nil {
		ret = append(ret, *tok)
	}

	h.solTransparent = nil
	h.tokens = nil
	return ret
}

// encounteredBlockWhileCollecting flushes the collection when a block tag
// shows up on an indented line. Only the lines committed before the current
// one are wrapped in a pre. The current partial line is emitted unwrapped,
// led by its indent whitespace, followed by the block tag.
func (h *PreHandler) encounteredBlockWhileCollecting(tok token.Token) ([]token.Token, error) {
	var ret []token.Token

	// Held aside so processPre does not emit it inside the flushed block.
	mlp := h.multilineWS
	h.multilineWS = nil

	if n := len(h.tokens); n > 0 {
		i := n - 1
		for i > 0 && token.IsSolTransparent(h.tokens[i]) {
			i--
		}
		solToks := append([]token.Token(nil), h.tokens[i:]...)
		h.tokens = h.tokens[:i]
		if solToks[0].Kind != token.KindNewline {
			return nil, errLostLineBreak
		}
		nl := solToks[0]
		h.lastNl = &nl
		ret = append(h.processPre(nil), solToks[1:]...)
	}

	if h.preWS != nil {
		ret = append(ret, *h.preWS)
		h.preWS = nil
	} else if mlp != nil {
		ret = append(ret, *mlp)
	}

	h.resetPreCollectCurrentLine()
	return append(ret, h.getResultAndReset(tok)...), nil
}

func initPreTSR(nl token.Token) int {
	if nl.Meta.TSR != nil {
		return nl.Meta.TSR.End
	}
	return token.Unknown
}

// updatedPreTSR advances tsr past tok while the handler is still watching
// the start of a line.
func updatedPreTSR(tsr int, tok token.Token) int {
	switch tok.Kind {
	case token.KindComment:
		if tok.Meta.TSR != nil {
			return tok.Meta.TSR.End
		}
		if tsr == token.Unknown {
			return token.Unknown
		}
		// 7 for the "<!--" and "-->" delimiters.
		return tsr + len(html.UnescapeString(tok.Text)) + 7
	case token.KindTagOpen, token.KindTagClose, token.KindSelfClosing:
		return token.Unknown
	case token.KindText:
		if tsr != token.Unknown {
			return tsr + len(tok.Text)
		}
	}
	return tsr
}

func isLeadingSpace(tok token.Token) bool {
	return tok.Kind == token.KindText && strings.HasPrefix(tok.Text, " ")
}

// breaksIndentPre reports whether tok prevents the current line from
// becoming pre content before any content was collected.
func breaksIndentPre(tok token.Token) bool {
	return token.IsTableTag(tok) || (tok.IsTag() && token.IsWikitextBlockTag(tok.Name))
}

// OnNewline implements NewlineHandler.
func (h *PreHandler) OnNewline(tok token.Token) (*Result, error) {
	h.trace("pre", "NL    |", h.state, "|", tok)

	var ret []token.Token
	switch h.state {
	case StartOfLine:
		ret = h.getResultAndReset(tok)
		h.preTSR = initPreTSR(tok)

	case MaybeIndentPre:
		ret = h.getResultAndReset(tok)
		h.preTSR = initPreTSR(tok)
		h.state = StartOfLine

	case CollectingPre:
		h.resetPreCollectCurrentLine()
		nl := tok
		h.lastNl = &nl
		h.state = MaybeMultilinePre

	case MaybeMultilinePre:
		h.preWS = nil
		h.multilineWS = nil
		ret = h.processPre(&tok)
		h.preTSR = initPreTSR(tok)
		h.state = StartOfLine

	case Ignore:
		ret = []token.Token{tok}
		h.reset()
		h.preTSR = initPreTSR(tok)
	}

	h.trace("pre", "----->  ", token.Strings(ret))
	return &Result{Tokens: ret, SkipOnAny: true}, nil
}

// OnEnd implements EndHandler.
func (h *PreHandler) OnEnd(tok token.Token) (*Result, error) {
	h.trace("pre", "eof   |", h.state, "|", tok)

	var ret []token.Token
	switch h.state {
	case StartOfLine, MaybeIndentPre:
		ret = h.getResultAndReset(tok)

	case CollectingPre, MaybeMultilinePre:
		h.preWS = nil
		h.multilineWS = nil
		h.resetPreCollectCurrentLine()
		ret = h.processPre(&tok)

	case Ignore:
		ret = []token.Token{tok}
	}

	h.trace("pre", "----->  ", token.Strings(ret))
	return &Result{Tokens: ret, SkipOnAny: true}, nil
}

// OnAny implements AnyHandler.
func (h *PreHandler) OnAny(tok token.Token) (Result, error) {
	h.trace("pre", "any   |", h.state, "|", tok)

	if h.state == Ignore {
		return Result{}, ErrIgnoreState
	}

	var ret []token.Token
	solTransparent := token.IsSolTransparent(tok)

	switch h.state {
	case StartOfLine:
		switch {
		case isLeadingSpace(tok):
			ret = h.tokens
			h.tokens = nil
			ws := token.Text(" ")
			h.preWS = &ws
			h.state = MaybeIndentPre
			if len(tok.Text) > 1 {
				rest, err := h.OnAny(token.Text(tok.Text[1:]))
				if err != nil {
					return Result{}, err
				}
				ret = append(ret, rest.Tokens...)
			}
		case solTransparent:
			h.preTSR = updatedPreTSR(h.preTSR, tok)
			h.tokens = append(h.tokens, tok)
		default:
			ret = h.getResultAndReset(tok)
			h.moveToIgnoreState()
		}

	case MaybeIndentPre:
		switch {
		case solTransparent:
			h.solTransparent = append(h.solTransparent, tok)
		case breaksIndentPre(tok):
			ret = h.getResultAndReset(tok)
			h.moveToIgnoreState()
		default:
			h.currentLine = append(h.solTransparent, tok)
			h.solTransparent = nil
			h.state = CollectingPre
		}

	case CollectingPre:
		if tok.IsTag() && token.IsWikitextBlockTag(tok.Name) {
			var err error
			if ret, err = h.encounteredBlockWhileCollecting(tok); err != nil {
				return Result{}, err
			}
			h.moveToIgnoreState()
		} else {
			h.currentLine = append(h.currentLine, tok)
		}

	case MaybeMultilinePre:
		switch {
		case isLeadingSpace(tok):
			h.tokens = h.popLastNl(h.tokens)
			h.state = CollectingPre
			h.preWS = nil

			h.tokens = append(h.tokens, h.solTransparent...)
			h.solTransparent = nil

			ws := token.Text(" ")
			h.multilineWS = &ws
			if len(tok.Text) > 1 {
				rest, err := h.OnAny(token.Text(tok.Text[1:]))
				if err != nil {
					return Result{}, err
				}
				ret = rest.Tokens
			}
		case solTransparent:
			h.solTransparent = append(h.solTransparent, tok)
		default:
			ret = h.processPre(&tok)
			h.moveToIgnoreState()
		}
	}

	h.trace("pre", "----->  ", token.Strings(ret))
	return Result{Tokens: ret}, nil
}
