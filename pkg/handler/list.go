package handler

import (
	"fmt"

	"github.com/open-cli-collective/wtx/pkg/env"
	"github.com/open-cli-collective/wtx/pkg/token"
)

// ListFrame is the nesting context of one list scope. Frames are stashed
// while a table opened inside a list is being processed.
type ListFrame struct {
	// Bullets is the current nesting path, outermost first.
	Bullets string
	// EndTags holds one (list close, item close) pair per nesting level;
	// the item close of the innermost level is last.
	EndTags []token.Token

	// AtEOL is set after a newline while deciding whether the next line
	// continues the list.
	AtEOL     bool
	Nl        *token.Token
	SolTokens []token.Token

	// Open non-list tags on the current line; a ':' marker inside one is
	// plain text.
	NumOpenTags      int
	NumOpenBlockTags int
	HaveDD           bool
}

// ListHandler converts list-item markers into nested list and item tags.
type ListHandler struct {
	base

	frames           []*ListFrame
	curr             *ListFrame
	nestedTableCount int
}

var _ interface {
	AnyHandler
	TagHandler
	EndHandler
} = (*ListHandler)(nil)

// NewListHandler creates a list handler.
func NewListHandler(e *env.Env, pipelineID int) *ListHandler {
	h := &ListHandler{base: base{env: e, pipelineID: pipelineID}}
	h.reset()
	return h
}

// Name implements Handler.
func (h *ListHandler) Name() string { return "list" }

// Frame returns the active frame, nil outside any list.
func (h *ListHandler) Frame() *ListFrame { return h.curr }

// Reset implements Handler.
func (h *ListHandler) Reset() { h.reset() }

func (h *ListHandler) reset() {
	h.anyEnabled = false
	h.nestedTableCount = 0
	h.frames = nil
	h.curr = nil
}

// OnTag implements TagHandler. Only list-item markers are claimed.
func (h *ListHandler) OnTag(tok token.Token) (*Result, error) {
	if tok.Kind != token.KindListItem {
		return nil, nil
	}
	return h.onListItem(tok)
}

func (h *ListHandler) onListItem(tok token.Token) (*Result, error) {
	bullets := tok.Bullets
	if bullets == "" {
		return nil, fmt.Errorf("%w: empty bullet run", ErrMalformedMarker)
	}
	for i := 0; i < len(bullets); i++ {
		if _, err := token.LookupBullet(bullets[i]); err != nil {
			return nil, fmt.Errorf("%w in %q", err, bullets)
		}
	}

	h.anyEnabled = true
	if h.curr != nil {
		// A colon inside an open tag, or after a dd on the same line,
		// does not start a definition.
		if bullets[len(bullets)-1] == ':' && (h.curr.HaveDD || h.curr.NumOpenTags > 0) {
			h.trace("list", "ANY: colon is text |", tok)
			colon := token.Text(":")
			colon.Meta = tok.Meta.Span(len(bullets)-1, len(bullets))
			return &Result{Tokens: []token.Token{colon}}, nil
		}
	} else {
		h.curr = &ListFrame{}
	}

	res, err := h.doListItem(h.curr.Bullets, bullets, tok)
	if err != nil {
		return nil, err
	}
	return &Result{Tokens: res, SkipOnAny: true}, nil
}

// OnAny implements AnyHandler.
func (h *ListHandler) OnAny(tok token.Token) (Result, error) {
	h.trace("list", "ANY:", tok)

	if h.curr == nil {
		// Inside a table that was itself inside a list, with no list open
		// in the table. Only table nesting is tracked.
		switch {
		case tok.Kind == token.KindTagClose && tok.Name == "table":
			if h.nestedTableCount == 0 {
				h.curr = h.popFrame()
			} else {
				h.nestedTableCount--
			}
		case tok.Kind == token.KindTagOpen && tok.Name == "table":
			h.nestedTableCount++
		}
		return Result{Tokens: []token.Token{tok}}, nil
	}

	if tok.Kind == token.KindTagClose && tok.Name == "table" {
		res, err := h.closeLists(tok)
		if err != nil {
			return Result{}, err
		}
		h.curr = h.popFrame()
		return res, nil
	}

	if h.curr.AtEOL {
		if tok.Kind != token.KindNewline && token.IsSolTransparent(tok) {
			// Hold on until we know whether another item follows.
			if h.curr.Nl != nil {
				h.curr.SolTokens = append(h.curr.SolTokens, *h.curr.Nl)
				h.curr.Nl = nil
			}
			h.curr.SolTokens = append(h.curr.SolTokens, tok)
			return Result{}, nil
		}
		return h.closeLists(tok)
	}

	// Only a table opened mid-line belongs to the list item; one starting
	// a new line was handled above by closing the lists.
	if tok.Kind == token.KindTagOpen && tok.Name == "table" {
		h.frames = append(h.frames, h.curr)
		h.curr = nil
		return Result{Tokens: []token.Token{tok}}, nil
	}

	switch {
	case tok.Kind == token.KindTagOpen:
		h.curr.NumOpenTags++
		if token.IsBlockTag(tok.Name) {
			h.curr.NumOpenBlockTags++
		}
	case tok.Kind == token.KindTagClose:
		if h.curr.NumOpenTags > 0 {
			h.curr.NumOpenTags--
		}
		if token.IsBlockTag(tok.Name) {
			if h.curr.NumOpenBlockTags == 0 {
				// A block closing past the list item ends every list.
				return h.closeLists(tok)
			}
			h.curr.NumOpenBlockTags--
		}
	}

	if tok.Kind == token.KindNewline {
		nl := tok
		h.curr.AtEOL = true
		h.curr.Nl = &nl
		h.curr.HaveDD = false
		// Open tags stop mattering for ':' at the end of the line.
		h.curr.NumOpenTags = 0
		return Result{}, nil
	}

	return Result{Tokens: []token.Token{tok}}, nil
}

// OnEnd implements EndHandler. Every open list, including those stashed
// behind an unterminated table, is closed before the end token.
func (h *ListHandler) OnEnd(tok token.Token) (*Result, error) {
	h.trace("list", "END:", tok)

	var out []token.Token
	if h.curr != nil {
		toks, err := h.drainFrame(h.curr)
		if err != nil {
			return nil, err
		}
		out = append(out, toks...)
	}
	for i := len(h.frames) - 1; i >= 0; i-- {
		if h.frames[i] == nil {
			continue
		}
		toks, err := h.drainFrame(h.frames[i])
		if err != nil {
			return nil, err
		}
		out = append(out, toks...)
	}
	out = append(out, tok)

	h.reset()
	h.trace("list", "RET:", token.Strings(out))
	return &Result{Tokens: out, SkipOnAny: true}, nil
}

func (h *ListHandler) popFrame() *ListFrame {
	if len(h.frames) == 0 {
		return nil
	}
	f := h.frames[len(h.frames)-1]
	h.frames = h.frames[:len(h.frames)-1]
	return f
}

// drainFrame closes every level of f and releases its held tokens.
func (h *ListHandler) drainFrame(f *ListFrame) ([]token.Token, error) {
	toks, err := popTags(f, len(f.Bullets))
	if err != nil {
		return nil, err
	}
	toks = append(toks, f.SolTokens...)
	if f.Nl != nil {
		toks = append(toks, *f.Nl)
	}
	f.SolTokens = nil
	f.Nl = nil
	return toks, nil
}

func (h *ListHandler) closeLists(tok token.Token) (Result, error) {
	toks, err := h.drainFrame(h.curr)
	if err != nil {
		return Result{}, err
	}
	toks = append(toks, tok)

	// Stay active while an outer frame waits behind a table.
	if len(h.frames) == 0 {
		h.anyEnabled = false
	}
	h.curr = nil

	h.trace("list", "closeLists RET:", token.Strings(toks))
	return Result{Tokens: toks}, nil
}

// popTags pops n (item close, list close) pairs off the frame's end-tag stack.
func popTags(f *ListFrame, n int) ([]token.Token, error) {
	var toks []token.Token
	for ; n > 0; n-- {
		if len(f.EndTags) < 2 {
			return nil, fmt.Errorf("%w: %d levels left, %d end tags", ErrStackUnderflow, n, len(f.EndTags))
		}
		last := len(f.EndTags) - 1
		toks = append(toks, f.EndTags[last], f.EndTags[last-1])
		f.EndTags = f.EndTags[:last-1]
	}
	return toks, nil
}

func popEndTag(f *ListFrame) (token.Token, error) {
	if len(f.EndTags) == 0 {
		return token.Token{}, ErrStackUnderflow
	}
	t := f.EndTags[len(f.EndTags)-1]
	f.EndTags = f.EndTags[:len(f.EndTags)-1]
	return t, nil
}

func (h *ListHandler) pushList(c token.Container, listMeta, itemMeta token.Meta) []token.Token {
	h.curr.EndTags = append(h.curr.EndTags, token.Close(c.List), token.Close(c.Item))

	switch c.Item {
	case "dd":
		h.curr.HaveDD = true
	case "dt":
		h.curr.HaveDD = false
	}

	return []token.Token{
		token.Open(c.List, nil, listMeta),
		token.Open(c.Item, nil, itemMeta),
	}
}

func commonPrefixLength(x, y string) int {
	n := min(len(x), len(y))
	i := 0
	for ; i < n; i++ {
		if x[i] != y[i] {
			break
		}
	}
	return i
}

func isDtDd(a, b byte) bool {
	return (a == ':' && b == ';') || (a == ';' && b == ':')
}

// doListItem emits the tags taking the list from nesting path bs to bn.
func (h *ListHandler) doListItem(bs, bn string, tok token.Token) ([]token.Token, error) {
	h.trace("list", "BEGIN:", tok)

	prefixLen := commonPrefixLength(bs, bn)
	meta := tok.Meta
	f := h.curr
	f.Bullets = bn

	h.trace("list", "    bs:", bs, "; bn:", bn)

	var res []token.Token
	if prefixLen == len(bs) && len(bn) == len(bs) {
		h.trace("list", "    -> no nesting change")

		// Same list, new item: it gets all the bullets.
		itemClose, err := popEndTag(f)
		if err != nil {
			return nil, err
		}
		f.EndTags = append(f.EndTags, token.Close(itemClose.Name))

		res = append(res, itemClose)
		res = append(res, f.SolTokens...)
		if f.Nl != nil {
			res = append(res, *f.Nl)
		}
		res = append(res, token.Open(itemClose.Name, nil, meta.Span(0, len(bn))))
	} else {
		prefixCorrection := 0
		if len(bs) > prefixLen && len(bn) > prefixLen && isDtDd(bs[prefixLen], bn[prefixLen]) {
			// dt/dd transition at the divergence point, as in
			//   **;:: foo
			//   **::: bar
			closed, err := popTags(f, len(bs)-prefixLen-1)
			if err != nil {
				return nil, err
			}
			res = append(res, f.SolTokens...)
			res = append(res, closed...)

			c, err := token.LookupBullet(bn[prefixLen])
			if err != nil {
				return nil, err
			}
			endTag, err := popEndTag(f)
			if err != nil {
				return nil, err
			}
			switch c.Item {
			case "dd":
				f.HaveDD = true
			case "dt":
				f.HaveDD = false
			}
			f.EndTags = append(f.EndTags, token.Close(c.Item))

			var itemMeta token.Meta
			if meta.Stx == token.StxRow {
				// ";a:b" on one line: the dd marker has no prefix of its own.
				itemMeta = meta.Span(0, 0)
			} else {
				itemMeta = meta.Span(prefixLen, prefixLen+1)
			}

			res = append(res, endTag)
			if f.Nl != nil {
				res = append(res, *f.Nl)
			}
			res = append(res, token.Open(c.Item, nil, itemMeta))

			prefixCorrection = 1
		} else {
			h.trace("list", "    -> reduced nesting")
			closed, err := popTags(f, len(bs)-prefixLen)
			if err != nil {
				return nil, err
			}
			res = append(res, f.SolTokens...)
			res = append(res, closed...)
			if f.Nl != nil {
				res = append(res, *f.Nl)
			}
			if prefixLen > 0 && len(bn) == prefixLen {
				itemClose, err := popEndTag(f)
				if err != nil {
					return nil, err
				}
				// The reopened item gets all bullets up to the shared prefix.
				res = append(res, itemClose, token.Open(itemClose.Name, nil, meta.Span(0, len(bn))))
				f.EndTags = append(f.EndTags, token.Close(itemClose.Name))
			}
		}

		for i := prefixLen + prefixCorrection; i < len(bn); i++ {
			c, err := token.LookupBullet(bn[i])
			if err != nil {
				return nil, err
			}

			// The first new level's item also covers the shared prefix;
			// deeper levels get a single bullet each.
			var listMeta, itemMeta token.Meta
			if i == prefixLen {
				h.trace("list", "    -> increased nesting: first")
				listMeta = meta.Span(0, 0)
				itemMeta = meta.Span(0, i+1)
			} else {
				h.trace("list", "    -> increased nesting: 2nd and higher")
				listMeta = meta.Span(i, i)
				itemMeta = meta.Span(i, i+1)
			}
			res = append(res, h.pushList(c, listMeta, itemMeta)...)
		}
	}

	f.SolTokens = nil
	f.Nl = nil
	f.AtEOL = false

	h.trace("list", "RET:", token.Strings(res))
	return res, nil
}
