package token

import "fmt"

// Unknown is the source offset used when a position cannot be computed.
const Unknown = -1

// SourceRange is a [Start, End) byte range into the original source text.
type SourceRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Range returns a pointer to a new SourceRange.
func Range(start, end int) *SourceRange {
	return &SourceRange{Start: start, End: end}
}

func (r SourceRange) String() string {
	return fmt.Sprintf("[%d,%d)", r.Start, r.End)
}

// Syntax flags recorded by the lexer.
const (
	StxHTML = "html" // tag written as literal HTML
	StxRow  = "row"  // dd marker written on the same line as its dt, as in ";a:b"
)

// Meta is per-token metadata. A nil TSR means the range is not computable.
type Meta struct {
	TSR *SourceRange `json:"tsr,omitempty"`
	Stx string       `json:"stx,omitempty"`
}

// WithTSR returns a copy of m with only the source range replaced.
func (m Meta) WithTSR(r *SourceRange) Meta {
	m.TSR = r
	return m
}

// Span returns a copy of m whose range is [start+k, start+j) relative to
// m's own range start. If m has no range the copy has none either.
func (m Meta) Span(k, j int) Meta {
	if m.TSR == nil {
		return m.WithTSR(nil)
	}
	return m.WithTSR(Range(m.TSR.Start+k, m.TSR.Start+j))
}
