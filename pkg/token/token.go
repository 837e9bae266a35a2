// Package token defines the token vocabulary shared by the lexer, the
// transform handlers and the tree builder.
package token

import (
	"fmt"
	"strings"
)

// Kind discriminates the Token variants.
type Kind int

const (
	KindText        Kind = iota // plain character data, possibly leading whitespace
	KindTagOpen                 // <name attrs>
	KindTagClose                // </name>
	KindSelfClosing             // <name attrs/>
	KindNewline                 // \n
	KindComment                 // <!--text-->
	KindEOF                     // end of input
	KindListItem                // raw bullet prefix such as "**" or "#:"
)

var kindNames = [...]string{
	KindText:        "text",
	KindTagOpen:     "open",
	KindTagClose:    "close",
	KindSelfClosing: "selfclose",
	KindNewline:     "nl",
	KindComment:     "comment",
	KindEOF:         "eof",
	KindListItem:    "listitem",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// MarshalText encodes k by name, so JSON token dumps are readable.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name written by MarshalText.
func (k *Kind) UnmarshalText(b []byte) error {
	for i, name := range kindNames {
		if name == string(b) {
			*k = Kind(i)
			return nil
		}
	}
	return fmt.Errorf("unknown token kind %q", b)
}

// Attr is a single key/value attribute. Attribute order is significant.
type Attr struct {
	Key   string `json:"k"`
	Value string `json:"v"`
}

// Token is a tagged union over Kind. Fields not used by a kind are left zero.
type Token struct {
	Kind    Kind   `json:"kind"`
	Name    string `json:"name,omitempty"`    // set for TagOpen, TagClose, SelfClosing
	Attrs   []Attr `json:"attrs,omitempty"`   // set for TagOpen, SelfClosing
	Text    string `json:"text,omitempty"`    // set for Text and Comment
	Bullets string `json:"bullets,omitempty"` // set for ListItem
	Meta    Meta   `json:"meta"`
}

// Text returns a text token.
func Text(s string) Token {
	return Token{Kind: KindText, Text: s}
}

// Open returns a TagOpen token.
func Open(name string, attrs []Attr, meta Meta) Token {
	return Token{Kind: KindTagOpen, Name: name, Attrs: attrs, Meta: meta}
}

// Close returns a TagClose token.
func Close(name string) Token {
	return Token{Kind: KindTagClose, Name: name}
}

// SelfClosing returns a SelfClosing token.
func SelfClosing(name string, attrs []Attr, meta Meta) Token {
	return Token{Kind: KindSelfClosing, Name: name, Attrs: attrs, Meta: meta}
}

// Newline returns a Newline token covering r.
func Newline(r *SourceRange) Token {
	return Token{Kind: KindNewline, Meta: Meta{TSR: r}}
}

// Comment returns a Comment token holding the raw comment body.
func Comment(raw string) Token {
	return Token{Kind: KindComment, Text: raw}
}

// EOF returns the end-of-input token.
func EOF() Token {
	return Token{Kind: KindEOF}
}

// ListItem returns a ListItemMarker token for the given bullet run.
func ListItem(bullets string, meta Meta) Token {
	return Token{Kind: KindListItem, Bullets: bullets, Meta: meta}
}

// IsTag reports whether t carries a tag name.
func (t Token) IsTag() bool {
	switch t.Kind {
	case KindTagOpen, KindTagClose, KindSelfClosing:
		return true
	}
	return false
}

// Attr returns the value of the first attribute named key.
func (t Token) Attr(key string) (string, bool) {
	for _, a := range t.Attrs {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// String renders a compact, stable debug form used by tracing and tests.
func (t Token) String() string {
	switch t.Kind {
	case KindText:
		return fmt.Sprintf("%q", t.Text)
	case KindTagOpen:
		return "<" + t.Name + attrString(t.Attrs) + ">"
	case KindTagClose:
		return "</" + t.Name + ">"
	case KindSelfClosing:
		return "<" + t.Name + attrString(t.Attrs) + "/>"
	case KindNewline:
		return "NL"
	case KindComment:
		return "<!--" + t.Text + "-->"
	case KindEOF:
		return "EOF"
	case KindListItem:
		return "LI[" + t.Bullets + "]"
	}
	return t.Kind.String()
}

func attrString(attrs []Attr) string {
	if len(attrs) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, a := range attrs {
		sb.WriteString(" ")
		sb.WriteString(a.Key)
		sb.WriteString(`="`)
		sb.WriteString(a.Value)
		sb.WriteString(`"`)
	}
	return sb.String()
}

// Strings renders each token with String. Handy for comparisons in tests.
func Strings(toks []Token) []string {
	out := make([]string, len(toks))
	for i, t := range toks {
		out[i] = t.String()
	}
	return out
}
