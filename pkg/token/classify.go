package token

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrUnknownBullet indicates a list marker carrying a character outside the
// bullet alphabet. It means the lexer produced a corrupt token.
var ErrUnknownBullet = errors.New("unknown list bullet")

// Container names the list and item tags a bullet maps to.
type Container struct {
	List string
	Item string
}

var bulletMap = map[byte]Container{
	'*': {List: "ul", Item: "li"},
	'#': {List: "ol", Item: "li"},
	';': {List: "dl", Item: "dt"},
	':': {List: "dl", Item: "dd"},
}

// LookupBullet returns the container for bullet b.
func LookupBullet(b byte) (Container, error) {
	c, ok := bulletMap[b]
	if !ok {
		return Container{}, fmt.Errorf("%w: %q", ErrUnknownBullet, b)
	}
	return c, nil
}

// IsBullet reports whether b is one of * # ; :.
func IsBullet(b byte) bool {
	_, ok := bulletMap[b]
	return ok
}

// HTML block-level elements.
var blockTags = setOf(
	"address", "article", "aside", "blockquote", "body", "caption", "center",
	"col", "colgroup", "dd", "details", "dialog", "dir", "div", "dl", "dt",
	"fieldset", "figcaption", "figure", "footer", "form", "h1", "h2", "h3",
	"h4", "h5", "h6", "head", "header", "hgroup", "hr", "html", "legend", "li",
	"listing", "main", "menu", "nav", "ol", "optgroup", "option", "p",
	"plaintext", "pre", "section", "summary", "table", "tbody", "td", "tfoot",
	"th", "thead", "title", "tr", "ul", "xmp",
)

// Tags that interrupt wikitext line constructs. Narrower than blockTags.
var wikitextBlockTags = setOf(
	"div", "p", "table", "tbody", "thead", "tfoot", "caption", "th", "tr",
	"td", "ul", "ol", "li", "dl", "dt", "dd", "h1", "h2", "h3", "h4", "h5",
	"h6", "hr", "pre", "blockquote", "center", "figure", "figcaption",
	"section", "nav", "article", "aside", "header", "footer", "main",
)

var tableTags = setOf("table", "tbody", "thead", "tfoot", "caption", "tr", "td", "th")

func setOf(names ...string) map[string]bool {
	m := make(map[string]bool, len(names))
	for _, n := range names {
		m[n] = true
	}
	return m
}

// IsBlockTag reports whether name is an HTML block-level element.
func IsBlockTag(name string) bool {
	return blockTags[strings.ToLower(name)]
}

// IsWikitextBlockTag reports whether name breaks wikitext line constructs
// such as indent-pre.
func IsWikitextBlockTag(name string) bool {
	return wikitextBlockTags[strings.ToLower(name)]
}

// IsTableTag reports whether t is a tag belonging to table structure.
func IsTableTag(t Token) bool {
	return t.IsTag() && tableTags[strings.ToLower(t.Name)]
}

// IsHTMLTag reports whether t is a tag written as literal HTML in the source.
func IsHTMLTag(t Token) bool {
	return t.IsTag() && t.Meta.Stx == StxHTML
}

var blankText = regexp.MustCompile(`^[ \t]*$`)

// IsSolTransparent reports whether t leaves start-of-line status intact:
// whitespace runs, comments, and behaviour-switch or category metadata.
func IsSolTransparent(t Token) bool {
	switch t.Kind {
	case KindText:
		return blankText.MatchString(t.Text)
	case KindComment:
		return true
	case KindSelfClosing:
		switch t.Name {
		case "meta":
			typeOf, _ := t.Attr("typeof")
			return strings.HasPrefix(typeOf, "mw:Includes/") ||
				strings.HasPrefix(typeOf, "mw:PageProp/") ||
				strings.HasPrefix(typeOf, "mw:Annotation/")
		case "link":
			rel, _ := t.Attr("rel")
			return strings.HasPrefix(rel, "mw:PageProp/Category")
		}
	}
	return false
}
