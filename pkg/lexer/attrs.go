package lexer

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/open-cli-collective/wtx/pkg/token"
)

// parseAttrs reads key=value attributes from s until a '>', a "/>" or the
// end of s. It returns the attributes, the offset it stopped at, and
// whether everything up to that offset was well formed. Keys are
// lowercased; values have character references decoded.
func parseAttrs(s string) ([]token.Attr, int, bool) {
	var attrs []token.Attr
	pos := 0

	for {
		for pos < len(s) && isSpace(s[pos]) {
			pos++
		}
		if pos >= len(s) || s[pos] == '>' || strings.HasPrefix(s[pos:], "/>") {
			return attrs, pos, true
		}

		keyStart := pos
		for pos < len(s) && isAttrKeyChar(s[pos]) {
			pos++
		}
		if pos == keyStart {
			return attrs, pos, false
		}
		key := strings.ToLower(s[keyStart:pos])

		p := pos
		for p < len(s) && isSpace(s[p]) {
			p++
		}
		if p >= len(s) || s[p] != '=' {
			// Key without value
			attrs = append(attrs, token.Attr{Key: key})
			continue
		}
		p++
		for p < len(s) && isSpace(s[p]) {
			p++
		}

		value, next, ok := parseAttrValue(s, p)
		if !ok {
			return attrs, next, false
		}
		attrs = append(attrs, token.Attr{Key: key, Value: html.UnescapeString(value)})
		pos = next
	}
}

// parseAttrValue reads a quoted or unquoted value starting at pos.
func parseAttrValue(s string, pos int) (string, int, bool) {
	if pos >= len(s) {
		return "", pos, true
	}

	if q := s[pos]; q == '"' || q == '\'' {
		end := strings.IndexByte(s[pos+1:], q)
		if end < 0 {
			return "", pos, false
		}
		return s[pos+1 : pos+1+end], pos + end + 2, true
	}

	start := pos
	for pos < len(s) && !isSpace(s[pos]) && s[pos] != '>' && !strings.HasPrefix(s[pos:], "/>") {
		pos++
	}
	return s[start:pos], pos, true
}

func isAttrKeyChar(c byte) bool {
	switch c {
	case '"', '\'', '>', '/', '=', '<', '|', '[', ']', '{', '}':
		return false
	}
	return c > 0x20 && c != 0x7f
}
