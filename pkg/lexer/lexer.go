// Package lexer splits wikitext source into the flat token stream consumed
// by the handler pipeline.
//
// Recognized constructs:
//   - line-initial bullet runs (* # ; :) as list-item markers
//   - the ':' that ends a term on a ";term:definition" line
//   - table syntax at the start of a line: {| |- |+ | || ! !! |}
//   - literal HTML tags and comments
//   - newlines
//
// Everything else is text. Every token carries the source range it covers.
package lexer

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/open-cli-collective/wtx/pkg/token"
)

// ErrInvalidUTF8 is returned for input that is not valid UTF-8.
var ErrInvalidUTF8 = errors.New("input is not valid UTF-8")

// Elements that never have content; written as <br> they still become
// self-closing tokens.
var voidTags = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

type lexer struct {
	input     string
	pos       int
	textStart int
	toks      []token.Token

	tableDepth int

	// Per-line state, cleared at every newline.
	cellName  string // "td", "th" or "caption" while on a cell line
	dtPrefix  string // bullets before the ';' of a term line
	dtLine    bool
	linkDepth int
}

// Tokenize scans input and returns its token stream, terminated by EOF.
func Tokenize(input string) ([]token.Token, error) {
	if !utf8.ValidString(input) {
		return nil, ErrInvalidUTF8
	}

	l := &lexer{input: input}
	l.startOfLine()

	for l.pos < len(l.input) {
		rest := l.input[l.pos:]
		c := rest[0]

		switch {
		case c == '\n':
			l.flushText()
			l.emit(token.Newline(token.Range(l.pos, l.pos+1)))
			l.pos++
			l.textStart = l.pos
			l.startOfLine()

		case c == '<':
			if strings.HasPrefix(rest, "<!--") {
				l.comment()
				continue
			}
			if !l.tag() {
				l.pos++
			}

		case strings.HasPrefix(rest, "[["):
			l.linkDepth++
			l.pos += 2

		case strings.HasPrefix(rest, "]]") && l.linkDepth > 0:
			l.linkDepth--
			l.pos += 2

		case c == ':' && l.dtLine && l.linkDepth == 0 && !strings.HasPrefix(rest, "://"):
			l.flushText()
			l.emit(token.ListItem(l.dtPrefix+":", token.Meta{
				TSR: token.Range(l.pos, l.pos+1),
				Stx: token.StxRow,
			}))
			l.pos++
			l.textStart = l.pos

		case l.isCellSeparator(rest):
			l.flushText()
			start := l.pos
			l.pos += 2
			l.cell(l.cellName, start)

		default:
			l.pos++
		}
	}

	l.flushText()
	l.emit(token.EOF())
	return l.toks, nil
}

func (l *lexer) emit(t token.Token) {
	l.toks = append(l.toks, t)
}

// flushText emits any text accumulated since textStart.
func (l *lexer) flushText() {
	if l.pos > l.textStart {
		t := token.Text(l.input[l.textStart:l.pos])
		t.Meta.TSR = token.Range(l.textStart, l.pos)
		l.emit(t)
	}
	l.textStart = l.pos
}

// eol returns the offset of the next newline, or the end of input.
func (l *lexer) eol() int {
	if i := strings.IndexByte(l.input[l.pos:], '\n'); i >= 0 {
		return l.pos + i
	}
	return len(l.input)
}

func (l *lexer) isCellSeparator(rest string) bool {
	if l.cellName == "" || l.cellName == "caption" || l.linkDepth > 0 {
		return false
	}
	if strings.HasPrefix(rest, "||") {
		return true
	}
	return l.cellName == "th" && strings.HasPrefix(rest, "!!")
}

// startOfLine recognizes the constructs only valid at the start of a line.
func (l *lexer) startOfLine() {
	l.cellName = ""
	l.dtLine = false
	l.dtPrefix = ""
	l.linkDepth = 0

	if n := bulletRun(l.input[l.pos:]); n > 0 {
		bullets := l.input[l.pos : l.pos+n]
		l.emit(token.ListItem(bullets, token.Meta{TSR: token.Range(l.pos, l.pos+n)}))
		l.pos += n
		l.textStart = l.pos
		if bullets[n-1] == ';' {
			l.dtLine = true
			l.dtPrefix = bullets[:n-1]
		}
		return
	}

	l.tableLine()
}

func bulletRun(s string) int {
	n := 0
	for n < len(s) && token.IsBullet(s[n]) {
		n++
	}
	return n
}

// tableLine handles table syntax, which may be preceded by whitespace.
func (l *lexer) tableLine() {
	p := l.pos
	for p < len(l.input) && (l.input[p] == ' ' || l.input[p] == '\t') {
		p++
	}
	rest := l.input[p:]

	opens := strings.HasPrefix(rest, "{|")
	inTable := l.tableDepth > 0 && len(rest) > 0 && (rest[0] == '|' || rest[0] == '!')
	if !opens && !inTable {
		return
	}

	// Leading whitespace stays a separate text token.
	l.pos = p
	l.flushText()
	eol := l.eol()

	switch {
	case opens:
		attrs, _, _ := parseAttrs(l.input[p+2 : eol])
		l.emit(token.Open("table", attrs, token.Meta{TSR: token.Range(p, eol)}))
		l.tableDepth++
		l.pos = eol

	case strings.HasPrefix(rest, "|}"):
		t := token.Close("table")
		t.Meta.TSR = token.Range(p, p+2)
		l.emit(t)
		l.tableDepth--
		l.pos = p + 2

	case strings.HasPrefix(rest, "|-"):
		q := p + 1
		for q < eol && l.input[q] == '-' {
			q++
		}
		attrs, _, _ := parseAttrs(l.input[q:eol])
		l.emit(token.Open("tr", attrs, token.Meta{TSR: token.Range(p, eol)}))
		l.pos = eol

	case strings.HasPrefix(rest, "|+"):
		l.pos = p + 2
		l.cell("caption", p)

	case rest[0] == '|':
		l.pos = p + 1
		l.cell("td", p)

	default:
		l.pos = p + 1
		l.cell("th", p)
	}
	l.textStart = l.pos
}

// cell emits the open tag of a cell whose delimiter starts at start and
// ends at l.pos, consuming an optional "attrs |" prefix.
func (l *lexer) cell(name string, start int) {
	end := l.cellEnd(name)
	seg := l.input[l.pos:end]

	var attrs []token.Attr
	if bar := strings.IndexByte(seg, '|'); bar >= 0 {
		if a, n, ok := parseAttrs(seg[:bar]); ok && len(a) > 0 && n == bar {
			attrs = a
			l.pos += bar + 1
		}
	}

	l.emit(token.Open(name, attrs, token.Meta{TSR: token.Range(start, l.pos)}))
	l.textStart = l.pos
	l.cellName = name
}

// cellEnd returns where the cell starting at l.pos ends on its line.
func (l *lexer) cellEnd(name string) int {
	eol := l.eol()
	line := l.input[l.pos:eol]
	end := len(line)
	if name == "caption" {
		return eol
	}
	if i := strings.Index(line, "||"); i >= 0 {
		end = i
	}
	if name == "th" {
		if i := strings.Index(line, "!!"); i >= 0 && i < end {
			end = i
		}
	}
	return l.pos + end
}

// comment emits a comment token. An unterminated comment runs to the end
// of input.
func (l *lexer) comment() {
	l.flushText()
	start := l.pos
	body := l.input[start+4:]
	end := len(l.input)
	if i := strings.Index(body, "-->"); i >= 0 {
		body = body[:i]
		end = start + 4 + i + 3
	}
	t := token.Comment(body)
	t.Meta.TSR = token.Range(start, end)
	l.emit(t)
	l.pos = end
	l.textStart = end
}

// tag tries to read an HTML tag at l.pos. It reports false, consuming
// nothing, when the '<' does not start a well-formed tag.
func (l *lexer) tag() bool {
	s := l.input[l.pos:]
	p := 1

	closing := false
	if p < len(s) && s[p] == '/' {
		closing = true
		p++
	}

	nameStart := p
	for p < len(s) && isTagNameChar(s[p], p == nameStart) {
		p++
	}
	if p == nameStart {
		return false
	}
	name := strings.ToLower(s[nameStart:p])
	if p < len(s) && !isSpace(s[p]) && s[p] != '>' && s[p] != '/' {
		return false
	}

	var t token.Token
	if closing {
		for p < len(s) && isSpace(s[p]) {
			p++
		}
		if p >= len(s) || s[p] != '>' {
			return false
		}
		p++
		t = token.Close(name)
	} else {
		attrs, n, ok := parseAttrs(s[p:])
		if !ok {
			return false
		}
		p += n
		switch {
		case strings.HasPrefix(s[p:], "/>"):
			p += 2
			t = token.SelfClosing(name, attrs, token.Meta{})
		case p < len(s) && s[p] == '>':
			p++
			if voidTags[name] {
				t = token.SelfClosing(name, attrs, token.Meta{})
			} else {
				t = token.Open(name, attrs, token.Meta{})
			}
		default:
			return false
		}
	}

	l.flushText()
	t.Meta.TSR = token.Range(l.pos, l.pos+p)
	t.Meta.Stx = token.StxHTML
	l.emit(t)
	l.pos += p
	l.textStart = l.pos
	return true
}

func isTagNameChar(c byte, first bool) bool {
	if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
		return true
	}
	return !first && c >= '0' && c <= '9'
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}
