// Package treebuild turns a transformed token stream into HTML: as source
// text, as a parsed DOM fragment, or converted further to markdown.
package treebuild

import (
	"bytes"
	"fmt"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/open-cli-collective/wtx/pkg/env"
	"github.com/open-cli-collective/wtx/pkg/token"
)

var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// Serialize renders toks as HTML source. Attributes whose names are not
// valid HTML are dropped with a warning on e.
func Serialize(toks []token.Token, e *env.Env) string {
	var sb strings.Builder
	afterPre := false

	for _, t := range toks {
		switch t.Kind {
		case token.KindText:
			// A newline right after <pre> is swallowed by HTML parsers.
			if afterPre && strings.HasPrefix(t.Text, "\n") {
				sb.WriteByte('\n')
			}
			sb.WriteString(html.EscapeString(t.Text))
		case token.KindTagOpen:
			writeStartTag(&sb, t, e)
		case token.KindSelfClosing:
			writeStartTag(&sb, t, e)
			if !voidElements[t.Name] {
				sb.WriteString("</" + t.Name + ">")
			}
		case token.KindTagClose:
			sb.WriteString("</" + t.Name + ">")
		case token.KindNewline:
			if afterPre {
				sb.WriteByte('\n')
			}
			sb.WriteByte('\n')
		case token.KindComment:
			sb.WriteString("<!--" + t.Text + "-->")
		case token.KindListItem:
			// Only reachable when the stream skipped the list handler.
			e.Warnf("unconverted list marker %q", t.Bullets)
			sb.WriteString(html.EscapeString(t.Bullets))
		case token.KindEOF:
		}
		afterPre = t.Kind == token.KindTagOpen && t.Name == "pre"
	}
	return sb.String()
}

func writeStartTag(sb *strings.Builder, t token.Token, e *env.Env) {
	sb.WriteString("<" + t.Name)
	attrs := token.CopyAttrs(t.Attrs, func(a token.Attr) {
		e.Warnf("dropping invalid attribute %q on <%s>", a.Key, t.Name)
	})
	for _, a := range attrs {
		sb.WriteString(" " + a.Key + `="` + html.EscapeString(a.Value) + `"`)
	}
	sb.WriteString(">")
}

// Build parses toks into a DOM fragment, as if they were the content of a
// document body. The HTML parser supplies any end tags the stream implies,
// such as those of table cells.
func Build(toks []token.Token, e *env.Env) ([]*html.Node, error) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(Serialize(toks, e)), body)
	if err != nil {
		return nil, fmt.Errorf("parsing fragment: %w", err)
	}
	return nodes, nil
}

// Render renders a fragment back to HTML source.
func Render(nodes []*html.Node) (string, error) {
	var buf bytes.Buffer
	for _, n := range nodes {
		if err := html.Render(&buf, n); err != nil {
			return "", fmt.Errorf("rendering <%s>: %w", n.Data, err)
		}
	}
	return buf.String(), nil
}

// ToHTML builds and re-renders toks, yielding well-formed HTML.
func ToHTML(toks []token.Token, e *env.Env) (string, error) {
	nodes, err := Build(toks, e)
	if err != nil {
		return "", err
	}
	return Render(nodes)
}

// ToMarkdown converts toks to markdown by way of HTML.
func ToMarkdown(toks []token.Token, e *env.Env) (string, error) {
	src, err := ToHTML(toks, e)
	if err != nil {
		return "", err
	}
	if src == "" {
		return "", nil
	}

	markdown, err := htmltomarkdown.ConvertString(src)
	if err != nil {
		return "", fmt.Errorf("converting to markdown: %w", err)
	}
	return strings.TrimSpace(markdown), nil
}
