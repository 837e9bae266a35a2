// Package fixture reads and runs transform fixtures.
//
// A fixture document is markdown. Every second-level heading starts a case
// named by the heading text. Fenced blocks inside the case give its input
// and expectations:
//
//	```wikitext          input source; "wikitext inline" disables block transforms
//	```tokens            expected token stream, one token per line
//	```html              expected HTML after tree building
//
// A case needs the wikitext block and at least one expectation.
package fixture

import (
	"fmt"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Case is a single fixture case.
type Case struct {
	Name     string
	Wikitext string
	Inline   bool

	// Expectations; nil when absent.
	Tokens []string
	HTML   *string
}

var mdParser = goldmark.New()

// Load reads the fixture document at path.
func Load(path string) ([]Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture file: %w", err)
	}
	cases, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cases, nil
}

// Parse reads fixture cases from a markdown document.
func Parse(source []byte) ([]Case, error) {
	doc := mdParser.Parser().Parse(text.NewReader(source))

	var (
		cases    []Case
		curr     *Case
		hasInput = map[int]bool{}
	)
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			if node.Level != 2 {
				continue
			}
			cases = append(cases, Case{Name: nodeText(node, source)})
			curr = &cases[len(cases)-1]

		case *ast.FencedCodeBlock:
			info := ""
			if node.Info != nil {
				info = string(node.Info.Segment.Value(source))
			}
			fields := strings.Fields(info)
			if len(fields) == 0 {
				continue
			}
			if curr == nil {
				return nil, fmt.Errorf("%s block before the first case heading", fields[0])
			}
			body := strings.TrimSuffix(blockText(node, source), "\n")

			switch fields[0] {
			case "wikitext":
				curr.Wikitext = body
				hasInput[len(cases)-1] = true
				for _, opt := range fields[1:] {
					if opt == "inline" {
						curr.Inline = true
					}
				}
			case "tokens":
				curr.Tokens = strings.Split(body, "\n")
			case "html":
				curr.HTML = &body
			}
		}
	}

	for i, c := range cases {
		if !hasInput[i] {
			return nil, fmt.Errorf("case %q has no wikitext block", c.Name)
		}
		if c.Tokens == nil && c.HTML == nil {
			return nil, fmt.Errorf("case %q has no expectation", c.Name)
		}
	}
	return cases, nil
}

func nodeText(n ast.Node, source []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(child ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := child.(*ast.Text); ok && entering {
			sb.Write(t.Segment.Value(source))
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}

func blockText(n *ast.FencedCodeBlock, source []byte) string {
	var sb strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		sb.Write(line.Value(source))
	}
	return sb.String()
}
