// Package view provides output formatting for wtx commands.
package view

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/open-cli-collective/wtx/pkg/token"
)

// Format represents an output format.
type Format string

const (
	FormatTokens   Format = "tokens"
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// ValidFormats returns the accepted output format names.
func ValidFormats() []string {
	return []string{string(FormatTokens), string(FormatHTML), string(FormatMarkdown), string(FormatJSON)}
}

// ValidateFormat checks an output format name. Empty means the default.
func ValidateFormat(format string) error {
	if format == "" {
		return nil
	}
	for _, f := range ValidFormats() {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid output format %q (valid: %s)", format, strings.Join(ValidFormats(), ", "))
}

// Renderer renders data in a specific format.
type Renderer struct {
	format  Format
	writer  io.Writer
	noColor bool
}

// NewRenderer creates a new renderer with the specified format.
func NewRenderer(format Format, noColor bool) *Renderer {
	if noColor {
		color.NoColor = true
	}
	if format == "" {
		format = FormatTokens
	}
	return &Renderer{
		format:  format,
		writer:  os.Stdout,
		noColor: noColor,
	}
}

// Format returns the renderer's output format.
func (r *Renderer) Format() Format {
	return r.format
}

// SetWriter sets the output writer.
func (r *Renderer) SetWriter(w io.Writer) {
	r.writer = w
}

// RenderTable renders data as aligned columns, or as a list of objects in
// JSON mode.
func (r *Renderer) RenderTable(headers []string, rows [][]string) {
	if r.format == FormatJSON {
		r.renderTableAsJSON(headers, rows)
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, val := range row {
			if i < len(widths) && len(val) > widths[i] {
				widths[i] = len(val)
			}
		}
	}

	printRow := func(row []string) {
		for i, val := range row {
			if i > 0 {
				fmt.Fprint(r.writer, "  ")
			}
			if i < len(row)-1 && i < len(widths) {
				fmt.Fprintf(r.writer, "%-*s", widths[i], val)
			} else {
				fmt.Fprint(r.writer, val)
			}
		}
		fmt.Fprintln(r.writer)
	}

	printRow(headers)
	for _, row := range rows {
		printRow(row)
	}
}

func (r *Renderer) renderTableAsJSON(headers []string, rows [][]string) {
	var result []map[string]string
	for _, row := range rows {
		item := make(map[string]string)
		for i, header := range headers {
			if i < len(row) {
				item[strings.ToLower(header)] = row[i]
			}
		}
		result = append(result, item)
	}

	data, _ := json.MarshalIndent(result, "", "  ")
	fmt.Fprintln(r.writer, string(data))
}

// RenderTokens renders a token stream: one row per token, or the tokens
// themselves in JSON mode.
func (r *Renderer) RenderTokens(toks []token.Token) error {
	if r.format == FormatJSON {
		if toks == nil {
			toks = []token.Token{}
		}
		return r.RenderJSON(toks)
	}

	rows := make([][]string, len(toks))
	for i, t := range toks {
		rng := "-"
		if t.Meta.TSR != nil {
			rng = t.Meta.TSR.String()
		}
		rows[i] = []string{strconv.Itoa(i), t.Kind.String(), rng, colorize(t)}
	}
	r.RenderTable([]string{"#", "KIND", "RANGE", "TOKEN"}, rows)
	return nil
}

func colorize(t token.Token) string {
	s := t.String()
	switch t.Kind {
	case token.KindTagOpen, token.KindTagClose, token.KindSelfClosing:
		return color.CyanString(s)
	case token.KindListItem:
		return color.MagentaString(s)
	case token.KindComment, token.KindNewline, token.KindEOF:
		return color.New(color.Faint).Sprint(s)
	}
	return s
}

// RenderJSON renders an object as JSON.
func (r *Renderer) RenderJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(r.writer, string(data))
	return nil
}

// RenderText renders plain text.
func (r *Renderer) RenderText(text string) {
	fmt.Fprintln(r.writer, text)
}

// RenderKeyValue renders a key-value pair.
func (r *Renderer) RenderKeyValue(key, value string) {
	if r.format == FormatJSON {
		data, _ := json.Marshal(map[string]string{key: value})
		fmt.Fprintln(r.writer, string(data))
		return
	}
	bold := color.New(color.Bold)
	_, _ = bold.Fprintf(r.writer, "%s: ", key)
	fmt.Fprintln(r.writer, value)
}

// Success prints a success message.
func (r *Renderer) Success(msg string) {
	green := color.New(color.FgGreen)
	_, _ = green.Fprintln(r.writer, "✓ "+msg)
}

// Error prints an error message.
func (r *Renderer) Error(msg string) {
	red := color.New(color.FgRed)
	_, _ = red.Fprintln(r.writer, "✗ "+msg)
}

// Truncate truncates a string to the specified length.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
