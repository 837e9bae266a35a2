// Package env provides the environment collaborator handed to every
// transform pipeline: a trace sink keyed by channel and pipeline id, and a
// warning log.
package env

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// Env is safe for concurrent use by independent pipelines; it holds no
// per-pipeline state.
type Env struct {
	mu       sync.Mutex
	out      io.Writer
	channels map[string]bool
	warnings []string
	nextID   int
}

// New creates an Env writing to stderr with the given trace channels
// enabled. The channel "all" enables every channel.
func New(channels ...string) *Env {
	e := &Env{out: os.Stderr, channels: map[string]bool{}}
	for _, c := range channels {
		c = strings.TrimSpace(c)
		if c != "" {
			e.channels[c] = true
		}
	}
	return e
}

// SetWriter sets the output writer.
func (e *Env) SetWriter(w io.Writer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.out = w
}

// NewPipelineID hands out a fresh identifier for a pipeline instance.
func (e *Env) NewPipelineID() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.nextID++
	return e.nextID
}

// Tracing reports whether channel is enabled.
func (e *Env) Tracing(channel string) bool {
	if e == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.channels[channel] || e.channels["all"]
}

// Trace writes args to the trace sink when channel is enabled. Tracing is
// purely observational.
func (e *Env) Trace(channel string, pipelineID int, args ...interface{}) {
	if !e.Tracing(channel) {
		return
	}
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprint(a)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	cyan := color.New(color.FgCyan)
	_, _ = cyan.Fprintf(e.out, "[%s/%d] ", channel, pipelineID)
	_, _ = fmt.Fprintln(e.out, strings.Join(parts, " "))
}

// Warnf logs a warning and stores it for later inspection.
func (e *Env) Warnf(format string, args ...interface{}) {
	if e == nil {
		return
	}
	msg := fmt.Sprintf(format, args...)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.warnings = append(e.warnings, msg)
	yellow := color.New(color.FgYellow)
	_, _ = yellow.Fprintln(e.out, "WARN: "+msg)
}

// Warnings returns every warning logged so far.
func (e *Env) Warnings() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.warnings...)
}
