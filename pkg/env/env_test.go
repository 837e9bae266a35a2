package env

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

func TestEnv_Trace(t *testing.T) {
	tests := []struct {
		name     string
		channels []string
		channel  string
		want     string
	}{
		{"enabled channel", []string{"pre"}, "pre", "[pre/7] NL | SOL\n"},
		{"disabled channel", []string{"pre"}, "list", ""},
		{"all enables everything", []string{"all"}, "list", "[list/7] NL | SOL\n"},
		{"blank channel names ignored", []string{" ", ""}, "pre", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			e := New(tt.channels...)
			e.SetWriter(&buf)
			e.Trace(tt.channel, 7, "NL", "|", "SOL")
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestEnv_Warnf(t *testing.T) {
	var buf bytes.Buffer
	e := New()
	e.SetWriter(&buf)

	e.Warnf("dropped attribute %q", "a b")
	e.Warnf("second")

	assert.Equal(t, "WARN: dropped attribute \"a b\"\nWARN: second\n", buf.String())
	assert.Equal(t, []string{`dropped attribute "a b"`, "second"}, e.Warnings())
}

func TestEnv_NilIsQuiet(t *testing.T) {
	var e *Env
	assert.False(t, e.Tracing("pre"))
	e.Trace("pre", 1, "x")
	e.Warnf("x")
}

func TestEnv_NewPipelineID(t *testing.T) {
	e := New()
	first := e.NewPipelineID()
	second := e.NewPipelineID()
	require.NotEqual(t, first, second)
	assert.Equal(t, first+1, second)
}
