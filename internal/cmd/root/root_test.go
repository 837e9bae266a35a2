package root

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-cli-collective/wtx/internal/config"
)

func TestNewCmdRoot(t *testing.T) {
	cmd := NewCmdRoot()

	assert.Equal(t, "wtx", cmd.Use)
	assert.True(t, cmd.SilenceUsage)
	assert.True(t, cmd.SilenceErrors)

	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"init", "transform", "fixtures", "config"} {
		assert.Contains(t, names, want)
	}

	for _, flag := range []string{"config", "output", "no-color", "trace"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), flag)
	}
	assert.Equal(t, "", cmd.PersistentFlags().Lookup("output").DefValue)
}

func TestRoot_TransformEndToEnd(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	for _, v := range config.EnvVars {
		t.Setenv(v, "")
	}

	input := filepath.Join(t.TempDir(), "in.wiki")
	require.NoError(t, os.WriteFile(input, []byte(";term:definition"), 0644))

	var stdout bytes.Buffer
	cmd := NewCmdRoot()
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"transform", "--no-color", "-o", "html", input})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "<dl><dt>term</dt><dd>definition</dd></dl>\n", stdout.String())
}

func TestRoot_UnknownCommand(t *testing.T) {
	cmd := NewCmdRoot()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"bogus"})

	assert.Error(t, cmd.Execute())
}
