package configcmd

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-cli-collective/wtx/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, v := range config.EnvVars {
		t.Setenv(v, "")
	}
}

func TestRunShow_WithConfigFile(t *testing.T) {
	clearEnv(t)
	configPath := filepath.Join(t.TempDir(), "config.yml")

	cfg := &config.Config{
		WikiURL:       "https://en.wikipedia.org/w",
		OutputFormat:  "markdown",
		Trace:         []string{"pre", "list"},
		InlineContext: true,
		Workers:       4,
	}
	require.NoError(t, cfg.Save(configPath))

	err := runShow(configPath, true)
	require.NoError(t, err)
}

func TestRunShow_NoConfigFile(t *testing.T) {
	clearEnv(t)

	err := runShow(filepath.Join(t.TempDir(), "config.yml"), true)
	require.NoError(t, err)
}

func TestValueSource(t *testing.T) {
	clearEnv(t)

	assert.Equal(t, "config", valueSource("html", "html", true, "WTX_OUTPUT"))
	assert.Equal(t, "-", valueSource("html", "html", false, "WTX_OUTPUT"))
	assert.Equal(t, "-", valueSource("html", "json", true, "WTX_OUTPUT"))

	t.Setenv("WTX_OUTPUT", "html")
	assert.Equal(t, "WTX_OUTPUT", valueSource("html", "json", true, "WTX_OUTPUT"))

	t.Setenv("MEDIAWIKI_URL", "https://example.org/w")
	assert.Equal(t, "MEDIAWIKI_URL", valueSource("https://example.org/w", "", false, "WTX_WIKI_URL", "MEDIAWIKI_URL"))

	// Lists compare after splitting
	t.Setenv("WTX_TRACE", "pre, list")
	assert.Equal(t, "WTX_TRACE", valueSource("pre,list", "", false, "WTX_TRACE"))
}
