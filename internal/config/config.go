// Package config provides configuration management for wtx.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/open-cli-collective/wtx/internal/view"
)

// Config holds the wtx configuration.
type Config struct {
	WikiURL       string   `yaml:"wiki_url,omitempty"`
	OutputFormat  string   `yaml:"output_format,omitempty"`
	Trace         []string `yaml:"trace,omitempty"`
	InlineContext bool     `yaml:"inline_context,omitempty"`
	Workers       int      `yaml:"workers,omitempty"`
}

// Validate checks that the configured values are usable. The wiki URL is
// optional; it is only needed to fetch pages.
func (c *Config) Validate() error {
	if c.WikiURL != "" && !strings.HasPrefix(c.WikiURL, "https://") && !strings.HasPrefix(c.WikiURL, "http://") {
		return errors.New("wiki_url must use http or https")
	}
	if err := view.ValidateFormat(c.OutputFormat); err != nil {
		return err
	}
	if c.Workers < 0 {
		return errors.New("workers must not be negative")
	}
	return nil
}

// RequireWiki checks that a wiki URL is configured.
func (c *Config) RequireWiki() error {
	if c.WikiURL == "" {
		return errors.New("wiki_url is required")
	}
	return c.Validate()
}

// NormalizeURL strips trailing slashes and a trailing /api.php so that the
// URL names the wiki script path.
func (c *Config) NormalizeURL() {
	c.WikiURL = strings.TrimSuffix(c.WikiURL, "/")
	c.WikiURL = strings.TrimSuffix(c.WikiURL, "/api.php")
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables override existing values only if set and non-empty.
// Precedence: WTX_* → MEDIAWIKI_URL → existing config value
func (c *Config) LoadFromEnv() {
	if url := getEnvWithFallback("WTX_WIKI_URL", "MEDIAWIKI_URL"); url != "" {
		c.WikiURL = url
	}
	if format := os.Getenv("WTX_OUTPUT"); format != "" {
		c.OutputFormat = format
	}
	if trace := os.Getenv("WTX_TRACE"); trace != "" {
		c.Trace = SplitList(trace)
	}
	if workers := os.Getenv("WTX_WORKERS"); workers != "" {
		if n, err := strconv.Atoi(workers); err == nil {
			c.Workers = n
		}
	}
}

// SplitList splits a comma-separated list, dropping empty entries.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnvWithFallback returns the value of the primary env var, or the fallback if primary is empty.
func getEnvWithFallback(primary, fallback string) string {
	if v := os.Getenv(primary); v != "" {
		return v
	}
	return os.Getenv(fallback)
}

// EnvVars lists every environment variable LoadFromEnv reads.
var EnvVars = []string{"WTX_WIKI_URL", "MEDIAWIKI_URL", "WTX_OUTPUT", "WTX_TRACE", "WTX_WORKERS"}

// DefaultConfigPath returns the default configuration file path.
func DefaultConfigPath() string {
	// Try XDG config directory first
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "wtx", "config.yml")
	}

	// Fall back to ~/.config/wtx/config.yml
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".wtx", "config.yml")
	}

	return filepath.Join(home, ".config", "wtx", "config.yml")
}

// PathOrDefault returns path, or the default configuration path if path is
// empty.
func PathOrDefault(path string) string {
	if path != "" {
		return path
	}
	return DefaultConfigPath()
}

// Save writes the configuration to the specified path.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Load reads the configuration from the specified path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

// LoadWithEnv loads configuration from file and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		// If file doesn't exist, start with empty config
		cfg = &Config{}
	}

	cfg.LoadFromEnv()
	return cfg, nil
}
