package configcmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/open-cli-collective/wtx/internal/config"
)

// NewCmdShow creates the config show command.
func NewCmdShow() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Long:  `Display the effective wtx configuration and where each value comes from.`,
		Example: `  # Show current config
  wtx config show`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			noColor, _ := cmd.Flags().GetBool("no-color")
			configPath, _ := cmd.Flags().GetString("config")
			return runShow(config.PathOrDefault(configPath), noColor)
		},
	}

	return cmd
}

func runShow(configPath string, noColor bool) error {
	if noColor {
		color.NoColor = true
	}

	// Load file config (may not exist)
	fileCfg, fileErr := config.Load(configPath)
	if fileErr != nil {
		fileCfg = &config.Config{}
	}

	// Load full config with env overrides
	cfg, _ := config.LoadWithEnv(configPath)

	bold := color.New(color.Bold)
	dim := color.New(color.Faint)

	printField := func(label, value, fileValue string, envVars ...string) {
		_, _ = bold.Printf("%-12s", label+":")
		if value == "" {
			_, _ = dim.Println("-")
			return
		}

		fmt.Print(value)
		_, _ = dim.Printf("  (source: %s)\n", valueSource(value, fileValue, fileErr == nil, envVars...))
	}

	workers := func(n int) string {
		if n == 0 {
			return ""
		}
		return strconv.Itoa(n)
	}
	inline := func(b bool) string {
		if !b {
			return ""
		}
		return "true"
	}

	printField("Wiki URL", cfg.WikiURL, fileCfg.WikiURL, "WTX_WIKI_URL", "MEDIAWIKI_URL")
	printField("Output", cfg.OutputFormat, fileCfg.OutputFormat, "WTX_OUTPUT")
	printField("Trace", strings.Join(cfg.Trace, ","), strings.Join(fileCfg.Trace, ","), "WTX_TRACE")
	printField("Inline", inline(cfg.InlineContext), inline(fileCfg.InlineContext))
	printField("Workers", workers(cfg.Workers), workers(fileCfg.Workers), "WTX_WORKERS")

	fmt.Println()
	_, _ = dim.Printf("Config file: %s\n", configPath)
	if fileErr != nil {
		_, _ = dim.Println("(file not found)")
	}
	if active := activeEnvVars(); len(active) > 0 {
		_, _ = dim.Printf("Environment: %s\n", strings.Join(active, ", "))
	}

	return nil
}

// valueSource names where an effective value came from: the first listed
// environment variable that produces it, else the config file.
func valueSource(value, fileValue string, haveFile bool, envVars ...string) string {
	for _, envVar := range envVars {
		v := os.Getenv(envVar)
		if v == "" {
			continue
		}
		if v == value || strings.Join(config.SplitList(v), ",") == value {
			return envVar
		}
	}
	if haveFile && fileValue == value {
		return "config"
	}
	return "-"
}

// activeEnvVars lists the configuration environment variables that are set.
func activeEnvVars() []string {
	var active []string
	for _, v := range config.EnvVars {
		if os.Getenv(v) != "" {
			active = append(active, v)
		}
	}
	return active
}
