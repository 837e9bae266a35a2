// Package init provides the init command for wtx.
package init

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/open-cli-collective/wtx/api"
	"github.com/open-cli-collective/wtx/internal/config"
	"github.com/open-cli-collective/wtx/internal/view"
)

// traceChannels are the channels the transform handlers write to.
var traceChannels = []string{"pre", "list"}

// NewCmdInit creates the init command.
func NewCmdInit() *cobra.Command {
	var (
		url      string
		noVerify bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize wtx configuration",
		Long: `Initialize wtx with your defaults.

This command will guide you through choosing a default output format, the
trace channels to enable, and optionally a MediaWiki site to fetch pages
from. The configuration will be saved to ~/.config/wtx/config.yml.

The wiki URL is the script path of the wiki, the directory holding api.php,
for example https://en.wikipedia.org/w`,
		Example: `  # Interactive setup
  wtx init

  # Pre-populate the wiki URL
  wtx init --url https://en.wikipedia.org/w`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			return runInit(config.PathOrDefault(configPath), url, noVerify)
		},
	}

	cmd.Flags().StringVar(&url, "url", "", "MediaWiki script path URL (e.g., https://en.wikipedia.org/w)")
	cmd.Flags().BoolVar(&noVerify, "no-verify", false, "Skip connection verification")

	return cmd
}

func runInit(configPath, prefillURL string, noVerify bool) error {
	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		var overwrite bool
		err := huh.NewConfirm().
			Title("Configuration already exists").
			Description(fmt.Sprintf("Overwrite %s?", configPath)).
			Value(&overwrite).
			Run()
		if err != nil {
			return err
		}
		if !overwrite {
			fmt.Println("Initialization cancelled.")
			return nil
		}
	}

	cfg := &config.Config{
		WikiURL:      prefillURL,
		OutputFormat: string(view.FormatTokens),
	}

	formatOptions := make([]huh.Option[string], 0, len(view.ValidFormats()))
	for _, f := range view.ValidFormats() {
		formatOptions = append(formatOptions, huh.NewOption(f, f))
	}

	// Build the form
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Wiki URL (optional)").
				Description("Script path of a MediaWiki site, used by transform --page").
				Placeholder("https://en.wikipedia.org/w").
				Value(&cfg.WikiURL).
				Validate(validateURL),

			huh.NewSelect[string]().
				Title("Output format").
				Description("Default for transform and fixtures").
				Options(formatOptions...).
				Value(&cfg.OutputFormat),

			huh.NewMultiSelect[string]().
				Title("Trace channels").
				Description("Handler traces written to stderr").
				Options(huh.NewOptionsFromSlice(traceChannels)...).
				Value(&cfg.Trace),

			huh.NewConfirm().
				Title("Inline context").
				Description("Transform as inline content by default (no indent-pre)").
				Value(&cfg.InlineContext),
		),
	)

	if err := form.Run(); err != nil {
		return err
	}

	// Normalize URL
	cfg.NormalizeURL()

	// Validate
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Verify connection unless skipped or no wiki was given
	if cfg.WikiURL != "" && !noVerify {
		fmt.Print("Verifying connection... ")
		info, err := verifyConnection(cfg, nil)
		if err != nil {
			fmt.Println("failed!")
			return fmt.Errorf("connection verification failed: %w", err)
		}
		fmt.Printf("success! (%s, %s)\n", info.SiteName, info.Generator)
	}

	// Save configuration
	if err := cfg.Save(configPath); err != nil {
		return err
	}

	fmt.Printf("\nConfiguration saved to %s\n", configPath)
	fmt.Println("\nYou're all set! Try running:")
	fmt.Println("  echo '* item' | wtx transform")
	if cfg.WikiURL != "" {
		fmt.Println("  wtx transform --page \"Main Page\" -o html")
	}

	return nil
}

func validateURL(s string) error {
	if s == "" {
		return nil
	}
	if !strings.HasPrefix(s, "https://") && !strings.HasPrefix(s, "http://") {
		return fmt.Errorf("URL must start with http:// or https://")
	}
	return nil
}

func verifyConnection(cfg *config.Config, httpClient *http.Client) (*api.SiteInfo, error) {
	client := api.NewClient(cfg.WikiURL)
	if httpClient != nil {
		client.SetHTTPClient(httpClient)
	}

	info, err := client.SiteInfo(context.Background())
	switch status := api.StatusCode(err); {
	case err == nil:
		return info, nil
	case status == http.StatusUnauthorized:
		return nil, fmt.Errorf("authentication failed - the wiki requires a login")
	case status == http.StatusForbidden:
		return nil, fmt.Errorf("access denied - check the wiki's API permissions")
	case status == http.StatusNotFound:
		return nil, fmt.Errorf("no api.php at %s - check the script path", client.BaseURL())
	case status != 0:
		return nil, fmt.Errorf("unexpected status code: %d", status)
	}
	return nil, err
}
