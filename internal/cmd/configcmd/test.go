package configcmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/open-cli-collective/wtx/api"
	"github.com/open-cli-collective/wtx/internal/config"
)

// NewCmdTest creates the config test command.
func NewCmdTest() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Test connectivity with the configured wiki",
		Long:  `Test that wtx can reach the action API of the configured MediaWiki site.`,
		Example: `  # Test connection
  wtx config test`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			noColor, _ := cmd.Flags().GetBool("no-color")
			configPath, _ := cmd.Flags().GetString("config")
			return runTest(config.PathOrDefault(configPath), noColor, nil)
		},
	}

	return cmd
}

func runTest(configPath string, noColor bool, httpClient *http.Client, cfgs ...*config.Config) error {
	if noColor {
		color.NoColor = true
	}

	var cfg *config.Config
	if len(cfgs) > 0 && cfgs[0] != nil {
		cfg = cfgs[0]
	} else {
		var err error
		cfg, err = config.LoadWithEnv(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w (run 'wtx init' to configure)", err)
		}
	}
	if err := cfg.RequireWiki(); err != nil {
		return fmt.Errorf("invalid config: %w (run 'wtx init' to configure)", err)
	}

	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	fmt.Printf("Testing connection to %s...\n", cfg.WikiURL)

	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	client := api.NewClient(cfg.WikiURL)
	client.SetHTTPClient(httpClient)

	info, err := client.SiteInfo(context.Background())
	if err != nil {
		switch status := api.StatusCode(err); status {
		case 0:
			_, _ = red.Println("✗ Connection failed:", err)
			fmt.Println("\nCheck your URL with: wtx config show")
			fmt.Println("Reconfigure with: wtx init")
			return fmt.Errorf("connection failed: %w", err)
		case http.StatusUnauthorized:
			_, _ = red.Println("✗ Authentication required: 401 Unauthorized")
			return fmt.Errorf("authentication failed")
		case http.StatusForbidden:
			_, _ = red.Println("✗ Access denied: 403 Forbidden")
			fmt.Println("\nCheck the wiki's API permissions.")
			return fmt.Errorf("access denied")
		default:
			_, _ = red.Printf("✗ Unexpected response: %d\n", status)
			return fmt.Errorf("unexpected status code: %d", status)
		}
	}

	_, _ = green.Println("✓ API reachable")
	fmt.Printf("\nSite:      %s\n", info.SiteName)
	fmt.Printf("Generator: %s\n", info.Generator)

	return nil
}
