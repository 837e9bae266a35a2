// Package root provides the root command for the wtx CLI.
package root

import (
	"github.com/spf13/cobra"

	"github.com/open-cli-collective/wtx/internal/cmd/configcmd"
	"github.com/open-cli-collective/wtx/internal/cmd/fixtures"
	initcmd "github.com/open-cli-collective/wtx/internal/cmd/init"
	"github.com/open-cli-collective/wtx/internal/cmd/transform"
	"github.com/open-cli-collective/wtx/internal/version"
)

// NewCmdRoot creates the root command for wtx.
func NewCmdRoot() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wtx",
		Short: "A streaming wikitext token transformer",
		Long: `wtx runs the token-stream stages of a wikitext parser from the command line.

It lexes wikitext, rewrites the token stream with the indent-pre and list
handlers, and prints the resulting tokens, HTML or markdown.

Get started by running: wtx transform <file>`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.Version,
	}

	// Global flags
	cmd.PersistentFlags().StringP("config", "c", "", "config file (default: ~/.config/wtx/config.yml)")
	cmd.PersistentFlags().StringP("output", "o", "", "output format: tokens, html, markdown, json (default: from config, else tokens)")
	cmd.PersistentFlags().Bool("no-color", false, "disable colored output")
	cmd.PersistentFlags().StringSlice("trace", nil, "trace channels to enable: pre, list, all")

	// Set version template
	cmd.SetVersionTemplate("wtx version " + version.String() + "\n")

	// Subcommands
	cmd.AddCommand(initcmd.NewCmdInit())
	cmd.AddCommand(transform.NewCmdTransform())
	cmd.AddCommand(fixtures.NewCmdFixtures())
	cmd.AddCommand(configcmd.NewCmdConfig())

	return cmd
}
