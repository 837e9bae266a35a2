package configcmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/open-cli-collective/wtx/internal/config"
	"github.com/open-cli-collective/wtx/internal/view"
)

// NewCmdClear creates the config clear command.
func NewCmdClear() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove stored configuration",
		Long: `Delete the wtx config file. Values set through WTX_* or MEDIAWIKI_URL
keep applying until they are unset.`,
		Example: `  wtx config clear
  wtx config clear --config ./wtx.yml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			noColor, _ := cmd.Flags().GetBool("no-color")
			configPath, _ := cmd.Flags().GetString("config")
			return runClear(cmd.OutOrStdout(), config.PathOrDefault(configPath), noColor)
		},
	}
}

func runClear(w io.Writer, configPath string, noColor bool) error {
	r := view.NewRenderer(view.FormatTokens, noColor)
	r.SetWriter(w)

	switch err := os.Remove(configPath); {
	case errors.Is(err, fs.ErrNotExist):
		r.Success("nothing to clear at " + configPath)
	case err != nil:
		return fmt.Errorf("failed to remove config file: %w", err)
	default:
		r.Success("removed " + configPath)
	}

	if active := activeEnvVars(); len(active) > 0 {
		r.RenderKeyValue("Still set", strings.Join(active, ", "))
	}
	return nil
}
