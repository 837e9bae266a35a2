// Package fixtures provides the fixtures command.
package fixtures

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/open-cli-collective/wtx/internal/config"
	"github.com/open-cli-collective/wtx/internal/fixture"
	"github.com/open-cli-collective/wtx/internal/view"
	"github.com/open-cli-collective/wtx/pkg/env"
)

type fixturesOptions struct {
	run        string
	verbose    bool
	workers    int
	output     string
	noColor    bool
	trace      []string
	configPath string

	stdout io.Writer
	stderr io.Writer
}

// caseReport is the JSON form of one case result.
type caseReport struct {
	File     string             `json:"file"`
	Name     string             `json:"name"`
	Passed   bool               `json:"passed"`
	Error    string             `json:"error,omitempty"`
	Failures []fixture.Mismatch `json:"failures,omitempty"`
}

// NewCmdFixtures creates the fixtures command.
func NewCmdFixtures() *cobra.Command {
	opts := &fixturesOptions{}

	cmd := &cobra.Command{
		Use:   "fixtures <file.md>...",
		Short: "Run transform fixture documents",
		Long: `Run the cases in one or more fixture documents and report the results.

A fixture document is markdown. Each second-level heading starts a case; a
"wikitext" fenced block gives its input, and "tokens" and "html" blocks give
the expected token stream and HTML. Use "wikitext inline" to run a case in
inline context.`,
		Example: `  # Run every case
  wtx fixtures testdata/*.md

  # Run cases whose name contains "nested", showing passes too
  wtx fixtures lists.md --run nested -v`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.output, _ = cmd.Flags().GetString("output")
			opts.noColor, _ = cmd.Flags().GetBool("no-color")
			opts.trace, _ = cmd.Flags().GetStringSlice("trace")
			opts.configPath, _ = cmd.Flags().GetString("config")
			opts.stdout = cmd.OutOrStdout()
			opts.stderr = cmd.ErrOrStderr()
			return runFixtures(args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.run, "run", "", "Only run cases whose name contains this text")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "List passing cases too")
	cmd.Flags().IntVarP(&opts.workers, "workers", "j", 0, "Maximum cases run at once (default: from config, else unbounded)")

	return cmd
}

func runFixtures(files []string, opts *fixturesOptions) error {
	if opts.stdout == nil {
		opts.stdout = os.Stdout
	}
	if opts.stderr == nil {
		opts.stderr = os.Stderr
	}

	cfg, err := config.LoadWithEnv(config.PathOrDefault(opts.configPath))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if opts.output != "" {
		cfg.OutputFormat = opts.output
	}
	if opts.workers != 0 {
		cfg.Workers = opts.workers
	}
	cfg.Trace = append(cfg.Trace, opts.trace...)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	e := env.New(cfg.Trace...)
	e.SetWriter(opts.stderr)

	renderer := view.NewRenderer(view.Format(cfg.OutputFormat), opts.noColor)
	renderer.SetWriter(opts.stdout)

	var reports []caseReport
	total, failed := 0, 0
	for _, file := range files {
		cases, err := fixture.Load(file)
		if err != nil {
			return err
		}
		cases = filterCases(cases, opts.run)

		results, err := fixture.Run(context.Background(), e, cases, cfg.Workers)
		if err != nil {
			return fmt.Errorf("failed to run %s: %w", file, err)
		}

		for _, r := range results {
			total++
			if !r.Passed() {
				failed++
			}

			if renderer.Format() == view.FormatJSON {
				reports = append(reports, newReport(file, r))
				continue
			}
			printResult(renderer, file, r, opts.verbose)
		}
	}

	if renderer.Format() == view.FormatJSON {
		if reports == nil {
			reports = []caseReport{}
		}
		if err := renderer.RenderJSON(reports); err != nil {
			return err
		}
	} else {
		renderer.RenderText("")
		renderer.RenderText(fmt.Sprintf("%d passed, %d failed", total-failed, failed))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d fixture cases failed", failed, total)
	}
	return nil
}

func filterCases(cases []fixture.Case, run string) []fixture.Case {
	if run == "" {
		return cases
	}
	var out []fixture.Case
	for _, c := range cases {
		if strings.Contains(c.Name, run) {
			out = append(out, c)
		}
	}
	return out
}

func newReport(file string, r fixture.Result) caseReport {
	rep := caseReport{File: file, Name: r.Case.Name, Passed: r.Passed(), Failures: r.Failures}
	if r.Err != nil {
		rep.Error = r.Err.Error()
	}
	return rep
}

func printResult(renderer *view.Renderer, file string, r fixture.Result, verbose bool) {
	label := file + ": " + r.Case.Name
	switch {
	case r.Err != nil:
		renderer.Error(label)
		renderer.RenderKeyValue("  error", r.Err.Error())
	case len(r.Failures) > 0:
		renderer.Error(label)
		for _, f := range r.Failures {
			renderer.RenderKeyValue("  "+f.What+" want", indent(f.Want))
			renderer.RenderKeyValue("  "+f.What+" got ", indent(f.Got))
		}
	case verbose:
		renderer.Success(label)
	}
}

// indent keeps multi-line values aligned under their key.
func indent(s string) string {
	if !strings.Contains(s, "\n") {
		return s
	}
	return "\n    " + strings.ReplaceAll(s, "\n", "\n    ")
}
