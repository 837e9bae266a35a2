// Package transform provides the transform command.
package transform

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/open-cli-collective/wtx/api"
	"github.com/open-cli-collective/wtx/internal/config"
	"github.com/open-cli-collective/wtx/internal/view"
	"github.com/open-cli-collective/wtx/pkg/env"
	"github.com/open-cli-collective/wtx/pkg/handler"
	"github.com/open-cli-collective/wtx/pkg/lexer"
	"github.com/open-cli-collective/wtx/pkg/token"
	"github.com/open-cli-collective/wtx/pkg/treebuild"
)

type transformOptions struct {
	page       string
	inline     bool
	workers    int
	output     string
	noColor    bool
	trace      []string
	configPath string

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// source is one document to transform.
type source struct {
	name string
	text string
}

// document is the JSON form of one transformed source.
type document struct {
	Source string        `json:"source"`
	Tokens []token.Token `json:"tokens"`
}

// NewCmdTransform creates the transform command.
func NewCmdTransform() *cobra.Command {
	opts := &transformOptions{}

	cmd := &cobra.Command{
		Use:     "transform [file...]",
		Aliases: []string{"tx"},
		Short:   "Transform wikitext and print the result",
		Long: `Lex wikitext, run it through the indent-pre and list handlers, and print
the transformed token stream.

Input is read from each file argument, or from standard input when no file is
given or a file is "-". With --page the wikitext is fetched from the wiki
configured with 'wtx init'. Several documents are transformed in parallel,
each on its own pipeline.`,
		Example: `  # Show the token stream for a file
  wtx transform page.wiki

  # Render HTML from standard input
  echo ' preformatted' | wtx transform -o html

  # Fetch a page and convert it to markdown
  wtx transform --page "Main Page" -o markdown

  # Trace the list handler
  wtx transform --trace list page.wiki`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.output, _ = cmd.Flags().GetString("output")
			opts.noColor, _ = cmd.Flags().GetBool("no-color")
			opts.trace, _ = cmd.Flags().GetStringSlice("trace")
			opts.configPath, _ = cmd.Flags().GetString("config")
			opts.stdin = cmd.InOrStdin()
			opts.stdout = cmd.OutOrStdout()
			opts.stderr = cmd.ErrOrStderr()
			return runTransform(args, opts, nil)
		},
	}

	cmd.Flags().StringVarP(&opts.page, "page", "p", "", "Fetch the wikitext of this page from the configured wiki")
	cmd.Flags().BoolVar(&opts.inline, "inline", false, "Transform in inline context (no indent-pre)")
	cmd.Flags().IntVarP(&opts.workers, "workers", "j", 0, "Maximum documents transformed at once (default: from config, else unbounded)")

	return cmd
}

func runTransform(files []string, opts *transformOptions, client *api.Client) error {
	if opts.stdin == nil {
		opts.stdin = os.Stdin
	}
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

	// Flags override the config file and environment
	if opts.output != "" {
		cfg.OutputFormat = opts.output
	}
	if opts.workers != 0 {
		cfg.Workers = opts.workers
	}
	if opts.inline {
		cfg.InlineContext = true
	}
	cfg.Trace = append(cfg.Trace, opts.trace...)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	e := env.New(cfg.Trace...)
	e.SetWriter(opts.stderr)

	sources, err := readSources(files, opts, cfg, client, e)
	if err != nil {
		return err
	}

	inputs := make([][]token.Token, len(sources))
	for i, src := range sources {
		toks, err := lexer.Tokenize(src.text)
		if err != nil {
			return fmt.Errorf("failed to lex %s: %w", src.name, err)
		}
		inputs[i] = toks
	}

	outputs, err := handler.RunAll(context.Background(), e, handler.Options{InlineContext: cfg.InlineContext}, inputs, cfg.Workers)
	if err != nil {
		return fmt.Errorf("failed to transform: %w", err)
	}

	renderer := view.NewRenderer(view.Format(cfg.OutputFormat), opts.noColor)
	renderer.SetWriter(opts.stdout)

	return render(renderer, e, sources, outputs)
}

func readSources(files []string, opts *transformOptions, cfg *config.Config, client *api.Client, e *env.Env) ([]source, error) {
	if opts.page != "" {
		if len(files) > 0 {
			return nil, fmt.Errorf("--page cannot be combined with file arguments")
		}

		// Create API client if not provided (allows injection for testing)
		if client == nil {
			if err := cfg.RequireWiki(); err != nil {
				return nil, fmt.Errorf("invalid config: %w (run 'wtx init' to configure)", err)
			}
			client = api.NewClient(cfg.WikiURL)
		}

		page, err := client.GetPageSource(context.Background(), opts.page)
		if err != nil {
			return nil, fmt.Errorf("failed to get page: %w", err)
		}
		if page.ContentModel != "" && page.ContentModel != "wikitext" {
			e.Warnf("page %q has content model %q", page.Title, page.ContentModel)
		}
		return []source{{name: page.Title, text: page.Source}}, nil
	}

	if len(files) == 0 {
		files = []string{"-"}
	}

	sources := make([]source, 0, len(files))
	readStdin := false
	for _, f := range files {
		if f == "-" {
			if readStdin {
				return nil, fmt.Errorf(`standard input ("-") can only be read once`)
			}
			readStdin = true
			data, err := io.ReadAll(opts.stdin)
			if err != nil {
				return nil, fmt.Errorf("failed to read standard input: %w", err)
			}
			sources = append(sources, source{name: "<stdin>", text: string(data)})
			continue
		}

		data, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", f, err)
		}
		sources = append(sources, source{name: f, text: string(data)})
	}
	return sources, nil
}

func render(r *view.Renderer, e *env.Env, sources []source, outputs [][]token.Token) error {
	if r.Format() == view.FormatJSON && len(sources) > 1 {
		docs := make([]document, len(sources))
		for i, src := range sources {
			docs[i] = document{Source: src.name, Tokens: outputs[i]}
		}
		return r.RenderJSON(docs)
	}

	for i, src := range sources {
		if len(sources) > 1 {
			if i > 0 {
				r.RenderText("")
			}
			r.RenderKeyValue("Source", src.name)
		}

		switch r.Format() {
		case view.FormatHTML:
			out, err := treebuild.ToHTML(outputs[i], e)
			if err != nil {
				return fmt.Errorf("failed to build HTML for %s: %w", src.name, err)
			}
			r.RenderText(out)
		case view.FormatMarkdown:
			out, err := treebuild.ToMarkdown(outputs[i], e)
			if err != nil {
				return fmt.Errorf("failed to convert %s: %w", src.name, err)
			}
			r.RenderText(out)
		default:
			if err := r.RenderTokens(outputs[i]); err != nil {
				return err
			}
		}
	}
	return nil
}
