package fixture

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/open-cli-collective/wtx/pkg/env"
	"github.com/open-cli-collective/wtx/pkg/handler"
	"github.com/open-cli-collective/wtx/pkg/lexer"
	"github.com/open-cli-collective/wtx/pkg/token"
	"github.com/open-cli-collective/wtx/pkg/treebuild"
)

// Result is the outcome of one case.
type Result struct {
	Case Case

	// Failures describes each unmet expectation; empty when the case passed.
	Failures []Mismatch
	Err      error
}

// Mismatch is an expectation and what was produced instead.
type Mismatch struct {
	What string `json:"what"` // "tokens" or "html"
	Want string `json:"want"`
	Got  string `json:"got"`
}

// Passed reports whether the case ran without error and met every
// expectation.
func (r Result) Passed() bool {
	return r.Err == nil && len(r.Failures) == 0
}

// Run executes cases concurrently, at most workers at a time (unbounded if
// workers <= 0). Results are in case order. A case that fails to transform
// records its error; only cancellation of ctx aborts the run.
func Run(ctx context.Context, e *env.Env, cases []Case, workers int) ([]Result, error) {
	results := make([]Result, len(cases))

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, c := range cases {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = runCase(e, c)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func runCase(e *env.Env, c Case) Result {
	res := Result{Case: c}

	toks, err := lexer.Tokenize(c.Wikitext)
	if err != nil {
		res.Err = err
		return res
	}
	out, err := handler.NewDefaultChain(e, handler.Options{InlineContext: c.Inline}).Run(toks)
	if err != nil {
		res.Err = err
		return res
	}

	if c.Tokens != nil {
		got := strings.Join(token.Strings(out), "\n")
		want := strings.Join(c.Tokens, "\n")
		if got != want {
			res.Failures = append(res.Failures, Mismatch{What: "tokens", Want: want, Got: got})
		}
	}

	if c.HTML != nil {
		got, err := treebuild.ToHTML(out, e)
		if err != nil {
			res.Err = err
			return res
		}
		if got != *c.HTML {
			res.Failures = append(res.Failures, Mismatch{What: "html", Want: *c.HTML, Got: got})
		}
	}
	return res
}
