package handler

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/open-cli-collective/wtx/pkg/env"
	"github.com/open-cli-collective/wtx/pkg/token"
)

// Pipeline feeds tokens through an ordered chain of handlers. Each token
// passes through the whole chain before the next one is accepted.
//
// A Pipeline owns its handlers and is not safe for concurrent use; run
// independent inputs on independent pipelines.
type Pipeline struct {
	ID       int
	env      *env.Env
	handlers []Handler
	failed   error
}

// NewPipeline creates a pipeline over the given handlers.
func NewPipeline(e *env.Env, id int, handlers ...Handler) *Pipeline {
	return &Pipeline{ID: id, env: e, handlers: handlers}
}

// NewDefaultChain builds the standard pre → list chain with a fresh
// pipeline id.
func NewDefaultChain(e *env.Env, opts Options) *Pipeline {
	id := 0
	if e != nil {
		id = e.NewPipelineID()
	}
	return NewPipeline(e, id,
		NewPreHandler(e, id, opts),
		NewListHandler(e, id),
	)
}

// Handlers returns the chain in order.
func (p *Pipeline) Handlers() []Handler {
	return p.handlers
}

// Process runs one token through the chain and returns what comes out of
// the last stage. After end of input every stage is reset. A fatal error
// poisons the pipeline until Reset is called.
func (p *Pipeline) Process(tok token.Token) ([]token.Token, error) {
	if p.failed != nil {
		return nil, p.failed
	}

	in := []token.Token{tok}
	for _, h := range p.handlers {
		var out []token.Token
		for _, t := range in {
			res, err := dispatch(h, t)
			if err != nil {
				p.failed = fmt.Errorf("%s handler: %w", h.Name(), err)
				return nil, p.failed
			}
			out = append(out, res...)
		}
		in = out
	}

	if tok.Kind == token.KindEOF {
		p.Reset()
	}
	return in, nil
}

// Run processes a whole token stream. If toks does not end with EOF one is
// appended so that every buffer is flushed.
func (p *Pipeline) Run(toks []token.Token) ([]token.Token, error) {
	if len(toks) == 0 || toks[len(toks)-1].Kind != token.KindEOF {
		toks = append(toks[:len(toks):len(toks)], token.EOF())
	}
	var out []token.Token
	for _, t := range toks {
		res, err := p.Process(t)
		if err != nil {
			return nil, err
		}
		out = append(out, res...)
	}
	return out, nil
}

// Reset returns every stage to its initial state.
func (p *Pipeline) Reset() {
	p.failed = nil
	for _, h := range p.handlers {
		h.Reset()
	}
}

// RunAll transforms independent token streams in parallel, each on a fresh
// default chain. limit bounds the number of concurrent pipelines; zero or
// less means unbounded. Results are returned in input order.
func RunAll(ctx context.Context, e *env.Env, opts Options, inputs [][]token.Token, limit int) ([][]token.Token, error) {
	results := make([][]token.Token, len(inputs))

	g, ctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, in := range inputs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out, err := NewDefaultChain(e, opts).Run(in)
			if err != nil {
				return fmt.Errorf("input %d: %w", i, err)
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
