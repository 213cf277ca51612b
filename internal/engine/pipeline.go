package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/taxflow/internal/ir"
)

// Pipeline pairs a step graph with the fetcher that prepares it.
//
// Prepare runs once. After that the graph is read-only, so concurrent Run
// calls are safe; each owns a fresh Record.
type Pipeline struct {
	root    Step
	fetcher Fetcher
	logger  *slog.Logger
	limit   int

	mu       sync.Mutex
	prepared bool
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithFetcher sets the resource fetcher used by Prepare.
func WithFetcher(f Fetcher) Option {
	return func(p *Pipeline) { p.fetcher = f }
}

// WithLogger sets the pipeline logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// WithFetchConcurrency bounds concurrent resource fetches during Prepare.
func WithFetchConcurrency(n int) Option {
	return func(p *Pipeline) { p.limit = n }
}

// NewPipeline wraps root.
func NewPipeline(root Step, opts ...Option) *Pipeline {
	p := &Pipeline{root: root, logger: slog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Root returns the step graph.
func (p *Pipeline) Root() Step {
	return p.root
}

// Prepare resolves external resources. It is a no-op after the first success.
func (p *Pipeline) Prepare(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.prepared {
		return nil
	}
	err := LoadResources(ctx, p.root, p.fetcher,
		WithConcurrency(p.limit),
		WithLoaderLogger(p.logger))
	if err != nil {
		return err
	}
	p.prepared = true
	return nil
}

// Run prepares the pipeline if needed, then executes it against a fresh
// record seeded with inputs. The record is returned even on failure and
// holds every key written before the failing step.
func (p *Pipeline) Run(ctx context.Context, inputs map[string]any) (*Record, error) {
	if err := p.Prepare(ctx); err != nil {
		return nil, err
	}

	start := time.Now()
	rec, err := p.root.Execute(NewRecordFrom(inputs))
	if err != nil {
		p.logger.Debug("pipeline failed",
			"code", CodeOf(err),
			"key", KeyOf(err),
			"keys_written", rec.Len())
		return rec, err
	}
	p.logger.Debug("pipeline completed",
		"keys", rec.Len(),
		"duration", time.Since(start))
	return rec, nil
}

// Inputs returns the input descriptors of the graph.
func (p *Pipeline) Inputs() []ir.IODescriptor {
	return CollectInputs(p.root)
}

// Outputs returns the output descriptors of the graph.
func (p *Pipeline) Outputs() []ir.IODescriptor {
	return CollectOutputs(p.root)
}

// Results reads every declared output reference from rec.
func (p *Pipeline) Results(rec *Record) (map[string]any, error) {
	out := make(map[string]any)
	for _, d := range p.Outputs() {
		v, err := rec.Get(d.Reference)
		if err != nil {
			return nil, err
		}
		out[d.Reference] = v
	}
	return out, nil
}
