package engine

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// ResourceLoader is the visitor that resolves resource-backed constant steps.
//
// Accepting it over a graph records every unloaded ConstantStep that declares
// a resource path, grouped by path. Load then fetches each distinct path
// exactly once and assigns the payloads. Assignment starts only after every
// fetch succeeded, so a failed load leaves no step half-prepared.
type ResourceLoader struct {
	BaseVisitor
	pending map[string][]*ConstantStep
	order   []string
	limit   int
	logger  *slog.Logger
}

// LoaderOption configures a ResourceLoader.
type LoaderOption func(*ResourceLoader)

// WithConcurrency bounds the number of in-flight fetches. n <= 0 means no limit.
func WithConcurrency(n int) LoaderOption {
	return func(l *ResourceLoader) { l.limit = n }
}

// WithLoaderLogger sets the logger for fetch diagnostics.
func WithLoaderLogger(logger *slog.Logger) LoaderOption {
	return func(l *ResourceLoader) { l.logger = logger }
}

// NewResourceLoader creates an empty loader.
func NewResourceLoader(opts ...LoaderOption) *ResourceLoader {
	l := &ResourceLoader{
		pending: make(map[string][]*ConstantStep),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// VisitConstant records s if it still needs a payload.
func (l *ResourceLoader) VisitConstant(s *ConstantStep) {
	path := s.ResourcePath()
	if path == "" || s.Loaded() {
		return
	}
	if _, seen := l.pending[path]; !seen {
		l.order = append(l.order, path)
	}
	l.pending[path] = append(l.pending[path], s)
}

// Paths returns the distinct pending paths in discovery order.
func (l *ResourceLoader) Paths() []string {
	return append([]string(nil), l.order...)
}

// Pending returns the number of steps waiting for a payload.
func (l *ResourceLoader) Pending() int {
	n := 0
	for _, steps := range l.pending {
		n += len(steps)
	}
	return n
}

// Load fetches every pending path and assigns payloads. The first failure
// cancels outstanding fetches and is returned as RESOURCE_FETCH.
func (l *ResourceLoader) Load(ctx context.Context, f Fetcher) error {
	if len(l.order) == 0 {
		return nil
	}
	if f == nil {
		return NewResourceNotLoadedError(l.order[0])
	}

	payloads := make([]any, len(l.order))
	g, gctx := errgroup.WithContext(ctx)
	if l.limit > 0 {
		g.SetLimit(l.limit)
	}
	for i, path := range l.order {
		g.Go(func() error {
			payload, err := f.Fetch(gctx, path)
			if err != nil {
				return NewResourceFetchError(path, err)
			}
			payloads[i] = payload
			l.logger.Debug("resource fetched", "path", path, "steps", len(l.pending[path]))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	type assignment struct {
		step   *ConstantStep
		values map[string]any
	}
	var assignments []assignment
	for i, path := range l.order {
		for _, step := range l.pending[path] {
			values, err := step.selectPayload(payloads[i])
			if err != nil {
				return err
			}
			assignments = append(assignments, assignment{step, values})
		}
	}
	for _, a := range assignments {
		a.step.assign(a.values)
	}

	l.logger.Debug("resources loaded", "paths", len(l.order), "steps", len(assignments))
	l.pending = make(map[string][]*ConstantStep)
	l.order = nil
	return nil
}

// LoadResources collects and resolves every resource-backed step under root.
func LoadResources(ctx context.Context, root Step, f Fetcher, opts ...LoaderOption) error {
	return Walk(root, NewResourceLoader(opts...)).Load(ctx, f)
}
