package registry

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/roach88/taxflow/internal/engine"
	"github.com/roach88/taxflow/internal/ir"
)

// Constructor creates a step from positional params.
type Constructor func(params []any) (engine.Step, error)

// Registry maps type tags to constructors. It is safe for concurrent use;
// each tag can be bound once.
type Registry struct {
	mu           sync.RWMutex
	constructors map[string]Constructor
	logger       *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for build diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		constructors: make(map[string]Constructor),
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register binds tag to c. Binding a tag twice fails with
// DUPLICATE_REGISTRATION and keeps the first binding.
func (r *Registry) Register(tag string, c Constructor) error {
	if tag == "" || c == nil {
		return engine.NewInvalidParamsError(tag, "tag and constructor are required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.constructors[tag]; exists {
		return engine.NewDuplicateRegistrationError(tag)
	}
	r.constructors[tag] = c
	r.logger.Debug("registered step type", "type", tag)
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(tag string, c Constructor) {
	if err := r.Register(tag, c); err != nil {
		panic(err)
	}
}

// Lookup returns the constructor bound to tag, or UNREGISTERED_TYPE.
func (r *Registry) Lookup(tag string) (Constructor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.constructors[tag]
	if !ok {
		return nil, engine.NewUnregisteredTypeError(tag)
	}
	return c, nil
}

// Tags returns every registered tag, sorted.
func (r *Registry) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tags := make([]string, 0, len(r.constructors))
	for tag := range r.constructors {
		tags = append(tags, tag)
	}
	slices.Sort(tags)
	return tags
}

// attacher is implemented by steps that accept children.
type attacher interface {
	Add(child engine.Step) error
}

// namer is implemented by every step through engine.StepCore.
type namer interface {
	SetName(name string)
}

// Build constructs the step graph described by n.
// Errors carry the JSON path of the offending node and keep their engine
// error code.
func (r *Registry) Build(n ir.Node) (engine.Step, error) {
	return r.build(n, "$")
}

func (r *Registry) build(n ir.Node, path string) (engine.Step, error) {
	construct, err := r.Lookup(n.Type)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	step, err := construct(n.Params)
	if err != nil {
		return nil, fmt.Errorf("%s (%s): %w", path, n.Type, err)
	}
	if n.Name != "" {
		if s, ok := step.(namer); ok {
			s.SetName(n.Name)
		}
	}

	if len(n.Children) == 0 {
		return step, nil
	}
	parent, ok := step.(attacher)
	if !ok {
		r.logger.Warn("ignoring children of a step that does not accept them",
			"path", path,
			"type", n.Type,
			"children", len(n.Children))
		return step, nil
	}
	for i, childNode := range n.Children {
		childPath := fmt.Sprintf("%s.children[%d]", path, i)
		child, err := r.build(childNode, childPath)
		if err != nil {
			return nil, err
		}
		if err := parent.Add(child); err != nil {
			return nil, fmt.Errorf("%s: %w", childPath, err)
		}
	}
	return step, nil
}

// BuildJSON parses a pipeline document and builds it.
func (r *Registry) BuildJSON(data []byte) (engine.Step, error) {
	n, err := ir.ParseNode(data)
	if err != nil {
		return nil, err
	}
	return r.Build(*n)
}

// BuildValue builds from an already-decoded JSON value, such as a pipeline
// embedded in another document.
func (r *Registry) BuildValue(v any) (engine.Step, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode pipeline document: %w", err)
	}
	return r.BuildJSON(data)
}
