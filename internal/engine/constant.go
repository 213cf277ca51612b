package engine

import (
	"fmt"
	"slices"

	"github.com/jmespath/go-jmespath"
)

// ConstantStep seeds literal values into the record.
//
// A resource-backed constant step declares a path instead of literal values.
// Its payload is assigned by the ResourceLoader before the first execution:
// with a key, the payload (optionally narrowed by a JMESPath query) is
// written under that key; without one, the payload must be an object and
// each entry becomes a record key.
type ConstantStep struct {
	StepCore
	values map[string]any

	path   string
	key    string
	query  string
	search *jmespath.JMESPath
	loaded bool
}

// NewConstantStep creates a step that writes values in sorted key order.
func NewConstantStep(name string, values map[string]any) *ConstantStep {
	return &ConstantStep{
		StepCore: StepCore{name: name},
		values:   values,
		loaded:   true,
	}
}

// NewResourceConstantStep creates a step whose values come from the
// resource at path. key and query are optional.
func NewResourceConstantStep(name, path, key, query string) (*ConstantStep, error) {
	if path == "" {
		return nil, NewInvalidParamsError("", "resource path is required")
	}
	s := &ConstantStep{
		StepCore: StepCore{name: name},
		path:     path,
		key:      key,
		query:    query,
	}
	if query != "" {
		compiled, err := jmespath.Compile(query)
		if err != nil {
			return nil, NewInvalidParamsError(path, fmt.Sprintf("invalid query %q: %v", query, err))
		}
		s.search = compiled
	}
	return s, nil
}

func (s *ConstantStep) Kind() Kind { return KindConstant }

// ResourcePath returns the declared resource path, or "" for literal steps.
func (s *ConstantStep) ResourcePath() string { return s.path }

// ResourceKey returns the record key a resource payload is written under.
func (s *ConstantStep) ResourceKey() string { return s.key }

// Query returns the JMESPath expression applied to the payload, if any.
func (s *ConstantStep) Query() string { return s.query }

// Loaded reports whether the step has values to write.
func (s *ConstantStep) Loaded() bool { return s.loaded }

// Keys returns the record keys this step writes, in write order. For an
// unloaded resource step without a fixed key it returns nil.
func (s *ConstantStep) Keys() []string {
	if s.key != "" {
		return []string{s.key}
	}
	keys := make([]string, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// SetPayload assigns a fetched resource payload to the step.
func (s *ConstantStep) SetPayload(payload any) error {
	values, err := s.selectPayload(payload)
	if err != nil {
		return err
	}
	s.assign(values)
	return nil
}

// selectPayload shapes a payload into record values without touching s.
func (s *ConstantStep) selectPayload(payload any) (map[string]any, error) {
	if s.path == "" {
		return nil, NewInvalidParamsError("", "step does not declare a resource")
	}
	selected := payload
	if s.search != nil {
		out, err := s.search.Search(payload)
		if err != nil {
			return nil, NewResourceFetchError(s.path, fmt.Errorf("query %q: %w", s.query, err))
		}
		if out == nil {
			return nil, NewResourceFetchError(s.path, fmt.Errorf("query %q matched nothing", s.query))
		}
		selected = out
	}
	if s.key != "" {
		return map[string]any{s.key: selected}, nil
	}
	obj, ok := selected.(map[string]any)
	if !ok {
		return nil, NewResourceFetchError(s.path, fmt.Errorf("payload must be an object when no key is given, got %s", describe(selected)))
	}
	return obj, nil
}

func (s *ConstantStep) assign(values map[string]any) {
	s.values = values
	s.loaded = true
}

// Execute implements Step.
func (s *ConstantStep) Execute(rec *Record) (*Record, error) {
	if !s.loaded {
		return rec, NewResourceNotLoadedError(s.path)
	}
	for _, k := range s.Keys() {
		if err := rec.Set(k, s.values[k]); err != nil {
			return rec, err
		}
	}
	return rec, nil
}

// Accept implements Step.
func (s *ConstantStep) Accept(v Visitor) Visitor {
	v.VisitConstant(s)
	return v
}
