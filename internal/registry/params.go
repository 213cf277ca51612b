package registry

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/taxflow/internal/engine"
)

// params reads positional constructor parameters for one type tag.
type params struct {
	tag    string
	values []any
}

func newParams(tag string, values []any) params {
	return params{tag: tag, values: values}
}

func (p params) errorf(format string, args ...any) error {
	return engine.NewInvalidParamsError(p.tag, fmt.Sprintf(format, args...))
}

func (p params) count(minN, maxN int) error {
	n := len(p.values)
	switch {
	case n < minN:
		return p.errorf("expected at least %d params, got %d", minN, n)
	case maxN >= 0 && n > maxN:
		return p.errorf("expected at most %d params, got %d", maxN, n)
	}
	return nil
}

func (p params) has(i int) bool {
	return i < len(p.values) && p.values[i] != nil
}

func (p params) string(i int) (string, error) {
	if i >= len(p.values) {
		return "", p.errorf("param %d is required", i)
	}
	s, ok := p.values[i].(string)
	if !ok || s == "" {
		return "", p.errorf("param %d must be a non-empty string, got %T", i, p.values[i])
	}
	return s, nil
}

func (p params) optString(i int) (string, error) {
	if !p.has(i) {
		return "", nil
	}
	s, ok := p.values[i].(string)
	if !ok {
		return "", p.errorf("param %d must be a string, got %T", i, p.values[i])
	}
	return s, nil
}

// strings reads every param from index i onward as a key.
func (p params) strings(from int) ([]string, error) {
	var out []string
	for i := from; i < len(p.values); i++ {
		s, err := p.string(i)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (p params) object(i int) (map[string]any, error) {
	if i >= len(p.values) {
		return nil, p.errorf("param %d is required", i)
	}
	m, ok := p.values[i].(map[string]any)
	if !ok {
		return nil, p.errorf("param %d must be an object, got %T", i, p.values[i])
	}
	return m, nil
}

// decode converts param i into T through a JSON round trip. A missing or
// null param leaves T at its zero value.
func decode[T any](p params, i int) (T, error) {
	var out T
	if !p.has(i) {
		return out, nil
	}
	data, err := json.Marshal(p.values[i])
	if err != nil {
		return out, p.errorf("param %d: %v", i, err)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, p.errorf("param %d is not a valid %T: %v", i, out, err)
	}
	return out, nil
}
