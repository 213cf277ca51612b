package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/taxflow/internal/ir"
)

// marshalColumn converts a value to canonical JSON TEXT for storage.
func marshalColumn(name string, v any) (string, error) {
	data, err := ir.MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("marshal %s: %w", name, err)
	}
	return string(data), nil
}

// unmarshalObject parses a JSON object column. Empty text yields an empty map.
func unmarshalObject(name, data string) (map[string]any, error) {
	if data == "" || data == "{}" {
		return map[string]any{}, nil
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(data), &obj); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", name, err)
	}
	return obj, nil
}

// unmarshalValue parses an arbitrary JSON column.
func unmarshalValue(name, data string) (any, error) {
	var v any
	if err := json.Unmarshal([]byte(data), &v); err != nil {
		return nil, fmt.Errorf("unmarshal %s: %w", name, err)
	}
	return v, nil
}
