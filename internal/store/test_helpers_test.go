package store

import (
	"path/filepath"
	"testing"
)

// createTestStore opens a fresh database in a temp directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// brackets is a small tax table payload as it arrives from JSON.
func brackets() map[string]any {
	return map[string]any{
		"brackets": []any{
			map[string]any{"boundary": float64(100000), "rate": float64(10)},
			map[string]any{"boundary": "Infinity", "rate": float64(20)},
		},
	}
}
