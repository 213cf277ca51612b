package resource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DirFetcher reads JSON resources from a base directory.
// Paths are relative to the base; paths that escape it are rejected.
type DirFetcher struct {
	Base string
}

// NewDirFetcher creates a fetcher rooted at base.
func NewDirFetcher(base string) *DirFetcher {
	return &DirFetcher{Base: base}
}

// Fetch implements engine.Fetcher.
func (f *DirFetcher) Fetch(ctx context.Context, path string) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	full, err := f.resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("read resource: %w", err)
	}
	return Decode(data)
}

func (f *DirFetcher) resolve(path string) (string, error) {
	if filepath.IsAbs(path) {
		return "", fmt.Errorf("resource path %q must be relative", path)
	}
	clean := filepath.Clean(filepath.FromSlash(path))
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("resource path %q escapes the resource directory", path)
	}
	return filepath.Join(f.Base, clean), nil
}

// Decode parses a JSON resource payload. Trailing data is an error.
func Decode(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	var payload any
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode resource: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("decode resource: trailing data")
	}
	return payload, nil
}
