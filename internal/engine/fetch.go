package engine

import (
	"context"
	"fmt"
)

// Fetcher resolves a resource path to a decoded JSON value.
type Fetcher interface {
	Fetch(ctx context.Context, path string) (any, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, path string) (any, error)

// Fetch implements Fetcher.
func (f FetcherFunc) Fetch(ctx context.Context, path string) (any, error) {
	return f(ctx, path)
}

// MapFetcher serves resources from memory.
type MapFetcher map[string]any

// Fetch implements Fetcher.
func (m MapFetcher) Fetch(ctx context.Context, path string) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	payload, ok := m[path]
	if !ok {
		return nil, fmt.Errorf("resource %q not found", path)
	}
	return payload, nil
}
