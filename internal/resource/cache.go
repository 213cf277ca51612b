package resource

import (
	"context"
	"sync"

	"github.com/roach88/taxflow/internal/engine"
)

// CachedFetcher memoizes successful fetches by path. Failures are not cached.
// Cached payloads are shared; callers must not mutate them.
type CachedFetcher struct {
	next engine.Fetcher

	mu      sync.Mutex
	entries map[string]any
}

// NewCachedFetcher wraps next.
func NewCachedFetcher(next engine.Fetcher) *CachedFetcher {
	return &CachedFetcher{next: next, entries: make(map[string]any)}
}

// Fetch implements engine.Fetcher.
func (c *CachedFetcher) Fetch(ctx context.Context, path string) (any, error) {
	c.mu.Lock()
	payload, ok := c.entries[path]
	c.mu.Unlock()
	if ok {
		return payload, nil
	}

	payload, err := c.next.Fetch(ctx, path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[path] = payload
	c.mu.Unlock()
	return payload, nil
}

// Len returns the number of cached paths.
func (c *CachedFetcher) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Chain tries each fetcher in order and returns the first success.
// If all fail, the last error is returned.
type Chain []engine.Fetcher

// Fetch implements engine.Fetcher.
func (c Chain) Fetch(ctx context.Context, path string) (any, error) {
	var lastErr error
	for _, f := range c {
		payload, err := f.Fetch(ctx, path)
		if err == nil {
			return payload, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = engine.NewResourceNotLoadedError(path)
	}
	return nil, lastErr
}
