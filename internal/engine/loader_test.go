package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingFetcher counts fetches per path.
type countingFetcher struct {
	mu     sync.Mutex
	calls  map[string]int
	source MapFetcher
}

func newCountingFetcher(source MapFetcher) *countingFetcher {
	return &countingFetcher{calls: make(map[string]int), source: source}
}

func (f *countingFetcher) Fetch(ctx context.Context, path string) (any, error) {
	f.mu.Lock()
	f.calls[path]++
	f.mu.Unlock()
	return f.source.Fetch(ctx, path)
}

func mustResourceStep(t *testing.T, path, key, query string) *ConstantStep {
	t.Helper()
	s, err := NewResourceConstantStep("", path, key, query)
	require.NoError(t, err)
	return s
}

func TestResourceLoaderDeduplicatesPaths(t *testing.T) {
	root := NewCompositeStep("")
	a := mustResourceStep(t, "tables.json", "paye", "paye")
	b := mustResourceStep(t, "tables.json", "uif", "uif")
	c := mustResourceStep(t, "rebates.json", "rebates", "")
	literal := NewConstantStep("", map[string]any{"x": 1.0})
	for _, s := range []Step{a, b, c, literal} {
		require.NoError(t, root.Add(s))
	}

	fetcher := newCountingFetcher(MapFetcher{
		"tables.json":  map[string]any{"paye": []any{}, "uif": 1.0},
		"rebates.json": []any{},
	})

	loader := Walk(root, NewResourceLoader())
	assert.Equal(t, []string{"tables.json", "rebates.json"}, loader.Paths())
	assert.Equal(t, 3, loader.Pending())

	require.NoError(t, loader.Load(context.Background(), fetcher))
	assert.Equal(t, map[string]int{"tables.json": 1, "rebates.json": 1}, fetcher.calls)

	rec, err := root.Execute(NewRecord())
	require.NoError(t, err)
	assert.Equal(t, []string{"paye", "uif", "rebates", "x"}, rec.Keys())
}

func TestResourceLoaderSkipsLoadedSteps(t *testing.T) {
	step := mustResourceStep(t, "a.json", "a", "")
	require.NoError(t, step.SetPayload(1.0))

	loader := Walk[*ResourceLoader](step, NewResourceLoader())
	assert.Empty(t, loader.Paths())
	require.NoError(t, loader.Load(context.Background(), nil))
}

func TestResourceLoaderFailureLeavesStepsUnloaded(t *testing.T) {
	root := NewCompositeStep("")
	ok := mustResourceStep(t, "ok.json", "ok", "")
	bad := mustResourceStep(t, "bad.json", "bad", "")
	require.NoError(t, root.Add(ok))
	require.NoError(t, root.Add(bad))

	boom := errors.New("boom")
	fetcher := FetcherFunc(func(ctx context.Context, path string) (any, error) {
		if path == "bad.json" {
			return nil, boom
		}
		return 1.0, nil
	})

	err := LoadResources(context.Background(), root, fetcher)
	require.Error(t, err)
	assert.True(t, IsCode(err, ErrCodeResourceFetch))
	assert.Equal(t, "bad.json", KeyOf(err))
	assert.ErrorIs(t, err, boom)

	assert.False(t, ok.Loaded(), "no partial assignment")
	assert.False(t, bad.Loaded())
}

func TestResourceLoaderShapeFailureIsAtomic(t *testing.T) {
	root := NewCompositeStep("")
	good := mustResourceStep(t, "a.json", "a", "")
	spread := mustResourceStep(t, "a.json", "", "")
	require.NoError(t, root.Add(good))
	require.NoError(t, root.Add(spread))

	err := LoadResources(context.Background(), root, MapFetcher{"a.json": []any{}})
	assert.True(t, IsCode(err, ErrCodeResourceFetch))
	assert.False(t, good.Loaded())
}

func TestResourceLoaderNilFetcher(t *testing.T) {
	step := mustResourceStep(t, "a.json", "a", "")
	err := LoadResources(context.Background(), step, nil)
	assert.True(t, IsCode(err, ErrCodeResourceNotLoaded))
}

func TestResourceLoaderConcurrencyLimit(t *testing.T) {
	root := NewCompositeStep("")
	paths := []string{"a", "b", "c", "d", "e", "f"}
	source := MapFetcher{}
	for _, p := range paths {
		require.NoError(t, root.Add(mustResourceStep(t, p, p, "")))
		source[p] = 1.0
	}

	var inFlight, peak atomic.Int32
	fetcher := FetcherFunc(func(ctx context.Context, path string) (any, error) {
		n := inFlight.Add(1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		defer inFlight.Add(-1)
		return source.Fetch(ctx, path)
	})

	require.NoError(t, LoadResources(context.Background(), root, fetcher, WithConcurrency(2)))
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestResourceLoaderCancelledContext(t *testing.T) {
	step := mustResourceStep(t, "a.json", "a", "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := LoadResources(ctx, step, MapFetcher{"a.json": 1.0})
	assert.True(t, IsCode(err, ErrCodeResourceFetch))
	assert.ErrorIs(t, err, context.Canceled)
}
