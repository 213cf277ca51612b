package resource

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/taxflow/internal/engine"
)

func TestDirFetcher(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "tables"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tables", "2024.json"),
		[]byte(`{"rate": 15, "brackets": [{"boundary": "Infinity", "rate": 20}]}`), 0o644))

	f := NewDirFetcher(dir)
	payload, err := f.Fetch(context.Background(), "tables/2024.json")
	require.NoError(t, err)

	obj := payload.(map[string]any)
	assert.Equal(t, 15.0, obj["rate"])
	assert.Len(t, obj["brackets"], 1)
}

func TestDirFetcherRejectsEscape(t *testing.T) {
	f := NewDirFetcher(t.TempDir())

	for _, path := range []string{"../secret.json", "a/../../secret.json", "/etc/passwd"} {
		_, err := f.Fetch(context.Background(), path)
		assert.Error(t, err, path)
	}
}

func TestDirFetcherErrors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte(`{"a":`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "two.json"), []byte(`{} {}`), 0o644))
	f := NewDirFetcher(dir)

	_, err := f.Fetch(context.Background(), "missing.json")
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = f.Fetch(context.Background(), "bad.json")
	assert.ErrorContains(t, err, "decode resource")

	_, err = f.Fetch(context.Background(), "two.json")
	assert.ErrorContains(t, err, "trailing data")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.Fetch(ctx, "bad.json")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/tables/2024.json":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`[{"max": 65, "value": 100}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f, err := NewHTTPFetcher(srv.URL+"/v1", time.Second)
	require.NoError(t, err)

	payload, err := f.Fetch(context.Background(), "tables/2024.json")
	require.NoError(t, err)
	assert.Len(t, payload, 1)

	_, err = f.Fetch(context.Background(), "missing.json")
	assert.ErrorContains(t, err, "unexpected status 404")

	_, err = f.Fetch(context.Background(), "http://elsewhere/x.json")
	assert.ErrorContains(t, err, "must be relative")
}

func TestHTTPFetcherRejectsEscape(t *testing.T) {
	var (
		mu   sync.Mutex
		hits []string
	)
	requested := func() []string {
		mu.Lock()
		defer mu.Unlock()
		return slices.Clone(hits)
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits = append(hits, r.URL.Path)
		mu.Unlock()
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	f, err := NewHTTPFetcher(srv.URL+"/v1/tables", time.Second)
	require.NoError(t, err)

	for _, path := range []string{"../admin.json", "a/../../admin.json", "//admin.json", "%2e%2e/admin.json"} {
		_, err := f.Fetch(context.Background(), path)
		assert.ErrorContains(t, err, "escapes the base url", path)
	}
	assert.Empty(t, requested(), "no request leaves the base path")

	_, err = f.Fetch(context.Background(), "/2024.json")
	require.NoError(t, err)
	assert.Equal(t, []string{"/v1/tables/2024.json"}, requested())
}

func TestNewHTTPFetcherValidation(t *testing.T) {
	_, err := NewHTTPFetcher("ftp://example.com", 0)
	assert.Error(t, err)
}

func TestCachedFetcher(t *testing.T) {
	calls := 0
	next := engine.FetcherFunc(func(ctx context.Context, path string) (any, error) {
		calls++
		if path == "bad" {
			return nil, errors.New("boom")
		}
		return map[string]any{"path": path}, nil
	})
	c := NewCachedFetcher(next)

	for range 3 {
		_, err := c.Fetch(context.Background(), "a")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, calls)

	_, err := c.Fetch(context.Background(), "bad")
	require.Error(t, err)
	_, err = c.Fetch(context.Background(), "bad")
	require.Error(t, err)
	assert.Equal(t, 3, calls, "failures are retried")
	assert.Equal(t, 1, c.Len())
}

func TestChain(t *testing.T) {
	first := engine.MapFetcher{"a": 1.0}
	second := engine.MapFetcher{"b": 2.0}
	chain := Chain{first, second}

	got, err := chain.Fetch(context.Background(), "b")
	require.NoError(t, err)
	assert.Equal(t, 2.0, got)

	_, err = chain.Fetch(context.Background(), "c")
	assert.ErrorContains(t, err, `"c" not found`)

	_, err = Chain{}.Fetch(context.Background(), "c")
	assert.True(t, engine.IsCode(err, engine.ErrCodeResourceNotLoaded))
}
