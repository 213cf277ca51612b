package resource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"
)

// maxResourceBytes caps a single HTTP resource body.
const maxResourceBytes = 10 << 20

// HTTPFetcher fetches JSON resources relative to a base URL.
type HTTPFetcher struct {
	base   *url.URL
	client *http.Client
}

// NewHTTPFetcher creates a fetcher for baseURL. A zero timeout means no
// client-side timeout beyond the context.
func NewHTTPFetcher(baseURL string, timeout time.Duration) (*HTTPFetcher, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("base url %q must be http or https", baseURL)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return &HTTPFetcher{
		base:   u,
		client: &http.Client{Timeout: timeout},
	}, nil
}

// Fetch implements engine.Fetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, path string) (any, error) {
	target, err := f.resolve(path)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: unexpected status %d", target, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResourceBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if len(data) > maxResourceBytes {
		return nil, fmt.Errorf("GET %s: body exceeds %d bytes", target, maxResourceBytes)
	}
	return Decode(data)
}

// resolve joins path onto the base URL. The result must stay under the
// base path, so dot segments and path-absolute references that leave it
// are rejected.
func (f *HTTPFetcher) resolve(path string) (*url.URL, error) {
	ref, err := url.Parse(strings.TrimPrefix(path, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse resource path: %w", err)
	}
	if ref.IsAbs() || ref.Host != "" {
		return nil, fmt.Errorf("resource path %q must be relative", path)
	}
	if strings.HasPrefix(ref.Path, "/") || slices.Contains(strings.Split(ref.Path, "/"), "..") {
		return nil, fmt.Errorf("resource path %q escapes the base url", path)
	}
	target := f.base.ResolveReference(ref)
	if !strings.HasPrefix(target.Path, f.base.Path) {
		return nil, fmt.Errorf("resource path %q escapes the base url", path)
	}
	return target, nil
}
