// Package resource provides fetch capabilities for resource-backed
// constant steps: local directories, HTTP endpoints and an in-process cache.
// Every fetcher returns the decoded JSON value verbatim.
package resource
