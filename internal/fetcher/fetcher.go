// Package fetcher downloads web pages with retry, backoff, and per-host
// rate limiting.
package fetcher

import (
	"context"
	"net/http"
)

// Response is a fully read HTTP response.
type Response struct {
	URL        string // final URL after redirects
	StatusCode int
	Header     http.Header
	Body       []byte
	Truncated  bool // body exceeded the configured cap
}

// Fetcher defines the interface for downloading remote pages.
type Fetcher interface {
	// Get fetches the URL and returns the read response. Non-2xx responses
	// that are not retried are returned, not treated as errors.
	Get(ctx context.Context, url string) (*Response, error)
}
