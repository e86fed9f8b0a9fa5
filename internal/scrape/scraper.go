package scrape

import (
	"context"
	"time"
)

// Result holds a loaded page with its source.
type Result struct {
	URL        string
	HTML       string
	StatusCode int
	Source     string // e.g. "local_http", "file"
	FetchedAt  time.Time
}

// Scraper loads a single page and returns its raw HTML.
type Scraper interface {
	Scrape(ctx context.Context, url string) (*Result, error)
	Name() string
	Supports(url string) bool
}
