package scrape

import (
	"bytes"
	"context"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/page-audit/internal/fetcher"
)

// LocalScraper fetches live HTML over HTTP and rejects anti-bot pages.
type LocalScraper struct {
	fetch fetcher.Fetcher
}

// NewLocalScraper creates a LocalScraper backed by f.
func NewLocalScraper(f fetcher.Fetcher) *LocalScraper {
	return &LocalScraper{fetch: f}
}

func (l *LocalScraper) Name() string { return "local_http" }

// Supports reports whether the URL uses http or https.
func (l *LocalScraper) Supports(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return (scheme == "http" || scheme == "https") && u.Host != ""
}

// Scrape fetches a URL, detects blocks, and returns the raw HTML.
func (l *LocalScraper) Scrape(ctx context.Context, targetURL string) (*Result, error) {
	resp, err := l.fetch.Get(ctx, targetURL)
	if err != nil {
		return nil, eris.Wrap(err, "local_http: fetch")
	}

	if blocked, blockType := DetectBlock(resp.StatusCode, resp.Header, resp.Body); blocked {
		return nil, eris.Errorf("local_http: blocked (%s)", blockType)
	}

	if resp.StatusCode >= 400 {
		return nil, eris.Errorf("local_http: status %d", resp.StatusCode)
	}

	if len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil, eris.New("local_http: empty page")
	}

	zap.L().Debug("local_http: fetched",
		zap.String("url", resp.URL),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(resp.Body)),
	)

	return &Result{
		URL:        resp.URL,
		HTML:       string(resp.Body),
		StatusCode: resp.StatusCode,
		Source:     l.Name(),
		FetchedAt:  time.Now().UTC(),
	}, nil
}
