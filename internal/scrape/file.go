package scrape

import (
	"context"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// FileScraper reads saved HTML from disk. It accepts file:// URLs and plain
// paths.
type FileScraper struct {
	maxBytes int64
}

// NewFileScraper creates a FileScraper that reads at most maxBytes.
func NewFileScraper(maxBytes int64) *FileScraper {
	return &FileScraper{maxBytes: maxBytes}
}

func (f *FileScraper) Name() string { return "file" }

// Supports reports whether target names a local file.
func (f *FileScraper) Supports(target string) bool {
	if strings.HasPrefix(strings.ToLower(target), "file://") {
		return true
	}
	u, err := url.Parse(target)
	return err != nil || u.Scheme == ""
}

// Scrape reads the file.
func (f *FileScraper) Scrape(_ context.Context, target string) (*Result, error) {
	path := target
	if strings.HasPrefix(strings.ToLower(target), "file://") {
		u, err := url.Parse(target)
		if err != nil {
			return nil, eris.Wrap(err, "file: parse url")
		}
		path = u.Path
	}

	fh, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "file: open")
	}
	defer fh.Close() //nolint:errcheck

	var r io.Reader = fh
	if f.maxBytes > 0 {
		r = io.LimitReader(fh, f.maxBytes)
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, eris.Wrap(err, "file: read")
	}

	return &Result{
		URL:       "file://" + path,
		HTML:      string(body),
		Source:    f.Name(),
		FetchedAt: time.Now().UTC(),
	}, nil
}
