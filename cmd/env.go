package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/page-audit/internal/audit"
	"github.com/sells-group/page-audit/internal/fetcher"
	"github.com/sells-group/page-audit/internal/highlight"
	"github.com/sells-group/page-audit/internal/model"
	"github.com/sells-group/page-audit/internal/phone"
	"github.com/sells-group/page-audit/internal/scrape"
	"github.com/sells-group/page-audit/internal/store"
)

// initStore opens the configured run store and applies migrations.
func initStore(ctx context.Context) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "sqlite":
		st, err = store.NewSQLite(cfg.Store.DatabaseURL)
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

func newFetcher() *fetcher.HTTPFetcher {
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:    cfg.Scrape.UserAgent,
		Timeout:      time.Duration(cfg.Scrape.TimeoutSecs) * time.Second,
		MaxRetries:   cfg.Scrape.MaxRetries,
		MaxBodyBytes: cfg.Scrape.MaxBodyBytes,
		RatePerSec:   cfg.Scrape.RatePerSec,
	})
}

// newLoader builds the CLI scraper chain: HTTP(S) pages through the
// rate-limited fetcher, anything else from disk.
func newLoader() *scrape.Chain {
	return scrape.NewChain(
		scrape.NewLocalScraper(newFetcher()),
		scrape.NewFileScraper(cfg.Scrape.MaxBodyBytes),
	)
}

// newWebLoader builds the chain used by the HTTP API. It only fetches
// HTTP(S) pages; local files are never readable through the server.
func newWebLoader() *scrape.Chain {
	return scrape.NewChain(scrape.NewLocalScraper(newFetcher()))
}

func phoneOptions() phone.Options {
	return phone.Options{
		TextMatchLimit: cfg.Audit.TextMatchLimit,
		MinDigits:      cfg.Audit.MinDigits,
	}
}

func highlightOptions() highlight.Options {
	return highlight.Options{
		Outline:       cfg.Highlight.Outline,
		OutlineOffset: cfg.Highlight.OutlineOffset,
		Attribute:     cfg.Highlight.Attribute,
	}
}

func auditOptions(annotate bool) audit.Options {
	return audit.Options{
		Phone:     phoneOptions(),
		Highlight: highlightOptions(),
		Annotate:  annotate,
	}
}

// newAuditor wires a CLI Auditor from config. st may be nil.
func newAuditor(st store.Store, annotate bool) *audit.Auditor {
	return audit.New(newLoader(), st, auditOptions(annotate))
}

// withDefaultInputs fills blank reference values from the audit config.
func withDefaultInputs(in model.AuditInputs) model.AuditInputs {
	if in.ExpectedPhone == "" {
		in.ExpectedPhone = cfg.Audit.ExpectedPhone
	}
	if in.BusinessName == "" {
		in.BusinessName = cfg.Audit.BusinessName
	}
	if in.Address == "" {
		in.Address = cfg.Audit.Address
	}
	return in
}
