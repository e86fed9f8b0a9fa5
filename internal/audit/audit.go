// Package audit runs the on-page NAP audit: it loads a page, extracts and
// reconciles phone evidence, checks NAP presence, and assembles a report.
package audit

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/page-audit/internal/dom"
	"github.com/sells-group/page-audit/internal/highlight"
	"github.com/sells-group/page-audit/internal/model"
	"github.com/sells-group/page-audit/internal/nap"
	"github.com/sells-group/page-audit/internal/phone"
	"github.com/sells-group/page-audit/internal/scrape"
	"github.com/sells-group/page-audit/internal/store"
)

// ErrNoSource is returned for a target with neither a URL nor inline HTML.
var ErrNoSource = eris.New("audit: target has neither url nor html")

// LoadError reports that the page could not be fetched.
type LoadError struct {
	URL string
	Err error
}

func (e *LoadError) Error() string { return "audit: load page " + e.URL + ": " + e.Err.Error() }

func (e *LoadError) Unwrap() error { return e.Err }

// Loader fetches a page by URL. *scrape.Chain implements it.
type Loader interface {
	Scrape(ctx context.Context, url string) (*scrape.Result, error)
}

// Options tunes an Auditor.
type Options struct {
	Phone     phone.Options
	Highlight highlight.Options
	// Annotate applies highlight markers and returns the marked-up HTML.
	Annotate bool
}

// Outcome is the result of one audit run.
type Outcome struct {
	RunID     string
	Report    *model.Report
	Annotated string // rendered HTML with highlight markers, when Annotate is set
}

// Auditor orchestrates page loading, analysis, and optional persistence.
type Auditor struct {
	loader Loader
	store  store.Store
	opts   Options
	now    func() time.Time
}

// New creates an Auditor. st may be nil, in which case runs are not saved.
func New(loader Loader, st store.Store, opts Options) *Auditor {
	return &Auditor{
		loader: loader,
		store:  st,
		opts:   opts,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Run audits a single target. Load and parse failures are returned as
// errors; anything found on the page is reported as findings.
func (a *Auditor) Run(ctx context.Context, target model.AuditTarget) (*Outcome, error) {
	log := zap.L().With(zap.String("url", target.URL))
	log.Info("audit: starting")

	out := &Outcome{}
	if a.store != nil {
		run, err := a.store.CreateRun(ctx, target)
		if err != nil {
			return nil, eris.Wrap(err, "audit: create run")
		}
		out.RunID = run.ID
	}

	report, annotated, err := a.run(ctx, target)
	if err != nil {
		log.Error("audit: failed", zap.Error(err))
		if a.store != nil {
			if failErr := a.store.FailRun(ctx, out.RunID, err.Error()); failErr != nil {
				log.Warn("audit: failed to record failure", zap.Error(failErr))
			}
		}
		return nil, err
	}
	out.Report = report
	out.Annotated = annotated

	if a.store != nil {
		if err := a.store.CompleteRun(ctx, out.RunID, report); err != nil {
			return nil, eris.Wrap(err, "audit: save report")
		}
	}

	log.Info("audit: complete",
		zap.String("run_id", out.RunID),
		zap.Int("phones", len(report.Phones)),
		zap.Int("findings", len(report.Findings)),
		zap.String("found_expected", report.Reconciliation.FoundExpected.String()),
	)
	return out, nil
}

func (a *Auditor) run(ctx context.Context, target model.AuditTarget) (*model.Report, string, error) {
	html, pageURL, fetchedAt, err := a.load(ctx, target)
	if err != nil {
		return nil, "", err
	}

	doc, err := dom.ParseString(html)
	if err != nil {
		return nil, "", eris.Wrap(err, "audit: parse page")
	}

	report := Analyze(doc, target.Inputs, a.opts.Phone)
	report.URL = pageURL
	report.FetchedAt = fetchedAt

	var annotated string
	if a.opts.Annotate {
		report.Highlighted = highlight.New(doc, a.opts.Highlight).Apply(report.Phones)
		var buf bytes.Buffer
		if err := doc.Render(&buf); err != nil {
			return nil, "", eris.Wrap(err, "audit: render annotated page")
		}
		annotated = buf.String()
	}
	return report, annotated, nil
}

func (a *Auditor) load(ctx context.Context, target model.AuditTarget) (html, pageURL string, fetchedAt time.Time, err error) {
	if target.HTML != "" {
		return target.HTML, target.URL, a.now(), nil
	}
	if strings.TrimSpace(target.URL) == "" {
		return "", "", time.Time{}, ErrNoSource
	}
	if a.loader == nil {
		return "", "", time.Time{}, eris.New("audit: no page loader configured")
	}
	res, err := a.loader.Scrape(ctx, target.URL)
	if err != nil {
		return "", "", time.Time{}, &LoadError{URL: target.URL, Err: err}
	}
	return res.HTML, res.URL, res.FetchedAt, nil
}

// Analyze runs every check against a parsed page. It never fails: an empty
// page yields findings, not errors. URL and FetchedAt are left for the
// caller.
func Analyze(doc *dom.Document, inputs model.AuditInputs, opts phone.Options) *model.Report {
	ex := phone.Extract(doc, opts)
	records := phone.Merge(ex.Candidates)
	rec := phone.Reconcile(records, inputs.ExpectedPhone)
	phoneFindings, phoneChecks := phone.Assess(records, rec)

	regions := nap.RegionsOf(doc)
	napResult := nap.Check(regions, inputs)

	findings := append(phoneFindings, napResult.Findings...)
	sort.SliceStable(findings, func(i, j int) bool {
		return findings[i].Severity.Rank() < findings[j].Severity.Rank()
	})
	for i := range findings {
		findings[i].Route = Route(findings[i])
	}
	if findings == nil {
		findings = []model.Finding{}
	}
	if records == nil {
		records = []model.PhoneRecord{}
	}

	return &model.Report{
		Title:  doc.Title(),
		Inputs: inputs,
		Phones: records,
		PhoneSummary: model.PhoneSummary{
			UniqueNumbers: len(records),
			TelLinks:      ex.TelLinks,
			TextMatches:   ex.TextMatches,
		},
		Reconciliation: rec,
		NAP:            napResult.Presence,
		Checks:         append(phoneChecks, napResult.Checks...),
		Findings:       findings,
		ContentLength:  utf8.RuneCountInString(regions.Body),
	}
}
