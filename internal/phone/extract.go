package phone

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/sells-group/page-audit/internal/dom"
	"github.com/sells-group/page-audit/internal/model"
)

// Page is the read-only page access the extractor needs. *dom.Document
// implements it; tests can supply a fake.
type Page interface {
	TelLinks() []dom.TelLink
	VisibleText() string
	FindElementsContaining(needle string, limit int) []model.ElementRef
}

// DefaultTextMatchLimit caps how many elements are resolved per distinct
// free-text match.
const DefaultTextMatchLimit = 6

// textPattern matches North American numbers in prose: optional +1 prefix,
// optionally parenthesized area code, and space/dot/hyphen separators.
var textPattern = regexp.MustCompile(`(?:\+?1[\s.-]?)?(?:\(\s*\d{3}\s*\)|\d{3})[\s.-]?\d{3}[\s.-]?\d{4}\b`)

// Options tunes extraction.
type Options struct {
	TextMatchLimit int // elements resolved per distinct text match
	MinDigits      int // candidates with fewer canonical digits are dropped
}

// DefaultOptions returns the standard extraction limits.
func DefaultOptions() Options {
	return Options{TextMatchLimit: DefaultTextMatchLimit, MinDigits: MinPhoneDigits}
}

// Extraction is the output of both extraction passes.
type Extraction struct {
	Candidates  []model.PhoneCandidate // length-filtered, tel links first, then text
	TelLinks    int                    // tel: links seen, before filtering
	TextMatches int                    // pattern matches in visible text, before filtering
}

// NewCandidate builds a candidate whose digits are derived from raw.
func NewCandidate(src model.PhoneSource, raw, display string, elements []model.ElementRef) model.PhoneCandidate {
	return model.PhoneCandidate{
		Source:      src,
		RawText:     raw,
		DisplayText: display,
		Digits:      CanonicalDigits(raw),
		Elements:    elements,
	}
}

// Extract runs the tel: link pass then the free-text pass and drops
// candidates too short to be a phone number.
func Extract(p Page, opts Options) Extraction {
	if opts.TextMatchLimit <= 0 {
		opts.TextMatchLimit = DefaultTextMatchLimit
	}
	if opts.MinDigits <= 0 {
		opts.MinDigits = MinPhoneDigits
	}

	tel := ExtractTelLinks(p)
	text := ExtractText(p, opts.TextMatchLimit)

	out := Extraction{TelLinks: len(tel), TextMatches: len(text)}
	for _, c := range append(tel, text...) {
		if len(c.Digits) < opts.MinDigits {
			continue
		}
		out.Candidates = append(out.Candidates, c)
	}
	return out
}

// ExtractTelLinks returns one candidate per tel: link in document order.
func ExtractTelLinks(p Page) []model.PhoneCandidate {
	links := p.TelLinks()
	cands := make([]model.PhoneCandidate, 0, len(links))
	for _, l := range links {
		cands = append(cands, NewCandidate(
			model.SourceTelLink,
			telPayload(l.Href),
			l.Text,
			[]model.ElementRef{l.Element},
		))
	}
	return cands
}

// ExtractText returns one candidate per pattern match in the visible text.
// Element lookup is done once per distinct matched string.
func ExtractText(p Page, limit int) []model.PhoneCandidate {
	text := p.VisibleText()
	var (
		cands    []model.PhoneCandidate
		resolved = make(map[string][]model.ElementRef)
	)
	for _, loc := range findPhones(text) {
		raw := dom.CollapseSpace(text[loc[0]:loc[1]])
		elems, ok := resolved[raw]
		if !ok {
			elems = p.FindElementsContaining(raw, limit)
			resolved[raw] = elems
		}
		cands = append(cands, NewCandidate(model.SourcePageText, raw, raw, elems))
	}
	return cands
}

// findPhones returns the spans of pattern matches that do not start inside
// a longer digit run. A rejected match is retried one byte later, so a
// number right after an unrelated digit group ("Suite 201 555-123-4567")
// is still found.
func findPhones(text string) [][2]int {
	var locs [][2]int
	for pos := 0; pos < len(text); {
		loc := textPattern.FindStringIndex(text[pos:])
		if loc == nil {
			break
		}
		start, end := pos+loc[0], pos+loc[1]
		if precededByDigit(text, start) {
			pos = start + 1
			continue
		}
		locs = append(locs, [2]int{start, end})
		pos = end
	}
	return locs
}

// precededByDigit rejects matches carved out of a longer digit run.
func precededByDigit(text string, start int) bool {
	if start == 0 {
		return false
	}
	c := text[start-1]
	return c >= '0' && c <= '9'
}

// telPayload returns the number part of a tel: URI: scheme removed,
// percent-escapes decoded, and ;ext=/;phone-context= parameters dropped.
func telPayload(href string) string {
	s := strings.TrimSpace(href)
	if len(s) >= 4 && strings.EqualFold(s[:4], "tel:") {
		s = s[4:]
	}
	if dec, err := url.PathUnescape(s); err == nil {
		s = dec
	}
	if i := strings.IndexByte(s, ';'); i >= 0 {
		s = s[:i]
	}
	return dom.CollapseSpace(s)
}
