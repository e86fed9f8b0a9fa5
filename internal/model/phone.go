package model

import (
	"encoding/json"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
)

// PhoneSource is the provenance kind of a phone candidate.
type PhoneSource string

const (
	// SourceTelLink is an explicit tel: link on the page.
	SourceTelLink PhoneSource = "tel: link"
	// SourcePageText is a pattern match in the page's visible text.
	SourcePageText PhoneSource = "page text"
)

// ElementRef identifies an element by its document-order position inside
// one parsed page. It is only meaningful against the document that produced
// it and never keeps the element alive.
type ElementRef int

// PhoneCandidate is a single raw phone sighting before deduplication.
type PhoneCandidate struct {
	Source      PhoneSource  `json:"source"`
	RawText     string       `json:"raw"`
	DisplayText string       `json:"display_text"`
	Digits      string       `json:"digits"`
	Elements    []ElementRef `json:"elements,omitempty"`
}

// PhoneRecord is the merged evidence for one canonical phone number.
type PhoneRecord struct {
	Digits      string        `json:"digits"`
	Source      string        `json:"source"`
	Sources     []PhoneSource `json:"sources"`
	Raw         string        `json:"raw"`
	DisplayText string        `json:"display_text"`
	Elements    []ElementRef  `json:"elements,omitempty"`
	Occurrences int           `json:"occurrences_found"`
}

// HasSource reports whether the record includes evidence of the given kind.
func (r PhoneRecord) HasSource(src PhoneSource) bool {
	for _, s := range r.Sources {
		if s == src {
			return true
		}
	}
	return false
}

// rank orders provenance kinds in labels: tel links first.
func (s PhoneSource) rank() int {
	switch s {
	case SourceTelLink:
		return 0
	case SourcePageText:
		return 1
	}
	return 9
}

// CombinedSourceLabel joins provenance kinds into a composite label such as
// "tel: link + page text". Kinds are ordered tel link first, whatever order
// they were seen in.
func CombinedSourceLabel(sources []PhoneSource) string {
	sorted := slices.Clone(sources)
	slices.SortStableFunc(sorted, func(a, b PhoneSource) int { return a.rank() - b.rank() })
	parts := make([]string, len(sorted))
	for i, s := range sorted {
		parts[i] = string(s)
	}
	return strings.Join(parts, " + ")
}

// Tristate is a boolean that can also be unknown. Unknown means the
// question could not be asked (e.g. no expected value supplied) and must
// never be read as false.
type Tristate int

const (
	Unknown Tristate = iota
	True
	False
)

// TristateOf converts a bool into True or False.
func TristateOf(b bool) Tristate {
	if b {
		return True
	}
	return False
}

// Known reports whether the value is True or False.
func (t Tristate) Known() bool { return t == True || t == False }

func (t Tristate) String() string {
	switch t {
	case True:
		return "true"
	case False:
		return "false"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes Unknown as null.
func (t Tristate) MarshalJSON() ([]byte, error) {
	switch t {
	case True:
		return []byte("true"), nil
	case False:
		return []byte("false"), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts true, false, or null.
func (t *Tristate) UnmarshalJSON(data []byte) error {
	var b *bool
	if err := json.Unmarshal(data, &b); err != nil {
		return eris.Wrap(err, "tristate: unmarshal")
	}
	switch {
	case b == nil:
		*t = Unknown
	case *b:
		*t = True
	default:
		*t = False
	}
	return nil
}

// PhoneReconciliation compares discovered numbers against an expected one.
type PhoneReconciliation struct {
	ExpectedDigits string        `json:"expected_digits,omitempty"`
	FoundExpected  Tristate      `json:"found_expected"`
	OtherRecords   []PhoneRecord `json:"other_records"`
	MultiplePhones bool          `json:"multiple_phones"`
}

// PhoneSummary is the tabulable count row for the phone section.
type PhoneSummary struct {
	UniqueNumbers int `json:"unique_phone_numbers_found"`
	TelLinks      int `json:"tel_links_found"`
	TextMatches   int `json:"phone_matches_in_page_text"`
}
