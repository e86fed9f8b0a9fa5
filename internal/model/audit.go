package model

import "time"

// Severity ranks how urgently a finding needs attention.
type Severity string

const (
	SeverityHigh   Severity = "High"
	SeverityMedium Severity = "Med"
	SeverityLow    Severity = "Low"
)

// Rank orders severities for sorting; lower is more severe.
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 0
	case SeverityMedium:
		return 1
	case SeverityLow:
		return 2
	}
	return 9
}

// Finding is an issue flagged by the audit.
type Finding struct {
	Severity Severity `json:"severity"`
	Area     string   `json:"area"`
	Issue    string   `json:"issue"`
	Fix      string   `json:"fix,omitempty"`
	Route    string   `json:"route,omitempty"`
}

// Check is one row of the pass/flag checklist.
type Check struct {
	Category string `json:"category"`
	Check    string `json:"check"`
	Pass     bool   `json:"pass"`
	Notes    string `json:"notes,omitempty"`
}

// AuditInputs are the operator-supplied reference values for NAP checks.
type AuditInputs struct {
	ExpectedPhone string `json:"expected_phone,omitempty" yaml:"expected_phone"`
	BusinessName  string `json:"business_name,omitempty" yaml:"business_name"`
	Address       string `json:"address,omitempty" yaml:"address"`
}

// AuditTarget is a page to audit plus its reference values. Either URL or
// HTML must be set; HTML wins when both are present.
type AuditTarget struct {
	URL    string      `json:"url,omitempty" yaml:"url"`
	HTML   string      `json:"html,omitempty" yaml:"-"`
	Inputs AuditInputs `json:"inputs" yaml:",inline"`
}

// NAPPresence records whether one NAP element was found in each page region.
// Unknown means no reference value was supplied.
type NAPPresence struct {
	Element string   `json:"element"`
	Body    Tristate `json:"body"`
	Footer  Tristate `json:"footer"`
}

// Report is the full result of one page audit.
type Report struct {
	URL            string              `json:"url"`
	Title          string              `json:"title,omitempty"`
	FetchedAt      time.Time           `json:"fetched_at"`
	Inputs         AuditInputs         `json:"inputs"`
	Phones         []PhoneRecord       `json:"phones"`
	PhoneSummary   PhoneSummary        `json:"phone_summary"`
	Reconciliation PhoneReconciliation `json:"reconciliation"`
	NAP            []NAPPresence       `json:"nap"`
	Checks         []Check             `json:"checks"`
	Findings       []Finding           `json:"findings"`
	ContentLength  int                 `json:"content_length"`
	Highlighted    int                 `json:"highlighted_elements"`
}

// RunStatus is the lifecycle state of a stored audit run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// Run is a persisted audit execution.
type Run struct {
	ID        string      `json:"id"`
	Target    AuditTarget `json:"target"`
	Status    RunStatus   `json:"status"`
	Report    *Report     `json:"report,omitempty"`
	Error     string      `json:"error,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}
