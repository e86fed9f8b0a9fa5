package phone

import (
	"fmt"
	"strings"

	"github.com/sells-group/page-audit/internal/model"
)

const area = "Phone Numbers"

// Reconcile compares merged records against the expected number. When no
// expected number is supplied (or it has no digits at all) FoundExpected is
// Unknown and every record counts as "other".
func Reconcile(records []model.PhoneRecord, expected string) model.PhoneReconciliation {
	rec := model.PhoneReconciliation{
		MultiplePhones: len(records) > 1,
		OtherRecords:   []model.PhoneRecord{},
	}

	rec.ExpectedDigits = CanonicalDigits(expected)
	if rec.ExpectedDigits == "" {
		rec.FoundExpected = model.Unknown
		rec.OtherRecords = append(rec.OtherRecords, records...)
		return rec
	}

	found := false
	for _, r := range records {
		if r.Digits == rec.ExpectedDigits {
			found = true
			continue
		}
		rec.OtherRecords = append(rec.OtherRecords, r)
	}
	rec.FoundExpected = model.TristateOf(found)
	return rec
}

// Assess turns a reconciliation into findings and checklist rows. The three
// findings are independent and may all fire at once.
func Assess(records []model.PhoneRecord, rec model.PhoneReconciliation) ([]model.Finding, []model.Check) {
	var (
		findings []model.Finding
		checks   []model.Check
	)

	checks = append(checks, model.Check{
		Category: area,
		Check:    "At least 1 phone number found on page",
		Pass:     len(records) > 0,
		Notes:    fmt.Sprintf("Found: %d", len(records)),
	})
	if rec.FoundExpected.Known() {
		checks = append(checks, model.Check{
			Category: area,
			Check:    "Expected phone appears among detected numbers",
			Pass:     rec.FoundExpected == model.True,
			Notes:    "Expected digits: " + rec.ExpectedDigits,
		})
	}
	multipleNotes := "Single number detected"
	switch {
	case rec.MultiplePhones:
		multipleNotes = "Multiple unique numbers detected, review phone table"
	case len(records) == 0:
		multipleNotes = "No numbers detected"
	}
	checks = append(checks, model.Check{
		Category: area,
		Check:    "No multiple different phone numbers (potential inconsistency)",
		Pass:     !rec.MultiplePhones,
		Notes:    multipleNotes,
	})

	if len(records) == 0 {
		findings = append(findings, model.Finding{
			Severity: model.SeverityHigh,
			Area:     area,
			Issue:    "No phone-like numbers detected on the page.",
			Fix:      "Confirm phone is visible and/or add tel: link.",
		})
	}
	if rec.FoundExpected == model.False {
		findings = append(findings, model.Finding{
			Severity: model.SeverityHigh,
			Area:     area,
			Issue:    "Expected phone NOT found among detected phone numbers.",
			Fix:      "Fix NAP consistency; update header/footer/buttons and tel: links.",
		})
	}
	if rec.MultiplePhones {
		fix := "Review and confirm which number should be used sitewide."
		if rec.FoundExpected.Known() {
			fix = fmt.Sprintf("Expected: %s. Review other numbers: %s", rec.ExpectedDigits, joinDigits(rec.OtherRecords))
		}
		findings = append(findings, model.Finding{
			Severity: model.SeverityMedium,
			Area:     area,
			Issue:    "Multiple different phone numbers detected on page (possible NAP inconsistency).",
			Fix:      fix,
		})
	}

	return findings, checks
}

func joinDigits(records []model.PhoneRecord) string {
	d := make([]string, len(records))
	for i, r := range records {
		d[i] = r.Digits
	}
	return strings.Join(d, ", ")
}
