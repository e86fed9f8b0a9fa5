// Package nap checks that the operator's business name, phone and address
// appear in the page body and footer.
package nap

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/sells-group/page-audit/internal/dom"
	"github.com/sells-group/page-audit/internal/model"
	"github.com/sells-group/page-audit/internal/phone"
)

const area = "NAP"

// Element labels used in the presence table.
const (
	ElementName    = "Business name"
	ElementPhone   = "Phone"
	ElementAddress = "Address/Service Area"
)

// Regions is the text the presence checks run against.
type Regions struct {
	Body      string
	Footer    string
	HasFooter bool
}

// RegionsOf extracts body and footer text from a parsed page.
func RegionsOf(doc *dom.Document) Regions {
	return Regions{
		Body:      dom.CollapseSpace(doc.VisibleText()),
		Footer:    dom.CollapseSpace(doc.RegionText("footer")),
		HasFooter: doc.HasElement("footer"),
	}
}

// Result is the outcome of the NAP checks.
type Result struct {
	Presence []model.NAPPresence
	Findings []model.Finding
	Checks   []model.Check
}

// Check reports presence for every input. Elements with no reference value
// are Unknown in both regions and produce no checks or findings.
func Check(r Regions, in model.AuditInputs) Result {
	name := strings.TrimSpace(in.BusinessName)
	tel := strings.TrimSpace(in.ExpectedPhone)
	addr := strings.TrimSpace(in.Address)

	res := Result{
		Presence: []model.NAPPresence{
			presence(ElementName, name, r, ContainsLoose),
			presence(ElementPhone, tel, r, phone.ContainsPhone),
			presence(ElementAddress, addr, r, ContainsLoose),
		},
	}

	namePresence, phonePresence, addrPresence := res.Presence[0], res.Presence[1], res.Presence[2]
	if namePresence.Body.Known() {
		res.Checks = append(res.Checks, check("Business name present on page", namePresence.Body))
		if namePresence.Body == model.False {
			res.Findings = append(res.Findings, model.Finding{
				Severity: model.SeverityMedium,
				Area:     area,
				Issue:    "Business name not found in page text (based on your input).",
				Fix:      "Confirm NAP placement in header/footer/contact sections.",
			})
		}
	}
	if phonePresence.Body.Known() {
		res.Checks = append(res.Checks, check("Phone present on page (string match)", phonePresence.Body))
		if phonePresence.Body == model.False {
			res.Findings = append(res.Findings, model.Finding{
				Severity: model.SeverityMedium,
				Area:     area,
				Issue:    "Phone not found in page text (based on your input).",
				Fix:      "Confirm phone appears in header/footer/contact and matches GBP.",
			})
		}
	}
	if addrPresence.Body.Known() {
		res.Checks = append(res.Checks, check("Address/Service area present on page", addrPresence.Body))
		if addrPresence.Body == model.False {
			res.Findings = append(res.Findings, model.Finding{
				Severity: model.SeverityLow,
				Area:     area,
				Issue:    "Address/service area text not found in page text (based on your input).",
				Fix:      "Confirm consistency in footer/contact/location sections.",
			})
		}
	}

	notes := "No <footer> tag found"
	if r.HasFooter {
		notes = "Footer found"
	}
	res.Checks = append(res.Checks, model.Check{
		Category: "Footer",
		Check:    "Footer exists",
		Pass:     r.HasFooter,
		Notes:    notes,
	})
	return res
}

func presence(element, want string, r Regions, match func(haystack, needle string) bool) model.NAPPresence {
	p := model.NAPPresence{Element: element}
	if want == "" {
		return p
	}
	p.Body = model.TristateOf(match(r.Body, want))
	p.Footer = model.TristateOf(match(r.Footer, want))
	return p
}

func check(label string, found model.Tristate) model.Check {
	return model.Check{
		Category: area,
		Check:    label,
		Pass:     found == model.True,
		Notes:    "Body scan",
	}
}

// ContainsLoose reports whether needle occurs in haystack ignoring case and
// whitespace differences. An empty needle never matches.
func ContainsLoose(haystack, needle string) bool {
	needle = dom.CollapseSpace(needle)
	if needle == "" {
		return false
	}
	// A Caser is stateful, so each call gets its own.
	fold := cases.Fold()
	return strings.Contains(fold.String(dom.CollapseSpace(haystack)), fold.String(needle))
}
