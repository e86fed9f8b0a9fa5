package audit

import (
	"strings"

	"github.com/sells-group/page-audit/internal/model"
)

// Team routing labels attached to findings.
const (
	RouteSEO     = "SEO Team"
	RouteWeb     = "Web Team"
	RouteConfirm = "SEO/Web (confirm)"
)

var (
	seoKeywords = []string{"duplicate content", "metadata", "schema", "internal links", "keyword", "nap", "canonical", "noindex", "nofollow", "phone"}
	webKeywords = []string{"layout", "broken images", "media", "plugin", "map", "navigation", "padding", "margins", "button"}
)

// Route suggests which team should own a finding, based on keywords in its
// area and issue text. Findings matching both or neither list need a human.
func Route(f model.Finding) string {
	s := strings.ToLower(f.Area + " " + f.Issue)
	seo := containsAny(s, seoKeywords)
	web := containsAny(s, webKeywords)
	switch {
	case web && !seo:
		return RouteWeb
	case seo && !web:
		return RouteSEO
	default:
		return RouteConfirm
	}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
