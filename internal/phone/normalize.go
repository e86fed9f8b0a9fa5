// Package phone discovers, deduplicates and reconciles the phone numbers on
// an audited page. Numbers are compared by canonical digits: the bare digit
// sequence of a 10-digit North American number, with a single leading trunk
// digit "1" removed.
package phone

import "strings"

// MinMatchDigits is the shortest needle ContainsPhone will look for. Shorter
// fragments match almost any page.
const MinMatchDigits = 7

// MinPhoneDigits is the shortest canonical number kept as a candidate.
const MinPhoneDigits = 10

// CanonicalDigits strips every non-digit and, when the result is 11 digits
// starting with the trunk digit 1, drops that digit. Other lengths pass
// through unchanged.
func CanonicalDigits(s string) string {
	d := digitsOnly(s)
	if len(d) == 11 && d[0] == '1' {
		return d[1:]
	}
	return d
}

// ContainsPhone reports whether needle's canonical digits occur in the
// canonical digits of haystack. Needles under MinMatchDigits never match.
func ContainsPhone(haystack, needle string) bool {
	p := CanonicalDigits(needle)
	if len(p) < MinMatchDigits {
		return false
	}
	return strings.Contains(CanonicalDigits(haystack), p)
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
