package schema

import (
	"regexp"
	"strings"
)

var (
	reLeadingDigits   = regexp.MustCompile(`^\d+`)
	reNonAlphanumeric = regexp.MustCompile(`[^a-zA-Z\d]`)
)

// NormalizeName canonicalizes free text into a valid schema identifier:
// names starting with digits get an "s" prefix so they cannot collide with
// numeric literals, then everything outside ASCII letters and digits is
// stripped and the result lower-cased. Total and idempotent; the empty
// string maps to itself.
func NormalizeName(name string) string {
	if reLeadingDigits.MatchString(name) {
		name = "s" + name
	}
	return strings.ToLower(reNonAlphanumeric.ReplaceAllString(name, ""))
}
