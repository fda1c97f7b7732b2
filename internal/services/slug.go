package services

import (
	"strings"
	"unicode"
)

// Slugify lowercases s and joins its letter and digit runs with hyphens.
// Non-Latin letters are kept so Arabic titles produce readable slugs.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
