package validation

import (
	"strings"
	"unicode"
)

// SanitizeLine trims s, collapses runs of whitespace to one space and drops
// control characters. Used for single-line fields.
func SanitizeLine(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range strings.TrimSpace(s) {
		switch {
		case unicode.IsSpace(r):
			space = true
		case unicode.IsControl(r):
		default:
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SanitizeText trims s and drops control characters other than newlines and
// tabs. CRLF is normalized to LF.
func SanitizeText(s string) string {
	s = strings.ReplaceAll(strings.TrimSpace(s), "\r\n", "\n")
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

// NormalizeEmail trims and lowercases an address
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
