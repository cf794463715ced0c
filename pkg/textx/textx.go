// Package textx provides small text utilities used across the project.
package textx

import (
	"strings"
	"unicode"
)

// SanitizeText removes control characters except tab/newline/CR and trims spaces.
func SanitizeText(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r == '\n' || r == '\r' || r == '\t' || (r >= 32 && r != 127) {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// CollapseWhitespace folds any run of whitespace into a single space.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Slugify lowercases the input and keeps letters and digits, mapping
// everything else to single dots. Used to synthesize placeholder emails.
func Slugify(s string) string {
	var b strings.Builder
	lastDot := true
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastDot = false
		case !lastDot:
			b.WriteRune('.')
			lastDot = true
		}
	}
	return strings.TrimSuffix(b.String(), ".")
}
