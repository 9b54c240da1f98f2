package game

import (
	"strings"
	"unicode"
)

// NormalizeAnswer prepares an answer string for comparison: lowercase, with
// all whitespace (including newlines) and semicolons removed. Submitted and
// stored answers are compared for exact equality after normalization; there
// is no fuzzy matching or partial credit.
func NormalizeAnswer(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsSpace(r) || r == ';' {
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
