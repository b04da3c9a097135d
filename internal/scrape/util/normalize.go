package util

import "strings"

var apostrophes = strings.NewReplacer("’", "'", "‘", "'")

// CleanText collapses all whitespace (including non-breaking spaces) to
// single spaces and trims the ends.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	s = strings.Join(strings.Fields(s), " ")
	return strings.TrimSpace(s)
}

// NormLabel canonicalizes a field label: whitespace collapsed, lowercased,
// curly apostrophes straightened, one trailing colon stripped.
func NormLabel(s string) string {
	s = apostrophes.Replace(s)
	s = strings.ToLower(CleanText(s))
	s = strings.TrimSuffix(s, ":")
	return strings.TrimSpace(s)
}
