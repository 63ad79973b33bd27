package resolve

import (
	"github.com/pmezard/go-difflib/difflib"
)

// Similarity returns the Ratcliff/Obershelp ratio of two strings as
// computed by difflib's SequenceMatcher: 2*M / (len(a)+len(b)) where M is
// the total size of the matching blocks. Sequences are compared rune by
// rune, and elements popular in a b of 200+ runes do not seed blocks.
// Two empty strings score 1.0.
func Similarity(a, b string) float64 {
	ra, rb := runeStrings(a), runeStrings(b)
	if len(ra)+len(rb) == 0 {
		return 1.0
	}
	return difflib.NewMatcher(ra, rb).Ratio()
}

// runeStrings splits s into one-rune strings, the element type difflib
// compares.
func runeStrings(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
