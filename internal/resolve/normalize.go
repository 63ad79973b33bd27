// Package resolve matches person names across the GEDCOM and scraped
// populations: normalization, similarity scoring and exact/fuzzy assignment.
package resolve

import (
	"strings"
)

var punctuation = strings.NewReplacer(
	".", "",
	"(", "",
	")", "",
)

// NormalizeName canonicalizes a display name for comparison by:
//  1. Converting to lowercase
//  2. Rewriting "Last, First" as "First Last" (exactly one comma, both parts non-empty)
//  3. Stripping periods and parentheses
//  4. Collapsing whitespace runs and trimming
//
// The steps run in this order. NormalizeName is total and idempotent.
func NormalizeName(name string) string {
	if name == "" {
		return ""
	}

	name = strings.ToLower(name)

	if strings.Count(name, ",") == 1 {
		last, first, _ := strings.Cut(name, ",")
		last, first = strings.TrimSpace(last), strings.TrimSpace(first)
		if last != "" && first != "" {
			name = first + " " + last
		}
	}

	name = punctuation.Replace(name)

	return strings.Join(strings.Fields(name), " ")
}
