// Package report assembles the reconciliation audit report.
package report

import (
	"fmt"
	"strings"

	"github.com/sells-group/kinship-cli/internal/model"
)

const (
	maxParents  = 2
	maxChildren = 3
	noContext   = "N/A"
)

// DescribeContext renders a family context as a short review string.
// Typed parents win over untyped ones, and parents win over children.
// Untyped parents are listed bare, at most two.
func DescribeContext(c model.FamilyContext) string {
	var parts []string
	if c.Father != "" {
		parts = append(parts, "Father: "+c.Father)
	}
	if c.Mother != "" {
		parts = append(parts, "Mother: "+c.Mother)
	}
	if len(parts) > 0 {
		return strings.Join(parts, " | ")
	}

	if parents := distinct(c.Parents); len(parents) > 0 {
		if len(parents) > maxParents {
			parents = parents[:maxParents]
		}
		return strings.Join(parents, ", ")
	}

	children := distinct(c.Children)
	if len(children) == 0 {
		return noContext
	}
	if len(children) <= maxChildren {
		return strings.Join(children, ", ")
	}
	return fmt.Sprintf("%s (+%d more)", strings.Join(children[:maxChildren], ", "), len(children)-maxChildren)
}

// distinct drops empty and repeated values, keeping first occurrences.
func distinct(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, v := range in {
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
