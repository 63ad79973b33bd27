package report

import (
	"math"
	"sort"
	"time"

	"golang.org/x/text/cases"

	"github.com/sells-group/kinship-cli/internal/extraction"
	"github.com/sells-group/kinship-cli/internal/model"
)

// Input is everything Build needs to assemble a report.
type Input struct {
	Result     *model.MatchResult
	Parameters model.Parameters
	// PeopleA are the GEDCOM records in id order. When several records share
	// a name the last one supplies the context.
	PeopleA []model.PersonRecord
	// GraphB is the derived scraped graph.
	GraphB *extraction.Graph
	// SourceBRecords is the number of pages in the dump.
	SourceBRecords int
	Sources        model.SourceInfo
	GeneratedAt    time.Time
}

// Build assembles the report: summary counts, sorted match lists and
// unmatched entries enriched with family context.
func Build(in Input) *model.Report {
	res := in.Result
	if res == nil {
		res = &model.MatchResult{}
	}
	graph := in.GraphB
	if graph == nil {
		graph = &extraction.Graph{}
	}
	generated := in.GeneratedAt
	if generated.IsZero() {
		generated = time.Now().UTC()
	}

	byName := make(map[string]model.PersonRecord, len(in.PeopleA))
	for _, p := range in.PeopleA {
		byName[p.Name] = p
	}

	rep := &model.Report{
		GeneratedAt:  generated,
		Parameters:   in.Parameters,
		Sources:      in.Sources,
		ExactMatches: sortEntries(res.Exact),
		FuzzyMatches: sortEntries(res.Fuzzy),
		OnlyInA:      unmatchedA(res.OnlyA, byName),
		OnlyInB:      unmatchedB(res.OnlyB, graph),
		AmbiguousA:   res.AmbiguousA,
		AmbiguousB:   res.AmbiguousB,
		PIDNames:     graph.PIDNames,
	}

	if len(res.UnkeyedA) > 0 {
		rep.UnkeyedA = unmatchedA(res.UnkeyedA, byName)
	}
	if len(res.UnkeyedB) > 0 {
		rep.UnkeyedB = unmatchedB(res.UnkeyedB, graph)
	}

	rep.Summary = model.Summary{
		SourceARecords:  len(in.PeopleA),
		SourceAKeys:     res.SizeA,
		SourceBRecords:  in.SourceBRecords,
		SourceBNames:    len(graph.Names),
		SourceBKeys:     res.SizeB,
		ExactMatches:    len(res.Exact),
		FuzzyMatches:    len(res.Fuzzy),
		OnlyInA:         len(res.OnlyA),
		OnlyInB:         len(res.OnlyB),
		UnkeyedA:        len(res.UnkeyedA),
		UnkeyedB:        len(res.UnkeyedB),
		AmbiguousKeys:   len(res.AmbiguousA) + len(res.AmbiguousB),
		MatchPercent:    percent(len(res.Exact), res.SizeA),
		CoveragePercent: percent(len(res.Exact)+len(res.Fuzzy), res.SizeA),
	}
	return rep
}

func unmatchedA(names []string, byName map[string]model.PersonRecord) []model.Unmatched {
	out := make([]model.Unmatched, 0, len(names))
	for _, name := range sortNames(names) {
		p := byName[name]
		out = append(out, model.Unmatched{
			Name:    name,
			Context: DescribeContext(p.Context()),
			Birth:   p.Birth,
			Death:   p.Death,
		})
	}
	return out
}

func unmatchedB(names []string, graph *extraction.Graph) []model.Unmatched {
	out := make([]model.Unmatched, 0, len(names))
	for _, name := range sortNames(names) {
		out = append(out, model.Unmatched{
			Name:    name,
			Context: DescribeContext(graph.Contexts[name]),
		})
	}
	return out
}

// percent returns n/total*100 rounded to two decimals, or 0 for an empty total.
func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(n)/float64(total)*100*100) / 100
}

func sortEntries(in []model.MatchEntry) []model.MatchEntry {
	out := make([]model.MatchEntry, len(in))
	copy(out, in)
	fold := cases.Fold()
	sort.SliceStable(out, func(i, j int) bool {
		return less(fold, out[i].SourceAName, out[j].SourceAName)
	})
	return out
}

func sortNames(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	fold := cases.Fold()
	sort.SliceStable(out, func(i, j int) bool { return less(fold, out[i], out[j]) })
	return out
}

// less orders by case-folded value, then by the raw value.
func less(fold cases.Caser, a, b string) bool {
	fa, fb := fold.String(a), fold.String(b)
	if fa != fb {
		return fa < fb
	}
	return a < b
}
