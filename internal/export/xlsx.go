package export

import (
	"sort"
	"strconv"
	"strings"

	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/kinship-cli/internal/model"
)

// Sheet names in workbook order.
const (
	SheetSummary  = "Summary"
	SheetExact    = "Exact Matches"
	SheetFuzzy    = "Fuzzy Matches"
	SheetOnlyA    = "Only in GEDCOM"
	SheetOnlyB    = "Only in Extraction"
	SheetUnkeyedA = "Unkeyed GEDCOM"
	SheetUnkeyedB = "Unkeyed Extraction"
	SheetPIDNames = "PID Names"
)

var (
	matchHeader     = []string{"GEDCOM Name", "Extraction Name", "Key", "Score", "Birth", "Death"}
	unmatchedHeader = []string{"Name", "Context", "Birth", "Death"}
)

// workbook lays the report out as one sheet per collection. AddSheet only
// fails on duplicate or invalid names, which the constants rule out.
func workbook(rep *model.Report) *xlsx.File {
	f := xlsx.NewFile()

	summary, _ := f.AddSheet(SheetSummary)
	s := rep.Summary
	for _, kv := range []struct {
		label string
		value any
	}{
		{"Generated At", rep.GeneratedAt.Format("2006-01-02 15:04:05")},
		{"Fuzzy Threshold", rep.Parameters.FuzzyThreshold},
		{"Strategy", rep.Parameters.Strategy},
		{"GEDCOM Records", s.SourceARecords},
		{"GEDCOM Keys", s.SourceAKeys},
		{"Extraction Pages", s.SourceBRecords},
		{"Extraction Names", s.SourceBNames},
		{"Extraction Keys", s.SourceBKeys},
		{"Exact Matches", s.ExactMatches},
		{"Fuzzy Matches", s.FuzzyMatches},
		{"Only in GEDCOM", s.OnlyInA},
		{"Only in Extraction", s.OnlyInB},
		{"Ambiguous Keys", s.AmbiguousKeys},
		{"Match %", s.MatchPercent},
		{"Coverage %", s.CoveragePercent},
		{"Unkeyed GEDCOM", s.UnkeyedA},
		{"Unkeyed Extraction", s.UnkeyedB},
		{"GEDCOM Charset", rep.Sources.GEDCOMCharset},
		{"Charset Lossy", strconv.FormatBool(rep.Sources.CharsetLossy)},
	} {
		row := summary.AddRow()
		row.AddCell().SetString(kv.label)
		setValue(row.AddCell(), kv.value)
	}

	for _, list := range []struct {
		name    string
		entries []model.MatchEntry
	}{
		{SheetExact, rep.ExactMatches},
		{SheetFuzzy, rep.FuzzyMatches},
	} {
		sheet, _ := f.AddSheet(list.name)
		addHeader(sheet, matchHeader)
		for _, m := range list.entries {
			row := sheet.AddRow()
			row.AddCell().SetString(m.SourceAName)
			row.AddCell().SetString(m.SourceBName)
			row.AddCell().SetString(m.Key)
			row.AddCell().SetFloat(m.Score)
			row.AddCell().SetString(m.Birth)
			row.AddCell().SetString(m.Death)
		}
	}

	// Unkeyed sheets are only written when they have entries.
	for _, list := range []struct {
		name     string
		entries  []model.Unmatched
		optional bool
	}{
		{SheetOnlyA, rep.OnlyInA, false},
		{SheetOnlyB, rep.OnlyInB, false},
		{SheetUnkeyedA, rep.UnkeyedA, true},
		{SheetUnkeyedB, rep.UnkeyedB, true},
	} {
		if list.optional && len(list.entries) == 0 {
			continue
		}
		sheet, _ := f.AddSheet(list.name)
		addHeader(sheet, unmatchedHeader)
		for _, u := range list.entries {
			row := sheet.AddRow()
			row.AddCell().SetString(u.Name)
			row.AddCell().SetString(u.Context)
			row.AddCell().SetString(u.Birth)
			row.AddCell().SetString(u.Death)
		}
	}

	pidSheet, _ := f.AddSheet(SheetPIDNames)
	addHeader(pidSheet, []string{"PID", "Names"})
	pids := make([]string, 0, len(rep.PIDNames))
	for pid := range rep.PIDNames {
		pids = append(pids, pid)
	}
	sort.Slice(pids, func(i, j int) bool { return model.CompareIDs(pids[i], pids[j]) < 0 })
	for _, pid := range pids {
		row := pidSheet.AddRow()
		row.AddCell().SetString(pid)
		row.AddCell().SetString(strings.Join(rep.PIDNames[pid], "; "))
	}

	return f
}

func addHeader(sheet *xlsx.Sheet, cols []string) {
	row := sheet.AddRow()
	for _, c := range cols {
		row.AddCell().SetString(c)
	}
}

func setValue(cell *xlsx.Cell, v any) {
	switch t := v.(type) {
	case int:
		cell.SetInt(t)
	case float64:
		cell.SetFloat(t)
	case string:
		cell.SetString(t)
	}
}
