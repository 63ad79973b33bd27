package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/kinship-cli/internal/config"
	"github.com/sells-group/kinship-cli/internal/model"
)

func TestApplyReconcileFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "reconcile"}
	addReconcileFlags(cmd)
	require.NoError(t, cmd.ParseFlags([]string{
		"--gedcom", "a.ged",
		"--extraction", "b.json",
		"--threshold", "0.85",
		"--strategy", "best_first",
		"--workers", "4",
		"--out", "out.xlsx",
	}))

	c := &config.Config{}
	c.Sources.RelationPolicy = "owner_is_child"
	c.Export.Format = "yaml"
	require.NoError(t, applyReconcileFlags(cmd, c))

	assert.Equal(t, "a.ged", c.Sources.GEDCOMPath)
	assert.Equal(t, "b.json", c.Sources.ExtractionPath)
	assert.InDelta(t, 0.85, c.Match.FuzzyThreshold, 0.0001)
	assert.Equal(t, "best_first", c.Match.Strategy)
	assert.Equal(t, 4, c.Match.Workers)
	assert.Equal(t, "out.xlsx", c.Export.Path)
	// Unset flags keep config values.
	assert.Equal(t, "owner_is_child", c.Sources.RelationPolicy)
	assert.Equal(t, "yaml", c.Export.Format)
}

func TestMatchOptions(t *testing.T) {
	opts := matchOptions(config.MatchConfig{ExactThreshold: 1, FuzzyThreshold: 0.6, Strategy: "greedy", Workers: 2})
	assert.InDelta(t, 1.0, opts.ExactThreshold, 0.0001)
	assert.InDelta(t, 0.6, opts.FuzzyThreshold, 0.0001)
	assert.Equal(t, "greedy", opts.Strategy)
	assert.Equal(t, 2, opts.Workers)
}

func TestFormatSummary(t *testing.T) {
	rep := &model.Report{
		RunID: "run-1",
		Summary: model.Summary{
			SourceARecords: 4, SourceAKeys: 4, SourceBNames: 3, SourceBKeys: 3,
			ExactMatches: 1, FuzzyMatches: 1, OnlyInA: 2, OnlyInB: 1,
			MatchPercent: 25, CoveragePercent: 50,
		},
	}

	var buf bytes.Buffer
	formatSummary(&buf, rep)

	out := buf.String()
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "25.00%")
	assert.Contains(t, out, "50.00%")
	assert.NotContains(t, out, "Ambiguous")
}

const cmdGEDCOM = `0 HEAD
1 CHAR UTF-8
0 @I1@ INDI
1 NAME Ibrahim /Manik/
0 @I2@ INDI
1 NAME John /Doe/
0 TRLR
`

const cmdDump = `{"people": {"1": {"pid": 1, "name": "Ibrahim Manik", "children": [{"name": "Doe, John", "pid": 2}]}}}`

func TestReconcileCommand_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck

	require.NoError(t, os.WriteFile("family.ged", []byte(cmdGEDCOM), 0o600))
	require.NoError(t, os.WriteFile("dump.json", []byte(cmdDump), 0o600))
	out := filepath.Join(dir, "reports", "report.json")

	rootCmd.SetArgs([]string{
		"reconcile",
		"--gedcom", "family.ged",
		"--extraction", "dump.json",
		"--out", out,
		"--no-store",
	})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	var rep model.Report
	require.NoError(t, json.Unmarshal(data, &rep))
	assert.Empty(t, rep.RunID)
	require.Len(t, rep.ExactMatches, 1)
	assert.Equal(t, "John Doe", rep.ExactMatches[0].SourceAName)
	assert.Equal(t, "Doe, John", rep.ExactMatches[0].SourceBName)
	require.Len(t, rep.OnlyInA, 1)
	assert.Equal(t, "Ibrahim Manik", rep.OnlyInA[0].Name)
	assert.InDelta(t, 50.0, rep.Summary.MatchPercent, 0.001)
	assert.NoFileExists(t, filepath.Join(dir, "kinship.db"))
}
