// Package store persists reconciliation runs and their matches.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/kinship-cli/internal/model"
)

var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*PostgresStore)(nil)
	_ Store = (*ReportCache)(nil)
)

// ErrNotFound is returned when a run (or its report) does not exist.
var ErrNotFound = eris.New("store: not found")

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// defaultListLimit applies when RunFilter.Limit is not positive.
const defaultListLimit = 100

// matchColumns is the column order of run_matches rows.
var matchColumns = []string{
	"run_id", "position", "kind", "source_a_name", "source_b_name", "match_key", "score", "birth", "death",
}

// Store defines the persistence interface for reconciliation runs.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, input model.RunInput) (*model.Run, error)
	CompleteRun(ctx context.Context, runID string, report *model.Report) error
	FailRun(ctx context.Context, runID string, reason string) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Results
	GetReport(ctx context.Context, runID string) (*model.Report, error)
	ListMatches(ctx context.Context, runID string, kind model.MatchKind) ([]model.MatchEntry, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// matchRows flattens a report's match lists into run_matches rows. Exact
// matches come first, each list in report order.
func matchRows(runID string, report *model.Report) [][]any {
	rows := make([][]any, 0, len(report.ExactMatches)+len(report.FuzzyMatches))
	for _, list := range [][]model.MatchEntry{report.ExactMatches, report.FuzzyMatches} {
		for _, m := range list {
			rows = append(rows, []any{
				runID, len(rows), string(m.Kind), m.SourceAName, m.SourceBName, m.Key, m.Score, m.Birth, m.Death,
			})
		}
	}
	return rows
}
