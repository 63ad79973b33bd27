package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/kinship-cli/internal/db"
	"github.com/sells-group/kinship-cli/internal/model"
	"github.com/sells-group/kinship-cli/internal/resilience"
)

// PostgresConfig holds connection and pool tuning parameters.
type PostgresConfig struct {
	URL      string
	Schema   string
	MaxConns int32
	MinConns int32
	Retry    resilience.RetryConfig
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
	schema  string
	runs    string
	matches string
}

// newPostgresStore wraps an existing pool. Used by NewPostgres and tests.
func newPostgresStore(pool db.Pool, schema string, closeFn func()) *PostgresStore {
	return &PostgresStore{
		pool:    pool,
		closeFn: closeFn,
		schema:  schema,
		runs:    db.Qualify(schema, "runs"),
		matches: db.Qualify(schema, "run_matches"),
	}
}

// NewPostgres creates a PostgresStore, retrying the initial connection while
// the server reports transient failures.
func NewPostgres(ctx context.Context, cfg PostgresConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	pgxCfg.MaxConns = 4
	pgxCfg.MinConns = 1
	if cfg.MaxConns > 0 {
		pgxCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		pgxCfg.MinConns = cfg.MinConns
	}
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	retry := cfg.Retry
	if retry.OnRetry == nil {
		retry.OnRetry = resilience.RetryLogger("store", "postgres connect")
	}

	var pool *pgxpool.Pool
	err = resilience.Do(ctx, retry, func(ctx context.Context) error {
		p, err := pgxpool.NewWithConfig(ctx, pgxCfg)
		if err != nil {
			return eris.Wrap(err, "postgres: create pool")
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			return eris.Wrap(err, "postgres: ping")
		}
		pool = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	zap.L().With(zap.String("component", "store")).Debug("postgres connected",
		zap.String("schema", cfg.Schema),
		zap.Int32("max_conns", pgxCfg.MaxConns),
	)
	return newPostgresStore(pool, cfg.Schema, pool.Close), nil
}

const postgresTables = `
CREATE TABLE IF NOT EXISTS %[1]s (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	input      JSONB NOT NULL,
	status     TEXT NOT NULL DEFAULT 'running',
	summary    JSONB,
	report     JSONB,
	error      TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS %[2]s (
	run_id        TEXT NOT NULL REFERENCES %[1]s(id),
	position      INTEGER NOT NULL,
	kind          TEXT NOT NULL,
	source_a_name TEXT NOT NULL,
	source_b_name TEXT NOT NULL,
	match_key     TEXT NOT NULL,
	score         DOUBLE PRECISION NOT NULL,
	birth         TEXT NOT NULL DEFAULT '',
	death         TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (run_id, position)
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON %[1]s(status);
CREATE INDEX IF NOT EXISTS idx_run_matches_kind ON %[2]s(run_id, kind);
`

func (s *PostgresStore) migration() string {
	var b strings.Builder
	if s.schema != "" {
		fmt.Fprintf(&b, "CREATE SCHEMA IF NOT EXISTS %s;\n", pgx.Identifier{s.schema}.Sanitize())
	}
	fmt.Fprintf(&b, postgresTables, s.runs, s.matches)
	return b.String()
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, s.migration())
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, input model.RunInput) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	inputJSON, err := json.Marshal(input)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal input")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO `+s.runs+` (id, input, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		id, inputJSON, string(model.RunStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &model.Run{
		ID:        id,
		Input:     input,
		Status:    model.RunStatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// CompleteRun stores the report and bulk-loads its matches with COPY in one
// transaction.
func (s *PostgresStore) CompleteRun(ctx context.Context, runID string, report *model.Report) error {
	summaryJSON, err := json.Marshal(report.Summary)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal summary")
	}
	reportJSON, err := json.Marshal(report)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal report")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin complete run")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx,
		`UPDATE `+s.runs+` SET status = $1, summary = $2, report = $3, error = NULL, updated_at = $4 WHERE id = $5`,
		string(model.RunStatusComplete), summaryJSON, reportJSON, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "run %s", runID)
	}

	if _, err := db.CopyFrom(ctx, tx, s.matches, matchColumns, matchRows(runID, report)); err != nil {
		return eris.Wrapf(err, "postgres: copy matches for run %s", runID)
	}

	return eris.Wrap(tx.Commit(ctx), "postgres: commit complete run")
}

func (s *PostgresStore) FailRun(ctx context.Context, runID string, reason string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE `+s.runs+` SET status = $1, error = $2, updated_at = $3 WHERE id = $4`,
		string(model.RunStatusFailed), reason, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "run %s", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, input, status, summary, error, created_at, updated_at FROM `+s.runs+` WHERE id = $1`,
		runID,
	)
	r, err := scanPostgresRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "run %s", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	return r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, input, status, summary, error, created_at, updated_at FROM ` + s.runs + ` WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	query += ` ORDER BY created_at DESC, id`

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	runs := []model.Run{}
	for rows.Next() {
		r, err := scanPostgresRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func (s *PostgresStore) GetReport(ctx context.Context, runID string) (*model.Report, error) {
	var reportJSON *[]byte
	err := s.pool.QueryRow(ctx, `SELECT report FROM `+s.runs+` WHERE id = $1`, runID).Scan(&reportJSON)
	if errors.Is(err, pgx.ErrNoRows) || (err == nil && reportJSON == nil) {
		return nil, eris.Wrapf(ErrNotFound, "report for run %s", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get report %s", runID)
	}

	var rep model.Report
	if err := json.Unmarshal(*reportJSON, &rep); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal report")
	}
	return &rep, nil
}

func (s *PostgresStore) ListMatches(ctx context.Context, runID string, kind model.MatchKind) ([]model.MatchEntry, error) {
	query := `SELECT kind, source_a_name, source_b_name, match_key, score, birth, death FROM ` + s.matches + ` WHERE run_id = $1`
	args := []any{runID}
	if kind != "" {
		query += ` AND kind = $2`
		args = append(args, string(kind))
	}
	query += ` ORDER BY position`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list matches %s", runID)
	}
	defer rows.Close()

	matches := []model.MatchEntry{}
	for rows.Next() {
		var m model.MatchEntry
		var kindStr string
		if err := rows.Scan(&kindStr, &m.SourceAName, &m.SourceBName, &m.Key, &m.Score, &m.Birth, &m.Death); err != nil {
			return nil, eris.Wrap(err, "postgres: scan match")
		}
		m.Kind = model.MatchKind(kindStr)
		matches = append(matches, m)
	}
	return matches, eris.Wrap(rows.Err(), "postgres: list matches iterate")
}

func scanPostgresRun(row pgx.Row) (*model.Run, error) {
	var r model.Run
	var inputJSON []byte
	var summaryJSON *[]byte
	var errMsg *string
	var status string

	if err := row.Scan(&r.ID, &inputJSON, &status, &summaryJSON, &errMsg, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.Status = model.RunStatus(status)

	if err := json.Unmarshal(inputJSON, &r.Input); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal input")
	}
	if summaryJSON != nil {
		r.Summary = &model.Summary{}
		if err := json.Unmarshal(*summaryJSON, r.Summary); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal summary")
		}
	}
	if errMsg != nil {
		r.Error = *errMsg
	}
	return &r, nil
}
