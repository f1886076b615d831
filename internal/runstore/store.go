// Package runstore persists diagnostic runs and their per-expression
// summaries in SQLite so results can be compared across content revisions.
package runstore

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/expression-diagnostics/internal/analysis"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS diagnostic_runs (
	run_id        TEXT PRIMARY KEY,
	content_path  TEXT NOT NULL,
	seed          INTEGER NOT NULL,
	sample_count  INTEGER NOT NULL,
	created_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS expression_results (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id            TEXT NOT NULL,
	expression_id     TEXT NOT NULL,
	trigger_rate      REAL NOT NULL,
	trigger_count     INTEGER NOT NULL,
	sample_count      INTEGER NOT NULL,
	tier              TEXT NOT NULL,
	unreachable_count INTEGER NOT NULL,
	witness_found     INTEGER NOT NULL,
	primary_edit      TEXT,
	report_md         TEXT NOT NULL,
	FOREIGN KEY (run_id) REFERENCES diagnostic_runs(run_id)
);

CREATE INDEX IF NOT EXISTS idx_expression_results_run ON expression_results(run_id);
`

// #endregion schema

// #region store-struct
// Store manages recorded runs in SQLite.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// #endregion constructor

// #region from-results
// FromResults summarizes analysis results into an unsaved Run.
func FromResults(contentPath string, seed uint64, sampleCount int, results []analysis.Result) Run {
	run := Run{
		ContentPath:     contentPath,
		Seed:            seed,
		SampleCount:     sampleCount,
		ExpressionCount: len(results),
		Expressions:     make([]ExpressionRecord, 0, len(results)),
	}
	for _, r := range results {
		rec := ExpressionRecord{
			ExpressionID:     r.ExpressionID,
			TriggerRate:      r.TriggerRate,
			TriggerCount:     r.Simulation.TriggerCount,
			SampleCount:      r.Simulation.SampleCount,
			Tier:             string(r.Tier),
			UnreachableCount: len(r.Unreachable),
			WitnessFound:     r.Witness.Found,
			Report:           strings.Join(r.Report, "\n"),
		}
		if p := r.EditSet.PrimaryRecommendation; p != nil {
			rec.PrimaryEdit = p.Description
		}
		run.Expressions = append(run.Expressions, rec)
	}
	return run
}

// #endregion from-results

// #region record-run
// RecordRun stores run and its expressions in one transaction. A missing
// RunID or CreatedAt is filled in; the stored run is returned.
func (s *Store) RecordRun(run Run) (Run, error) {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	run.ExpressionCount = len(run.Expressions)

	tx, err := s.db.Begin()
	if err != nil {
		return Run{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO diagnostic_runs (run_id, content_path, seed, sample_count, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		run.RunID, run.ContentPath, int64(run.Seed), run.SampleCount,
		run.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}

	for _, e := range run.Expressions {
		var editPtr interface{}
		if e.PrimaryEdit != "" {
			editPtr = e.PrimaryEdit
		}
		_, err = tx.Exec(
			`INSERT INTO expression_results (run_id, expression_id, trigger_rate, trigger_count,
			 sample_count, tier, unreachable_count, witness_found, primary_edit, report_md)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			run.RunID, e.ExpressionID, e.TriggerRate, e.TriggerCount,
			e.SampleCount, e.Tier, e.UnreachableCount, e.WitnessFound, editPtr, e.Report,
		)
		if err != nil {
			return Run{}, fmt.Errorf("insert expression %s: %w", e.ExpressionID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("commit: %w", err)
	}
	return run, nil
}

// #endregion record-run

// #region list-runs
// ListRuns returns the most recent runs, newest first, without expressions.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	rows, err := s.db.Query(
		`SELECT r.run_id, r.content_path, r.seed, r.sample_count, r.created_at,
		        (SELECT COUNT(*) FROM expression_results e WHERE e.run_id = r.run_id)
		 FROM diagnostic_runs r ORDER BY r.created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var seed int64
		var createdStr string
		if err := rows.Scan(&run.RunID, &run.ContentPath, &seed, &run.SampleCount, &createdStr, &run.ExpressionCount); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		run.Seed = uint64(seed)
		run.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// #endregion list-runs

// #region get-run
// GetRun retrieves a run with all of its expression records.
func (s *Store) GetRun(id string) (Run, error) {
	var run Run
	var seed int64
	var createdStr string
	err := s.db.QueryRow(
		`SELECT run_id, content_path, seed, sample_count, created_at
		 FROM diagnostic_runs WHERE run_id = ?`, id,
	).Scan(&run.RunID, &run.ContentPath, &seed, &run.SampleCount, &createdStr)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("get run %s: %w", id, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run %s: %w", id, err)
	}
	run.Seed = uint64(seed)
	run.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)

	rows, err := s.db.Query(
		`SELECT expression_id, trigger_rate, trigger_count, sample_count, tier,
		        unreachable_count, witness_found, primary_edit, report_md
		 FROM expression_results WHERE run_id = ? ORDER BY id`, id,
	)
	if err != nil {
		return Run{}, fmt.Errorf("get expressions %s: %w", id, err)
	}
	defer rows.Close()

	for rows.Next() {
		var e ExpressionRecord
		var edit sql.NullString
		if err := rows.Scan(&e.ExpressionID, &e.TriggerRate, &e.TriggerCount, &e.SampleCount, &e.Tier,
			&e.UnreachableCount, &e.WitnessFound, &edit, &e.Report); err != nil {
			return Run{}, fmt.Errorf("scan row: %w", err)
		}
		if edit.Valid {
			e.PrimaryEdit = edit.String
		}
		run.Expressions = append(run.Expressions, e)
	}
	if err := rows.Err(); err != nil {
		return Run{}, err
	}
	run.ExpressionCount = len(run.Expressions)
	return run, nil
}

// #endregion get-run
