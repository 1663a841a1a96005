// Package store persists completed plan runs to SQLite so past solves
// can be listed and compared from the CLI.
package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"coldplan/pkg/planning/rolling"
)

const schema = `
CREATE TABLE IF NOT EXISTS plan_runs (
	id                  TEXT PRIMARY KEY,
	created_at          TEXT NOT NULL,
	horizon_start       TEXT NOT NULL,
	horizon_end         TEXT NOT NULL,
	solver              TEXT NOT NULL,
	window_size_days    INTEGER NOT NULL,
	overlap_days        INTEGER NOT NULL,
	all_feasible        INTEGER NOT NULL,
	total_cost          TEXT NOT NULL,
	total_solve_seconds REAL NOT NULL,
	warning_count       INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS plan_run_windows (
	run_id        TEXT NOT NULL REFERENCES plan_runs(id),
	window_index  INTEGER NOT NULL,
	start         TEXT NOT NULL,
	end           TEXT NOT NULL,
	committed_end TEXT NOT NULL,
	feasible      INTEGER NOT NULL,
	termination   TEXT NOT NULL,
	objective     REAL NOT NULL,
	gap           REAL NOT NULL,
	solve_seconds REAL NOT NULL,
	PRIMARY KEY (run_id, window_index)
);
`

// Store wraps the SQLite plan-run archive.
type Store struct {
	db *sql.DB
}

// Open opens (and if needed initializes) the archive at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening plan store %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing plan store schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// RunSummary is one archived plan run.
type RunSummary struct {
	ID                string
	CreatedAt         time.Time
	HorizonStart      string
	HorizonEnd        string
	Solver            string
	WindowSizeDays    int
	OverlapDays       int
	AllFeasible       bool
	TotalCost         string
	TotalSolveSeconds float64
	WarningCount      int
}

// SaveRun archives a rolling-horizon result and returns the run ID.
func (s *Store) SaveRun(res *rolling.Result, cfg rolling.Config) (string, error) {
	id := uuid.NewString()
	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("starting plan store transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO plan_runs
		(id, created_at, horizon_start, horizon_end, solver, window_size_days,
		 overlap_days, all_feasible, total_cost, total_solve_seconds, warning_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		time.Now().UTC().Format(time.RFC3339),
		res.Start.Format("2006-01-02"),
		res.End.Format("2006-01-02"),
		cfg.Plan.SolverName,
		cfg.WindowSizeDays,
		cfg.OverlapDays,
		boolToInt(res.AllFeasible),
		res.TotalCost.String(),
		res.TotalSolveSeconds,
		len(res.Warnings),
	)
	if err != nil {
		return "", fmt.Errorf("inserting plan run: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO plan_run_windows
		(run_id, window_index, start, end, committed_end, feasible,
		 termination, objective, gap, solve_seconds)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("preparing window insert: %w", err)
	}
	defer stmt.Close()
	for _, w := range res.Windows {
		_, err := stmt.Exec(
			id,
			w.Window.Index,
			w.Window.Start.Format("2006-01-02"),
			w.Window.End.Format("2006-01-02"),
			w.Window.CommittedEnd.Format("2006-01-02"),
			boolToInt(w.Feasible),
			w.Termination,
			w.Objective,
			w.Gap,
			w.SolveSeconds,
		)
		if err != nil {
			return "", fmt.Errorf("inserting window %d: %w", w.Window.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("committing plan run: %w", err)
	}
	return id, nil
}

// ListRuns returns the most recent archived runs, newest first.
func (s *Store) ListRuns(limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(`SELECT id, created_at, horizon_start, horizon_end,
		solver, window_size_days, overlap_days, all_feasible, total_cost,
		total_solve_seconds, warning_count
		FROM plan_runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing plan runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		var createdAt string
		var feasible int
		if err := rows.Scan(&r.ID, &createdAt, &r.HorizonStart, &r.HorizonEnd,
			&r.Solver, &r.WindowSizeDays, &r.OverlapDays, &feasible,
			&r.TotalCost, &r.TotalSolveSeconds, &r.WarningCount); err != nil {
			return nil, fmt.Errorf("scanning plan run: %w", err)
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		r.AllFeasible = feasible != 0
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
