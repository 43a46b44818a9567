// Package store persists the aggregated cross-revision table in SQLite.
//
// The aggregated table is the pipeline's only durable intermediate: raw
// source tables are expensive to reprocess, so each run's per-year rows are
// written here as they complete. The layout stage can then re-run against a
// stored run without touching raw sources. The store uses the pure Go
// SQLite driver, so a single file on disk is the whole database.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/causetree/causetree/pkg/errors"
	"github.com/causetree/causetree/pkg/table"
)

const schema = `
CREATE TABLE IF NOT EXISTS aggregated (
	run_id      TEXT    NOT NULL,
	year        INTEGER NOT NULL,
	age         TEXT    NOT NULL,
	category    TEXT    NOT NULL,
	description TEXT    NOT NULL,
	count       INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_aggregated_run_year ON aggregated (run_id, year);
`

// Store is a SQLite-backed archive of aggregated tables, grouped by run ID.
// A Store is safe for concurrent use.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if necessary) the store at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// SaveYear writes one year's rows for a run, replacing any rows previously
// stored for that run and year. The replace makes retries idempotent.
func (s *Store) SaveYear(ctx context.Context, runID string, year int, rows []table.AggregatedRow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM aggregated WHERE run_id = ? AND year = ?`, runID, year); err != nil {
		return fmt.Errorf("clear year %d: %w", year, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO aggregated (run_id, year, age, category, description, count) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, runID, r.Year, r.AgeBand, r.Category, r.Description, r.Count); err != nil {
			return fmt.Errorf("insert year %d: %w", year, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit year %d: %w", year, err)
	}
	return nil
}

// LoadRun reads back the full aggregated table of one run, sorted.
func (s *Store) LoadRun(ctx context.Context, runID string) ([]table.AggregatedRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT year, age, category, description, count FROM aggregated WHERE run_id = ?`, runID)
	if err != nil {
		return nil, fmt.Errorf("select run %s: %w", runID, err)
	}
	defer rows.Close()

	var out []table.AggregatedRow
	for rows.Next() {
		var r table.AggregatedRow
		if err := rows.Scan(&r.Year, &r.AgeBand, &r.Category, &r.Description, &r.Count); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run %s: %w", runID, err)
	}
	if len(out) == 0 {
		return nil, errors.New(errors.ErrCodeNotFound, "run %s has no stored rows", runID)
	}
	table.SortRows(out)
	return out, nil
}

// Years lists the years stored for a run, ascending.
func (s *Store) Years(ctx context.Context, runID string) ([]int, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT year FROM aggregated WHERE run_id = ? ORDER BY year`, runID)
	if err != nil {
		return nil, fmt.Errorf("select years: %w", err)
	}
	defer rows.Close()

	var years []int
	for rows.Next() {
		var y int
		if err := rows.Scan(&y); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		years = append(years, y)
	}
	return years, rows.Err()
}

// Runs lists every run ID present in the store.
func (s *Store) Runs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT run_id FROM aggregated ORDER BY run_id`)
	if err != nil {
		return nil, fmt.Errorf("select runs: %w", err)
	}
	defer rows.Close()

	var runs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		runs = append(runs, id)
	}
	return runs, rows.Err()
}

// DeleteRun removes all rows of one run.
func (s *Store) DeleteRun(ctx context.Context, runID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM aggregated WHERE run_id = ?`, runID); err != nil {
		return fmt.Errorf("delete run %s: %w", runID, err)
	}
	return nil
}
