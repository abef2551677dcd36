// Package sqlite implements the storage interfaces on a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database shared by the stores of this package.
type DB struct {
	db *sql.DB
}

// Open opens or creates the SQLite database at path and ensures the schema.
// ":memory:" opens a private in-memory database.
func Open(path string) (*DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1) // single writer; WAL allows concurrent readers
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	d := &DB{db: db}
	if err := d.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return d, nil
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS price_header (
			position INTEGER PRIMARY KEY,
			name     TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS price_records (
			seq    INTEGER PRIMARY KEY,
			fields TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS news (
			seq    INTEGER PRIMARY KEY,
			date   TEXT NOT NULL,
			title  TEXT NOT NULL,
			url    TEXT NOT NULL DEFAULT '',
			source TEXT NOT NULL DEFAULT '',
			UNIQUE (date, title)
		)`,
		`CREATE TABLE IF NOT EXISTS crisis_dates (
			date_gregorian  TEXT PRIMARY KEY,
			close_price     REAL,
			ret_close_close REAL,
			drawdown        REAL,
			vol_intraday    REAL,
			is_crisis       INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS reconcile_runs (
			run_id          TEXT PRIMARY KEY,
			started_at      INTEGER NOT NULL,
			finished_at     INTEGER NOT NULL,
			last_price_date TEXT NOT NULL DEFAULT '',
			crisis_days     INTEGER NOT NULL,
			fetch_successes INTEGER NOT NULL,
			fetch_failures  INTEGER NOT NULL,
			headlines_added INTEGER NOT NULL,
			exit_code       INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reconcile_runs_finished ON reconcile_runs(finished_at)`,
	}
	for _, stmt := range stmts {
		if _, err := d.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// replace runs fn inside a transaction; nothing is visible unless it commits.
func (d *DB) replace(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a SQLite UNIQUE or PRIMARY KEY constraint failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
