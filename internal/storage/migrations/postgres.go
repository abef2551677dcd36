package migrations

import (
	"context"
	"fmt"

	"currency-crisis-lab/internal/storage/postgres"
)

// RunPostgresMigrations applies embedded SQL files that are not yet recorded in
// schema_migrations, each in its own transaction together with its ledger row.
// Returns the names of the files applied by this call.
func RunPostgresMigrations(ctx context.Context, pool *postgres.Pool) ([]string, error) {
	files, err := readSQLFiles(PostgresFS, "postgres")
	if err != nil {
		return nil, err
	}

	if _, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			name       TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`); err != nil {
		return nil, fmt.Errorf("create schema_migrations: %w", err)
	}

	var applied []string
	for _, f := range files {
		var exists bool
		if err := pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE name = $1)`, f.Name).Scan(&exists); err != nil {
			return applied, fmt.Errorf("check migration %s: %w", f.Name, err)
		}
		if exists {
			continue
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return applied, fmt.Errorf("begin migration %s: %w", f.Name, err)
		}
		if _, err := tx.Exec(ctx, f.SQL); err != nil {
			tx.Rollback(ctx)
			return applied, fmt.Errorf("apply migration %s: %w", f.Name, err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (name) VALUES ($1)`, f.Name); err != nil {
			tx.Rollback(ctx)
			return applied, fmt.Errorf("record migration %s: %w", f.Name, err)
		}
		if err := tx.Commit(ctx); err != nil {
			return applied, fmt.Errorf("commit migration %s: %w", f.Name, err)
		}
		applied = append(applied, f.Name)
	}
	return applied, nil
}
