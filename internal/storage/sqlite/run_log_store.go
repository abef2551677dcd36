package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"currency-crisis-lab/internal/domain"
	"currency-crisis-lab/internal/storage"
)

// RunLogStore implements storage.RunLogStore using SQLite.
type RunLogStore struct {
	db *DB
}

// NewRunLogStore creates a new RunLogStore.
func NewRunLogStore(db *DB) *RunLogStore {
	return &RunLogStore{db: db}
}

var _ storage.RunLogStore = (*RunLogStore)(nil)

// Append records a run. Returns ErrDuplicateKey if run_id exists.
func (s *RunLogStore) Append(ctx context.Context, r *storage.RunRecord) error {
	if r == nil || r.RunID == uuid.Nil {
		return storage.ErrInvalidInput
	}
	lastPrice := ""
	if !r.LastPriceDate.IsZero() {
		lastPrice = r.LastPriceDate.Format(domain.DateLayout)
	}
	_, err := s.db.db.ExecContext(ctx, `
		INSERT INTO reconcile_runs (
			run_id, started_at, finished_at, last_price_date, crisis_days,
			fetch_successes, fetch_failures, headlines_added, exit_code
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID.String(), r.StartedAt.UnixNano(), r.FinishedAt.UnixNano(), lastPrice, r.CrisisDays,
		r.FetchSuccesses, r.FetchFailures, r.HeadlinesAdded, r.ExitCode,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Last returns the most recently finished run. Returns ErrNotFound if none.
func (s *RunLogStore) Last(ctx context.Context) (*storage.RunRecord, error) {
	row := s.db.db.QueryRowContext(ctx, `
		SELECT run_id, started_at, finished_at, last_price_date, crisis_days,
			fetch_successes, fetch_failures, headlines_added, exit_code
		FROM reconcile_runs
		ORDER BY finished_at DESC
		LIMIT 1`)

	var id, lastPrice string
	var started, finished int64
	r := &storage.RunRecord{}
	err := row.Scan(&id, &started, &finished, &lastPrice, &r.CrisisDays,
		&r.FetchSuccesses, &r.FetchFailures, &r.HeadlinesAdded, &r.ExitCode)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("query last run: %w", err)
	}
	if r.RunID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse run id: %w", err)
	}
	r.StartedAt = time.Unix(0, started).UTC()
	r.FinishedAt = time.Unix(0, finished).UTC()
	if lastPrice != "" {
		if r.LastPriceDate, err = time.Parse(domain.DateLayout, lastPrice); err != nil {
			return nil, fmt.Errorf("parse last price date: %w", err)
		}
	}
	return r, nil
}
