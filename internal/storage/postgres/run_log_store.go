package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"currency-crisis-lab/internal/domain"
	"currency-crisis-lab/internal/storage"
)

// RunLogStore implements storage.RunLogStore using PostgreSQL.
type RunLogStore struct {
	pool *Pool
}

// NewRunLogStore creates a new RunLogStore.
func NewRunLogStore(pool *Pool) *RunLogStore {
	return &RunLogStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RunLogStore = (*RunLogStore)(nil)

// Append records a run. Returns ErrDuplicateKey if run_id exists.
func (s *RunLogStore) Append(ctx context.Context, r *storage.RunRecord) error {
	if r == nil || r.RunID == uuid.Nil {
		return storage.ErrInvalidInput
	}
	var lastPrice *time.Time
	if !r.LastPriceDate.IsZero() {
		d := r.LastPriceDate
		lastPrice = &d
	}

	query := `
		INSERT INTO reconcile_runs (
			run_id, started_at, finished_at, last_price_date, crisis_days,
			fetch_successes, fetch_failures, headlines_added, exit_code
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.pool.Exec(ctx, query,
		r.RunID.String(),
		r.StartedAt,
		r.FinishedAt,
		lastPrice,
		r.CrisisDays,
		r.FetchSuccesses,
		r.FetchFailures,
		r.HeadlinesAdded,
		r.ExitCode,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Last returns the most recently finished run. Returns ErrNotFound if none.
func (s *RunLogStore) Last(ctx context.Context) (*storage.RunRecord, error) {
	query := `
		SELECT run_id::text, started_at, finished_at, last_price_date, crisis_days,
			fetch_successes, fetch_failures, headlines_added, exit_code
		FROM reconcile_runs
		ORDER BY finished_at DESC
		LIMIT 1
	`
	var id string
	var lastPrice *time.Time
	r := &storage.RunRecord{}
	err := s.pool.QueryRow(ctx, query).Scan(
		&id, &r.StartedAt, &r.FinishedAt, &lastPrice, &r.CrisisDays,
		&r.FetchSuccesses, &r.FetchFailures, &r.HeadlinesAdded, &r.ExitCode,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("query last run: %w", err)
	}
	if r.RunID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("parse run id: %w", err)
	}
	if lastPrice != nil {
		r.LastPriceDate = domain.Day(*lastPrice)
	}
	return r, nil
}
