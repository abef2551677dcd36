package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"currency-crisis-lab/internal/domain"
	"currency-crisis-lab/internal/storage"
)

// CrisisDateStore implements storage.CrisisDateStore using PostgreSQL.
type CrisisDateStore struct {
	pool *Pool
}

// NewCrisisDateStore creates a new CrisisDateStore.
func NewCrisisDateStore(pool *Pool) *CrisisDateStore {
	return &CrisisDateStore{pool: pool}
}

// Compile-time interface check.
var _ storage.CrisisDateStore = (*CrisisDateStore)(nil)

// Load returns all crisis dates ordered by date.
func (s *CrisisDateStore) Load(ctx context.Context) ([]domain.CrisisDate, error) {
	query := `
		SELECT date_gregorian, close_price, ret_close_close, drawdown, vol_intraday, is_crisis
		FROM crisis_dates
		ORDER BY date_gregorian ASC
	`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query crisis dates: %w", err)
	}
	defer rows.Close()

	out := make([]domain.CrisisDate, 0)
	for rows.Next() {
		var d domain.CrisisDate
		if err := rows.Scan(&d.Date, &d.Close, &d.Ret, &d.Drawdown, &d.IntradayRange, &d.IsCrisis); err != nil {
			return nil, fmt.Errorf("scan crisis date: %w", err)
		}
		d.Date = domain.Day(d.Date)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate crisis dates: %w", err)
	}
	return out, nil
}

// ReplaceAll overwrites the crisis side table in one transaction.
func (s *CrisisDateStore) ReplaceAll(ctx context.Context, dates []domain.CrisisDate) error {
	if err := storage.ValidateCrisisDates(dates); err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM crisis_dates`); err != nil {
		return fmt.Errorf("clear crisis dates: %w", err)
	}

	rows := make([][]any, len(dates))
	for i, d := range dates {
		rows[i] = []any{d.Date, d.Close, d.Ret, d.Drawdown, d.IntradayRange, d.IsCrisis}
	}
	cols := []string{"date_gregorian", "close_price", "ret_close_close", "drawdown", "vol_intraday", "is_crisis"}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"crisis_dates"}, cols, pgx.CopyFromRows(rows)); err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("copy crisis dates: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
