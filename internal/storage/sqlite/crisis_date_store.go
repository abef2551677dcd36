package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"currency-crisis-lab/internal/domain"
	"currency-crisis-lab/internal/storage"
)

// CrisisDateStore implements storage.CrisisDateStore using SQLite.
type CrisisDateStore struct {
	db *DB
}

// NewCrisisDateStore creates a new CrisisDateStore.
func NewCrisisDateStore(db *DB) *CrisisDateStore {
	return &CrisisDateStore{db: db}
}

var _ storage.CrisisDateStore = (*CrisisDateStore)(nil)

// Load returns all crisis dates ordered by date.
func (s *CrisisDateStore) Load(ctx context.Context) ([]domain.CrisisDate, error) {
	rows, err := s.db.db.QueryContext(ctx, `
		SELECT date_gregorian, close_price, ret_close_close, drawdown, vol_intraday, is_crisis
		FROM crisis_dates
		ORDER BY date_gregorian`)
	if err != nil {
		return nil, fmt.Errorf("query crisis dates: %w", err)
	}
	defer rows.Close()

	out := make([]domain.CrisisDate, 0)
	for rows.Next() {
		var date string
		var closeP, ret, dd, rng sql.NullFloat64
		var d domain.CrisisDate
		if err := rows.Scan(&date, &closeP, &ret, &dd, &rng, &d.IsCrisis); err != nil {
			return nil, fmt.Errorf("scan crisis date: %w", err)
		}
		if d.Date, err = time.Parse(domain.DateLayout, date); err != nil {
			return nil, fmt.Errorf("parse crisis date %q: %w", date, err)
		}
		d.Close, d.Ret, d.Drawdown, d.IntradayRange = floatPtr(closeP), floatPtr(ret), floatPtr(dd), floatPtr(rng)
		out = append(out, d)
	}
	return out, rows.Err()
}

// ReplaceAll overwrites the crisis side table in one transaction.
func (s *CrisisDateStore) ReplaceAll(ctx context.Context, dates []domain.CrisisDate) error {
	if err := storage.ValidateCrisisDates(dates); err != nil {
		return err
	}
	return s.db.replace(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM crisis_dates`); err != nil {
			return fmt.Errorf("clear crisis dates: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO crisis_dates (date_gregorian, close_price, ret_close_close, drawdown, vol_intraday, is_crisis)
			VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare crisis insert: %w", err)
		}
		defer stmt.Close()
		for _, d := range dates {
			_, err := stmt.ExecContext(ctx,
				d.Date.Format(domain.DateLayout),
				nullFloat(d.Close), nullFloat(d.Ret), nullFloat(d.Drawdown), nullFloat(d.IntradayRange),
				d.IsCrisis,
			)
			if err != nil {
				if isUniqueViolation(err) {
					return storage.ErrDuplicateKey
				}
				return fmt.Errorf("insert crisis date: %w", err)
			}
		}
		return nil
	})
}
