package clickhouse

import (
	"context"
	"fmt"

	"currency-crisis-lab/internal/domain"
	"currency-crisis-lab/internal/storage"
)

const derivedColumns = `
	date, open, high, low, close, change_amount, change_percent,
	ret, intraday_range, running_peak, drawdown,
	vol_7, vol_30, ma_7, ma_30, is_crisis
`

// DerivedSeriesStore implements storage.DerivedSeriesStore using ClickHouse.
// ReplaceAll loads derived_series_staging and swaps it with derived_series,
// so readers see either the old or the new series, never a mix.
type DerivedSeriesStore struct {
	conn *Conn
}

// NewDerivedSeriesStore creates a new DerivedSeriesStore.
func NewDerivedSeriesStore(conn *Conn) *DerivedSeriesStore {
	return &DerivedSeriesStore{conn: conn}
}

// Compile-time interface check.
var _ storage.DerivedSeriesStore = (*DerivedSeriesStore)(nil)

// ReplaceAll overwrites the persisted series.
func (s *DerivedSeriesStore) ReplaceAll(ctx context.Context, rows []domain.ClassifiedRow) error {
	if err := storage.ValidateDerived(rows); err != nil {
		return err
	}

	if err := s.conn.Exec(ctx, `TRUNCATE TABLE IF EXISTS derived_series_staging`); err != nil {
		return fmt.Errorf("truncate staging: %w", err)
	}

	if len(rows) > 0 {
		batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO derived_series_staging (`+derivedColumns+`)`)
		if err != nil {
			return fmt.Errorf("prepare batch: %w", err)
		}
		for _, r := range rows {
			// Nullable columns take *float64 directly.
			err = batch.Append(
				r.Date,
				r.Open, r.High, r.Low, r.Close, r.ChangeAmount, r.ChangePercent,
				r.Ret, r.IntradayRange, r.RunningPeak, r.Drawdown,
				r.Vol7, r.Vol30, r.MA7, r.MA30,
				boolToUint8(r.IsCrisis),
			)
			if err != nil {
				return fmt.Errorf("append to batch: %w", err)
			}
		}
		if err := batch.Send(); err != nil {
			return fmt.Errorf("send batch: %w", err)
		}
	}

	if err := s.conn.Exec(ctx, `EXCHANGE TABLES derived_series AND derived_series_staging`); err != nil {
		return fmt.Errorf("exchange tables: %w", err)
	}
	return nil
}

// Load returns the persisted series ordered by date ASC.
func (s *DerivedSeriesStore) Load(ctx context.Context) ([]domain.ClassifiedRow, error) {
	rows, err := s.conn.Query(ctx, `SELECT `+derivedColumns+` FROM derived_series ORDER BY date ASC`)
	if err != nil {
		return nil, fmt.Errorf("query derived series: %w", err)
	}
	defer rows.Close()

	return scanDerivedSeries(rows)
}

// Count returns the number of persisted rows.
func (s *DerivedSeriesStore) Count(ctx context.Context) (uint64, error) {
	var n uint64
	if err := s.conn.QueryRow(ctx, `SELECT count() FROM derived_series`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count derived series: %w", err)
	}
	return n, nil
}

func scanDerivedSeries(rows chRows) ([]domain.ClassifiedRow, error) {
	out := make([]domain.ClassifiedRow, 0)
	for rows.Next() {
		var r domain.ClassifiedRow
		var crisis uint8
		err := rows.Scan(
			&r.Date,
			&r.Open, &r.High, &r.Low, &r.Close, &r.ChangeAmount, &r.ChangePercent,
			&r.Ret, &r.IntradayRange, &r.RunningPeak, &r.Drawdown,
			&r.Vol7, &r.Vol30, &r.MA7, &r.MA30,
			&crisis,
		)
		if err != nil {
			return nil, fmt.Errorf("scan derived series row: %w", err)
		}
		r.Date = domain.Day(r.Date)
		r.IsCrisis = crisis == 1
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate derived series rows: %w", err)
	}
	return out, nil
}

func boolToUint8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
