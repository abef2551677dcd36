package csvfile

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"currency-crisis-lab/internal/domain"
	"currency-crisis-lab/internal/storage"
)

var crisisHeader = []string{"date_gregorian", "close_price", "ret_close_close", "drawdown", "vol_intraday", "is_crisis"}

// CrisisDateStore reads and writes the crisis side table as a CSV file.
type CrisisDateStore struct {
	path string
}

// NewCrisisDateStore creates a CrisisDateStore backed by path.
func NewCrisisDateStore(path string) *CrisisDateStore {
	return &CrisisDateStore{path: path}
}

// Load reads all crisis dates. A missing file yields an empty slice.
func (s *CrisisDateStore) Load(_ context.Context) ([]domain.CrisisDate, error) {
	header, records, err := readAll(s.path)
	if errors.Is(err, storage.ErrNotFound) {
		return []domain.CrisisDate{}, nil
	}
	if err != nil {
		return nil, err
	}
	out := make([]domain.CrisisDate, 0, len(records))
	if header == nil {
		return out, nil
	}

	idx := indexHeader(header)
	if err := idx.require(s.path, crisisHeader...); err != nil {
		return nil, err
	}
	for i, rec := range records {
		d, err := parseCrisisRecord(idx, rec)
		if err != nil {
			return nil, fmt.Errorf("crisis row %d: %w", i+1, err)
		}
		out = append(out, d)
	}
	return out, nil
}

func parseCrisisRecord(idx headerIndex, rec []string) (domain.CrisisDate, error) {
	var d domain.CrisisDate
	var err error
	if d.Date, err = parseDate(idx.get(rec, "date_gregorian")); err != nil {
		return d, err
	}
	if d.Close, err = parseFloat(idx.get(rec, "close_price")); err != nil {
		return d, err
	}
	if d.Ret, err = parseFloat(idx.get(rec, "ret_close_close")); err != nil {
		return d, err
	}
	if d.Drawdown, err = parseFloat(idx.get(rec, "drawdown")); err != nil {
		return d, err
	}
	if d.IntradayRange, err = parseFloat(idx.get(rec, "vol_intraday")); err != nil {
		return d, err
	}
	d.IsCrisis, err = parseBool(idx.get(rec, "is_crisis"))
	return d, err
}

// ReplaceAll validates and writes dates atomically.
func (s *CrisisDateStore) ReplaceAll(_ context.Context, dates []domain.CrisisDate) error {
	if err := storage.ValidateCrisisDates(dates); err != nil {
		return err
	}
	rows := make([][]string, len(dates))
	for i, d := range dates {
		rows[i] = []string{
			d.Date.Format(domain.DateLayout),
			formatFloat(d.Close),
			formatFloat(d.Ret),
			formatFloat(d.Drawdown),
			formatFloat(d.IntradayRange),
			strconv.FormatBool(d.IsCrisis),
		}
	}
	return writeAtomic(s.path, crisisHeader, rows)
}

var _ storage.CrisisDateStore = (*CrisisDateStore)(nil)
