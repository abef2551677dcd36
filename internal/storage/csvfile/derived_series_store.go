package csvfile

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"currency-crisis-lab/internal/domain"
	"currency-crisis-lab/internal/storage"
)

var derivedHeader = []string{
	"date", "open", "high", "low", "close", "change_amount", "change_percent",
	"ret", "intraday_range", "running_peak", "drawdown",
	"vol_7", "vol_30", "ma_7", "ma_30", "is_crisis",
}

// DerivedSeriesStore writes the classified derived table as a CSV export.
type DerivedSeriesStore struct {
	path string
}

// NewDerivedSeriesStore creates a DerivedSeriesStore backed by path.
func NewDerivedSeriesStore(path string) *DerivedSeriesStore {
	return &DerivedSeriesStore{path: path}
}

// DerivedRecord renders a row in derivedHeader order.
func DerivedRecord(r domain.ClassifiedRow) []string {
	return []string{
		r.DateKey(),
		formatFloat(r.Open), formatFloat(r.High), formatFloat(r.Low), formatFloat(r.Close),
		formatFloat(r.ChangeAmount), formatFloat(r.ChangePercent),
		formatFloat(r.Ret), formatFloat(r.IntradayRange), formatFloat(r.RunningPeak), formatFloat(r.Drawdown),
		formatFloat(r.Vol7), formatFloat(r.Vol30), formatFloat(r.MA7), formatFloat(r.MA30),
		strconv.FormatBool(r.IsCrisis),
	}
}

// DerivedHeader returns the column names of the derived export.
func DerivedHeader() []string {
	return append([]string(nil), derivedHeader...)
}

// ReplaceAll writes rows atomically.
func (s *DerivedSeriesStore) ReplaceAll(_ context.Context, rows []domain.ClassifiedRow) error {
	if err := storage.ValidateDerived(rows); err != nil {
		return err
	}
	records := make([][]string, len(rows))
	for i, r := range rows {
		records[i] = DerivedRecord(r)
	}
	return writeAtomic(s.path, derivedHeader, records)
}

// Load reads the export back. A missing file yields an empty slice.
func (s *DerivedSeriesStore) Load(_ context.Context) ([]domain.ClassifiedRow, error) {
	header, records, err := readAll(s.path)
	if errors.Is(err, storage.ErrNotFound) {
		return []domain.ClassifiedRow{}, nil
	}
	if err != nil {
		return nil, err
	}
	out := make([]domain.ClassifiedRow, 0, len(records))
	if header == nil {
		return out, nil
	}

	idx := indexHeader(header)
	if err := idx.require(s.path, derivedHeader...); err != nil {
		return nil, err
	}
	for i, rec := range records {
		row, err := parseDerivedRecord(idx, rec)
		if err != nil {
			return nil, fmt.Errorf("derived row %d: %w", i+1, err)
		}
		out = append(out, row)
	}
	return out, nil
}

func parseDerivedRecord(idx headerIndex, rec []string) (domain.ClassifiedRow, error) {
	var r domain.ClassifiedRow
	var err error
	if r.Date, err = parseDate(idx.get(rec, "date")); err != nil {
		return r, err
	}
	fields := []struct {
		col string
		dst **float64
	}{
		{"open", &r.Open}, {"high", &r.High}, {"low", &r.Low}, {"close", &r.Close},
		{"change_amount", &r.ChangeAmount}, {"change_percent", &r.ChangePercent},
		{"ret", &r.Ret}, {"intraday_range", &r.IntradayRange},
		{"running_peak", &r.RunningPeak}, {"drawdown", &r.Drawdown},
		{"vol_7", &r.Vol7}, {"vol_30", &r.Vol30}, {"ma_7", &r.MA7}, {"ma_30", &r.MA30},
	}
	for _, f := range fields {
		v, err := parseFloat(idx.get(rec, f.col))
		if err != nil {
			return r, fmt.Errorf("%s: %w", f.col, err)
		}
		*f.dst = v
	}
	r.IsCrisis, err = parseBool(idx.get(rec, "is_crisis"))
	return r, err
}

var _ storage.DerivedSeriesStore = (*DerivedSeriesStore)(nil)
