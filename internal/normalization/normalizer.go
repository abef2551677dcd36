package normalization

import (
	"errors"

	"currency-crisis-lab/internal/domain"
)

// NormalizeResult is the canonical price table plus parse accounting.
type NormalizeResult struct {
	Rows               []domain.PriceRow // ascending by date, unique dates
	RowsRead           int
	RowsDropped        int // rows without a usable Gregorian date
	DuplicatesResolved int // earlier rows replaced by a later row with the same date
	ParseErrors        []*domain.ParseError
}

// Normalize converts a raw price table into a sorted, deduplicated PriceRow sequence.
//
// Rules:
//   - a missing required column fails the whole table with SchemaError
//   - a row with an unparseable Gregorian date is dropped
//   - an unparseable numeric field becomes nil and is recorded as a ParseError
//   - duplicate dates keep the last-seen row
func Normalize(table *domain.RawTable) (*NormalizeResult, error) {
	cols, err := resolveColumns(table)
	if err != nil {
		return nil, err
	}

	result := &NormalizeResult{RowsRead: len(table.Records)}
	rows := make([]domain.PriceRow, 0, len(table.Records))

	for i, record := range table.Records {
		rawDate := cols.field(record, ColDateGregorian)
		date, err := ParseGregorianDate(rawDate)
		if err != nil {
			result.RowsDropped++
			result.ParseErrors = append(result.ParseErrors, parseError(i, ColDateGregorian, rawDate, err))
			continue
		}

		row := domain.PriceRow{Date: date}
		row.Open = result.number(i, cols, record, ColOpen)
		row.High = result.number(i, cols, record, ColHigh)
		row.Low = result.number(i, cols, record, ColLow)
		row.Close = result.number(i, cols, record, ColClose)
		row.ChangeAmount = result.number(i, cols, record, ColChangeAmount)

		rawPct := cols.field(record, ColChangePercent)
		if v, err := ParsePercent(rawPct); err == nil {
			row.ChangePercent = &v
		} else if !errors.Is(err, errEmpty) {
			result.ParseErrors = append(result.ParseErrors, parseError(i, ColChangePercent, rawPct, err))
		}

		rawPersian := cols.field(record, ColDatePersian)
		if d, err := ParseJalaliDate(rawPersian); err == nil {
			row.DatePersian = d
		} else if !errors.Is(err, errEmpty) {
			result.ParseErrors = append(result.ParseErrors, parseError(i, ColDatePersian, rawPersian, err))
		}

		rows = append(rows, row)
	}

	result.Rows, result.DuplicatesResolved = SortAndDedup(rows)
	return result, nil
}

// number parses a numeric column, recording a ParseError on failure.
func (r *NormalizeResult) number(i int, cols columnIndex, record []string, col string) *float64 {
	raw := cols.field(record, col)
	v, err := ParseNumber(raw)
	if err != nil {
		if !errors.Is(err, errEmpty) {
			r.ParseErrors = append(r.ParseErrors, parseError(i, col, raw, err))
		}
		return nil
	}
	return &v
}

func parseError(row int, field, value string, err error) *domain.ParseError {
	return &domain.ParseError{Row: row, Field: field, Value: value, Err: err}
}
