package lookup

import (
	"errors"
	"sort"
	"time"

	"currency-crisis-lab/internal/domain"
)

// Errors returned by lookup functions.
var (
	ErrNoData      = errors.New("no data available")
	ErrBeforeStart = errors.New("target is before the first row")
	ErrEmptyRange  = errors.New("from is after to")
)

// RowAt returns the row at or before target (the latest known day).
// Rows must be ascending by date.
// Returns ErrNoData if rows is empty and ErrBeforeStart if target precedes the first row.
func RowAt(target time.Time, rows []domain.ClassifiedRow) (domain.ClassifiedRow, error) {
	if len(rows) == 0 {
		return domain.ClassifiedRow{}, ErrNoData
	}
	target = domain.Day(target)

	// First index with date > target.
	i := sort.Search(len(rows), func(i int) bool { return rows[i].Date.After(target) })
	if i == 0 {
		return domain.ClassifiedRow{}, ErrBeforeStart
	}
	return rows[i-1], nil
}

// Range returns the sub-slice of rows with from <= date <= to.
// A zero from or to leaves that side unbounded. The result shares the backing
// array with rows and must not be modified.
func Range(rows []domain.ClassifiedRow, from, to time.Time) ([]domain.ClassifiedRow, error) {
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return nil, ErrEmptyRange
	}
	start := 0
	if !from.IsZero() {
		f := domain.Day(from)
		start = sort.Search(len(rows), func(i int) bool { return !rows[i].Date.Before(f) })
	}
	end := len(rows)
	if !to.IsZero() {
		t := domain.Day(to)
		end = sort.Search(len(rows), func(i int) bool { return rows[i].Date.After(t) })
	}
	if start >= end {
		return nil, nil
	}
	return rows[start:end:end], nil
}

// Last returns the final row.
func Last(rows []domain.ClassifiedRow) (domain.ClassifiedRow, error) {
	if len(rows) == 0 {
		return domain.ClassifiedRow{}, ErrNoData
	}
	return rows[len(rows)-1], nil
}
