package domain

import "time"

// RawTable is an untyped tabular input as read from a store.
// Header names are free-form; the normalizer resolves them to canonical columns.
type RawTable struct {
	Name    string     // logical table name, used as cache scope
	Header  []string   // column names in source order
	Records [][]string // one slice per row, may be shorter than Header
}

// JalaliDate is a Persian calendar date carried for display only.
type JalaliDate struct {
	Year  int
	Month int
	Day   int
}

// PriceRow is one calendar day of OHLC data after normalization.
// Numeric fields are nil when the source value was missing or unparseable.
type PriceRow struct {
	Date          time.Time   // Gregorian date, UTC midnight, unique per table
	Open          *float64    // opening price
	High          *float64    // daily high
	Low           *float64    // daily low
	Close         *float64    // closing price
	ChangeAmount  *float64    // signed change vs previous close, as reported
	ChangePercent *float64    // signed fractional change, "-5.20%" -> -0.052
	DatePersian   *JalaliDate // source Persian date, not used for ordering
}

// DateKey returns the row date formatted as YYYY-MM-DD.
func (r PriceRow) DateKey() string {
	return r.Date.Format(DateLayout)
}

// DateLayout is the canonical date format for persisted tables.
const DateLayout = "2006-01-02"

// Day truncates t to its UTC calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
