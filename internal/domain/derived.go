package domain

import "time"

// Rolling window sizes used by the classifier and reports.
const (
	ShortWindow = 7
	LongWindow  = 30
)

// DerivedRow is a PriceRow plus the series computed from the full ordered history.
// Rows are immutable once produced; a rebuild always starts again from PriceRow.
type DerivedRow struct {
	PriceRow
	Ret           *float64 // close[i]/close[i-1] - 1, NULL for first row or missing close
	IntradayRange *float64 // (high - low) / open, NULL if open is zero or missing
	RunningPeak   *float64 // max close so far, carried forward over missing closes
	Drawdown      *float64 // close / running_peak - 1, NULL if undefined
	Vol7          *float64 // sample stddev of ret over trailing 7 rows
	Vol30         *float64 // sample stddev of ret over trailing 30 rows
	MA7           *float64 // mean close over trailing 7 rows
	MA30          *float64 // mean close over trailing 30 rows
}

// ClassifiedRow is a DerivedRow with its crisis label.
type ClassifiedRow struct {
	DerivedRow
	IsCrisis bool
}

// Year returns the Gregorian year of the row.
func (r DerivedRow) Year() int { return r.Date.Year() }

// Month returns the Gregorian month of the row.
func (r DerivedRow) Month() time.Month { return r.Date.Month() }

// Quarter returns the calendar quarter (1..4) of the row.
func (r DerivedRow) Quarter() int { return (int(r.Date.Month())-1)/3 + 1 }

// CrisisDate is one row of the persisted crisis side table.
// Corresponds to crisis_dates table.
type CrisisDate struct {
	Date          time.Time
	Close         *float64
	Ret           *float64
	Drawdown      *float64
	IntradayRange *float64
	IsCrisis      bool
}
