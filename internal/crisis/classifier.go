// Package crisis labels derived rows as crisis or normal days and summarizes
// crisis activity over calendar periods.
package crisis

import "currency-crisis-lab/internal/domain"

// Thresholds of the crisis rule.
const (
	// ReturnThreshold: a daily return strictly below this is a crisis day.
	ReturnThreshold = -0.05
	// DrawdownThreshold: a drawdown at or below this is a crisis day.
	DrawdownThreshold = -0.20
)

// IsCrisis applies the crisis rule to a single row.
// The return test is strict (<) while the drawdown test is inclusive (<=).
// NULL inputs never trigger a crisis.
func IsCrisis(row domain.DerivedRow) bool {
	if row.Ret != nil && *row.Ret < ReturnThreshold {
		return true
	}
	if row.Drawdown != nil && *row.Drawdown <= DrawdownThreshold {
		return true
	}
	return false
}

// Classify labels every row of a completed derived series.
// The input must be the full table: drawdown depends on all prior rows.
func Classify(rows []domain.DerivedRow) []domain.ClassifiedRow {
	if len(rows) == 0 {
		return nil
	}
	out := make([]domain.ClassifiedRow, len(rows))
	for i, r := range rows {
		out[i] = domain.ClassifiedRow{DerivedRow: r, IsCrisis: IsCrisis(r)}
	}
	return out
}

// CountCrisis returns the number of crisis days.
func CountCrisis(rows []domain.ClassifiedRow) int {
	n := 0
	for _, r := range rows {
		if r.IsCrisis {
			n++
		}
	}
	return n
}

// Dates returns the crisis side table: one entry per crisis day, ascending by date.
func Dates(rows []domain.ClassifiedRow) []domain.CrisisDate {
	out := make([]domain.CrisisDate, 0)
	for _, r := range rows {
		if !r.IsCrisis {
			continue
		}
		out = append(out, domain.CrisisDate{
			Date:          r.Date,
			Close:         r.Close,
			Ret:           r.Ret,
			Drawdown:      r.Drawdown,
			IntradayRange: r.IntradayRange,
			IsCrisis:      true,
		})
	}
	return out
}
