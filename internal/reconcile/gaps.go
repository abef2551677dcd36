package reconcile

import (
	"time"

	"currency-crisis-lab/internal/domain"
	"currency-crisis-lab/internal/news"
)

// RecentCrisisDates returns crisis dates d with today-lookbackDays <= d <= today,
// ascending. Comparison is by calendar date.
func RecentCrisisDates(rows []domain.ClassifiedRow, today time.Time, lookbackDays int) []time.Time {
	end := domain.Day(today)
	start := end.AddDate(0, 0, -lookbackDays)

	var out []time.Time
	for _, r := range rows {
		if !r.IsCrisis {
			continue
		}
		d := domain.Day(r.Date)
		if d.Before(start) || d.After(end) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// MissingNewsDates returns the dates with no existing news record on that exact date.
func MissingNewsDates(dates []time.Time, existing []domain.NewsRecord) []time.Time {
	have := news.DatesWithNews(existing)
	out := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		if _, ok := have[d.Format(domain.DateLayout)]; ok {
			continue
		}
		out = append(out, d)
	}
	return out
}
