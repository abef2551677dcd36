package normalization

import (
	"sort"

	"currency-crisis-lab/internal/domain"
)

// SortAndDedup orders rows by date ascending and resolves duplicate dates.
// For a repeated date the last row in input order wins, since the source is an
// append-only log where later rows are corrections.
// Returns the resulting rows and the number of rows replaced.
func SortAndDedup(rows []domain.PriceRow) ([]domain.PriceRow, int) {
	byDate := make(map[string]int, len(rows))
	out := make([]domain.PriceRow, 0, len(rows))
	replaced := 0

	for _, row := range rows {
		key := row.DateKey()
		if pos, ok := byDate[key]; ok {
			out[pos] = row
			replaced++
			continue
		}
		byDate[key] = len(out)
		out = append(out, row)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out, replaced
}

// IsSorted reports whether rows are strictly ascending by date.
func IsSorted(rows []domain.PriceRow) bool {
	for i := 1; i < len(rows); i++ {
		if !rows[i-1].Date.Before(rows[i].Date) {
			return false
		}
	}
	return true
}
