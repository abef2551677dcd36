package news

import (
	"time"
	"unicode"

	"currency-crisis-lab/internal/domain"
)

// HasASCIILetter reports whether title contains at least one ASCII letter.
// Used as a cheap English-language heuristic.
func HasASCIILetter(title string) bool {
	for _, r := range title {
		if r < unicode.MaxASCII && unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// Normalize converts articles fetched for date into news records,
// dropping blank titles and titles without an ASCII letter.
// Returns the kept records and how many were filtered out.
func Normalize(date time.Time, articles []domain.RawArticle) ([]domain.NewsRecord, int) {
	out := make([]domain.NewsRecord, 0, len(articles))
	filtered := 0
	for _, a := range articles {
		rec := a.ToNewsRecord(date)
		if rec.Title == "" || !HasASCIILetter(rec.Title) {
			filtered++
			continue
		}
		out = append(out, rec)
	}
	return out, filtered
}

// Merge appends fetched to existing and removes later duplicates of (date, title).
// The first occurrence wins, so existing rows are never replaced.
// Returns the merged table and the number of fetched rows it kept.
func Merge(existing, fetched []domain.NewsRecord) ([]domain.NewsRecord, int) {
	seen := make(map[domain.NewsKey]struct{}, len(existing)+len(fetched))
	out := make([]domain.NewsRecord, 0, len(existing)+len(fetched))

	keep := func(r domain.NewsRecord) bool {
		k := r.Key()
		if _, ok := seen[k]; ok {
			return false
		}
		seen[k] = struct{}{}
		out = append(out, r)
		return true
	}

	for _, r := range existing {
		keep(r)
	}
	added := 0
	for _, r := range fetched {
		if keep(r) {
			added++
		}
	}
	return out, added
}

// DatesWithNews returns the set of YYYY-MM-DD dates that have at least one record.
func DatesWithNews(records []domain.NewsRecord) map[string]struct{} {
	out := make(map[string]struct{}, len(records))
	for _, r := range records {
		out[r.Date.Format(domain.DateLayout)] = struct{}{}
	}
	return out
}
