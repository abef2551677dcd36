package storage

import (
	"fmt"

	"currency-crisis-lab/internal/domain"
)

// ValidateNews checks that records are writable as a news table:
// non-zero date, non-empty title and unique (date, title).
func ValidateNews(records []domain.NewsRecord) error {
	seen := make(map[domain.NewsKey]struct{}, len(records))
	for i, r := range records {
		if r.Date.IsZero() || r.Title == "" {
			return fmt.Errorf("%w: news record %d missing date or title", ErrInvalidInput, i)
		}
		k := r.Key()
		if _, ok := seen[k]; ok {
			return fmt.Errorf("%w: news (%s, %q)", ErrDuplicateKey, k.Date, k.Title)
		}
		seen[k] = struct{}{}
	}
	return nil
}

// ValidateCrisisDates checks that crisis dates are non-zero and unique.
func ValidateCrisisDates(dates []domain.CrisisDate) error {
	seen := make(map[string]struct{}, len(dates))
	for i, d := range dates {
		if d.Date.IsZero() {
			return fmt.Errorf("%w: crisis date %d is zero", ErrInvalidInput, i)
		}
		k := d.Date.Format(domain.DateLayout)
		if _, ok := seen[k]; ok {
			return fmt.Errorf("%w: crisis date %s", ErrDuplicateKey, k)
		}
		seen[k] = struct{}{}
	}
	return nil
}

// ValidateDerived checks that derived rows are ascending with unique dates.
func ValidateDerived(rows []domain.ClassifiedRow) error {
	for i := 1; i < len(rows); i++ {
		if !rows[i-1].Date.Before(rows[i].Date) {
			return fmt.Errorf("%w: derived row %d not after row %d", ErrInvalidInput, i, i-1)
		}
	}
	return nil
}

// ValidateRawTable checks that a raw table has a header and no record longer than it.
func ValidateRawTable(t *domain.RawTable) error {
	if t == nil || len(t.Header) == 0 {
		return fmt.Errorf("%w: raw table without header", ErrInvalidInput)
	}
	for i, rec := range t.Records {
		if len(rec) > len(t.Header) {
			return fmt.Errorf("%w: record %d has %d fields, header has %d", ErrInvalidInput, i, len(rec), len(t.Header))
		}
	}
	return nil
}
