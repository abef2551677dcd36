package csvfile

import (
	"context"
	"errors"
	"fmt"

	"currency-crisis-lab/internal/domain"
	"currency-crisis-lab/internal/storage"
)

var newsHeader = []string{"date", "title", "url", "source"}

// NewsStore reads and writes the news table as a CSV file.
type NewsStore struct {
	path string
}

// NewNewsStore creates a NewsStore backed by path.
func NewNewsStore(path string) *NewsStore {
	return &NewsStore{path: path}
}

// Load reads all news records in file order. A missing file yields an empty slice.
func (s *NewsStore) Load(_ context.Context) ([]domain.NewsRecord, error) {
	header, records, err := readAll(s.path)
	if errors.Is(err, storage.ErrNotFound) {
		return []domain.NewsRecord{}, nil
	}
	if err != nil {
		return nil, err
	}
	out := make([]domain.NewsRecord, 0, len(records))
	if header == nil {
		return out, nil
	}

	idx := indexHeader(header)
	if err := idx.require(s.path, "date", "title"); err != nil {
		return nil, err
	}
	for i, rec := range records {
		date, err := parseDate(idx.get(rec, "date"))
		if err != nil {
			return nil, fmt.Errorf("news row %d: %w", i+1, err)
		}
		out = append(out, domain.NewsRecord{
			Date:   date,
			Title:  idx.get(rec, "title"),
			URL:    idx.get(rec, "url"),
			Source: idx.get(rec, "source"),
		})
	}
	return out, nil
}

// ReplaceAll validates and writes records atomically.
func (s *NewsStore) ReplaceAll(_ context.Context, records []domain.NewsRecord) error {
	if err := storage.ValidateNews(records); err != nil {
		return err
	}
	rows := make([][]string, len(records))
	for i, r := range records {
		rows[i] = []string{r.Date.Format(domain.DateLayout), r.Title, r.URL, r.Source}
	}
	return writeAtomic(s.path, newsHeader, rows)
}

var _ storage.NewsStore = (*NewsStore)(nil)
