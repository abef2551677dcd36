package csvfile

import (
	"context"
	"strings"

	"currency-crisis-lab/internal/domain"
	"currency-crisis-lab/internal/storage"
)

// PriceStore reads and writes the raw price table as a CSV file.
type PriceStore struct {
	path string
}

// NewPriceStore creates a PriceStore backed by path.
func NewPriceStore(path string) *PriceStore {
	return &PriceStore{path: path}
}

// Load reads the file verbatim. Returns ErrNotFound if it does not exist.
func (s *PriceStore) Load(_ context.Context) (*domain.RawTable, error) {
	header, records, err := readAll(s.path)
	if err != nil {
		return nil, err
	}
	if header == nil {
		return nil, storage.ErrNotFound
	}
	// Skip fully blank lines.
	kept := records[:0]
	for _, r := range records {
		if strings.TrimSpace(strings.Join(r, "")) != "" {
			kept = append(kept, r)
		}
	}
	return &domain.RawTable{Name: storage.TablePrices, Header: header, Records: kept}, nil
}

// ReplaceAll writes table atomically.
func (s *PriceStore) ReplaceAll(_ context.Context, table *domain.RawTable) error {
	if err := storage.ValidateRawTable(table); err != nil {
		return err
	}
	return writeAtomic(s.path, table.Header, table.Records)
}

var _ storage.PriceStore = (*PriceStore)(nil)
