package memory

import (
	"context"
	"sync"

	"currency-crisis-lab/internal/domain"
	"currency-crisis-lab/internal/storage"
)

// PriceStore is an in-memory implementation of storage.PriceStore.
type PriceStore struct {
	mu    sync.RWMutex
	table *domain.RawTable
}

// NewPriceStore creates a new in-memory price store, optionally seeded.
func NewPriceStore(seed *domain.RawTable) *PriceStore {
	return &PriceStore{table: copyRawTable(seed)}
}

// Load returns a copy of the stored table. Returns ErrNotFound if empty.
func (s *PriceStore) Load(_ context.Context) (*domain.RawTable, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.table == nil {
		return nil, storage.ErrNotFound
	}
	return copyRawTable(s.table), nil
}

// ReplaceAll swaps in a copy of table.
func (s *PriceStore) ReplaceAll(_ context.Context, table *domain.RawTable) error {
	if err := storage.ValidateRawTable(table); err != nil {
		return err
	}
	cp := copyRawTable(table)

	s.mu.Lock()
	s.table = cp
	s.mu.Unlock()
	return nil
}

func copyRawTable(t *domain.RawTable) *domain.RawTable {
	if t == nil {
		return nil
	}
	cp := &domain.RawTable{
		Name:    t.Name,
		Header:  append([]string(nil), t.Header...),
		Records: make([][]string, len(t.Records)),
	}
	for i, r := range t.Records {
		cp.Records[i] = append([]string(nil), r...)
	}
	return cp
}

var _ storage.PriceStore = (*PriceStore)(nil)
