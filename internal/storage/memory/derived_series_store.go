package memory

import (
	"context"
	"sync"

	"currency-crisis-lab/internal/domain"
	"currency-crisis-lab/internal/storage"
)

// DerivedSeriesStore is an in-memory implementation of storage.DerivedSeriesStore.
type DerivedSeriesStore struct {
	mu   sync.RWMutex
	rows []domain.ClassifiedRow
}

// NewDerivedSeriesStore creates a new in-memory derived series store.
func NewDerivedSeriesStore() *DerivedSeriesStore {
	return &DerivedSeriesStore{}
}

// Load returns a copy of the stored series.
func (s *DerivedSeriesStore) Load(_ context.Context) ([]domain.ClassifiedRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]domain.ClassifiedRow{}, s.rows...), nil
}

// ReplaceAll validates ordering and swaps the series in.
// Rows are immutable values, so a shallow copy of the slice is sufficient.
func (s *DerivedSeriesStore) ReplaceAll(_ context.Context, rows []domain.ClassifiedRow) error {
	if err := storage.ValidateDerived(rows); err != nil {
		return err
	}
	cp := append([]domain.ClassifiedRow{}, rows...)

	s.mu.Lock()
	s.rows = cp
	s.mu.Unlock()
	return nil
}

var _ storage.DerivedSeriesStore = (*DerivedSeriesStore)(nil)
