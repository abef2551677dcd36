package memory

import (
	"context"
	"sync"

	"currency-crisis-lab/internal/domain"
	"currency-crisis-lab/internal/storage"
)

// NewsStore is an in-memory implementation of storage.NewsStore.
type NewsStore struct {
	mu      sync.RWMutex
	records []domain.NewsRecord
	writes  int
}

// NewNewsStore creates a new in-memory news store.
func NewNewsStore(seed ...domain.NewsRecord) *NewsStore {
	return &NewsStore{records: append([]domain.NewsRecord(nil), seed...)}
}

// Load returns a copy of all records in stored order.
func (s *NewsStore) Load(_ context.Context) ([]domain.NewsRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]domain.NewsRecord{}, s.records...), nil
}

// ReplaceAll validates records and swaps them in. Nothing changes on error.
func (s *NewsStore) ReplaceAll(_ context.Context, records []domain.NewsRecord) error {
	if err := storage.ValidateNews(records); err != nil {
		return err
	}
	cp := append([]domain.NewsRecord{}, records...)

	s.mu.Lock()
	s.records = cp
	s.writes++
	s.mu.Unlock()
	return nil
}

// Writes returns the number of successful ReplaceAll calls.
func (s *NewsStore) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

var _ storage.NewsStore = (*NewsStore)(nil)
