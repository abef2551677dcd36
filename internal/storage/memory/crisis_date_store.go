package memory

import (
	"context"
	"sync"

	"currency-crisis-lab/internal/domain"
	"currency-crisis-lab/internal/storage"
)

// CrisisDateStore is an in-memory implementation of storage.CrisisDateStore.
type CrisisDateStore struct {
	mu    sync.RWMutex
	dates []domain.CrisisDate
}

// NewCrisisDateStore creates a new in-memory crisis date store.
func NewCrisisDateStore() *CrisisDateStore {
	return &CrisisDateStore{}
}

// Load returns a copy of all crisis dates.
func (s *CrisisDateStore) Load(_ context.Context) ([]domain.CrisisDate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]domain.CrisisDate{}, s.dates...), nil
}

// ReplaceAll validates dates and swaps them in.
func (s *CrisisDateStore) ReplaceAll(_ context.Context, dates []domain.CrisisDate) error {
	if err := storage.ValidateCrisisDates(dates); err != nil {
		return err
	}
	cp := append([]domain.CrisisDate{}, dates...)

	s.mu.Lock()
	s.dates = cp
	s.mu.Unlock()
	return nil
}

var _ storage.CrisisDateStore = (*CrisisDateStore)(nil)
