package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"currency-crisis-lab/internal/storage"
)

// RunLogStore is an in-memory implementation of storage.RunLogStore.
type RunLogStore struct {
	mu   sync.RWMutex
	runs []storage.RunRecord
	ids  map[uuid.UUID]struct{}
}

// NewRunLogStore creates a new in-memory run log.
func NewRunLogStore() *RunLogStore {
	return &RunLogStore{ids: make(map[uuid.UUID]struct{})}
}

// Append records a run. Returns ErrDuplicateKey if the run ID was already recorded.
func (s *RunLogStore) Append(_ context.Context, r *storage.RunRecord) error {
	if r == nil || r.RunID == uuid.Nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ids[r.RunID]; ok {
		return storage.ErrDuplicateKey
	}
	s.ids[r.RunID] = struct{}{}
	s.runs = append(s.runs, *r)
	return nil
}

// Last returns the run with the latest FinishedAt. Returns ErrNotFound if none.
func (s *RunLogStore) Last(_ context.Context) (*storage.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.runs) == 0 {
		return nil, storage.ErrNotFound
	}
	last := s.runs[0]
	for _, r := range s.runs[1:] {
		if !r.FinishedAt.Before(last.FinishedAt) {
			last = r
		}
	}
	return &last, nil
}

var _ storage.RunLogStore = (*RunLogStore)(nil)
