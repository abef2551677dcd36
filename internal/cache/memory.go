package cache

import (
	"context"
	"slices"
	"sync"

	"currency-crisis-lab/internal/domain"
)

// Memory is a process-wide in-memory cache. Safe for concurrent use.
type Memory struct {
	mu      sync.RWMutex
	entries map[string][]domain.ClassifiedRow
}

// NewMemory creates an empty Memory cache.
func NewMemory() *Memory {
	return &Memory{entries: make(map[string][]domain.ClassifiedRow)}
}

var _ Cache = (*Memory)(nil)

// Get returns a copy of the cached slice. Rows themselves are shared and must not be mutated.
func (m *Memory) Get(_ context.Context, fingerprint string) ([]domain.ClassifiedRow, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows, ok := m.entries[fingerprint]
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(rows), true, nil
}

func (m *Memory) Put(_ context.Context, fingerprint string, rows []domain.ClassifiedRow) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[fingerprint] = slices.Clone(rows)
	return nil
}

func (m *Memory) Invalidate(_ context.Context, fingerprint string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.entries, fingerprint)
	return nil
}

// Len returns the number of cached tables.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
