// Package cache holds derived tables keyed by the fingerprint of their input,
// so an unchanged price table is never recomputed within (or across) processes.
package cache

import (
	"context"

	"currency-crisis-lab/internal/domain"
)

// Cache stores classified series by input fingerprint.
// A miss is (nil, false, nil); errors are reserved for backend failures.
type Cache interface {
	Get(ctx context.Context, fingerprint string) ([]domain.ClassifiedRow, bool, error)
	Put(ctx context.Context, fingerprint string, rows []domain.ClassifiedRow) error
	Invalidate(ctx context.Context, fingerprint string) error
}

// Noop never stores anything.
type Noop struct{}

var _ Cache = Noop{}

func (Noop) Get(context.Context, string) ([]domain.ClassifiedRow, bool, error) {
	return nil, false, nil
}

func (Noop) Put(context.Context, string, []domain.ClassifiedRow) error { return nil }

func (Noop) Invalidate(context.Context, string) error { return nil }
