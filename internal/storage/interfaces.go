package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"currency-crisis-lab/internal/domain"
)

// Table names used by every backend.
const (
	TablePrices      = "prices"
	TableNews        = "news"
	TableCrisisDates = "crisis_dates"
	TableDerived     = "derived_series"
	TableRunLog      = "reconcile_runs"
)

// PriceStore provides access to the raw price table.
// Values are kept as source text; parsing belongs to the normalizer.
type PriceStore interface {
	// Load returns the whole price table. Returns ErrNotFound if the table is absent.
	Load(ctx context.Context) (*domain.RawTable, error)

	// ReplaceAll overwrites the price table atomically.
	ReplaceAll(ctx context.Context, table *domain.RawTable) error
}

// NewsStore provides access to the news table.
type NewsStore interface {
	// Load returns all news records in stored (merge) order.
	// An absent table is a valid state and yields an empty slice.
	Load(ctx context.Context) ([]domain.NewsRecord, error)

	// ReplaceAll overwrites the news table atomically.
	// Returns ErrDuplicateKey if two records share (date, title).
	ReplaceAll(ctx context.Context, records []domain.NewsRecord) error
}

// CrisisDateStore provides access to the crisis side table.
type CrisisDateStore interface {
	// Load returns all crisis dates ordered by date ASC. Absent table yields empty.
	Load(ctx context.Context) ([]domain.CrisisDate, error)

	// ReplaceAll overwrites the crisis side table atomically.
	// Returns ErrDuplicateKey if two entries share a date.
	ReplaceAll(ctx context.Context, dates []domain.CrisisDate) error
}

// DerivedSeriesStore is a sink for the full derived and classified table.
type DerivedSeriesStore interface {
	// Load returns the last persisted series ordered by date ASC.
	Load(ctx context.Context) ([]domain.ClassifiedRow, error)

	// ReplaceAll overwrites the persisted series atomically.
	ReplaceAll(ctx context.Context, rows []domain.ClassifiedRow) error
}

// RunRecord is the persisted outcome of one reconciler run.
type RunRecord struct {
	RunID          uuid.UUID
	StartedAt      time.Time
	FinishedAt     time.Time
	LastPriceDate  time.Time // zero if the price table was empty
	CrisisDays     int
	FetchSuccesses int
	FetchFailures  int
	HeadlinesAdded int
	ExitCode       int
}

// RunLogStore records reconciler runs so later runs and reports can see history.
type RunLogStore interface {
	// Append records a finished run. Returns ErrDuplicateKey if run_id exists.
	Append(ctx context.Context, r *RunRecord) error

	// Last returns the most recently finished run. Returns ErrNotFound if none.
	Last(ctx context.Context) (*RunRecord, error)
}
