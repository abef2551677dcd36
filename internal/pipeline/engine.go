// Package pipeline builds the classified series from a raw price table:
// normalize, fingerprint, then derive and classify on a cache miss.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"currency-crisis-lab/internal/cache"
	"currency-crisis-lab/internal/crisis"
	"currency-crisis-lab/internal/domain"
	"currency-crisis-lab/internal/idhash"
	"currency-crisis-lab/internal/normalization"
)

// SeriesTable is the result of one Build.
type SeriesTable struct {
	Name        string
	Fingerprint string
	Rows        []domain.ClassifiedRow // ascending by date
	Normalize   *normalization.NormalizeResult
	CacheHit    bool
}

// LastDate returns the date of the final row, or zero for an empty table.
func (t *SeriesTable) LastDate() time.Time {
	if len(t.Rows) == 0 {
		return time.Time{}
	}
	return t.Rows[len(t.Rows)-1].Date
}

// Engine runs the normalize → derive → classify chain with an explicit cache.
// It remembers the latest fingerprint per table name and drops the superseded entry
// when the table changes, so a stale series is never served for that table.
type Engine struct {
	cache  cache.Cache
	logger *zap.Logger

	mu     sync.Mutex
	latest map[string]string // table name -> fingerprint
}

// NewEngine creates an Engine. A nil cache disables caching; a nil logger discards logs.
func NewEngine(c cache.Cache, logger *zap.Logger) *Engine {
	if c == nil {
		c = cache.Noop{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		cache:  c,
		logger: logger.Named("pipeline"),
		latest: make(map[string]string),
	}
}

// Build produces the classified series for table.
// Only a SchemaError is returned as fatal; parse problems are reported in Normalize.
// Cache failures are logged and treated as misses.
func (e *Engine) Build(ctx context.Context, table *domain.RawTable) (*SeriesTable, error) {
	if table == nil {
		return nil, fmt.Errorf("build series: nil table")
	}

	norm, err := normalization.Normalize(table)
	if err != nil {
		return nil, err
	}
	e.logParseErrors(table.Name, norm)

	fp := idhash.PriceTableFingerprint(norm.Rows)
	out := &SeriesTable{Name: table.Name, Fingerprint: fp, Normalize: norm}

	e.supersede(ctx, table.Name, fp)

	rows, ok, err := e.cache.Get(ctx, fp)
	if err != nil {
		e.logger.Warn("cache get failed", zap.String("table", table.Name), zap.Error(err))
		ok = false
	}
	if ok {
		out.Rows = rows
		out.CacheHit = true
		e.logger.Debug("series cache hit", zap.String("table", table.Name), zap.String("fingerprint", fp))
		return out, nil
	}

	out.Rows = Derive(norm.Rows)
	if err := e.cache.Put(ctx, fp, out.Rows); err != nil {
		e.logger.Warn("cache put failed", zap.String("table", table.Name), zap.Error(err))
	}
	e.logger.Info("series built",
		zap.String("table", table.Name),
		zap.String("fingerprint", fp),
		zap.Int("rows", len(out.Rows)),
		zap.Int("crisis_days", crisis.CountCrisis(out.Rows)),
	)
	return out, nil
}

// Derive computes derived series and crisis labels for canonical rows.
func Derive(rows []domain.PriceRow) []domain.ClassifiedRow {
	return crisis.Classify(normalization.ComputeDerivedSeries(rows))
}

// Invalidate forgets the cached series for a table name.
func (e *Engine) Invalidate(ctx context.Context, name string) error {
	e.mu.Lock()
	fp, ok := e.latest[name]
	delete(e.latest, name)
	e.mu.Unlock()

	if !ok {
		return nil
	}
	return e.cache.Invalidate(ctx, fp)
}

func (e *Engine) supersede(ctx context.Context, name, fp string) {
	e.mu.Lock()
	prev, ok := e.latest[name]
	e.latest[name] = fp
	e.mu.Unlock()

	if !ok || prev == fp {
		return
	}
	if err := e.cache.Invalidate(ctx, prev); err != nil {
		e.logger.Warn("cache invalidate failed", zap.String("table", name), zap.Error(err))
		return
	}
	e.logger.Debug("superseded cached series", zap.String("table", name), zap.String("previous", prev))
}

func (e *Engine) logParseErrors(name string, norm *normalization.NormalizeResult) {
	if len(norm.ParseErrors) == 0 {
		return
	}
	for _, pe := range norm.ParseErrors {
		e.logger.Debug("parse error", zap.String("table", name), zap.Error(pe))
	}
	e.logger.Warn("parse errors in price table",
		zap.String("table", name),
		zap.Int("count", len(norm.ParseErrors)),
		zap.Int("rows_dropped", norm.RowsDropped),
	)
}
