// Package reconcile refreshes the persisted side tables from the price table.
// Flow: load prices → reclassify → staleness → persist crisis table → detect news gaps
// → fetch → filter → merge news.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"currency-crisis-lab/internal/crisis"
	"currency-crisis-lab/internal/domain"
	"currency-crisis-lab/internal/news"
	"currency-crisis-lab/internal/observability"
	"currency-crisis-lab/internal/pipeline"
	"currency-crisis-lab/internal/storage"
)

// Step names as they appear in RunSummary.Steps.
const (
	StepLoadPrices     = "load_prices"
	StepReclassify     = "reclassify"
	StepStaleness      = "staleness"
	StepPersistCrisis  = "persist_crisis"
	StepPersistDerived = "persist_derived"
	StepDetectGaps     = "detect_gaps"
	StepFetch          = "fetch"
	StepFilter         = "filter"
	StepMerge          = "merge"
	StepRecordRun      = "record_run"
)

// Defaults for Options.
const (
	DefaultLookbackDays = 30
	DefaultFetchTimeout = 10 * time.Second
	DefaultConcurrency  = 4
)

// Options for creating a Reconciler.
type Options struct {
	// Required stores
	PriceStore  storage.PriceStore
	NewsStore   storage.NewsStore
	CrisisStore storage.CrisisDateStore

	// Optional sinks
	DerivedStore storage.DerivedSeriesStore
	RunLogStore  storage.RunLogStore

	// Fetcher is the external headline source. Nil skips fetch and merge.
	Fetcher news.Fetcher

	Engine  *pipeline.Engine       // nil creates an uncached engine
	Metrics *observability.Metrics // optional
	Logger  *zap.Logger
	Clock   func() time.Time

	LookbackDays int
	FetchTimeout time.Duration
	Concurrency  int
}

// Reconciler runs one incremental refresh per Run call.
type Reconciler struct {
	prices   storage.PriceStore
	news     storage.NewsStore
	crisis   storage.CrisisDateStore
	derived  storage.DerivedSeriesStore
	runLog   storage.RunLogStore
	fetcher  news.Fetcher
	engine   *pipeline.Engine
	metrics  *observability.Metrics
	logger   *zap.Logger
	clock    func() time.Time
	lookback int
	timeout  time.Duration
	limit    int
}

// New creates a Reconciler. Zero numeric options take defaults.
func New(opts Options) *Reconciler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Reconciler{
		prices:   opts.PriceStore,
		news:     opts.NewsStore,
		crisis:   opts.CrisisStore,
		derived:  opts.DerivedStore,
		runLog:   opts.RunLogStore,
		fetcher:  opts.Fetcher,
		engine:   opts.Engine,
		metrics:  opts.Metrics,
		logger:   logger.Named("reconcile"),
		clock:    opts.Clock,
		lookback: opts.LookbackDays,
		timeout:  opts.FetchTimeout,
		limit:    opts.Concurrency,
	}
	if r.engine == nil {
		r.engine = pipeline.NewEngine(nil, logger)
	}
	if r.clock == nil {
		r.clock = func() time.Time { return time.Now().UTC() }
	}
	if r.lookback <= 0 {
		r.lookback = DefaultLookbackDays
	}
	if r.timeout <= 0 {
		r.timeout = DefaultFetchTimeout
	}
	if r.limit <= 0 {
		r.limit = DefaultConcurrency
	}
	return r
}

// run carries state between steps of one Run.
type run struct {
	summary  *domain.RunSummary
	today    time.Time
	series   *pipeline.SeriesTable
	existing []domain.NewsRecord
	newsOK   bool
	targets  []time.Time
	fetched  [][]domain.RawArticle // per target, nil on failure
	filtered []domain.NewsRecord
}

// Run executes every step and returns the summary. It never returns early on
// a failed step: later steps that depend on it are recorded as skipped.
// Use summary.ExitCode() for the process status.
func (r *Reconciler) Run(ctx context.Context) *domain.RunSummary {
	started := r.clock()
	st := &run{
		summary: domain.NewRunSummary(started),
		today:   domain.Day(started),
	}
	r.logger.Info("run started", zap.String("run_id", st.summary.RunID.String()), zap.Time("today", st.today))

	if r.loadAndClassify(ctx, st) {
		r.step(st, StepStaleness, func() (domain.StepStatus, error) { return r.staleness(st), nil })
		r.step(st, StepPersistCrisis, func() (domain.StepStatus, error) { return r.persistCrisis(ctx, st) })
		if r.derived != nil {
			r.step(st, StepPersistDerived, func() (domain.StepStatus, error) { return r.persistDerived(ctx, st) })
		} else {
			r.skip(st, StepPersistDerived)
		}
		r.newsSteps(ctx, st)
	} else {
		r.skip(st, StepStaleness, StepPersistCrisis, StepPersistDerived, StepDetectGaps, StepFetch, StepFilter, StepMerge)
	}

	st.summary.FinishedAt = r.clock()
	if r.runLog != nil {
		r.step(st, StepRecordRun, func() (domain.StepStatus, error) { return r.recordRun(ctx, st) })
	}
	if r.metrics != nil {
		r.metrics.RecordRun(st.summary)
	}
	r.logSummary(st.summary)
	return st.summary
}

// loadAndClassify runs the load and reclassify steps. Returns false if the
// series is unavailable.
func (r *Reconciler) loadAndClassify(ctx context.Context, st *run) bool {
	var table *domain.RawTable
	r.step(st, StepLoadPrices, func() (domain.StepStatus, error) {
		var err error
		table, err = r.prices.Load(ctx)
		if err != nil {
			return domain.StepFailed, &domain.PersistenceError{Table: storage.TablePrices, Err: fmt.Errorf("load: %w", err)}
		}
		return domain.StepOK, nil
	})
	if table == nil {
		r.skip(st, StepReclassify)
		return false
	}

	r.step(st, StepReclassify, func() (domain.StepStatus, error) {
		series, err := r.engine.Build(ctx, table)
		if err != nil {
			return domain.StepFailed, err
		}
		st.series = series

		s := st.summary
		s.RowsRead = series.Normalize.RowsRead
		s.RowsParsed = len(series.Rows)
		s.RowsDropped = series.Normalize.RowsDropped
		s.ParseErrors = len(series.Normalize.ParseErrors)
		s.DuplicatesResolved = series.Normalize.DuplicatesResolved
		s.CrisisDays = crisis.CountCrisis(series.Rows)

		if s.ParseErrors > 0 {
			return domain.StepPartial, nil
		}
		return domain.StepOK, nil
	})
	return st.series != nil
}

// staleness reports the gap between the last price row and today. Never fatal.
func (r *Reconciler) staleness(st *run) domain.StepStatus {
	last := st.series.LastDate()
	if last.IsZero() {
		r.logger.Warn("price table has no rows")
		return domain.StepSkipped
	}
	st.summary.LastPriceDate = last
	st.summary.StalenessDays = pipeline.StalenessDays(last, st.today)
	if st.summary.StalenessDays > 0 {
		r.logger.Info("price table is stale",
			zap.String("last_price_date", last.Format(domain.DateLayout)),
			zap.Int("days", st.summary.StalenessDays),
		)
	}
	return domain.StepOK
}

// persistCrisis overwrites the crisis side table.
func (r *Reconciler) persistCrisis(ctx context.Context, st *run) (domain.StepStatus, error) {
	dates := crisis.Dates(st.series.Rows)
	if err := r.crisis.ReplaceAll(ctx, dates); err != nil {
		return domain.StepFailed, &domain.PersistenceError{Table: storage.TableCrisisDates, Err: err}
	}
	return domain.StepOK, nil
}

// persistDerived overwrites the derived series sink.
func (r *Reconciler) persistDerived(ctx context.Context, st *run) (domain.StepStatus, error) {
	if err := r.derived.ReplaceAll(ctx, st.series.Rows); err != nil {
		return domain.StepFailed, &domain.PersistenceError{Table: storage.TableDerived, Err: err}
	}
	return domain.StepOK, nil
}

func (r *Reconciler) newsSteps(ctx context.Context, st *run) {
	r.step(st, StepDetectGaps, func() (domain.StepStatus, error) { return r.detectGaps(ctx, st) })
	if !st.newsOK {
		r.skip(st, StepFetch, StepFilter, StepMerge)
		return
	}
	if r.fetcher == nil {
		st.summary.NewsRows = len(st.existing)
		r.skip(st, StepFetch, StepFilter, StepMerge)
		return
	}
	r.step(st, StepFetch, func() (domain.StepStatus, error) { return r.fetch(ctx, st) })
	r.step(st, StepFilter, func() (domain.StepStatus, error) { return r.filter(st), nil })
	r.step(st, StepMerge, func() (domain.StepStatus, error) { return r.merge(ctx, st) })
}

// detectGaps selects recent crisis dates that have no news yet.
func (r *Reconciler) detectGaps(ctx context.Context, st *run) (domain.StepStatus, error) {
	existing, err := r.news.Load(ctx)
	if err != nil {
		return domain.StepFailed, &domain.PersistenceError{Table: storage.TableNews, Err: fmt.Errorf("load: %w", err)}
	}
	st.existing = existing
	st.newsOK = true

	recent := RecentCrisisDates(st.series.Rows, st.today, r.lookback)
	st.summary.RecentCrisisDays = len(recent)
	st.targets = MissingNewsDates(recent, existing)
	st.summary.FetchCandidates = len(st.targets)

	r.logger.Info("news gaps detected",
		zap.Int("recent_crisis_days", len(recent)),
		zap.Int("fetch_candidates", len(st.targets)),
	)
	return domain.StepOK, nil
}

// fetch calls the fetcher once per target date with bounded concurrency.
// Results land in per-target slots, so the merge order does not depend on timing.
func (r *Reconciler) fetch(ctx context.Context, st *run) (domain.StepStatus, error) {
	if len(st.targets) == 0 {
		return domain.StepSkipped, nil
	}

	st.fetched = make([][]domain.RawArticle, len(st.targets))
	errs := make([]error, len(st.targets))

	var g errgroup.Group
	g.SetLimit(r.limit)
	for i, date := range st.targets {
		g.Go(func() error {
			fctx, cancel := context.WithTimeout(ctx, r.timeout)
			defer cancel()

			start := time.Now()
			arts, err := r.fetcher.Fetch(fctx, date)
			if r.metrics != nil {
				r.metrics.RecordFetch(err, time.Since(start))
			}
			if err != nil {
				errs[i] = &domain.FetchError{Date: date, Err: err}
				r.logger.Warn("news fetch failed", zap.String("date", date.Format(domain.DateLayout)), zap.Error(err))
				return nil
			}
			st.fetched[i] = arts
			return nil
		})
	}
	_ = g.Wait() // tasks never return errors; failures are per-slot

	var failed []error
	for _, err := range errs {
		if err != nil {
			failed = append(failed, err)
		}
	}
	st.summary.FetchFailures = len(failed)
	st.summary.FetchSuccesses = len(st.targets) - len(failed)

	switch {
	case len(failed) == 0:
		return domain.StepOK, nil
	case len(failed) == len(st.targets):
		return domain.StepFailed, errors.Join(failed...)
	default:
		return domain.StepPartial, errors.Join(failed...)
	}
}

// filter normalizes fetched articles and drops non-English titles.
func (r *Reconciler) filter(st *run) domain.StepStatus {
	for i, arts := range st.fetched {
		st.summary.HeadlinesFetched += len(arts)
		recs, dropped := news.Normalize(st.targets[i], arts)
		st.summary.HeadlinesFiltered += dropped
		st.filtered = append(st.filtered, recs...)
	}
	if st.summary.HeadlinesFetched == 0 {
		return domain.StepSkipped
	}
	return domain.StepOK
}

// merge appends filtered records to the news table. The table is rewritten
// only when the merge added rows.
func (r *Reconciler) merge(ctx context.Context, st *run) (domain.StepStatus, error) {
	merged, added := news.Merge(st.existing, st.filtered)
	st.summary.HeadlinesAdded = added
	if added == 0 {
		st.summary.NewsRows = len(st.existing)
		return domain.StepSkipped, nil
	}
	if err := r.news.ReplaceAll(ctx, merged); err != nil {
		st.summary.NewsRows = len(st.existing)
		st.summary.HeadlinesAdded = 0
		return domain.StepFailed, &domain.PersistenceError{Table: storage.TableNews, Err: err}
	}
	st.summary.NewsRows = len(merged)
	return domain.StepOK, nil
}

// recordRun appends the run to the run log. A failure is logged but not fatal:
// the run log is history, not an output table.
func (r *Reconciler) recordRun(ctx context.Context, st *run) (domain.StepStatus, error) {
	s := st.summary
	rec := &storage.RunRecord{
		RunID:          s.RunID,
		StartedAt:      s.StartedAt,
		FinishedAt:     s.FinishedAt,
		LastPriceDate:  s.LastPriceDate,
		CrisisDays:     s.CrisisDays,
		FetchSuccesses: s.FetchSuccesses,
		FetchFailures:  s.FetchFailures,
		HeadlinesAdded: s.HeadlinesAdded,
		ExitCode:       s.ExitCode(),
	}
	if err := r.runLog.Append(ctx, rec); err != nil {
		return domain.StepFailed, fmt.Errorf("record run: %w", err)
	}
	return domain.StepOK, nil
}

func (r *Reconciler) step(st *run, name string, fn func() (domain.StepStatus, error)) {
	start := time.Now()
	status, err := fn()
	res := domain.StepResult{Name: name, Status: status, Duration: time.Since(start), Err: err}
	st.summary.AddStep(res)

	fields := []zap.Field{zap.String("step", name), zap.String("status", string(status)), zap.Duration("duration", res.Duration)}
	switch {
	case err != nil && domain.IsFatal(err):
		r.logger.Error("step failed", append(fields, zap.Error(err))...)
	case err != nil:
		r.logger.Warn("step degraded", append(fields, zap.Error(err))...)
	default:
		r.logger.Debug("step done", fields...)
	}
}

func (r *Reconciler) skip(st *run, names ...string) {
	for _, name := range names {
		st.summary.AddStep(domain.StepResult{Name: name, Status: domain.StepSkipped})
	}
}

func (r *Reconciler) logSummary(s *domain.RunSummary) {
	r.logger.Info("run finished",
		zap.String("run_id", s.RunID.String()),
		zap.Duration("duration", s.FinishedAt.Sub(s.StartedAt)),
		zap.Int("rows_read", s.RowsRead),
		zap.Int("rows_parsed", s.RowsParsed),
		zap.Int("rows_dropped", s.RowsDropped),
		zap.Int("parse_errors", s.ParseErrors),
		zap.Int("duplicates_resolved", s.DuplicatesResolved),
		zap.Int("staleness_days", s.StalenessDays),
		zap.Int("crisis_days", s.CrisisDays),
		zap.Int("recent_crisis_days", s.RecentCrisisDays),
		zap.Int("fetch_candidates", s.FetchCandidates),
		zap.Int("fetch_successes", s.FetchSuccesses),
		zap.Int("fetch_failures", s.FetchFailures),
		zap.Int("headlines_fetched", s.HeadlinesFetched),
		zap.Int("headlines_filtered", s.HeadlinesFiltered),
		zap.Int("headlines_added", s.HeadlinesAdded),
		zap.Int("news_rows", s.NewsRows),
		zap.Int("exit_code", s.ExitCode()),
	)
}
