// Package observability provides Prometheus metrics for batch runs.
// Each run owns a registry; cmd/reconcile exports it as a node-exporter textfile.
package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"currency-crisis-lab/internal/domain"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "currency_crisis_lab"

// Fetch outcomes used as the outcome label.
const (
	FetchSuccess = "success"
	FetchFailure = "failure"
)

// Metrics holds all Prometheus metrics for a reconciler run.
type Metrics struct {
	registry *prometheus.Registry

	// Normalization metrics
	RowsParsed  prometheus.Counter
	RowsDropped prometheus.Counter
	ParseErrors prometheus.Counter

	// Classification metrics
	CrisisDays       prometheus.Gauge
	RecentCrisisDays prometheus.Gauge
	StalenessDays    prometheus.Gauge

	// News metrics
	FetchTotal     *prometheus.CounterVec
	FetchDuration  prometheus.Histogram
	HeadlinesAdded prometheus.Counter
	NewsRows       prometheus.Gauge

	// Run metrics
	StepsTotal       *prometheus.CounterVec
	RunDuration      prometheus.Histogram
	LastRunTimestamp prometheus.Gauge
	LastRunSuccess   prometheus.Gauge
}

// NewMetrics creates a Metrics instance registered on a fresh registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	m := &Metrics{
		registry: reg,

		RowsParsed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "normalization",
			Name:      "rows_parsed_total",
			Help:      "Total number of price rows kept after normalization",
		}),
		RowsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "normalization",
			Name:      "rows_dropped_total",
			Help:      "Total number of price rows dropped for an unusable date",
		}),
		ParseErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "normalization",
			Name:      "parse_errors_total",
			Help:      "Total number of field-level parse errors",
		}),

		CrisisDays: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "crisis",
			Name:      "days",
			Help:      "Number of crisis days in the price history",
		}),
		RecentCrisisDays: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "crisis",
			Name:      "recent_days",
			Help:      "Number of crisis days inside the lookback window",
		}),
		StalenessDays: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "prices",
			Name:      "staleness_days",
			Help:      "Calendar days between the last price row and the run date",
		}),

		FetchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "news",
			Name:      "fetch_total",
			Help:      "Total number of per-date news fetches by outcome",
		}, []string{"outcome"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "news",
			Name:      "fetch_duration_seconds",
			Help:      "Per-date news fetch latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		HeadlinesAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "news",
			Name:      "headlines_added_total",
			Help:      "Total number of headlines merged into the news table",
		}),
		NewsRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "news",
			Name:      "rows",
			Help:      "Number of rows in the news table after the run",
		}),

		StepsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "steps_total",
			Help:      "Total number of reconciler steps by step and status",
		}, []string{"step", "status"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "run_duration_seconds",
			Help:      "Reconciler run duration in seconds",
			Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
		}),
		LastRunTimestamp: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "last_run_timestamp",
			Help:      "Unix timestamp of the last finished run",
		}),
		LastRunSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "last_run_success",
			Help:      "1 if the last run had no fatal error, else 0",
		}),
	}

	reg.MustRegister(
		m.RowsParsed, m.RowsDropped, m.ParseErrors,
		m.CrisisDays, m.RecentCrisisDays, m.StalenessDays,
		m.FetchTotal, m.FetchDuration, m.HeadlinesAdded, m.NewsRows,
		m.StepsTotal, m.RunDuration, m.LastRunTimestamp, m.LastRunSuccess,
	)
	return m
}

// Registry returns the registry holding all metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordFetch records one per-date fetch.
func (m *Metrics) RecordFetch(err error, d time.Duration) {
	outcome := FetchSuccess
	if err != nil {
		outcome = FetchFailure
	}
	m.FetchTotal.WithLabelValues(outcome).Inc()
	m.FetchDuration.Observe(d.Seconds())
}

// RecordRun copies a finished run summary into the metrics.
func (m *Metrics) RecordRun(s *domain.RunSummary) {
	m.RowsParsed.Add(float64(s.RowsParsed))
	m.RowsDropped.Add(float64(s.RowsDropped))
	m.ParseErrors.Add(float64(s.ParseErrors))
	m.CrisisDays.Set(float64(s.CrisisDays))
	m.RecentCrisisDays.Set(float64(s.RecentCrisisDays))
	m.StalenessDays.Set(float64(s.StalenessDays))
	m.HeadlinesAdded.Add(float64(s.HeadlinesAdded))
	m.NewsRows.Set(float64(s.NewsRows))

	for _, step := range s.Steps {
		m.StepsTotal.WithLabelValues(step.Name, string(step.Status)).Inc()
	}
	m.RunDuration.Observe(s.FinishedAt.Sub(s.StartedAt).Seconds())
	m.LastRunTimestamp.Set(float64(s.FinishedAt.Unix()))
	if s.Failed() {
		m.LastRunSuccess.Set(0)
	} else {
		m.LastRunSuccess.Set(1)
	}
}

// WriteTextfile writes all metrics in text exposition format to path,
// atomically, for the node-exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
