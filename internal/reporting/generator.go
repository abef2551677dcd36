package reporting

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"currency-crisis-lab/internal/crisis"
	"currency-crisis-lab/internal/domain"
	"currency-crisis-lab/internal/lookup"
	"currency-crisis-lab/internal/metrics"
	"currency-crisis-lab/internal/pipeline"
	"currency-crisis-lab/internal/storage"
)

// Report limits.
const (
	WorstDaysLimit  = 10
	TopYearsLimit   = 5
	TopSourcesLimit = 10
)

// Options configures the risk measures of a report.
type Options struct {
	Levels        []float64 // VaR levels, default 0.05 and 0.01
	RollingWindow int       // default domain.LongWindow
	RollingLevel  float64   // default 0.05
}

func (o Options) withDefaults() Options {
	if len(o.Levels) == 0 {
		o.Levels = []float64{metrics.Level95, metrics.Level99}
	}
	if o.RollingWindow <= 0 {
		o.RollingWindow = domain.LongWindow
	}
	if o.RollingLevel <= 0 {
		o.RollingLevel = metrics.Level95
	}
	return o
}

// Generator produces reports from stored data.
type Generator struct {
	priceStore storage.PriceStore
	newsStore  storage.NewsStore
	runLog     storage.RunLogStore // optional
	engine     *pipeline.Engine
	opts       Options
	now        func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator. runLog may be nil.
func NewGenerator(
	priceStore storage.PriceStore,
	newsStore storage.NewsStore,
	runLog storage.RunLogStore,
	engine *pipeline.Engine,
	opts Options,
) *Generator {
	if engine == nil {
		engine = pipeline.NewEngine(nil, nil)
	}
	return &Generator{
		priceStore: priceStore,
		newsStore:  newsStore,
		runLog:     runLog,
		engine:     engine,
		opts:       opts.withDefaults(),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate loads the stored tables and builds the report for [from, to].
// A zero bound leaves that side open.
func (g *Generator) Generate(ctx context.Context, from, to time.Time) (*Report, error) {
	raw, err := g.priceStore.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load prices: %w", err)
	}
	series, err := g.engine.Build(ctx, raw)
	if err != nil {
		return nil, err
	}

	news, err := g.newsStore.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load news: %w", err)
	}

	report, err := Assemble(series, news, from, to, g.opts)
	if err != nil {
		return nil, err
	}
	report.GeneratedAt = g.now()

	suff := pipeline.CheckSufficiency(series, report.GeneratedAt)
	for _, c := range suff.Checks {
		report.DataQuality.SufficiencyChecks = append(report.DataQuality.SufficiencyChecks, SufficiencyCheckRow{
			Name:      c.Name,
			Threshold: c.Threshold,
			Actual:    c.Actual,
			Pass:      c.Pass,
		})
	}
	report.DataQuality.AllChecksPassed = suff.AllPass

	if g.runLog != nil {
		last, err := g.runLog.Last(ctx)
		switch {
		case err == nil:
			report.LastRun = last
		case errors.Is(err, storage.ErrNotFound):
		default:
			return nil, fmt.Errorf("load last run: %w", err)
		}
	}

	return report, nil
}

// Assemble builds a report from an already built series and the news table.
// It does not touch any store and leaves GeneratedAt and sufficiency checks unset.
func Assemble(series *pipeline.SeriesTable, news []domain.NewsRecord, from, to time.Time, opts Options) (*Report, error) {
	opts = opts.withDefaults()

	rows, err := lookup.Range(series.Rows, from, to)
	if err != nil {
		return nil, err
	}

	r := &Report{
		Table:         series.Name,
		Fingerprint:   series.Fingerprint,
		RollingWindow: opts.RollingWindow,
		RollingLevel:  opts.RollingLevel,
	}
	if norm := series.Normalize; norm != nil {
		r.DataQuality.RowsRead = norm.RowsRead
		r.DataQuality.RowsDropped = norm.RowsDropped
		r.DataQuality.DuplicatesResolved = norm.DuplicatesResolved
		r.DataQuality.ParseErrors = len(norm.ParseErrors)
	}
	if len(rows) > 0 {
		r.From = rows[0].Date
		r.To = rows[len(rows)-1].Date
	}

	r.Overview = buildOverview(rows)

	returns := metrics.ReturnsOf(rows)
	for _, p := range opts.Levels {
		row := RiskRow{Confidence: confidenceLabel(p)}
		if len(returns) > 0 {
			snap, err := metrics.Snapshot(returns, p)
			if err != nil {
				return nil, err
			}
			row.Snapshot = snap
		}
		r.Risk = append(r.Risk, row)
	}

	r.Years = crisis.ByYear(rows)
	r.TopYears = crisis.TopYears(r.Years, TopYearsLimit)
	r.Quarters = crisis.ByQuarter(rows)
	monthly := crisis.MonthlyMeanReturn(rows)
	for m := time.January; m <= time.December; m++ {
		if v, ok := monthly[m]; ok {
			r.Monthly = append(r.Monthly, MonthRow{Month: m, MeanReturn: v})
		}
	}
	r.Comparison = crisis.Compare(rows)

	inRange := filterNews(news, r.From, r.To, len(rows) > 0)
	firstHeadline := make(map[string]string)
	for _, n := range inRange {
		k := n.Date.Format(domain.DateLayout)
		if _, ok := firstHeadline[k]; !ok {
			firstHeadline[k] = n.Title
		}
	}
	for _, w := range crisis.WorstDays(rows, WorstDaysLimit) {
		r.WorstDays = append(r.WorstDays, WorstDayRow{
			Date:     w.Date,
			Close:    w.Close,
			Ret:      w.Ret,
			Drawdown: w.Drawdown,
			Headline: firstHeadline[w.DateKey()],
		})
	}

	r.Correlation = metrics.Correlation(rows)

	rolling, err := metrics.RollingVaR(rows, opts.RollingWindow, opts.RollingLevel)
	if err != nil {
		return nil, err
	}
	r.RollingVaR = rolling

	r.News = summarizeNews(inRange, len(news) > 0)
	return r, nil
}

func buildOverview(rows []domain.ClassifiedRow) Overview {
	o := Overview{Rows: len(rows), CrisisDays: crisis.CountCrisis(rows)}
	if len(rows) == 0 {
		return o
	}
	o.CrisisPct = float64(o.CrisisDays) / float64(len(rows)) * 100

	last, _ := lookup.Last(rows)
	o.LastDate = last.Date
	o.LastClose = last.Close
	o.LastReturn = last.Ret
	o.LastVol30 = last.Vol30

	if returns := metrics.ReturnsOf(rows); len(returns) > 0 {
		var sum float64
		for _, v := range returns {
			sum += v
		}
		mean := sum / float64(len(returns))
		o.MeanReturn = &mean
	}
	o.MaxDrawdown, o.MaxDrawdownDate = metrics.MaxDrawdown(rows)
	return o
}

// filterNews keeps records within [from, to]. With no rows in range nothing matches.
func filterNews(news []domain.NewsRecord, from, to time.Time, bounded bool) []domain.NewsRecord {
	if !bounded {
		return nil
	}
	out := make([]domain.NewsRecord, 0, len(news))
	for _, n := range news {
		d := domain.Day(n.Date)
		if d.Before(from) || d.After(to) {
			continue
		}
		out = append(out, n)
	}
	return out
}

func summarizeNews(news []domain.NewsRecord, available bool) NewsSummary {
	s := NewsSummary{Available: available, TotalHeadlines: len(news)}
	if len(news) == 0 {
		return s
	}

	days := make(map[string]struct{})
	sources := make(map[string]int)
	months := make(map[string]int)
	for _, n := range news {
		days[n.Date.Format(domain.DateLayout)] = struct{}{}
		if n.Source != "" {
			sources[n.Source]++
		}
		months[n.Date.Format("2006-01")]++
	}
	s.DaysWithNews = len(days)
	s.UniqueSources = len(sources)
	s.AvgPerDay = float64(len(news)) / float64(len(days))

	for src, c := range sources {
		s.TopSources = append(s.TopSources, SourceCount{Source: src, Count: c})
	}
	sort.Slice(s.TopSources, func(i, j int) bool {
		if s.TopSources[i].Count != s.TopSources[j].Count {
			return s.TopSources[i].Count > s.TopSources[j].Count
		}
		return s.TopSources[i].Source < s.TopSources[j].Source
	})
	if len(s.TopSources) > TopSourcesLimit {
		s.TopSources = s.TopSources[:TopSourcesLimit]
	}

	for m, c := range months {
		s.ByMonth = append(s.ByMonth, MonthCount{Month: m, Count: c})
	}
	sort.Slice(s.ByMonth, func(i, j int) bool { return s.ByMonth[i].Month < s.ByMonth[j].Month })
	return s
}

// confidenceLabel maps a tail probability to its confidence label, 0.05 -> "95%".
func confidenceLabel(p float64) string {
	pct := math.Round((1-p)*10000) / 100
	return strconv.FormatFloat(pct, 'f', -1, 64) + "%"
}
