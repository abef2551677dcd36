package reporting

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"currency-crisis-lab/internal/domain"
	"currency-crisis-lab/internal/pipeline"
	"currency-crisis-lab/internal/storage"
	"currency-crisis-lab/internal/storage/memory"
)

var day0 = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

func priceTable(closes ...float64) *domain.RawTable {
	t := &domain.RawTable{
		Name:   storage.TablePrices,
		Header: []string{"date_gregorian", "open_price", "high_price", "low_price", "close_price"},
	}
	for i, c := range closes {
		s := strconv.FormatFloat(c, 'f', -1, 64)
		t.Records = append(t.Records, []string{day0.AddDate(0, 0, i).Format("2006/01/02"), s, s, s, s})
	}
	return t
}

func setupGenerator(t *testing.T, news ...domain.NewsRecord) (*Generator, *memory.RunLogStore) {
	t.Helper()
	runLog := memory.NewRunLogStore()
	g := NewGenerator(
		memory.NewPriceStore(priceTable(100, 95, 70, 72, 73)),
		memory.NewNewsStore(news...),
		runLog,
		nil,
		Options{},
	).WithClock(func() time.Time { return day0.AddDate(0, 0, 5) })
	return g, runLog
}

func headline(offset int, title, source string) domain.NewsRecord {
	return domain.NewsRecord{Date: day0.AddDate(0, 0, offset), Title: title, URL: "https://" + source + "/a", Source: source}
}

func TestGenerate_Overview(t *testing.T) {
	g, _ := setupGenerator(t)

	r, err := g.Generate(context.Background(), time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if r.Overview.Rows != 5 {
		t.Errorf("Rows = %d, want 5", r.Overview.Rows)
	}
	// day 2 falls 26%, days 3 and 4 stay more than 20% below the peak
	if r.Overview.CrisisDays != 3 {
		t.Errorf("CrisisDays = %d, want 3", r.Overview.CrisisDays)
	}
	if r.Overview.CrisisPct != 60 {
		t.Errorf("CrisisPct = %v, want 60", r.Overview.CrisisPct)
	}
	if r.Overview.LastClose == nil || *r.Overview.LastClose != 73 {
		t.Errorf("LastClose = %v, want 73", r.Overview.LastClose)
	}
	if r.Overview.MaxDrawdown == nil || *r.Overview.MaxDrawdown != -0.30 {
		t.Errorf("MaxDrawdown = %v, want -0.30", r.Overview.MaxDrawdown)
	}
	if !r.Overview.MaxDrawdownDate.Equal(day0.AddDate(0, 0, 2)) {
		t.Errorf("MaxDrawdownDate = %v", r.Overview.MaxDrawdownDate)
	}
	if !r.From.Equal(day0) || !r.To.Equal(day0.AddDate(0, 0, 4)) {
		t.Errorf("range = %v..%v", r.From, r.To)
	}
	if r.GeneratedAt != day0.AddDate(0, 0, 5) {
		t.Errorf("GeneratedAt = %v", r.GeneratedAt)
	}
}

func TestGenerate_RiskRows(t *testing.T) {
	g, _ := setupGenerator(t)

	r, err := g.Generate(context.Background(), time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(r.Risk) != 2 {
		t.Fatalf("expected 2 risk rows, got %d", len(r.Risk))
	}
	if r.Risk[0].Confidence != "95%" || r.Risk[1].Confidence != "99%" {
		t.Errorf("labels = %q, %q", r.Risk[0].Confidence, r.Risk[1].Confidence)
	}
	for _, row := range r.Risk {
		if row.Snapshot == nil {
			t.Fatalf("%s: nil snapshot", row.Confidence)
		}
		if row.Snapshot.Count != 4 {
			t.Errorf("%s: Count = %d, want 4", row.Confidence, row.Snapshot.Count)
		}
		if row.Snapshot.CVaR > row.Snapshot.VaR {
			t.Errorf("%s: CVaR %v above VaR %v", row.Confidence, row.Snapshot.CVaR, row.Snapshot.VaR)
		}
	}
	if len(r.RollingVaR) != 5 {
		t.Errorf("RollingVaR points = %d, want 5", len(r.RollingVaR))
	}
	for _, p := range r.RollingVaR {
		if p.VaR != nil {
			t.Errorf("rolling VaR should be empty with fewer than 30 returns, got %v at %v", *p.VaR, p.Date)
		}
	}
}

func TestGenerate_WorstDaysCarryHeadline(t *testing.T) {
	g, _ := setupGenerator(t,
		headline(2, "Rial hits record low", "reuters.com"),
		headline(2, "Second headline", "apnews.com"),
	)

	r, err := g.Generate(context.Background(), time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(r.WorstDays) == 0 {
		t.Fatal("expected worst days")
	}
	worst := r.WorstDays[0]
	if !worst.Date.Equal(day0.AddDate(0, 0, 2)) {
		t.Errorf("worst day = %v", worst.Date)
	}
	if worst.Headline != "Rial hits record low" {
		t.Errorf("Headline = %q", worst.Headline)
	}
}

func TestGenerate_NewsSummary(t *testing.T) {
	g, _ := setupGenerator(t,
		headline(2, "A", "reuters.com"),
		headline(2, "B", "reuters.com"),
		headline(3, "C", "apnews.com"),
		headline(40, "Outside range", "bbc.com"),
	)

	r, err := g.Generate(context.Background(), time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	n := r.News
	if !n.Available {
		t.Fatal("news should be available")
	}
	if n.TotalHeadlines != 3 {
		t.Errorf("TotalHeadlines = %d, want 3", n.TotalHeadlines)
	}
	if n.DaysWithNews != 2 {
		t.Errorf("DaysWithNews = %d, want 2", n.DaysWithNews)
	}
	if n.UniqueSources != 2 {
		t.Errorf("UniqueSources = %d, want 2", n.UniqueSources)
	}
	if n.AvgPerDay != 1.5 {
		t.Errorf("AvgPerDay = %v, want 1.5", n.AvgPerDay)
	}
	if len(n.TopSources) != 2 || n.TopSources[0].Source != "reuters.com" || n.TopSources[0].Count != 2 {
		t.Errorf("TopSources = %+v", n.TopSources)
	}
	if len(n.ByMonth) != 1 || n.ByMonth[0].Month != "2024-03" {
		t.Errorf("ByMonth = %+v", n.ByMonth)
	}
}

func TestGenerate_EmptyNewsIsNoData(t *testing.T) {
	g, _ := setupGenerator(t)

	r, err := g.Generate(context.Background(), time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if r.News.Available {
		t.Error("news should not be available")
	}
	md := RenderMarkdown(r)
	if !strings.Contains(md, "## News\n\nNo data.") {
		t.Error("markdown should report missing news")
	}
}

func TestGenerate_DateRange(t *testing.T) {
	g, _ := setupGenerator(t)

	r, err := g.Generate(context.Background(), day0.AddDate(0, 0, 3), time.Time{})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if r.Overview.Rows != 2 {
		t.Errorf("Rows = %d, want 2", r.Overview.Rows)
	}
	// drawdown is computed over the full history, so both rows remain crisis days
	if r.Overview.CrisisDays != 2 {
		t.Errorf("CrisisDays = %d, want 2", r.Overview.CrisisDays)
	}

	_, err = g.Generate(context.Background(), day0.AddDate(0, 0, 3), day0)
	if err == nil {
		t.Error("expected error for inverted range")
	}
}

func TestGenerate_SufficiencyAndLastRun(t *testing.T) {
	g, runLog := setupGenerator(t)
	ctx := context.Background()

	r, err := g.Generate(ctx, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(r.DataQuality.SufficiencyChecks) == 0 {
		t.Fatal("expected sufficiency checks")
	}
	if r.DataQuality.AllChecksPassed {
		t.Error("five rows should not pass sufficiency")
	}
	if r.DataQuality.RowsRead != 5 {
		t.Errorf("RowsRead = %d, want 5", r.DataQuality.RowsRead)
	}
	if r.LastRun != nil {
		t.Error("expected no last run")
	}

	id := uuid.New()
	if err := runLog.Append(ctx, &storage.RunRecord{
		RunID:      id,
		StartedAt:  day0,
		FinishedAt: day0.Add(time.Minute),
		CrisisDays: 3,
	}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	r, err = g.Generate(ctx, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if r.LastRun == nil || r.LastRun.RunID != id {
		t.Fatalf("LastRun = %+v", r.LastRun)
	}
	if !strings.Contains(RenderMarkdown(r), id.String()) {
		t.Error("markdown should mention the last run")
	}
}

func TestGenerate_MissingPriceTable(t *testing.T) {
	g := NewGenerator(memory.NewPriceStore(nil), memory.NewNewsStore(), nil, nil, Options{})

	_, err := g.Generate(context.Background(), time.Time{}, time.Time{})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestAssemble_EmptySeries(t *testing.T) {
	r, err := Assemble(&pipeline.SeriesTable{Name: "prices"}, nil, time.Time{}, time.Time{}, Options{})
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	if r.Overview.Rows != 0 || r.Overview.MeanReturn != nil {
		t.Errorf("unexpected overview %+v", r.Overview)
	}
	if r.Risk[0].Snapshot != nil {
		t.Error("expected nil snapshot for empty series")
	}
	md := RenderMarkdown(r)
	if !strings.Contains(md, "No price data in the selected range.") {
		t.Error("markdown should report empty range")
	}
	if !strings.Contains(md, "No returns available.") {
		t.Error("markdown should report missing returns")
	}
}

func TestRenderMarkdown_Sections(t *testing.T) {
	g, _ := setupGenerator(t, headline(2, "Rial | dollar", "reuters.com"))

	r, err := g.Generate(context.Background(), time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	md := RenderMarkdown(r)

	sections := []string{
		"# Currency Crisis Risk Report",
		"## Overview",
		"## Data Quality",
		"## Risk Metrics",
		"## Crisis Days by Year",
		"## Seasonality",
		"## Crisis vs Normal Days",
		"## Worst Crisis Days",
		"## Feature Correlation",
		"## Rolling VaR",
		"## News",
		"## Last Reconcile Run",
	}
	for _, s := range sections {
		if !strings.Contains(md, s) {
			t.Errorf("missing section %q", s)
		}
	}
	if !strings.Contains(md, `Rial \| dollar`) {
		t.Error("pipe in headline should be escaped")
	}
	if !strings.Contains(md, "| 95% |") {
		t.Error("risk table should contain the 95% row")
	}
}

func TestRenderSeriesCSV(t *testing.T) {
	rows := pipeline.Derive([]domain.PriceRow{
		{Date: day0, Close: ptr(100.0)},
		{Date: day0.AddDate(0, 0, 1), Close: ptr(70.0)},
	})

	out := RenderSeriesCSV(rows)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if !strings.HasPrefix(lines[0], "date,open,high,low,close,ret,") {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "2024-03-01,,,,100.000000,,,100.000000,0.000000,,,,,0" {
		t.Errorf("row 1 = %q", lines[1])
	}
	if !strings.HasSuffix(lines[2], ",1") {
		t.Errorf("row 2 should be a crisis day: %q", lines[2])
	}
}

func TestRenderRollingVaRCSV(t *testing.T) {
	v := -0.05
	out := RenderRollingVaRCSV([]domain.RollingVaRPoint{
		{Date: day0},
		{Date: day0.AddDate(0, 0, 1), VaR: &v},
	})
	want := "date,var\n2024-03-01,\n2024-03-02,-0.050000\n"
	if out != want {
		t.Errorf("got %q, want %q", out, want)
	}
}

func ptr[T any](v T) *T { return &v }
