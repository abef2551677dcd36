package csvfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"currency-crisis-lab/internal/domain"
	"currency-crisis-lab/internal/storage"
)

func ptr[T any](v T) *T {
	return &v
}

var day0 = time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)

func TestPriceStore_LoadSourceFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prices.csv")
	content := "\ufeffOpen Price,Low Price,High Price,Close Price,Change Amount,Change Percent,Gregorian Date,Persian Date\n" +
		"\"1,000\",\"990\",\"1,010\",\"1,005\",5,0.50%,2022/01/01,1400/10/11\n" +
		"\n" +
		"\"1,005\",\"1,000\",\"1,020\",\"1,015\",10,1.00%,2022/01/02,1400/10/12\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	table, err := NewPriceStore(path).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, storage.TablePrices, table.Name)
	assert.Equal(t, "Open Price", table.Header[0])
	require.Len(t, table.Records, 2)
	assert.Equal(t, "1,005", table.Records[0][3])
}

func TestPriceStore_Missing(t *testing.T) {
	_, err := NewPriceStore(filepath.Join(t.TempDir(), "none.csv")).Load(context.Background())
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestNewsStore_MissingFileIsEmpty(t *testing.T) {
	got, err := NewNewsStore(filepath.Join(t.TempDir(), "news.csv")).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestNewsStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "out", "news.csv")
	s := NewNewsStore(path)

	records := []domain.NewsRecord{
		{Date: day0, Title: "Rial hits, record low", URL: "https://a.example/1", Source: "a.example"},
		{Date: day0.AddDate(0, 0, 1), Title: "Quote \"test\"", URL: "u2", Source: "b.example"},
	}
	require.NoError(t, s.ReplaceAll(ctx, records))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, records, got)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "date,title,url,source\n2022-01-01,")
}

func TestNewsStore_FailedWriteKeepsPreviousVersion(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "news.csv")
	s := NewNewsStore(path)

	good := []domain.NewsRecord{{Date: day0, Title: "A", URL: "u1", Source: "s1"}}
	require.NoError(t, s.ReplaceAll(ctx, good))
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	bad := []domain.NewsRecord{{Date: day0, Title: "B"}, {Date: day0, Title: "B"}}
	assert.ErrorIs(t, s.ReplaceAll(ctx, bad), storage.ErrDuplicateKey)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestNewsStore_AcceptsTimestampDates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "news.csv")
	require.NoError(t, os.WriteFile(path, []byte("date,title,url,source\n2022-01-01 00:00:00,A,u,s\n"), 0o644))

	got, err := NewNewsStore(path).Load(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, day0, got[0].Date)
}

func TestNewsStore_MissingColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "news.csv")
	require.NoError(t, os.WriteFile(path, []byte("headline,url\nA,u\n"), 0o644))

	_, err := NewNewsStore(path).Load(context.Background())
	assert.ErrorIs(t, err, domain.ErrSchema)
}

func TestCrisisDateStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewCrisisDateStore(filepath.Join(t.TempDir(), "crisis_dates.csv"))

	dates := []domain.CrisisDate{
		{Date: day0, Close: ptr(60.0), Ret: ptr(-0.3684210526315789), Drawdown: ptr(-0.4), IntradayRange: nil, IsCrisis: true},
	}
	require.NoError(t, s.ReplaceAll(ctx, dates))

	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, dates, got)

	require.NoError(t, s.ReplaceAll(ctx, nil))
	got, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestDerivedSeriesStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := NewDerivedSeriesStore(filepath.Join(t.TempDir(), "derived.csv"))

	var row domain.ClassifiedRow
	row.Date = day0
	row.Close = ptr(100.0)
	row.RunningPeak = ptr(100.0)
	row.Drawdown = ptr(0.0)
	row.Vol7 = ptr(0.012345678901234567)
	row.IsCrisis = false
	second := row
	second.Date = day0.AddDate(0, 0, 1)
	second.Ret = ptr(-0.25)
	second.IsCrisis = true

	require.NoError(t, s.ReplaceAll(ctx, []domain.ClassifiedRow{row, second}))
	got, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []domain.ClassifiedRow{row, second}, got)
}

func TestRunLogStore(t *testing.T) {
	ctx := context.Background()
	s := NewRunLogStore(filepath.Join(t.TempDir(), "runs.csv"))

	_, err := s.Last(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	r1 := &storage.RunRecord{RunID: uuid.New(), StartedAt: day0, FinishedAt: day0.Add(time.Minute), LastPriceDate: day0, CrisisDays: 3}
	r2 := &storage.RunRecord{RunID: uuid.New(), StartedAt: day0.Add(time.Hour), FinishedAt: day0.Add(2 * time.Hour), FetchFailures: 1, ExitCode: 1}
	require.NoError(t, s.Append(ctx, r1))
	require.NoError(t, s.Append(ctx, r2))
	assert.ErrorIs(t, s.Append(ctx, r1), storage.ErrDuplicateKey)

	last, err := s.Last(ctx)
	require.NoError(t, err)
	assert.Equal(t, r2.RunID, last.RunID)
	assert.True(t, last.LastPriceDate.IsZero())
	assert.Equal(t, 1, last.ExitCode)
	assert.Equal(t, 1, last.FetchFailures)
}
