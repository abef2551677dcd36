package normalization

import (
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"currency-crisis-lab/internal/domain"
)

func ptr[T any](v T) *T {
	return &v
}

var day0 = time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)

// closeRows builds consecutive daily rows with only close set (nil for NaN).
func closeRows(closes ...float64) []domain.PriceRow {
	rows := make([]domain.PriceRow, len(closes))
	for i, c := range closes {
		rows[i] = domain.PriceRow{Date: day0.AddDate(0, 0, i)}
		if !math.IsNaN(c) {
			rows[i].Close = ptr(c)
		}
	}
	return rows
}

func TestComputeDerivedSeries_Empty(t *testing.T) {
	assert.Nil(t, ComputeDerivedSeries(nil))
}

func TestComputeDerivedSeries_SingleRow(t *testing.T) {
	out := ComputeDerivedSeries(closeRows(100))
	require.Len(t, out, 1)

	assert.Nil(t, out[0].Ret)
	require.NotNil(t, out[0].RunningPeak)
	assert.Equal(t, 100.0, *out[0].RunningPeak)
	require.NotNil(t, out[0].Drawdown)
	assert.Equal(t, 0.0, *out[0].Drawdown)
	assert.Nil(t, out[0].Vol7)
	assert.Nil(t, out[0].MA7)
}

func TestComputeDerivedSeries_ThreeCloses(t *testing.T) {
	out := ComputeDerivedSeries(closeRows(100, 95, 60))
	require.Len(t, out, 3)

	assert.Nil(t, out[0].Ret)
	assert.Equal(t, -0.05, *out[1].Ret)
	assert.InDelta(t, -0.368421052631579, *out[2].Ret, 1e-12)

	for _, r := range out {
		assert.Equal(t, 100.0, *r.RunningPeak)
	}
	assert.Equal(t, 0.0, *out[0].Drawdown)
	assert.Equal(t, -0.05, *out[1].Drawdown)
	assert.Equal(t, -0.4, *out[2].Drawdown)
}

func TestComputeDerivedSeries_MissingCloseCarriesPeak(t *testing.T) {
	out := ComputeDerivedSeries(closeRows(100, 120, math.NaN(), 90))

	assert.Nil(t, out[2].Ret)
	assert.Nil(t, out[3].Ret)
	assert.Nil(t, out[2].Drawdown)
	require.NotNil(t, out[2].RunningPeak)
	assert.Equal(t, 120.0, *out[2].RunningPeak)
	assert.Equal(t, 120.0, *out[3].RunningPeak)
	assert.Equal(t, -0.25, *out[3].Drawdown)
}

func TestComputeDerivedSeries_LeadingMissingClose(t *testing.T) {
	out := ComputeDerivedSeries(closeRows(math.NaN(), 50))

	assert.Nil(t, out[0].RunningPeak)
	assert.Nil(t, out[0].Drawdown)
	assert.Equal(t, 50.0, *out[1].RunningPeak)
	assert.Equal(t, 0.0, *out[1].Drawdown)
}

func TestComputeDerivedSeries_IntradayRange(t *testing.T) {
	rows := []domain.PriceRow{
		{Date: day0, Open: ptr(100.0), High: ptr(110.0), Low: ptr(95.0), Close: ptr(105.0)},
		{Date: day0.AddDate(0, 0, 1), Open: ptr(0.0), High: ptr(1.0), Low: ptr(0.5), Close: ptr(1.0)},
		{Date: day0.AddDate(0, 0, 2), High: ptr(1.0), Low: ptr(0.5), Close: ptr(1.0)},
	}
	out := ComputeDerivedSeries(rows)

	assert.InDelta(t, 0.15, *out[0].IntradayRange, 1e-15)
	assert.Nil(t, out[1].IntradayRange)
	assert.Nil(t, out[2].IntradayRange)
}

func TestComputeDerivedSeries_RollingWindows(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100 + float64(i%5)
	}
	out := ComputeDerivedSeries(closeRows(closes...))

	// MA7 needs 7 closes, Vol7 needs 7 returns (ret[0] is NULL).
	assert.Nil(t, out[5].MA7)
	require.NotNil(t, out[6].MA7)
	assert.Nil(t, out[6].Vol7)
	require.NotNil(t, out[7].Vol7)
	assert.Nil(t, out[28].MA30)
	require.NotNil(t, out[29].MA30)
	assert.Nil(t, out[29].Vol30)
	require.NotNil(t, out[30].Vol30)

	assert.InDelta(t, mean(closes[0:7]), *out[6].MA7, 1e-12)

	rets := make([]float64, 0, 7)
	for i := 1; i <= 7; i++ {
		rets = append(rets, *out[i].Ret)
	}
	assert.Equal(t, sampleStd(rets), *out[7].Vol7)
}

func TestComputeDerivedSeries_GapInWindowNullsRolling(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}
	closes[3] = math.NaN()
	out := ComputeDerivedSeries(closeRows(closes...))

	// ret[3] and ret[4] are NULL, so windows covering index 4 have no vol.
	for i := 4; i <= 10; i++ {
		assert.Nil(t, out[i].Vol7, "row %d", i)
	}
	require.NotNil(t, out[11].Vol7)
	// close[3] is NULL, so MA7 is NULL through row 9.
	assert.Nil(t, out[9].MA7)
	require.NotNil(t, out[10].MA7)
}

func TestComputeDerivedSeries_PeakMonotonicDrawdownNonPositive(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	closes := make([]float64, 500)
	price := 50000.0
	for i := range closes {
		price *= 1 + (rng.Float64()-0.5)*0.1
		closes[i] = price
		if rng.Intn(20) == 0 {
			closes[i] = math.NaN()
		}
	}
	out := ComputeDerivedSeries(closeRows(closes...))

	var prevPeak *float64
	for i, r := range out {
		if prevPeak != nil {
			require.NotNil(t, r.RunningPeak)
			assert.GreaterOrEqual(t, *r.RunningPeak, *prevPeak, "row %d", i)
		}
		prevPeak = r.RunningPeak
		if r.Drawdown != nil {
			assert.LessOrEqual(t, *r.Drawdown, 0.0, "row %d", i)
		}
	}
}

func TestComputeDerivedSeries_RebuildIsDeterministic(t *testing.T) {
	rows := closeRows(10, 11, 9, 12, 8, 13, 7, 14, 6, 15)
	assert.Equal(t, ComputeDerivedSeries(rows), ComputeDerivedSeries(rows))
}
