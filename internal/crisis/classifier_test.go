package crisis

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"currency-crisis-lab/internal/domain"
	"currency-crisis-lab/internal/normalization"
)

func ptr[T any](v T) *T {
	return &v
}

var day0 = time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)

func derivedFromCloses(closes ...float64) []domain.DerivedRow {
	rows := make([]domain.PriceRow, len(closes))
	for i, c := range closes {
		rows[i] = domain.PriceRow{Date: day0.AddDate(0, 0, i), Close: ptr(c)}
	}
	return normalization.ComputeDerivedSeries(rows)
}

func TestIsCrisis_Thresholds(t *testing.T) {
	tests := []struct {
		name     string
		ret      *float64
		drawdown *float64
		want     bool
	}{
		{"both nil", nil, nil, false},
		{"return exactly threshold", ptr(-0.05), ptr(-0.05), false},
		{"return below threshold", ptr(-0.0500001), nil, true},
		{"drawdown exactly threshold", nil, ptr(-0.20), true},
		{"drawdown above threshold", ptr(0.01), ptr(-0.1999), false},
		{"positive return deep drawdown", ptr(0.10), ptr(-0.5), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := domain.DerivedRow{Ret: tt.ret, Drawdown: tt.drawdown}
			assert.Equal(t, tt.want, IsCrisis(row))
		})
	}
}

func TestClassify_ThreeCloses(t *testing.T) {
	out := Classify(derivedFromCloses(100, 95, 60))
	require.Len(t, out, 3)

	assert.False(t, out[0].IsCrisis)
	assert.False(t, out[1].IsCrisis, "ret of exactly -0.05 is not a crisis")
	assert.True(t, out[2].IsCrisis)
	assert.Equal(t, 1, CountCrisis(out))

	dates := Dates(out)
	require.Len(t, dates, 1)
	assert.Equal(t, day0.AddDate(0, 0, 2), dates[0].Date)
	assert.Equal(t, -0.4, *dates[0].Drawdown)
}

func TestClassify_SingleRow(t *testing.T) {
	out := Classify(derivedFromCloses(42))
	require.Len(t, out, 1)
	assert.Zero(t, CountCrisis(out))
	assert.Empty(t, Dates(out))
}

func TestClassify_MatchesPredicateExactly(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	closes := make([]float64, 300)
	price := 1000.0
	for i := range closes {
		price *= 1 + (rng.Float64()-0.55)*0.15
		closes[i] = price
	}
	out := Classify(derivedFromCloses(closes...))

	for i, r := range out {
		want := (r.Ret != nil && *r.Ret < -0.05) || (r.Drawdown != nil && *r.Drawdown <= -0.20)
		assert.Equal(t, want, r.IsCrisis, "row %d", i)
	}
}

func TestClassify_Idempotent(t *testing.T) {
	derived := derivedFromCloses(100, 80, 85, 70, 90, 120, 100)
	first := Dates(Classify(derived))
	second := Dates(Classify(derived))
	assert.Equal(t, first, second)
}
