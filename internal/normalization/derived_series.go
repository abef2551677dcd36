package normalization

import (
	"math"

	"currency-crisis-lab/internal/domain"
)

// ComputeDerivedSeries builds one DerivedRow per PriceRow, in the same order.
// Rows must be ascending by date; ordering is not checked here.
//
// Formulas:
//   - ret[i] = close[i]/close[i-1] - 1, NULL for i=0 or if either close is missing
//   - intraday_range = (high - low) / open, NULL if open is zero or any field missing
//   - running_peak[i] = max(running_peak[i-1], close[i]), carried forward over missing close
//   - drawdown = close / running_peak - 1, NULL unless both present and running_peak > 0
//   - vol_k = sample stddev of ret over the trailing k rows, NULL unless all k are present
//   - ma_k = mean close over the trailing k rows, NULL unless all k are present
//
// ret and drawdown are evaluated as (a-b)/b so that a single rounding step is
// applied; 95 after 100 yields exactly -0.05 rather than -0.050000000000000044.
//
// Rolling values are recomputed from the window at every row so each value
// equals a direct trailing-window evaluation.
func ComputeDerivedSeries(rows []domain.PriceRow) []domain.DerivedRow {
	if len(rows) == 0 {
		return nil
	}

	out := make([]domain.DerivedRow, len(rows))
	closes := make([]*float64, len(rows))
	rets := make([]*float64, len(rows))

	var peak *float64
	for i, row := range rows {
		d := domain.DerivedRow{PriceRow: row}
		closes[i] = row.Close

		if i > 0 {
			rets[i] = simpleReturn(rows[i-1].Close, row.Close)
		}
		d.Ret = rets[i]
		d.IntradayRange = intradayRange(row)

		if row.Close != nil && (peak == nil || *row.Close > *peak) {
			v := *row.Close
			peak = &v
		}
		if peak != nil {
			v := *peak
			d.RunningPeak = &v
		}
		if row.Close != nil && peak != nil && *peak > 0 {
			v := (*row.Close - *peak) / *peak
			d.Drawdown = &v
		}

		d.Vol7 = trailingStd(rets, i, domain.ShortWindow)
		d.Vol30 = trailingStd(rets, i, domain.LongWindow)
		d.MA7 = trailingMean(closes, i, domain.ShortWindow)
		d.MA30 = trailingMean(closes, i, domain.LongWindow)

		out[i] = d
	}
	return out
}

func simpleReturn(prev, cur *float64) *float64 {
	if prev == nil || cur == nil || *prev == 0 {
		return nil
	}
	v := (*cur - *prev) / *prev
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}

func intradayRange(row domain.PriceRow) *float64 {
	if row.Open == nil || row.High == nil || row.Low == nil || *row.Open == 0 {
		return nil
	}
	v := (*row.High - *row.Low) / *row.Open
	return &v
}

// window returns values[end-k+1 : end+1] if it is full and has no nil entries.
func window(values []*float64, end, k int) ([]float64, bool) {
	start := end - k + 1
	if k <= 0 || start < 0 {
		return nil, false
	}
	w := make([]float64, 0, k)
	for _, v := range values[start : end+1] {
		if v == nil {
			return nil, false
		}
		w = append(w, *v)
	}
	return w, true
}

func trailingMean(values []*float64, end, k int) *float64 {
	w, ok := window(values, end, k)
	if !ok {
		return nil
	}
	v := mean(w)
	return &v
}

func trailingStd(values []*float64, end, k int) *float64 {
	w, ok := window(values, end, k)
	if !ok || len(w) < 2 {
		return nil
	}
	v := sampleStd(w)
	return &v
}

func mean(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sampleStd uses the n-1 denominator.
func sampleStd(values []float64) float64 {
	m := mean(values)
	sumSq := 0.0
	for _, v := range values {
		d := v - m
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)-1))
}
