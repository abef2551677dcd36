package metrics

import (
	"math"
	"sort"
)

// computeMean calculates the arithmetic mean.
func computeMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// computeStddev calculates sample standard deviation (n-1 denominator).
// Returns 0 for fewer than 2 values.
func computeStddev(values []float64, mean float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n-1))
}

// computePercentile uses linear interpolation between order statistics.
// sorted must be pre-sorted ASC. p is in [0, 1] (0.05 = 5th percentile).
func computePercentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	idx := p * float64(n-1)
	lower := int(math.Floor(idx))
	if lower < 0 {
		return sorted[0]
	}
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

// computeSkew returns the adjusted Fisher-Pearson skewness (G1).
// Returns nil for fewer than 3 values and 0 for a constant slice.
func computeSkew(values []float64, mean float64) *float64 {
	n := float64(len(values))
	if len(values) < 3 {
		return nil
	}
	var m2, m3 float64
	for _, v := range values {
		d := v - mean
		m2 += d * d
		m3 += d * d * d
	}
	m2 /= n
	m3 /= n
	if m2 == 0 {
		zero := 0.0
		return &zero
	}
	g1 := m3 / math.Pow(m2, 1.5)
	skew := g1 * math.Sqrt(n*(n-1)) / (n - 2)
	return &skew
}

// computeExcessKurtosis returns the bias-corrected excess kurtosis (G2).
// Returns nil for fewer than 4 values and 0 for a constant slice.
func computeExcessKurtosis(values []float64, mean float64) *float64 {
	n := float64(len(values))
	if len(values) < 4 {
		return nil
	}
	var s2, s4 float64
	for _, v := range values {
		d := v - mean
		d2 := d * d
		s2 += d2
		s4 += d2 * d2
	}
	if s2 == 0 {
		zero := 0.0
		return &zero
	}
	numer := n * (n + 1) * (n - 1) * s4
	denom := (n - 2) * (n - 3) * s2 * s2
	adj := 3 * (n - 1) * (n - 1) / ((n - 2) * (n - 3))
	k := numer/denom - adj
	return &k
}

// sortedCopy returns an ascending copy of values.
func sortedCopy(values []float64) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
	sort.Float64s(out)
	return out
}
