package metrics

import (
	"errors"
	"fmt"
	"math"
	"time"

	"currency-crisis-lab/internal/domain"
)

var (
	// ErrEmptySlice is returned when a risk measure is requested over no returns.
	ErrEmptySlice = errors.New("empty return slice")

	// ErrInvalidLevel is returned when the quantile level is outside (0, 1).
	ErrInvalidLevel = errors.New("quantile level must be in (0, 1)")
)

// Standard VaR levels: p = 0.05 is VaR 95%, p = 0.01 is VaR 99%.
const (
	Level95 = 0.05
	Level99 = 0.01
)

// Quantile returns the p-quantile of values using linear interpolation
// between order statistics (index p*(n-1) into the sorted slice).
func Quantile(values []float64, p float64) (float64, error) {
	if len(values) == 0 {
		return 0, ErrEmptySlice
	}
	if p < 0 || p > 1 || math.IsNaN(p) {
		return 0, ErrInvalidLevel
	}
	return computePercentile(sortedCopy(values), p), nil
}

// Snapshot computes VaR, CVaR and the distribution moments of returns at level p.
// Nulls must already be excluded from returns.
//
//   - var = p-quantile (linear interpolation)
//   - cvar = mean of returns <= var, or var if none qualify
//   - risk_adjusted = mean / std, or 0 if std is 0
func Snapshot(returns []float64, p float64) (*domain.RiskSnapshot, error) {
	if len(returns) == 0 {
		return nil, ErrEmptySlice
	}
	if p <= 0 || p >= 1 || math.IsNaN(p) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLevel, p)
	}

	sorted := sortedCopy(returns)
	mean := computeMean(returns)
	std := computeStddev(returns, mean)
	varP := computePercentile(sorted, p)

	snap := &domain.RiskSnapshot{
		P:              p,
		VaR:            varP,
		CVaR:           computeCVaR(sorted, varP),
		Mean:           mean,
		Std:            std,
		Skew:           computeSkew(returns, mean),
		ExcessKurtosis: computeExcessKurtosis(returns, mean),
		Min:            sorted[0],
		Max:            sorted[len(sorted)-1],
		Count:          len(returns),
	}
	if std != 0 {
		snap.RiskAdjusted = mean / std
	}
	return snap, nil
}

// computeCVaR averages the sorted values at or below varP.
func computeCVaR(sorted []float64, varP float64) float64 {
	sum := 0.0
	n := 0
	for _, v := range sorted {
		if v > varP {
			break
		}
		sum += v
		n++
	}
	if n == 0 {
		return varP
	}
	return sum / float64(n)
}

// ReturnsOf extracts the non-null returns of rows in order.
func ReturnsOf(rows []domain.ClassifiedRow) []float64 {
	out := make([]float64, 0, len(rows))
	for _, r := range rows {
		if r.Ret != nil {
			out = append(out, *r.Ret)
		}
	}
	return out
}

// RollingVaR computes VaR at level p over each trailing window of returns.
// A point is nil until window consecutive rows all have a return.
func RollingVaR(rows []domain.ClassifiedRow, window int, p float64) ([]domain.RollingVaRPoint, error) {
	if window <= 0 {
		return nil, fmt.Errorf("rolling window must be positive, got %d", window)
	}
	if p <= 0 || p >= 1 || math.IsNaN(p) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLevel, p)
	}

	out := make([]domain.RollingVaRPoint, len(rows))
	buf := make([]float64, 0, window)
	for i, r := range rows {
		out[i] = domain.RollingVaRPoint{Date: r.Date}
		start := i - window + 1
		if start < 0 {
			continue
		}
		buf = buf[:0]
		for _, w := range rows[start : i+1] {
			if w.Ret == nil {
				break
			}
			buf = append(buf, *w.Ret)
		}
		if len(buf) < window {
			continue
		}
		v := computePercentile(sortedCopy(buf), p)
		out[i].VaR = &v
	}
	return out, nil
}

// MaxDrawdown returns the most negative drawdown and the first date it occurred.
// Returns nil when no row has a drawdown.
func MaxDrawdown(rows []domain.ClassifiedRow) (*float64, time.Time) {
	var worst *float64
	var at time.Time
	for _, r := range rows {
		if r.Drawdown == nil {
			continue
		}
		if worst == nil || *r.Drawdown < *worst {
			v := *r.Drawdown
			worst = &v
			at = r.Date
		}
	}
	return worst, at
}
