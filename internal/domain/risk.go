package domain

import "time"

// RiskSnapshot holds point-in-time risk measures over a slice of returns.
// Computed on demand, never persisted.
type RiskSnapshot struct {
	P              float64  // quantile level, e.g. 0.05 for VaR 95%
	VaR            float64  // p-quantile of returns (linear interpolation)
	CVaR           float64  // mean of returns <= VaR, VaR if none qualify
	Mean           float64  // arithmetic mean
	Std            float64  // sample standard deviation (n-1)
	Skew           *float64 // adjusted Fisher-Pearson skewness, NULL if n < 3
	ExcessKurtosis *float64 // bias-corrected excess kurtosis, NULL if n < 4
	Min            float64
	Max            float64
	Count          int
	RiskAdjusted   float64 // Mean / Std, 0 when Std is 0
}

// CorrelationMatrix is a symmetric Pearson correlation matrix.
// Values[i][j] is NULL when a feature has zero variance over the sample.
type CorrelationMatrix struct {
	Features     []string
	Values       [][]*float64
	Observations int // complete-case rows used
}

// RollingVaRPoint is one point of the rolling VaR series.
type RollingVaRPoint struct {
	Date time.Time
	VaR  *float64 // NULL until the window is full of non-null returns
}
