package metrics

import (
	"math"

	"currency-crisis-lab/internal/domain"
)

// Correlation feature names, in matrix order.
const (
	FeatureRet           = "ret"
	FeatureIntradayRange = "intraday_range"
	FeatureDrawdown      = "drawdown"
	FeatureVol7          = "vol_7"
	FeatureVol30         = "vol_30"
)

// CorrelationFeatures lists the features of the correlation matrix.
var CorrelationFeatures = []string{FeatureRet, FeatureIntradayRange, FeatureDrawdown, FeatureVol7, FeatureVol30}

func featureValues(r domain.ClassifiedRow) []*float64 {
	return []*float64{r.Ret, r.IntradayRange, r.Drawdown, r.Vol7, r.Vol30}
}

// Correlation computes the Pearson correlation matrix over the correlation
// features using only rows where all of them are present (complete cases).
// An entry is nil when either feature has zero variance or fewer than two
// complete rows exist.
func Correlation(rows []domain.ClassifiedRow) domain.CorrelationMatrix {
	k := len(CorrelationFeatures)
	cols := make([][]float64, k)

	for _, r := range rows {
		vals := featureValues(r)
		complete := true
		for _, v := range vals {
			if v == nil {
				complete = false
				break
			}
		}
		if !complete {
			continue
		}
		for j, v := range vals {
			cols[j] = append(cols[j], *v)
		}
	}

	m := domain.CorrelationMatrix{
		Features:     append([]string(nil), CorrelationFeatures...),
		Values:       make([][]*float64, k),
		Observations: len(cols[0]),
	}
	for i := range m.Values {
		m.Values[i] = make([]*float64, k)
	}
	if m.Observations < 2 {
		return m
	}

	for i := 0; i < k; i++ {
		for j := i; j < k; j++ {
			c := pearson(cols[i], cols[j])
			m.Values[i][j] = c
			m.Values[j][i] = c
		}
	}
	return m
}

// pearson returns the Pearson correlation of x and y, or nil if undefined.
func pearson(x, y []float64) *float64 {
	mx := computeMean(x)
	my := computeMean(y)
	var sxy, sxx, syy float64
	for i := range x {
		dx := x[i] - mx
		dy := y[i] - my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return nil
	}
	c := sxy / math.Sqrt(sxx*syy)
	// Clamp rounding drift.
	if c > 1 {
		c = 1
	} else if c < -1 {
		c = -1
	}
	return &c
}
