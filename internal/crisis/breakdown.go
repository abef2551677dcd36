package crisis

import (
	"sort"
	"time"

	"currency-crisis-lab/internal/domain"
)

// YearStats is the crisis breakdown of a calendar year.
type YearStats struct {
	Year       int
	CrisisDays int
	TotalDays  int
	CrisisPct  float64 // 0..100
}

// ByYear returns per-year crisis counts, ascending by year.
func ByYear(rows []domain.ClassifiedRow) []YearStats {
	idx := make(map[int]*YearStats)
	for _, r := range rows {
		y := r.Year()
		s, ok := idx[y]
		if !ok {
			s = &YearStats{Year: y}
			idx[y] = s
		}
		s.TotalDays++
		if r.IsCrisis {
			s.CrisisDays++
		}
	}

	out := make([]YearStats, 0, len(idx))
	for _, s := range idx {
		if s.TotalDays > 0 {
			s.CrisisPct = float64(s.CrisisDays) / float64(s.TotalDays) * 100
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

// TopYears returns up to n years with the most crisis days.
// Ties are broken by earlier year.
func TopYears(stats []YearStats, n int) []YearStats {
	sorted := make([]YearStats, len(stats))
	copy(sorted, stats)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].CrisisDays != sorted[j].CrisisDays {
			return sorted[i].CrisisDays > sorted[j].CrisisDays
		}
		return sorted[i].Year < sorted[j].Year
	})
	if n >= 0 && n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

// ByQuarter returns crisis day counts per calendar quarter; index 0 is Q1.
func ByQuarter(rows []domain.ClassifiedRow) [4]int {
	var out [4]int
	for _, r := range rows {
		if r.IsCrisis {
			out[r.Quarter()-1]++
		}
	}
	return out
}

// MonthlyMeanReturn returns the mean non-null return per calendar month.
// Months without returns map to nil.
func MonthlyMeanReturn(rows []domain.ClassifiedRow) map[time.Month]*float64 {
	sums := make(map[time.Month]float64)
	counts := make(map[time.Month]int)
	for _, r := range rows {
		if r.Ret == nil {
			continue
		}
		sums[r.Month()] += *r.Ret
		counts[r.Month()]++
	}

	out := make(map[time.Month]*float64, 12)
	for m := time.January; m <= time.December; m++ {
		if counts[m] == 0 {
			out[m] = nil
			continue
		}
		v := sums[m] / float64(counts[m])
		out[m] = &v
	}
	return out
}

// Comparison contrasts crisis days with normal days.
type Comparison struct {
	CrisisDays       int
	NormalDays       int
	CrisisMeanReturn *float64
	NormalMeanReturn *float64
	CrisisMeanRange  *float64
	NormalMeanRange  *float64
}

// Compare computes mean return and intraday range for crisis vs normal days.
func Compare(rows []domain.ClassifiedRow) Comparison {
	var c Comparison
	var crisisRet, normalRet, crisisRange, normalRange meanAcc
	for _, r := range rows {
		if r.IsCrisis {
			c.CrisisDays++
			crisisRet.add(r.Ret)
			crisisRange.add(r.IntradayRange)
		} else {
			c.NormalDays++
			normalRet.add(r.Ret)
			normalRange.add(r.IntradayRange)
		}
	}
	c.CrisisMeanReturn = crisisRet.value()
	c.NormalMeanReturn = normalRet.value()
	c.CrisisMeanRange = crisisRange.value()
	c.NormalMeanRange = normalRange.value()
	return c
}

// WorstDays returns up to n crisis rows with the lowest returns, worst first.
// Rows without a return are excluded.
func WorstDays(rows []domain.ClassifiedRow, n int) []domain.ClassifiedRow {
	out := make([]domain.ClassifiedRow, 0)
	for _, r := range rows {
		if r.IsCrisis && r.Ret != nil {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return *out[i].Ret < *out[j].Ret
	})
	if n >= 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

type meanAcc struct {
	sum float64
	n   int
}

func (a *meanAcc) add(v *float64) {
	if v == nil {
		return
	}
	a.sum += *v
	a.n++
}

func (a *meanAcc) value() *float64 {
	if a.n == 0 {
		return nil
	}
	v := a.sum / float64(a.n)
	return &v
}
