package pipeline

import (
	"fmt"
	"time"

	"currency-crisis-lab/internal/domain"
	"currency-crisis-lab/internal/metrics"
)

// Sufficiency thresholds for a trustworthy risk report.
const (
	MinParsedRows      = domain.LongWindow + 1
	MinReturns         = 100 // 1% tail needs at least one observation
	MaxDroppedFraction = 0.05
	MaxStalenessDays   = 7
)

// SufficiencyCheck represents one data sufficiency criterion.
type SufficiencyCheck struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// SufficiencyResult contains all checks.
type SufficiencyResult struct {
	Checks  []SufficiencyCheck
	AllPass bool
}

// CheckSufficiency evaluates whether a series supports the report's statistics.
// A failed check is informational; the report is still produced.
func CheckSufficiency(t *SeriesTable, today time.Time) *SufficiencyResult {
	result := &SufficiencyResult{AllPass: true}
	add := func(c SufficiencyCheck) {
		result.Checks = append(result.Checks, c)
		if !c.Pass {
			result.AllPass = false
		}
	}

	add(checkParsedRows(t))
	add(checkReturns(t))
	add(checkDropped(t))
	add(checkStaleness(t, today))
	return result
}

// checkParsedRows: enough rows for the long rolling window.
func checkParsedRows(t *SeriesTable) SufficiencyCheck {
	n := len(t.Rows)
	return SufficiencyCheck{
		Name:      "Parsed rows",
		Threshold: fmt.Sprintf(">= %d", MinParsedRows),
		Actual:    fmt.Sprintf("%d", n),
		Pass:      n >= MinParsedRows,
	}
}

// checkReturns: enough non-null returns for the 99% VaR.
func checkReturns(t *SeriesTable) SufficiencyCheck {
	n := len(metrics.ReturnsOf(t.Rows))
	return SufficiencyCheck{
		Name:      "Non-null returns",
		Threshold: fmt.Sprintf(">= %d", MinReturns),
		Actual:    fmt.Sprintf("%d", n),
		Pass:      n >= MinReturns,
	}
}

// checkDropped: share of source rows without a usable date.
func checkDropped(t *SeriesTable) SufficiencyCheck {
	c := SufficiencyCheck{
		Name:      "Dropped rows",
		Threshold: fmt.Sprintf("<= %.0f%%", MaxDroppedFraction*100),
		Actual:    "0.0%",
		Pass:      true,
	}
	if t.Normalize == nil || t.Normalize.RowsRead == 0 {
		return c
	}
	frac := float64(t.Normalize.RowsDropped) / float64(t.Normalize.RowsRead)
	c.Actual = fmt.Sprintf("%.1f%%", frac*100)
	c.Pass = frac <= MaxDroppedFraction
	return c
}

// checkStaleness: whole days between the last price and today.
func checkStaleness(t *SeriesTable, today time.Time) SufficiencyCheck {
	c := SufficiencyCheck{
		Name:      "Price staleness",
		Threshold: fmt.Sprintf("<= %d days", MaxStalenessDays),
	}
	last := t.LastDate()
	if last.IsZero() {
		c.Actual = "no data"
		return c
	}
	days := StalenessDays(last, today)
	c.Actual = fmt.Sprintf("%d days", days)
	c.Pass = days <= MaxStalenessDays
	return c
}

// StalenessDays returns whole calendar days from last to today, clamped at 0.
func StalenessDays(last, today time.Time) int {
	d := int(domain.Day(today).Sub(domain.Day(last)).Hours() / 24)
	if d < 0 {
		return 0
	}
	return d
}
