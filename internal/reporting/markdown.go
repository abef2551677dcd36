package reporting

import (
	"fmt"
	"strings"
	"time"

	"currency-crisis-lab/internal/domain"
)

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Currency Crisis Risk Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	if r.Overview.Rows == 0 {
		sb.WriteString("No price data in the selected range.\n\n")
	} else {
		sb.WriteString(fmt.Sprintf("Range: %s to %s | Table: %s | Fingerprint: %s\n\n",
			day(r.From), day(r.To), r.Table, shortFingerprint(r.Fingerprint)))
	}

	// Overview
	o := r.Overview
	sb.WriteString("## Overview\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Trading Days | %d |\n", o.Rows))
	sb.WriteString(fmt.Sprintf("| Crisis Days | %d (%.2f%%) |\n", o.CrisisDays, o.CrisisPct))
	sb.WriteString(fmt.Sprintf("| Last Date | %s |\n", day(o.LastDate)))
	sb.WriteString(fmt.Sprintf("| Last Close | %s |\n", num(o.LastClose, "%.0f")))
	sb.WriteString(fmt.Sprintf("| Last Return | %s |\n", pct(o.LastReturn)))
	sb.WriteString(fmt.Sprintf("| Mean Daily Return | %s |\n", pct(o.MeanReturn)))
	sb.WriteString(fmt.Sprintf("| 30-Day Volatility | %s |\n", pct(o.LastVol30)))
	sb.WriteString(fmt.Sprintf("| Max Drawdown | %s (%s) |\n", pct(o.MaxDrawdown), day(o.MaxDrawdownDate)))
	sb.WriteString("\n")

	// Data Quality
	sb.WriteString("## Data Quality\n\n")
	dq := r.DataQuality
	sb.WriteString(fmt.Sprintf("Rows read: %d | dropped: %d | duplicates resolved: %d | parse errors: %d\n\n",
		dq.RowsRead, dq.RowsDropped, dq.DuplicatesResolved, dq.ParseErrors))
	if len(dq.SufficiencyChecks) > 0 {
		sb.WriteString("### Sufficiency Checks\n\n")
		sb.WriteString("| Check | Threshold | Actual | Status |\n")
		sb.WriteString("|-------|-----------|--------|--------|\n")
		for _, check := range dq.SufficiencyChecks {
			status := "FAIL"
			if check.Pass {
				status = "PASS"
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
				check.Name, check.Threshold, check.Actual, status))
		}
		sb.WriteString("\n")

		if dq.AllChecksPassed {
			sb.WriteString("**All checks passed.**\n\n")
		} else {
			sb.WriteString("**Some checks failed.** Risk figures may be unreliable.\n\n")
		}
	}

	// Risk
	sb.WriteString("## Risk Metrics\n\n")
	if len(r.Risk) > 0 && r.Risk[0].Snapshot != nil {
		sb.WriteString("| Confidence | VaR | CVaR | Mean | Std | Risk-Adjusted | Min | Skew | Excess Kurtosis | N |\n")
		sb.WriteString("|------------|-----|------|------|-----|---------------|-----|------|-----------------|---|\n")
		for _, row := range r.Risk {
			s := row.Snapshot
			if s == nil {
				continue
			}
			sb.WriteString(fmt.Sprintf("| %s | %.2f%% | %.2f%% | %.4f%% | %.4f%% | %.4f | %.2f%% | %s | %s | %d |\n",
				row.Confidence, s.VaR*100, s.CVaR*100, s.Mean*100, s.Std*100, s.RiskAdjusted, s.Min*100,
				num(s.Skew, "%.4f"), num(s.ExcessKurtosis, "%.4f"), s.Count))
		}
	} else {
		sb.WriteString("No returns available.\n")
	}
	sb.WriteString("\n")

	// Yearly
	sb.WriteString("## Crisis Days by Year\n\n")
	if len(r.Years) > 0 {
		sb.WriteString("| Year | Crisis Days | Total Days | Crisis % |\n")
		sb.WriteString("|------|-------------|------------|----------|\n")
		for _, y := range r.Years {
			sb.WriteString(fmt.Sprintf("| %d | %d | %d | %.2f |\n", y.Year, y.CrisisDays, y.TotalDays, y.CrisisPct))
		}
		sb.WriteString("\nTop years: ")
		for i, y := range r.TopYears {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(fmt.Sprintf("%d (%d)", y.Year, y.CrisisDays))
		}
		sb.WriteString("\n")
	} else {
		sb.WriteString("No data.\n")
	}
	sb.WriteString("\n")

	// Quarterly and monthly
	sb.WriteString("## Seasonality\n\n")
	sb.WriteString("| Quarter | Crisis Days |\n")
	sb.WriteString("|---------|-------------|\n")
	for i, c := range r.Quarters {
		sb.WriteString(fmt.Sprintf("| Q%d | %d |\n", i+1, c))
	}
	sb.WriteString("\n")
	if len(r.Monthly) > 0 {
		sb.WriteString("| Month | Mean Return |\n")
		sb.WriteString("|-------|-------------|\n")
		for _, m := range r.Monthly {
			sb.WriteString(fmt.Sprintf("| %s | %s |\n", m.Month, pct(m.MeanReturn)))
		}
		sb.WriteString("\n")
	}

	// Crisis vs normal
	c := r.Comparison
	sb.WriteString("## Crisis vs Normal Days\n\n")
	sb.WriteString("| Group | Days | Mean Return | Mean Intraday Range |\n")
	sb.WriteString("|-------|------|-------------|---------------------|\n")
	sb.WriteString(fmt.Sprintf("| Crisis | %d | %s | %s |\n", c.CrisisDays, pct(c.CrisisMeanReturn), pct(c.CrisisMeanRange)))
	sb.WriteString(fmt.Sprintf("| Normal | %d | %s | %s |\n", c.NormalDays, pct(c.NormalMeanReturn), pct(c.NormalMeanRange)))
	sb.WriteString("\n")

	// Worst days
	sb.WriteString("## Worst Crisis Days\n\n")
	if len(r.WorstDays) > 0 {
		sb.WriteString("| Date | Close | Return | Drawdown | Headline |\n")
		sb.WriteString("|------|-------|--------|----------|----------|\n")
		for _, w := range r.WorstDays {
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s |\n",
				day(w.Date), num(w.Close, "%.0f"), pct(w.Ret), pct(w.Drawdown), escapeCell(w.Headline)))
		}
	} else {
		sb.WriteString("No crisis days in range.\n")
	}
	sb.WriteString("\n")

	// Correlation
	sb.WriteString("## Feature Correlation\n\n")
	if m := r.Correlation; len(m.Features) > 0 && m.Observations > 0 {
		sb.WriteString(fmt.Sprintf("Complete-case observations: %d\n\n", m.Observations))
		sb.WriteString("| |")
		for _, f := range m.Features {
			sb.WriteString(" " + f + " |")
		}
		sb.WriteString("\n|---|")
		for range m.Features {
			sb.WriteString("---|")
		}
		sb.WriteString("\n")
		for i, f := range m.Features {
			sb.WriteString("| " + f + " |")
			for j := range m.Features {
				sb.WriteString(" " + num(m.Values[i][j], "%.3f") + " |")
			}
			sb.WriteString("\n")
		}
	} else {
		sb.WriteString("Not enough complete rows.\n")
	}
	sb.WriteString("\n")

	// Rolling VaR
	sb.WriteString("## Rolling VaR\n\n")
	if last := lastRollingVaR(r.RollingVaR); last != nil {
		sb.WriteString(fmt.Sprintf("Latest %d-day VaR at %s: %s (%s)\n",
			r.RollingWindow, confidenceLabel(r.RollingLevel), pct(last.VaR), day(last.Date)))
	} else {
		sb.WriteString(fmt.Sprintf("Fewer than %d consecutive returns.\n", r.RollingWindow))
	}
	sb.WriteString("\n")

	// News
	n := r.News
	sb.WriteString("## News\n\n")
	if !n.Available {
		sb.WriteString("No data.\n\n")
	} else {
		sb.WriteString("| Metric | Value |\n")
		sb.WriteString("|--------|-------|\n")
		sb.WriteString(fmt.Sprintf("| Total Headlines | %d |\n", n.TotalHeadlines))
		sb.WriteString(fmt.Sprintf("| Days with News | %d |\n", n.DaysWithNews))
		sb.WriteString(fmt.Sprintf("| Unique Sources | %d |\n", n.UniqueSources))
		sb.WriteString(fmt.Sprintf("| Avg Headlines per Day | %.1f |\n", n.AvgPerDay))
		sb.WriteString("\n")
		if len(n.TopSources) > 0 {
			sb.WriteString("### Top Sources\n\n")
			sb.WriteString("| Source | Headlines |\n")
			sb.WriteString("|--------|-----------|\n")
			for _, s := range n.TopSources {
				sb.WriteString(fmt.Sprintf("| %s | %d |\n", s.Source, s.Count))
			}
			sb.WriteString("\n")
		}
	}

	// Last run
	sb.WriteString("## Last Reconcile Run\n\n")
	if lr := r.LastRun; lr != nil {
		sb.WriteString(fmt.Sprintf("Run %s finished %s (exit %d): %d crisis days, %d fetches ok, %d failed, %d headlines added.\n",
			lr.RunID, lr.FinishedAt.Format(time.RFC3339), lr.ExitCode,
			lr.CrisisDays, lr.FetchSuccesses, lr.FetchFailures, lr.HeadlinesAdded))
	} else {
		sb.WriteString("No runs recorded.\n")
	}
	sb.WriteString("\n")

	return sb.String()
}

func lastRollingVaR(points []domain.RollingVaRPoint) *domain.RollingVaRPoint {
	for i := len(points) - 1; i >= 0; i-- {
		if points[i].VaR != nil {
			return &points[i]
		}
	}
	return nil
}

func day(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(domain.DateLayout)
}

func num(v *float64, format string) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf(format, *v)
}

func pct(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f%%", *v*100)
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
