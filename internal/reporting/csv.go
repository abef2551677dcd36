package reporting

import (
	"fmt"
	"strings"

	"currency-crisis-lab/internal/domain"
)

// RenderSeriesCSV renders the classified series as CSV string.
// Null values are written as empty fields.
func RenderSeriesCSV(rows []domain.ClassifiedRow) string {
	var sb strings.Builder

	// Header
	sb.WriteString("date,open,high,low,close,ret,intraday_range,running_peak,drawdown,")
	sb.WriteString("vol_7,vol_30,ma_7,ma_30,is_crisis\n")

	// Rows
	for _, r := range rows {
		crisis := 0
		if r.IsCrisis {
			crisis = 1
		}
		sb.WriteString(fmt.Sprintf("%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%s,%d\n",
			r.DateKey(),
			field(r.Open),
			field(r.High),
			field(r.Low),
			field(r.Close),
			field(r.Ret),
			field(r.IntradayRange),
			field(r.RunningPeak),
			field(r.Drawdown),
			field(r.Vol7),
			field(r.Vol30),
			field(r.MA7),
			field(r.MA30),
			crisis,
		))
	}

	return sb.String()
}

// RenderRollingVaRCSV renders the rolling VaR series as CSV string.
func RenderRollingVaRCSV(points []domain.RollingVaRPoint) string {
	var sb strings.Builder
	sb.WriteString("date,var\n")
	for _, p := range points {
		sb.WriteString(fmt.Sprintf("%s,%s\n", p.Date.Format(domain.DateLayout), field(p.VaR)))
	}
	return sb.String()
}

func field(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.6f", *v)
}
