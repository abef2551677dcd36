package reporting

import (
	"time"

	"currency-crisis-lab/internal/crisis"
	"currency-crisis-lab/internal/domain"
	"currency-crisis-lab/internal/storage"
)

// Report is the risk report over a date range of the classified series.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	Table       string
	Fingerprint string
	From        time.Time // first row date in range, zero if empty
	To          time.Time // last row date in range, zero if empty

	Overview Overview

	// Data Quality (sufficiency checks over the full table)
	DataQuality DataQualitySection

	// Risk table, one row per VaR level
	Risk []RiskRow

	// Breakdowns
	Years      []crisis.YearStats
	TopYears   []crisis.YearStats
	Quarters   [4]int // crisis days per calendar quarter
	Monthly    []MonthRow
	Comparison crisis.Comparison
	WorstDays  []WorstDayRow

	Correlation domain.CorrelationMatrix

	RollingWindow int
	RollingLevel  float64
	RollingVaR    []domain.RollingVaRPoint

	News NewsSummary

	// Last reconciler run, nil if none was recorded
	LastRun *storage.RunRecord
}

// Overview is the headline block of the report.
type Overview struct {
	Rows            int
	CrisisDays      int
	CrisisPct       float64 // 0..100
	LastDate        time.Time
	LastClose       *float64
	LastReturn      *float64
	MeanReturn      *float64
	LastVol30       *float64
	MaxDrawdown     *float64
	MaxDrawdownDate time.Time
}

// DataQualitySection contains data sufficiency checks and parse accounting.
type DataQualitySection struct {
	SufficiencyChecks  []SufficiencyCheckRow
	AllChecksPassed    bool
	RowsRead           int
	RowsDropped        int
	DuplicatesResolved int
	ParseErrors        int
}

// SufficiencyCheckRow represents one sufficiency criterion.
type SufficiencyCheckRow struct {
	Name      string
	Threshold string
	Actual    string
	Pass      bool
}

// RiskRow is the risk snapshot at one confidence level.
type RiskRow struct {
	Confidence string // "95%", "99%"
	Snapshot   *domain.RiskSnapshot
}

// MonthRow is the mean return of one calendar month across all years.
type MonthRow struct {
	Month      time.Month
	MeanReturn *float64
}

// WorstDayRow is one of the lowest-return crisis days.
type WorstDayRow struct {
	Date     time.Time
	Close    *float64
	Ret      *float64
	Drawdown *float64
	Headline string // first headline stored for the date, empty if none
}

// NewsSummary describes the news table restricted to the report range.
type NewsSummary struct {
	Available      bool // false when the news table is empty
	TotalHeadlines int
	DaysWithNews   int
	UniqueSources  int
	AvgPerDay      float64
	TopSources     []SourceCount
	ByMonth        []MonthCount
}

// SourceCount is a headline count per publishing domain.
type SourceCount struct {
	Source string
	Count  int
}

// MonthCount is a headline count per year-month ("2024-03").
type MonthCount struct {
	Month string
	Count int
}
