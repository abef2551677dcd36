package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"currency-crisis-lab/internal/bootstrap"
	"currency-crisis-lab/internal/config"
	"currency-crisis-lab/internal/logger"
	"currency-crisis-lab/internal/lookup"
	"currency-crisis-lab/internal/normalization"
	"currency-crisis-lab/internal/pipeline"
	"currency-crisis-lab/internal/reporting"
)

// Output file names.
const (
	reportFile     = "RISK_REPORT.md"
	seriesFile     = "DERIVED_SERIES.csv"
	rollingVaRFile = "ROLLING_VAR.csv"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "configs/config.yaml", "Path to YAML config (optional)")
	outputDir := flag.String("output-dir", "docs", "Output directory for generated files")
	fromFlag := flag.String("from", "", "First date to include (YYYY-MM-DD, empty for start of data)")
	toFlag := flag.String("to", "", "Last date to include (YYYY-MM-DD, empty for end of data)")
	flag.Parse()

	from, err := parseDate(*fromFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid --from: %v\n", err)
		os.Exit(2)
	}
	to, err := parseDate(*toFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid --to: %v\n", err)
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(2)
	}
	log, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(2)
	}
	defer log.Sync() //nolint:errcheck

	if err := generate(context.Background(), cfg, log, *outputDir, from, to); err != nil {
		log.Error("report failed", zap.Error(err))
		os.Exit(1)
	}

	fmt.Println("Risk report generated successfully:")
	fmt.Printf("  - %s\n", filepath.Join(*outputDir, reportFile))
	fmt.Printf("  - %s\n", filepath.Join(*outputDir, seriesFile))
	fmt.Printf("  - %s\n", filepath.Join(*outputDir, rollingVaRFile))
}

func generate(ctx context.Context, cfg *config.Config, log *zap.Logger, outputDir string, from, to time.Time) error {
	stores, err := bootstrap.OpenStores(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer stores.Close()

	c, closeCache, err := bootstrap.NewCache(ctx, cfg.Cache, log)
	if err != nil {
		return err
	}
	defer closeCache()

	engine := pipeline.NewEngine(c, log)
	gen := reporting.NewGenerator(stores.Prices, stores.News, stores.RunLog, engine, reporting.Options{
		Levels:        cfg.Risk.Levels,
		RollingWindow: cfg.Risk.RollingWindow,
		RollingLevel:  cfg.Risk.RollingLevel,
	})

	report, err := gen.Generate(ctx, from, to)
	if err != nil {
		return fmt.Errorf("generate report: %w", err)
	}

	// The engine cache makes this a lookup of the series Generate just built.
	raw, err := stores.Prices.Load(ctx)
	if err != nil {
		return fmt.Errorf("load prices: %w", err)
	}
	series, err := engine.Build(ctx, raw)
	if err != nil {
		return err
	}
	rows, err := lookup.Range(series.Rows, from, to)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	files := map[string]string{
		reportFile:     reporting.RenderMarkdown(report),
		seriesFile:     reporting.RenderSeriesCSV(rows),
		rollingVaRFile: reporting.RenderRollingVaRCSV(report.RollingVaR),
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(outputDir, name), []byte(content), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}

	log.Info("report written",
		zap.String("dir", outputDir),
		zap.Int("rows", report.Overview.Rows),
		zap.Int("crisis_days", report.Overview.CrisisDays),
		zap.Bool("news_available", report.News.Available),
	)
	return nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return normalization.ParseGregorianDate(s)
}
