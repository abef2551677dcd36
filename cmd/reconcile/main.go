package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"currency-crisis-lab/internal/bootstrap"
	"currency-crisis-lab/internal/config"
	"currency-crisis-lab/internal/logger"
	"currency-crisis-lab/internal/observability"
	"currency-crisis-lab/internal/pipeline"
	"currency-crisis-lab/internal/reconcile"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Parse flags
	configPath := flag.String("config", "configs/config.yaml", "Path to YAML config (optional)")
	noNews := flag.Bool("no-news", false, "Skip the news fetch even if enabled in config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return 2
	}
	if *noNews {
		cfg.News.Enabled = false
	}

	log, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		return 2
	}
	defer log.Sync() //nolint:errcheck

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			log.Warn("received signal, cancelling run", zap.String("signal", sig.String()))
			cancel()
		case <-ctx.Done():
		}
	}()

	stores, err := bootstrap.OpenStores(ctx, cfg, log)
	if err != nil {
		log.Error("open stores", zap.Error(err))
		return 1
	}
	defer func() {
		if err := stores.Close(); err != nil {
			log.Warn("close stores", zap.Error(err))
		}
	}()

	c, closeCache, err := bootstrap.NewCache(ctx, cfg.Cache, log)
	if err != nil {
		log.Error("create cache", zap.Error(err))
		return 1
	}
	defer closeCache()

	metrics := observability.NewMetrics(cfg.Metrics.Namespace)

	r := reconcile.New(reconcile.Options{
		PriceStore:   stores.Prices,
		NewsStore:    stores.News,
		CrisisStore:  stores.Crisis,
		DerivedStore: stores.Derived,
		RunLogStore:  stores.RunLog,
		Fetcher:      bootstrap.NewFetcher(cfg.News, log),
		Engine:       pipeline.NewEngine(c, log),
		Metrics:      metrics,
		Logger:       log,
		LookbackDays: cfg.News.LookbackDays,
		FetchTimeout: cfg.News.Timeout,
		Concurrency:  cfg.News.Concurrency,
	})

	summary := r.Run(ctx)

	if path := cfg.Metrics.TextfilePath; path != "" {
		if err := metrics.WriteTextfile(path); err != nil {
			log.Warn("write metrics textfile", zap.String("path", path), zap.Error(err))
		}
	}

	fmt.Printf("Run %s finished in %s: %d crisis days, %d headlines added, exit %d\n",
		summary.RunID, summary.FinishedAt.Sub(summary.StartedAt).Round(time.Millisecond),
		summary.CrisisDays, summary.HeadlinesAdded, summary.ExitCode())
	return summary.ExitCode()
}
