// Package bootstrap turns a Config into the stores, cache and clients shared by
// the command-line entry points.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"

	"go.uber.org/zap"

	"currency-crisis-lab/internal/cache"
	"currency-crisis-lab/internal/config"
	"currency-crisis-lab/internal/httputil"
	"currency-crisis-lab/internal/news"
	"currency-crisis-lab/internal/storage"
	chstore "currency-crisis-lab/internal/storage/clickhouse"
	"currency-crisis-lab/internal/storage/csvfile"
	"currency-crisis-lab/internal/storage/migrations"
	pgstore "currency-crisis-lab/internal/storage/postgres"
	"currency-crisis-lab/internal/storage/sqlite"
)

// RunLogFile is the csv backend run history, kept next to the news table.
const RunLogFile = "reconcile_runs.csv"

// Stores bundles the stores of one backend. Derived is nil when no sink is configured.
type Stores struct {
	Prices  storage.PriceStore
	News    storage.NewsStore
	Crisis  storage.CrisisDateStore
	Derived storage.DerivedSeriesStore
	RunLog  storage.RunLogStore

	closers []func() error
}

// Close releases every connection opened by OpenStores.
func (s *Stores) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OpenStores connects the configured backend. Database backends import the
// price CSV at data.prices_path when their price table is still empty.
func OpenStores(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Stores, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("bootstrap")
	s := &Stores{}

	switch cfg.Storage.Backend {
	case config.BackendCSV:
		s.Prices = csvfile.NewPriceStore(cfg.Data.PricesPath)
		s.News = csvfile.NewNewsStore(cfg.Data.NewsPath)
		s.Crisis = csvfile.NewCrisisDateStore(cfg.Data.CrisisPath)
		s.RunLog = csvfile.NewRunLogStore(filepath.Join(filepath.Dir(cfg.Data.NewsPath), RunLogFile))

	case config.BackendSQLite:
		db, err := sqlite.Open(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		s.closers = append(s.closers, db.Close)
		s.Prices = sqlite.NewPriceStore(db)
		s.News = sqlite.NewNewsStore(db)
		s.Crisis = sqlite.NewCrisisDateStore(db)
		s.RunLog = sqlite.NewRunLogStore(db)
		logger.Info("sqlite opened", zap.String("path", cfg.Storage.SQLitePath))

	case config.BackendPostgres:
		pool, err := pgstore.NewPool(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}
		s.closers = append(s.closers, func() error { pool.Close(); return nil })
		if cfg.Storage.Migrate {
			applied, err := migrations.RunPostgresMigrations(ctx, pool)
			if err != nil {
				s.Close()
				return nil, fmt.Errorf("postgres migrations: %w", err)
			}
			logger.Info("postgres migrations applied", zap.Strings("files", applied))
		}
		s.Prices = pgstore.NewPriceStore(pool)
		s.News = pgstore.NewNewsStore(pool)
		s.Crisis = pgstore.NewCrisisDateStore(pool)
		s.RunLog = pgstore.NewRunLogStore(pool)

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	if cfg.Storage.Backend != config.BackendCSV && cfg.Data.PricesPath != "" {
		imported, err := ImportPrices(ctx, s.Prices, csvfile.NewPriceStore(cfg.Data.PricesPath))
		if err != nil {
			s.Close()
			return nil, err
		}
		if imported > 0 {
			logger.Info("price table imported", zap.String("path", cfg.Data.PricesPath), zap.Int("records", imported))
		}
	}

	derived, err := openDerived(ctx, cfg, s)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.Derived = derived

	return s, nil
}

func openDerived(ctx context.Context, cfg *config.Config, s *Stores) (storage.DerivedSeriesStore, error) {
	switch {
	case cfg.Storage.ClickhouseDSN != "":
		var (
			conn *chstore.Conn
			err  error
		)
		if cfg.Storage.Migrate {
			conn, err = migrations.RunClickhouseMigrations(ctx, cfg.Storage.ClickhouseDSN)
		} else {
			conn, err = chstore.NewConn(ctx, cfg.Storage.ClickhouseDSN)
		}
		if err != nil {
			return nil, fmt.Errorf("connect clickhouse: %w", err)
		}
		s.closers = append(s.closers, conn.Close)
		return chstore.NewDerivedSeriesStore(conn), nil
	case cfg.Data.DerivedPath != "":
		return csvfile.NewDerivedSeriesStore(cfg.Data.DerivedPath), nil
	default:
		return nil, nil
	}
}

// ImportPrices copies src into dst when dst has no price table yet.
// Returns the number of records copied. A missing source is not an error.
func ImportPrices(ctx context.Context, dst, src storage.PriceStore) (int, error) {
	if _, err := dst.Load(ctx); err == nil {
		return 0, nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return 0, fmt.Errorf("check price table: %w", err)
	}

	table, err := src.Load(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read price source: %w", err)
	}
	table.Name = storage.TablePrices
	if err := dst.ReplaceAll(ctx, table); err != nil {
		return 0, fmt.Errorf("import prices: %w", err)
	}
	return len(table.Records), nil
}

// NewCache builds the configured derived-table cache. The returned close
// function is never nil.
func NewCache(ctx context.Context, cfg config.CacheConfig, logger *zap.Logger) (cache.Cache, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Backend {
	case config.CacheMemory:
		return cache.NewMemory(), noop, nil
	case config.CacheNone:
		return cache.Noop{}, noop, nil
	case config.CacheRedis:
		r, err := cache.NewRedis(ctx, cache.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.TTL,
		})
		if err != nil {
			return nil, noop, fmt.Errorf("connect redis: %w", err)
		}
		if logger != nil {
			logger.Named("bootstrap").Info("redis cache connected", zap.String("addr", cfg.RedisAddr))
		}
		return r, r.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// NewFetcher returns the GDELT client, or nil when news fetching is disabled.
func NewFetcher(cfg config.NewsConfig, logger *zap.Logger) news.Fetcher {
	if !cfg.Enabled {
		return nil
	}
	return news.NewGDELTClient(news.GDELTConfig{
		BaseURL:    cfg.BaseURL,
		Query:      cfg.Query,
		MaxRecords: cfg.MaxRecords,
		Retry: httputil.RetryConfig{
			MaxAttempts: cfg.RetryAttempts,
			BaseDelay:   cfg.RetryBaseDelay,
			MaxDelay:    cfg.RetryMaxDelay,
		},
	}, &http.Client{Timeout: cfg.Timeout}, logger)
}
