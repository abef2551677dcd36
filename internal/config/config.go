// Package config loads runtime configuration from a YAML file, .env and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. CRISIS_LAB_STORAGE_BACKEND.
const EnvPrefix = "CRISIS_LAB"

// Storage backends.
const (
	BackendCSV      = "csv"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

type Config struct {
	Data    DataConfig    `mapstructure:"data"`
	Storage StorageConfig `mapstructure:"storage"`
	Cache   CacheConfig   `mapstructure:"cache"`
	News    NewsConfig    `mapstructure:"news"`
	Risk    RiskConfig    `mapstructure:"risk"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// DataConfig holds file paths for the csv backend.
type DataConfig struct {
	PricesPath  string `mapstructure:"prices_path"`
	NewsPath    string `mapstructure:"news_path"`
	CrisisPath  string `mapstructure:"crisis_path"`
	DerivedPath string `mapstructure:"derived_path"` // optional CSV export of the derived series
}

type StorageConfig struct {
	Backend       string `mapstructure:"backend"`
	SQLitePath    string `mapstructure:"sqlite_path"`
	PostgresDSN   string `mapstructure:"postgres_dsn"`
	ClickhouseDSN string `mapstructure:"clickhouse_dsn"` // optional derived series sink
	Migrate       bool   `mapstructure:"migrate"`
}

type CacheConfig struct {
	Backend       string        `mapstructure:"backend"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
	TTL           time.Duration `mapstructure:"ttl"`
}

type NewsConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	BaseURL        string        `mapstructure:"base_url"`
	Query          string        `mapstructure:"query"`
	MaxRecords     int           `mapstructure:"max_records"`
	Timeout        time.Duration `mapstructure:"timeout"`
	Concurrency    int           `mapstructure:"concurrency"`
	LookbackDays   int           `mapstructure:"lookback_days"`
	RetryAttempts  int           `mapstructure:"retry_attempts"`
	RetryBaseDelay time.Duration `mapstructure:"retry_base_delay"`
	RetryMaxDelay  time.Duration `mapstructure:"retry_max_delay"`
}

type RiskConfig struct {
	Levels        []float64 `mapstructure:"levels"` // lower-tail probabilities, e.g. 0.05 for 95% VaR
	RollingWindow int       `mapstructure:"rolling_window"`
	RollingLevel  float64   `mapstructure:"rolling_level"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Namespace    string `mapstructure:"namespace"`
	TextfilePath string `mapstructure:"textfile_path"` // empty disables export
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data.prices_path", "data/dollar_rial_price.csv")
	v.SetDefault("data.news_path", "data/news.csv")
	v.SetDefault("data.crisis_path", "data/crisis_dates.csv")
	v.SetDefault("data.derived_path", "")

	v.SetDefault("storage.backend", BackendCSV)
	v.SetDefault("storage.sqlite_path", "data/crisis_lab.db")
	v.SetDefault("storage.postgres_dsn", "")
	v.SetDefault("storage.clickhouse_dsn", "")
	v.SetDefault("storage.migrate", true)

	v.SetDefault("cache.backend", CacheMemory)
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.ttl", 24*time.Hour)

	v.SetDefault("news.enabled", true)
	v.SetDefault("news.base_url", "https://api.gdeltproject.org/api/v2/doc/doc")
	v.SetDefault("news.query", "Iran currency exchange rate dollar sanctions")
	v.SetDefault("news.max_records", 10)
	v.SetDefault("news.timeout", 10*time.Second)
	v.SetDefault("news.concurrency", 4)
	v.SetDefault("news.lookback_days", 30)
	v.SetDefault("news.retry_attempts", 3)
	v.SetDefault("news.retry_base_delay", 500*time.Millisecond)
	v.SetDefault("news.retry_max_delay", 5*time.Second)

	v.SetDefault("risk.levels", []float64{0.05, 0.01})
	v.SetDefault("risk.rolling_window", 30)
	v.SetDefault("risk.rolling_level", 0.05)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("metrics.namespace", "currency_crisis_lab")
	v.SetDefault("metrics.textfile_path", "")
}

// Load reads configuration. A .env file in the working directory is loaded
// into the environment first if present. path may be empty or point to a
// missing file; defaults and environment still apply.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints. All problems are reported together.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	switch c.Storage.Backend {
	case BackendCSV:
		if c.Data.PricesPath == "" || c.Data.NewsPath == "" || c.Data.CrisisPath == "" {
			add("data paths are required for the csv backend")
		}
	case BackendSQLite:
		if c.Storage.SQLitePath == "" {
			add("storage.sqlite_path is required for the sqlite backend")
		}
		if c.Data.PricesPath == "" {
			add("data.prices_path is required to import prices")
		}
	case BackendPostgres:
		if c.Storage.PostgresDSN == "" {
			add("storage.postgres_dsn is required for the postgres backend")
		}
	default:
		add("unknown storage.backend %q", c.Storage.Backend)
	}

	switch c.Cache.Backend {
	case CacheMemory, CacheNone:
	case CacheRedis:
		if c.Cache.RedisAddr == "" {
			add("cache.redis_addr is required for the redis cache")
		}
	default:
		add("unknown cache.backend %q", c.Cache.Backend)
	}
	if c.Cache.TTL < 0 {
		add("cache.ttl must not be negative")
	}

	if c.News.Timeout <= 0 {
		add("news.timeout must be positive")
	}
	if c.News.Concurrency <= 0 {
		add("news.concurrency must be positive")
	}
	if c.News.LookbackDays <= 0 {
		add("news.lookback_days must be positive")
	}
	if c.News.MaxRecords < 1 || c.News.MaxRecords > 250 {
		add("news.max_records must be in 1..250, got %d", c.News.MaxRecords)
	}
	if c.News.RetryAttempts <= 0 {
		add("news.retry_attempts must be positive")
	}

	for _, p := range c.Risk.Levels {
		if p <= 0 || p >= 1 {
			add("risk.levels must be in (0, 1), got %v", p)
		}
	}
	if c.Risk.RollingWindow < 2 {
		add("risk.rolling_window must be at least 2")
	}
	if c.Risk.RollingLevel <= 0 || c.Risk.RollingLevel >= 1 {
		add("risk.rolling_level must be in (0, 1)")
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		add("unknown logging.level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		add("unknown logging.format %q", c.Logging.Format)
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
