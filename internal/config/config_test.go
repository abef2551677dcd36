package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, BackendCSV, cfg.Storage.Backend)
	assert.Equal(t, CacheMemory, cfg.Cache.Backend)
	assert.Equal(t, 10, cfg.News.MaxRecords)
	assert.Equal(t, 10*time.Second, cfg.News.Timeout)
	assert.Equal(t, 30, cfg.News.LookbackDays)
	assert.Equal(t, []float64{0.05, 0.01}, cfg.Risk.Levels)
	assert.Equal(t, 30, cfg.Risk.RollingWindow)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "config.yaml")
	yaml := `
storage:
  backend: sqlite
  sqlite_path: /tmp/lab.db
news:
  concurrency: 8
  timeout: 3s
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	t.Setenv("CRISIS_LAB_NEWS_MAX_RECORDS", "25")
	t.Setenv("CRISIS_LAB_LOGGING_FORMAT", "text")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, "/tmp/lab.db", cfg.Storage.SQLitePath)
	assert.Equal(t, 8, cfg.News.Concurrency)
	assert.Equal(t, 3*time.Second, cfg.News.Timeout)
	assert.Equal(t, 25, cfg.News.MaxRecords)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("CRISIS_LAB_CACHE_BACKEND=none\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("CRISIS_LAB_CACHE_BACKEND") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, CacheNone, cfg.Cache.Backend)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := Load("does-not-exist.yaml")
	require.NoError(t, err)
	assert.Equal(t, BackendCSV, cfg.Storage.Backend)
}

func TestValidate(t *testing.T) {
	t.Chdir(t.TempDir())
	base, err := Load("")
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown backend", func(c *Config) { c.Storage.Backend = "mongo" }},
		{"postgres without dsn", func(c *Config) { c.Storage.Backend = BackendPostgres }},
		{"unknown cache", func(c *Config) { c.Cache.Backend = "memcached" }},
		{"zero timeout", func(c *Config) { c.News.Timeout = 0 }},
		{"zero concurrency", func(c *Config) { c.News.Concurrency = 0 }},
		{"max records too high", func(c *Config) { c.News.MaxRecords = 251 }},
		{"bad risk level", func(c *Config) { c.Risk.Levels = []float64{1.5} }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := *base
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, base.Validate())
}
