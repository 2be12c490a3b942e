package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
crawler:
  base_url: http://example.com/
  target_categories: ["Summertime"]
`)

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "http://example.com/browse/", cfg.Crawler.StartURL())
	assert.Equal(t, []string{"Summertime"}, cfg.Crawler.TargetCategories)
	assert.Equal(t, 10, cfg.Crawler.PageSize)
	assert.Equal(t, "items", cfg.Crawler.ItemCountSuffix)
	assert.Equal(t, "Category:", cfg.Crawler.CategoryTitlePrefix)
	assert.Equal(t, "/item", cfg.Crawler.ItemPathPrefix)
	assert.Equal(t, 5, cfg.Crawler.RetryBackoff)
	assert.Equal(t, 600, cfg.Crawler.MaxRetryBackoff)
	assert.Equal(t, QueueBackendMemory, cfg.Queue.Backend)
	assert.Equal(t, OutputDriverJSONL, cfg.Output.Driver)
	assert.Equal(t, "artworks_consumer", cfg.Redis.ConsumerGroup)
}

func TestLoadFromEnvironmentOverride(t *testing.T) {
	path := writeConfig(t, `
crawler:
  target_categories: ["Summertime"]
`)
	t.Setenv("CRAWLER_PAGE_SIZE", "25")
	t.Setenv("QUEUE_BACKEND", "redis")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.Crawler.PageSize)
	assert.Equal(t, QueueBackendRedis, cfg.Queue.Backend)
}

func TestLoadFromMissingFile(t *testing.T) {
	_, err := LoadFrom(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Crawler: CrawlerConfig{
				BaseURL:          "http://example.com",
				TargetCategories: []string{"A"},
				PageSize:         10,
				MaxWorkers:       2,
			},
			Queue:  QueueConfig{Backend: QueueBackendMemory},
			Output: OutputConfig{Driver: OutputDriverJSONL},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "no targets", mutate: func(c *Config) { c.Crawler.TargetCategories = nil }, wantErr: true},
		{name: "zero page size", mutate: func(c *Config) { c.Crawler.PageSize = 0 }, wantErr: true},
		{name: "no workers", mutate: func(c *Config) { c.Crawler.MaxWorkers = 0 }, wantErr: true},
		{name: "no base url", mutate: func(c *Config) { c.Crawler.BaseURL = "" }, wantErr: true},
		{name: "unknown queue", mutate: func(c *Config) { c.Queue.Backend = "kafka" }, wantErr: true},
		{name: "unknown output", mutate: func(c *Config) { c.Output.Driver = "csv" }, wantErr: true},
		{name: "sqlite output", mutate: func(c *Config) { c.Output.Driver = OutputDriverSQLite }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
