package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Crawler  CrawlerConfig  `mapstructure:"crawler"`
	Queue    QueueConfig    `mapstructure:"queue"`
	Output   OutputConfig   `mapstructure:"output"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Log      LogConfig      `mapstructure:"log"`
}

// CrawlerConfig holds the target site and crawl behaviour
type CrawlerConfig struct {
	BaseURL          string   `mapstructure:"base_url"`
	StartPath        string   `mapstructure:"start_path"`
	TargetCategories []string `mapstructure:"target_categories"`

	// Page family specifics
	PageSize            int    `mapstructure:"page_size"`
	ItemCountSuffix     string `mapstructure:"item_count_suffix"`
	CategoryTitlePrefix string `mapstructure:"category_title_prefix"`
	ItemPathPrefix      string `mapstructure:"item_path_prefix"`

	Timeout              int      `mapstructure:"timeout"`
	MaxRetries           int      `mapstructure:"max_retries"`
	RetryBackoff         int      `mapstructure:"retry_backoff"`     // seconds before the first retry
	MaxRetryBackoff      int      `mapstructure:"max_retry_backoff"` // cap for the doubled delay
	MaxWorkers           int      `mapstructure:"max_workers"`
	MaxRequestsPerSecond int      `mapstructure:"max_requests_per_second"`
	Proxies              []string `mapstructure:"proxies"`

	Resume       bool `mapstructure:"resume"`
	PollInterval int  `mapstructure:"poll_interval"`
	MinIdleTime  int  `mapstructure:"min_idle_time"`
}

// StartURL is the root of the category tree.
func (c CrawlerConfig) StartURL() string {
	return strings.TrimRight(c.BaseURL, "/") + "/" + strings.TrimLeft(c.StartPath, "/")
}

// QueueConfig selects the task frontier backend
type QueueConfig struct {
	Backend string `mapstructure:"backend"` // memory or redis
}

// OutputConfig selects where records and failures are written
type OutputConfig struct {
	Driver       string `mapstructure:"driver"` // jsonl, postgres or sqlite
	RecordsPath  string `mapstructure:"records_path"`
	FailuresPath string `mapstructure:"failures_path"`
	SQLitePath   string `mapstructure:"sqlite_path"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

// DSN returns the pgx connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.Name)
}

// RedisConfig holds Redis connection details
type RedisConfig struct {
	Host          string `mapstructure:"host"`
	Port          int    `mapstructure:"port"`
	Password      string `mapstructure:"password"`
	Database      int    `mapstructure:"database"`
	ConsumerGroup string `mapstructure:"consumer_group"`
	KeyPrefix     string `mapstructure:"key_prefix"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"` // text or json
	File       string `mapstructure:"file"`   // optional rotating log file
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

const (
	QueueBackendMemory = "memory"
	QueueBackendRedis  = "redis"

	OutputDriverJSONL    = "jsonl"
	OutputDriverPostgres = "postgres"
	OutputDriverSQLite   = "sqlite"
)

// Load loads configuration from config.yaml in the working directory, or from
// the file named by CONFIG_FILE, with environment variable overrides. A .env
// file, when present, is loaded into the environment first.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	return LoadFrom(os.Getenv("CONFIG_FILE"))
}

// LoadFrom reads the given config file; an empty path searches the working
// directory for config.yaml.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("config.yaml file not found in current directory")
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate rejects configurations the crawler cannot run with.
func (c *Config) Validate() error {
	if c.Crawler.BaseURL == "" {
		return fmt.Errorf("crawler.base_url must be set")
	}
	if len(c.Crawler.TargetCategories) == 0 {
		return fmt.Errorf("crawler.target_categories must list at least one category")
	}
	if c.Crawler.PageSize <= 0 {
		return fmt.Errorf("crawler.page_size must be positive, got %d", c.Crawler.PageSize)
	}
	if c.Crawler.MaxWorkers <= 0 {
		return fmt.Errorf("crawler.max_workers must be positive, got %d", c.Crawler.MaxWorkers)
	}

	switch c.Queue.Backend {
	case QueueBackendMemory, QueueBackendRedis:
	default:
		return fmt.Errorf("unknown queue backend %q", c.Queue.Backend)
	}

	switch c.Output.Driver {
	case OutputDriverJSONL, OutputDriverPostgres, OutputDriverSQLite:
	default:
		return fmt.Errorf("unknown output driver %q", c.Output.Driver)
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("crawler.base_url", "http://pstrial-2019-12-16.toscrape.com")
	v.SetDefault("crawler.start_path", "/browse/")
	v.SetDefault("crawler.target_categories", []string{"In Sunsh", "Summertime"})
	v.SetDefault("crawler.page_size", 10)
	v.SetDefault("crawler.item_count_suffix", "items")
	v.SetDefault("crawler.category_title_prefix", "Category:")
	v.SetDefault("crawler.item_path_prefix", "/item")
	v.SetDefault("crawler.timeout", 30)
	v.SetDefault("crawler.max_retries", 3)
	v.SetDefault("crawler.retry_backoff", 5)
	v.SetDefault("crawler.max_retry_backoff", 600)
	v.SetDefault("crawler.max_workers", 8)
	v.SetDefault("crawler.max_requests_per_second", 10)
	v.SetDefault("crawler.resume", false)
	v.SetDefault("crawler.poll_interval", 2)
	v.SetDefault("crawler.min_idle_time", 120)

	v.SetDefault("queue.backend", QueueBackendMemory)

	v.SetDefault("output.driver", OutputDriverJSONL)
	v.SetDefault("output.records_path", "records.jsonl")
	v.SetDefault("output.failures_path", "failures.jsonl")
	v.SetDefault("output.sqlite_path", "artworks.db")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "artworks")
	v.SetDefault("database.user", "artworks_user")
	v.SetDefault("database.password", "artworks_pass")

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.database", 0)
	v.SetDefault("redis.consumer_group", "artworks_consumer")
	v.SetDefault("redis.key_prefix", "artworks:")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
}
