package container

import (
	"context"
	"fmt"
	"time"

	"artworks/crawler/internal/client"
	"artworks/crawler/internal/config"
	"artworks/crawler/internal/crawler"
	"artworks/crawler/internal/proxy"
	"artworks/crawler/internal/queue"
	"artworks/crawler/internal/repository"
	"artworks/crawler/internal/service"
	"artworks/crawler/internal/state"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Container holds all initialized components
type Container struct {
	Config       *config.Config
	Client       client.SiteClient
	Repository   repository.RecordRepository
	Queue        queue.Queue
	StateManager state.StateManager

	Service *service.Service

	db    *pgxpool.Pool
	redis *redis.Client
}

// New creates a new container with all dependencies initialized
func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	container := &Container{
		Config: cfg,
	}

	proxySupplier, err := proxy.NewProxySupplier(ctx, cfg.Crawler.Proxies, cfg.Crawler.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize proxy supplier: %w", err)
	}
	container.Client = client.NewSiteClient(cfg.Crawler, proxySupplier)

	if err := container.initFrontier(ctx); err != nil {
		container.Close()
		return nil, err
	}

	if err := container.initRepository(ctx); err != nil {
		container.Close()
		return nil, err
	}

	rules := crawler.Rules{
		SiteOrigin:          cfg.Crawler.BaseURL,
		Targets:             crawler.NewTargetSet(cfg.Crawler.TargetCategories...),
		PageSize:            cfg.Crawler.PageSize,
		ItemCountSuffix:     cfg.Crawler.ItemCountSuffix,
		CategoryTitlePrefix: cfg.Crawler.CategoryTitlePrefix,
		ItemPathPrefix:      cfg.Crawler.ItemPathPrefix,
	}

	container.Service = service.NewService(
		container.Client,
		container.Queue,
		container.StateManager,
		container.Repository,
		rules,
		service.Options{
			StartURL:     cfg.Crawler.StartURL(),
			MaxRetries:   cfg.Crawler.MaxRetries,
			MinIdleTime:  time.Duration(cfg.Crawler.MinIdleTime) * time.Second,
			PollInterval: time.Duration(cfg.Crawler.PollInterval) * time.Second,

			RetryBackoff:    time.Duration(cfg.Crawler.RetryBackoff) * time.Second,
			MaxRetryBackoff: time.Duration(cfg.Crawler.MaxRetryBackoff) * time.Second,
		},
	)

	return container, nil
}

// initFrontier sets up the task queue and the visited set on the configured backend
func (c *Container) initFrontier(ctx context.Context) error {
	cfg := c.Config

	switch cfg.Queue.Backend {
	case config.QueueBackendMemory:
		c.Queue = queue.NewMemoryQueue()
		c.StateManager = state.NewMemoryStateManager()
		log.Info("✅ Using in-memory task queue")
		return nil

	case config.QueueBackendRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.Database,
		})
		c.redis = rdb

		// Test connection
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		log.Info("✅ Connected to Redis successfully")

		redisQueue, err := queue.NewRedisQueue(ctx, rdb, cfg.Redis.KeyPrefix, cfg.Redis.ConsumerGroup)
		if err != nil {
			return err
		}
		stateManager := state.NewRedisStateManager(rdb, cfg.Redis.KeyPrefix)

		if !cfg.Crawler.Resume {
			log.Info("🧹 Clearing previous crawl state")
			if err := redisQueue.Reset(ctx); err != nil {
				return err
			}
			if err := stateManager.Reset(ctx); err != nil {
				return err
			}
		} else {
			log.Info("⏯️ Resuming previous crawl")
		}

		c.Queue = redisQueue
		c.StateManager = stateManager
		return nil

	default:
		return fmt.Errorf("unknown queue backend %q", cfg.Queue.Backend)
	}
}

// initRepository opens the configured output sink
func (c *Container) initRepository(ctx context.Context) error {
	cfg := c.Config

	switch cfg.Output.Driver {
	case config.OutputDriverJSONL:
		repo, err := repository.NewJSONLRepository(cfg.Output.RecordsPath, cfg.Output.FailuresPath)
		if err != nil {
			return err
		}
		c.Repository = repo
		log.Infof("✅ Writing records to %s", cfg.Output.RecordsPath)

	case config.OutputDriverPostgres:
		db, err := pgxpool.New(ctx, cfg.Database.DSN())
		if err != nil {
			return fmt.Errorf("failed to connect to Postgres: %w", err)
		}
		c.db = db

		repo, err := repository.NewPostgresRepository(ctx, db)
		if err != nil {
			return err
		}
		c.Repository = repo
		log.Infof("✅ Writing records to Postgres database %s", cfg.Database.Name)

	case config.OutputDriverSQLite:
		repo, err := repository.NewSQLiteRepository(ctx, cfg.Output.SQLitePath)
		if err != nil {
			return err
		}
		c.Repository = repo
		log.Infof("✅ Writing records to %s", cfg.Output.SQLitePath)

	default:
		return fmt.Errorf("unknown output driver %q", cfg.Output.Driver)
	}

	return nil
}

// Run crawls until the task frontier is exhausted or ctx is cancelled
func (c *Container) Run(ctx context.Context) error {
	start := time.Now()

	if err := c.Service.Crawl(ctx, c.Config.Crawler.MaxWorkers); err != nil {
		return err
	}

	log.Infof("✅ Crawl finished in %s", time.Since(start).Round(time.Millisecond))
	return nil
}

// Close performs cleanup when shutting down
func (c *Container) Close() error {
	log.Info("Shutting down container...")

	var firstErr error
	if c.Repository != nil {
		if err := c.Repository.Close(); err != nil {
			firstErr = err
		}
	}
	if c.db != nil {
		c.db.Close()
	}
	if c.redis != nil {
		if err := c.redis.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	log.Info("Container shut down successfully")
	return firstErr
}
