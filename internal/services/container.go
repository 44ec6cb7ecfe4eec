package services

import (
	"context"
	"fmt"
	"time"

	"github.com/nexconsult/dian-api/internal/browser"
	"github.com/nexconsult/dian-api/internal/config"
	"github.com/nexconsult/dian-api/internal/dian"
	"github.com/nexconsult/dian-api/internal/metrics"
	"github.com/nexconsult/dian-api/internal/queue"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Container holds all service dependencies
type Container struct {
	config         *config.Config
	logger         *logrus.Logger
	redisClient    *redis.Client
	responder      *queue.Responder
	stopCleanup    context.CancelFunc
	Metrics        *metrics.Metrics
	SearchService  *SearchService
	CacheService   *CacheService
	BrowserService *BrowserService
}

// NewContainer creates a new service container
func NewContainer(cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	driver, err := browser.NewDriver(cfg.Browser.Driver, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize browser driver: %w", err)
	}
	return NewContainerWithDriver(cfg, driver, logger)
}

// NewContainerWithDriver builds the container around an existing driver
func NewContainerWithDriver(cfg *config.Config, driver browser.Driver, logger *logrus.Logger) (*Container, error) {
	container := &Container{
		config:  cfg,
		logger:  logger,
		Metrics: metrics.New(),
	}

	// Initialize Redis client
	container.initRedis()

	// Initialize services
	container.initServices(driver)

	// Initialize NATS responder
	if err := container.initQueue(); err != nil {
		container.Close()
		return nil, fmt.Errorf("failed to initialize NATS responder: %w", err)
	}

	return container, nil
}

// initRedis connects to Redis when a host is configured
func (c *Container) initRedis() {
	addr := c.config.RedisAddr()
	if addr == "" {
		c.logger.Info("Redis not configured, using memory cache")
		return
	}

	c.redisClient = redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     c.config.Redis.Password,
		DB:           c.config.Redis.DB,
		PoolSize:     c.config.Redis.PoolSize,
		DialTimeout:  c.config.Redis.DialTimeout,
		ReadTimeout:  c.config.Redis.ReadTimeout,
		WriteTimeout: c.config.Redis.WriteTimeout,
	})

	// Test Redis connection
	ctx, cancel := context.WithTimeout(context.Background(), c.config.Redis.DialTimeout+time.Second)
	defer cancel()
	if err := c.redisClient.Ping(ctx).Err(); err != nil {
		c.logger.WithError(err).Warn("Redis connection failed, running with memory cache")
		_ = c.redisClient.Close()
		c.redisClient = nil
	} else {
		c.logger.WithField("addr", addr).Info("Redis connection established")
	}
}

// initServices initializes all services
func (c *Container) initServices(driver browser.Driver) {
	c.CacheService = NewCacheService(c.redisClient, c.config.Cache.TTL, c.config.Cache.KeyPrefix, c.logger)
	if c.CacheService.Enabled() {
		ctx, cancel := context.WithCancel(context.Background())
		c.stopCleanup = cancel
		c.CacheService.StartCleanupRoutine(ctx, 5*time.Minute)
	}

	c.BrowserService = NewBrowserService(c.config.Browser, driver, c.logger)

	searchCfg := c.config.SearchConfig()
	orchestrator := dian.NewOrchestrator(driver, searchCfg, c.logger, dian.WithObserver(c.Metrics))

	c.SearchService = NewSearchService(orchestrator, c.BrowserService, c.CacheService, c.Metrics, searchCfg.Timeouts.Overall, c.logger)
}

func (c *Container) initQueue() error {
	if c.config.NATS.URL == "" {
		return nil
	}
	responder, err := queue.Connect(c.config.NATS, c.SearchService.Search, c.logger)
	if err != nil {
		return err
	}
	c.responder = responder
	return nil
}

// Close closes all service connections
func (c *Container) Close() error {
	var errors []error

	if c.responder != nil {
		if err := c.responder.Close(); err != nil {
			errors = append(errors, fmt.Errorf("failed to close NATS responder: %w", err))
		}
	}

	if c.stopCleanup != nil {
		c.stopCleanup()
	}

	// Close Redis connection
	if c.redisClient != nil {
		if err := c.redisClient.Close(); err != nil {
			errors = append(errors, fmt.Errorf("failed to close Redis: %w", err))
		}
	}

	// Close Browser Service
	if c.BrowserService != nil {
		if err := c.BrowserService.Close(); err != nil {
			errors = append(errors, fmt.Errorf("failed to close browser service: %w", err))
		}
	}

	// Return combined errors if any
	if len(errors) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errors)
	}

	return nil
}

// Health checks the health of all services
func (c *Container) Health() map[string]interface{} {
	health := make(map[string]interface{})

	// Check Redis health
	if c.redisClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := c.redisClient.Ping(ctx).Err(); err != nil {
			health["redis"] = map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			}
		} else {
			health["redis"] = map[string]interface{}{
				"status": "healthy",
			}
		}
	} else {
		health["redis"] = map[string]interface{}{
			"status": "disabled",
		}
	}

	if c.BrowserService != nil {
		health["browser"] = c.BrowserService.Health()
	}

	if c.responder != nil {
		health["nats"] = c.responder.Health()
	} else {
		health["nats"] = map[string]interface{}{
			"status": "disabled",
		}
	}

	return health
}

// GetRedisClient returns the Redis client
func (c *Container) GetRedisClient() *redis.Client {
	return c.redisClient
}

// GetConfig returns the configuration
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetLogger returns the logger
func (c *Container) GetLogger() *logrus.Logger {
	return c.logger
}
