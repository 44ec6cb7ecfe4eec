package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nexconsult/dian-api/internal/models"
	"github.com/nexconsult/dian-api/internal/utils"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// CacheService caches successful outcomes in Redis, falling back to memory
type CacheService struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
	logger *logrus.Logger

	// In-memory fallback cache when Redis is not available
	memCache map[string]cacheItem
	memMutex sync.RWMutex

	hits   atomic.Int64
	misses atomic.Int64
}

type cacheItem struct {
	value     []byte
	expiresAt time.Time
}

// NewCacheService creates a new cache service. A zero ttl disables caching.
func NewCacheService(client *redis.Client, ttl time.Duration, prefix string, logger *logrus.Logger) *CacheService {
	return &CacheService{
		client:   client,
		ttl:      ttl,
		prefix:   prefix,
		logger:   logger,
		memCache: make(map[string]cacheItem),
	}
}

// Enabled reports whether outcomes are cached
func (c *CacheService) Enabled() bool { return c.ttl > 0 }

func (c *CacheService) key(cufe string) string {
	return c.prefix + utils.CleanIdentifier(cufe)
}

// GetOutcome retrieves a cached outcome
func (c *CacheService) GetOutcome(ctx context.Context, cufe string) (models.SearchOutcome, bool) {
	if !c.Enabled() {
		return models.SearchOutcome{}, false
	}
	key := c.key(cufe)

	data, ok := c.get(ctx, key)
	if !ok {
		c.misses.Add(1)
		return models.SearchOutcome{}, false
	}

	var outcome models.SearchOutcome
	if err := json.Unmarshal(data, &outcome); err != nil {
		c.logger.WithError(err).WithField("cufe", utils.MaskIdentifier(cufe)).Warn("Failed to decode cached outcome")
		c.misses.Add(1)
		return models.SearchOutcome{}, false
	}
	c.hits.Add(1)
	return outcome, true
}

func (c *CacheService) get(ctx context.Context, key string) ([]byte, bool) {
	// Try Redis first if available
	if c.client != nil {
		val, err := c.client.Get(ctx, key).Bytes()
		if err == nil {
			c.logger.WithField("key", key).Debug("Cache hit (Redis)")
			return val, true
		}
		if !errors.Is(err, redis.Nil) {
			c.logger.WithFields(logrus.Fields{
				"key":   key,
				"error": err.Error(),
			}).Warn("Redis get error, falling back to memory cache")
		}
	}

	// Fallback to memory cache
	c.memMutex.RLock()
	item, exists := c.memCache[key]
	c.memMutex.RUnlock()

	if !exists {
		return nil, false
	}

	if time.Now().After(item.expiresAt) {
		// Item expired, remove it
		c.memMutex.Lock()
		delete(c.memCache, key)
		c.memMutex.Unlock()
		return nil, false
	}

	c.logger.WithField("key", key).Debug("Cache hit (memory)")
	return item.value, true
}

// SetOutcome stores a successful outcome with the configured TTL
func (c *CacheService) SetOutcome(ctx context.Context, cufe string, outcome models.SearchOutcome) error {
	if !c.Enabled() || !outcome.Ok {
		return nil
	}
	data, err := json.Marshal(outcome)
	if err != nil {
		return err
	}
	key := c.key(cufe)

	// Try Redis first if available
	if c.client != nil {
		err := c.client.Set(ctx, key, data, c.ttl).Err()
		if err == nil {
			c.logger.WithField("key", key).Debug("Cache set (Redis)")
			return nil
		}
		c.logger.WithFields(logrus.Fields{
			"key":   key,
			"error": err.Error(),
		}).Warn("Redis set error, falling back to memory cache")
	}

	// Fallback to memory cache
	c.memMutex.Lock()
	c.memCache[key] = cacheItem{
		value:     data,
		expiresAt: time.Now().Add(c.ttl),
	}
	c.memMutex.Unlock()

	c.logger.WithField("key", key).Debug("Cache set (memory)")
	return nil
}

// Delete removes a value from cache
func (c *CacheService) Delete(ctx context.Context, cufe string) error {
	key := c.key(cufe)
	if c.client != nil {
		if err := c.client.Del(ctx, key).Err(); err != nil {
			c.logger.WithFields(logrus.Fields{
				"key":   key,
				"error": err.Error(),
			}).Warn("Redis delete error")
		}
	}

	// Also remove from memory cache
	c.memMutex.Lock()
	delete(c.memCache, key)
	c.memMutex.Unlock()

	c.logger.WithField("key", key).Debug("Cache delete")
	return nil
}

// Clear removes every key under the cache prefix. Other keys in the Redis DB are left alone.
func (c *CacheService) Clear(ctx context.Context) error {
	if c.client != nil {
		iter := c.client.Scan(ctx, 0, c.prefix+"*", 100).Iterator()
		var keys []string
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil {
			c.logger.WithField("error", err.Error()).Warn("Redis scan error")
		} else if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				c.logger.WithField("error", err.Error()).Warn("Redis clear error")
			}
		}
	}

	// Clear memory cache
	c.memMutex.Lock()
	c.memCache = make(map[string]cacheItem)
	c.memMutex.Unlock()

	c.logger.Info("Cache cleared")
	return nil
}

// GetStats returns cache statistics
func (c *CacheService) GetStats(ctx context.Context) (map[string]interface{}, error) {
	stats := map[string]interface{}{
		"enabled": c.Enabled(),
		"ttl":     c.ttl.String(),
		"hits":    c.hits.Load(),
		"misses":  c.misses.Load(),
	}

	if c.client != nil {
		count := 0
		iter := c.client.Scan(ctx, 0, c.prefix+"*", 100).Iterator()
		for iter.Next(ctx) {
			count++
		}
		if err := iter.Err(); err == nil {
			stats["redis"] = map[string]interface{}{
				"available": true,
				"keys":      count,
			}
		} else {
			stats["redis"] = map[string]interface{}{
				"available": false,
				"error":     err.Error(),
			}
		}
	} else {
		stats["redis"] = map[string]interface{}{
			"available": false,
		}
	}

	// Memory cache stats
	c.memMutex.RLock()
	memSize := len(c.memCache)
	c.memMutex.RUnlock()

	stats["memory"] = map[string]interface{}{
		"size": memSize,
	}

	return stats, nil
}

// Health returns cache service health status
func (c *CacheService) Health() map[string]interface{} {
	health := make(map[string]interface{})

	if c.client != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := c.client.Ping(ctx).Err(); err != nil {
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

	// Memory cache is always available
	health["memory"] = map[string]interface{}{
		"status": "healthy",
	}

	return health
}

// cleanupExpired removes expired items from memory cache
func (c *CacheService) cleanupExpired() {
	c.memMutex.Lock()
	defer c.memMutex.Unlock()

	now := time.Now()
	for key, item := range c.memCache {
		if now.After(item.expiresAt) {
			delete(c.memCache, key)
		}
	}
}

// StartCleanupRoutine periodically drops expired memory entries until ctx ends
func (c *CacheService) StartCleanupRoutine(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.cleanupExpired()
			}
		}
	}()
}
