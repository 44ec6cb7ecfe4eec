package services

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/nexconsult/dian-api/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cachePrefix = "dian:outcome:"

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newRedisCache(t *testing.T, ttl time.Duration) (*CacheService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCacheService(client, ttl, cachePrefix, quietLogger()), mr
}

func successOutcome() models.SearchOutcome {
	return models.Success("<html>ok</html>", []models.EventRecord{{Code: "030", Description: "Acuse"}})
}

func TestCacheRedisRoundTrip(t *testing.T) {
	cache, mr := newRedisCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.SetOutcome(ctx, " abc ", successOutcome()))
	assert.True(t, mr.Exists(cachePrefix+"abc"))

	got, ok := cache.GetOutcome(ctx, "abc")
	require.True(t, ok)
	assert.True(t, got.Ok)
	require.Len(t, got.Events, 1)
	assert.Equal(t, "030", got.Events[0].Code)
	require.NotNil(t, got.HTML)
	assert.Equal(t, "<html>ok</html>", *got.HTML)
}

func TestCacheRedisExpiry(t *testing.T) {
	cache, mr := newRedisCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.SetOutcome(ctx, "abc", successOutcome()))
	mr.FastForward(2 * time.Minute)

	_, ok := cache.GetOutcome(ctx, "abc")
	assert.False(t, ok)
}

func TestCacheSkipsFailures(t *testing.T) {
	cache, mr := newRedisCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.SetOutcome(ctx, "abc", models.Failure("navigation failed: boom")))

	assert.False(t, mr.Exists(cachePrefix+"abc"))
	_, ok := cache.GetOutcome(ctx, "abc")
	assert.False(t, ok)
}

func TestCacheDisabledWithoutTTL(t *testing.T) {
	cache := NewCacheService(nil, 0, cachePrefix, quietLogger())
	ctx := context.Background()

	assert.False(t, cache.Enabled())
	require.NoError(t, cache.SetOutcome(ctx, "abc", successOutcome()))
	_, ok := cache.GetOutcome(ctx, "abc")
	assert.False(t, ok)
}

func TestCacheMemoryFallback(t *testing.T) {
	cache := NewCacheService(nil, 20*time.Millisecond, cachePrefix, quietLogger())
	ctx := context.Background()

	require.NoError(t, cache.SetOutcome(ctx, "abc", successOutcome()))
	_, ok := cache.GetOutcome(ctx, "abc")
	assert.True(t, ok)

	time.Sleep(40 * time.Millisecond)
	_, ok = cache.GetOutcome(ctx, "abc")
	assert.False(t, ok)
}

func TestCacheClearKeepsForeignKeys(t *testing.T) {
	cache, mr := newRedisCache(t, time.Minute)
	ctx := context.Background()
	require.NoError(t, mr.Set("other:key", "keep"))

	require.NoError(t, cache.SetOutcome(ctx, "a", successOutcome()))
	require.NoError(t, cache.SetOutcome(ctx, "b", successOutcome()))
	require.NoError(t, cache.Clear(ctx))

	assert.False(t, mr.Exists(cachePrefix+"a"))
	assert.False(t, mr.Exists(cachePrefix+"b"))
	assert.True(t, mr.Exists("other:key"))
}

func TestCacheDelete(t *testing.T) {
	cache, mr := newRedisCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.SetOutcome(ctx, "abc", successOutcome()))
	require.NoError(t, cache.Delete(ctx, "abc"))
	assert.False(t, mr.Exists(cachePrefix+"abc"))
}

func TestCacheStatsAndHealth(t *testing.T) {
	cache, _ := newRedisCache(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.SetOutcome(ctx, "abc", successOutcome()))
	cache.GetOutcome(ctx, "abc")
	cache.GetOutcome(ctx, "missing")

	stats, err := cache.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, true, stats["enabled"])
	assert.Equal(t, int64(1), stats["hits"])
	assert.Equal(t, int64(1), stats["misses"])
	redisStats := stats["redis"].(map[string]interface{})
	assert.Equal(t, 1, redisStats["keys"])

	health := cache.Health()
	assert.Equal(t, "healthy", health["redis"].(map[string]interface{})["status"])
}
