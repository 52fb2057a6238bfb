package cache

import (
	"context"
	"testing"
	"time"

	fiberredis "github.com/gofiber/storage/redis/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRedisAddr = "localhost:6379"

// setupTestCache connects to a local Redis or skips the test.
func setupTestCache(t *testing.T, prefix string) CacheService {
	t.Helper()

	host, port := parseRedisAddr(testRedisAddr)
	storage, err := openStorage(fiberredis.Config{Host: host, Port: port})
	if err != nil {
		t.Skipf("Redis not available at %s: %v", testRedisAddr, err)
	}

	c := NewRedisCache(storage, prefix, time.Minute)
	ctx := context.Background()
	require.NoError(t, c.DeletePattern(ctx, "*"))

	t.Cleanup(func() {
		c.DeletePattern(ctx, "*")
		c.Close()
	})
	return c
}

type cachedProduct struct {
	ID    string `json:"id"`
	Brand string `json:"brand"`
}

func TestNoopCache(t *testing.T) {
	ctx := context.Background()
	c := NewNoopCache()

	require.NoError(t, c.Set(ctx, "k", cachedProduct{ID: "1"}))

	var got cachedProduct
	found, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, found)
	assert.False(t, c.Enabled())

	stats := c.Stats()
	assert.Equal(t, uint64(1), stats.Misses)
	assert.False(t, stats.Enabled)
}

func TestParseRedisAddr(t *testing.T) {
	tests := []struct {
		addr     string
		wantHost string
		wantPort int
	}{
		{"localhost:6380", "localhost", 6380},
		{":6379", "127.0.0.1", 6379},
		{"redis", "127.0.0.1", 6379},
		{"redis:abc", "redis", 6379},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			host, port := parseRedisAddr(tt.addr)
			assert.Equal(t, tt.wantHost, host)
			assert.Equal(t, tt.wantPort, port)
		})
	}
}

func TestPluginModule_DisabledWithoutAddr(t *testing.T) {
	m := NewPluginModule(DefaultConfig())
	require.NoError(t, m.Start(context.Background()))

	assert.NotNil(t, m.Port())
	assert.False(t, m.Port().Enabled())
	assert.Nil(t, m.RedisClient())
	assert.True(t, m.Health(context.Background()).Healthy)
	require.NoError(t, m.Stop(context.Background()))
}

func TestRedisCache_SetGetDelete(t *testing.T) {
	c := setupTestCache(t, "test:setget:")
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "product:1", cachedProduct{ID: "1", Brand: "Rolex"}))

	var got cachedProduct
	found, err := c.Get(ctx, "product:1", &got)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "Rolex", got.Brand)

	require.NoError(t, c.Delete(ctx, "product:1"))
	found, err = c.Get(ctx, "product:1", &got)
	require.NoError(t, err)
	assert.False(t, found)

	stats := c.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.InDelta(t, 50.0, stats.HitRate, 0.001)
}

func TestRedisCache_DeletePattern(t *testing.T) {
	c := setupTestCache(t, "test:pattern:")
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "products:list:a", 1))
	require.NoError(t, c.Set(ctx, "products:list:b", 2))
	require.NoError(t, c.Set(ctx, "products:id:1", 3))

	require.NoError(t, c.DeletePattern(ctx, "products:list:*"))

	var v int
	found, _ := c.Get(ctx, "products:list:a", &v)
	assert.False(t, found)
	found, _ = c.Get(ctx, "products:id:1", &v)
	assert.True(t, found)
}
