// Package cache provides the optional Redis cache used for catalog reads.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	fiberredis "github.com/gofiber/storage/redis/v3"
)

// CacheService defines the caching operations used by consumers.
type CacheService interface {
	// Get unmarshals the cached value into dest and reports a hit.
	Get(ctx context.Context, key string, dest any) (bool, error)

	// Set stores a JSON-marshaled value with the default TTL.
	Set(ctx context.Context, key string, value any) error

	// SetWithTTL stores a value with a custom TTL.
	SetWithTTL(ctx context.Context, key string, value any, ttl time.Duration) error

	// Delete removes a single key.
	Delete(ctx context.Context, key string) error

	// DeletePattern removes every key under this service's prefix matching pattern.
	DeletePattern(ctx context.Context, pattern string) error

	// Enabled reports whether values are actually stored.
	Enabled() bool

	// Stats returns a snapshot of the hit/miss counters.
	Stats() StatsSnapshot

	// Close releases the underlying connection.
	Close() error
}

// Stats tracks cache statistics.
type Stats struct {
	Hits    uint64
	Misses  uint64
	Sets    uint64
	Deletes uint64
	Errors  uint64
}

// StatsSnapshot is a point-in-time copy of Stats.
type StatsSnapshot struct {
	Enabled   bool    `json:"enabled"`
	Hits      uint64  `json:"hits"`
	Misses    uint64  `json:"misses"`
	Sets      uint64  `json:"sets"`
	Deletes   uint64  `json:"deletes"`
	Errors    uint64  `json:"errors"`
	HitRate   float64 `json:"hit_rate"`
	TotalGets uint64  `json:"total_gets"`
}

func (s *Stats) snapshot(enabled bool) StatsSnapshot {
	hits := atomic.LoadUint64(&s.Hits)
	misses := atomic.LoadUint64(&s.Misses)
	total := hits + misses

	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}

	return StatsSnapshot{
		Enabled:   enabled,
		Hits:      hits,
		Misses:    misses,
		Sets:      atomic.LoadUint64(&s.Sets),
		Deletes:   atomic.LoadUint64(&s.Deletes),
		Errors:    atomic.LoadUint64(&s.Errors),
		HitRate:   hitRate,
		TotalGets: total,
	}
}

// redisCache implements CacheService on the gofiber Redis storage.
type redisCache struct {
	storage *fiberredis.Storage
	prefix  string
	ttl     time.Duration
	stats   *Stats
}

// NewRedisCache creates a CacheService backed by s.
func NewRedisCache(s *fiberredis.Storage, prefix string, ttl time.Duration) CacheService {
	return &redisCache{
		storage: s,
		prefix:  prefix,
		ttl:     ttl,
		stats:   &Stats{},
	}
}

func (c *redisCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	data, err := c.storage.GetWithContext(ctx, c.prefix+key)
	if err != nil {
		atomic.AddUint64(&c.stats.Errors, 1)
		return false, fmt.Errorf("cache get error: %w", err)
	}

	// A nil value means the key does not exist.
	if len(data) == 0 {
		atomic.AddUint64(&c.stats.Misses, 1)
		return false, nil
	}

	if err := json.Unmarshal(data, dest); err != nil {
		atomic.AddUint64(&c.stats.Errors, 1)
		return false, fmt.Errorf("cache unmarshal error: %w", err)
	}

	atomic.AddUint64(&c.stats.Hits, 1)
	return true, nil
}

func (c *redisCache) Set(ctx context.Context, key string, value any) error {
	return c.SetWithTTL(ctx, key, value, c.ttl)
}

func (c *redisCache) SetWithTTL(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		atomic.AddUint64(&c.stats.Errors, 1)
		return fmt.Errorf("cache marshal error: %w", err)
	}

	if err := c.storage.SetWithContext(ctx, c.prefix+key, data, ttl); err != nil {
		atomic.AddUint64(&c.stats.Errors, 1)
		return fmt.Errorf("cache set error: %w", err)
	}

	atomic.AddUint64(&c.stats.Sets, 1)
	return nil
}

func (c *redisCache) Delete(ctx context.Context, key string) error {
	if err := c.storage.DeleteWithContext(ctx, c.prefix+key); err != nil {
		atomic.AddUint64(&c.stats.Errors, 1)
		return fmt.Errorf("cache delete error: %w", err)
	}
	atomic.AddUint64(&c.stats.Deletes, 1)
	return nil
}

// DeletePattern scans with the raw client since the storage API has no pattern delete.
func (c *redisCache) DeletePattern(ctx context.Context, pattern string) error {
	client := c.storage.Conn()
	fullPattern := c.prefix + pattern

	var cursor uint64
	var deleted int
	for {
		keys, next, err := client.Scan(ctx, cursor, fullPattern, 100).Result()
		if err != nil {
			atomic.AddUint64(&c.stats.Errors, 1)
			return fmt.Errorf("cache scan error: %w", err)
		}

		if len(keys) > 0 {
			if err := client.Del(ctx, keys...).Err(); err != nil {
				atomic.AddUint64(&c.stats.Errors, 1)
				return fmt.Errorf("cache delete error: %w", err)
			}
			deleted += len(keys)
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	atomic.AddUint64(&c.stats.Deletes, uint64(deleted))
	return nil
}

func (c *redisCache) Enabled() bool { return true }

func (c *redisCache) Stats() StatsSnapshot { return c.stats.snapshot(true) }

func (c *redisCache) Close() error {
	return c.storage.Close()
}

// noopCache is used when Redis is not configured. Every read misses.
type noopCache struct {
	stats *Stats
}

// NewNoopCache creates a CacheService that stores nothing.
func NewNoopCache() CacheService {
	return &noopCache{stats: &Stats{}}
}

func (c *noopCache) Get(context.Context, string, any) (bool, error) {
	atomic.AddUint64(&c.stats.Misses, 1)
	return false, nil
}

func (c *noopCache) Set(context.Context, string, any) error { return nil }

func (c *noopCache) SetWithTTL(context.Context, string, any, time.Duration) error { return nil }

func (c *noopCache) Delete(context.Context, string) error { return nil }

func (c *noopCache) DeletePattern(context.Context, string) error { return nil }

func (c *noopCache) Enabled() bool { return false }

func (c *noopCache) Stats() StatsSnapshot { return c.stats.snapshot(false) }

func (c *noopCache) Close() error { return nil }
