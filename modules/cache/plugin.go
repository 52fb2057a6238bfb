package cache

import (
	"context"
	"fmt"
	"log"
	"net"
	"strconv"
	"time"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	fiberredis "github.com/gofiber/storage/redis/v3"
	"github.com/redis/go-redis/v9"
)

// Config holds cache configuration. An empty RedisAddr disables the cache.
type Config struct {
	RedisAddr     string
	RedisPassword string
	Prefix        string
	TTL           time.Duration
}

// DefaultConfig returns the default cache configuration.
func DefaultConfig() Config {
	return Config{
		Prefix: "watchstore:",
		TTL:    5 * time.Minute,
	}
}

// PluginModule provides the cache and the shared Redis connection as a mono plugin.
type PluginModule struct {
	container types.ServiceContainer
	config    Config
	storage   *fiberredis.Storage
	service   CacheService
}

// Compile-time interface checks.
var (
	_ mono.PluginModule          = (*PluginModule)(nil)
	_ mono.HealthCheckableModule = (*PluginModule)(nil)
)

// NewPluginModule creates a cache plugin with the given configuration.
func NewPluginModule(config Config) *PluginModule {
	return &PluginModule{
		config:  config,
		service: NewNoopCache(),
	}
}

// Name returns the module name.
func (m *PluginModule) Name() string {
	return "cache"
}

// Start connects to Redis when an address is configured.
func (m *PluginModule) Start(_ context.Context) error {
	if m.config.RedisAddr == "" {
		log.Println("[cache] REDIS_ADDR not set, caching disabled")
		return nil
	}

	host, port := parseRedisAddr(m.config.RedisAddr)
	storage, err := openStorage(fiberredis.Config{
		Host:     host,
		Port:     port,
		Password: m.config.RedisPassword,
		PoolSize: 50,
	})
	if err != nil {
		return err
	}

	m.storage = storage
	m.service = NewRedisCache(storage, m.config.Prefix, m.config.TTL)
	log.Printf("[cache] Connected to Redis at %s (prefix: %s, TTL: %s)", m.config.RedisAddr, m.config.Prefix, m.config.TTL)
	return nil
}

// Stop closes the Redis connection.
func (m *PluginModule) Stop(_ context.Context) error {
	if err := m.service.Close(); err != nil {
		log.Printf("[cache] Error closing connection: %v", err)
		return fmt.Errorf("failed to close connection: %w", err)
	}
	log.Println("[cache] Plugin stopped")
	return nil
}

// SetContainer sets the service container for this plugin.
func (m *PluginModule) SetContainer(container types.ServiceContainer) {
	m.container = container
}

// Container returns the service container for this plugin.
func (m *PluginModule) Container() types.ServiceContainer {
	return m.container
}

// Port returns the CacheService used by consumers. It is never nil.
func (m *PluginModule) Port() CacheService {
	return m.service
}

// RedisClient returns the raw Redis client, or nil when caching is disabled.
func (m *PluginModule) RedisClient() redis.UniversalClient {
	if m.storage == nil {
		return nil
	}
	return m.storage.Conn()
}

// Health returns the current health status.
func (m *PluginModule) Health(ctx context.Context) mono.HealthStatus {
	if m.storage == nil {
		return mono.HealthStatus{
			Healthy: true,
			Message: "disabled",
		}
	}

	if err := m.storage.Conn().Ping(ctx).Err(); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("redis ping failed: %v", err),
		}
	}

	stats := m.service.Stats()
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"redis_addr": m.config.RedisAddr,
			"prefix":     m.config.Prefix,
			"ttl":        m.config.TTL.String(),
			"hit_rate":   stats.HitRate,
		},
	}
}

// openStorage converts the storage constructor's panic on a failed ping into an error.
func openStorage(cfg fiberredis.Config) (storage *fiberredis.Storage, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to connect to Redis: %v", r)
		}
	}()
	return fiberredis.New(cfg), nil
}

// parseRedisAddr parses "host:port" into host and port.
// Returns defaults (127.0.0.1:6379) for invalid or missing values.
func parseRedisAddr(addr string) (string, int) {
	const defaultHost = "127.0.0.1"
	const defaultPort = 6379

	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return defaultHost, defaultPort
	}

	if host == "" {
		host = defaultHost
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		port = defaultPort
	}

	return host, port
}
