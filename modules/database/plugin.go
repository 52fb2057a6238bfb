package database

import (
	"context"
	"fmt"
	"log"

	"github.com/UtsavMehta1975/walsnut-sub000/domain/apperror"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/types"
	"gorm.io/gorm"
)

// ErrNotConfigured is returned by DB when no connection string was provided.
var ErrNotConfigured = apperror.Config("database is not configured")

// PluginModule provides the shared *gorm.DB as a mono plugin.
// Plugins start before and stop after regular modules, so every module
// sees an open connection for its whole lifetime.
type PluginModule struct {
	container types.ServiceContainer
	url       string
	dialect   Dialect
	db        *gorm.DB
}

// Compile-time interface checks.
var (
	_ mono.PluginModule          = (*PluginModule)(nil)
	_ mono.HealthCheckableModule = (*PluginModule)(nil)
)

// NewPluginModule creates a database plugin for the given connection string.
// An empty url leaves the plugin unconfigured.
func NewPluginModule(url string) *PluginModule {
	return &PluginModule{url: url}
}

// NewPluginModuleWithDB wraps an already open connection.
func NewPluginModuleWithDB(db *gorm.DB) *PluginModule {
	return &PluginModule{db: db, dialect: DialectSQLite}
}

// Name returns the module name.
func (m *PluginModule) Name() string {
	return "database"
}

// Start opens and migrates the database.
func (m *PluginModule) Start(_ context.Context) error {
	if m.db != nil {
		return nil
	}
	if m.url == "" {
		log.Println("[database] Warning: DATABASE_URL is not set, data endpoints will answer 503")
		return nil
	}

	db, dialect, err := Open(m.url)
	if err != nil {
		return err
	}
	if err := Migrate(db); err != nil {
		return err
	}

	m.db = db
	m.dialect = dialect
	log.Printf("[database] Plugin started (dialect: %s, url: %s)", dialect, redact(m.url))
	return nil
}

// Stop closes the connection pool.
func (m *PluginModule) Stop(_ context.Context) error {
	if m.db != nil {
		sqlDB, err := m.db.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
	log.Println("[database] Plugin stopped")
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

// DB returns the connection, or ErrNotConfigured.
func (m *PluginModule) DB() (*gorm.DB, error) {
	if m.db == nil {
		return nil, ErrNotConfigured
	}
	return m.db, nil
}

// Configured reports whether a database is available.
func (m *PluginModule) Configured() bool {
	return m.db != nil
}

// Health returns the health status of the plugin.
func (m *PluginModule) Health(ctx context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "database not configured",
		}
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("failed to get database connection: %v", err),
		}
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}

	stats := sqlDB.Stats()
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"dialect":          string(m.dialect),
			"open_connections": stats.OpenConnections,
			"in_use":           stats.InUse,
		},
	}
}
