package api

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/UtsavMehta1975/walsnut-sub000/modules/auth"
	"github.com/UtsavMehta1975/walsnut-sub000/modules/cache"
	"github.com/UtsavMehta1975/walsnut-sub000/modules/catalog"
	"github.com/UtsavMehta1975/walsnut-sub000/modules/notification"
	"github.com/UtsavMehta1975/walsnut-sub000/modules/order"
	"github.com/UtsavMehta1975/walsnut-sub000/modules/payment"
	"github.com/go-monolith/mono"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// Config holds HTTP server configuration.
type Config struct {
	Port         int
	CookieSecure bool
	RateLimit    RateLimitConfig

	// ActivityPollInterval is how often the activity WebSocket checks the feed.
	ActivityPollInterval time.Duration

	// AppHealth reports whether every registered module is healthy. Optional.
	AppHealth func(ctx context.Context) bool
}

// Ports are the module services the HTTP layer calls.
type Ports struct {
	Auth     auth.AuthPort
	Catalog  catalog.CatalogPort
	Orders   order.OrderPort
	Payments payment.PaymentPort
	Activity notification.ActivityPort
}

func (p Ports) missing() string {
	switch {
	case p.Auth == nil:
		return "auth"
	case p.Catalog == nil:
		return "catalog"
	case p.Orders == nil:
		return "order"
	case p.Payments == nil:
		return "payment"
	case p.Activity == nil:
		return "notification"
	}
	return ""
}

// APIModule is the HTTP API module.
type APIModule struct {
	config Config
	ports  Ports
	cache  *cache.PluginModule
	app    *fiber.App
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*APIModule)(nil)
	_ mono.DependentModule       = (*APIModule)(nil)
	_ mono.UsePluginModule       = (*APIModule)(nil)
	_ mono.HealthCheckableModule = (*APIModule)(nil)
)

// NewModule creates a new APIModule.
func NewModule(config Config) *APIModule {
	if config.Port == 0 {
		config.Port = 3000
	}
	return &APIModule{config: config}
}

// Name returns the module name.
func (m *APIModule) Name() string {
	return "api"
}

// Dependencies returns the list of module dependencies.
func (m *APIModule) Dependencies() []string {
	return []string{"auth", "catalog", "order", "payment", "notification"}
}

// SetDependencyServiceContainer receives service containers from dependencies.
func (m *APIModule) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	switch dependency {
	case "auth":
		m.ports.Auth = auth.NewAuthAdapter(container)
	case "catalog":
		m.ports.Catalog = catalog.NewCatalogAdapter(container)
	case "order":
		m.ports.Orders = order.NewOrderAdapter(container)
	case "payment":
		m.ports.Payments = payment.NewPaymentAdapter(container)
	case "notification":
		m.ports.Activity = notification.NewActivityAdapter(container)
	}
}

// SetPlugin receives the cache plugin, whose Redis connection backs the rate limiter.
func (m *APIModule) SetPlugin(alias string, plugin mono.PluginModule) {
	if alias != "cache" {
		return
	}
	if c, ok := plugin.(*cache.PluginModule); ok {
		m.cache = c
	}
}

// Start initializes the Fiber HTTP server.
func (m *APIModule) Start(_ context.Context) error {
	if dep := m.ports.missing(); dep != "" {
		return fmt.Errorf("%s dependency not set", dep)
	}

	var rl *RedisLimiter
	if m.cache != nil {
		if client := m.cache.RedisClient(); client != nil {
			rl = NewRedisLimiter(client, "watchstore:ratelimit:")
		}
	}

	m.app = NewApp(m.ports, m.config, rl)

	addr := fmt.Sprintf(":%d", m.config.Port)
	go func() {
		if err := m.app.Listen(addr); err != nil {
			log.Printf("[api] HTTP server error: %v", err)
		}
	}()

	log.Printf("[api] HTTP server started on %s (redis rate limiter: %t)", addr, rl != nil)
	return nil
}

// Stop shuts down the Fiber HTTP server.
func (m *APIModule) Stop(_ context.Context) error {
	if m.app == nil {
		return nil
	}
	log.Println("[api] Shutting down HTTP server...")
	return m.app.Shutdown()
}

// Health returns the health status of the module.
func (m *APIModule) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: m.app != nil,
		Message: "operational",
		Details: map[string]any{
			"port": m.config.Port,
		},
	}
}

// NewApp builds the fiber application with all middleware and routes.
// rl may be nil, in which case rate limiting is kept in memory.
func NewApp(ports Ports, config Config, rl *RedisLimiter) *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
		BodyLimit:             2 * catalog.MaxUploadBytes,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New())

	h := NewHandlers(ports, config)

	app.Get("/health", h.Health)

	root := app.Group("/api", SessionMiddleware(ports.Auth))

	authLimit := rateLimit("auth", config.RateLimit, rl)
	authRoutes := root.Group("/auth")
	authRoutes.Post("/register", authLimit, h.Register)
	authRoutes.Post("/login", authLimit, h.Login)
	authRoutes.Post("/refresh", authLimit, h.Refresh)
	authRoutes.Post("/logout", h.Logout)
	authRoutes.Get("/oauth/google", h.OAuthStart)
	authRoutes.Get("/oauth/google/callback", h.OAuthCallback)

	root.Get("/profile", requireSession, h.Profile)
	root.Put("/profile", requireSession, h.UpdateProfile)

	root.Get("/products", h.ListProducts)
	root.Get("/products/:id", h.GetProduct)
	root.Get("/categories", h.ListCategories)

	root.Post("/orders", rateLimit("orders", config.RateLimit, rl), h.CreateOrder)
	root.Get("/orders", requireSession, h.ListOrders)
	root.Get("/orders/:id", requireSession, h.GetOrder)

	root.Post("/payments/webhook", h.PaymentWebhook)
	root.Post("/payments", requireSession, h.InitiatePayment)

	admin := root.Group("/admin", requireAdmin)
	admin.Get("/products", h.AdminListProducts)
	admin.Post("/products", h.AdminCreateProduct)
	admin.Put("/products/:id", h.AdminUpdateProduct)
	admin.Delete("/products/:id", h.AdminDeleteProduct)
	admin.Post("/products/:id/images", h.AdminAddImage)
	admin.Get("/categories", h.AdminListCategories)
	admin.Post("/categories", h.AdminCreateCategory)
	admin.Get("/orders", h.AdminListOrders)
	admin.Patch("/orders/:id/status", h.AdminUpdateOrderStatus)
	admin.Get("/customers", h.AdminListCustomers)
	admin.Get("/stats", h.AdminStats)
	admin.Get("/activity", h.AdminActivity)
	admin.Get("/activity/ws", upgradeOnly, websocket.New(h.ActivityStream))

	return app
}
