package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/UtsavMehta1975/walsnut-sub000/modules/api"
	"github.com/UtsavMehta1975/walsnut-sub000/modules/auth"
	"github.com/UtsavMehta1975/walsnut-sub000/modules/cache"
	"github.com/UtsavMehta1975/walsnut-sub000/modules/catalog"
	"github.com/UtsavMehta1975/walsnut-sub000/modules/database"
	"github.com/UtsavMehta1975/walsnut-sub000/modules/notification"
	"github.com/UtsavMehta1975/walsnut-sub000/modules/order"
	"github.com/UtsavMehta1975/walsnut-sub000/modules/payment"
	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
	"github.com/joho/godotenv"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Warning: failed to load .env: %v", err)
	}

	httpPort := getEnvInt("HTTP_PORT", 3000)
	databaseURL := getEnv("DATABASE_URL", "")
	bcryptCost := getEnvInt("BCRYPT_COST", auth.DefaultBcryptCost)

	log.Println("=== Watch Store ===")
	log.Printf("HTTP Port: %d", httpPort)
	if databaseURL == "" {
		log.Println("Warning: DATABASE_URL not set, data routes will answer 503")
	}

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(mono.LogLevelInfo),
		mono.WithLogFormat(mono.LogFormatText),
	)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Plugins first: SetPlugin is called on every module that uses the alias.
	if err := app.RegisterPlugin(database.NewPluginModule(databaseURL), "database"); err != nil {
		log.Fatalf("Failed to register database plugin: %v", err)
	}

	cacheConfig := cache.DefaultConfig()
	cacheConfig.RedisAddr = getEnv("REDIS_ADDR", "")
	cacheConfig.RedisPassword = getEnv("REDIS_PASSWORD", "")
	cacheConfig.Prefix = getEnv("CACHE_PREFIX", cacheConfig.Prefix)
	cacheConfig.TTL = getEnvDuration("CACHE_TTL", cacheConfig.TTL)
	if err := app.RegisterPlugin(cache.NewPluginModule(cacheConfig), "cache"); err != nil {
		log.Fatalf("Failed to register cache plugin: %v", err)
	}

	jwtConfig := auth.DefaultJWTConfig()
	jwtConfig.SecretKey = getEnv("JWT_SECRET_KEY", jwtConfig.SecretKey)
	jwtConfig.Issuer = getEnv("JWT_ISSUER", jwtConfig.Issuer)
	jwtConfig.AccessTokenDuration = getEnvDuration("ACCESS_TOKEN_TTL", jwtConfig.AccessTokenDuration)
	jwtConfig.RefreshTokenDuration = getEnvDuration("REFRESH_TOKEN_TTL", jwtConfig.RefreshTokenDuration)

	authModule := auth.NewModule(auth.Config{
		JWT: jwtConfig,
		OAuth: auth.OAuthConfig{
			ClientID:     getEnv("OAUTH_GOOGLE_CLIENT_ID", ""),
			ClientSecret: getEnv("OAUTH_GOOGLE_CLIENT_SECRET", ""),
			RedirectURL:  getEnv("OAUTH_REDIRECT_URL", "http://localhost:3000/api/auth/oauth/google/callback"),
		},
		BcryptCost:    bcryptCost,
		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
	})

	catalogModule := catalog.NewModule(catalog.Config{
		Images: catalog.S3Config{
			Bucket:          getEnv("IMAGE_BUCKET", ""),
			Region:          getEnv("AWS_REGION", "us-east-1"),
			Endpoint:        getEnv("S3_ENDPOINT", ""),
			BaseURL:         getEnv("IMAGE_BASE_URL", ""),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		},
	})

	orderModule := order.NewModule(auth.NewPasswordHasher(bcryptCost))

	paymentModule := payment.NewModule(payment.Config{
		Gateway: payment.HTTPGatewayConfig{
			URL:     getEnv("PAYMENT_GATEWAY_URL", ""),
			APIKey:  getEnv("PAYMENT_GATEWAY_KEY", ""),
			Timeout: getEnvDuration("PAYMENT_GATEWAY_TIMEOUT", 10*time.Second),
		},
		Currency:      getEnv("PAYMENT_CURRENCY", "INR"),
		WebhookSecret: getEnv("PAYMENT_WEBHOOK_SECRET", ""),
	})

	notificationModule := notification.NewModule(getEnvInt("ACTIVITY_FEED_SIZE", notification.DefaultCapacity))

	apiModule := api.NewModule(api.Config{
		Port:                 httpPort,
		CookieSecure:         getEnvBool("COOKIE_SECURE", false),
		ActivityPollInterval: getEnvDuration("ACTIVITY_POLL_INTERVAL", 2*time.Second),
		RateLimit: api.RateLimitConfig{
			Requests: getEnvInt("RATE_LIMIT_REQUESTS", 20),
			Window:   getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),
		},
		AppHealth: func(ctx context.Context) bool {
			return app.Health(ctx).Healthy
		},
	})

	// Register modules with the framework
	// Order: independent modules first, then dependent modules
	modules := []struct {
		name   string
		module mono.Module
	}{
		{"auth", authModule},
		{"catalog", catalogModule},
		{"order", orderModule},
		{"payment", paymentModule},           // Depends on order
		{"notification", notificationModule}, // Consumes order and payment events
		{"api", apiModule},                   // Depends on everything above
	}
	for _, m := range modules {
		if err := app.Register(m.module); err != nil {
			log.Fatalf("Failed to register %s module: %v", m.name, err)
		}
	}

	if err := app.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	printStartupInfo(httpPort)

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				return app.Stop(ctx)
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
}

func printStartupInfo(port int) {
	log.Println("")
	log.Println("Application started successfully!")
	log.Printf("REST API Endpoints (http://localhost:%d):", port)
	log.Println("")
	log.Println("  Storefront:")
	log.Println("  GET    /api/products            - Browse the catalog")
	log.Println("  GET    /api/products/:id        - Product detail")
	log.Println("  GET    /api/categories          - Categories")
	log.Println("  POST   /api/orders              - Checkout (signed in or guest)")
	log.Println("  GET    /api/orders              - Order history")
	log.Println("  POST   /api/payments            - Start a payment session")
	log.Println("  POST   /api/payments/webhook    - Gateway callback")
	log.Println("")
	log.Println("  Accounts:")
	log.Println("  POST   /api/auth/register       - Register")
	log.Println("  POST   /api/auth/login          - Login")
	log.Println("  GET    /api/auth/oauth/google   - Google sign-in")
	log.Println("  GET    /api/profile             - Current user")
	log.Println("")
	log.Println("  Admin (ADMIN role):")
	log.Println("  /api/admin/products, /api/admin/orders, /api/admin/customers,")
	log.Println("  /api/admin/categories, /api/admin/stats, /api/admin/activity")
	log.Println("")
	log.Println("Press Ctrl+C to shutdown gracefully")
}

// getEnv returns environment variable value or default.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns environment variable as int or default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Printf("Warning: invalid int value for %s: %s, using default: %d", key, value, defaultValue)
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
		log.Printf("Warning: invalid bool value for %s: %s, using default: %t", key, value, defaultValue)
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
		log.Printf("Warning: invalid duration for %s: %s, using default: %s", key, value, defaultValue)
	}
	return defaultValue
}
