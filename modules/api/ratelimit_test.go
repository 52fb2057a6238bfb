package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func limitedApp(cfg RateLimitConfig, rl *RedisLimiter) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: errorHandler})
	app.Post("/limited", rateLimit("test", cfg, rl), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func hit(t *testing.T, app *fiber.App) *http.Response {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/limited", nil), -1)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	return resp
}

func TestRateLimit_InMemory(t *testing.T) {
	app := limitedApp(RateLimitConfig{Requests: 2, Window: time.Minute}, nil)

	for i := 0; i < 2; i++ {
		if resp := hit(t, app); resp.StatusCode != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, resp.StatusCode)
		}
	}
	if resp := hit(t, app); resp.StatusCode != http.StatusTooManyRequests {
		t.Errorf("third request: status = %d, want 429", resp.StatusCode)
	}
}

func TestRateLimit_Disabled(t *testing.T) {
	app := limitedApp(RateLimitConfig{}, nil)
	for i := 0; i < 10; i++ {
		if resp := hit(t, app); resp.StatusCode != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, resp.StatusCode)
		}
	}
}

// setupTestLimiter connects to a local Redis or skips the test.
func setupTestLimiter(t *testing.T) *RedisLimiter {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: "localhost:6379", DialTimeout: time.Second})
	if err := client.Ping(context.Background()).Err(); err != nil {
		_ = client.Close()
		t.Skipf("Redis not available: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	return NewRedisLimiter(client, "watchstore-test:"+uuid.NewString()+":")
}

func TestRedisLimiter_Allow(t *testing.T) {
	rl := setupTestLimiter(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := rl.Allow(ctx, "ip", 3, time.Minute)
		if err != nil {
			t.Fatalf("Allow() error = %v", err)
		}
		if !res.Allowed {
			t.Fatalf("request %d rejected", i+1)
		}
		if res.Remaining != 2-i {
			t.Errorf("request %d: Remaining = %d, want %d", i+1, res.Remaining, 2-i)
		}
	}

	res, err := rl.Allow(ctx, "ip", 3, time.Minute)
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if res.Allowed {
		t.Error("fourth request allowed")
	}
	if !res.ResetAt.After(time.Now()) {
		t.Errorf("ResetAt = %v, want a future time", res.ResetAt)
	}

	other, err := rl.Allow(ctx, "other-ip", 3, time.Minute)
	if err != nil {
		t.Fatalf("Allow() error = %v", err)
	}
	if !other.Allowed {
		t.Error("keys must not share a window")
	}
}

func TestRedisLimiter_Middleware(t *testing.T) {
	app := limitedApp(RateLimitConfig{Requests: 1, Window: time.Minute}, setupTestLimiter(t))

	first := hit(t, app)
	if first.StatusCode != http.StatusOK {
		t.Fatalf("first request: status = %d, want 200", first.StatusCode)
	}
	if first.Header.Get("X-RateLimit-Remaining") != "0" {
		t.Errorf("X-RateLimit-Remaining = %q, want 0", first.Header.Get("X-RateLimit-Remaining"))
	}

	second := hit(t, app)
	if second.StatusCode != http.StatusTooManyRequests {
		t.Errorf("second request: status = %d, want 429", second.StatusCode)
	}
	if second.Header.Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
}
