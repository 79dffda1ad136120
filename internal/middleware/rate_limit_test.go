package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiterWithConfig(10, 5) // 10 per minute, burst of 5
	defer rl.Stop()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		d, err := rl.Allow(ctx, 1)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if !d.Allowed {
			t.Errorf("Request %d should be allowed", i+1)
		}
	}

	d, _ := rl.Allow(ctx, 1)
	if d.Allowed {
		t.Error("Request 6 should be rate limited")
	}
	if d.RetryAfter <= 0 {
		t.Errorf("Expected positive retry after, got %v", d.RetryAfter)
	}
}

func TestRateLimiter_DifferentWorkspaces(t *testing.T) {
	rl := NewRateLimiterWithConfig(10, 3)
	defer rl.Stop()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if d, _ := rl.Allow(ctx, 1); !d.Allowed {
			t.Errorf("Workspace 1 request %d should be allowed", i+1)
		}
	}
	if d, _ := rl.Allow(ctx, 1); d.Allowed {
		t.Error("Workspace 1 should be rate limited")
	}
	for i := 0; i < 3; i++ {
		if d, _ := rl.Allow(ctx, 2); !d.Allowed {
			t.Errorf("Workspace 2 request %d should be allowed", i+1)
		}
	}
}

func requestWithWorkspace(e *echo.Echo, workspaceID int32) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/loans", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if workspaceID != 0 {
		SetSession(c, req.Context(), &Session{Auth0ID: "auth0|1", WorkspaceID: workspaceID})
	}
	return c, rec
}

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func TestRateLimitMiddleware_SkipsWithoutWorkspace(t *testing.T) {
	e := echo.New()
	rl := NewRateLimiterWithConfig(1, 1)
	defer rl.Stop()

	for i := 0; i < 5; i++ {
		c, rec := requestWithWorkspace(e, 0)
		if err := RateLimitMiddleware(rl)(okHandler)(c); err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Errorf("Request %d: expected 200, got %d", i+1, rec.Code)
		}
	}
}

func TestRateLimitMiddleware_LimitsWorkspace(t *testing.T) {
	e := echo.New()
	rl := NewRateLimiterWithConfig(10, 2)
	defer rl.Stop()

	for i := 0; i < 2; i++ {
		c, rec := requestWithWorkspace(e, 9)
		if err := RateLimitMiddleware(rl)(okHandler)(c); err != nil {
			t.Fatalf("Request %d: Expected no error, got %v", i+1, err)
		}
		if rec.Code != http.StatusOK {
			t.Errorf("Request %d: Expected status 200, got %d", i+1, rec.Code)
		}
		if rec.Header().Get("X-RateLimit-Limit") != "10" {
			t.Errorf("Request %d: Expected X-RateLimit-Limit 10, got %q", i+1, rec.Header().Get("X-RateLimit-Limit"))
		}
	}

	c, rec := requestWithWorkspace(e, 9)
	if err := RateLimitMiddleware(rl)(okHandler)(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("Expected status 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Expected Retry-After header")
	}
}

type failingLimiter struct{}

func (failingLimiter) Allow(ctx context.Context, workspaceID int32) (Decision, error) {
	return Decision{}, errors.New("redis: connection refused")
}

func TestRateLimitMiddleware_FailsOpen(t *testing.T) {
	e := echo.New()
	c, rec := requestWithWorkspace(e, 9)

	if err := RateLimitMiddleware(failingLimiter{})(okHandler)(c); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
}

func TestRedisRateLimiter_UnreachableServer(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	rl := NewRedisRateLimiter(client, 10, time.Minute)
	if _, err := rl.Allow(context.Background(), 1); err == nil {
		t.Error("Expected error from unreachable redis")
	}
}
