package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// The limiter store is echo's own, configured from server.rate_limit;
// this exercises the wiring used when the config enables it.
func TestRateLimiter_RejectsBurstOnIndexRoute(t *testing.T) {
	e := echo.New()

	// 1 request per second, burst of 1: a resolver hammering the index
	// should see 429 after the first hit.
	store := echomw.NewRateLimiterMemoryStore(rate.Limit(1))
	e.Use(echomw.RateLimiter(store))
	e.GET("/simple/*", func(c echo.Context) error {
		return c.HTML(http.StatusOK, `<a href="/simple/boltons/">boltons</a>`)
	})

	req := httptest.NewRequest(http.MethodGet, "/simple/boltons/", http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request: status = %d, want %d", rec.Code, http.StatusOK)
	}

	limited := false
	for i := 0; i < 10; i++ {
		req = httptest.NewRequest(http.MethodGet, "/simple/boltons/", http.NoBody)
		rec = httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		if rec.Code == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	if !limited {
		t.Error("expected at least one 429 response after burst, got none")
	}
}
