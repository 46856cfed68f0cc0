package handler

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pypi-auth-proxy/internal/config"
	"pypi-auth-proxy/internal/metrics"
	"pypi-auth-proxy/internal/middleware"
)

// Authn is an echo.MiddlewareFunc alias for dependency injection of the
// authentication middleware.
type Authn echo.MiddlewareFunc

// RegisterRoutes wires all route handlers onto the Echo instance.
// Operational endpoints (health, status, metrics) are served by the proxy
// itself and stay outside the authenticated surface; every other path is
// the catch-all relay, gated behind Basic auth. Only GET is routed for
// relayed paths; other verbs get a 405 from the router.
func RegisterRoutes(e *echo.Echo, cfg *config.Config, proxy *ProxyHandler, health *HealthHandler, authn Authn, m *metrics.Metrics) {
	// RequestID and security headers stay off the relayed surface:
	// relayed responses must carry exactly the upstream's header set.
	ops := e.Group("", echomw.RequestID(), middleware.SecurityHeaders())
	ops.GET("/healthz", health.Healthz)
	ops.GET("/proxy/status", health.Status)

	if cfg.Metrics.Enabled {
		ops.GET(cfg.Metrics.Path, echo.WrapHandler(
			promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}),
		))
	}

	e.GET("/*", proxy.Handle, echo.MiddlewareFunc(authn))
}
