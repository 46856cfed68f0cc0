package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"pypi-auth-proxy/internal/auth"
	"pypi-auth-proxy/internal/metrics"
)

// BasicAuth returns an Echo middleware that gates proxied routes behind
// the configured Basic credential. Rejections short-circuit before the
// handler runs, so no upstream call is ever made on behalf of an
// unverified caller. The metrics parameter is optional; pass nil to
// disable auth-failure recording.
func BasicAuth(v *auth.Validator, m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			outcome := v.Check(c.Request().Header.Get(echo.HeaderAuthorization))

			switch outcome {
			case auth.Valid:
				return next(c)
			case auth.Missing:
				recordFailure(m, outcome)
				c.Response().Header().Set(echo.HeaderWWWAuthenticate, v.Challenge())
				return c.String(http.StatusUnauthorized, "authentication required\n")
			case auth.Malformed:
				recordFailure(m, outcome)
				return c.String(http.StatusUnauthorized, "malformed authorization header\n")
			default: // auth.Invalid
				recordFailure(m, outcome)
				return c.String(http.StatusForbidden, "invalid credentials\n")
			}
		}
	}
}

func recordFailure(m *metrics.Metrics, outcome auth.Outcome) {
	if m != nil {
		m.AuthFailures.WithLabelValues(outcome.String()).Inc()
	}
}
