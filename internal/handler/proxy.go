package handler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"pypi-auth-proxy/internal/client"
	"pypi-auth-proxy/internal/model"
	"pypi-auth-proxy/internal/service"
)

// hopByHopResponseHeaders are upstream response headers the relay must not
// copy: connection framing belongs to each hop, not to the payload.
var hopByHopResponseHeaders = map[string]bool{
	"Connection":          true,
	"Keep-Alive":          true,
	"Proxy-Authenticate":  true,
	"Proxy-Authorization": true,
	"Te":                  true,
	"Trailer":             true,
	"Transfer-Encoding":   true,
	"Upgrade":             true,
}

// ProxyHandler relays authenticated index requests to the upstream and
// streams the response back.
type ProxyHandler struct {
	service *service.ForwardService
	logger  *slog.Logger
}

// NewProxyHandler creates a ProxyHandler.
func NewProxyHandler(svc *service.ForwardService, logger *slog.Logger) *ProxyHandler {
	return &ProxyHandler{
		service: svc,
		logger:  logger.With("component", "proxy_handler"),
	}
}

// Handle forwards the request to the upstream index and relays the
// response. Upstream status, headers (duplicates included) and body pass
// through unchanged; non-2xx upstream statuses are relayed, not treated
// as proxy failures.
func (h *ProxyHandler) Handle(c echo.Context) error {
	req := c.Request()

	// EscapedPath keeps the caller's original percent-encoding: a
	// request for /simple/a%2Fb/ must reach the upstream as that one
	// segment, not re-decoded into /simple/a/b/.
	ir := &model.IndexRequest{
		Ctx:      req.Context(),
		Path:     req.URL.EscapedPath(),
		RawQuery: req.URL.RawQuery,
		Header:   req.Header,
	}

	resp, err := h.service.Forward(ir)
	if err != nil {
		return h.relayError(c, err)
	}
	defer func() { _ = resp.Body.Close() }()

	header := c.Response().Header()
	for key, vals := range resp.Header {
		if hopByHopResponseHeaders[http.CanonicalHeaderKey(key)] {
			continue
		}
		for _, v := range vals {
			header.Add(key, v)
		}
	}

	c.Response().WriteHeader(resp.StatusCode)

	// Stream the upstream body directly to the client. If io.Copy fails
	// mid-stream (e.g. client disconnect, truncated upstream read), the
	// status code has already been sent, so the client receives a
	// truncated response with the original status. This is an inherent
	// trade-off of streaming proxies — we log the error for observability.
	if _, err := io.Copy(c.Response(), resp.Body); err != nil {
		h.logger.Error("streaming response body",
			"err", err,
			"path", req.URL.Path,
		)
	}

	return nil
}

// relayError writes the single terminal response for a failed upstream
// call: always a 500 with the reason as a plain-text body. The
// connection/protocol distinction is visible in the log, not on the wire.
func (h *ProxyHandler) relayError(c echo.Context, err error) error {
	kind := client.KindConnection
	var ce *client.Error
	if errors.As(err, &ce) {
		kind = ce.Kind
	}

	h.logger.Error("upstream failure",
		"kind", kind.String(),
		"err", err,
		"path", c.Request().URL.Path,
	)

	return c.String(http.StatusInternalServerError, err.Error()+"\n")
}
