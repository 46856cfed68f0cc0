// Package client provides the upstream HTTP client for the package index.
package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"pypi-auth-proxy/internal/config"
	"pypi-auth-proxy/internal/metrics"
	"pypi-auth-proxy/internal/model"
)

// Kind partitions upstream failures for logging and metrics. Both kinds
// surface to the client as a 500; only the diagnostic detail differs.
type Kind int

const (
	// KindConnection covers DNS, dial and timeout failures: the upstream
	// was never reached or never answered.
	KindConnection Kind = iota
	// KindProtocol covers failures after a connection was established,
	// such as a truncated or unparseable response.
	KindProtocol
)

// String returns the kind name, used as a metrics label.
func (k Kind) String() string {
	if k == KindConnection {
		return "connection_error"
	}
	return "protocol_error"
}

// Error is an upstream call failure with its classified kind.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IndexClient issues requests to the upstream package index.
type IndexClient struct {
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewIndexClient creates an IndexClient with connection pooling and timeouts.
// Compression is disabled on the transport so upstream bodies pass through
// byte-for-byte, including their Content-Encoding headers.
// The metrics parameter is optional; pass nil to disable upstream metrics recording.
func NewIndexClient(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *IndexClient {
	transport := &http.Transport{
		MaxIdleConns:        cfg.Upstream.IdleConnections,
		MaxIdleConnsPerHost: cfg.Upstream.IdleConnections,
		IdleConnTimeout:     90 * time.Second,
		DisableCompression:  true,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	return &IndexClient{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   time.Duration(cfg.Upstream.TimeoutSeconds) * time.Second,
		},
		logger:  logger.With("component", "index_client"),
		metrics: m,
	}
}

// Get issues a GET against the upstream and returns the raw response.
// The caller is responsible for closing the response body. The provided
// context controls the lifetime of the upstream request: when it is
// canceled (e.g. the client disconnects), the upstream read is abandoned.
// Failures are returned as *Error with their Kind classified.
func (c *IndexClient) Get(ctx context.Context, url string, header http.Header) (*model.IndexResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &Error{Kind: KindProtocol, Err: fmt.Errorf("build upstream request: %w", err)}
	}
	req.Header = header

	c.logger.Debug("upstream request", "url", req.URL.Redacted())

	start := time.Now()
	resp, err := c.httpClient.Do(req) //nolint:bodyclose // body ownership transfers to caller via IndexResponse
	duration := time.Since(start).Seconds()

	if err != nil {
		kind := classify(err)
		if c.metrics != nil {
			c.metrics.UpstreamDuration.WithLabelValues(kind.String()).Observe(duration)
		}
		return nil, &Error{Kind: kind, Err: fmt.Errorf("upstream request: %w", err)}
	}

	if c.metrics != nil {
		c.metrics.UpstreamDuration.WithLabelValues("success").Observe(duration)
		c.metrics.UpstreamResponses.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()
	}

	return &model.IndexResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       resp.Body,
	}, nil
}

// classify maps a transport error to a failure kind. DNS, dial and
// timeout errors mean the upstream was unreachable; anything else went
// wrong after the connection was up.
func classify(err error) Kind {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return KindConnection
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return KindConnection
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindConnection
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindConnection
	}
	return KindProtocol
}
