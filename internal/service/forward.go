// Package service implements the core forwarding logic.
package service

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"pypi-auth-proxy/internal/client"
	"pypi-auth-proxy/internal/config"
	"pypi-auth-proxy/internal/model"
)

// forwardableRequestHeaders are the only request headers forwarded upstream.
// The Authorization header is deliberately absent: the proxy's credential
// gates access to the proxy itself and must never leak to the index.
var forwardableRequestHeaders = []string{
	"Accept",
	"Accept-Encoding",
	"Accept-Language",
}

const userAgent = "pypi-auth-proxy/1.0"

// ForwardService relays authenticated requests to the upstream index.
type ForwardService struct {
	client  *client.IndexClient
	logger  *slog.Logger
	baseURL string
}

// NewForwardService creates a ForwardService. The upstream base URL is
// parsed once here; it is fixed for the process lifetime.
func NewForwardService(c *client.IndexClient, cfg *config.Config, logger *slog.Logger) (*ForwardService, error) {
	u, err := url.Parse(cfg.Upstream.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse upstream base_url: %w", err)
	}

	return &ForwardService{
		client:  c,
		logger:  logger.With("component", "forward_service"),
		baseURL: strings.TrimRight(u.String(), "/"),
	}, nil
}

// Forward issues a GET for the request's path against the upstream index
// and returns the response. The caller is responsible for closing the
// response body. Path and query string are relayed verbatim, without
// re-encoding, so the upstream sees exactly what the client sent.
func (s *ForwardService) Forward(ir *model.IndexRequest) (*model.IndexResponse, error) {
	upstreamURL := s.buildUpstreamURL(ir.Path, ir.RawQuery)
	header := s.filterRequestHeaders(ir.Header)

	s.logger.Debug("forwarding request", "path", ir.Path)

	resp, err := s.client.Get(ir.Ctx, upstreamURL, header)
	if err != nil {
		return nil, fmt.Errorf("forward to upstream: %w", err)
	}

	return resp, nil
}

// buildUpstreamURL joins the fixed base with the original path and raw
// query by string concatenation. Going through url.Values here would
// re-encode the query, which the relay contract forbids.
func (s *ForwardService) buildUpstreamURL(path, rawQuery string) string {
	u := s.baseURL + path
	if rawQuery != "" {
		u += "?" + rawQuery
	}
	return u
}

// filterRequestHeaders copies the content-negotiation headers upstream and
// stamps the proxy's own User-Agent. Everything else, including the
// client's Authorization, stays behind.
func (s *ForwardService) filterRequestHeaders(src http.Header) http.Header {
	dst := make(http.Header)
	for _, key := range forwardableRequestHeaders {
		if vals := src.Values(key); len(vals) > 0 {
			dst[http.CanonicalHeaderKey(key)] = vals
		}
	}
	dst.Set("User-Agent", userAgent)
	return dst
}
