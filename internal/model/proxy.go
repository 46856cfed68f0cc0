// Package model defines shared types for the proxy.
package model

import (
	"context"
	"io"
	"net/http"
)

// IndexRequest represents an authenticated client request to be relayed
// to the upstream package index.
type IndexRequest struct {
	Ctx      context.Context
	Path     string
	RawQuery string
	Header   http.Header
}

// IndexResponse holds the upstream response to be streamed back to the
// client. The body is a live stream; the consumer must close it.
type IndexResponse struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
}
