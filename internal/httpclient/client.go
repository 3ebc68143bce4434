// Package httpclient builds the HTTP client used for upstream API calls.
package httpclient

import (
	"net"
	"net/http"
	"time"
)

// ClientConfig holds configuration options for creating HTTP clients
type ClientConfig struct {
	// Connection pool. Nearly all traffic goes to one host, so the
	// per-host limit is the one that matters.
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration

	// Timeout bounds a whole request, including reading the body.
	Timeout time.Duration

	// Per-phase limits, each well inside Timeout.
	DialTimeout           time.Duration
	TLSHandshakeTimeout   time.Duration
	ResponseHeaderTimeout time.Duration

	// RespectRateLimit pauses requests while the upstream reports an
	// exhausted rate-limit window.
	RespectRateLimit bool
}

// DefaultConfig returns a ClientConfig sized for a single upstream host.
// A zero timeout falls back to 30 seconds.
func DefaultConfig(timeout time.Duration) ClientConfig {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return ClientConfig{
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   10, // enough for one listing walk plus lookups
		IdleConnTimeout:       90 * time.Second,
		Timeout:               timeout,
		DialTimeout:           10 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: timeout, // slow listings stall before the headers
		RespectRateLimit:      true,
	}
}

// NewHTTPClient creates a new HTTP client with the provided configuration.
// Compression is negotiated by the caller, so the transport's implicit gzip
// handling is disabled.
func NewHTTPClient(config ClientConfig) *http.Client {
	var transport http.RoundTripper = &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   config.DialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          config.MaxIdleConns,
		MaxIdleConnsPerHost:   config.MaxIdleConnsPerHost,
		IdleConnTimeout:       config.IdleConnTimeout,
		TLSHandshakeTimeout:   config.TLSHandshakeTimeout,
		ResponseHeaderTimeout: config.ResponseHeaderTimeout,
		DisableCompression:    true, // the Reddit client decodes gzip and br itself
		ForceAttemptHTTP2:     true,
		ExpectContinueTimeout: 1 * time.Second,
	}
	// The limiter wraps the pooled transport so a pause holds no connection.
	if config.RespectRateLimit {
		transport = NewRateLimitTransport(transport)
	}

	return &http.Client{
		Transport: transport,
		Timeout:   config.Timeout,
	}
}
