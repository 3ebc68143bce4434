// Package reddit fetches Reddit API responses and decodes them into models.
// It performs no retries: every failure is reported to the caller as a
// *core.APIError.
package reddit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"fieldcheck/internal/cache"
	"fieldcheck/internal/core"
	"fieldcheck/internal/httpclient"
	"fieldcheck/internal/models"
	"fieldcheck/internal/observability"
)

// Operation names used in errors, logs, and metrics.
const (
	OpGetUser       = "get_user"
	OpGetSubmission = "get_submission"
	OpListing       = "listing"
)

// maxBodySize bounds a single response body after decompression.
const maxBodySize = 10 * 1024 * 1024

var errBodyTooLarge = fmt.Errorf("response too large: body exceeds %d bytes", maxBodySize)

// readLimited reads r to EOF, failing with errBodyTooLarge rather than
// returning a truncated body.
func readLimited(r io.Reader) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, maxBodySize+1))
	if err != nil {
		return nil, err
	}
	if len(body) > maxBodySize {
		return nil, errBodyTooLarge
	}
	return body, nil
}

// Config holds client configuration
type Config struct {
	// BaseURL is the API root (default: https://www.reddit.com)
	BaseURL string
	// UserAgent is sent with every request. Reddit throttles generic agents.
	UserAgent string
	// AccessToken is sent as a bearer token when non-empty.
	AccessToken string
	// Timeout is the per-request timeout (default: 30s)
	Timeout time.Duration
	// PageLimit is the number of things requested per listing page (default: 25)
	PageLimit int
}

// DefaultConfig returns a Config for the public API.
func DefaultConfig() Config {
	return Config{
		BaseURL:   "https://www.reddit.com",
		UserAgent: "fieldcheck/0.1",
		Timeout:   30 * time.Second,
		PageLimit: 25,
	}
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithCache serves and stores raw response bodies through rc.
func WithCache(rc cache.Cache) Option {
	return func(c *Client) {
		c.cache = rc
	}
}

// WithMetrics records fetch durations and failures.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// Client is a read-only Reddit API client.
type Client struct {
	httpClient *http.Client
	config     Config
	cache      cache.Cache
	metrics    *observability.Metrics

	// cacheScope prefixes every cache key so clients pointed at another
	// server, or reading as another user, never share bodies.
	cacheScope string
}

// New creates a client. Zero config fields take their DefaultConfig values.
func New(cfg Config, opts ...Option) *Client {
	defaults := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaults.BaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaults.UserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.PageLimit <= 0 {
		cfg.PageLimit = defaults.PageLimit
	}

	c := &Client{config: cfg, cacheScope: cacheScope(cfg)}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient == nil {
		c.httpClient = httpclient.NewHTTPClient(httpclient.DefaultConfig(cfg.Timeout))
	}
	return c
}

// Config returns the effective client configuration.
func (c *Client) Config() Config {
	return c.config
}

// GetUser fetches /user/{name}/about.
func (c *Client) GetUser(ctx context.Context, name string) (*models.Account, error) {
	if name == "" {
		return nil, core.NewInvalidRequestError("user name is required", nil)
	}

	body, err := c.fetch(ctx, OpGetUser, "/user/"+url.PathEscape(name)+"/about.json", nil)
	if err != nil {
		return nil, err
	}

	account, err := models.DecodeAccount(body)
	if err != nil {
		return nil, c.decodeError(OpGetUser, err)
	}
	return account, nil
}

// GetSubmission fetches /comments/{id}: the submission and its comment listing.
func (c *Client) GetSubmission(ctx context.Context, id string) (*models.Submission, error) {
	id = strings.TrimPrefix(id, models.KindSubmission+"_")
	if id == "" {
		return nil, core.NewInvalidRequestError("submission id is required", nil)
	}

	body, err := c.fetch(ctx, OpGetSubmission, "/comments/"+url.PathEscape(id)+".json", nil)
	if err != nil {
		return nil, err
	}

	submission, err := models.DecodeCommentsPage(body)
	if err != nil {
		return nil, c.decodeError(OpGetSubmission, err)
	}
	return submission, nil
}

// FrontPage returns a paginator over the front page listing.
func (c *Client) FrontPage() *Paginator {
	return newPaginator(c, "/.json")
}

// Subreddit returns a paginator over the hot listing of one subreddit.
func (c *Client) Subreddit(name string) *Paginator {
	return newPaginator(c, "/r/"+url.PathEscape(name)+".json")
}

// cacheScope identifies whose view of the API a response is. Reddit
// personalises fields such as likes by token, so the token is part of it;
// only its digest enters the key.
func cacheScope(cfg Config) string {
	scope := cfg.BaseURL + "\x00"
	if cfg.AccessToken != "" {
		sum := sha256.Sum256([]byte(cfg.AccessToken))
		scope += hex.EncodeToString(sum[:8])
	}
	return scope + "\x00"
}

func (c *Client) decodeError(operation string, err error) error {
	c.metrics.RecordFetchError(operation)
	return core.NewUpstreamError(operation, http.StatusBadGateway, "failed to decode response: "+err.Error(), err)
}

// fetch returns the decompressed body of a 200 response, consulting the
// cache first when one is configured.
func (c *Client) fetch(ctx context.Context, operation, path string, query url.Values) ([]byte, error) {
	if query == nil {
		query = url.Values{}
	}
	query.Set("raw_json", "1")
	target := path + "?" + query.Encode()

	key := cache.Key(c.cacheScope + target)
	if c.cache != nil {
		body, err := c.cache.Get(ctx, key)
		if err != nil {
			slog.Warn("response cache read failed", "operation", operation, "error", err)
		} else if body != nil {
			slog.Debug("response cache hit", "operation", operation, "path", path)
			return body, nil
		}
	}

	start := time.Now()
	body, err := c.do(ctx, operation, target)
	c.metrics.ObserveFetch(operation, time.Since(start))
	if err != nil {
		c.metrics.RecordFetchError(operation)
		slog.Warn("reddit request failed", "operation", operation, "path", path, "error", err)
		return nil, err
	}

	// A malformed body fails to decode; caching it would pin the failure.
	if c.cache != nil && gjson.ValidBytes(body) {
		if err := c.cache.Set(ctx, key, body); err != nil {
			slog.Warn("response cache write failed", "operation", operation, "error", err)
		}
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, operation, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+target, nil)
	if err != nil {
		return nil, core.NewInvalidRequestError("failed to create request", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Accept-Encoding", "br, gzip")
	if c.config.AccessToken != "" {
		req.Header.Set("Authorization", "bearer "+c.config.AccessToken)
	}
	if id := core.GetRequestID(ctx); id != "" {
		req.Header.Set(core.HeaderRequestID, id)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, core.NewTransportError(operation, fmt.Errorf("failed to send request: %w", err))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := readLimited(resp.Body)
	if errors.Is(err, errBodyTooLarge) {
		return nil, core.NewUpstreamError(operation, http.StatusBadGateway, err.Error(), err)
	}
	if err != nil {
		return nil, core.NewTransportError(operation, fmt.Errorf("failed to read response: %w", err))
	}

	body, err := decompressBody(raw, resp.Header.Get("Content-Encoding"))
	if errors.Is(err, errBodyTooLarge) {
		return nil, core.NewUpstreamError(operation, http.StatusBadGateway, err.Error(), err)
	}
	if err != nil {
		return nil, core.NewTransportError(operation, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, core.ParseUpstreamError(operation, resp.StatusCode, body, nil)
	}
	return body, nil
}
