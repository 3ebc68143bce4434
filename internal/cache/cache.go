// Package cache stores raw upstream response bodies keyed by request path.
// Supports both local (file) and Redis backends for multi-instance deployments.
package cache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Backend names accepted by New.
const (
	TypeNone  = "none"
	TypeLocal = "local"
	TypeRedis = "redis"
)

// Cache defines the interface for response body storage.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the cached body for key.
	// Returns nil, nil on a miss or an expired entry.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores body under key.
	Set(ctx context.Context, key string, body []byte) error

	// Close releases any resources held by the cache.
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Type string
	TTL  time.Duration

	// Dir is the LocalCache directory.
	Dir string

	// RedisURL and RedisKey configure RedisCache.
	RedisURL string
	RedisKey string
}

// New returns the configured backend, or nil when caching is disabled.
func New(cfg Config) (Cache, error) {
	switch cfg.Type {
	case "", TypeNone:
		return nil, nil
	case TypeLocal:
		return NewLocalCache(cfg.Dir, cfg.TTL), nil
	case TypeRedis:
		c, err := NewRedisCache(RedisConfig{
			URL: cfg.RedisURL,
			Key: cfg.RedisKey,
			TTL: cfg.TTL,
		})
		if err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown cache type: %s (valid: none, local, redis)", cfg.Type)
	}
}

// Key derives a fixed-width cache key from a request path and query.
func Key(path string) string {
	return strconv.FormatUint(xxhash.Sum64String(path), 16)
}
