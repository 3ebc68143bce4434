package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/redis/go-redis/v9"
)

const (
	// DefaultRedisKey is the default prefix for cached response keys.
	DefaultRedisKey = "fieldcheck:responses:"

	// DefaultRedisTTL is the default time-to-live for cached responses.
	DefaultRedisTTL = 5 * time.Minute

	// redisCompressionLevel trades a little CPU for much smaller listing
	// bodies, which are mostly repeated JSON keys.
	redisCompressionLevel = 5
)

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	// URL is the Redis connection URL, e.g. "redis://:password@host:6379/0".
	URL string

	// Key is prepended to every cache key (defaults to DefaultRedisKey).
	Key string

	// TTL is the time-to-live for cached responses (defaults to DefaultRedisTTL).
	TTL time.Duration
}

// RedisCache implements Cache on Redis so several fieldcheck instances share
// one set of upstream responses. Bodies are stored brotli-compressed.
type RedisCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(cfg RedisConfig) (*RedisCache, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	c := &RedisCache{client: client, prefix: cfg.Key, ttl: cfg.TTL}
	if c.prefix == "" {
		c.prefix = DefaultRedisKey
	}
	if c.ttl <= 0 {
		c.ttl = DefaultRedisTTL
	}

	slog.Info("redis cache connected", "addr", opts.Addr, "prefix", c.prefix, "ttl", c.ttl)
	return c, nil
}

// Get returns the decompressed body stored under key.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cache from redis: %w", err)
	}

	body, err := io.ReadAll(brotli.NewReader(bytes.NewReader(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to decompress cached body: %w", err)
	}
	return body, nil
}

// Set compresses body and stores it with the configured TTL.
func (c *RedisCache) Set(ctx context.Context, key string, body []byte) error {
	var buf bytes.Buffer
	w := brotli.NewWriterLevel(&buf, redisCompressionLevel)
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("failed to compress body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to compress body: %w", err)
	}

	if err := c.client.Set(ctx, c.prefix+key, buf.Bytes(), c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set cache in redis: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}
