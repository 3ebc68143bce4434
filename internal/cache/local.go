package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// LocalCache implements Cache with one file per key under a directory.
// This is suitable for single-instance deployments and CLI runs.
type LocalCache struct {
	mu  sync.RWMutex
	dir string
	ttl time.Duration
	now func() time.Time
}

// NewLocalCache creates a new file-based cache rooted at dir.
// Entries older than ttl are treated as misses; a zero ttl never expires.
func NewLocalCache(dir string, ttl time.Duration) *LocalCache {
	return &LocalCache{
		dir: dir,
		ttl: ttl,
		now: time.Now,
	}
}

func (c *LocalCache) path(key string) string {
	return filepath.Join(c.dir, key+".json")
}

// Get reads the entry for key.
func (c *LocalCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.dir == "" {
		return nil, nil
	}

	path := c.path(key)
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to stat cache file: %w", err)
	}
	if c.ttl > 0 && c.now().Sub(info.ModTime()) > c.ttl {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}
	return data, nil
}

// Set writes the entry for key.
func (c *LocalCache) Set(ctx context.Context, key string, body []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.dir == "" {
		return nil
	}

	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	// Write atomically using temp file + rename
	path := c.path(key)
	tmpFile := path + ".tmp"
	if err := os.WriteFile(tmpFile, body, 0o644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := os.Rename(tmpFile, path); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("failed to rename cache file: %w", err)
	}

	return nil
}

// Close is a no-op for local cache.
func (c *LocalCache) Close() error {
	return nil
}
