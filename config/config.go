// Package config provides configuration management for the application.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"fieldcheck/internal/contract"
)

// Config holds the application configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Reddit     RedditConfig     `yaml:"reddit"`
	Cache      CacheConfig      `yaml:"cache"`
	Storage    StorageConfig    `yaml:"storage"`
	History    HistoryConfig    `yaml:"history"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Validation ValidationConfig `yaml:"validation"`
	Log        LogConfig        `yaml:"log"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string `yaml:"port"`
	// MasterKey enables bearer authentication on /v1 routes when non-empty.
	MasterKey string `yaml:"master_key"`
}

// RedditConfig holds the upstream API client configuration
type RedditConfig struct {
	BaseURL     string `yaml:"base_url"`
	UserAgent   string `yaml:"user_agent"`
	AccessToken string `yaml:"access_token"`
	// Timeout is the per-request timeout in seconds.
	Timeout int `yaml:"timeout"`
	// PageLimit is the number of things requested per listing page.
	PageLimit int `yaml:"page_limit"`
}

// CacheConfig holds the response cache configuration
type CacheConfig struct {
	// Type is "none", "local", or "redis". Empty disables caching.
	Type  string           `yaml:"type"`
	TTL   int              `yaml:"ttl"`
	Local LocalCacheConfig `yaml:"local"`
	Redis RedisCacheConfig `yaml:"redis"`
}

// LocalCacheConfig holds file-backed cache settings
type LocalCacheConfig struct {
	Dir string `yaml:"dir"`
}

// RedisCacheConfig holds Redis cache settings
type RedisCacheConfig struct {
	URL string `yaml:"url"`
	Key string `yaml:"key"`
}

// StorageConfig selects the database used for validation history
type StorageConfig struct {
	Type       string                  `yaml:"type"`
	SQLite     SQLiteStorageConfig     `yaml:"sqlite"`
	PostgreSQL PostgreSQLStorageConfig `yaml:"postgresql"`
	MongoDB    MongoDBStorageConfig    `yaml:"mongodb"`
}

// SQLiteStorageConfig holds SQLite settings
type SQLiteStorageConfig struct {
	Path string `yaml:"path"`
}

// PostgreSQLStorageConfig holds PostgreSQL settings
type PostgreSQLStorageConfig struct {
	URL      string `yaml:"url"`
	MaxConns int    `yaml:"max_conns"`
}

// MongoDBStorageConfig holds MongoDB settings
type MongoDBStorageConfig struct {
	URL      string `yaml:"url"`
	Database string `yaml:"database"`
}

// HistoryConfig controls persistence of validation reports
type HistoryConfig struct {
	Enabled bool `yaml:"enabled"`
	// BufferSize is the number of entries queued before writes block.
	BufferSize int `yaml:"buffer_size"`
	// FlushInterval is the batch flush period in seconds.
	FlushInterval int `yaml:"flush_interval"`
	// RetentionDays is how long entries are kept; 0 keeps them forever.
	RetentionDays int `yaml:"retention_days"`
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
}

// ValidationConfig controls contract discovery
type ValidationConfig struct {
	// OverridePolicy is "most_derived" (default) or "keep_all".
	OverridePolicy string `yaml:"override_policy"`
}

// LogConfig controls the process logger
type LogConfig struct {
	Level string `yaml:"level"`
	// Format is "auto", "text", or "json". Auto picks text on a terminal.
	Format string `yaml:"format"`
}

// LoadResult is the outcome of Load.
type LoadResult struct {
	Config *Config
	// Path is the YAML file that was read, empty when none was found.
	Path string
}

// defaultConfigPaths are searched in order when Load is called without a path.
var defaultConfigPaths = []string{"config.yaml", "config/config.yaml"}

// Load builds the configuration from defaults, an optional YAML file, and
// environment variables, in increasing order of precedence. A .env file in
// the working directory is loaded first and never overrides variables that
// are already set.
func Load(path string) (*LoadResult, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := buildDefaultConfig()

	resolved, err := resolveConfigPath(path)
	if err != nil {
		return nil, err
	}
	if resolved != "" {
		if err := readYAML(resolved, cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &LoadResult{Config: cfg, Path: resolved}, nil
}

func resolveConfigPath(path string) (string, error) {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("config file %s: %w", path, err)
		}
		return path, nil
	}
	for _, candidate := range defaultConfigPaths {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", nil
}

func readYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal([]byte(expandString(string(data))), cfg); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func buildDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8080",
		},
		Reddit: RedditConfig{
			BaseURL:   "https://www.reddit.com",
			UserAgent: "fieldcheck/0.1",
			Timeout:   30,
			PageLimit: 25,
		},
		Cache: CacheConfig{
			Type: "none",
			TTL:  300,
			Local: LocalCacheConfig{
				Dir: ".cache/responses",
			},
			Redis: RedisCacheConfig{
				Key: "fieldcheck:responses:",
			},
		},
		Storage: StorageConfig{
			Type: "sqlite",
			SQLite: SQLiteStorageConfig{
				Path: "data/fieldcheck.db",
			},
			PostgreSQL: PostgreSQLStorageConfig{
				MaxConns: 10,
			},
			MongoDB: MongoDBStorageConfig{
				Database: "fieldcheck",
			},
		},
		History: HistoryConfig{
			Enabled:       false,
			BufferSize:    1000,
			FlushInterval: 5,
			RetentionDays: 30,
		},
		Metrics: MetricsConfig{
			Enabled:  false,
			Endpoint: "/metrics",
		},
		Validation: ValidationConfig{
			OverridePolicy: string(contract.OverrideMostDerived),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// envVarPattern matches ${VAR} and ${VAR:-default}.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-([^}]*))?\}`)

// expandString replaces ${VAR} and ${VAR:-default} placeholders.
// A placeholder without a default whose variable is unset or empty is left as is.
func expandString(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := envVarPattern.FindStringSubmatch(match)
		name, hasDefault, def := parts[1], parts[2] != "", parts[3]
		if value := os.Getenv(name); value != "" {
			return value
		}
		if hasDefault {
			return def
		}
		return match
	})
}

func applyEnvOverrides(cfg *Config) error {
	var errs []error

	setString := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setInt := func(key string, dst *int) {
		v := os.Getenv(key)
		if v == "" {
			return
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s %q: must be an integer", key, v))
			return
		}
		*dst = n
	}
	setBool := func(key string, dst *bool) {
		v := os.Getenv(key)
		if v == "" {
			return
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s %q: must be a boolean", key, v))
			return
		}
		*dst = b
	}

	setString("PORT", &cfg.Server.Port)
	setString("FIELDCHECK_MASTER_KEY", &cfg.Server.MasterKey)

	setString("REDDIT_BASE_URL", &cfg.Reddit.BaseURL)
	setString("REDDIT_USER_AGENT", &cfg.Reddit.UserAgent)
	setString("REDDIT_ACCESS_TOKEN", &cfg.Reddit.AccessToken)
	setInt("REDDIT_TIMEOUT", &cfg.Reddit.Timeout)
	setInt("REDDIT_PAGE_LIMIT", &cfg.Reddit.PageLimit)

	setString("CACHE_TYPE", &cfg.Cache.Type)
	setInt("CACHE_TTL", &cfg.Cache.TTL)
	setString("CACHE_DIR", &cfg.Cache.Local.Dir)
	setString("REDIS_URL", &cfg.Cache.Redis.URL)
	setString("REDIS_KEY", &cfg.Cache.Redis.Key)

	setString("STORAGE_TYPE", &cfg.Storage.Type)
	setString("SQLITE_PATH", &cfg.Storage.SQLite.Path)
	setString("POSTGRES_URL", &cfg.Storage.PostgreSQL.URL)
	setInt("POSTGRES_MAX_CONNS", &cfg.Storage.PostgreSQL.MaxConns)
	setString("MONGODB_URL", &cfg.Storage.MongoDB.URL)
	setString("MONGODB_DATABASE", &cfg.Storage.MongoDB.Database)

	setBool("HISTORY_ENABLED", &cfg.History.Enabled)
	setInt("HISTORY_BUFFER_SIZE", &cfg.History.BufferSize)
	setInt("HISTORY_FLUSH_INTERVAL", &cfg.History.FlushInterval)
	setInt("HISTORY_RETENTION_DAYS", &cfg.History.RetentionDays)

	setBool("METRICS_ENABLED", &cfg.Metrics.Enabled)
	setString("METRICS_ENDPOINT", &cfg.Metrics.Endpoint)

	setString("VALIDATION_OVERRIDE_POLICY", &cfg.Validation.OverridePolicy)

	setString("LOG_LEVEL", &cfg.Log.Level)
	setString("LOG_FORMAT", &cfg.Log.Format)

	return errors.Join(errs...)
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port == "" {
		errs = append(errs, errors.New("server.port is required"))
	}
	if c.Reddit.BaseURL == "" {
		errs = append(errs, errors.New("reddit.base_url is required"))
	}
	if c.Reddit.UserAgent == "" {
		errs = append(errs, errors.New("reddit.user_agent is required"))
	}
	if c.Reddit.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("reddit.timeout must be positive, got %d", c.Reddit.Timeout))
	}
	if c.Reddit.PageLimit < 1 || c.Reddit.PageLimit > 100 {
		errs = append(errs, fmt.Errorf("reddit.page_limit must be between 1 and 100, got %d", c.Reddit.PageLimit))
	}

	switch c.Cache.Type {
	case "", "none", "local":
	case "redis":
		if c.Cache.Redis.URL == "" {
			errs = append(errs, errors.New("cache.redis.url is required when cache.type is redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown cache.type %q (valid: none, local, redis)", c.Cache.Type))
	}

	if c.History.Enabled {
		switch c.Storage.Type {
		case "sqlite":
		case "postgresql":
			if c.Storage.PostgreSQL.URL == "" {
				errs = append(errs, errors.New("storage.postgresql.url is required when storage.type is postgresql"))
			}
		case "mongodb":
			if c.Storage.MongoDB.URL == "" {
				errs = append(errs, errors.New("storage.mongodb.url is required when storage.type is mongodb"))
			}
		default:
			errs = append(errs, fmt.Errorf("unknown storage.type %q (valid: sqlite, postgresql, mongodb)", c.Storage.Type))
		}
		if c.History.BufferSize <= 0 {
			errs = append(errs, fmt.Errorf("history.buffer_size must be positive, got %d", c.History.BufferSize))
		}
		if c.History.FlushInterval <= 0 {
			errs = append(errs, fmt.Errorf("history.flush_interval must be positive, got %d", c.History.FlushInterval))
		}
		if c.History.RetentionDays < 0 {
			errs = append(errs, fmt.Errorf("history.retention_days must not be negative, got %d", c.History.RetentionDays))
		}
	}

	if _, err := contract.ParseOverridePolicy(c.Validation.OverridePolicy); err != nil {
		errs = append(errs, fmt.Errorf("validation.override_policy: %w", err))
	}

	switch strings.ToLower(c.Log.Format) {
	case "", "auto", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log.format %q (valid: auto, text, json)", c.Log.Format))
	}

	return errors.Join(errs...)
}
