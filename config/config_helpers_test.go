package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandString(t *testing.T) {
	tests := []struct {
		name  string
		input string
		env   map[string]string
		want  string
	}{
		{name: "plain", input: "fieldcheck/0.1", want: "fieldcheck/0.1"},
		{name: "set", input: "${REDDIT_ACCESS_TOKEN}", env: map[string]string{"REDDIT_ACCESS_TOKEN": "tok"}, want: "tok"},
		{name: "embedded", input: "bearer-${REDDIT_ACCESS_TOKEN}-x", env: map[string]string{"REDDIT_ACCESS_TOKEN": "tok"}, want: "bearer-tok-x"},
		{name: "unset kept", input: "${REDDIT_ACCESS_TOKEN}", want: "${REDDIT_ACCESS_TOKEN}"},
		{name: "empty kept", input: "${REDDIT_ACCESS_TOKEN}", env: map[string]string{"REDDIT_ACCESS_TOKEN": ""}, want: "${REDDIT_ACCESS_TOKEN}"},
		{name: "default used", input: "${REDDIT_BASE_URL:-https://oauth.reddit.com}", want: "https://oauth.reddit.com"},
		{name: "default ignored", input: "${REDDIT_BASE_URL:-https://oauth.reddit.com}", env: map[string]string{"REDDIT_BASE_URL": "http://localhost:9000"}, want: "http://localhost:9000"},
		{name: "empty default", input: "${FIELDCHECK_MASTER_KEY:-}", want: ""},
		{name: "default on empty var", input: "${CACHE_DIR:-data/responses}", env: map[string]string{"CACHE_DIR": ""}, want: "data/responses"},
		{
			name:  "mixed",
			input: "${SCHEME}://${HOST:-localhost}:${PORT}/${DB}",
			env:   map[string]string{"SCHEME": "postgres", "PORT": "5432"},
			want:  "postgres://localhost:5432/${DB}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range []string{"REDDIT_ACCESS_TOKEN", "REDDIT_BASE_URL", "FIELDCHECK_MASTER_KEY", "CACHE_DIR", "SCHEME", "HOST", "PORT", "DB"} {
				t.Setenv(k, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			assert.Equal(t, tt.want, expandString(tt.input))
		})
	}
}

// TestApplyEnvOverrides tests the applyEnvOverrides function
func TestApplyEnvOverrides(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		check   func(t *testing.T, cfg *Config)
	}{
		{
			name:    "PORT override",
			envVars: map[string]string{"PORT": "3000"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Server.Port != "3000" {
					t.Errorf("Server.Port = %q, want %q", cfg.Server.Port, "3000")
				}
			},
		},
		{
			name:    "FIELDCHECK_MASTER_KEY override",
			envVars: map[string]string{"FIELDCHECK_MASTER_KEY": "my-secret"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Server.MasterKey != "my-secret" {
					t.Errorf("Server.MasterKey = %q, want %q", cfg.Server.MasterKey, "my-secret")
				}
			},
		},
		{
			name: "reddit overrides",
			envVars: map[string]string{
				"REDDIT_BASE_URL":     "https://oauth.reddit.com",
				"REDDIT_USER_AGENT":   "test-agent/1.0",
				"REDDIT_ACCESS_TOKEN": "token",
				"REDDIT_TIMEOUT":      "5",
			},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Reddit.BaseURL != "https://oauth.reddit.com" {
					t.Errorf("Reddit.BaseURL = %q", cfg.Reddit.BaseURL)
				}
				if cfg.Reddit.UserAgent != "test-agent/1.0" {
					t.Errorf("Reddit.UserAgent = %q", cfg.Reddit.UserAgent)
				}
				if cfg.Reddit.AccessToken != "token" {
					t.Errorf("Reddit.AccessToken = %q", cfg.Reddit.AccessToken)
				}
				if cfg.Reddit.Timeout != 5 {
					t.Errorf("Reddit.Timeout = %d, want 5", cfg.Reddit.Timeout)
				}
			},
		},
		{
			name:    "storage overrides",
			envVars: map[string]string{"STORAGE_TYPE": "postgresql", "POSTGRES_URL": "postgres://localhost/test", "POSTGRES_MAX_CONNS": "20"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Storage.Type != "postgresql" {
					t.Errorf("Storage.Type = %q, want %q", cfg.Storage.Type, "postgresql")
				}
				if cfg.Storage.PostgreSQL.URL != "postgres://localhost/test" {
					t.Errorf("Storage.PostgreSQL.URL = %q, want %q", cfg.Storage.PostgreSQL.URL, "postgres://localhost/test")
				}
				if cfg.Storage.PostgreSQL.MaxConns != 20 {
					t.Errorf("Storage.PostgreSQL.MaxConns = %d, want %d", cfg.Storage.PostgreSQL.MaxConns, 20)
				}
			},
		},
		{
			name:    "bool overrides",
			envVars: map[string]string{"METRICS_ENABLED": "true", "HISTORY_ENABLED": "1"},
			check: func(t *testing.T, cfg *Config) {
				if !cfg.Metrics.Enabled {
					t.Error("Metrics.Enabled should be true")
				}
				if !cfg.History.Enabled {
					t.Error("History.Enabled should be true")
				}
			},
		},
		{
			name:    "cache overrides",
			envVars: map[string]string{"CACHE_TYPE": "redis", "REDIS_URL": "redis://localhost:6379", "CACHE_TTL": "60"},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Cache.Type != "redis" {
					t.Errorf("Cache.Type = %q, want redis", cfg.Cache.Type)
				}
				if cfg.Cache.Redis.URL != "redis://localhost:6379" {
					t.Errorf("Cache.Redis.URL = %q", cfg.Cache.Redis.URL)
				}
				if cfg.Cache.TTL != 60 {
					t.Errorf("Cache.TTL = %d, want 60", cfg.Cache.TTL)
				}
			},
		},
		{
			name:    "no env vars set preserves defaults",
			envVars: map[string]string{},
			check: func(t *testing.T, cfg *Config) {
				if cfg.Server.Port != "8080" {
					t.Errorf("Server.Port = %q, want %q", cfg.Server.Port, "8080")
				}
				if cfg.Reddit.Timeout != 30 {
					t.Errorf("Reddit.Timeout = %d, want 30", cfg.Reddit.Timeout)
				}
				if cfg.Validation.OverridePolicy != "most_derived" {
					t.Errorf("Validation.OverridePolicy = %q, want most_derived", cfg.Validation.OverridePolicy)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg := buildDefaultConfig()
			require.NoError(t, applyEnvOverrides(cfg))
			tt.check(t, cfg)
		})
	}
}

func TestApplyEnvOverrides_InvalidValues(t *testing.T) {
	t.Setenv("REDDIT_TIMEOUT", "soon")
	t.Setenv("HISTORY_ENABLED", "maybe")

	err := applyEnvOverrides(buildDefaultConfig())
	require.Error(t, err)
	require.Contains(t, err.Error(), "REDDIT_TIMEOUT")
	require.Contains(t, err.Error(), "HISTORY_ENABLED")
}
