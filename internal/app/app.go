// Package app provides the main application struct for centralized dependency management
// and lifecycle control of the fieldcheck server and CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"fieldcheck/config"
	"fieldcheck/internal/cache"
	"fieldcheck/internal/check"
	"fieldcheck/internal/contract"
	"fieldcheck/internal/history"
	"fieldcheck/internal/models"
	"fieldcheck/internal/observability"
	"fieldcheck/internal/reddit"
	"fieldcheck/internal/server"
)

// App represents the main application with all its dependencies.
// It provides centralized lifecycle management for all components.
type App struct {
	config    *config.Config
	cache     cache.Cache
	client    *reddit.Client
	registry  *contract.Registry
	validator *contract.Validator
	metrics   *observability.Metrics
	history   *history.Result
	checker   *check.Checker
	server    *server.Server

	shutdownMu sync.Mutex
	shutdown   bool
}

// Config holds the configuration options for creating an App.
type Config struct {
	// AppConfig holds the loaded application configuration produced by config.Load.
	AppConfig *config.LoadResult

	// HTTPClient overrides the client used for Reddit requests.
	HTTPClient *http.Client

	// Registerer receives the Prometheus collectors when metrics are enabled.
	// Defaults to the global registry.
	Registerer prometheus.Registerer

	// Gatherer backs the metrics endpoint. When nil, a Registerer that is
	// also a Gatherer (such as *prometheus.Registry) is used, otherwise the
	// global registry.
	Gatherer prometheus.Gatherer
}

// metricsGatherer pairs the endpoint with the registry the collectors went to.
func (c Config) metricsGatherer() prometheus.Gatherer {
	if c.Gatherer != nil {
		return c.Gatherer
	}
	if g, ok := c.Registerer.(prometheus.Gatherer); ok {
		return g
	}
	return prometheus.DefaultGatherer
}

// New creates a new App with all dependencies initialized.
// The caller must call Shutdown to release resources.
func New(ctx context.Context, cfg Config) (*App, error) {
	if cfg.AppConfig == nil {
		return nil, fmt.Errorf("app config is required")
	}
	if cfg.AppConfig.Config == nil {
		return nil, fmt.Errorf("app config contains nil Config")
	}

	appCfg := cfg.AppConfig.Config
	app := &App{config: appCfg}

	policy, err := contract.ParseOverridePolicy(appCfg.Validation.OverridePolicy)
	if err != nil {
		return nil, err
	}
	registry, err := models.NewRegistry(
		contract.WithOverridePolicy(policy),
		contract.WithLogger(slog.Default()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to register models: %w", err)
	}
	app.registry = registry
	app.validator = contract.NewValidator(registry).WithLogger(slog.Default())

	if appCfg.Metrics.Enabled {
		app.metrics = observability.New(cfg.Registerer)
	}

	responseCache, err := cache.New(cache.Config{
		Type:     appCfg.Cache.Type,
		TTL:      time.Duration(appCfg.Cache.TTL) * time.Second,
		Dir:      appCfg.Cache.Local.Dir,
		RedisURL: appCfg.Cache.Redis.URL,
		RedisKey: appCfg.Cache.Redis.Key,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize response cache: %w", err)
	}
	app.cache = responseCache

	opts := []reddit.Option{reddit.WithMetrics(app.metrics)}
	if responseCache != nil {
		opts = append(opts, reddit.WithCache(responseCache))
	}
	if cfg.HTTPClient != nil {
		opts = append(opts, reddit.WithHTTPClient(cfg.HTTPClient))
	}
	app.client = reddit.New(reddit.Config{
		BaseURL:     appCfg.Reddit.BaseURL,
		UserAgent:   appCfg.Reddit.UserAgent,
		AccessToken: appCfg.Reddit.AccessToken,
		Timeout:     time.Duration(appCfg.Reddit.Timeout) * time.Second,
		PageLimit:   appCfg.Reddit.PageLimit,
	}, opts...)

	historyResult, err := history.New(ctx, appCfg)
	if err != nil {
		closeErr := app.closeCache()
		if closeErr != nil {
			return nil, fmt.Errorf("failed to initialize history: %w (also: cache close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to initialize history: %w", err)
	}
	app.history = historyResult

	app.checker = check.New(app.client, app.validator, historyResult.Logger, check.WithMetrics(app.metrics))

	app.logStartupInfo(cfg.AppConfig.Path)

	app.server = server.New(app.checker, registry, historyResult.Reader, &server.Config{
		MasterKey:       appCfg.Server.MasterKey,
		MetricsEnabled:  appCfg.Metrics.Enabled,
		MetricsEndpoint: appCfg.Metrics.Endpoint,
		Gatherer:        cfg.metricsGatherer(),
	})

	return app, nil
}

// Checker returns the validation checker.
func (a *App) Checker() *check.Checker {
	return a.checker
}

// Registry returns the contract registry.
func (a *App) Registry() *contract.Registry {
	return a.registry
}

// HistoryReader returns the history reader, or nil when history is disabled.
func (a *App) HistoryReader() history.Reader {
	if a.history == nil {
		return nil
	}
	return a.history.Reader
}

// Handler returns the HTTP handler without starting a listener.
func (a *App) Handler() http.Handler {
	return a.server
}

// Start starts the HTTP server on the given address.
// This is a blocking call that returns when the server stops.
func (a *App) Start(addr string) error {
	if a.server == nil {
		return fmt.Errorf("server is not initialized")
	}
	slog.Info("starting server", "address", addr)
	if err := a.server.Start(addr); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			slog.Info("server stopped gracefully")
			return nil
		}
		return fmt.Errorf("server failed to start: %w", err)
	}
	return nil
}

// Shutdown gracefully tears down app components in dependency order:
// the HTTP server first, then the history logger (flushing pending entries),
// then the response cache.
//
// Shutdown is idempotent. It attempts every step and returns a joined error
// if any step fails.
func (a *App) Shutdown(ctx context.Context) error {
	a.shutdownMu.Lock()
	if a.shutdown {
		a.shutdownMu.Unlock()
		return nil
	}
	a.shutdown = true
	a.shutdownMu.Unlock()

	slog.Debug("shutting down application...")

	var errs []error

	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			slog.Error("server shutdown error", "error", err)
			errs = append(errs, fmt.Errorf("server shutdown: %w", err))
		}
	}

	if a.history != nil {
		if err := a.history.Close(); err != nil {
			slog.Error("history close error", "error", err)
			errs = append(errs, fmt.Errorf("history close: %w", err))
		}
	}

	if err := a.closeCache(); err != nil {
		slog.Error("cache close error", "error", err)
		errs = append(errs, fmt.Errorf("cache close: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %w", errors.Join(errs...))
	}

	slog.Debug("application shutdown complete")
	return nil
}

func (a *App) closeCache() error {
	if a.cache == nil {
		return nil
	}
	return a.cache.Close()
}

// logStartupInfo logs the application configuration on startup.
func (a *App) logStartupInfo(configPath string) {
	cfg := a.config

	if configPath != "" {
		slog.Debug("configuration loaded", "path", configPath)
	}

	slog.Debug("contract registry ready",
		"types", len(a.registry.Types()),
		"override_policy", a.registry.Policy(),
	)

	if cfg.Reddit.AccessToken == "" {
		slog.Debug("reddit access token not set, using the public API", "base_url", cfg.Reddit.BaseURL)
	}

	if cfg.Cache.Type != "" && cfg.Cache.Type != cache.TypeNone {
		slog.Debug("response cache enabled", "type", cfg.Cache.Type, "ttl_seconds", cfg.Cache.TTL)
	}

	if cfg.Metrics.Enabled {
		slog.Debug("prometheus metrics enabled", "endpoint", cfg.Metrics.Endpoint)
	}

	if cfg.History.Enabled {
		slog.Debug("validation history enabled",
			"storage_type", cfg.Storage.Type,
			"buffer_size", cfg.History.BufferSize,
			"flush_interval", cfg.History.FlushInterval,
			"retention_days", cfg.History.RetentionDays,
		)
	}
}

// LogServerSecurity warns when the HTTP API runs without authentication.
func (a *App) LogServerSecurity() {
	if a.config.Server.MasterKey == "" {
		slog.Warn("SECURITY WARNING: FIELDCHECK_MASTER_KEY not set - server running in UNSAFE MODE",
			"security_risk", "unauthenticated access allowed",
			"recommendation", "set FIELDCHECK_MASTER_KEY environment variable to secure the API")
		return
	}
	slog.Info("authentication enabled", "mode", "master_key")
}
