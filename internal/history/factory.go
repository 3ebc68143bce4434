package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fieldcheck/config"
	"fieldcheck/internal/storage"
)

// Result holds the initialized history logger, its reader, and the storage
// behind them. The caller is responsible for calling Close().
type Result struct {
	Logger LoggerInterface
	// Reader is nil when history is disabled.
	Reader  Reader
	Storage storage.Storage
}

// Close releases all resources held by the history logger.
// Safe to call multiple times.
func (r *Result) Close() error {
	var errs []error
	if r.Logger != nil {
		if err := r.Logger.Close(); err != nil {
			errs = append(errs, fmt.Errorf("logger close: %w", err))
		}
	}
	if r.Storage != nil {
		if err := r.Storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage close: %w", err))
		}
		r.Storage = nil
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %w", errors.Join(errs...))
	}
	return nil
}

// New opens the configured storage and returns a logger writing to it.
// If history is disabled, returns a NoopLogger with nil storage.
func New(ctx context.Context, cfg *config.Config) (*Result, error) {
	if !cfg.History.Enabled {
		return &Result{Logger: &NoopLogger{}}, nil
	}

	store, err := storage.New(ctx, buildStorageConfig(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to create storage: %w", err)
	}

	result, err := NewWithSharedStorage(ctx, cfg, store)
	if err != nil {
		store.Close()
		return nil, err
	}
	result.Storage = store
	return result, nil
}

// NewWithSharedStorage creates a history logger on an already open storage.
// The caller is responsible for closing the storage separately.
func NewWithSharedStorage(_ context.Context, cfg *config.Config, store storage.Storage) (*Result, error) {
	if !cfg.History.Enabled {
		return &Result{Logger: &NoopLogger{}}, nil
	}

	if store == nil {
		return nil, fmt.Errorf("storage is required when history is enabled")
	}

	historyStore, err := createStore(store, cfg.History.RetentionDays)
	if err != nil {
		return nil, err
	}

	reader, err := NewReader(store)
	if err != nil {
		historyStore.Close()
		return nil, err
	}

	return &Result{
		Logger: NewLogger(historyStore, buildLoggerConfig(cfg.History)),
		Reader: reader,
	}, nil
}

// buildStorageConfig creates a storage.Config from the application config.
func buildStorageConfig(cfg *config.Config) storage.Config {
	defaults := storage.DefaultConfig()
	storageCfg := storage.Config{
		Type: cfg.Storage.Type,
		SQLite: storage.SQLiteConfig{
			Path: cfg.Storage.SQLite.Path,
		},
		PostgreSQL: storage.PostgreSQLConfig{
			URL:      cfg.Storage.PostgreSQL.URL,
			MaxConns: cfg.Storage.PostgreSQL.MaxConns,
		},
		MongoDB: storage.MongoDBConfig{
			URL:      cfg.Storage.MongoDB.URL,
			Database: cfg.Storage.MongoDB.Database,
		},
	}

	if storageCfg.Type == "" {
		storageCfg.Type = defaults.Type
	}
	if storageCfg.SQLite.Path == "" {
		storageCfg.SQLite.Path = defaults.SQLite.Path
	}
	if storageCfg.MongoDB.Database == "" {
		storageCfg.MongoDB.Database = defaults.MongoDB.Database
	}

	return storageCfg
}

// createStore creates the Store for the given storage backend.
func createStore(store storage.Storage, retentionDays int) (Store, error) {
	switch store.Type() {
	case storage.TypeSQLite:
		return NewSQLiteStore(store.SQLiteDB(), retentionDays)
	case storage.TypePostgreSQL:
		return NewPostgreSQLStore(store.PostgreSQLPool(), retentionDays)
	case storage.TypeMongoDB:
		return NewMongoDBStore(store.MongoDatabase(), retentionDays)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", store.Type())
	}
}

func buildLoggerConfig(historyCfg config.HistoryConfig) Config {
	cfg := Config{
		Enabled:       historyCfg.Enabled,
		BufferSize:    historyCfg.BufferSize,
		FlushInterval: time.Duration(historyCfg.FlushInterval) * time.Second,
		RetentionDays: historyCfg.RetentionDays,
	}

	defaults := DefaultConfig()
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = defaults.BufferSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = defaults.FlushInterval
	}

	return cfg
}
