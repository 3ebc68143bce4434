package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/v2/mongo"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// sqliteStorage is the default backend: a single local file holding the
// validation history, or a throwaway in-memory database.
type sqliteStorage struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database, creating the file and its directory if
// needed. File databases run in WAL mode; MemoryPath opens a private
// in-memory database.
func NewSQLite(cfg SQLiteConfig) (Storage, error) {
	if cfg.Path == "" {
		cfg.Path = defaultSQLitePath
	}

	dsn, err := sqliteDSN(cfg.Path)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// One connection serialises writers and keeps an in-memory database
	// alive for as long as the pool is open.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	return &sqliteStorage{db: db}, nil
}

// sqliteDSN builds the modernc connection string for path.
// busy_timeout lets a history flush wait out a concurrent cleanup instead of
// failing with SQLITE_BUSY.
func sqliteDSN(path string) (string, error) {
	if path == MemoryPath {
		// WAL needs a file; the in-memory database keeps the default journal.
		return "file::memory:?_pragma=busy_timeout(5000)", nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	// WAL lets history readers run while the logger is writing a batch.
	return "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)", nil
}

func (s *sqliteStorage) Type() string                   { return TypeSQLite }
func (s *sqliteStorage) SQLiteDB() *sql.DB              { return s.db }
func (s *sqliteStorage) PostgreSQLPool() *pgxpool.Pool  { return nil }
func (s *sqliteStorage) MongoDatabase() *mongo.Database { return nil }

// Ping checks that the database file is still reachable.
func (s *sqliteStorage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the pool. For MemoryPath this discards the history.
func (s *sqliteStorage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
