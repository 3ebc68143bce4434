package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// SQLite has a default limit of 999 bindable parameters per query.
const (
	maxSQLiteParams  = 999
	columnsPerEntry  = 11
	maxEntriesPerSQL = maxSQLiteParams / columnsPerEntry
)

// sqliteTimeFormat is fixed-width so timestamps compare correctly as text.
const sqliteTimeFormat = "2006-01-02T15:04:05.000000Z"

// SQLiteStore implements Store for SQLite databases.
type SQLiteStore struct {
	db            *sql.DB
	retentionDays int
	stopCleanup   chan struct{}
	closeOnce     sync.Once
}

// NewSQLiteStore creates the history table if needed and starts the
// retention cleanup loop when retentionDays is positive.
func NewSQLiteStore(db *sql.DB, retentionDays int) (*SQLiteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS ` + tableName + ` (
			id TEXT PRIMARY KEY,
			request_id TEXT NOT NULL DEFAULT '',
			timestamp TEXT NOT NULL,
			subject TEXT NOT NULL,
			model_type TEXT NOT NULL,
			ok INTEGER NOT NULL,
			kind TEXT NOT NULL,
			owner TEXT NOT NULL DEFAULT '',
			operation TEXT NOT NULL DEFAULT '',
			message TEXT NOT NULL DEFAULT '',
			checked INTEGER NOT NULL DEFAULT 0
		)
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to create history table: %w", err)
	}

	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_history_timestamp ON " + tableName + "(timestamp)",
		"CREATE INDEX IF NOT EXISTS idx_history_model_type ON " + tableName + "(model_type)",
		"CREATE INDEX IF NOT EXISTS idx_history_kind ON " + tableName + "(kind)",
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			slog.Warn("failed to create index", "error", err)
		}
	}

	store := &SQLiteStore{
		db:            db,
		retentionDays: retentionDays,
		stopCleanup:   make(chan struct{}),
	}

	if retentionDays > 0 {
		go RunCleanupLoop(store.stopCleanup, store.cleanup)
	}

	return store, nil
}

// WriteBatch inserts entries in chunks that stay within the parameter limit.
func (s *SQLiteStore) WriteBatch(ctx context.Context, entries []*Entry) error {
	for i := 0; i < len(entries); i += maxEntriesPerSQL {
		end := min(i+maxEntriesPerSQL, len(entries))
		chunk := entries[i:end]

		placeholders := make([]string, len(chunk))
		values := make([]interface{}, 0, len(chunk)*columnsPerEntry)

		for j, e := range chunk {
			placeholders[j] = "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
			values = append(values,
				e.ID,
				e.RequestID,
				e.Timestamp.UTC().Format(sqliteTimeFormat),
				e.Subject,
				e.ModelType,
				e.OK,
				e.Kind,
				e.Owner,
				e.Operation,
				e.Message,
				e.Checked,
			)
		}

		query := `INSERT OR IGNORE INTO ` + tableName + ` (id, request_id, timestamp, subject, model_type,
			ok, kind, owner, operation, message, checked) VALUES ` + strings.Join(placeholders, ",")

		if _, err := s.db.ExecContext(ctx, query, values...); err != nil {
			return fmt.Errorf("failed to insert history batch %d: %w", i/maxEntriesPerSQL, err)
		}
	}

	return nil
}

// Flush is a no-op for SQLite as writes are synchronous.
func (s *SQLiteStore) Flush(_ context.Context) error {
	return nil
}

// Close stops the cleanup goroutine. The database itself belongs to the
// storage layer. Safe to call multiple times.
func (s *SQLiteStore) Close() error {
	if s.retentionDays > 0 && s.stopCleanup != nil {
		s.closeOnce.Do(func() {
			close(s.stopCleanup)
		})
	}
	return nil
}

func (s *SQLiteStore) cleanup() {
	if s.retentionDays <= 0 {
		return
	}

	cutoff := retentionCutoff(time.Now(), s.retentionDays).Format(sqliteTimeFormat)

	result, err := s.db.Exec("DELETE FROM "+tableName+" WHERE timestamp < ?", cutoff)
	if err != nil {
		slog.Error("failed to cleanup old history entries", "error", err)
		return
	}

	if rowsAffected, err := result.RowsAffected(); err == nil && rowsAffected > 0 {
		slog.Info("cleaned up old history entries", "deleted", rowsAffected)
	}
}
