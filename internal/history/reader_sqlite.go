package history

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// SQLiteReader implements Reader for SQLite databases.
type SQLiteReader struct {
	db *sql.DB
}

// NewSQLiteReader creates a new SQLite history reader.
func NewSQLiteReader(db *sql.DB) (*SQLiteReader, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	return &SQLiteReader{db: db}, nil
}

func (r *SQLiteReader) Recent(ctx context.Context, q Query) ([]Entry, error) {
	limit, offset := clampLimitOffset(q.Limit, q.Offset)

	var conditions []string
	var args []interface{}
	if q.ModelType != "" {
		conditions = append(conditions, "model_type = ?")
		args = append(args, q.ModelType)
	}
	if q.FailuresOnly {
		conditions = append(conditions, "ok = 0")
	}
	if !q.Since.IsZero() {
		conditions = append(conditions, "timestamp >= ?")
		args = append(args, q.Since.UTC().Format(sqliteTimeFormat))
	}
	args = append(args, limit, offset)

	query := `SELECT id, request_id, timestamp, subject, model_type, ok, kind, owner, operation, message, checked
		FROM ` + tableName + buildWhereClause(conditions) + ` ORDER BY timestamp DESC LIMIT ? OFFSET ?`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var e Entry
		var ts string
		if err := rows.Scan(&e.ID, &e.RequestID, &ts, &e.Subject, &e.ModelType, &e.OK,
			&e.Kind, &e.Owner, &e.Operation, &e.Message, &e.Checked); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		e.Timestamp, err = time.Parse(sqliteTimeFormat, ts)
		if err != nil {
			return nil, fmt.Errorf("failed to parse history timestamp %q: %w", ts, err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history rows: %w", err)
	}

	return entries, nil
}

func (r *SQLiteReader) Summary(ctx context.Context, since time.Time) ([]SummaryRow, error) {
	var where string
	var args []interface{}
	if !since.IsZero() {
		where = " WHERE timestamp >= ?"
		args = append(args, since.UTC().Format(sqliteTimeFormat))
	}

	rows, err := r.db.QueryContext(ctx, `SELECT model_type, kind, COUNT(*) FROM `+tableName+where+
		` GROUP BY model_type, kind ORDER BY model_type, kind`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history summary: %w", err)
	}
	defer rows.Close()

	result := make([]SummaryRow, 0)
	for rows.Next() {
		var row SummaryRow
		if err := rows.Scan(&row.ModelType, &row.Kind, &row.Count); err != nil {
			return nil, fmt.Errorf("failed to scan history summary row: %w", err)
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating history summary rows: %w", err)
	}

	return result, nil
}

// buildWhereClause joins condition strings into a SQL WHERE clause.
// Returns an empty string when conditions is empty.
func buildWhereClause(conditions []string) string {
	if len(conditions) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(conditions, " AND ")
}
