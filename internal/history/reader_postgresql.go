package history

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgreSQLReader implements Reader for PostgreSQL databases.
type PostgreSQLReader struct {
	pool *pgxpool.Pool
}

// NewPostgreSQLReader creates a new PostgreSQL history reader.
func NewPostgreSQLReader(pool *pgxpool.Pool) (*PostgreSQLReader, error) {
	if pool == nil {
		return nil, fmt.Errorf("connection pool is required")
	}
	return &PostgreSQLReader{pool: pool}, nil
}

func (r *PostgreSQLReader) Recent(ctx context.Context, q Query) ([]Entry, error) {
	limit, offset := clampLimitOffset(q.Limit, q.Offset)

	var conditions []string
	var args []interface{}
	next := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if q.ModelType != "" {
		conditions = append(conditions, "model_type = "+next(q.ModelType))
	}
	if q.FailuresOnly {
		conditions = append(conditions, "NOT ok")
	}
	if !q.Since.IsZero() {
		conditions = append(conditions, "timestamp >= "+next(q.Since.UTC()))
	}
	limitArg, offsetArg := next(limit), next(offset)

	query := `SELECT id::text, request_id, timestamp, subject, model_type, ok, kind, owner, operation, message, checked
		FROM ` + tableName + buildWhereClause(conditions) +
		` ORDER BY timestamp DESC LIMIT ` + limitArg + ` OFFSET ` + offsetArg

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}

	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Entry, error) {
		var e Entry
		err := row.Scan(&e.ID, &e.RequestID, &e.Timestamp, &e.Subject, &e.ModelType, &e.OK,
			&e.Kind, &e.Owner, &e.Operation, &e.Message, &e.Checked)
		e.Timestamp = e.Timestamp.UTC()
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan history rows: %w", err)
	}

	return entries, nil
}

func (r *PostgreSQLReader) Summary(ctx context.Context, since time.Time) ([]SummaryRow, error) {
	var where string
	var args []interface{}
	if !since.IsZero() {
		where = " WHERE timestamp >= $1"
		args = append(args, since.UTC())
	}

	rows, err := r.pool.Query(ctx, `SELECT model_type, kind, COUNT(*) FROM `+tableName+where+
		` GROUP BY model_type, kind ORDER BY model_type, kind`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history summary: %w", err)
	}

	result, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (SummaryRow, error) {
		var s SummaryRow
		err := row.Scan(&s.ModelType, &s.Kind, &s.Count)
		return s, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan history summary rows: %w", err)
	}

	return result, nil
}
