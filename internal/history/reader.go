package history

import (
	"context"
	"fmt"
	"time"

	"fieldcheck/internal/storage"
)

// Query selects entries for Reader.Recent.
type Query struct {
	// Limit defaults to 50 and is capped at 200.
	Limit  int
	Offset int
	// ModelType filters by validated type when non-empty.
	ModelType string
	// FailuresOnly excludes passing reports.
	FailuresOnly bool
	// Since excludes entries older than this time when non-zero.
	Since time.Time
}

// SummaryRow counts entries for one model type and outcome kind.
type SummaryRow struct {
	ModelType string `json:"model_type" bson:"model_type"`
	Kind      string `json:"kind" bson:"kind"`
	Count     int64  `json:"count" bson:"count"`
}

// Reader provides read access to recorded history.
type Reader interface {
	// Recent returns entries newest first.
	Recent(ctx context.Context, q Query) ([]Entry, error)

	// Summary counts entries per model type and outcome since the given
	// time; a zero time counts everything.
	Summary(ctx context.Context, since time.Time) ([]SummaryRow, error)
}

// NewReader returns the Reader for the backend behind store.
func NewReader(store storage.Storage) (Reader, error) {
	if store == nil {
		return nil, fmt.Errorf("storage is required")
	}
	switch store.Type() {
	case storage.TypeSQLite:
		return NewSQLiteReader(store.SQLiteDB())
	case storage.TypePostgreSQL:
		return NewPostgreSQLReader(store.PostgreSQLPool())
	case storage.TypeMongoDB:
		return NewMongoDBReader(store.MongoDatabase())
	default:
		return nil, fmt.Errorf("unknown storage type: %s", store.Type())
	}
}

// clampLimitOffset normalises pagination parameters:
//   - limit defaults to 50 and is capped at 200
//   - offset floors at 0
func clampLimitOffset(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
