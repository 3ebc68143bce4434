//go:build integration

// Package dbassert reads persisted validation history straight from the
// database and asserts on it, bypassing the application's own readers.
package dbassert

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"fieldcheck/internal/history"
)

// Table and collection holding history entries in every backend.
const (
	HistoryTable      = "validation_history"
	HistoryCollection = "validation_history"
)

// ExpectedEntry contains expected values for history assertions.
// Zero values are not checked, allowing partial matching.
type ExpectedEntry struct {
	Subject   string
	ModelType string
	Kind      string
	Owner     string
	Operation string
	RequestID string
	// Failed checks OK == false when set.
	Failed bool
}

// AssertEntryFieldCompleteness verifies that all required fields are populated.
func AssertEntryFieldCompleteness(t *testing.T, entry history.Entry) {
	t.Helper()

	assert.NotEmpty(t, entry.ID, "history ID should not be empty")
	assert.False(t, entry.Timestamp.IsZero(), "history timestamp should not be zero")
	assert.NotEmpty(t, entry.Subject, "history subject should not be empty")
	assert.NotEmpty(t, entry.ModelType, "history model type should not be empty")
	assert.NotEmpty(t, entry.Kind, "history kind should not be empty")

	if entry.OK {
		assert.Empty(t, entry.Owner, "passing entry should not name an owner")
		assert.Empty(t, entry.Operation, "passing entry should not name an operation")
		return
	}
	assert.NotEmpty(t, entry.Owner, "failing entry should name an owner")
	assert.NotEmpty(t, entry.Operation, "failing entry should name an operation")
	assert.NotEmpty(t, entry.Message, "failing entry should carry a message")
}

// AssertEntryMatches verifies that the actual entry matches expected values.
// Only non-zero expected values are checked.
func AssertEntryMatches(t *testing.T, expected ExpectedEntry, actual history.Entry) {
	t.Helper()

	if expected.Subject != "" {
		assert.Equal(t, expected.Subject, actual.Subject, "subject mismatch")
	}
	if expected.ModelType != "" {
		assert.Equal(t, expected.ModelType, actual.ModelType, "model type mismatch")
	}
	if expected.Kind != "" {
		assert.Equal(t, expected.Kind, actual.Kind, "kind mismatch")
	}
	if expected.Owner != "" {
		assert.Equal(t, expected.Owner, actual.Owner, "owner mismatch")
	}
	if expected.Operation != "" {
		assert.Equal(t, expected.Operation, actual.Operation, "operation mismatch")
	}
	if expected.RequestID != "" {
		assert.Equal(t, expected.RequestID, actual.RequestID, "request ID mismatch")
	}
	if expected.Failed {
		assert.False(t, actual.OK, "expected a failing entry")
	}
}

// QueryPostgreSQLEntries returns every entry whose subject has the given
// prefix, oldest first.
func QueryPostgreSQLEntries(t *testing.T, pool *pgxpool.Pool, subjectPrefix string) []history.Entry {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	rows, err := pool.Query(ctx, `
		SELECT id::text, request_id, timestamp, subject, model_type, ok, kind,
			owner, operation, message, checked
		FROM `+HistoryTable+`
		WHERE subject LIKE $1
		ORDER BY timestamp ASC`, subjectPrefix+"%")
	require.NoError(t, err, "failed to query history")
	defer rows.Close()

	var entries []history.Entry
	for rows.Next() {
		var e history.Entry
		require.NoError(t, rows.Scan(&e.ID, &e.RequestID, &e.Timestamp, &e.Subject, &e.ModelType,
			&e.OK, &e.Kind, &e.Owner, &e.Operation, &e.Message, &e.Checked))
		entries = append(entries, e)
	}
	require.NoError(t, rows.Err())
	return entries
}

// QueryMongoDBEntries returns every entry whose subject has the given
// prefix, oldest first.
func QueryMongoDBEntries(t *testing.T, db *mongo.Database, subjectPrefix string) []history.Entry {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter := bson.D{{Key: "subject", Value: bson.D{{Key: "$regex", Value: "^" + subjectPrefix}}}}
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}})
	cursor, err := db.Collection(HistoryCollection).Find(ctx, filter, opts)
	require.NoError(t, err, "failed to query history")

	var entries []history.Entry
	require.NoError(t, cursor.All(ctx, &entries))
	for i := range entries {
		entries[i].Timestamp = entries[i].Timestamp.UTC()
	}
	return entries
}

// ClearPostgreSQL removes every history row.
func ClearPostgreSQL(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	_, err := pool.Exec(context.Background(), "DELETE FROM "+HistoryTable)
	if err != nil {
		// The table does not exist until the first store is created.
		t.Logf("clear postgresql history: %v", err)
	}
}

// ClearMongoDB removes every history document.
func ClearMongoDB(t *testing.T, db *mongo.Database) {
	t.Helper()
	_, err := db.Collection(HistoryCollection).DeleteMany(context.Background(), bson.D{})
	require.NoError(t, err, "failed to clear mongodb history")
}
