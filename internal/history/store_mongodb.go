package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// duplicateKeyCode is the server error code for a unique index violation.
const duplicateKeyCode = 11000

// MongoDBStore implements Store for MongoDB. Entry IDs are the document _id;
// retention is enforced by a TTL index on timestamp instead of a cleanup loop.
type MongoDBStore struct {
	collection *mongo.Collection
}

// historyIndexes covers the reader's queries: newest-first listing filtered
// by model type or failures, and the per-type summary. MongoDB rejects a
// second index on timestamp next to the TTL one, so the TTL option rides on
// the plain timestamp index.
func historyIndexes(retentionDays int) []mongo.IndexModel {
	timestamp := options.Index()
	if retentionDays > 0 {
		timestamp.SetExpireAfterSeconds(int32(retentionDays * 24 * 60 * 60))
	}
	return []mongo.IndexModel{
		{Keys: bson.D{{Key: "timestamp", Value: -1}}, Options: timestamp},
		{Keys: bson.D{{Key: "model_type", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "ok", Value: 1}, {Key: "timestamp", Value: -1}}},
		{Keys: bson.D{{Key: "request_id", Value: 1}}, Options: options.Index().SetSparse(true)},
	}
}

// NewMongoDBStore creates the history indexes if they don't exist.
func NewMongoDBStore(database *mongo.Database, retentionDays int) (*MongoDBStore, error) {
	if database == nil {
		return nil, fmt.Errorf("database is required")
	}
	collection := database.Collection(collectionName)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := collection.Indexes().CreateMany(ctx, historyIndexes(retentionDays)); err != nil {
		// An existing index with other options (e.g. a changed retention)
		// conflicts; writes still work without it.
		slog.Warn("failed to create some MongoDB indexes for history", "error", err)
	}

	return &MongoDBStore{collection: collection}, nil
}

// WriteBatch inserts entries unordered. An entry whose ID is already stored
// is skipped, matching the SQL stores; any other rejected entry fails the
// batch after the rest have been written.
func (s *MongoDBStore) WriteBatch(ctx context.Context, entries []*Entry) error {
	if len(entries) == 0 {
		return nil
	}

	docs := make([]any, len(entries))
	for i, e := range entries {
		docs[i] = e
	}

	_, err := s.collection.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err == nil {
		return nil
	}

	var bulkErr mongo.BulkWriteException
	if !errors.As(err, &bulkErr) {
		return fmt.Errorf("failed to insert history entries: %w", err)
	}
	if failed := rejectedEntries(bulkErr, entries); len(failed) > 0 || bulkErr.WriteConcernError != nil {
		return fmt.Errorf("failed to insert %d of %d history entries (%v): %w", len(failed), len(entries), failed, err)
	}

	slog.Debug("skipped history entries already stored", "count", len(bulkErr.WriteErrors))
	return nil
}

// rejectedEntries returns the IDs of entries refused for a reason other than
// an existing _id.
func rejectedEntries(bulkErr mongo.BulkWriteException, entries []*Entry) []string {
	var ids []string
	for _, we := range bulkErr.WriteErrors {
		if we.Code == duplicateKeyCode {
			continue
		}
		if we.Index >= 0 && we.Index < len(entries) {
			ids = append(ids, entries[we.Index].ID)
		} else {
			ids = append(ids, fmt.Sprintf("#%d", we.Index))
		}
	}
	return ids
}

// Flush is a no-op: InsertMany returns once the server has acknowledged.
func (s *MongoDBStore) Flush(_ context.Context) error {
	return nil
}

// Close is a no-op; the client belongs to the storage layer.
func (s *MongoDBStore) Close() error {
	return nil
}
