package history

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// MongoDBReader implements Reader for MongoDB.
type MongoDBReader struct {
	collection *mongo.Collection
}

// NewMongoDBReader creates a new MongoDB history reader.
func NewMongoDBReader(database *mongo.Database) (*MongoDBReader, error) {
	if database == nil {
		return nil, fmt.Errorf("database is required")
	}
	return &MongoDBReader{collection: database.Collection(collectionName)}, nil
}

func (r *MongoDBReader) Recent(ctx context.Context, q Query) ([]Entry, error) {
	limit, offset := clampLimitOffset(q.Limit, q.Offset)

	filter := bson.D{}
	if q.ModelType != "" {
		filter = append(filter, bson.E{Key: "model_type", Value: q.ModelType})
	}
	if q.FailuresOnly {
		filter = append(filter, bson.E{Key: "ok", Value: false})
	}
	if !q.Since.IsZero() {
		filter = append(filter, bson.E{Key: "timestamp", Value: bson.D{{Key: "$gte", Value: q.Since.UTC()}}})
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer cursor.Close(ctx)

	entries := make([]Entry, 0)
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode history entries: %w", err)
	}
	for i := range entries {
		entries[i].Timestamp = entries[i].Timestamp.UTC()
	}

	return entries, nil
}

func (r *MongoDBReader) Summary(ctx context.Context, since time.Time) ([]SummaryRow, error) {
	pipeline := mongo.Pipeline{}
	if !since.IsZero() {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: bson.D{
			{Key: "timestamp", Value: bson.D{{Key: "$gte", Value: since.UTC()}}},
		}}})
	}
	pipeline = append(pipeline,
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{{Key: "model_type", Value: "$model_type"}, {Key: "kind", Value: "$kind"}}},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		bson.D{{Key: "$project", Value: bson.D{
			{Key: "_id", Value: 0},
			{Key: "model_type", Value: "$_id.model_type"},
			{Key: "kind", Value: "$_id.kind"},
			{Key: "count", Value: 1},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "model_type", Value: 1}, {Key: "kind", Value: 1}}}},
	)

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate history summary: %w", err)
	}
	defer cursor.Close(ctx)

	result := make([]SummaryRow, 0)
	if err := cursor.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("failed to decode history summary: %w", err)
	}

	return result, nil
}
