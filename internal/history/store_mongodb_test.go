package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

func bulkError(errs ...mongo.WriteError) mongo.BulkWriteException {
	var bulk mongo.BulkWriteException
	for _, we := range errs {
		bulk.WriteErrors = append(bulk.WriteErrors, mongo.BulkWriteError{WriteError: we})
	}
	return bulk
}

func TestRejectedEntries(t *testing.T) {
	entries := []*Entry{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	t.Run("DuplicatesAreSkipped", func(t *testing.T) {
		bulk := bulkError(
			mongo.WriteError{Index: 0, Code: duplicateKeyCode},
			mongo.WriteError{Index: 2, Code: duplicateKeyCode},
		)
		assert.Empty(t, rejectedEntries(bulk, entries))
	})

	t.Run("OtherErrorsNameTheEntry", func(t *testing.T) {
		bulk := bulkError(
			mongo.WriteError{Index: 0, Code: duplicateKeyCode},
			mongo.WriteError{Index: 1, Code: 121, Message: "document failed validation"},
		)
		assert.Equal(t, []string{"b"}, rejectedEntries(bulk, entries))
	})

	t.Run("UnknownIndex", func(t *testing.T) {
		bulk := bulkError(mongo.WriteError{Index: 7, Code: 2})
		assert.Equal(t, []string{"#7"}, rejectedEntries(bulk, entries))
	})
}

func TestHistoryIndexes(t *testing.T) {
	keys := func(indexes []mongo.IndexModel) []bson.D {
		out := make([]bson.D, len(indexes))
		for i, ix := range indexes {
			out[i] = ix.Keys.(bson.D)
		}
		return out
	}

	withTTL, withoutTTL := historyIndexes(30), historyIndexes(0)
	assert.Equal(t, keys(withoutTTL), keys(withTTL), "retention only changes index options")

	timestampIndexes := 0
	for _, k := range keys(withTTL) {
		if len(k) == 1 && k[0].Key == "timestamp" {
			timestampIndexes++
		}
	}
	assert.Equal(t, 1, timestampIndexes, "MongoDB allows one single-field timestamp index")
}
