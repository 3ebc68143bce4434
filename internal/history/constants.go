package history

import "time"

const (
	// BatchFlushThreshold is the number of entries that triggers an immediate flush.
	BatchFlushThreshold = 100

	// CleanupInterval is how often expired entries are deleted.
	CleanupInterval = 1 * time.Hour

	tableName      = "validation_history"
	collectionName = "validation_history"
)
