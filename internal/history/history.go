// Package history records validation reports so failures can be reviewed
// after the fact. Entries are buffered in memory and written in batches to
// the configured storage backend.
package history

import (
	"context"
	"time"

	"github.com/google/uuid"

	"fieldcheck/internal/contract"
	"fieldcheck/internal/core"
)

// Store defines the interface for history storage backends.
// Implementations must be safe for concurrent use.
type Store interface {
	// WriteBatch writes multiple entries to storage.
	// This is called by the Logger when flushing buffered entries.
	WriteBatch(ctx context.Context, entries []*Entry) error

	// Flush forces any pending writes to complete.
	// Called during graceful shutdown.
	Flush(ctx context.Context) error

	// Close releases resources and flushes pending writes.
	Close() error
}

// Entry is one persisted validation report.
type Entry struct {
	// ID is a unique identifier for this entry (UUID)
	ID string `json:"id" bson:"_id"`

	// RequestID links the entry to the API request that triggered it, if any.
	RequestID string `json:"request_id,omitempty" bson:"request_id,omitempty"`

	Timestamp time.Time `json:"timestamp" bson:"timestamp"`

	// Subject names what was checked, e.g. "account/spladug".
	Subject string `json:"subject" bson:"subject"`

	ModelType string `json:"model_type" bson:"model_type"`
	OK        bool   `json:"ok" bson:"ok"`
	// Kind is the outcome kind: pass, nullability_violation, or execution_error.
	Kind      string `json:"kind" bson:"kind"`
	Owner     string `json:"owner,omitempty" bson:"owner,omitempty"`
	Operation string `json:"operation,omitempty" bson:"operation,omitempty"`
	Message   string `json:"message,omitempty" bson:"message,omitempty"`
	Checked   int    `json:"checked" bson:"checked"`
}

// NewEntry converts a report into an entry stamped with a fresh ID, the
// current time, and the request ID carried by ctx.
func NewEntry(ctx context.Context, subject string, r contract.Report) *Entry {
	e := &Entry{
		ID:        uuid.NewString(),
		RequestID: core.GetRequestID(ctx),
		Timestamp: time.Now().UTC(),
		Subject:   subject,
		ModelType: string(r.Model),
		OK:        r.OK(),
		Kind:      string(contract.OutcomePass),
		Checked:   r.Checked,
	}
	if f := r.Failure; f != nil {
		e.Kind = string(f.Kind)
		e.Owner = string(f.Owner)
		e.Operation = f.Operation
		e.Message = f.Message
	}
	return e
}

// Config holds history configuration
type Config struct {
	// Enabled controls whether reports are persisted
	Enabled bool

	// BufferSize is the number of entries to buffer before writes are dropped
	BufferSize int

	// FlushInterval is how often to flush buffered entries
	FlushInterval time.Duration

	// RetentionDays is how long to keep entries (0 = forever)
	RetentionDays int
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() Config {
	return Config{
		Enabled:       false,
		BufferSize:    1000,
		FlushInterval: 5 * time.Second,
		RetentionDays: 30,
	}
}
