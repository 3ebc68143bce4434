package history

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// LoggerInterface is implemented by Logger and NoopLogger.
type LoggerInterface interface {
	Write(entry *Entry)
	Config() Config
	Close() error
}

// Logger buffers entries in a channel and writes them to the store when a
// batch fills up or the flush interval elapses.
type Logger struct {
	store  Store
	config Config
	buffer chan *Entry
	done   chan struct{}
	wg     sync.WaitGroup
	writes sync.WaitGroup // in-flight Write calls
	closed atomic.Bool
}

// NewLogger starts a Logger and its background flush goroutine.
func NewLogger(store Store, cfg Config) *Logger {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1000
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 5 * time.Second
	}

	l := &Logger{
		store:  store,
		config: cfg,
		buffer: make(chan *Entry, cfg.BufferSize),
		done:   make(chan struct{}),
	}

	l.wg.Add(1)
	go l.flushLoop()

	return l
}

// Write queues an entry without blocking. Entries are dropped with a warning
// when the buffer is full or the logger is closed.
func (l *Logger) Write(entry *Entry) {
	if entry == nil || l.closed.Load() {
		return
	}

	l.writes.Add(1)
	defer l.writes.Done()

	// Close may have run between the first check and Add.
	if l.closed.Load() {
		return
	}

	select {
	case l.buffer <- entry:
	default:
		slog.Warn("history buffer full, dropping entry",
			"subject", entry.Subject,
			"model_type", entry.ModelType,
			"kind", entry.Kind,
		)
	}
}

// Config returns the logger configuration
func (l *Logger) Config() Config {
	return l.config
}

// Close stops the flush loop, writes any buffered entries, and closes the
// store. Close is idempotent.
func (l *Logger) Close() error {
	if l.closed.Swap(true) {
		return nil
	}

	l.writes.Wait()
	close(l.done)
	l.wg.Wait()

	return l.store.Close()
}

func (l *Logger) flushLoop() {
	defer l.wg.Done()

	ticker := time.NewTicker(l.config.FlushInterval)
	defer ticker.Stop()

	batch := make([]*Entry, 0, BatchFlushThreshold)

	for {
		select {
		case entry := <-l.buffer:
			batch = append(batch, entry)
			if len(batch) >= BatchFlushThreshold {
				l.flushBatch(batch)
				batch = make([]*Entry, 0, BatchFlushThreshold)
			}

		case <-ticker.C:
			if len(batch) > 0 {
				l.flushBatch(batch)
				batch = make([]*Entry, 0, BatchFlushThreshold)
			}

		case <-l.done:
			close(l.buffer)
			for entry := range l.buffer {
				batch = append(batch, entry)
			}
			if len(batch) > 0 {
				l.flushBatch(batch)
			}
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := l.store.Flush(ctx); err != nil {
				slog.Error("failed to flush history store", "error", err)
			}
			cancel()
			return
		}
	}
}

func (l *Logger) flushBatch(batch []*Entry) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := l.store.WriteBatch(ctx, batch); err != nil {
		slog.Error("failed to write history batch",
			"error", err,
			"count", len(batch),
		)
	}
}

// NoopLogger discards entries; used when history is disabled.
type NoopLogger struct{}

func (l *NoopLogger) Write(_ *Entry) {}

func (l *NoopLogger) Config() Config {
	return Config{Enabled: false}
}

func (l *NoopLogger) Close() error {
	return nil
}
