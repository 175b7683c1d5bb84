// Package service contains the application services that orchestrate
// the domain: the question pipeline, authentication, async audit
// writes, and the security summary.
package service

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chaingate/chaingate/internal/domain/audit"
)

// AsyncAuditStore decouples audit writes from the request hot path.
// Records are buffered on a channel and written to the wrapped store by
// a single background worker in batches. When the buffer is full the
// caller blocks for at most sendTimeout, then the record is dropped and
// counted.
type AsyncAuditStore struct {
	store         audit.AuditStore
	records       chan audit.Record
	wg            sync.WaitGroup
	logger        *slog.Logger
	batchSize     int
	flushInterval time.Duration
	sendTimeout   time.Duration
	channelSize   int

	dropCount atomic.Int64
	closeOnce sync.Once
	closeErr  error
}

// AuditOption configures an AsyncAuditStore.
type AuditOption func(*AsyncAuditStore)

// WithChannelSize sets the record buffer capacity.
func WithChannelSize(size int) AuditOption {
	return func(s *AsyncAuditStore) {
		s.records = make(chan audit.Record, size)
		s.channelSize = size
	}
}

// WithBatchSize sets the number of records batched per write.
func WithBatchSize(size int) AuditOption {
	return func(s *AsyncAuditStore) {
		s.batchSize = size
	}
}

// WithFlushInterval sets how often a partial batch is flushed.
func WithFlushInterval(interval time.Duration) AuditOption {
	return func(s *AsyncAuditStore) {
		s.flushInterval = interval
	}
}

// WithSendTimeout sets the backpressure timeout. 0 drops immediately
// when the buffer is full.
func WithSendTimeout(timeout time.Duration) AuditOption {
	return func(s *AsyncAuditStore) {
		s.sendTimeout = timeout
	}
}

// NewAsyncAuditStore wraps store with async batched writes.
// Call Start before appending and Close during shutdown.
func NewAsyncAuditStore(store audit.AuditStore, logger *slog.Logger, opts ...AuditOption) *AsyncAuditStore {
	defaultChannelSize := 1000
	s := &AsyncAuditStore{
		store:         store,
		records:       make(chan audit.Record, defaultChannelSize),
		logger:        logger,
		batchSize:     100,
		flushInterval: time.Second,
		sendTimeout:   100 * time.Millisecond,
		channelSize:   defaultChannelSize,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start launches the background writer.
func (s *AsyncAuditStore) Start(ctx context.Context) {
	s.wg.Add(1)
	go s.worker(ctx)
}

// Append enqueues records for the background writer. It never returns
// an error; records that cannot be enqueued within sendTimeout are
// dropped and counted.
func (s *AsyncAuditStore) Append(ctx context.Context, records ...audit.Record) error {
	for _, record := range records {
		s.enqueue(record)
	}
	return nil
}

func (s *AsyncAuditStore) enqueue(record audit.Record) {
	// Fast path: non-blocking send.
	select {
	case s.records <- record:
		return
	default:
	}

	if s.sendTimeout <= 0 {
		s.recordDrop(record)
		return
	}

	// Slow path: block up to sendTimeout.
	timer := time.NewTimer(s.sendTimeout)
	defer timer.Stop()
	select {
	case s.records <- record:
	case <-timer.C:
		s.recordDrop(record)
	}
}

func (s *AsyncAuditStore) recordDrop(record audit.Record) {
	drops := s.dropCount.Add(1)
	s.logger.Warn("audit record dropped",
		"event_type", record.EventType,
		"session_id", record.SessionID,
		"total_drops", drops,
	)
}

// Flush forwards to the wrapped store. Buffered records still waiting
// on the channel are flushed by Close, not here.
func (s *AsyncAuditStore) Flush(ctx context.Context) error {
	return s.store.Flush(ctx)
}

// Close stops the worker, writes any buffered records, and closes the
// wrapped store. Idempotent.
func (s *AsyncAuditStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.records)
		s.wg.Wait()
		s.closeErr = s.store.Close()
	})
	return s.closeErr
}

// DroppedRecords returns the number of records dropped under
// backpressure, for metrics and alerting.
func (s *AsyncAuditStore) DroppedRecords() int64 {
	return s.dropCount.Load()
}

// worker collects records into batches and writes them to the store.
func (s *AsyncAuditStore) worker(ctx context.Context) {
	defer s.wg.Done()

	batch := make([]audit.Record, 0, s.batchSize)
	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case record, ok := <-s.records:
			if !ok {
				// Channel closed, final flush with a bounded deadline.
				flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				s.flush(flushCtx, batch)
				cancel()
				return
			}
			batch = append(batch, record)
			if len(batch) >= s.batchSize {
				s.flush(ctx, batch)
				batch = batch[:0]
			}

		case <-ticker.C:
			if len(batch) > 0 {
				s.flush(ctx, batch)
				batch = batch[:0]
			}

		case <-ctx.Done():
			// Drain whatever is already buffered before exiting.
		drain:
			for {
				select {
				case record, ok := <-s.records:
					if !ok {
						break drain
					}
					batch = append(batch, record)
				default:
					break drain
				}
			}
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			s.flush(flushCtx, batch)
			cancel()
			return
		}
	}
}

// flush writes a batch to the store. Errors are logged, never
// propagated; audit failures must not fail pipeline operations.
func (s *AsyncAuditStore) flush(ctx context.Context, batch []audit.Record) {
	if len(batch) == 0 {
		return
	}
	if err := s.store.Append(ctx, batch...); err != nil {
		s.logger.Error("failed to write audit batch",
			"error", err,
			"count", len(batch),
		)
	}
}

var _ audit.AuditStore = (*AsyncAuditStore)(nil)
