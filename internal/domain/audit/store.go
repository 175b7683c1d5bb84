package audit

import (
	"context"
	"time"
)

// AuditStore persists audit records.
// Interface owned by the domain per hexagonal architecture.
// Implementations handle batching and async writes; Append must be
// non-blocking from the caller's perspective.
type AuditStore interface {
	// Append stores audit records.
	Append(ctx context.Context, records ...Record) error

	// Flush forces pending records to storage. Called during shutdown.
	Flush(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// AuditQueryStore provides read access for the security summary.
// Separate from AuditStore, which handles writes.
type AuditQueryStore interface {
	// Summary returns aggregated statistics as of now.
	Summary(ctx context.Context, now time.Time) (*Summary, error)
}
