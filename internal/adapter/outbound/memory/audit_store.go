package memory

import (
	"context"
	"sync"
	"time"

	"github.com/chaingate/chaingate/internal/domain/audit"
)

// DefaultMaxAuditRecords bounds the in-memory audit trail.
const DefaultMaxAuditRecords = 10000

// AuditStore implements audit.AuditStore and audit.AuditQueryStore
// with a bounded in-memory slice. The oldest records are dropped once
// the bound is reached. Thread-safe for concurrent writers.
type AuditStore struct {
	mu         sync.RWMutex
	records    []audit.Record
	maxRecords int
	total      int64 // appended ever, including dropped
}

// NewAuditStore creates an in-memory audit store with the default bound.
func NewAuditStore() *AuditStore {
	return NewAuditStoreWithConfig(DefaultMaxAuditRecords)
}

// NewAuditStoreWithConfig creates an in-memory audit store holding at
// most maxRecords records.
func NewAuditStoreWithConfig(maxRecords int) *AuditStore {
	if maxRecords <= 0 {
		maxRecords = DefaultMaxAuditRecords
	}
	return &AuditStore{
		records:    make([]audit.Record, 0, 256),
		maxRecords: maxRecords,
	}
}

// Append stores audit records, dropping the oldest past the bound.
func (s *AuditStore) Append(ctx context.Context, records ...audit.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, records...)
	s.total += int64(len(records))
	if overflow := len(s.records) - s.maxRecords; overflow > 0 {
		s.records = s.records[overflow:]
	}
	return nil
}

// Flush is a no-op; records live in memory.
func (s *AuditStore) Flush(ctx context.Context) error { return nil }

// Close is a no-op.
func (s *AuditStore) Close() error { return nil }

// Records returns a copy of the stored records, oldest first.
func (s *AuditStore) Records() []audit.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]audit.Record, len(s.records))
	copy(out, s.records)
	return out
}

// Summary aggregates the trail for the security overview. Trailing
// windows are computed against the supplied instant so tests stay
// deterministic.
func (s *AuditStore) Summary(ctx context.Context, now time.Time) (*audit.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := &audit.Summary{
		TotalEvents: s.total,
		ByKind:      make(map[string]int64),
		BySeverity:  make(map[string]int64),
	}

	hourAgo := now.Add(-time.Hour)
	dayAgo := now.Add(-24 * time.Hour)

	for _, r := range s.records {
		if r.Timestamp.After(hourAgo) {
			summary.EventsLastHour++
		}
		if !r.Timestamp.After(dayAgo) {
			continue
		}
		summary.EventsLastDay++
		if r.Severity == "critical" {
			summary.CriticalLastDay++
		}
		if r.Kind != "" {
			summary.ByKind[r.Kind]++
		}
		if r.Severity != "" {
			summary.BySeverity[r.Severity]++
		}
	}

	return summary, nil
}

// Compile-time interface verification.
var (
	_ audit.AuditStore      = (*AuditStore)(nil)
	_ audit.AuditQueryStore = (*AuditStore)(nil)
)
