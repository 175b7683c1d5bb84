package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/chaingate/chaingate/internal/domain/audit"
)

// StdoutStore writes audit records as JSON Lines to a writer,
// os.Stdout by default. Useful for container deployments where log
// collection happens outside the process.
type StdoutStore struct {
	mu  sync.Mutex
	out io.Writer
}

// NewStdoutStore creates a store writing to os.Stdout.
func NewStdoutStore() *StdoutStore {
	return &StdoutStore{out: os.Stdout}
}

// NewWriterStore creates a store writing to w. For tests.
func NewWriterStore(w io.Writer) *StdoutStore {
	return &StdoutStore{out: w}
}

// Append writes one JSON line per record.
func (s *StdoutStore) Append(ctx context.Context, records ...audit.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, record := range records {
		line, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("failed to marshal audit record: %w", err)
		}
		if _, err := s.out.Write(append(line, '\n')); err != nil {
			return fmt.Errorf("failed to write audit record: %w", err)
		}
	}
	return nil
}

// Flush is a no-op; lines are written immediately.
func (s *StdoutStore) Flush(ctx context.Context) error { return nil }

// Close is a no-op; the writer is not owned by the store.
func (s *StdoutStore) Close() error { return nil }

var _ audit.AuditStore = (*StdoutStore)(nil)
