package audit

import (
	"context"
	"errors"

	"github.com/chaingate/chaingate/internal/domain/audit"
)

// Tee fans every write out to multiple stores. It lets a deployment
// keep an in-memory store for security summaries alongside a
// persistent store for the durable trail.
type Tee struct {
	stores []audit.AuditStore
}

// NewTee creates a tee over the given stores. Writes go to every
// store in order.
func NewTee(stores ...audit.AuditStore) *Tee {
	return &Tee{stores: stores}
}

// Append writes the records to every store. All stores are attempted
// even when one fails; errors are joined.
func (t *Tee) Append(ctx context.Context, records ...audit.Record) error {
	var errs []error
	for _, store := range t.stores {
		if err := store.Append(ctx, records...); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Flush flushes every store.
func (t *Tee) Flush(ctx context.Context) error {
	var errs []error
	for _, store := range t.stores {
		if err := store.Flush(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every store.
func (t *Tee) Close() error {
	var errs []error
	for _, store := range t.stores {
		if err := store.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ audit.AuditStore = (*Tee)(nil)
