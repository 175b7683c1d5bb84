package ratelimit

import "context"

// SlidingWindow is the interface for rate limiting operations.
//
// Implementations keep a per-key list of request timestamps inside the
// trailing window; entries older than the window are purged before each
// check. This matches the access policy contract exactly (N requests
// per window, full recovery once the window elapses), which a token
// bucket or GCRA cell would only approximate.
//
// The interface is storage-agnostic; the in-memory implementation lives
// in the memory adapter.
type SlidingWindow interface {
	// Allow records one request for the key and reports whether it
	// fits under the configured limit. Every call consumes a slot in
	// the window regardless of outcome.
	Allow(ctx context.Context, key string, config WindowConfig) (Result, error)
}
