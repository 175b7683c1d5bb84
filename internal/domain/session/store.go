package session

import (
	"context"
	"errors"
	"time"
)

// ErrSessionNotFound is returned when a session doesn't exist or is expired.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore provides session persistence.
// Interface defined in the domain to avoid circular imports.
// Implementations: in-memory (default); the map-level lock inside the
// store is what makes Touch atomic with respect to the expiry check.
type SessionStore interface {
	// Create stores a new session.
	Create(ctx context.Context, session *Session) error

	// Get retrieves a session by ID.
	// Returns ErrSessionNotFound if the session doesn't exist or is expired.
	Get(ctx context.Context, id string) (*Session, error)

	// Touch atomically checks expiry, updates LastActivity, and
	// increments the query counter. Returns the refreshed session, or
	// ErrSessionNotFound if the session is missing or already expired.
	Touch(ctx context.Context, id string) (*Session, error)

	// Delete removes a session.
	Delete(ctx context.Context, id string) error
}

// DefaultTimeout is the default session inactivity timeout.
const DefaultTimeout = 30 * time.Minute
