// Package session manages interactive user sessions across pipeline runs.
package session

import (
	"time"

	"github.com/chaingate/chaingate/internal/domain/auth"
)

// Session tracks one authenticated user's context across questions.
type Session struct {
	// ID is an opaque, unguessable identifier derived from the user ID,
	// creation instant, and a random seed.
	ID string
	// UserID identifies the owning identity.
	UserID string
	// UserName is the human-readable name of the identity.
	UserName string
	// Level is cached from the identity for fast policy lookup.
	Level auth.AccessLevel
	// Origin is the address the session was created from.
	Origin string
	// CreatedAt is when the session was created (UTC).
	CreatedAt time.Time
	// LastActivity is the last time the session was used (UTC).
	LastActivity time.Time
	// Timeout is the inactivity window after which the session expires.
	Timeout time.Duration
	// QueryCount is the number of validated queries in this session.
	QueryCount int
}

// IsExpired reports whether the session has exceeded its inactivity timeout.
func (s *Session) IsExpired() bool {
	return time.Now().UTC().After(s.LastActivity.Add(s.Timeout))
}

// Touch updates LastActivity and increments the query counter.
func (s *Session) Touch() {
	s.LastActivity = time.Now().UTC()
	s.QueryCount++
}
