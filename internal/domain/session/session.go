package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/chaingate/chaingate/internal/domain/auth"
)

// Config holds session service configuration.
type Config struct {
	// Timeout is the session inactivity window. Default: 30 minutes.
	Timeout time.Duration
}

// SessionService manages session lifecycle.
type SessionService struct {
	store   SessionStore
	timeout time.Duration
}

// NewSessionService creates a new SessionService with the given store and config.
func NewSessionService(store SessionStore, cfg Config) *SessionService {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &SessionService{
		store:   store,
		timeout: timeout,
	}
}

// Create generates a new session for an identity.
func (s *SessionService) Create(ctx context.Context, identity *auth.Identity, origin string) (*Session, error) {
	now := time.Now().UTC()

	id, err := GenerateSessionID(identity.ID, now)
	if err != nil {
		return nil, err
	}

	sess := &Session{
		ID:           id,
		UserID:       identity.ID,
		UserName:     identity.Name,
		Level:        identity.Level,
		Origin:       origin,
		CreatedAt:    now,
		LastActivity: now,
		Timeout:      s.timeout,
	}

	if err := s.store.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return sess, nil
}

// Validate resolves a session by ID, touching its activity clock and
// incrementing its query counter. Returns ErrSessionNotFound for
// missing or expired sessions.
func (s *SessionService) Validate(ctx context.Context, id string) (*Session, error) {
	return s.store.Touch(ctx, id)
}

// Peek retrieves a session without touching its activity clock.
func (s *SessionService) Peek(ctx context.Context, id string) (*Session, error) {
	return s.store.Get(ctx, id)
}

// Logout terminates a session.
func (s *SessionService) Logout(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

// GenerateSessionID derives an unguessable session ID from the user ID,
// the creation instant, and a crypto/rand seed. Returns 32 hex characters.
func GenerateSessionID(userID string, createdAt time.Time) (string, error) {
	seed := make([]byte, 16)
	if _, err := rand.Read(seed); err != nil {
		return "", fmt.Errorf("failed to generate session seed: %w", err)
	}

	h := sha256.New()
	h.Write([]byte(userID))
	h.Write([]byte(strconv.FormatInt(createdAt.UnixNano(), 10)))
	h.Write(seed)
	return hex.EncodeToString(h.Sum(nil))[:32], nil
}
