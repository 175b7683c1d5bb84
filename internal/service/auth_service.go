package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chaingate/chaingate/internal/domain/audit"
	"github.com/chaingate/chaingate/internal/domain/auth"
	"github.com/chaingate/chaingate/internal/domain/session"
	"github.com/chaingate/chaingate/internal/port/inbound"
)

// AuthService handles login and logout, auditing every attempt.
type AuthService struct {
	authenticator *auth.Authenticator
	sessions      *session.SessionService
	auditLog      audit.AuditStore
	logger        *slog.Logger
}

// NewAuthService creates the authentication service.
func NewAuthService(authenticator *auth.Authenticator, sessions *session.SessionService, auditLog audit.AuditStore, logger *slog.Logger) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		sessions:      sessions,
		auditLog:      auditLog,
		logger:        logger,
	}
}

// Login verifies credentials and creates a session. Failed attempts
// are audited with the user ID and origin but never the password.
func (s *AuthService) Login(ctx context.Context, userID, password, origin string) (*session.Session, error) {
	identity, err := s.authenticator.Authenticate(ctx, userID, password)
	if err != nil {
		s.append(ctx, audit.Record{
			Timestamp: time.Now().UTC(),
			EventType: audit.EventLoginFailed,
			Message:   "login failed",
			UserID:    userID,
			Origin:    origin,
		})
		s.logger.Warn("login failed", "user_id", userID, "origin", origin)
		return nil, err
	}

	sess, err := s.sessions.Create(ctx, identity, origin)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.append(ctx, audit.Record{
		Timestamp: time.Now().UTC(),
		EventType: audit.EventLogin,
		Message:   "login succeeded",
		UserID:    identity.ID,
		SessionID: sess.ID,
		Origin:    origin,
		Context: map[string]interface{}{
			"access_level": string(identity.Level),
		},
	})
	s.logger.Info("login succeeded",
		"user_id", identity.ID,
		"access_level", string(identity.Level),
		"origin", origin,
	)
	return sess, nil
}

// Logout removes the session. Unknown session IDs are not an error.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	sess, err := s.sessions.Peek(ctx, sessionID)
	if err != nil {
		// Already gone or expired. Nothing to audit.
		return nil
	}

	if err := s.sessions.Logout(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to remove session: %w", err)
	}

	s.append(ctx, audit.Record{
		Timestamp: time.Now().UTC(),
		EventType: audit.EventLogout,
		Message:   "logout",
		UserID:    sess.UserID,
		SessionID: sess.ID,
		Origin:    sess.Origin,
	})
	s.logger.Info("logout", "user_id", sess.UserID)
	return nil
}

func (s *AuthService) append(ctx context.Context, record audit.Record) {
	if err := s.auditLog.Append(ctx, record); err != nil {
		s.logger.Error("failed to audit access event",
			"error", err,
			"event_type", record.EventType,
		)
	}
}

var _ inbound.AuthService = (*AuthService)(nil)
