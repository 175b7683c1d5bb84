package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/chaingate/chaingate/internal/domain/auth"
)

// mockSessionStore is a simple in-memory mock for testing.
type mockSessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func newMockSessionStore() *mockSessionStore {
	return &mockSessionStore{
		sessions: make(map[string]*Session),
	}
}

func (m *mockSessionStore) Create(ctx context.Context, sess *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.ID] = sess
	return nil
}

func (m *mockSessionStore) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	if !ok || sess.IsExpired() {
		return nil, ErrSessionNotFound
	}
	cp := *sess
	return &cp, nil
}

func (m *mockSessionStore) Touch(ctx context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[id]
	if !ok || sess.IsExpired() {
		return nil, ErrSessionNotFound
	}
	sess.Touch()
	cp := *sess
	return &cp, nil
}

func (m *mockSessionStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

func TestGenerateSessionID(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()

	ids := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, err := GenerateSessionID("user-123", now)
		if err != nil {
			t.Fatalf("GenerateSessionID() error = %v", err)
		}
		if len(id) != 32 {
			t.Fatalf("GenerateSessionID() len = %d, want 32", len(id))
		}
		for _, c := range id {
			if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
				t.Fatalf("GenerateSessionID() contains non-hex character: %c", c)
			}
		}
		if ids[id] {
			t.Errorf("GenerateSessionID() generated duplicate ID: %s", id)
		}
		ids[id] = true
	}
}

func TestSessionService_Create(t *testing.T) {
	t.Parallel()

	store := newMockSessionStore()
	service := NewSessionService(store, Config{Timeout: 30 * time.Minute})
	ctx := context.Background()

	identity := &auth.Identity{
		ID:    "user-123",
		Name:  "Test User",
		Level: auth.LevelUser,
	}

	sess, err := service.Create(ctx, identity, "192.168.1.1")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if sess.ID == "" {
		t.Error("Create() session.ID is empty")
	}
	if sess.UserID != identity.ID {
		t.Errorf("Create() session.UserID = %q, want %q", sess.UserID, identity.ID)
	}
	if sess.Level != auth.LevelUser {
		t.Errorf("Create() session.Level = %s, want user", sess.Level)
	}
	if sess.Origin != "192.168.1.1" {
		t.Errorf("Create() session.Origin = %q", sess.Origin)
	}
	if sess.Timeout != 30*time.Minute {
		t.Errorf("Create() session.Timeout = %v, want 30m", sess.Timeout)
	}
	if sess.QueryCount != 0 {
		t.Errorf("Create() session.QueryCount = %d, want 0", sess.QueryCount)
	}
	if sess.CreatedAt.IsZero() || sess.LastActivity.IsZero() {
		t.Error("Create() session timestamps are zero")
	}
}

func TestSessionService_ValidateTouchesActivity(t *testing.T) {
	t.Parallel()

	store := newMockSessionStore()
	service := NewSessionService(store, Config{})
	ctx := context.Background()

	created, err := service.Create(ctx, &auth.Identity{ID: "u1", Level: auth.LevelAnalyst}, "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	for i := 1; i <= 3; i++ {
		sess, err := service.Validate(ctx, created.ID)
		if err != nil {
			t.Fatalf("Validate() #%d error = %v", i, err)
		}
		if sess.QueryCount != i {
			t.Errorf("Validate() #%d QueryCount = %d, want %d", i, sess.QueryCount, i)
		}
		if sess.LastActivity.Before(created.LastActivity) {
			t.Errorf("Validate() #%d did not advance LastActivity", i)
		}
	}
}

func TestSessionService_ValidateExpired(t *testing.T) {
	t.Parallel()

	store := newMockSessionStore()
	service := NewSessionService(store, Config{Timeout: time.Millisecond})
	ctx := context.Background()

	created, err := service.Create(ctx, &auth.Identity{ID: "u1", Level: auth.LevelGuest}, "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	time.Sleep(10 * time.Millisecond)

	if _, err := service.Validate(ctx, created.ID); err != ErrSessionNotFound {
		t.Errorf("Validate() on expired session error = %v, want ErrSessionNotFound", err)
	}
}

func TestSessionService_Logout(t *testing.T) {
	t.Parallel()

	store := newMockSessionStore()
	service := NewSessionService(store, Config{})
	ctx := context.Background()

	created, err := service.Create(ctx, &auth.Identity{ID: "u1", Level: auth.LevelUser}, "")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := service.Logout(ctx, created.ID); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if _, err := service.Validate(ctx, created.ID); err != ErrSessionNotFound {
		t.Errorf("Validate() after logout error = %v, want ErrSessionNotFound", err)
	}
}
