package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/chaingate/chaingate/internal/domain/auth"
	"github.com/chaingate/chaingate/internal/domain/session"
	"go.uber.org/goleak"
)

func newStoredSession(t *testing.T, store *SessionStore, timeout time.Duration) *session.Session {
	t.Helper()
	now := time.Now().UTC()
	sess := &session.Session{
		ID:           "sess-" + t.Name(),
		UserID:       "alice",
		Level:        auth.LevelUser,
		Origin:       "10.0.0.1",
		CreatedAt:    now,
		LastActivity: now,
		Timeout:      timeout,
	}
	if err := store.Create(context.Background(), sess); err != nil {
		t.Fatalf("Create(): %v", err)
	}
	return sess
}

func TestSessionStore_CreateAndGet(t *testing.T) {
	t.Parallel()

	store := NewSessionStore()
	sess := newStoredSession(t, store, time.Minute)

	got, err := store.Get(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("Get(): %v", err)
	}
	if got.UserID != "alice" || got.Level != auth.LevelUser {
		t.Errorf("Get() = %+v, want stored session", got)
	}

	// Returned copy must not alias store state.
	got.UserID = "mallory"
	again, err := store.Get(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("Get(): %v", err)
	}
	if again.UserID != "alice" {
		t.Error("mutating a returned session leaked into the store")
	}
}

func TestSessionStore_GetExpired(t *testing.T) {
	t.Parallel()

	store := NewSessionStore()
	sess := newStoredSession(t, store, time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	if _, err := store.Get(context.Background(), sess.ID); !errors.Is(err, session.ErrSessionNotFound) {
		t.Errorf("Get() on expired session: err = %v, want ErrSessionNotFound", err)
	}
}

func TestSessionStore_TouchRefreshesActivity(t *testing.T) {
	t.Parallel()

	store := NewSessionStore()
	sess := newStoredSession(t, store, time.Minute)

	before := sess.LastActivity
	time.Sleep(2 * time.Millisecond)

	touched, err := store.Touch(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("Touch(): %v", err)
	}
	if !touched.LastActivity.After(before) {
		t.Error("Touch() did not advance LastActivity")
	}
	if touched.QueryCount != 1 {
		t.Errorf("QueryCount = %d, want 1", touched.QueryCount)
	}

	if _, err := store.Touch(context.Background(), sess.ID); err != nil {
		t.Fatalf("Touch(): %v", err)
	}
	got, err := store.Get(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("Get(): %v", err)
	}
	if got.QueryCount != 2 {
		t.Errorf("QueryCount = %d, want 2", got.QueryCount)
	}
}

func TestSessionStore_TouchExpired(t *testing.T) {
	t.Parallel()

	store := NewSessionStore()
	sess := newStoredSession(t, store, time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	if _, err := store.Touch(context.Background(), sess.ID); !errors.Is(err, session.ErrSessionNotFound) {
		t.Errorf("Touch() on expired session: err = %v, want ErrSessionNotFound", err)
	}
}

func TestSessionStore_Delete(t *testing.T) {
	t.Parallel()

	store := NewSessionStore()
	sess := newStoredSession(t, store, time.Minute)

	if err := store.Delete(context.Background(), sess.ID); err != nil {
		t.Fatalf("Delete(): %v", err)
	}
	if _, err := store.Get(context.Background(), sess.ID); !errors.Is(err, session.ErrSessionNotFound) {
		t.Errorf("Get() after delete: err = %v, want ErrSessionNotFound", err)
	}

	// Deleting an unknown ID is not an error.
	if err := store.Delete(context.Background(), "no-such-session"); err != nil {
		t.Errorf("Delete() unknown id: %v", err)
	}
}

func TestSessionStore_ConcurrentTouch(t *testing.T) {
	t.Parallel()

	store := NewSessionStore()
	sess := newStoredSession(t, store, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Touch(context.Background(), sess.ID); err != nil {
				t.Errorf("Touch(): %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := store.Get(context.Background(), sess.ID)
	if err != nil {
		t.Fatalf("Get(): %v", err)
	}
	if got.QueryCount != 50 {
		t.Errorf("QueryCount = %d, want 50", got.QueryCount)
	}
}

func TestSessionStore_CleanupRemovesExpired(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := NewSessionStoreWithConfig(10 * time.Millisecond)
	store.StartCleanup(ctx)

	newStoredSession(t, store, time.Millisecond)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) && store.Count() > 0 {
		time.Sleep(5 * time.Millisecond)
	}
	if store.Count() != 0 {
		t.Error("expired session not cleaned up")
	}

	store.Stop()
}
