package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/chaingate/chaingate/internal/domain/ratelimit"
	"go.uber.org/goleak"
)

func TestRateLimiter_WindowBoundary(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	limiter := NewRateLimiter()

	// Controlled clock so the window boundary is exact.
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	config := ratelimit.WindowConfig{Limit: 30, Window: time.Minute}
	key := ratelimit.FormatKey("alice", "10.0.0.1")

	// 35 calls inside the window: 30 allowed, calls 31-35 denied.
	for i := 1; i <= 35; i++ {
		now = now.Add(time.Second)
		result, err := limiter.Allow(ctx, key, config)
		if err != nil {
			t.Fatalf("Allow() call %d: %v", i, err)
		}
		wantAllowed := i <= 30
		if result.Allowed != wantAllowed {
			t.Fatalf("call %d: Allowed = %v, want %v", i, result.Allowed, wantAllowed)
		}
		if result.Count != i {
			t.Errorf("call %d: Count = %d, want %d", i, result.Count, i)
		}
		if !result.Allowed && result.RetryAfter <= 0 {
			t.Errorf("call %d: RetryAfter = %v, want > 0", i, result.RetryAfter)
		}
	}

	// After the window elapses everything ages out and requests flow.
	now = now.Add(config.Window + time.Second)
	result, err := limiter.Allow(ctx, key, config)
	if err != nil {
		t.Fatalf("Allow() after window: %v", err)
	}
	if !result.Allowed {
		t.Error("request after window elapsed should be allowed")
	}
	if result.Count != 1 {
		t.Errorf("Count after window = %d, want 1", result.Count)
	}
}

func TestRateLimiter_DeniedCallsConsumeSlots(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	limiter := NewRateLimiter()
	config := ratelimit.WindowConfig{Limit: 2, Window: time.Minute}

	for i := 0; i < 5; i++ {
		if _, err := limiter.Allow(ctx, "consume-key", config); err != nil {
			t.Fatalf("Allow(): %v", err)
		}
	}
	result, err := limiter.Allow(ctx, "consume-key", config)
	if err != nil {
		t.Fatalf("Allow(): %v", err)
	}
	if result.Count != 6 {
		t.Errorf("Count = %d, want 6 (denied calls still consume slots)", result.Count)
	}
}

func TestRateLimiter_ZeroLimitIsUnbounded(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	limiter := NewRateLimiter()
	config := ratelimit.WindowConfig{Limit: 0, Window: time.Minute}

	for i := 0; i < 1000; i++ {
		result, err := limiter.Allow(ctx, "system-key", config)
		if err != nil {
			t.Fatalf("Allow(): %v", err)
		}
		if !result.Allowed {
			t.Fatalf("call %d denied under unbounded limit", i)
		}
	}
}

func TestRateLimiter_KeysAreIndependent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	limiter := NewRateLimiter()
	config := ratelimit.WindowConfig{Limit: 1, Window: time.Minute}

	if result, _ := limiter.Allow(ctx, ratelimit.FormatKey("a", "o"), config); !result.Allowed {
		t.Fatal("first call for key a should be allowed")
	}
	if result, _ := limiter.Allow(ctx, ratelimit.FormatKey("a", "o"), config); result.Allowed {
		t.Fatal("second call for key a should be denied")
	}
	if result, _ := limiter.Allow(ctx, ratelimit.FormatKey("b", "o"), config); !result.Allowed {
		t.Fatal("key b must not share key a's window")
	}
}

func TestRateLimiter_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	limiter := NewRateLimiter()
	config := ratelimit.WindowConfig{Limit: 50, Window: time.Minute}

	var wg sync.WaitGroup
	allowed := make(chan bool, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := limiter.Allow(ctx, "shared-key", config)
			if err != nil {
				t.Errorf("Allow(): %v", err)
				return
			}
			allowed <- result.Allowed
		}()
	}
	wg.Wait()
	close(allowed)

	allowedCount := 0
	for a := range allowed {
		if a {
			allowedCount++
		}
	}
	if allowedCount != 50 {
		t.Errorf("allowed = %d of 100, want exactly 50", allowedCount)
	}
}

func TestRateLimiter_CleanupRemovesStaleKeys(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	limiter := NewRateLimiterWithConfig(10*time.Millisecond, 20*time.Millisecond)
	limiter.StartCleanup(ctx)

	if _, err := limiter.Allow(ctx, "stale-key", ratelimit.WindowConfig{Limit: 5, Window: time.Minute}); err != nil {
		t.Fatalf("Allow(): %v", err)
	}

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		limiter.mu.Lock()
		n := len(limiter.windows)
		limiter.mu.Unlock()
		if n == 0 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	limiter.mu.Lock()
	n := len(limiter.windows)
	limiter.mu.Unlock()
	if n != 0 {
		t.Errorf("stale key not cleaned up, %d remaining", n)
	}

	limiter.Stop()
}
