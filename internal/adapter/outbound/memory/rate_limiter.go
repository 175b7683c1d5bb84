package memory

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/chaingate/chaingate/internal/domain/ratelimit"
)

// RateLimiter implements ratelimit.SlidingWindow with per-key
// timestamp lists in memory. Thread-safe for concurrent access.
// Includes background cleanup to prevent unbounded memory growth from
// abandoned keys.
type RateLimiter struct {
	windows         map[string][]time.Time
	mu              sync.Mutex
	stopChan        chan struct{}
	wg              sync.WaitGroup
	once            sync.Once
	cleanupInterval time.Duration
	maxTTL          time.Duration

	// now is replaceable in tests.
	now func() time.Time
}

// NewRateLimiter creates an in-memory sliding-window limiter with
// default cleanup settings (interval 5 minutes, key TTL 1 hour).
func NewRateLimiter() *RateLimiter {
	return NewRateLimiterWithConfig(5*time.Minute, 1*time.Hour)
}

// NewRateLimiterWithConfig creates an in-memory sliding-window limiter
// with custom cleanup settings.
func NewRateLimiterWithConfig(cleanupInterval, maxTTL time.Duration) *RateLimiter {
	return &RateLimiter{
		windows:         make(map[string][]time.Time),
		stopChan:        make(chan struct{}),
		cleanupInterval: cleanupInterval,
		maxTTL:          maxTTL,
		now:             time.Now,
	}
}

// Allow records one request for the key and checks it against the
// window. Entries older than the window are purged first; every call
// appends a timestamp regardless of outcome, so denied requests still
// consume a slot.
func (r *RateLimiter) Allow(ctx context.Context, key string, config ratelimit.WindowConfig) (ratelimit.Result, error) {
	if config.Window <= 0 {
		config.Window = ratelimit.DefaultWindow
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	cutoff := now.Add(-config.Window)

	kept := r.windows[key][:0]
	for _, ts := range r.windows[key] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	kept = append(kept, now)
	r.windows[key] = kept

	count := len(kept)
	// Limit 0 means unbounded.
	if config.Limit <= 0 {
		return ratelimit.Result{Allowed: true, Count: count, Remaining: -1}, nil
	}

	remaining := config.Limit - count
	if remaining < 0 {
		remaining = 0
	}
	if count > config.Limit {
		return ratelimit.Result{
			Allowed:    false,
			Count:      count,
			Remaining:  0,
			RetryAfter: kept[0].Add(config.Window).Sub(now),
		}, nil
	}
	return ratelimit.Result{Allowed: true, Count: count, Remaining: remaining}, nil
}

// StartCleanup starts the background goroutine that drops keys whose
// newest entry is older than maxTTL. Call Stop to stop it gracefully.
func (r *RateLimiter) StartCleanup(ctx context.Context) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(r.cleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-r.stopChan:
				return
			case <-ticker.C:
				r.cleanup()
			}
		}
	}()
}

func (r *RateLimiter) cleanup() {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-r.maxTTL)
	cleaned := 0
	for key, entries := range r.windows {
		if len(entries) == 0 || entries[len(entries)-1].Before(cutoff) {
			delete(r.windows, key)
			cleaned++
		}
	}

	if cleaned > 0 {
		slog.Debug("cleaned stale rate limit keys", "count", cleaned)
	}
}

// Stop stops the background cleanup goroutine and waits for it to
// exit. Safe to call multiple times.
func (r *RateLimiter) Stop() {
	r.once.Do(func() {
		close(r.stopChan)
	})
	r.wg.Wait()
}

// Compile-time interface verification.
var _ ratelimit.SlidingWindow = (*RateLimiter)(nil)
