// Package ratelimit provides sliding-window rate limiting domain types.
package ratelimit

import (
	"fmt"
	"time"
)

// WindowConfig defines the sliding-window parameters.
type WindowConfig struct {
	// Limit is the number of allowed requests within the window.
	Limit int

	// Window is the trailing time window. Default: 60 seconds.
	Window time.Duration
}

// DefaultWindow is the trailing window applied when none is configured.
const DefaultWindow = 60 * time.Second

// Result contains the outcome of a rate limit check.
type Result struct {
	// Allowed indicates whether the request fits the window.
	Allowed bool

	// Count is the number of requests recorded in the current window,
	// including this one.
	Count int

	// Remaining is the number of requests left in the window.
	Remaining int

	// RetryAfter is the duration until the oldest in-window request
	// ages out. Only meaningful when Allowed is false.
	RetryAfter time.Duration
}

// keyPrefix is the base prefix for all rate limit keys.
const keyPrefix = "ratelimit"

// FormatKey returns the structured rate limit key for a (user, origin) pair.
// Format: "ratelimit:{user}:{origin}"
func FormatKey(userID, origin string) string {
	return fmt.Sprintf("%s:%s:%s", keyPrefix, userID, origin)
}
