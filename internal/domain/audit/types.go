// Package audit contains domain types for the security audit trail.
package audit

import "time"

// EventType constants for audit records.
const (
	// EventViolation records one detected security violation.
	EventViolation = "violation"

	// Access control events.
	EventLogin       = "access.login"
	EventLoginFailed = "access.login_failed"
	EventLogout      = "access.logout"

	// EventSessionExpired records a lazily-expired session being rejected.
	EventSessionExpired = "session.expired"

	// EventQueryDecision records the final allow/deny decision for one
	// candidate query.
	EventQueryDecision = "query.decision"
)

// Decision constants for query decision records.
const (
	DecisionAllow = "allow"
	DecisionDeny  = "deny"
)

// Record represents a single auditable event.
// Records are immutable once appended.
type Record struct {
	// Timestamp is when the event occurred (UTC).
	Timestamp time.Time `json:"timestamp"`
	// EventType categorizes the event (violation, access.*, query.*).
	EventType string `json:"event_type"`
	// Kind is the violation kind for EventViolation records.
	Kind string `json:"kind,omitempty"`
	// Severity is low/medium/high/critical for EventViolation records.
	Severity string `json:"severity,omitempty"`
	// Message is the human-readable description.
	Message string `json:"message"`
	// ViolationID is the generated identifier unique per violation.
	ViolationID string `json:"violation_id,omitempty"`
	// Decision is allow/deny for EventQueryDecision records.
	Decision string `json:"decision,omitempty"`

	// UserID of the session owner, when known.
	UserID string `json:"user_id,omitempty"`
	// SessionID of the originating session, when known.
	SessionID string `json:"session_id,omitempty"`
	// Origin address of the session, when known.
	Origin string `json:"origin,omitempty"`
	// RequestID correlates records from one pipeline run.
	RequestID string `json:"request_id,omitempty"`

	// Context carries structured details (matched pattern, offending
	// table name, query snippet).
	Context map[string]interface{} `json:"context,omitempty"`
}

// Summary contains aggregated audit statistics for the security
// overview endpoint.
type Summary struct {
	// TotalEvents is the count of records in the store.
	TotalEvents int64 `json:"total_events"`
	// EventsLastHour is the count of records in the trailing hour.
	EventsLastHour int64 `json:"events_last_hour"`
	// EventsLastDay is the count of records in the trailing day.
	EventsLastDay int64 `json:"events_last_day"`
	// CriticalLastDay is the count of critical-severity records in the
	// trailing day.
	CriticalLastDay int64 `json:"critical_last_day"`
	// ByKind maps violation kinds to counts over the trailing day.
	ByKind map[string]int64 `json:"by_kind"`
	// BySeverity maps severities to counts over the trailing day.
	BySeverity map[string]int64 `json:"by_severity"`
}
