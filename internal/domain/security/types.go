// Package security provides injection screening, permission enforcement,
// and risk scoring for candidate queries.
package security

import (
	"time"

	"github.com/google/uuid"
)

// ViolationKind identifies the category of a detected problem.
type ViolationKind string

const (
	// KindInjectionAttempt marks a candidate matching an injection pattern.
	KindInjectionAttempt ViolationKind = "injection_attempt"
	// KindAccessDenied marks a reference to a table outside the allow-list.
	KindAccessDenied ViolationKind = "access_denied"
	// KindRateLimitExceeded marks a request over the sliding-window limit.
	KindRateLimitExceeded ViolationKind = "rate_limit_exceeded"
	// KindSuspiciousPattern marks advisory findings (missing LIMIT,
	// flagged guard rules).
	KindSuspiciousPattern ViolationKind = "suspicious_pattern"
	// KindPrivilegeEscalation marks a non-read statement verb.
	KindPrivilegeEscalation ViolationKind = "privilege_escalation"
	// KindSessionExpired marks use of an expired or invalid session.
	KindSessionExpired ViolationKind = "session_expired"
	// KindGuardRule marks a deny finding from a configured guard rule.
	KindGuardRule ViolationKind = "guard_rule"
)

// Severity is the weight class of a violation.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Blocks reports whether the severity alone blocks a candidate.
func (s Severity) Blocks() bool {
	return s == SeverityHigh || s == SeverityCritical
}

// Violation is an immutable record of one detected problem.
type Violation struct {
	// ID is a generated identifier unique per violation.
	ID string
	// Kind categorizes the violation.
	Kind ViolationKind
	// Severity is low/medium/high/critical.
	Severity Severity
	// Message is the human-readable description.
	Message string
	// Context carries structured details (matched pattern, table name).
	Context map[string]interface{}
	// Timestamp is when the violation was detected (UTC).
	Timestamp time.Time
}

// NewViolation creates a Violation with a fresh ID and timestamp.
func NewViolation(kind ViolationKind, severity Severity, message string, context map[string]interface{}) Violation {
	return Violation{
		ID:        uuid.NewString(),
		Kind:      kind,
		Severity:  severity,
		Message:   message,
		Context:   context,
		Timestamp: time.Now().UTC(),
	}
}

// Result is the outcome of validating one candidate query.
type Result struct {
	// Allowed is true when no high/critical violation and no rate-limit
	// violation was found.
	Allowed bool
	// Violations holds every finding, blocking or not.
	Violations []Violation
	// RiskScore is the clamped weighted sum of violation severities.
	RiskScore float64
	// RateLimited is true when the sliding window rejected the request.
	// Rate-limit violations force Allowed=false regardless of severity.
	RateLimited bool
}

// HasKind reports whether the result contains a violation of the kind.
func (r Result) HasKind(kind ViolationKind) bool {
	for _, v := range r.Violations {
		if v.Kind == kind {
			return true
		}
	}
	return false
}
