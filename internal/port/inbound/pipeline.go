// Package inbound defines the inbound port interfaces called by the
// HTTP and CLI adapters.
package inbound

import (
	"context"
	"errors"
	"time"

	"github.com/chaingate/chaingate/internal/domain/audit"
	"github.com/chaingate/chaingate/internal/domain/prompt"
	"github.com/chaingate/chaingate/internal/domain/query"
	"github.com/chaingate/chaingate/internal/domain/security"
	"github.com/chaingate/chaingate/internal/domain/session"
)

// Terminal pipeline failures. Both reject the request without a
// fallback substitution; the caller must act.
var (
	// ErrSessionInvalid means the session is unknown or expired.
	// The caller must re-authenticate.
	ErrSessionInvalid = errors.New("session invalid or expired")

	// ErrRateLimited means the sliding window rejected the request.
	// The caller must back off; no fallback is substituted.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrInvalidQuestion means input screening rejected the raw
	// question text.
	ErrInvalidQuestion = errors.New("question failed input screening")
)

// Outcome of one pipeline run.
type Outcome string

const (
	// OutcomeAccepted means the generated query passed validation and
	// the confidence threshold.
	OutcomeAccepted Outcome = "accepted"
	// OutcomeFellBack means a pre-approved fallback was substituted.
	OutcomeFellBack Outcome = "fell_back"
	// OutcomeRejected means the request failed terminally; it is
	// surfaced as an error, never inside an AskResult.
	OutcomeRejected Outcome = "rejected"
)

// AskResult is the caller-facing result of one pipeline run.
// Transient: created per request, never cached.
type AskResult struct {
	RequestID      string               `json:"request_id"`
	Outcome        Outcome              `json:"outcome"`
	QueryText      string               `json:"query_text"`
	Classification query.Classification `json:"classification"`
	PromptTier     prompt.Tier          `json:"prompt_tier,omitempty"`
	Confidence     float64              `json:"confidence"`
	Violations     []security.Violation `json:"violations,omitempty"`
	FallbackReason string               `json:"fallback_reason,omitempty"`
	Advisories     []string             `json:"advisories,omitempty"`
	Results        *query.ResultSet     `json:"results,omitempty"`
	Elapsed        time.Duration        `json:"elapsed_ns"`
}

// PipelineService is the inbound port for the question pipeline.
type PipelineService interface {
	// Ask runs the full pipeline for one question. A non-nil error
	// means the request was rejected terminally (session invalid,
	// rate limited, hostile input); every other path returns a result
	// with an accepted or fell-back query.
	Ask(ctx context.Context, sessionID, question string) (*AskResult, error)
}

// AuthService is the inbound port for session lifecycle calls.
type AuthService interface {
	// Login verifies credentials and creates a session.
	Login(ctx context.Context, userID, password, origin string) (*session.Session, error)

	// Logout removes the session. Unknown IDs are not an error.
	Logout(ctx context.Context, sessionID string) error
}

// SecurityReporter is the inbound port for the security summary.
type SecurityReporter interface {
	Summary(ctx context.Context) (*audit.Summary, error)
}
