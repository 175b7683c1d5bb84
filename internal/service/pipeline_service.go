package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/chaingate/chaingate/internal/domain/audit"
	"github.com/chaingate/chaingate/internal/domain/policy"
	"github.com/chaingate/chaingate/internal/domain/prompt"
	"github.com/chaingate/chaingate/internal/domain/query"
	"github.com/chaingate/chaingate/internal/domain/security"
	"github.com/chaingate/chaingate/internal/domain/session"
	"github.com/chaingate/chaingate/internal/port/inbound"
	"github.com/chaingate/chaingate/internal/port/outbound"
)

// DefaultConfidenceThreshold is the minimum confidence a generated
// query needs before it is executed instead of a fallback.
const DefaultConfidenceThreshold = 0.5

// historyDepth bounds the per-session conversation memory.
const historyDepth = 3

// PipelineConfig holds tunables for the question pipeline.
type PipelineConfig struct {
	// ConfidenceThreshold below which a generated query is replaced by
	// a fallback. Default 0.5.
	ConfidenceThreshold float64
}

// Pipeline runs a question through classification, prompt construction,
// completion, extraction, validation, confidence scoring, and
// execution. Failures before the rate-limit gate recover with a
// pre-approved fallback query; rate limiting and invalid sessions are
// terminal.
type Pipeline struct {
	sessions  *session.SessionService
	validator *security.Validator
	builder   *prompt.Builder
	completer outbound.CompletionClient
	executor  outbound.QueryExecutor
	auditLog  audit.AuditStore
	logger    *slog.Logger
	tracer    trace.Tracer
	questions metric.Int64Counter
	threshold float64

	mu      sync.Mutex
	history map[string][]prompt.Exchange

	stats pipelineStats
}

// NewPipeline creates the pipeline service with its collaborators.
func NewPipeline(
	sessions *session.SessionService,
	validator *security.Validator,
	builder *prompt.Builder,
	completer outbound.CompletionClient,
	executor outbound.QueryExecutor,
	auditLog audit.AuditStore,
	cfg PipelineConfig,
	logger *slog.Logger,
) *Pipeline {
	threshold := cfg.ConfidenceThreshold
	if threshold == 0 {
		threshold = DefaultConfidenceThreshold
	}
	questions, err := otel.Meter("chaingate/pipeline").Int64Counter("pipeline.questions",
		metric.WithDescription("Questions processed, attributed by outcome."))
	if err != nil {
		logger.Warn("failed to create questions counter", "error", err)
	}
	return &Pipeline{
		sessions:  sessions,
		validator: validator,
		builder:   builder,
		completer: completer,
		executor:  executor,
		auditLog:  auditLog,
		logger:    logger,
		tracer:    otel.Tracer("chaingate/pipeline"),
		questions: questions,
		threshold: threshold,
		history:   make(map[string][]prompt.Exchange),
	}
}

// Ask runs the full pipeline for one question.
func (p *Pipeline) Ask(ctx context.Context, sessionID, question string) (*inbound.AskResult, error) {
	start := time.Now()
	requestID := uuid.NewString()
	logger := p.logger.With("request_id", requestID)

	ctx, span := p.tracer.Start(ctx, "pipeline.ask",
		trace.WithAttributes(attribute.String("request_id", requestID)))
	defer span.End()

	p.stats.countTotal()

	if !security.ValidQuestion(question) {
		logger.Warn("question rejected by input screening", "length", len(question))
		p.countRejected(ctx)
		return nil, inbound.ErrInvalidQuestion
	}

	sess, err := p.resolveSession(ctx, sessionID)
	if err != nil {
		p.auditSessionRejected(ctx, sessionID, requestID)
		p.countRejected(ctx)
		return nil, fmt.Errorf("%w: %v", inbound.ErrSessionInvalid, err)
	}
	logger = logger.With("user_id", sess.UserID)

	class := p.classify(ctx, question)
	advisories := query.ChainNameAdvisories(question)

	prm := p.buildPrompt(ctx, question, class, p.historyFor(sessionID))

	result := &inbound.AskResult{
		RequestID:      requestID,
		Classification: class,
		PromptTier:     prm.Tier,
		Advisories:     advisories,
	}

	raw, err := p.complete(ctx, prm.Text)
	if err != nil {
		logger.Warn("completion failed, substituting fallback", "error", err)
		return p.fellBack(ctx, sess, result, question,
			fmt.Sprintf("completion unavailable: %v", err), start)
	}

	candidate, err := query.Extract(raw)
	if err != nil {
		logger.Info("no usable query in completion, substituting fallback", "error", err)
		return p.fellBack(ctx, sess, result, question,
			fmt.Sprintf("extraction failed: %v", err), start)
	}

	valRes, err := p.validate(ctx, candidate, sess)
	if err != nil {
		logger.Error("validation error, substituting fallback", "error", err)
		return p.fellBack(ctx, sess, result, question,
			"validation could not complete", start)
	}
	result.Violations = valRes.Violations

	if valRes.RateLimited {
		p.countRejected(ctx)
		return nil, inbound.ErrRateLimited
	}
	if !valRes.Allowed {
		logger.Warn("generated query blocked, substituting fallback",
			"risk_score", valRes.RiskScore,
			"violations", len(valRes.Violations),
		)
		return p.fellBack(ctx, sess, result, question,
			"generated query blocked by security validation", start)
	}

	confidence := query.Score(candidate, question)
	result.Confidence = confidence
	if confidence < p.threshold {
		logger.Info("low confidence, substituting fallback",
			"confidence", confidence,
			"threshold", p.threshold,
		)
		return p.fellBack(ctx, sess, result, question,
			fmt.Sprintf("confidence %.2f below threshold %.2f", confidence, p.threshold), start)
	}

	results, err := p.execute(ctx, candidate, policy.For(sess.Level))
	if err != nil {
		logger.Error("query execution failed, substituting fallback",
			"error", err,
			"query", candidate,
		)
		return p.fellBack(ctx, sess, result, question,
			"query execution failed", start)
	}

	p.remember(sessionID, question, candidate)
	p.stats.countAccepted(class)
	p.countOutcome(ctx, "accepted")

	result.Outcome = inbound.OutcomeAccepted
	result.QueryText = candidate
	result.Results = results
	result.Elapsed = time.Since(start)

	logger.Info("question answered",
		"classification", string(class),
		"tier", string(prm.Tier),
		"confidence", confidence,
		"rows", len(results.Rows),
		"elapsed", result.Elapsed,
	)
	return result, nil
}

// ForgetSession drops the conversation memory for a session.
// Called on logout.
func (p *Pipeline) ForgetSession(sessionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.history, sessionID)
}

// Stats returns a snapshot of the pipeline counters.
func (p *Pipeline) Stats() PipelineStats {
	return p.stats.snapshot()
}

func (p *Pipeline) resolveSession(ctx context.Context, sessionID string) (*session.Session, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.session")
	defer span.End()
	return p.sessions.Validate(ctx, sessionID)
}

func (p *Pipeline) classify(ctx context.Context, question string) query.Classification {
	_, span := p.tracer.Start(ctx, "pipeline.classify")
	defer span.End()
	class := query.Classify(question)
	span.SetAttributes(attribute.String("classification", string(class)))
	return class
}

func (p *Pipeline) buildPrompt(ctx context.Context, question string, class query.Classification, history []prompt.Exchange) prompt.Prompt {
	_, span := p.tracer.Start(ctx, "pipeline.prompt")
	defer span.End()
	prm := p.builder.Build(question, class, history)
	span.SetAttributes(
		attribute.String("tier", string(prm.Tier)),
		attribute.Int("estimated_tokens", prompt.EstimateTokens(prm.Text)),
	)
	return prm
}

// complete calls the completion client, retrying exactly once on
// failure. Context cancellation is not retried.
func (p *Pipeline) complete(ctx context.Context, promptText string) (string, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.complete")
	defer span.End()

	raw, err := p.completer.Complete(ctx, promptText)
	if err == nil {
		return raw, nil
	}
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return "", err
	}

	span.AddEvent("retry")
	return p.completer.Complete(ctx, promptText)
}

func (p *Pipeline) validate(ctx context.Context, candidate string, sess *session.Session) (security.Result, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.validate")
	defer span.End()
	res, err := p.validator.Validate(ctx, candidate, sess)
	if err == nil {
		span.SetAttributes(
			attribute.Bool("allowed", res.Allowed),
			attribute.Float64("risk_score", res.RiskScore),
		)
	}
	return res, err
}

func (p *Pipeline) execute(ctx context.Context, queryText string, pol policy.AccessPolicy) (*query.ResultSet, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.execute")
	defer span.End()
	return p.executor.Execute(ctx, queryText, pol)
}

// fellBack substitutes the pre-approved fallback query for the
// question, executes it, and completes the result. Fallbacks bypass
// validation; only the policy's row cap and masking still apply.
func (p *Pipeline) fellBack(ctx context.Context, sess *session.Session, result *inbound.AskResult, question, reason string, start time.Time) (*inbound.AskResult, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.fallback")
	defer span.End()

	fb := query.SelectFallback(question)
	span.SetAttributes(attribute.String("fallback", fb.Name))

	results, err := p.executor.Execute(ctx, fb.Query, policy.For(sess.Level))
	if err != nil {
		p.countRejected(ctx)
		return nil, fmt.Errorf("fallback %q execution: %w", fb.Name, err)
	}

	p.auditFallback(ctx, sess, result.RequestID, fb.Name, reason)
	p.stats.countFellBack(result.Classification)
	p.countOutcome(ctx, "fell_back")

	result.Outcome = inbound.OutcomeFellBack
	result.QueryText = fb.Query
	result.FallbackReason = reason
	result.Results = results
	result.Elapsed = time.Since(start)
	return result, nil
}

func (p *Pipeline) countRejected(ctx context.Context) {
	p.stats.countRejected()
	p.countOutcome(ctx, "rejected")
}

// countOutcome records the question on the meter. The counter is nil
// only when instrument creation failed at construction.
func (p *Pipeline) countOutcome(ctx context.Context, outcome string) {
	if p.questions == nil {
		return
	}
	p.questions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// historyFor returns the conversation memory for a session.
func (p *Pipeline) historyFor(sessionID string) []prompt.Exchange {
	p.mu.Lock()
	defer p.mu.Unlock()
	// Return a copy to prevent mutation.
	return append([]prompt.Exchange(nil), p.history[sessionID]...)
}

// remember records one accepted exchange, keeping only the most recent
// historyDepth entries per session.
func (p *Pipeline) remember(sessionID, question, queryText string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	entries := append(p.history[sessionID], prompt.Exchange{
		Question: question,
		Query:    queryText,
	})
	if len(entries) > historyDepth {
		entries = entries[len(entries)-historyDepth:]
	}
	p.history[sessionID] = entries
}

func (p *Pipeline) auditSessionRejected(ctx context.Context, sessionID, requestID string) {
	record := audit.Record{
		Timestamp: time.Now().UTC(),
		EventType: audit.EventSessionExpired,
		Message:   "request with unknown or expired session",
		SessionID: sessionID,
		RequestID: requestID,
	}
	if err := p.auditLog.Append(ctx, record); err != nil {
		p.logger.Error("failed to audit session rejection", "error", err)
	}
}

func (p *Pipeline) auditFallback(ctx context.Context, sess *session.Session, requestID, fallbackName, reason string) {
	record := audit.Record{
		Timestamp: time.Now().UTC(),
		EventType: audit.EventQueryDecision,
		Decision:  audit.DecisionAllow,
		Message:   "pre-approved fallback substituted",
		UserID:    sess.UserID,
		SessionID: sess.ID,
		Origin:    sess.Origin,
		RequestID: requestID,
		Context: map[string]interface{}{
			"fallback": fallbackName,
			"reason":   reason,
		},
	}
	if err := p.auditLog.Append(ctx, record); err != nil {
		p.logger.Error("failed to audit fallback decision", "error", err)
	}
}

var _ inbound.PipelineService = (*Pipeline)(nil)
