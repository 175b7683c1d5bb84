package security

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chaingate/chaingate/internal/domain/audit"
	"github.com/chaingate/chaingate/internal/domain/policy"
	"github.com/chaingate/chaingate/internal/domain/ratelimit"
	"github.com/chaingate/chaingate/internal/domain/session"
)

// snippetLen bounds the query excerpt attached to violation context.
const snippetLen = 120

// ValidatorConfig holds tunables for the query validator.
type ValidatorConfig struct {
	// Window is the rate limit window. Default: ratelimit.DefaultWindow.
	Window time.Duration

	// ScanCacheSize bounds the injection scan cache.
	// Default: DefaultScanCacheSize.
	ScanCacheSize int
}

// Validator screens candidate queries against the injection pattern
// library, the session's access policy, configured guard rules, and
// the per-user rate limit.
//
// Checks always run to completion so the result carries every finding,
// not just the first. The decision rule: a candidate is allowed when no
// violation has blocking severity and the rate limit was not exceeded.
type Validator struct {
	limiter  ratelimit.SlidingWindow
	auditLog audit.AuditStore
	guard    GuardEvaluator // nil when no guard rules are configured
	cache    *ScanCache
	window   time.Duration
	logger   *slog.Logger
}

// NewValidator creates a query validator. The guard evaluator is
// optional; pass nil to skip guard rule evaluation.
func NewValidator(limiter ratelimit.SlidingWindow, auditLog audit.AuditStore, guard GuardEvaluator, cfg ValidatorConfig, logger *slog.Logger) *Validator {
	window := cfg.Window
	if window <= 0 {
		window = ratelimit.DefaultWindow
	}
	return &Validator{
		limiter:  limiter,
		auditLog: auditLog,
		guard:    guard,
		cache:    NewScanCache(cfg.ScanCacheSize),
		window:   window,
		logger:   logger,
	}
}

// Validate screens one candidate query for the given session.
// The returned error covers infrastructure failures only; policy
// denials are reported through the Result.
func (v *Validator) Validate(ctx context.Context, candidate string, sess *session.Session) (Result, error) {
	var violations []Violation

	if viol, found := v.checkInjection(candidate); found {
		violations = append(violations, viol)
	}

	pol := policy.For(sess.Level)
	violations = append(violations, v.checkPermissions(candidate, pol)...)

	if v.guard != nil {
		violations = append(violations, v.checkGuardRules(ctx, candidate, sess)...)
	}

	rateLimited, rlViol, err := v.checkRateLimit(ctx, sess, pol)
	if err != nil {
		return Result{}, fmt.Errorf("rate limit check: %w", err)
	}
	if rateLimited {
		violations = append(violations, rlViol)
	}

	result := Result{
		Violations:  violations,
		RiskScore:   RiskScore(violations),
		RateLimited: rateLimited,
	}
	result.Allowed = !rateLimited
	for _, viol := range violations {
		if viol.Severity.Blocks() {
			result.Allowed = false
		}
	}

	v.record(ctx, sess, result)
	return result, nil
}

// checkInjection scans the candidate against the injection pattern
// library, consulting the LRU cache first. The violation is
// materialized fresh on every call so IDs and timestamps stay unique.
func (v *Validator) checkInjection(candidate string) (Violation, bool) {
	key := v.cache.Key(candidate)
	pattern, hit := v.cache.Get(key)
	if !hit {
		pattern = ScanInjection(candidate)
		v.cache.Put(key, pattern)
	}
	if pattern == "" {
		return Violation{}, false
	}
	return NewViolation(KindInjectionAttempt, SeverityCritical,
		fmt.Sprintf("query matches injection pattern %q", pattern),
		map[string]interface{}{
			"pattern": pattern,
			"snippet": snippet(candidate),
		}), true
}

// checkPermissions enforces the session's access policy: table
// allow-list, permitted statement verbs, and the row-limit nudge for
// capped levels.
func (v *Validator) checkPermissions(candidate string, pol policy.AccessPolicy) []Violation {
	var violations []Violation

	for _, table := range ExtractTables(candidate) {
		if !pol.AllowsTable(table) {
			violations = append(violations, NewViolation(KindAccessDenied, SeverityHigh,
				fmt.Sprintf("access to table %q denied for level %s", table, pol.Level),
				map[string]interface{}{"table": table, "access_level": string(pol.Level)}))
		}
	}

	if verb := StatementVerb(candidate); verb != "" && !pol.AllowsOperation(verb) {
		violations = append(violations, NewViolation(KindPrivilegeEscalation, SeverityCritical,
			fmt.Sprintf("operation %q not permitted for level %s", verb, pol.Level),
			map[string]interface{}{"operation": verb, "access_level": string(pol.Level)}))
	}

	if pol.MaxRows > 0 && pol.MaxRows < policy.HighVolumeRowThreshold && !HasLimitClause(candidate) {
		violations = append(violations, NewViolation(KindSuspiciousPattern, SeverityMedium,
			fmt.Sprintf("query has no LIMIT clause; results will be capped at %d rows", pol.MaxRows),
			map[string]interface{}{"max_rows": pol.MaxRows}))
	}

	return violations
}

// checkGuardRules evaluates configured guard rules. The evaluator
// skips individual rules that error at runtime; findings it still
// returns count, and the errors are only logged. The built-in checks
// above apply regardless.
func (v *Validator) checkGuardRules(ctx context.Context, candidate string, sess *session.Session) []Violation {
	facts := NewQueryFacts(candidate, string(sess.Level))
	findings, err := v.guard.Evaluate(ctx, facts)
	if err != nil {
		v.logger.Warn("guard rule evaluation degraded", "error", err)
	}

	var violations []Violation
	for _, f := range findings {
		kind, severity := KindSuspiciousPattern, SeverityLow
		if f.Action == policy.GuardDeny {
			kind, severity = KindGuardRule, SeverityHigh
		}
		violations = append(violations, NewViolation(kind, severity, f.Message,
			map[string]interface{}{"rule": f.RuleName, "action": string(f.Action)}))
	}
	return violations
}

// checkRateLimit records this request in the session's sliding window
// and reports whether it exceeded the policy limit.
func (v *Validator) checkRateLimit(ctx context.Context, sess *session.Session, pol policy.AccessPolicy) (bool, Violation, error) {
	key := ratelimit.FormatKey(sess.UserID, sess.Origin)
	res, err := v.limiter.Allow(ctx, key, ratelimit.WindowConfig{
		Limit:  pol.RequestsPerWindow,
		Window: v.window,
	})
	if err != nil {
		return false, Violation{}, err
	}
	if res.Allowed {
		return false, Violation{}, nil
	}
	return true, NewViolation(KindRateLimitExceeded, SeverityMedium,
		fmt.Sprintf("rate limit of %d per %s exceeded", pol.RequestsPerWindow, v.window),
		map[string]interface{}{
			"limit":       pol.RequestsPerWindow,
			"count":       res.Count,
			"retry_after": res.RetryAfter.String(),
		}), nil
}

// record appends violation and decision records to the audit trail and
// surfaces blocking findings in the log immediately.
func (v *Validator) record(ctx context.Context, sess *session.Session, result Result) {
	records := make([]audit.Record, 0, len(result.Violations)+1)
	for _, viol := range result.Violations {
		records = append(records, audit.Record{
			Timestamp:   viol.Timestamp,
			EventType:   audit.EventViolation,
			Kind:        string(viol.Kind),
			Severity:    string(viol.Severity),
			Message:     viol.Message,
			ViolationID: viol.ID,
			UserID:      sess.UserID,
			SessionID:   sess.ID,
			Origin:      sess.Origin,
			Context:     viol.Context,
		})

		if viol.Severity.Blocks() {
			v.logger.Error("blocking security violation",
				"kind", viol.Kind,
				"severity", viol.Severity,
				"violation_id", viol.ID,
				"user_id", sess.UserID,
				"message", viol.Message)
		}
	}

	decision := audit.DecisionAllow
	if !result.Allowed {
		decision = audit.DecisionDeny
	}
	records = append(records, audit.Record{
		Timestamp: time.Now().UTC(),
		EventType: audit.EventQueryDecision,
		Decision:  decision,
		Message:   fmt.Sprintf("query %s with %d violation(s), risk %.2f", decision, len(result.Violations), result.RiskScore),
		UserID:    sess.UserID,
		SessionID: sess.ID,
		Origin:    sess.Origin,
		Context:   map[string]interface{}{"risk_score": result.RiskScore},
	})

	if err := v.auditLog.Append(ctx, records...); err != nil {
		v.logger.Warn("audit append failed", "error", err)
	}
}

func snippet(candidate string) string {
	if len(candidate) <= snippetLen {
		return candidate
	}
	return candidate[:snippetLen]
}
