// Package cel provides a CEL-based guard rule evaluator.
package cel

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/cel-go/cel"

	"github.com/chaingate/chaingate/internal/domain/policy"
	"github.com/chaingate/chaingate/internal/domain/security"
)

// maxExpressionLength is the maximum allowed length for rule conditions.
const maxExpressionLength = 1024

// maxCostBudget is the CEL runtime cost limit to prevent cost-exhaustion.
const maxCostBudget = 100_000

// maxNestingDepth is the maximum parenthesis/bracket nesting depth.
const maxNestingDepth = 50

// evalTimeout bounds a single rule evaluation.
const evalTimeout = 5 * time.Second

// interruptCheckFreq is how often (in comprehension iterations) context
// cancellation is checked.
const interruptCheckFreq = 100

// compiledRule pairs a guard rule with its compiled program.
type compiledRule struct {
	rule policy.GuardRule
	prg  cel.Program
}

// Evaluator compiles guard rules once and evaluates them per query.
// Implements security.GuardEvaluator.
type Evaluator struct {
	env   *cel.Env
	rules []compiledRule
}

// NewGuardEnvironment creates a CEL environment exposing the query
// facts as variables.
func NewGuardEnvironment() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("query", cel.StringType),
		cel.Variable("length", cel.IntType),
		cel.Variable("tables", cel.ListType(cel.StringType)),
		cel.Variable("has_limit", cel.BoolType),
		cel.Variable("access_level", cel.StringType),
	)
}

// NewEvaluator compiles the given rules into an evaluator.
// Every rule must compile; a single bad rule fails startup rather
// than silently weakening the guard.
func NewEvaluator(rules []policy.GuardRule) (*Evaluator, error) {
	env, err := NewGuardEnvironment()
	if err != nil {
		return nil, fmt.Errorf("failed to create guard environment: %w", err)
	}

	e := &Evaluator{env: env, rules: make([]compiledRule, 0, len(rules))}
	for _, rule := range rules {
		if err := e.ValidateExpression(rule.Condition); err != nil {
			return nil, fmt.Errorf("guard rule %q: %w", rule.Name, err)
		}
		prg, err := e.Compile(rule.Condition)
		if err != nil {
			return nil, fmt.Errorf("guard rule %q: %w", rule.Name, err)
		}
		e.rules = append(e.rules, compiledRule{rule: rule, prg: prg})
	}
	return e, nil
}

// Compile parses and type-checks a condition, returning a compiled program.
func (e *Evaluator) Compile(expression string) (cel.Program, error) {
	ast, issues := e.env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compilation failed: %w", issues.Err())
	}

	prg, err := e.env.Program(ast,
		cel.EvalOptions(cel.OptOptimize),
		cel.CostLimit(maxCostBudget),
		cel.InterruptCheckFrequency(interruptCheckFreq),
	)
	if err != nil {
		return nil, fmt.Errorf("program creation failed: %w", err)
	}

	return prg, nil
}

// validateNesting checks the expression against the nesting depth limit.
func validateNesting(expr string) error {
	var depth, maxDepth int
	for _, ch := range expr {
		switch ch {
		case '(', '[', '{':
			depth++
			if depth > maxDepth {
				maxDepth = depth
			}
		case ')', ']', '}':
			depth--
		}
	}
	if maxDepth > maxNestingDepth {
		return fmt.Errorf("expression nesting too deep: %d levels (max %d)", maxDepth, maxNestingDepth)
	}
	return nil
}

// ValidateExpression checks that a rule condition is syntactically
// valid and within the safety limits.
func (e *Evaluator) ValidateExpression(expr string) error {
	if len(expr) > maxExpressionLength {
		return fmt.Errorf("expression too long: %d characters (max %d)", len(expr), maxExpressionLength)
	}

	if expr == "" {
		return errors.New("expression is empty")
	}

	if err := validateNesting(expr); err != nil {
		return err
	}

	if _, err := e.Compile(expr); err != nil {
		return fmt.Errorf("invalid CEL expression: %w", err)
	}

	return nil
}

// Evaluate runs every compiled rule against the query facts and
// returns a finding per matching rule. A rule that errors at runtime
// is skipped so it cannot suppress findings from healthy rules; the
// per-rule errors come back joined alongside whatever was collected.
// Context cancellation aborts the remaining rules.
func (e *Evaluator) Evaluate(ctx context.Context, facts security.QueryFacts) ([]security.GuardFinding, error) {
	activation := map[string]any{
		"query":        facts.Query,
		"length":       facts.Length,
		"tables":       facts.Tables,
		"has_limit":    facts.HasLimit,
		"access_level": facts.AccessLevel,
	}

	var findings []security.GuardFinding
	var errs []error
	for _, cr := range e.rules {
		evalCtx, cancel := context.WithTimeout(ctx, evalTimeout)
		result, _, err := cr.prg.ContextEval(evalCtx, activation)
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return findings, ctx.Err()
			}
			errs = append(errs, fmt.Errorf("guard rule %q evaluation failed: %w", cr.rule.Name, err))
			continue
		}

		matched, ok := result.Value().(bool)
		if !ok {
			errs = append(errs, fmt.Errorf("guard rule %q did not return a boolean, got %T", cr.rule.Name, result.Value()))
			continue
		}
		if matched {
			findings = append(findings, security.GuardFinding{
				RuleName: cr.rule.Name,
				Action:   cr.rule.Action,
				Message:  cr.rule.Message,
			})
		}
	}
	return findings, errors.Join(errs...)
}

// Compile-time interface verification.
var _ security.GuardEvaluator = (*Evaluator)(nil)
