package security

import (
	"context"

	"github.com/chaingate/chaingate/internal/domain/policy"
)

// QueryFacts are the lexical attributes of a candidate query exposed to
// guard rules. Purely derived from the candidate and the session's
// access level; no session state leaks into rule evaluation.
type QueryFacts struct {
	// Query is the full candidate text.
	Query string
	// Length is len(Query).
	Length int
	// Tables are the lexically extracted table references, lowercased.
	Tables []string
	// HasLimit reports whether a LIMIT clause is present.
	HasLimit bool
	// AccessLevel is the session's level as a string.
	AccessLevel string
}

// NewQueryFacts derives guard-rule facts from a candidate.
func NewQueryFacts(candidate, accessLevel string) QueryFacts {
	return QueryFacts{
		Query:       candidate,
		Length:      len(candidate),
		Tables:      ExtractTables(candidate),
		HasLimit:    HasLimitClause(candidate),
		AccessLevel: accessLevel,
	}
}

// GuardFinding is one matched guard rule.
type GuardFinding struct {
	// RuleName identifies the matched rule.
	RuleName string
	// Action is deny or flag.
	Action policy.GuardAction
	// Message is the rule's violation message.
	Message string
}

// GuardEvaluator evaluates configured guard rules against query facts.
// The CEL-backed implementation lives in the cel adapter.
type GuardEvaluator interface {
	Evaluate(ctx context.Context, facts QueryFacts) ([]GuardFinding, error)
}
