// Package policy contains the access policy table and guard-rule types.
package policy

import (
	"time"

	"github.com/chaingate/chaingate/internal/domain/auth"
)

// AccessPolicy is the immutable permission record for one access level.
// Built at process start; never mutated.
type AccessPolicy struct {
	// Level is the access level this policy applies to.
	Level auth.AccessLevel
	// Tables is the allow-list of warehouse tables and views.
	Tables []string
	// Operations is the allow-list of statement verbs. Read-only in
	// this system, so always {"select"}.
	Operations []string
	// MaxRows caps the number of rows an execution may return.
	// Zero means unbounded.
	MaxRows int
	// RequestsPerWindow is the rate limit within RateWindow.
	RequestsPerWindow int
	// MaskedColumns lists column names always masked in results.
	MaskedColumns []string
}

// AllowsTable reports whether the policy permits querying the named
// table or view. Comparison is case-insensitive via lowercased names.
func (p AccessPolicy) AllowsTable(name string) bool {
	for _, t := range p.Tables {
		if t == name {
			return true
		}
	}
	return false
}

// AllowsOperation reports whether the policy permits the statement verb.
func (p AccessPolicy) AllowsOperation(verb string) bool {
	for _, op := range p.Operations {
		if op == verb {
			return true
		}
	}
	return false
}

// GuardAction is the effect of a matching guard rule.
type GuardAction string

const (
	// GuardDeny blocks the candidate query (high severity violation).
	GuardDeny GuardAction = "deny"
	// GuardFlag records an advisory violation without blocking.
	GuardFlag GuardAction = "flag"
)

// GuardRule is an admin-defined screening rule evaluated against a
// candidate query's lexical attributes. Conditions are CEL expressions
// over: query (string), length (int), tables (list of string),
// has_limit (bool), access_level (string).
type GuardRule struct {
	// Name identifies the rule in violations and audit records.
	Name string `yaml:"name"`
	// Condition is the CEL expression; the rule matches when it
	// evaluates to true.
	Condition string `yaml:"condition"`
	// Action is deny or flag.
	Action GuardAction `yaml:"action"`
	// Message is the human-readable violation message.
	Message string `yaml:"message"`
	// CreatedAt is when the rule was loaded (UTC).
	CreatedAt time.Time `yaml:"-"`
}
