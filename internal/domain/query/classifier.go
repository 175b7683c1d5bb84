package query

import (
	"regexp"
	"strings"
)

// entityPattern matches process chain identifiers by naming
// convention: PC_ plus an optional Z/T/D namespace prefix.
var entityPattern = regexp.MustCompile(`(?i)\b[ztd]?pc_[a-z0-9_]+`)

// classifier rules in precedence order. The entity pattern is checked
// first and separately; a chain identifier anywhere in the question
// wins outright regardless of other keywords.
var keywordRules = []struct {
	class    Classification
	keywords []string
}{
	{ClassCountAggregate, []string{"how many", "count", "total", "number of"}},
	{ClassPerformanceAnalysis, []string{"success rate", "performance", "worst", "best", "lowest", "highest"}},
	{ClassTimeFilter, []string{"today", "yesterday", "last week", "this month", "recent"}},
	{ClassComparison, []string{"compare", "versus", "most", "least"}},
	{ClassTroubleshooting, []string{"error", "failed", "failure", "problem", "issue"}},
}

// Classify maps a question to its intent. Total: always returns a
// value, ClassStatusCheck when nothing matches.
func Classify(question string) Classification {
	if entityPattern.MatchString(question) {
		return ClassSpecificEntity
	}

	lower := strings.ToLower(question)
	for _, rule := range keywordRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.class
			}
		}
	}
	return ClassStatusCheck
}
