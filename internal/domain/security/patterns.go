package security

import (
	"regexp"
	"strings"
)

// Pattern is one compiled detection rule.
// The library is a data-driven table so rules can be tested and
// extended without touching the validator's control flow.
type Pattern struct {
	// Name identifies the rule in violation context and tests.
	Name string
	// Re is the compiled expression, matched case-insensitively.
	Re *regexp.Regexp
}

// injectionPatterns screen candidates for destructive operations,
// execution functions, encoded payloads, and comment-hiding tricks.
// Any match is a critical injection_attempt.
var injectionPatterns = []Pattern{
	{"union-select", regexp.MustCompile(`(?i)union\s+(all\s+)?select`)},
	{"exec-call", regexp.MustCompile(`(?i)(exec|execute)\s*\(`)},
	{"system-proc", regexp.MustCompile(`(?i)\b(sp_|xp_|fn_)\w+`)},
	{"time-attack", regexp.MustCompile(`(?i)(waitfor\s+delay|benchmark\s*\(|sleep\s*\(\s*\d+\s*\)|pg_sleep\s*\(\s*\d+\s*\))`)},
	{"file-access", regexp.MustCompile(`(?i)(load_file\s*\(|into\s+outfile)`)},
	{"server-vars", regexp.MustCompile(`(?i)(@@version|@@servername)`)},
	{"catalog-probe", regexp.MustCompile(`(?i)(information_schema|sys\.)`)},
	{"script-scheme", regexp.MustCompile(`(?i)(script\s*:|javascript\s*:)`)},
	{"markup-inject", regexp.MustCompile(`(?i)(<script|<iframe|<object)`)},
	{"drop-truncate", regexp.MustCompile(`(?i)(drop\s+table|truncate\s+table)`)},
	{"write-stmt", regexp.MustCompile(`(?i)(insert\s+into|update\s+\w+\s+set|delete\s+from)`)},
	{"stacked-stmt", regexp.MustCompile(`;\s*\w+\s`)},
	{"hex-literal", regexp.MustCompile(`(?i)0x[0-9a-f]{4,}`)},
	{"char-encode", regexp.MustCompile(`(?i)char\s*\(\s*\d+\s*\)`)},
	{"url-encode", regexp.MustCompile(`(?i)%[0-9a-f]{2}`)},
	{"comment-assign", regexp.MustCompile(`(?i)--\s*\w+\s*=`)},
	{"comment-hide", regexp.MustCompile(`(?i)/\*.*?(union|select|drop).*?\*/`)},
}

// questionPatterns screen the raw question text before it reaches the
// prompt builder. Matching input is rejected outright.
var questionPatterns = []Pattern{
	{"xss-script", regexp.MustCompile(`(?i)<script[^>]*>`)},
	{"xss-handler", regexp.MustCompile(`(?i)\bon\w+\s*=`)},
	{"xss-embed", regexp.MustCompile(`(?i)<(iframe|object|embed)[^>]*>`)},
	{"inline-drop", regexp.MustCompile(`(?i)';\s*(drop\s+table|delete\s+from|insert\s+into|update\s+\w+\s+set)`)},
	{"tautology", regexp.MustCompile(`(?i)'\s*or\s*'[^']*'\s*=\s*'`)},
}

// tableRefPattern extracts referenced table names lexically, after a
// FROM or JOIN keyword. No grammar parsing happens here.
var tableRefPattern = regexp.MustCompile(`(?i)(?:from|join)\s+([a-zA-Z_][a-zA-Z0-9_]*)`)

// limitPattern detects a row-limiting clause.
var limitPattern = regexp.MustCompile(`(?i)\blimit\s+\d+`)

// ScanInjection returns the name of the first matching injection
// pattern, or "" when the candidate is clean. First match wins so one
// candidate yields at most one injection violation.
func ScanInjection(candidate string) string {
	for _, p := range injectionPatterns {
		if p.Re.MatchString(candidate) {
			return p.Name
		}
	}
	return ""
}

// ValidQuestion reports whether raw question text passes input
// screening. Empty or all-whitespace input is invalid.
func ValidQuestion(input string) bool {
	if strings.TrimSpace(input) == "" {
		return false
	}
	for _, p := range questionPatterns {
		if p.Re.MatchString(input) {
			return false
		}
	}
	return true
}

// ExtractTables returns the lowercased table names referenced by the
// candidate, in order of first appearance, without duplicates.
func ExtractTables(candidate string) []string {
	matches := tableRefPattern.FindAllStringSubmatch(candidate, -1)
	seen := make(map[string]bool, len(matches))
	var tables []string
	for _, m := range matches {
		name := strings.ToLower(m[1])
		if !seen[name] {
			seen[name] = true
			tables = append(tables, name)
		}
	}
	return tables
}

// HasLimitClause reports whether the candidate carries a LIMIT clause.
func HasLimitClause(candidate string) bool {
	return limitPattern.MatchString(candidate)
}

// StatementVerb returns the lowercased first word of the candidate.
// A leading WITH is treated as select-equivalent, since common table
// expressions are read-only here.
func StatementVerb(candidate string) string {
	fields := strings.Fields(strings.TrimSpace(candidate))
	if len(fields) == 0 {
		return ""
	}
	verb := strings.ToLower(fields[0])
	if verb == "with" {
		return "select"
	}
	return verb
}
