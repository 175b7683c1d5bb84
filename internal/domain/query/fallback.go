package query

import "strings"

// Fallback is a pre-approved canned query substituted when generation
// is rejected or low-confidence. The set is closed and validated
// offline; fallback queries bypass the security validator.
type Fallback struct {
	// Name identifies the matched rule for audit and result annotation.
	Name string
	// Query is the canned statement.
	Query string
}

// fallbackRules map question keywords to canned queries, evaluated
// top to bottom, first match wins.
var fallbackRules = []struct {
	name     string
	keywords []string
	query    string
}{
	{
		"failed-today",
		[]string{"failed", "failure", "error", "problem"},
		"SELECT CHAIN_ID, LOG_ID, STATUS_OF_PROCESS, TIME FROM VW_TODAYS_ACTIVITY WHERE STATUS_OF_PROCESS = 'FAILED' ORDER BY TIME DESC LIMIT 50;",
	},
	{
		"performance-overview",
		[]string{"success rate", "performance", "worst", "best", "statistics", "stats"},
		"SELECT CHAIN_ID, total_runs, successful_runs, failed_runs, success_rate_percent FROM VW_CHAIN_SUMMARY ORDER BY success_rate_percent ASC LIMIT 20;",
	},
	{
		"running-chains",
		[]string{"running", "active", "executing", "in progress"},
		"SELECT CHAIN_ID, STATUS_OF_PROCESS, CURRENT_DATE, TIME FROM VW_LATEST_CHAIN_RUNS WHERE STATUS_OF_PROCESS = 'RUNNING' AND rn = 1;",
	},
	{
		"todays-activity",
		[]string{"today", "recent", "current", "now"},
		"SELECT CHAIN_ID, LOG_ID, STATUS_OF_PROCESS, TIME FROM VW_TODAYS_ACTIVITY ORDER BY TIME DESC LIMIT 100;",
	},
	{
		"waiting-chains",
		[]string{"waiting", "queued", "scheduled"},
		"SELECT CHAIN_ID, STATUS_OF_PROCESS, CURRENT_DATE, TIME FROM VW_LATEST_CHAIN_RUNS WHERE STATUS_OF_PROCESS = 'WAITING' AND rn = 1;",
	},
	{
		"successful-chains",
		[]string{"successful", "completed", "finished"},
		"SELECT CHAIN_ID, STATUS_OF_PROCESS, CURRENT_DATE, TIME FROM VW_LATEST_CHAIN_RUNS WHERE STATUS_OF_PROCESS = 'SUCCESS' AND rn = 1;",
	},
	{
		"status-overview",
		[]string{"status", "state", "overview", "summary"},
		"SELECT CHAIN_ID, STATUS_OF_PROCESS, CURRENT_DATE, TIME FROM VW_LATEST_CHAIN_RUNS WHERE rn = 1 ORDER BY CURRENT_DATE DESC, TIME DESC LIMIT 100;",
	},
}

// defaultFallback is the unconditional latest-status overview.
var defaultFallback = Fallback{
	Name:  "latest-status",
	Query: "SELECT CHAIN_ID, STATUS_OF_PROCESS, CURRENT_DATE, TIME FROM VW_LATEST_CHAIN_RUNS WHERE rn = 1 ORDER BY CURRENT_DATE DESC, TIME DESC LIMIT 100;",
}

// SelectFallback picks the canned query for a question.
// Total: the default overview applies when no keyword matches.
func SelectFallback(question string) Fallback {
	lower := strings.ToLower(question)
	for _, rule := range fallbackRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return Fallback{Name: rule.name, Query: rule.query}
			}
		}
	}
	return defaultFallback
}
