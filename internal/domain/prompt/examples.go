package prompt

import "github.com/chaingate/chaingate/internal/domain/query"

// Example is one few-shot question/query pair.
type Example struct {
	Question string
	Query    string
	Class    query.Classification
}

// fewShotExamples is the curated example bank, one or more per
// classification.
var fewShotExamples = []Example{
	{
		Question: "Show me all failed process chains",
		Query:    "SELECT CHAIN_ID, STATUS_OF_PROCESS, CURRENT_DATE, TIME FROM VW_LATEST_CHAIN_RUNS WHERE STATUS_OF_PROCESS = 'FAILED' AND rn = 1 ORDER BY CURRENT_DATE DESC, TIME DESC;",
		Class:    query.ClassStatusCheck,
	},
	{
		Question: "What is the success rate for each chain?",
		Query:    "SELECT CHAIN_ID, total_runs, successful_runs, failed_runs, success_rate_percent FROM VW_CHAIN_SUMMARY ORDER BY success_rate_percent DESC;",
		Class:    query.ClassPerformanceAnalysis,
	},
	{
		Question: "How many chains are currently running?",
		Query:    "SELECT COUNT(*) AS running_count FROM VW_LATEST_CHAIN_RUNS WHERE STATUS_OF_PROCESS = 'RUNNING' AND rn = 1;",
		Class:    query.ClassCountAggregate,
	},
	{
		Question: "Which chains failed today?",
		Query:    "SELECT CHAIN_ID, TIME, LOG_ID FROM VW_TODAYS_ACTIVITY WHERE STATUS_OF_PROCESS = 'FAILED' ORDER BY TIME DESC;",
		Class:    query.ClassTimeFilter,
	},
	{
		Question: "Show me the status of PC_SALES_DAILY",
		Query:    "SELECT CHAIN_ID, STATUS_OF_PROCESS, CURRENT_DATE, TIME, LOG_ID FROM VW_LATEST_CHAIN_RUNS WHERE CHAIN_ID = 'PC_SALES_DAILY' AND rn = 1;",
		Class:    query.ClassSpecificEntity,
	},
	{
		Question: "Which chain has the lowest success rate?",
		Query:    "SELECT CHAIN_ID, success_rate_percent, total_runs, failed_runs FROM VW_CHAIN_SUMMARY WHERE total_runs >= 3 ORDER BY success_rate_percent ASC LIMIT 1;",
		Class:    query.ClassComparison,
	},
	{
		Question: "Show recent failed process chains",
		Query:    "SELECT CHAIN_ID, CURRENT_DATE, TIME, STATUS_OF_PROCESS FROM RSPCLOGCHAIN WHERE STATUS_OF_PROCESS = 'FAILED' ORDER BY CREATED_TIMESTAMP DESC LIMIT 20;",
		Class:    query.ClassTroubleshooting,
	},
}

// relevantExamples returns up to count examples for the
// classification, same-category first, padded with others when the
// category has fewer than count.
func relevantExamples(class query.Classification, count int) []Example {
	out := make([]Example, 0, count)
	for _, ex := range fewShotExamples {
		if ex.Class == class {
			out = append(out, ex)
			if len(out) == count {
				return out
			}
		}
	}
	for _, ex := range fewShotExamples {
		if ex.Class != class {
			out = append(out, ex)
			if len(out) == count {
				return out
			}
		}
	}
	return out
}
