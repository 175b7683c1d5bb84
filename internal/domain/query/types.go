// Package query implements question classification, candidate
// extraction from completion output, confidence scoring, and fallback
// selection. Everything here is a pure function of its inputs.
package query

// Classification is the detected intent of a question.
type Classification string

const (
	// ClassStatusCheck covers current-state questions and is the
	// default when no rule matches.
	ClassStatusCheck Classification = "status_check"
	// ClassPerformanceAnalysis covers success-rate and ranking questions.
	ClassPerformanceAnalysis Classification = "performance_analysis"
	// ClassCountAggregate covers how-many and total questions.
	ClassCountAggregate Classification = "count_aggregate"
	// ClassTimeFilter covers time-window questions.
	ClassTimeFilter Classification = "time_filter"
	// ClassSpecificEntity covers questions naming a chain identifier.
	ClassSpecificEntity Classification = "specific_entity"
	// ClassComparison covers compare and superlative questions.
	ClassComparison Classification = "comparison"
	// ClassTroubleshooting covers error and failure questions.
	ClassTroubleshooting Classification = "troubleshooting"
)

// ResultSet holds the rows returned for one executed query, after the
// executor applied the policy's row cap and column masking.
type ResultSet struct {
	// Columns in result order.
	Columns []string `json:"columns"`
	// Rows as stringified cell values.
	Rows [][]string `json:"rows"`
	// Truncated is true when the row cap cut off further rows.
	Truncated bool `json:"truncated"`
}
