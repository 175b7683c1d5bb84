package query

import "strings"

// Score estimates confidence in a candidate for a question.
// Heuristic alignment of question keywords with referenced resources;
// the only contract is monotonic sanity and staying inside [0, 1].
func Score(candidate, question string) float64 {
	if strings.Contains(strings.ToLower(candidate), "error") {
		return 0.1
	}

	confidence := 0.5

	upper := strings.ToUpper(candidate)
	lower := strings.ToLower(question)

	if strings.HasPrefix(upper, "SELECT") || strings.HasPrefix(upper, "WITH") {
		confidence += 0.2
	}
	if strings.Contains(lower, "status") &&
		(strings.Contains(upper, "STATUS_OF_PROCESS") || strings.Contains(upper, "VW_LATEST_CHAIN_RUNS")) {
		confidence += 0.2
	}
	if strings.Contains(lower, "failed") && strings.Contains(upper, "FAILED") {
		confidence += 0.15
	}
	if strings.Contains(lower, "success rate") && strings.Contains(upper, "VW_CHAIN_SUMMARY") {
		confidence += 0.2
	}
	if (strings.Contains(lower, "pc_") || strings.Contains(lower, "chain_")) && strings.Contains(upper, "WHERE") {
		confidence += 0.1
	}
	if len(candidate) < 30 {
		confidence -= 0.2
	}

	if confidence < 0 {
		return 0
	}
	if confidence > 1 {
		return 1
	}
	return confidence
}
