package query

import "testing"

func TestScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		candidate string
		question  string
		want      float64
	}{
		{
			"aligned status query",
			"SELECT CHAIN_ID, STATUS_OF_PROCESS FROM VW_LATEST_CHAIN_RUNS WHERE rn = 1;",
			"what is the status of the chains?",
			0.9, // base + select + status alignment
		},
		{
			"failed alignment",
			"SELECT CHAIN_ID FROM VW_TODAYS_ACTIVITY WHERE STATUS_OF_PROCESS = 'FAILED';",
			"show me the failed chains",
			0.85, // base + select + failed
		},
		{
			"error text forced low",
			"SELECT 'No valid SQL found' AS error;",
			"what is the status?",
			0.1,
		},
		{
			"short candidate penalized",
			"SELECT 1 FROM t;",
			"anything",
			0.5, // base + select - short
		},
		{
			"no alignment",
			"SELECT x FROM some_table LIMIT 5;",
			"tell me about the weather",
			0.7, // base + select only
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := Score(tt.candidate, tt.question)
			if diff := got - tt.want; diff > 1e-9 || diff < -1e-9 {
				t.Errorf("Score = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScoreBounds(t *testing.T) {
	t.Parallel()

	// Maximum alignment across every increment must stay clamped.
	candidate := "SELECT CHAIN_ID, STATUS_OF_PROCESS FROM VW_LATEST_CHAIN_RUNS JOIN VW_CHAIN_SUMMARY WHERE STATUS_OF_PROCESS = 'FAILED';"
	question := "what is the status and success rate of pc_sales_daily, which failed?"
	if got := Score(candidate, question); got < 0 || got > 1 {
		t.Errorf("Score = %v, out of [0,1]", got)
	}

	if got := Score("", ""); got < 0 || got > 1 {
		t.Errorf("Score on empty input = %v, out of [0,1]", got)
	}
}

func TestScoreMonotonicAlignment(t *testing.T) {
	t.Parallel()

	question := "show the status of failed chains"
	unaligned := "SELECT x FROM unrelated_table LIMIT 5;"
	aligned := "SELECT CHAIN_ID, STATUS_OF_PROCESS FROM VW_LATEST_CHAIN_RUNS WHERE STATUS_OF_PROCESS = 'FAILED';"
	if Score(aligned, question) <= Score(unaligned, question) {
		t.Error("more alignment must score higher")
	}
}
