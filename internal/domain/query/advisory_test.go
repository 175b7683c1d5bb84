package query

import (
	"strings"
	"testing"
)

func TestChainNameAdvisories(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		question string
		want     int
		contains string
	}{
		{
			name:     "conforming chain id",
			question: "did PC_DAILY_LOAD finish today",
			want:     0,
		},
		{
			name:     "customer prefix is valid",
			question: "show runs of zpc_sales_delta",
			want:     0,
		},
		{
			name:     "unknown prefix",
			question: "what happened to XPC_LEGACY_LOAD yesterday",
			want:     1,
			contains: "XPC_LEGACY_LOAD",
		},
		{
			name:     "over-length chain id",
			question: "status of pc_" + strings.Repeat("x", 30),
			want:     1,
			contains: "maximum length",
		},
		{
			name:     "no chain reference",
			question: "how many chains failed today",
			want:     0,
		},
		{
			name:     "duplicate mentions reported once",
			question: "compare XPC_A with XPC_A again",
			want:     1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ChainNameAdvisories(tt.question)
			if len(got) != tt.want {
				t.Fatalf("ChainNameAdvisories(%q) = %v, want %d advisories", tt.question, got, tt.want)
			}
			if tt.contains != "" && !strings.Contains(got[0], tt.contains) {
				t.Errorf("advisory %q does not mention %q", got[0], tt.contains)
			}
		})
	}
}
