package security

import (
	"reflect"
	"testing"
)

func TestScanInjection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		candidate string
		pattern   string
	}{
		{"clean select", "SELECT chain_id FROM vw_chain_summary LIMIT 10;", ""},
		{"union select", "SELECT a FROM t UNION SELECT password FROM users", "union-select"},
		{"union all select", "SELECT a FROM t UNION ALL SELECT b FROM u", "union-select"},
		{"exec call", "exec(@cmd)", "exec-call"},
		{"system proc", "EXEC xp_cmdshell 'dir'", "system-proc"},
		{"time attack sleep", "SELECT sleep(10)", "time-attack"},
		{"time attack waitfor", "WAITFOR DELAY '0:0:5'", "time-attack"},
		{"file access", "SELECT load_file('/etc/passwd')", "file-access"},
		{"server vars", "SELECT @@version", "server-vars"},
		{"catalog probe", "SELECT * FROM information_schema.tables", "catalog-probe"},
		{"drop table", "DROP TABLE rspcchain", "drop-truncate"},
		{"insert", "INSERT INTO rspcchain VALUES (1)", "write-stmt"},
		{"delete", "DELETE FROM rspclogchain", "write-stmt"},
		{"stacked statement", "SELECT 1; DROP TABLE x", "stacked-stmt"},
		{"hex literal", "SELECT 0xdeadbeef", "hex-literal"},
		{"char encode", "SELECT char(65)", "char-encode"},
		{"url encode", "SELECT %27 FROM t", "url-encode"},
		{"comment hide", "SELECT /* union select */ 1", "comment-hide"},
		{"trailing semicolon is not stacked", "SELECT 1 FROM vw_chain_summary;", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ScanInjection(tt.candidate); got != tt.pattern {
				t.Errorf("ScanInjection(%q) = %q, want %q", tt.candidate, got, tt.pattern)
			}
		})
	}
}

func TestScanInjectionFirstMatchWins(t *testing.T) {
	t.Parallel()

	// Matches union-select, drop-truncate, and stacked-stmt; only the
	// first pattern in the library is reported.
	candidate := "SELECT 1 UNION SELECT 2; DROP TABLE users "
	if got := ScanInjection(candidate); got != "union-select" {
		t.Errorf("ScanInjection = %q, want union-select", got)
	}
}

func TestValidQuestion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{"plain question", "which chains failed today?", true},
		{"empty", "", false},
		{"whitespace only", "   \t\n", false},
		{"script tag", "show <script>alert(1)</script>", false},
		{"event handler", "img onerror=alert(1)", false},
		{"iframe", "<iframe src=x>", false},
		{"inline drop", "x'; drop table rspcchain", false},
		{"tautology", "name = '' or '1'='1'", false},
		{"mentions drop in prose", "why did the nightly load drop in throughput?", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ValidQuestion(tt.input); got != tt.valid {
				t.Errorf("ValidQuestion(%q) = %v, want %v", tt.input, got, tt.valid)
			}
		})
	}
}

func TestExtractTables(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		candidate string
		want      []string
	}{
		{
			"single table",
			"SELECT * FROM vw_chain_summary",
			[]string{"vw_chain_summary"},
		},
		{
			"join lowercased and deduped",
			"SELECT * FROM RSPCCHAIN c JOIN rspclogchain l ON c.chain_id = l.chain_id JOIN rspcchain x ON 1=1",
			[]string{"rspcchain", "rspclogchain"},
		},
		{
			"no tables",
			"SELECT 1",
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ExtractTables(tt.candidate); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExtractTables(%q) = %v, want %v", tt.candidate, got, tt.want)
			}
		})
	}
}

func TestHasLimitClause(t *testing.T) {
	t.Parallel()

	if !HasLimitClause("SELECT * FROM t LIMIT 100") {
		t.Error("expected LIMIT clause to be detected")
	}
	if HasLimitClause("SELECT * FROM t") {
		t.Error("expected no LIMIT clause")
	}
	if HasLimitClause("SELECT unlimited FROM t") {
		t.Error("word containing 'limit' must not match")
	}
}

func TestStatementVerb(t *testing.T) {
	t.Parallel()

	tests := []struct {
		candidate string
		want      string
	}{
		{"SELECT 1", "select"},
		{"  WITH cte AS (SELECT 1) SELECT * FROM cte", "select"},
		{"DELETE FROM t", "delete"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := StatementVerb(tt.candidate); got != tt.want {
			t.Errorf("StatementVerb(%q) = %q, want %q", tt.candidate, got, tt.want)
		}
	}
}
