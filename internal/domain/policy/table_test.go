package policy

import (
	"testing"

	"github.com/chaingate/chaingate/internal/domain/auth"
)

func TestTableCoversAllLevels(t *testing.T) {
	t.Parallel()

	for _, lvl := range auth.AllLevels {
		p := For(lvl)
		if p.Level != lvl {
			t.Errorf("For(%s).Level = %s", lvl, p.Level)
		}
		if len(p.Tables) == 0 {
			t.Errorf("For(%s) has empty table allow-list", lvl)
		}
		if !p.AllowsOperation("select") {
			t.Errorf("For(%s) does not allow select", lvl)
		}
		if p.AllowsOperation("insert") {
			t.Errorf("For(%s) allows insert", lvl)
		}
	}
}

func TestTablePrivilegeIsMonotonic(t *testing.T) {
	t.Parallel()

	// Every table visible to a level must be visible to the next level up.
	for i := 0; i < len(auth.AllLevels)-1; i++ {
		lower := For(auth.AllLevels[i])
		higher := For(auth.AllLevels[i+1])
		for _, tbl := range lower.Tables {
			if !higher.AllowsTable(tbl) {
				t.Errorf("%s allows %q but %s does not", lower.Level, tbl, higher.Level)
			}
		}
	}
}

func TestGuestPolicy(t *testing.T) {
	t.Parallel()

	p := For(auth.LevelGuest)
	if !p.AllowsTable(ViewChainSummary) {
		t.Error("guest should see the summary view")
	}
	if p.AllowsTable(ViewLatestChainRuns) {
		t.Error("guest should not see latest chain runs")
	}
	if p.MaxRows != 100 {
		t.Errorf("guest MaxRows = %d, want 100", p.MaxRows)
	}
	if p.RequestsPerWindow != 10 {
		t.Errorf("guest RequestsPerWindow = %d, want 10", p.RequestsPerWindow)
	}
}

func TestForUnknownLevelFallsBackToGuest(t *testing.T) {
	t.Parallel()

	p := For(auth.AccessLevel("intruder"))
	if p.Level != auth.LevelGuest {
		t.Errorf("unknown level resolved to %s, want guest", p.Level)
	}
}
