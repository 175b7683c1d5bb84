package policy

import "github.com/chaingate/chaingate/internal/domain/auth"

// HighVolumeRowThreshold is the row cap above which the missing-LIMIT
// nudge no longer applies.
const HighVolumeRowThreshold = 10000

// Monitoring views exposed to interactive users. Raw RSPC* tables are
// reserved for analyst and above.
const (
	ViewLatestChainRuns = "vw_latest_chain_runs"
	ViewChainSummary    = "vw_chain_summary"
	ViewTodaysActivity  = "vw_todays_activity"
	TableChain          = "rspcchain"
	TableLogChain       = "rspclogchain"
	TableProcessLog     = "rspcprocesslog"
	TableVariant        = "rspcvariant"
)

// table is the exhaustive access policy table, one entry per level.
// Enumerated as explicit structs so permission checks are compile-time
// checkable; there is no open-ended configuration surface here.
var table = map[auth.AccessLevel]AccessPolicy{
	auth.LevelGuest: {
		Level:             auth.LevelGuest,
		Tables:            []string{ViewChainSummary},
		Operations:        []string{"select"},
		MaxRows:           100,
		RequestsPerWindow: 10,
	},
	auth.LevelUser: {
		Level:             auth.LevelUser,
		Tables:            []string{ViewLatestChainRuns, ViewChainSummary, ViewTodaysActivity},
		Operations:        []string{"select"},
		MaxRows:           1000,
		RequestsPerWindow: 30,
	},
	auth.LevelAnalyst: {
		Level: auth.LevelAnalyst,
		Tables: []string{
			ViewLatestChainRuns, ViewChainSummary, ViewTodaysActivity,
			TableChain, TableLogChain,
		},
		Operations:        []string{"select"},
		MaxRows:           5000,
		RequestsPerWindow: 60,
	},
	auth.LevelAdmin: {
		Level: auth.LevelAdmin,
		Tables: []string{
			ViewLatestChainRuns, ViewChainSummary, ViewTodaysActivity,
			TableChain, TableLogChain, TableProcessLog, TableVariant,
		},
		Operations:        []string{"select"},
		MaxRows:           10000,
		RequestsPerWindow: 120,
	},
	auth.LevelSystem: {
		Level: auth.LevelSystem,
		Tables: []string{
			ViewLatestChainRuns, ViewChainSummary, ViewTodaysActivity,
			TableChain, TableLogChain, TableProcessLog, TableVariant,
		},
		Operations:        []string{"select"},
		MaxRows:           0, // unbounded
		RequestsPerWindow: 600,
	},
}

// For returns the access policy for the given level.
// Unknown levels fall back to the guest policy.
func For(level auth.AccessLevel) AccessPolicy {
	if p, ok := table[level]; ok {
		return p
	}
	return table[auth.LevelGuest]
}
