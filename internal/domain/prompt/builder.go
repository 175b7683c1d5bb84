package prompt

import (
	"fmt"
	"strings"

	"github.com/chaingate/chaingate/internal/domain/query"
)

// Tier identifies the size tier a prompt was built at.
type Tier string

const (
	// TierFull carries the full schema, three examples, and rules.
	TierFull Tier = "full"
	// TierCompact carries the abbreviated schema and one example.
	TierCompact Tier = "compact"
	// TierUltra is the last resort: resource list and question only.
	// Never size-checked.
	TierUltra Tier = "ultra"
)

// charsPerToken is the estimation ratio. Deliberately conservative;
// the completion service enforces a hard input ceiling and silent
// truncation corrupts the few-shot structure.
const charsPerToken = 3

const (
	// DefaultFullCeiling is the token budget for the full tier.
	DefaultFullCeiling = 300
	// DefaultCompactCeiling is the looser budget for the compact tier.
	DefaultCompactCeiling = 400
)

// maxHistoryExchanges bounds how much conversation context is rendered.
const maxHistoryExchanges = 3

// Exchange is one prior question/query pair from the conversation.
type Exchange struct {
	Question string
	Query    string
}

// Prompt is the built text plus the tier it was built at.
type Prompt struct {
	Text string
	Tier Tier
}

// Config holds the tier ceilings. Zero values take the defaults.
type Config struct {
	FullCeiling    int
	CompactCeiling int
}

// Builder constructs tiered prompts under a token budget.
type Builder struct {
	fullCeiling    int
	compactCeiling int
}

// NewBuilder creates a prompt builder.
func NewBuilder(cfg Config) *Builder {
	if cfg.FullCeiling <= 0 {
		cfg.FullCeiling = DefaultFullCeiling
	}
	if cfg.CompactCeiling <= 0 {
		cfg.CompactCeiling = DefaultCompactCeiling
	}
	return &Builder{fullCeiling: cfg.FullCeiling, compactCeiling: cfg.CompactCeiling}
}

// EstimateTokens estimates the token cost of a prompt text.
func EstimateTokens(text string) int {
	return len(text) / charsPerToken
}

// Build constructs the smallest prompt tier that fits the budget.
// The full tier is tried first; over the ceiling it degrades to
// compact, and over the compact ceiling to ultra unconditionally.
// History is rendered only on the full and compact tiers.
func (b *Builder) Build(question string, class query.Classification, history []Exchange) Prompt {
	full := b.buildFull(question, class, history)
	if EstimateTokens(full) <= b.fullCeiling {
		return Prompt{Text: full, Tier: TierFull}
	}

	compact := b.buildCompact(question, class, history)
	if EstimateTokens(compact) <= b.compactCeiling {
		return Prompt{Text: compact, Tier: TierCompact}
	}

	return Prompt{Text: b.buildUltra(question), Tier: TierUltra}
}

func (b *Builder) buildFull(question string, class query.Classification, history []Exchange) string {
	var sb strings.Builder
	sb.WriteString("You are an expert SQL generator for process chain monitoring. Generate ONLY valid SQLite SQL queries.\n\n")
	sb.WriteString(fullSchema)
	sb.WriteString("\n\n=== EXAMPLES ===\n\n")

	for i, ex := range relevantExamples(class, 3) {
		fmt.Fprintf(&sb, "Example %d:\nQuestion: %s\nSQL: %s\n\n", i+1, ex.Question, ex.Query)
	}

	writeHistory(&sb, history)

	sb.WriteString("=== YOUR TASK ===\n")
	fmt.Fprintf(&sb, "Question: %s\n\n", question)
	sb.WriteString("REQUIREMENTS:\n")
	sb.WriteString("- Generate ONLY valid SQLite SQL\n")
	sb.WriteString("- Use the exact column names from the schema\n")
	sb.WriteString("- Always include a semicolon at the end\n")
	sb.WriteString("- For latest status, use VW_LATEST_CHAIN_RUNS with rn = 1\n\n")
	sb.WriteString("SQL:")
	return sb.String()
}

func (b *Builder) buildCompact(question string, class query.Classification, history []Exchange) string {
	var sb strings.Builder
	sb.WriteString("Generate SQLite SQL for process chain monitoring.\n\n")
	sb.WriteString(compactSchema)
	sb.WriteString("\n\n")

	if examples := relevantExamples(class, 1); len(examples) > 0 {
		fmt.Fprintf(&sb, "Example:\nQ: %s\nSQL: %s\n\n", examples[0].Question, examples[0].Query)
	}

	writeHistory(&sb, history)

	fmt.Fprintf(&sb, "Q: %s\nSQL:", question)
	return sb.String()
}

func (b *Builder) buildUltra(question string) string {
	return fmt.Sprintf("SQL generator for process chains\n%s\nQ: %s\nSQL:", ultraSchema, question)
}

// writeHistory renders at most the last maxHistoryExchanges exchanges
// as context lines before the task section.
func writeHistory(sb *strings.Builder, history []Exchange) {
	if len(history) == 0 {
		return
	}
	if len(history) > maxHistoryExchanges {
		history = history[len(history)-maxHistoryExchanges:]
	}
	sb.WriteString("=== CONVERSATION CONTEXT ===\n")
	for _, ex := range history {
		fmt.Fprintf(sb, "Previous question: %s\nPrevious SQL: %s\n", ex.Question, ex.Query)
	}
	sb.WriteString("\n")
}
