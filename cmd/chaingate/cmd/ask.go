package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/chaingate/chaingate/internal/adapter/outbound/cel"
	"github.com/chaingate/chaingate/internal/adapter/outbound/groq"
	"github.com/chaingate/chaingate/internal/adapter/outbound/memory"
	"github.com/chaingate/chaingate/internal/adapter/outbound/sqlite"
	"github.com/chaingate/chaingate/internal/config"
	"github.com/chaingate/chaingate/internal/domain/auth"
	"github.com/chaingate/chaingate/internal/domain/prompt"
	"github.com/chaingate/chaingate/internal/domain/security"
	"github.com/chaingate/chaingate/internal/domain/session"
	"github.com/chaingate/chaingate/internal/service"
)

var askLevel string

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a single question from the command line",
	Long: `Run one question through the pipeline and print the result as JSON.

An ephemeral session is created at the given access level, the question
is answered, and the process exits. Useful for smoke testing a config
and database without starting the server.

Examples:
  chaingate ask "which chains failed today?"
  chaingate ask --level admin "show error messages for PC_DAILY_LOAD"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVar(&askLevel, "level", "analyst", "access level for the ephemeral session (guest, user, analyst, admin, system)")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	level, err := auth.ParseLevel(askLevel)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Quiet by default; the JSON result is the output.
	logLevel := slog.LevelWarn
	if cfg.DevMode {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	executor, err := sqlite.Open(cfg.Database.Path, logger)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = executor.Close() }()

	completer := groq.NewClient(groq.Config{
		APIKey:      cfg.Completion.APIKey,
		BaseURL:     cfg.Completion.BaseURL,
		Model:       cfg.Completion.Model,
		MaxTokens:   cfg.Completion.MaxTokens,
		Temperature: cfg.Completion.Temperature,
		Timeout:     cfg.CompletionTimeout(),
	}, logger)

	var guard security.GuardEvaluator
	if cfg.GuardRulesFile != "" {
		rules, err := config.LoadGuardRules(cfg.GuardRulesFile)
		if err != nil {
			return fmt.Errorf("failed to load guard rules: %w", err)
		}
		evaluator, err := cel.NewEvaluator(rules)
		if err != nil {
			return fmt.Errorf("failed to compile guard rules: %w", err)
		}
		guard = evaluator
	}

	// One-shot run: in-memory collaborators, no async audit writer.
	auditLog := memory.NewAuditStore()
	sessionService := session.NewSessionService(memory.NewSessionStore(), session.Config{
		Timeout: cfg.SessionTimeout(),
	})
	validator := security.NewValidator(memory.NewRateLimiter(), auditLog, guard, security.ValidatorConfig{
		Window: cfg.RateWindow(),
	}, logger)
	builder := prompt.NewBuilder(prompt.Config{
		FullCeiling:    cfg.Pipeline.FullPromptCeiling,
		CompactCeiling: cfg.Pipeline.CompactPromptCeiling,
	})
	pipeline := service.NewPipeline(sessionService, validator, builder, completer, executor, auditLog,
		service.PipelineConfig{ConfidenceThreshold: cfg.Pipeline.ConfidenceThreshold}, logger)

	sess, err := sessionService.Create(ctx, &auth.Identity{
		ID:        "cli",
		Name:      "CLI",
		Level:     level,
		CreatedAt: time.Now().UTC(),
	}, "cli")
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}

	result, err := pipeline.Ask(ctx, sess.ID, strings.Join(args, " "))
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}
