package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/chaingate/chaingate/internal/adapter/inbound/httpapi"
	auditout "github.com/chaingate/chaingate/internal/adapter/outbound/audit"
	"github.com/chaingate/chaingate/internal/adapter/outbound/cel"
	"github.com/chaingate/chaingate/internal/adapter/outbound/groq"
	"github.com/chaingate/chaingate/internal/adapter/outbound/memory"
	"github.com/chaingate/chaingate/internal/adapter/outbound/sqlite"
	"github.com/chaingate/chaingate/internal/config"
	"github.com/chaingate/chaingate/internal/domain/audit"
	"github.com/chaingate/chaingate/internal/domain/auth"
	"github.com/chaingate/chaingate/internal/domain/prompt"
	"github.com/chaingate/chaingate/internal/domain/security"
	"github.com/chaingate/chaingate/internal/domain/session"
	"github.com/chaingate/chaingate/internal/service"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the ChainGate HTTP API server.

The server exposes:
  POST /v1/login             Authenticate and open a session
  POST /v1/ask               Ask a natural language question
  POST /v1/logout            Close a session
  GET  /v1/security/summary  Security event summary (admin only)
  GET  /healthz              Liveness probe
  GET  /metrics              Prometheus metrics

Examples:
  # Start with config file settings
  chaingate serve

  # Development mode: debug logging, no completion API key required
  chaingate serve --dev`,
	RunE: runServe,
}

var devMode bool

func init() {
	serveCmd.Flags().BoolVar(&devMode, "dev", false, "Enable development mode (verbose logging, relaxed validation)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	// Load configuration without validation, so CLI flags can override first.
	cfg, err := config.LoadConfigRaw()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if devMode {
		cfg.DevMode = true
		cfg.SetDefaults()
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	// Signal context for graceful shutdown. stop() restores default
	// signal handling so a second Ctrl+C does a hard kill.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ctx.Done()
		stop()
	}()

	logLevel := parseLogLevel(cfg.Server.LogLevel)
	if cfg.DevMode {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))

	if configFile := config.ConfigFileUsed(); configFile != "" {
		logger.Info("loaded config", "file", configFile)
	}
	if cfg.DevMode {
		logger.Warn("development mode enabled, do not use in production")
	}

	if err := run(ctx, cfg, logger); err != nil {
		return err
	}

	logger.Info("chaingate stopped")
	return nil
}

// run wires all components together and serves until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if cfg.Tracing.Enabled {
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return fmt.Errorf("failed to create trace exporter: %w", err)
		}
		tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
		otel.SetTracerProvider(tp)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = tp.Shutdown(shutdownCtx)
		}()

		metricExporter, err := stdoutmetric.New()
		if err != nil {
			return fmt.Errorf("failed to create metric exporter: %w", err)
		}
		mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)))
		otel.SetMeterProvider(mp)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = mp.Shutdown(shutdownCtx)
		}()
		logger.Info("tracing enabled", "exporter", "stdout")
	}

	sessionStore := memory.NewSessionStoreWithConfig(cfg.SessionCleanupInterval())
	sessionStore.StartCleanup(ctx)
	defer sessionStore.Stop()

	rateLimiter := memory.NewRateLimiter()
	rateLimiter.StartCleanup(ctx)
	defer rateLimiter.Stop()

	identityStore, err := buildIdentityStore(cfg, logger)
	if err != nil {
		return err
	}

	// The in-memory store always receives a copy of every record so the
	// security summary endpoint can answer without reading files back.
	summaryStore := memory.NewAuditStore()
	sink, err := buildAuditSink(cfg, summaryStore, logger)
	if err != nil {
		return err
	}

	auditLog := service.NewAsyncAuditStore(sink, logger,
		service.WithChannelSize(cfg.Audit.ChannelSize),
		service.WithBatchSize(cfg.Audit.BatchSize),
		service.WithFlushInterval(cfg.AuditFlushInterval()),
		service.WithSendTimeout(cfg.AuditSendTimeout()),
	)
	auditLog.Start(ctx)
	defer func() { _ = auditLog.Close() }()

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
		logger.Info("guard rules loaded", "file", cfg.GuardRulesFile, "rules", len(rules))
	}

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

	sessionService := session.NewSessionService(sessionStore, session.Config{
		Timeout: cfg.SessionTimeout(),
	})
	validator := security.NewValidator(rateLimiter, auditLog, guard, security.ValidatorConfig{
		Window: cfg.RateWindow(),
	}, logger)
	builder := prompt.NewBuilder(prompt.Config{
		FullCeiling:    cfg.Pipeline.FullPromptCeiling,
		CompactCeiling: cfg.Pipeline.CompactPromptCeiling,
	})

	pipeline := service.NewPipeline(sessionService, validator, builder, completer, executor, auditLog,
		service.PipelineConfig{ConfidenceThreshold: cfg.Pipeline.ConfidenceThreshold}, logger)
	authService := service.NewAuthService(auth.NewAuthenticator(identityStore), sessionService, auditLog, logger)
	reporter := service.NewSecurityService(summaryStore)

	server := httpapi.NewServer(pipeline, authService, reporter, sessionService,
		httpapi.WithAddr(cfg.Server.HTTPAddr),
		httpapi.WithLogger(logger),
		httpapi.WithForgetSession(pipeline.ForgetSession),
		httpapi.WithSessionGauge(sessionStore.Count),
		httpapi.WithAuditDropGauge(auditLog.DroppedRecords),
	)

	return server.Start(ctx)
}

// buildIdentityStore loads identities from the configured file, or
// seeds a single dev identity in dev mode.
func buildIdentityStore(cfg *config.Config, logger *slog.Logger) (*memory.IdentityStore, error) {
	store := memory.NewIdentityStore()

	if cfg.Auth.IdentitiesFile != "" {
		identities, err := config.LoadIdentities(cfg.Auth.IdentitiesFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load identities: %w", err)
		}
		for _, identity := range identities {
			store.AddIdentity(identity)
		}
		logger.Info("identities loaded", "file", cfg.Auth.IdentitiesFile, "count", len(identities))
		return store, nil
	}

	if !cfg.DevMode {
		return nil, fmt.Errorf("no identities configured: set auth.identities_file (or dev_mode: true)")
	}

	hash, err := auth.HashPassword("dev")
	if err != nil {
		return nil, fmt.Errorf("failed to seed dev identity: %w", err)
	}
	store.AddIdentity(&auth.Identity{
		ID:           "dev",
		Name:         "Developer",
		Level:        auth.LevelAdmin,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	})
	logger.Warn("seeded dev identity", "user_id", "dev", "password", "dev")
	return store, nil
}

// buildAuditSink composes the audit store behind the async writer. The
// summary store is always in the fan-out; the configured output adds a
// persistent destination next to it.
func buildAuditSink(cfg *config.Config, summaryStore *memory.AuditStore, logger *slog.Logger) (audit.AuditStore, error) {
	switch {
	case cfg.Audit.Output == "memory":
		logger.Debug("audit output: memory only")
		return summaryStore, nil

	case cfg.Audit.Output == "stdout":
		logger.Debug("audit output: stdout")
		return auditout.NewTee(summaryStore, auditout.NewStdoutStore()), nil

	case strings.HasPrefix(cfg.Audit.Output, "file://"):
		dir := strings.TrimPrefix(cfg.Audit.Output, "file://")
		fileStore, err := auditout.NewFileStore(auditout.FileConfig{
			Dir:           dir,
			RetentionDays: cfg.Audit.RetentionDays,
			MaxFileSizeMB: cfg.Audit.MaxFileSizeMB,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create audit file store: %w", err)
		}
		logger.Debug("audit output: file", "dir", dir)
		return auditout.NewTee(summaryStore, fileStore), nil

	default:
		return nil, fmt.Errorf("invalid audit output: %s (must be 'stdout', 'memory', or 'file://dir')", cfg.Audit.Output)
	}
}

// parseLogLevel converts a string log level to slog.Level.
// Returns slog.LevelInfo for unrecognized values.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
