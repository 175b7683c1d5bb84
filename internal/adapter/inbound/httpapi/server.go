package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/chaingate/chaingate/internal/domain/session"
	"github.com/chaingate/chaingate/internal/port/inbound"
)

// SessionHeader carries the session ID on authenticated requests.
const SessionHeader = "X-Session-ID"

// shutdownTimeout bounds graceful shutdown.
const shutdownTimeout = 10 * time.Second

// Server is the inbound HTTP adapter. It exposes the pipeline, the
// session lifecycle, and the security summary as a JSON API.
type Server struct {
	pipeline inbound.PipelineService
	auth     inbound.AuthService
	reporter inbound.SecurityReporter
	sessions *session.SessionService

	addr     string
	logger   *slog.Logger
	registry *prometheus.Registry
	metrics  *Metrics
	handler  http.Handler
	server   *http.Server

	forgetSession func(sessionID string)
}

// Option is a functional option for configuring the Server.
type Option func(*Server)

// WithAddr sets the listen address. Default is "127.0.0.1:8084"
// (localhost only).
func WithAddr(addr string) Option {
	return func(s *Server) {
		s.addr = addr
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithForgetSession sets a hook invoked on logout, used to drop the
// pipeline's conversation memory for the session.
func WithForgetSession(forget func(sessionID string)) Option {
	return func(s *Server) {
		s.forgetSession = forget
	}
}

// WithSessionGauge exposes the active session count as a gauge.
func WithSessionGauge(count func() int) Option {
	return func(s *Server) {
		RegisterSessionGauge(s.registry, count)
	}
}

// WithAuditDropGauge exposes the audit drop counter as a gauge.
func WithAuditDropGauge(drops func() int64) Option {
	return func(s *Server) {
		RegisterAuditDropGauge(s.registry, drops)
	}
}

// NewServer creates the HTTP adapter around the application services.
func NewServer(pipeline inbound.PipelineService, auth inbound.AuthService, reporter inbound.SecurityReporter, sessions *session.SessionService, opts ...Option) *Server {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	s := &Server{
		pipeline: pipeline,
		auth:     auth,
		reporter: reporter,
		sessions: sessions,
		addr:     "127.0.0.1:8084",
		logger:   slog.Default(),
		registry: registry,
		metrics:  NewMetrics(registry),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.handler = s.routes()
	return s
}

// Handler returns the fully assembled handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// routes builds the mux with the metrics middleware applied to the API
// endpoints.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/login", s.handleLogin)
	mux.HandleFunc("POST /v1/ask", s.handleAsk)
	mux.HandleFunc("POST /v1/logout", s.handleLogout)
	mux.HandleFunc("GET /v1/security/summary", s.handleSecuritySummary)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{
		Registry: s.registry,
	}))
	return s.metricsMiddleware(mux)
}

// metricsMiddleware records request counts and durations.
// Outermost so it captures the full handler duration.
func (s *Server) metricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" || r.URL.Path == "/healthz" {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		s.metrics.RequestDuration.WithLabelValues(r.URL.Path).Observe(time.Since(start).Seconds())
		s.metrics.RequestsTotal.WithLabelValues(r.URL.Path, statusToLabel(wrapped.status)).Inc()
	})
}

// Start begins accepting connections. It blocks until the context is
// cancelled or the server fails.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", s.addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, shutting down HTTP server")
		return s.shutdown()
	case err := <-errCh:
		return err
	}
}

// shutdown drains in-flight requests with a bounded deadline.
func (s *Server) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// statusToLabel collapses status codes into coarse label values to keep
// metric cardinality low.
func statusToLabel(code int) string {
	switch {
	case code < 400:
		return "ok"
	case code < 500:
		return "client_error"
	default:
		return "server_error"
	}
}
