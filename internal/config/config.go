// Package config provides configuration types and loading for ChainGate.
//
// Configuration is file-based (chaingate.yaml) with environment
// variable overrides. Identities and guard rules live in separate
// YAML files referenced from the main config.
package config

import (
	"time"
)

// Config is the top-level configuration for ChainGate.
type Config struct {
	// Server configures the HTTP API listener.
	Server ServerConfig `yaml:"server" mapstructure:"server"`

	// Completion configures the LLM completion backend.
	Completion CompletionConfig `yaml:"completion" mapstructure:"completion"`

	// Database configures the read-only warehouse snapshot.
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`

	// Sessions configures session lifetime and cleanup.
	Sessions SessionsConfig `yaml:"sessions" mapstructure:"sessions"`

	// RateLimit configures the sliding window.
	RateLimit RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`

	// Audit configures where audit records are written.
	Audit AuditConfig `yaml:"audit" mapstructure:"audit"`

	// Auth points to the identities file.
	Auth AuthConfig `yaml:"auth" mapstructure:"auth"`

	// GuardRulesFile is an optional YAML file of CEL guard rules,
	// compiled at startup.
	GuardRulesFile string `yaml:"guard_rules_file" mapstructure:"guard_rules_file"`

	// Pipeline configures thresholds and prompt ceilings.
	Pipeline PipelineConfig `yaml:"pipeline" mapstructure:"pipeline"`

	// Tracing enables the stdout span exporter.
	Tracing TracingConfig `yaml:"tracing" mapstructure:"tracing"`

	// DevMode enables development features (verbose logging, relaxed
	// validation).
	DevMode bool `yaml:"dev_mode" mapstructure:"dev_mode"`
}

// ServerConfig configures the HTTP API listener.
type ServerConfig struct {
	// HTTPAddr is the listen address. Default binds to localhost only;
	// set ":8084" or "0.0.0.0:8084" explicitly for network access.
	HTTPAddr string `yaml:"http_addr" mapstructure:"http_addr" validate:"omitempty,hostname_port"`
	// LogLevel is debug, info, warn, or error.
	LogLevel string `yaml:"log_level" mapstructure:"log_level" validate:"omitempty,oneof=debug info warn error"`
}

// CompletionConfig configures the LLM backend.
type CompletionConfig struct {
	// APIKey authenticates against the completion API.
	// Required unless dev_mode is set.
	APIKey string `yaml:"api_key" mapstructure:"api_key"`
	// BaseURL overrides the API endpoint.
	BaseURL string `yaml:"base_url" mapstructure:"base_url" validate:"omitempty,url"`
	// Model is the completion model identifier.
	Model string `yaml:"model" mapstructure:"model"`
	// MaxTokens caps the completion length.
	MaxTokens int `yaml:"max_tokens" mapstructure:"max_tokens" validate:"omitempty,gt=0"`
	// Temperature for sampling. Low values keep SQL deterministic.
	Temperature float64 `yaml:"temperature" mapstructure:"temperature" validate:"gte=0,lte=2"`
	// Timeout is the per-request deadline (e.g. "30s").
	Timeout string `yaml:"timeout" mapstructure:"timeout" validate:"omitempty,duration"`
}

// DatabaseConfig configures the warehouse snapshot.
type DatabaseConfig struct {
	// Path is the SQLite database file, opened read-only.
	Path string `yaml:"path" mapstructure:"path" validate:"required"`
}

// SessionsConfig configures session lifetime.
type SessionsConfig struct {
	// Timeout is the inactivity window (e.g. "30m").
	Timeout string `yaml:"timeout" mapstructure:"timeout" validate:"omitempty,duration"`
	// CleanupInterval is how often expired sessions are swept.
	CleanupInterval string `yaml:"cleanup_interval" mapstructure:"cleanup_interval" validate:"omitempty,duration"`
}

// RateLimitConfig configures the sliding window.
type RateLimitConfig struct {
	// Window is the sliding window size (e.g. "60s"). Per-level request
	// counts come from the access policy table.
	Window string `yaml:"window" mapstructure:"window" validate:"omitempty,duration"`
}

// AuditConfig configures audit persistence.
type AuditConfig struct {
	// Output is "stdout", "memory", or "file://<absolute-dir>".
	Output string `yaml:"output" mapstructure:"output" validate:"omitempty,audit_output"`
	// RetentionDays is how long rotated audit files are kept.
	RetentionDays int `yaml:"retention_days" mapstructure:"retention_days" validate:"omitempty,gt=0"`
	// MaxFileSizeMB triggers size-based rotation.
	MaxFileSizeMB int `yaml:"max_file_size_mb" mapstructure:"max_file_size_mb" validate:"omitempty,gt=0"`
	// ChannelSize is the async buffer capacity.
	ChannelSize int `yaml:"channel_size" mapstructure:"channel_size" validate:"omitempty,gt=0"`
	// BatchSize is the number of records batched per write.
	BatchSize int `yaml:"batch_size" mapstructure:"batch_size" validate:"omitempty,gt=0"`
	// FlushInterval is how often partial batches are flushed.
	FlushInterval string `yaml:"flush_interval" mapstructure:"flush_interval" validate:"omitempty,duration"`
	// SendTimeout bounds backpressure blocking before a record drops.
	SendTimeout string `yaml:"send_timeout" mapstructure:"send_timeout" validate:"omitempty,duration"`
}

// AuthConfig points to the identities file.
type AuthConfig struct {
	// IdentitiesFile is a YAML file of identities with argon2id
	// password hashes.
	IdentitiesFile string `yaml:"identities_file" mapstructure:"identities_file"`
}

// PipelineConfig configures pipeline thresholds.
type PipelineConfig struct {
	// ConfidenceThreshold below which generated queries fall back.
	ConfidenceThreshold float64 `yaml:"confidence_threshold" mapstructure:"confidence_threshold" validate:"gte=0,lte=1"`
	// FullPromptCeiling is the estimated-token budget for full prompts.
	FullPromptCeiling int `yaml:"full_prompt_ceiling" mapstructure:"full_prompt_ceiling" validate:"omitempty,gt=0"`
	// CompactPromptCeiling is the budget for compact prompts.
	CompactPromptCeiling int `yaml:"compact_prompt_ceiling" mapstructure:"compact_prompt_ceiling" validate:"omitempty,gt=0"`
}

// TracingConfig configures the span exporter.
type TracingConfig struct {
	// Enabled turns on the stdout trace and metric exporters.
	// For development/testing only.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

// SetDefaults applies sensible default values to the configuration.
func (c *Config) SetDefaults() {
	// Server defaults, localhost only.
	if c.Server.HTTPAddr == "" {
		c.Server.HTTPAddr = "127.0.0.1:8084"
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}

	// Completion defaults.
	if c.Completion.Model == "" {
		c.Completion.Model = "llama3-8b-8192"
	}
	if c.Completion.MaxTokens == 0 {
		c.Completion.MaxTokens = 500
	}
	if c.Completion.Timeout == "" {
		c.Completion.Timeout = "30s"
	}

	// Session defaults.
	if c.Sessions.Timeout == "" {
		c.Sessions.Timeout = "30m"
	}
	if c.Sessions.CleanupInterval == "" {
		c.Sessions.CleanupInterval = "1m"
	}

	// Rate limit defaults.
	if c.RateLimit.Window == "" {
		c.RateLimit.Window = "60s"
	}

	// Audit defaults.
	if c.Audit.Output == "" {
		c.Audit.Output = "stdout"
	}
	if c.Audit.RetentionDays == 0 {
		c.Audit.RetentionDays = 7
	}
	if c.Audit.MaxFileSizeMB == 0 {
		c.Audit.MaxFileSizeMB = 100
	}
	if c.Audit.ChannelSize == 0 {
		c.Audit.ChannelSize = 1000
	}
	if c.Audit.BatchSize == 0 {
		c.Audit.BatchSize = 100
	}
	if c.Audit.FlushInterval == "" {
		c.Audit.FlushInterval = "1s"
	}
	if c.Audit.SendTimeout == "" {
		c.Audit.SendTimeout = "100ms"
	}

	// Pipeline defaults.
	if c.Pipeline.ConfidenceThreshold == 0 {
		c.Pipeline.ConfidenceThreshold = 0.5
	}
	if c.Pipeline.FullPromptCeiling == 0 {
		c.Pipeline.FullPromptCeiling = 300
	}
	if c.Pipeline.CompactPromptCeiling == 0 {
		c.Pipeline.CompactPromptCeiling = 400
	}

	if c.DevMode && c.Server.LogLevel == "info" {
		c.Server.LogLevel = "debug"
	}
}

// SessionTimeout returns the parsed session timeout.
func (c *Config) SessionTimeout() time.Duration {
	return parseDuration(c.Sessions.Timeout, 30*time.Minute)
}

// SessionCleanupInterval returns the parsed cleanup interval.
func (c *Config) SessionCleanupInterval() time.Duration {
	return parseDuration(c.Sessions.CleanupInterval, time.Minute)
}

// RateWindow returns the parsed sliding window size.
func (c *Config) RateWindow() time.Duration {
	return parseDuration(c.RateLimit.Window, 60*time.Second)
}

// CompletionTimeout returns the parsed completion deadline.
func (c *Config) CompletionTimeout() time.Duration {
	return parseDuration(c.Completion.Timeout, 30*time.Second)
}

// AuditFlushInterval returns the parsed flush interval.
func (c *Config) AuditFlushInterval() time.Duration {
	return parseDuration(c.Audit.FlushInterval, time.Second)
}

// AuditSendTimeout returns the parsed backpressure timeout.
func (c *Config) AuditSendTimeout() time.Duration {
	return parseDuration(c.Audit.SendTimeout, 100*time.Millisecond)
}

// parseDuration falls back to def for unset or malformed values.
// Validation catches malformed durations before this runs.
func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}
