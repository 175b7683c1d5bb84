package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	cfg := &Config{
		Completion: CompletionConfig{APIKey: "gsk_test"},
		Database:   DatabaseConfig{Path: "/var/lib/chaingate/warehouse.db"},
	}
	cfg.SetDefaults()
	return cfg
}

func TestSetDefaults(t *testing.T) {
	t.Parallel()
	cfg := validConfig()

	if cfg.Server.HTTPAddr != "127.0.0.1:8084" {
		t.Errorf("http addr = %q", cfg.Server.HTTPAddr)
	}
	if cfg.Server.LogLevel != "info" {
		t.Errorf("log level = %q", cfg.Server.LogLevel)
	}
	if cfg.Pipeline.ConfidenceThreshold != 0.5 {
		t.Errorf("confidence threshold = %v", cfg.Pipeline.ConfidenceThreshold)
	}
	if cfg.Pipeline.FullPromptCeiling != 300 || cfg.Pipeline.CompactPromptCeiling != 400 {
		t.Errorf("prompt ceilings = %d/%d", cfg.Pipeline.FullPromptCeiling, cfg.Pipeline.CompactPromptCeiling)
	}
	if cfg.SessionTimeout() != 30*time.Minute {
		t.Errorf("session timeout = %v", cfg.SessionTimeout())
	}
	if cfg.RateWindow() != 60*time.Second {
		t.Errorf("rate window = %v", cfg.RateWindow())
	}
	if cfg.Audit.Output != "stdout" {
		t.Errorf("audit output = %q", cfg.Audit.Output)
	}
}

func TestDevModeDefaults(t *testing.T) {
	t.Parallel()
	cfg := &Config{
		Database: DatabaseConfig{Path: "/tmp/warehouse.db"},
		DevMode:  true,
	}
	cfg.SetDefaults()

	if cfg.Server.LogLevel != "debug" {
		t.Errorf("dev mode log level = %q, want debug", cfg.Server.LogLevel)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("dev mode without api key should validate, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: "Database.Path",
		},
		{
			name:    "missing api key outside dev mode",
			mutate:  func(c *Config) { c.Completion.APIKey = "" },
			wantErr: "api_key",
		},
		{
			name:    "bad listen address",
			mutate:  func(c *Config) { c.Server.HTTPAddr = "not an address" },
			wantErr: "host:port",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Server.LogLevel = "verbose" },
			wantErr: "must be one of",
		},
		{
			name:    "bad duration",
			mutate:  func(c *Config) { c.Sessions.Timeout = "soon" },
			wantErr: "duration",
		},
		{
			name:    "relative audit file path",
			mutate:  func(c *Config) { c.Audit.Output = "file://logs" },
			wantErr: "audit",
		},
		{
			name:    "confidence threshold out of range",
			mutate:  func(c *Config) { c.Pipeline.ConfidenceThreshold = 1.5 },
			wantErr: "at most",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() error = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestAuditOutputForms(t *testing.T) {
	t.Parallel()

	for _, output := range []string{"stdout", "memory", "file:///var/log/chaingate"} {
		cfg := validConfig()
		cfg.Audit.Output = output
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate() with output %q error = %v", output, err)
		}
	}
}
