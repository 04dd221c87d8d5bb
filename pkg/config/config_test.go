package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingExplicitFileErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() expected error for an explicit missing file")
	}
}

func TestLoadDefaults(t *testing.T) {
	// No config file at all: defaults apply.
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.MaxBodyBytes != 1<<20 {
		t.Errorf("MaxBodyBytes = %d, want 1 MiB", cfg.Server.MaxBodyBytes)
	}
	if cfg.Session.Timeout != 20*time.Minute {
		t.Errorf("Session.Timeout = %s, want 20m", cfg.Session.Timeout)
	}
	if cfg.Storage.Type != "memory" {
		t.Errorf("Storage.Type = %q, want memory", cfg.Storage.Type)
	}
	if !cfg.Observability.Metrics.Enabled {
		t.Error("metrics should default to enabled")
	}
}

func TestLoadYAMLFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
server:
  port: 9999
  max_connections: 7
session:
  timeout: 5m
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("Port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Server.MaxConnections != 7 {
		t.Errorf("MaxConnections = %d, want 7", cfg.Server.MaxConnections)
	}
	if cfg.Session.Timeout != 5*time.Minute {
		t.Errorf("Session.Timeout = %s, want 5m", cfg.Session.Timeout)
	}
	// Untouched fields keep their defaults.
	if cfg.Session.SweepInterval != time.Minute {
		t.Errorf("SweepInterval = %s, want 1m default", cfg.Session.SweepInterval)
	}
}

func TestEnvOverridesWin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9999\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("WEFT_PORT", "7777")
	t.Setenv("WEFT_SESSION_TIMEOUT", "90s")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 7777 {
		t.Errorf("Port = %d, want env override 7777", cfg.Server.Port)
	}
	if cfg.Session.Timeout != 90*time.Second {
		t.Errorf("Session.Timeout = %s, want 90s", cfg.Session.Timeout)
	}
}

func TestSecretFileResolution(t *testing.T) {
	dir := t.TempDir()
	secretPath := filepath.Join(dir, "secret")
	if err := os.WriteFile(secretPath, []byte("  hunter2\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("auth:\n  secret_file: "+secretPath+"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Auth.Secret != "hunter2" {
		t.Errorf("Secret = %q, want trimmed file content", cfg.Auth.Secret)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"bad max connections", func(c *Config) { c.Server.MaxConnections = 0 }},
		{"bad max body bytes", func(c *Config) { c.Server.MaxBodyBytes = 0 }},
		{"bad session timeout", func(c *Config) { c.Session.Timeout = 0 }},
		{"bad sweep interval", func(c *Config) { c.Session.SweepInterval = 0 }},
		{"unknown storage type", func(c *Config) { c.Storage.Type = "etcd" }},
		{"postgres without dsn", func(c *Config) { c.Storage.Type = "postgres" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() expected error, got nil")
			}
		})
	}
}
