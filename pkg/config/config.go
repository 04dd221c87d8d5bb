// Package config provides unified configuration for the weft server.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (WEFT_ prefix)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
package config

import "time"

// Config holds all configuration for the weft server.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Session       SessionConfig       `yaml:"session"`
	Auth          AuthConfig          `yaml:"auth"`
	Storage       StorageConfig       `yaml:"storage"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds listener and request pipeline settings.
type ServerConfig struct {
	Port           int           `yaml:"port"`            // default: 8080
	ReadTimeout    time.Duration `yaml:"read_timeout"`    // default: 30s
	RequestTimeout time.Duration `yaml:"request_timeout"` // default: 30s
	MaxConnections int64         `yaml:"max_connections"` // default: 1024
	MaxBodyBytes   int64         `yaml:"max_body_bytes"`  // default: 1 MiB
}

// SessionConfig holds session store settings.
type SessionConfig struct {
	Timeout       time.Duration `yaml:"timeout"`        // default: 20m
	SweepInterval time.Duration `yaml:"sweep_interval"` // default: 1m
}

// AuthConfig holds token signing settings.
type AuthConfig struct {
	Secret     string        `yaml:"secret"`
	SecretFile string        `yaml:"secret_file"` // _file variant for secret
	TokenTTL   time.Duration `yaml:"token_ttl"`   // default: 24h
}

// StorageConfig holds persistence settings.
type StorageConfig struct {
	Type     string         `yaml:"type"` // "memory" or "postgres", default: "memory"
	Postgres PostgresConfig `yaml:"postgres"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	DSN            string `yaml:"dsn"`
	DSNFile        string `yaml:"dsn_file"`         // _file variant for dsn
	MaxConns       int32  `yaml:"max_conns"`        // default: 10
	MigrateOnStart bool   `yaml:"migrate_on_start"` // default: false
}

// ObservabilityConfig holds monitoring settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds the Prometheus metrics endpoint settings. The
// endpoint is served on its own listener, separate from the framework
// server.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Addr    string `yaml:"addr"`    // default: ":9090"
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:           8080,
			ReadTimeout:    30 * time.Second,
			RequestTimeout: 30 * time.Second,
			MaxConnections: 1024,
			MaxBodyBytes:   1 << 20,
		},
		Session: SessionConfig{
			Timeout:       20 * time.Minute,
			SweepInterval: time.Minute,
		},
		Auth: AuthConfig{
			TokenTTL: 24 * time.Hour,
		},
		Storage: StorageConfig{
			Type: "memory",
			Postgres: PostgresConfig{
				MaxConns: 10,
			},
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Addr:    ":9090",
			},
		},
	}
}
