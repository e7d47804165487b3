// Package config provides unified configuration for the chat gateway.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides, where a .env file fills in
//     variables the process environment leaves unset
//  4. File reference resolution (_file suffix fields)
//  5. Validation
package config

import (
	"time"

	"github.com/rhuss/omotenashi/pkg/provider/databricks"
)

// Config holds all configuration for the chat gateway.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Databricks    DatabricksConfig    `yaml:"databricks"`
	Chat          ChatConfig          `yaml:"chat"`
	Logging       LoggingConfig       `yaml:"logging"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `yaml:"port"`             // default: 8080
	ReadTimeout     time.Duration `yaml:"read_timeout"`     // default: 30s
	WriteTimeout    time.Duration `yaml:"write_timeout"`    // default: 120s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // default: 15s
	StaticDir       string        `yaml:"static_dir"`       // optional front-end directory
}

// DatabricksConfig holds the serving endpoint binding. All three of host,
// token and endpoint must be set for the gateway to be configured; a
// partial binding is not an error, requests are answered with the
// not-configured reply instead.
type DatabricksConfig struct {
	Host      string        `yaml:"host"`
	Token     string        `yaml:"token"`
	TokenFile string        `yaml:"token_file"` // _file variant for token
	Endpoint  string        `yaml:"endpoint"`
	Timeout   time.Duration `yaml:"timeout"` // default: 120s
}

// Configured reports whether host, token and endpoint are all set. It
// shares the provider's predicate, so whitespace-only values count as unset.
func (d DatabricksConfig) Configured() bool {
	return d.Provider().Configured()
}

// Provider returns the provider adapter configuration for this binding.
func (d DatabricksConfig) Provider() databricks.Config {
	return databricks.Config{
		Host:     d.Host,
		Token:    d.Token,
		Endpoint: d.Endpoint,
		Timeout:  d.Timeout,
	}
}

// ChatConfig holds the model call and pseudo-stream settings.
type ChatConfig struct {
	Temperature   float64       `yaml:"temperature"`    // default: 0.2
	FallbackDelay time.Duration `yaml:"fallback_delay"` // default: 8ms, pause between pseudo-stream tokens
}

// LoggingConfig holds debug category and level settings. The
// OMOTENASHI_DEBUG and OMOTENASHI_LOG_LEVEL variables take precedence.
type LoggingConfig struct {
	Debug string `yaml:"debug"` // comma-separated categories
	Level string `yaml:"level"` // default: INFO
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // default: true
	Path    string `yaml:"path"`    // default: "/metrics"
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    120 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Databricks: DatabricksConfig{
			Timeout: 120 * time.Second,
		},
		Chat: ChatConfig{
			Temperature:   0.2,
			FallbackDelay: 8 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level: "INFO",
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
				Path:    "/metrics",
			},
		},
	}
}
