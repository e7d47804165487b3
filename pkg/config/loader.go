package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/rhuss/omotenashi/pkg/debug"
)

// Environment variables read by the loader.
const (
	EnvConfig         = "OMOTENASHI_CONFIG"
	EnvPort           = "OMOTENASHI_PORT"
	EnvStaticDir      = "OMOTENASHI_STATIC_DIR"
	EnvFallbackDelay  = "OMOTENASHI_FALLBACK_DELAY"
	EnvMetricsEnabled = "OMOTENASHI_METRICS_ENABLED"
	EnvHost           = "DATABRICKS_HOST"
	EnvToken          = "DATABRICKS_TOKEN"
	EnvTokenFile      = "DATABRICKS_TOKEN_FILE"
	EnvEndpoint       = "ENDPOINT_NAME"
)

// DefaultEnvFile is read when no explicit env file is given. A missing
// default file is not an error.
const DefaultEnvFile = ".env"

// Options selects the files Load reads. Empty fields use discovery.
type Options struct {
	ConfigPath string
	EnvFile    string
}

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, OMOTENASHI_CONFIG env, ./config.yaml, /etc/omotenashi/config.yaml)
//  3. Environment variable overrides, with .env values as the fallback
//  4. File reference resolution (_file suffix)
//  5. Validation
func Load(opts Options) (*Config, error) {
	cfg := Defaults()

	dotenv, err := readEnvFile(opts.EnvFile)
	if err != nil {
		return nil, err
	}
	lookup := envLookup(dotenv)

	filePath := discoverConfigFile(opts.ConfigPath, lookup)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
		debug.Log("config", "loaded config file", "path", filePath)
	}

	if err := applyEnvOverrides(&cfg, lookup); err != nil {
		return nil, fmt.Errorf("applying environment: %w", err)
	}

	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// readEnvFile parses a dotenv file without touching the process
// environment.
func readEnvFile(path string) (map[string]string, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultEnvFile
	}

	values, err := godotenv.Read(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading env file %s: %w", path, err)
	}

	debug.Log("config", "loaded env file", "path", path, "keys", len(values))
	return values, nil
}

// envLookup returns a lookup that prefers the process environment and
// falls back to dotenv values, matching dotenv's no-override behaviour.
func envLookup(dotenv map[string]string) func(string) string {
	return func(key string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return dotenv[key]
	}
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. OMOTENASHI_CONFIG environment variable
// 3. ./config.yaml in the current directory
// 4. /etc/omotenashi/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string, lookup func(string) string) string {
	if configPath != "" {
		return configPath
	}

	if envPath := lookup(EnvConfig); envPath != "" {
		return envPath
	}

	candidates := []string{
		"config.yaml",
		"/etc/omotenashi/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides maps environment variables to config fields. The
// Databricks names are the ones the deployment has always used.
func applyEnvOverrides(cfg *Config, lookup func(string) string) error {
	var errs []error

	if v := lookup(EnvHost); v != "" {
		cfg.Databricks.Host = v
	}
	if v := lookup(EnvToken); v != "" {
		cfg.Databricks.Token = v
	}
	if v := lookup(EnvTokenFile); v != "" {
		cfg.Databricks.TokenFile = v
	}
	if v := lookup(EnvEndpoint); v != "" {
		cfg.Databricks.Endpoint = v
	}
	if v := lookup(EnvPort); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvPort, err))
		} else {
			cfg.Server.Port = port
		}
	}
	if v := lookup(EnvStaticDir); v != "" {
		cfg.Server.StaticDir = v
	}
	if v := lookup(EnvFallbackDelay); v != "" {
		d, err := parseDelay(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvFallbackDelay, err))
		} else {
			cfg.Chat.FallbackDelay = d
		}
	}
	if v := lookup(EnvMetricsEnabled); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", EnvMetricsEnabled, err))
		} else {
			cfg.Observability.Metrics.Enabled = enabled
		}
	}

	return errors.Join(errs...)
}

// parseDelay accepts a Go duration ("8ms") or a bare number of milliseconds.
func parseDelay(s string) (time.Duration, error) {
	if ms, err := strconv.Atoi(s); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	return time.ParseDuration(s)
}

// resolveFileReferences reads _file fields and populates the corresponding value fields.
// If the value field is empty and the file field is set, the file is read,
// whitespace is trimmed, and the value field is populated.
func resolveFileReferences(cfg *Config) error {
	// databricks.token_file -> databricks.token
	if cfg.Databricks.TokenFile != "" && cfg.Databricks.Token == "" {
		val, err := readSecretFile(cfg.Databricks.TokenFile)
		if err != nil {
			return fmt.Errorf("databricks.token_file: %w", err)
		}
		cfg.Databricks.Token = val
	}

	return nil
}

// readSecretFile reads a file and returns its content with surrounding whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
