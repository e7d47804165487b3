package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv neutralizes every variable the loader reads so the host
// environment cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		EnvConfig, EnvPort, EnvStaticDir, EnvFallbackDelay, EnvMetricsEnabled,
		EnvHost, EnvToken, EnvTokenFile, EnvEndpoint,
	} {
		t.Setenv(key, "")
	}
	// Keep discovery away from any config.yaml or .env next to the tests.
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 120*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, 0.2, cfg.Chat.Temperature)
	assert.Equal(t, 8*time.Millisecond, cfg.Chat.FallbackDelay)
	assert.True(t, cfg.Observability.Metrics.Enabled, "metrics should be enabled by default")
	assert.False(t, cfg.Databricks.Configured(), "defaults must not be configured")
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromYAML(t *testing.T) {
	clearEnv(t)

	yamlContent := `
server:
  port: 9090
  read_timeout: 60s
  static_dir: ./static
databricks:
  host: https://adb-1.azuredatabricks.net
  token: dapi-yaml
  endpoint: omotenashi-agent
  timeout: 30s
chat:
  temperature: 0.5
  fallback_delay: 20ms
logging:
  debug: gateway,engine
  level: DEBUG
observability:
  metrics:
    enabled: false
`
	tmpFile := writeTemp(t, "config-*.yaml", yamlContent)

	cfg, err := Load(Options{ConfigPath: tmpFile})
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 60*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "./static", cfg.Server.StaticDir)
	assert.True(t, cfg.Databricks.Configured(), "databricks should be configured: %+v", cfg.Databricks)
	assert.Equal(t, 30*time.Second, cfg.Databricks.Timeout)
	assert.Equal(t, 0.5, cfg.Chat.Temperature)
	assert.Equal(t, 20*time.Millisecond, cfg.Chat.FallbackDelay)
	assert.Equal(t, "gateway,engine", cfg.Logging.Debug)
	assert.Equal(t, "DEBUG", cfg.Logging.Level)
	assert.False(t, cfg.Observability.Metrics.Enabled, "metrics should be disabled by YAML")
	// Unset YAML fields keep their defaults.
	assert.Equal(t, 120*time.Second, cfg.Server.WriteTimeout)
}

func TestEnvOverride(t *testing.T) {
	clearEnv(t)

	tmpFile := writeTemp(t, "config-*.yaml", `
server:
  port: 9090
databricks:
  host: https://from-yaml.example.com
  token: yaml-token
  endpoint: yaml-endpoint
`)

	t.Setenv(EnvHost, "https://from-env.example.com")
	t.Setenv(EnvToken, "env-token")
	t.Setenv(EnvEndpoint, "env-endpoint")
	t.Setenv(EnvPort, "7070")
	t.Setenv(EnvStaticDir, "/srv/static")
	t.Setenv(EnvFallbackDelay, "15")
	t.Setenv(EnvMetricsEnabled, "false")

	cfg, err := Load(Options{ConfigPath: tmpFile})
	require.NoError(t, err)

	assert.Equal(t, "https://from-env.example.com", cfg.Databricks.Host)
	assert.Equal(t, "env-token", cfg.Databricks.Token)
	assert.Equal(t, "env-endpoint", cfg.Databricks.Endpoint)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "/srv/static", cfg.Server.StaticDir)
	assert.Equal(t, 15*time.Millisecond, cfg.Chat.FallbackDelay)
	assert.False(t, cfg.Observability.Metrics.Enabled, "metrics should be disabled by env")
}

func TestEnvOverrideInvalid(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvPort, "eighty")
	t.Setenv(EnvFallbackDelay, "soon")

	_, err := Load(Options{})
	require.Error(t, err)
	assert.ErrorContains(t, err, EnvPort)
	assert.ErrorContains(t, err, EnvFallbackDelay)
}

func TestEnvFile(t *testing.T) {
	clearEnv(t)

	envFile := writeTemp(t, "env-*", "DATABRICKS_HOST=https://dotenv.example.com\nDATABRICKS_TOKEN=dotenv-token\nENDPOINT_NAME=dotenv-endpoint\n")

	cfg, err := Load(Options{EnvFile: envFile})
	require.NoError(t, err)
	assert.Equal(t, "https://dotenv.example.com", cfg.Databricks.Host)
	assert.True(t, cfg.Databricks.Configured(), "expected .env to configure databricks")

	// Process environment wins over .env.
	t.Setenv(EnvEndpoint, "process-endpoint")
	cfg, err = Load(Options{EnvFile: envFile})
	require.NoError(t, err)
	assert.Equal(t, "process-endpoint", cfg.Databricks.Endpoint)

	// .env must not leak into the process environment.
	assert.Empty(t, os.Getenv(EnvToken), "%s leaked into the process environment", EnvToken)
}

func TestEnvFileDiscovery(t *testing.T) {
	clearEnv(t)

	// No .env in the working directory is fine.
	_, err := Load(Options{})
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(DefaultEnvFile, []byte("ENDPOINT_NAME=discovered\n"), 0o600))
	cfg, err := Load(Options{})
	require.NoError(t, err)
	assert.Equal(t, "discovered", cfg.Databricks.Endpoint)

	// An explicit env file that does not exist is an error.
	_, err = Load(Options{EnvFile: filepath.Join(t.TempDir(), "missing.env")})
	assert.Error(t, err)
}

func TestFileReference(t *testing.T) {
	clearEnv(t)

	secretFile := writeTemp(t, "secret-*", "  dapi-from-file\n")
	tmpFile := writeTemp(t, "config-*.yaml", `
databricks:
  token_file: `+secretFile+`
`)

	cfg, err := Load(Options{ConfigPath: tmpFile})
	require.NoError(t, err)
	assert.Equal(t, "dapi-from-file", cfg.Databricks.Token, "want trimmed file content")
}

func TestFileReferenceFromEnv(t *testing.T) {
	clearEnv(t)

	secretFile := writeTemp(t, "secret-*", "mounted-token")
	t.Setenv(EnvTokenFile, secretFile)

	cfg, err := Load(Options{})
	require.NoError(t, err)
	assert.Equal(t, "mounted-token", cfg.Databricks.Token)
}

func TestFileReferenceDoesNotOverrideExplicitValue(t *testing.T) {
	clearEnv(t)

	secretFile := writeTemp(t, "secret-*", "from-file")
	tmpFile := writeTemp(t, "config-*.yaml", `
databricks:
  token: explicit
  token_file: `+secretFile+`
`)

	cfg, err := Load(Options{ConfigPath: tmpFile})
	require.NoError(t, err)
	assert.Equal(t, "explicit", cfg.Databricks.Token)
}

func TestFileReferenceMissing(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvTokenFile, filepath.Join(t.TempDir(), "nope"))

	_, err := Load(Options{})
	assert.ErrorContains(t, err, "databricks.token_file")
}

func TestFileDiscovery(t *testing.T) {
	clearEnv(t)

	// Explicit path.
	tmpFile := writeTemp(t, "config-*.yaml", "databricks:\n  endpoint: explicit\n")
	cfg, err := Load(Options{ConfigPath: tmpFile})
	require.NoError(t, err)
	assert.Equal(t, "explicit", cfg.Databricks.Endpoint)

	// OMOTENASHI_CONFIG env var.
	envCfg := writeTemp(t, "envconfig-*.yaml", "databricks:\n  endpoint: from-env-config\n")
	t.Setenv(EnvConfig, envCfg)
	cfg, err = Load(Options{})
	require.NoError(t, err)
	assert.Equal(t, "from-env-config", cfg.Databricks.Endpoint)

	// ./config.yaml in the working directory.
	t.Setenv(EnvConfig, "")
	require.NoError(t, os.WriteFile("config.yaml", []byte("databricks:\n  endpoint: local\n"), 0o600))
	cfg, err = Load(Options{})
	require.NoError(t, err)
	assert.Equal(t, "local", cfg.Databricks.Endpoint)
}

func TestLoadInvalidYAML(t *testing.T) {
	clearEnv(t)
	tmpFile := writeTemp(t, "config-*.yaml", "server: [unclosed")
	_, err := Load(Options{ConfigPath: tmpFile})
	assert.Error(t, err)
}

func TestDatabricksConfigured(t *testing.T) {
	full := DatabricksConfig{Host: "https://h.example.com", Token: "t", Endpoint: "e"}

	tests := []struct {
		name   string
		modify func(*DatabricksConfig)
		want   bool
	}{
		{name: "complete", modify: func(*DatabricksConfig) {}, want: true},
		{name: "missing host", modify: func(d *DatabricksConfig) { d.Host = "" }},
		{name: "missing token", modify: func(d *DatabricksConfig) { d.Token = "" }},
		{name: "whitespace endpoint", modify: func(d *DatabricksConfig) { d.Endpoint = "  " }},
		{name: "whitespace token", modify: func(d *DatabricksConfig) { d.Token = "\t\n" }},
		{name: "whitespace host", modify: func(d *DatabricksConfig) { d.Host = " " }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := full
			tt.modify(&d)
			assert.Equal(t, tt.want, d.Configured())
			// The provider adapter must agree, or the server would fail to
			// build a provider for a binding the config accepted.
			assert.Equal(t, tt.want, d.Provider().Configured())
		})
	}
}

func TestWhitespaceBindingLoadsUnconfigured(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvHost, "   ")
	t.Setenv(EnvToken, "dapi-env")
	t.Setenv(EnvEndpoint, " ")

	cfg, err := Load(Options{})
	require.NoError(t, err)
	assert.NoError(t, cfg.Validate(), "a blank host is an unset host, not a malformed one")
	assert.False(t, cfg.Databricks.Configured())
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:    "invalid port",
			modify:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "server.port must be in 1..65535",
		},
		{
			name:    "port too large",
			modify:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: "server.port must be in 1..65535",
		},
		{
			name:    "host without scheme",
			modify:  func(c *Config) { c.Databricks.Host = "adb-1.azuredatabricks.net" },
			wantErr: "databricks.host must be an http(s) URL",
		},
		{
			name:    "temperature out of range",
			modify:  func(c *Config) { c.Chat.Temperature = 3 },
			wantErr: "chat.temperature must be in 0..2",
		},
		{
			name:    "negative fallback delay",
			modify:  func(c *Config) { c.Chat.FallbackDelay = -time.Millisecond },
			wantErr: "chat.fallback_delay must be >= 0",
		},
		{
			name:    "unknown log level",
			modify:  func(c *Config) { c.Logging.Level = "LOUD" },
			wantErr: "logging.level must be one of",
		},
		{
			name:    "relative metrics path",
			modify:  func(c *Config) { c.Observability.Metrics.Path = "metrics" },
			wantErr: "observability.metrics.path must start with",
		},
		{
			name: "partial databricks binding is valid",
			modify: func(c *Config) {
				c.Databricks.Host = "https://adb-1.azuredatabricks.net"
			},
		},
		{
			name: "complete config",
			modify: func(c *Config) {
				c.Databricks = DatabricksConfig{Host: "https://h.example.com", Token: "t", Endpoint: "e"}
				c.Logging.Level = "trace"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.modify(&cfg)
			err := cfg.Validate()

			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestValidationJoinsErrors(t *testing.T) {
	cfg := Defaults()
	cfg.Server.Port = -1
	cfg.Chat.Temperature = -1

	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, "server.port")
	assert.ErrorContains(t, err, "chat.temperature")
}

// writeTemp creates a temporary file with the given content and returns its path.
// The file is automatically cleaned up when the test finishes.
func writeTemp(t *testing.T, pattern, content string) string {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), pattern)
	require.NoError(t, err, "creating temp file")
	defer f.Close()

	_, err = f.WriteString(content)
	require.NoError(t, err, "writing temp file")

	return f.Name()
}
