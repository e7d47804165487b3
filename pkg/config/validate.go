package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var knownLevels = map[string]bool{
	"TRACE": true, "DEBUG": true, "INFO": true, "WARN": true, "WARNING": true, "ERROR": true,
}

// Validate checks the configuration for valid values. A missing
// Databricks binding is valid; a malformed one is not.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be in 1..65535, got %d", c.Server.Port))
	}

	if c.Server.ShutdownTimeout < 0 {
		errs = append(errs, fmt.Errorf("server.shutdown_timeout must be >= 0, got %s", c.Server.ShutdownTimeout))
	}

	if host := strings.TrimSpace(c.Databricks.Host); host != "" {
		u, err := url.Parse(host)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("databricks.host must be an http(s) URL, got %q", c.Databricks.Host))
		}
	}

	if c.Databricks.Timeout < 0 {
		errs = append(errs, fmt.Errorf("databricks.timeout must be >= 0, got %s", c.Databricks.Timeout))
	}

	if c.Chat.Temperature < 0 || c.Chat.Temperature > 2 {
		errs = append(errs, fmt.Errorf("chat.temperature must be in 0..2, got %g", c.Chat.Temperature))
	}

	if c.Chat.FallbackDelay < 0 {
		errs = append(errs, fmt.Errorf("chat.fallback_delay must be >= 0, got %s", c.Chat.FallbackDelay))
	}

	if c.Logging.Level != "" && !knownLevels[strings.ToUpper(c.Logging.Level)] {
		errs = append(errs, fmt.Errorf("logging.level must be one of TRACE, DEBUG, INFO, WARN, ERROR, got %q", c.Logging.Level))
	}

	if c.Observability.Metrics.Enabled && !strings.HasPrefix(c.Observability.Metrics.Path, "/") {
		errs = append(errs, fmt.Errorf("observability.metrics.path must start with \"/\", got %q", c.Observability.Metrics.Path))
	}

	return errors.Join(errs...)
}
