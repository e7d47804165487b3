// Package debug provides category-based debug logging.
//
// Two orthogonal controls:
//   - Categories (WHAT to debug): OMOTENASHI_DEBUG env or config
//   - Levels (HOW MUCH detail): OMOTENASHI_LOG_LEVEL env or config
//
// Usage:
//
//	debug.Log("gateway", "request", "url", url)
//	if debug.Enabled("engine") { /* expensive formatting */ }
//
// Categories: gateway, engine, transport, config, all.
// Levels: ERROR, WARN, INFO, DEBUG, TRACE.
package debug

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"
)

// Environment variables read by Init.
const (
	EnvCategories = "OMOTENASHI_DEBUG"
	EnvLevel      = "OMOTENASHI_LOG_LEVEL"
)

// LevelTrace is below slog.LevelDebug for maximum verbosity.
// At TRACE, full upstream request/response bodies are logged.
const LevelTrace = slog.LevelDebug - 4

// categories holds the set of enabled debug categories.
// Access is read-only after Init(), so no synchronization needed.
var categories map[string]bool

// rawOut receives Raw output.
var rawOut io.Writer = os.Stderr

func init() {
	// Initialize from environment for immediate availability.
	// Can be re-initialized later via Init() with config values.
	categories = parseCategories(os.Getenv(EnvCategories))
}

// Init configures the debug system and installs the default slog logger.
// Called at startup with values from config. Environment overrides config.
func Init(configCategories string, configLevel string) {
	InitWithWriter(os.Stderr, configCategories, configLevel)
}

// InitWithWriter is Init with an explicit log destination.
func InitWithWriter(w io.Writer, configCategories string, configLevel string) {
	cats := os.Getenv(EnvCategories)
	if cats == "" {
		cats = configCategories
	}
	categories = parseCategories(cats)

	level := os.Getenv(EnvLevel)
	if level == "" {
		level = configLevel
	}

	rawOut = w
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})))
}

// Enabled reports whether debug output is active for the given category.
func Enabled(category string) bool {
	return categories["all"] || categories[category]
}

// Log emits a debug message for the given category.
// If the category is not enabled, this is a no-op.
func Log(category string, msg string, args ...any) {
	if !Enabled(category) {
		return
	}
	slog.Debug(msg, append([]any{"debug", category}, args...)...)
}

// Trace emits a trace-level message for the given category.
// Only visible when OMOTENASHI_LOG_LEVEL=TRACE.
func Trace(category string, msg string, args ...any) {
	if !Enabled(category) {
		return
	}
	slog.Log(context.Background(), LevelTrace, msg, append([]any{"debug", category}, args...)...)
}

// TraceIsEnabled reports whether TRACE level is active for the given category.
func TraceIsEnabled(category string) bool {
	if !Enabled(category) {
		return false
	}
	return slog.Default().Enabled(context.Background(), LevelTrace)
}

// Raw writes plain text without any slog formatting, for copy-paste-ready
// payload dumps. Only emitted when category is enabled AND level is TRACE.
func Raw(category string, text string) {
	if !TraceIsEnabled(category) {
		return
	}
	fmt.Fprintln(rawOut, text)
}

// ParseLevel converts a level string to a slog.Level.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return LevelTrace
	case "DEBUG":
		return slog.LevelDebug
	case "INFO", "":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Categories returns the list of enabled categories (for health/status reporting).
func Categories() []string {
	var result []string
	for k := range categories {
		result = append(result, k)
	}
	return result
}

// Truncate returns s cut to at most maxLen bytes, with "..." appended if
// truncated. The cut never splits a multi-byte character.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

func parseCategories(s string) map[string]bool {
	m := make(map[string]bool)
	if s == "" {
		return m
	}
	for _, cat := range strings.Split(s, ",") {
		cat = strings.TrimSpace(strings.ToLower(cat))
		if cat != "" {
			m[cat] = true
		}
	}
	return m
}
