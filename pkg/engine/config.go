package engine

import "time"

// DefaultSystemPrompt is sent as the first message of every conversation.
// It asks for short Japanese answers without Markdown and a single URL.
const DefaultSystemPrompt = "あなたは『おもてなし規格認証』の案内AIです。" +
	"日本語で、短く・要点だけ・Markdown記号（# ** - など）を極力使わずに答えてください。" +
	"URLは最後に1つだけ。"

// DefaultTemperature is the sampling temperature sent upstream.
const DefaultTemperature = 0.2

// DefaultFallbackDelay separates pseudo-stream tokens.
const DefaultFallbackDelay = 8 * time.Millisecond

// Config holds configuration for the core engine.
type Config struct {
	// Model is the serving endpoint name sent as the model. Empty lets
	// the provider choose.
	Model string

	// Temperature overrides DefaultTemperature when set.
	Temperature *float64

	// FallbackDelay is the pause between pseudo-stream tokens. Zero or
	// negative means use DefaultFallbackDelay; use NoDelay to disable
	// pacing entirely.
	FallbackDelay time.Duration
}

// NoDelay disables fallback pacing when set as Config.FallbackDelay.
const NoDelay time.Duration = -1

func (c Config) temperature() float64 {
	if c.Temperature == nil {
		return DefaultTemperature
	}
	return *c.Temperature
}

func (c Config) fallbackDelay() time.Duration {
	switch {
	case c.FallbackDelay == NoDelay:
		return 0
	case c.FallbackDelay <= 0:
		return DefaultFallbackDelay
	default:
		return c.FallbackDelay
	}
}
