package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rhuss/omotenashi/pkg/api"
	"github.com/rhuss/omotenashi/pkg/debug"
	"github.com/rhuss/omotenashi/pkg/observability"
	"github.com/rhuss/omotenashi/pkg/provider"
)

// Gateway sends one user message, framed by the system prompt, to the
// serving endpoint. A Gateway without a provider is unconfigured and
// fails every call with a configuration error.
type Gateway struct {
	provider    provider.Provider
	model       string
	temperature float64
}

// NewGateway creates a Gateway. p may be nil when the endpoint binding is
// incomplete.
func NewGateway(p provider.Provider, cfg Config) *Gateway {
	return &Gateway{
		provider:    p,
		model:       cfg.Model,
		temperature: cfg.temperature(),
	}
}

// Configured reports whether the gateway can reach an endpoint.
func (g *Gateway) Configured() bool {
	return g != nil && g.provider != nil
}

// Complete performs one non-streaming completion for text.
func (g *Gateway) Complete(ctx context.Context, text string) (*provider.CompletionResult, error) {
	if !g.Configured() {
		return nil, api.NewConfigurationError("serving endpoint is not configured")
	}

	start := time.Now()
	res, err := g.provider.Complete(ctx, g.request(text, false))
	observability.UpstreamLatency.WithLabelValues(observability.ModeComplete).Observe(time.Since(start).Seconds())
	if err != nil {
		observability.UpstreamRequestsTotal.WithLabelValues(observability.ModeComplete, observability.StatusError).Inc()
		return nil, upstreamError(err)
	}

	observability.UpstreamRequestsTotal.WithLabelValues(observability.ModeComplete, observability.StatusOK).Inc()
	debug.Log("gateway", "completion received",
		"choices", len(res.Choices),
		"messages", len(res.Messages),
		"duration", time.Since(start),
	)
	return res, nil
}

// Stream opens a streaming completion for text. Cancelling ctx releases
// the upstream connection.
func (g *Gateway) Stream(ctx context.Context, text string) (<-chan provider.StreamEvent, error) {
	if !g.Configured() {
		return nil, api.NewConfigurationError("serving endpoint is not configured")
	}

	start := time.Now()
	ch, err := g.provider.Stream(ctx, g.request(text, true))
	observability.UpstreamLatency.WithLabelValues(observability.ModeStream).Observe(time.Since(start).Seconds())
	if err != nil {
		observability.UpstreamRequestsTotal.WithLabelValues(observability.ModeStream, observability.StatusError).Inc()
		return nil, upstreamError(err)
	}

	observability.UpstreamRequestsTotal.WithLabelValues(observability.ModeStream, observability.StatusOK).Inc()
	debug.Log("gateway", "stream opened", "duration", time.Since(start))
	return ch, nil
}

// Close releases the provider.
func (g *Gateway) Close() error {
	if !g.Configured() {
		return nil
	}
	return g.provider.Close()
}

func (g *Gateway) request(text string, stream bool) *provider.Request {
	temp := g.temperature
	return &provider.Request{
		Model: g.model,
		Messages: []provider.Message{
			{Role: "system", Content: DefaultSystemPrompt},
			{Role: "user", Content: text},
		},
		Temperature: &temp,
		Stream:      stream,
	}
}

// upstreamError classifies any provider failure as an upstream transport
// error, keeping an existing classification of that type intact.
func upstreamError(err error) error {
	if api.IsType(err, api.ErrorTypeUpstreamTransport) {
		return err
	}
	return api.NewUpstreamError(fmt.Sprintf("upstream call failed: %v", err))
}
