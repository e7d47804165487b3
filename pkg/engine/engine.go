package engine

import (
	"context"
	"log/slog"
	"strings"

	"github.com/rhuss/omotenashi/pkg/api"
	"github.com/rhuss/omotenashi/pkg/debug"
	"github.com/rhuss/omotenashi/pkg/normalize"
	"github.com/rhuss/omotenashi/pkg/provider"
	"github.com/rhuss/omotenashi/pkg/sanitize"
	"github.com/rhuss/omotenashi/pkg/transport"
)

// Engine answers chat requests. It implements transport.ChatHandler.
type Engine struct {
	gateway *Gateway
	cfg     Config
}

// Ensure Engine implements transport.ChatHandler at compile time.
var _ transport.ChatHandler = (*Engine)(nil)

// New creates a new Engine. A nil or unconfigured gateway is allowed; every
// request is then answered with the not-configured reply.
func New(gw *Gateway, cfg Config) *Engine {
	return &Engine{gateway: gw, cfg: cfg}
}

// Configured reports whether the engine can reach an endpoint.
func (e *Engine) Configured() bool {
	return e.gateway.Configured()
}

// HandleChat dispatches a request to the streaming orchestrator or the
// one-shot path. One-shot failures are returned unwritten so the transport
// can answer them with the matching status and canned reply.
func (e *Engine) HandleChat(ctx context.Context, req *api.ChatRequest, w transport.ResponseWriter) error {
	if req.Stream {
		return e.Stream(ctx, req.Text, w)
	}

	reply, err := e.Chat(ctx, req.Text)
	if err != nil {
		return err
	}
	return w.WriteReply(ctx, &api.ChatReply{Reply: reply})
}

// Chat returns the sanitized reply for text.
//
// It fails with api.ErrEmptyInput for blank text, a configuration error
// when no endpoint is bound, an extraction error when the endpoint
// answered without usable text, and an upstream error otherwise.
func (e *Engine) Chat(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", api.ErrEmptyInput
	}
	if !e.Configured() {
		return "", api.NewConfigurationError("serving endpoint is not configured")
	}

	res, err := e.gateway.Complete(ctx, text)
	if err != nil {
		return "", err
	}

	reply, ok := normalize.Reply(res)
	if !ok {
		slog.Warn("reply not found in upstream result",
			"request_id", transport.RequestIDFromContext(ctx),
			"payload", debug.Truncate(rawPayload(res), 2000),
		)
		return "", api.NewExtractionError("no reply text in upstream result")
	}

	debug.Log("engine", "reply extracted", "chars", len([]rune(reply)))
	return sanitize.Clean(reply), nil
}

func rawPayload(res *provider.CompletionResult) string {
	if res == nil {
		return ""
	}
	return string(res.Raw)
}
