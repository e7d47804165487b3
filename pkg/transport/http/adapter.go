package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rhuss/omotenashi/pkg/api"
	"github.com/rhuss/omotenashi/pkg/debug"
	"github.com/rhuss/omotenashi/pkg/observability"
	"github.com/rhuss/omotenashi/pkg/transport"
)

// maxRequestIDLen bounds client supplied X-Request-ID values.
const maxRequestIDLen = 128

// Adapter serves the chat API over HTTP.
// It routes requests to the ChatHandler and serializes its output.
type Adapter struct {
	handler  transport.ChatHandler
	status   statusReporter // nil if the handler cannot report readiness
	inflight *transport.InFlightRegistry
	mux      *http.ServeMux
	config   Config
}

// statusReporter is implemented by handlers that know whether their
// upstream endpoint is configured.
type statusReporter interface {
	Configured() bool
}

// Config holds configuration for the HTTP adapter.
type Config struct {
	MaxBodySize int64

	// StaticDir, when set, is served at "/" and "/static/".
	StaticDir string

	// MetricsPath, when set, exposes the Prometheus handler.
	MetricsPath string
}

// DefaultConfig returns the default adapter configuration.
func DefaultConfig() Config {
	return Config{
		MaxBodySize: 1 << 20, // 1 MiB
		MetricsPath: "/metrics",
	}
}

// NewAdapter creates an HTTP adapter for the given ChatHandler.
// Middleware is applied to the handler in the given order.
func NewAdapter(handler transport.ChatHandler, cfg Config, middlewares ...transport.Middleware) *Adapter {
	// Readiness is read from the unwrapped handler.
	status, _ := handler.(statusReporter)

	if len(middlewares) > 0 {
		handler = transport.Chain(middlewares...)(handler)
	}

	a := &Adapter{
		handler:  handler,
		status:   status,
		inflight: transport.NewInFlightRegistry(),
		mux:      http.NewServeMux(),
		config:   cfg,
	}

	a.mux.HandleFunc("POST /chat", a.handleChat)
	a.mux.HandleFunc("GET /chat_stream", a.handleChatStream)
	a.mux.HandleFunc("GET /healthz", a.handleHealthz)

	if cfg.MetricsPath != "" {
		a.mux.Handle("GET "+cfg.MetricsPath, promhttp.Handler())
	}

	if cfg.StaticDir != "" {
		files := http.FileServer(http.Dir(cfg.StaticDir))
		a.mux.Handle("GET /static/", http.StripPrefix("/static/", files))
		a.mux.Handle("GET /", files)
	}

	return a
}

// Handler returns the http.Handler for this adapter. Use this to integrate
// with an http.Server or test with httptest. The returned handler includes
// request ID propagation and HTTP metrics.
func (a *Adapter) Handler() http.Handler {
	return httpRequestIDMiddleware(observability.MetricsMiddleware(a.mux))
}

// InFlight returns the registry of active streams.
func (a *Adapter) InFlight() *transport.InFlightRegistry {
	return a.inflight
}

// httpRequestIDMiddleware propagates the X-Request-ID header. A client
// supplied ID is kept; otherwise a new one is generated. The ID is placed
// in the request context and echoed in the response headers.
func httpRequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" || len(id) > maxRequestIDLen {
			id = transport.NewRequestID()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(transport.ContextWithRequestID(r.Context(), id)))
	})
}

// handleChat handles POST /chat.
func (a *Adapter) handleChat(w http.ResponseWriter, r *http.Request) {
	req, err := a.decodeChatRequest(w, r)
	if err != nil {
		apiErr := api.NewInvalidRequestError(fmt.Sprintf("request body too large (max %d bytes)", a.config.MaxBodySize))
		slog.Warn("rejected chat request",
			"request_id", transport.RequestIDFromContext(r.Context()),
			"error_type", string(apiErr.Type),
			"error", apiErr.Message,
		)
		transport.WriteReply(w, &api.ChatReply{Reply: api.ReplyTooLong}, http.StatusRequestEntityTooLarge)
		return
	}

	rw := newSSEResponseWriter(w)
	if err := a.handler.HandleChat(r.Context(), req, rw); err != nil {
		a.writeHandlerError(w, rw, err, false)
	}
}

// decodeChatRequest reads the JSON body. Anything that does not decode to
// an object with a string text field counts as empty text; only an
// oversized body is an error.
func (a *Adapter) decodeChatRequest(w http.ResponseWriter, r *http.Request) (*api.ChatRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, a.config.MaxBodySize)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, err
		}
		debug.Log("transport", "request body read failed", "error", err.Error())
		return &api.ChatRequest{}, nil
	}

	var req api.ChatRequest
	if err := json.Unmarshal(body, &req); err != nil {
		debug.Log("transport", "malformed request body treated as empty", "error", err.Error())
		return &api.ChatRequest{}, nil
	}
	return &req, nil
}

// handleChatStream handles GET /chat_stream?text=.
// The stream is registered in the in-flight registry so shutdown can end it.
func (a *Adapter) handleChatStream(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	id := transport.RequestIDFromContext(ctx)
	a.inflight.Register(id, cancel)
	defer a.inflight.Remove(id)

	req := &api.ChatRequest{Text: r.URL.Query().Get("text"), Stream: true}

	rw := newSSEResponseWriter(w)
	if err := a.handler.HandleChat(ctx, req, rw); err != nil {
		a.writeHandlerError(w, rw, err, true)
	}
}

// healthStatus is the body of GET /healthz.
type healthStatus struct {
	Status     string `json:"status"`
	Configured bool   `json:"configured"`
}

// handleHealthz handles GET /healthz. The server is healthy even when no
// endpoint is configured; the configured flag tells the two apart.
func (a *Adapter) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	st := healthStatus{Status: "ok"}
	if a.status != nil {
		st.Configured = a.status.Configured()
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(st)
}

// writeHandlerError answers a handler error. A stream that has not ended
// gets an error event and its end event. A plain request gets the canned
// reply and status for the error type, unless a reply was already sent.
func (a *Adapter) writeHandlerError(w http.ResponseWriter, rw *sseResponseWriter, err error, stream bool) {
	apiErr := api.AsAPIError(err)

	if stream {
		if rw.isCompleted() {
			return
		}
		ctx := context.Background()
		rw.WriteEvent(ctx, api.ErrorEvent(transport.ReplyFromError(apiErr)))
		rw.WriteEvent(ctx, api.EndEvent())
		return
	}

	if rw.hasWritten() {
		return
	}
	transport.WriteAPIError(w, apiErr)
}
