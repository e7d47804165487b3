// Command mock-backend runs a fake Databricks serving endpoint for local
// development. It answers Chat Completions requests at
// /serving-endpoints/chat/completions with canned Japanese text and can
// misbehave on demand to exercise the gateway's fallback paths.
//
// Modes:
//
//	stream        - stream tokens, answer one-shot calls normally (default)
//	empty-stream  - stream only a role chunk, so the gateway falls back
//	broken-stream - stream two tokens, then cut the connection
//	stalled-stream - stream only a role chunk, then go silent
//	messages      - answer one-shot calls in the agent messages[] shape
//	no-content    - answer one-shot calls without any text
//	fail          - answer everything with HTTP 500
//
// Point the gateway at it with DATABRICKS_HOST=http://localhost:9090.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

const chatPath = "/serving-endpoints/chat/completions"

// Mode values.
const (
	modeStream       = "stream"
	modeEmptyStream  = "empty-stream"
	modeBrokenStream = "broken-stream"
	modeStalled      = "stalled-stream"
	modeMessages     = "messages"
	modeNoContent    = "no-content"
	modeFail         = "fail"
)

var modes = map[string]bool{
	modeStream:       true,
	modeEmptyStream:  true,
	modeBrokenStream: true,
	modeStalled:      true,
	modeMessages:     true,
	modeNoContent:    true,
	modeFail:         true,
}

// replyText is the canned answer, with the Markdown the gateway strips.
const replyText = "## おもてなし規格認証\n**おもてなし規格認証**はサービス品質の見える化を支援する制度です。\n- 紅認証\n- 金認証\n\n\n公式サイト：https://www.service-design.jp/"

// streamTokens is replyText cut into upstream deltas.
var streamTokens = []string{"おもてなし", "規格認証は", "サービス品質の", "見える化を", "支援します。"}

func main() {
	var (
		port  int
		mode  string
		delay time.Duration
	)

	rootCmd := &cobra.Command{
		Use:          "mock-backend",
		Short:        "Fake Databricks serving endpoint",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !modes[mode] {
				return fmt.Errorf("unknown mode %q", mode)
			}
			return serve(port, &backend{mode: mode, delay: delay})
		},
	}

	rootCmd.Flags().IntVarP(&port, "port", "p", envInt("MOCK_PORT", 9090), "Listen port")
	rootCmd.Flags().StringVarP(&mode, "mode", "m", envOr("MOCK_MODE", modeStream), "Behaviour mode")
	rootCmd.Flags().DurationVar(&delay, "delay", 30*time.Millisecond, "Pause between streamed chunks")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serve(port int, b *backend) error {
	mux := http.NewServeMux()
	mux.Handle("POST "+chatPath, b)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})

	srv := &http.Server{Addr: ":" + strconv.Itoa(port), Handler: mux}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("mock backend starting", "port", port, "mode", b.mode)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("mock backend shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// --- Request types ---

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	Stream      bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// --- Handler ---

// backend serves the chat completions route in one mode.
type backend struct {
	mode  string
	delay time.Duration
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") == "" {
		writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "missing bearer token")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body")
		return
	}

	slog.Info("chat request", "model", req.Model, "stream", req.Stream, "messages", len(req.Messages))

	if b.mode == modeFail {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "mock failure")
		return
	}

	if req.Stream {
		b.stream(w, r, &req)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(b.completion(&req))
}

// completion builds the one-shot body for the current mode.
func (b *backend) completion(req *chatRequest) map[string]any {
	switch b.mode {
	case modeMessages:
		return map[string]any{
			"messages": []any{
				map[string]any{"role": "user", "content": lastUserMessage(req)},
				map[string]any{"role": "assistant", "content": replyText},
			},
		}
	case modeNoContent:
		return map[string]any{
			"id":      "chatcmpl-mock",
			"object":  "chat.completion",
			"choices": []any{map[string]any{"index": 0, "message": map[string]any{"role": "assistant"}}},
		}
	default:
		return map[string]any{
			"id":     "chatcmpl-mock",
			"object": "chat.completion",
			"model":  req.Model,
			"choices": []any{map[string]any{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": replyText},
				"finish_reason": "stop",
			}},
		}
	}
}

// --- Streaming ---

func (b *backend) stream(w http.ResponseWriter, r *http.Request, req *chatRequest) {
	rc := http.NewResponseController(w)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	writeChunk(w, req.Model, map[string]any{"role": "assistant"}, nil)
	rc.Flush()

	tokens := streamTokens
	switch b.mode {
	case modeEmptyStream:
		tokens = nil
	case modeBrokenStream:
		tokens = streamTokens[:2]
	case modeStalled:
		// Role chunk only, then nothing until the client hangs up.
		<-r.Context().Done()
		return
	}

	for _, tok := range tokens {
		select {
		case <-r.Context().Done():
			return
		case <-time.After(b.delay):
		}
		writeChunk(w, req.Model, map[string]any{"content": tok}, nil)
		rc.Flush()
	}

	if b.mode == modeBrokenStream {
		// Abort the response mid-body; the client sees a read error.
		panic(http.ErrAbortHandler)
	}

	stop := "stop"
	writeChunk(w, req.Model, map[string]any{}, &stop)
	fmt.Fprint(w, "data: [DONE]\n\n")
	rc.Flush()
}

func writeChunk(w http.ResponseWriter, model string, delta map[string]any, finish *string) {
	chunk := map[string]any{
		"id":     "chatcmpl-mock-stream",
		"object": "chat.completion.chunk",
		"model":  model,
		"choices": []any{map[string]any{
			"index":         0,
			"delta":         delta,
			"finish_reason": finish,
		}},
	}
	data, _ := json.Marshal(chunk)
	fmt.Fprintf(w, "data: %s\n\n", data)
}

// writeError answers in the Databricks error shape.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"error_code": code, "message": message})
}

// --- Helpers ---

func lastUserMessage(req *chatRequest) string {
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			return req.Messages[i].Content
		}
	}
	return ""
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return fallback
}
