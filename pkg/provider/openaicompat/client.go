package openaicompat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rhuss/omotenashi/pkg/api"
	"github.com/rhuss/omotenashi/pkg/debug"
	"github.com/rhuss/omotenashi/pkg/provider"
)

// DefaultChatPath is the chat completions path of a plain OpenAI-compatible
// server.
const DefaultChatPath = "/v1/chat/completions"

// maxResponseBytes caps how much of a non-streaming response body is read.
const maxResponseBytes = 8 << 20

// Client performs HTTP requests against an OpenAI-compatible Chat Completions
// backend.
//
// Provider adapters embed this Client and delegate their Complete/Stream
// calls to it.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string

	// ChatPath is appended to the base URL for every completion call.
	// Defaults to DefaultChatPath.
	ChatPath string

	// StreamIdleTimeout bounds the silence on a streaming request: the wait
	// for response headers and every single read of the body. Defaults to
	// the client timeout. Zero disables the bound.
	StreamIdleTimeout time.Duration
}

// errStreamIdle is the cancellation cause set when a stream goes silent.
var errStreamIdle = errors.New("stream idle timeout")

// NewClient creates a new Client for an OpenAI-compatible backend.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	// Normalize: remove trailing slash from base URL.
	baseURL = strings.TrimRight(baseURL, "/")

	if timeout == 0 {
		timeout = 120 * time.Second
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL:           baseURL,
		apiKey:            apiKey,
		ChatPath:          DefaultChatPath,
		StreamIdleTimeout: timeout,
	}
}

// URL returns the full chat completions URL.
func (c *Client) URL() string {
	return c.baseURL + c.ChatPath
}

// Complete performs a non-streaming completion. The body is decoded into a
// lenient provider.CompletionResult; deciding whether it carries any text
// is left to the caller.
func (c *Client) Complete(ctx context.Context, req *provider.Request) (*provider.CompletionResult, error) {
	reqCopy := *req
	reqCopy.Stream = false

	httpReq, err := c.newRequest(ctx, &reqCopy)
	if err != nil {
		return nil, err
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, MapNetworkError(err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, MapHTTPError(httpResp)
	}

	data, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, MapNetworkError(err)
	}

	debug.Log("gateway", "backend response",
		"status", httpResp.StatusCode,
		"bytes", len(data),
	)
	debug.Trace("gateway", "backend response body", "body", debug.Truncate(string(data), 2000))

	var result provider.CompletionResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, api.NewUpstreamError(fmt.Sprintf("failed to parse backend response: %s", err.Error()))
	}

	return &result, nil
}

// Stream performs a streaming completion. It returns a channel of
// provider.StreamEvent values. The channel is closed when the stream
// completes, errors, or the context is cancelled.
//
// The HTTP client timeout is not applied for streaming requests because a
// stream can legitimately last longer than any fixed timeout. Instead the
// stream is aborted once it stays silent for StreamIdleTimeout, and the
// abort is reported as an upstream error event.
func (c *Client) Stream(ctx context.Context, req *provider.Request) (<-chan provider.StreamEvent, error) {
	reqCopy := *req
	reqCopy.Stream = true

	streamCtx, cancel := context.WithCancelCause(ctx)

	httpReq, err := c.newRequest(streamCtx, &reqCopy)
	if err != nil {
		cancel(nil)
		return nil, err
	}
	httpReq.Header.Set("Accept", "text/event-stream")

	// Use a client without timeout for streaming. The context and the idle
	// watchdog control the request lifetime instead.
	streamClient := &http.Client{
		Transport: c.httpClient.Transport,
	}

	idle := newIdleWatchdog(c.StreamIdleTimeout, func() { cancel(errStreamIdle) })

	httpResp, err := streamClient.Do(httpReq)
	if err != nil {
		idle.stop()
		timedOut := errors.Is(context.Cause(streamCtx), errStreamIdle)
		cancel(nil)
		if timedOut {
			return nil, c.idleError()
		}
		return nil, MapNetworkError(err)
	}

	// Headers arrived; from here on only body reads are bounded.
	idle.stop()

	// Check for error status codes before starting the stream.
	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		defer cancel(nil)
		defer httpResp.Body.Close()
		return nil, MapHTTPError(httpResp)
	}

	ch := make(chan provider.StreamEvent, 16)

	go func() {
		defer close(ch)
		defer cancel(nil)
		defer idle.stop()
		defer httpResp.Body.Close()

		ParseSSEStream(streamCtx, idle.reader(httpResp.Body), ch)

		// The parser treats the watchdog's cancellation like a caller
		// cancellation and stops quietly; the consumer still needs to
		// learn the stream failed.
		if errors.Is(context.Cause(streamCtx), errStreamIdle) && ctx.Err() == nil {
			debug.Log("gateway", "stream idle timeout", "after", c.StreamIdleTimeout)
			send(ctx, ch, provider.StreamEvent{Err: c.idleError()})
		}
	}()

	return ch, nil
}

func (c *Client) idleError() *api.APIError {
	return api.NewUpstreamError(fmt.Sprintf("backend stream sent nothing for %s", c.StreamIdleTimeout))
}

// Close releases client resources.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *Client) newRequest(ctx context.Context, req *provider.Request) (*http.Request, error) {
	body, err := json.Marshal(TranslateToChat(req))
	if err != nil {
		return nil, api.NewUpstreamError(fmt.Sprintf("failed to marshal request: %s", err.Error()))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL(), bytes.NewReader(body))
	if err != nil {
		return nil, api.NewUpstreamError(fmt.Sprintf("failed to create HTTP request: %s", err.Error()))
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	debug.Log("gateway", "backend request",
		"url", c.URL(),
		"model", req.Model,
		"stream", req.Stream,
		"messages", len(req.Messages),
	)

	return httpReq, nil
}
