package openaicompat

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"

	"github.com/rhuss/omotenashi/pkg/api"
	"github.com/rhuss/omotenashi/pkg/debug"
	"github.com/rhuss/omotenashi/pkg/provider"
)

// maxChunkBytes is the longest single SSE line the parser accepts.
const maxChunkBytes = 1 << 20

// ParseSSEStream reads Chat Completions SSE chunks from the given reader,
// decodes each into a provider.Chunk and sends it on ch. The channel is NOT
// closed by this function; the caller is responsible for closing it.
//
// SSE format expected:
//
//	data: {"id":"...","choices":[...]}\n
//	\n
//	data: [DONE]\n
//	\n
//
// Malformed chunks are logged and skipped. A read failure is sent as a
// terminal event carrying an upstream error. Context cancellation stops
// reading immediately.
func ParseSSEStream(ctx context.Context, body io.Reader, ch chan<- provider.StreamEvent) {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxChunkBytes)

	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}

		line := scanner.Text()

		// Lines that are not data fields are ignored
		// (e.g., empty lines, comments starting with ":", event names).
		payload, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}
		payload = strings.TrimPrefix(payload, " ")

		if payload == "[DONE]" {
			return
		}

		var chunk provider.Chunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			slog.Warn("skipping malformed SSE chunk",
				"error", err.Error(),
				"data", debug.Truncate(payload, 200),
			)
			continue
		}

		debug.Trace("gateway", "stream chunk", "data", debug.Truncate(payload, 500))

		if !send(ctx, ch, provider.StreamEvent{Chunk: &chunk}) {
			return
		}
	}

	if err := scanner.Err(); err != nil {
		// Context cancellation is not an error from our perspective.
		if ctx.Err() != nil {
			return
		}
		send(ctx, ch, provider.StreamEvent{
			Err: api.NewUpstreamError("SSE stream read error: " + err.Error()),
		})
	}
}

// send delivers ev unless the consumer has gone away.
func send(ctx context.Context, ch chan<- provider.StreamEvent, ev provider.StreamEvent) bool {
	select {
	case ch <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
