package openaicompat

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rhuss/omotenashi/pkg/api"
	"github.com/rhuss/omotenashi/pkg/provider"
)

// collectEvents runs ParseSSEStream and returns all events.
func collectEvents(t *testing.T, body io.Reader) []provider.StreamEvent {
	t.Helper()
	ch := make(chan provider.StreamEvent, 64)

	go func() {
		defer close(ch)
		ParseSSEStream(context.Background(), body, ch)
	}()

	var events []provider.StreamEvent
	for ev := range ch {
		events = append(events, ev)
	}
	return events
}

func TestParseSSEStream_TextDeltas(t *testing.T) {
	sseData := `data: {"id":"c1","choices":[{"index":0,"delta":{"role":"assistant"},"finish_reason":null}]}

data: {"id":"c1","choices":[{"index":0,"delta":{"content":"Hello"},"finish_reason":null}]}

data:{"id":"c1","choices":[{"index":0,"delta":{"content":" world"},"finish_reason":null}]}

data: {"id":"c1","choices":[{"index":0,"delta":{},"finish_reason":"stop"}]}

data: [DONE]
`
	events := collectEvents(t, strings.NewReader(sseData))
	require.Len(t, events, 4)

	want := []string{"", "Hello", " world", ""}
	for i, w := range want {
		require.NoError(t, events[i].Err, "event %d", i)
		assert.Equal(t, w, events[i].Chunk.Choices[0].Delta.Content, "event %d delta", i)
	}
	assert.Equal(t, "stop", events[3].Chunk.Choices[0].FinishReason)
}

func TestParseSSEStream_StopsAtDone(t *testing.T) {
	sseData := "data: [DONE]\n\ndata: {\"choices\":[{\"delta\":{\"content\":\"late\"}}]}\n\n"
	assert.Empty(t, collectEvents(t, strings.NewReader(sseData)), "expected no events after [DONE]")
}

func TestParseSSEStream_SkipsMalformedAndComments(t *testing.T) {
	sseData := `: keep-alive
event: message
data: {not json}

data: {"choices":[{"delta":{"content":"ok"}}]}

`
	events := collectEvents(t, strings.NewReader(sseData))
	require.Len(t, events, 1)
	assert.Equal(t, "ok", events[0].Chunk.Choices[0].Delta.Content)
}

type failingReader struct {
	data string
	read bool
}

func (r *failingReader) Read(p []byte) (int, error) {
	if !r.read {
		r.read = true
		return copy(p, r.data), nil
	}
	return 0, errors.New("connection reset")
}

func TestParseSSEStream_ReadError(t *testing.T) {
	body := &failingReader{data: "data: {\"choices\":[{\"delta\":{\"content\":\"a\"}}]}\n\n"}
	events := collectEvents(t, body)

	require.Len(t, events, 2)
	last := events[1]
	require.Error(t, last.Err, "expected terminal error event")
	assert.True(t, api.IsType(last.Err, api.ErrorTypeUpstreamTransport), "error type = %v, want upstream_transport", last.Err)
}

func TestParseSSEStream_CancelledConsumer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	// Unbuffered channel nobody reads: the parser must not block forever.
	ch := make(chan provider.StreamEvent)
	done := make(chan struct{})

	go func() {
		defer close(done)
		ParseSSEStream(ctx, strings.NewReader("data: {\"choices\":[]}\n\n"), ch)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("ParseSSEStream did not return after cancellation")
	}
}
