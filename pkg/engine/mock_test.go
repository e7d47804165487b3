package engine

import (
	"context"
	"errors"
	"sync"

	"github.com/rhuss/omotenashi/pkg/api"
	"github.com/rhuss/omotenashi/pkg/provider"
)

// mockProvider is a scripted provider.Provider.
type mockProvider struct {
	mu sync.Mutex

	completeRes *provider.CompletionResult
	completeErr error

	streamEvents []provider.StreamEvent
	streamErr    error

	completeCalls int
	streamCalls   int
	requests      []*provider.Request
	closed        bool
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) Complete(_ context.Context, req *provider.Request) (*provider.CompletionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completeCalls++
	m.requests = append(m.requests, req)
	return m.completeRes, m.completeErr
}

func (m *mockProvider) Stream(_ context.Context, req *provider.Request) (<-chan provider.StreamEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.streamCalls++
	m.requests = append(m.requests, req)
	if m.streamErr != nil {
		return nil, m.streamErr
	}
	ch := make(chan provider.StreamEvent, len(m.streamEvents))
	for _, ev := range m.streamEvents {
		ch <- ev
	}
	close(ch)
	return ch, nil
}

func (m *mockProvider) Close() error {
	m.closed = true
	return nil
}

func reply(text string) *provider.CompletionResult {
	return &provider.CompletionResult{
		Choices: []provider.Choice{{
			Message: provider.ResultMessage{Role: "assistant", Content: text, IsObject: true},
		}},
		Raw: []byte(`{"choices":[]}`),
	}
}

func delta(text string) provider.StreamEvent {
	return provider.StreamEvent{Chunk: &provider.Chunk{
		Choices: []provider.ChunkChoice{{
			Delta: provider.ResultMessage{Content: text, IsObject: true},
		}},
	}}
}

func streamFailure() provider.StreamEvent {
	return provider.StreamEvent{Err: api.NewUpstreamError("connection reset")}
}

// recordingWriter captures everything the engine writes.
type recordingWriter struct {
	events []api.StreamEvent
	reply  *api.ChatReply

	// onEvent runs after each recorded event.
	onEvent func(api.StreamEvent)
	// failOn makes WriteEvent fail for events of this type.
	failOn api.StreamEventType
}

var errWrite = errors.New("client gone")

func (w *recordingWriter) WriteEvent(_ context.Context, ev api.StreamEvent) error {
	if w.failOn != "" && ev.Type == w.failOn {
		return errWrite
	}
	w.events = append(w.events, ev)
	if w.onEvent != nil {
		w.onEvent(ev)
	}
	return nil
}

func (w *recordingWriter) WriteReply(_ context.Context, r *api.ChatReply) error {
	w.reply = r
	return nil
}

func (w *recordingWriter) Flush() error { return nil }

func (w *recordingWriter) types() []api.StreamEventType {
	out := make([]api.StreamEventType, len(w.events))
	for i, ev := range w.events {
		out[i] = ev.Type
	}
	return out
}

func (w *recordingWriter) tokens() []string {
	var out []string
	for _, ev := range w.events {
		if ev.Type == api.EventToken {
			out = append(out, ev.T)
		}
	}
	return out
}

func (w *recordingWriter) ends() int {
	n := 0
	for _, ev := range w.events {
		if ev.Type == api.EventEnd {
			n++
		}
	}
	return n
}

func newTestEngine(p *mockProvider) *Engine {
	cfg := Config{Model: "omotenashi-agent", FallbackDelay: NoDelay}
	if p == nil {
		return New(NewGateway(nil, cfg), cfg)
	}
	return New(NewGateway(p, cfg), cfg)
}
