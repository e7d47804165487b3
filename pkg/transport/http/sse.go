package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/rhuss/omotenashi/pkg/api"
	"github.com/rhuss/omotenashi/pkg/transport"
)

// writerState tracks the state of an SSE ResponseWriter.
type writerState int

const (
	writerIdle      writerState = iota // Initial state, no writes yet
	writerStreaming                    // WriteEvent has been called at least once
	writerCompleted                    // End event sent or WriteReply called
)

// endFrame is the fixed frame that closes a stream. The browser client
// listens for the named "end" event.
const endFrame = "event: end\ndata: {}\n\n"

// errWriterCompleted is returned for writes after the stream has ended.
var errWriterCompleted = errors.New("cannot write event: writer is completed")

// sseResponseWriter implements transport.ResponseWriter for HTTP responses.
// It writes stream events as SSE frames or a single JSON reply.
type sseResponseWriter struct {
	w  http.ResponseWriter
	rc *http.ResponseController

	mu    sync.Mutex
	state writerState
}

var _ transport.ResponseWriter = (*sseResponseWriter)(nil)

// newSSEResponseWriter creates a new ResponseWriter wrapping an http.ResponseWriter.
func newSSEResponseWriter(w http.ResponseWriter) *sseResponseWriter {
	return &sseResponseWriter{
		w:  w,
		rc: http.NewResponseController(w),
	}
}

// WriteEvent sends a single SSE event. Start, token and error events are
// formatted as an unnamed message:
//
//	data: {json}\n
//	\n
//
// The end event is named and carries an empty object:
//
//	event: end\n
//	data: {}\n
//	\n
//
// Every frame is flushed immediately.
func (s *sseResponseWriter) WriteEvent(_ context.Context, event api.StreamEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == writerCompleted {
		return errWriterCompleted
	}

	// First event: set SSE headers.
	if s.state == writerIdle {
		h := s.w.Header()
		h.Set("Content-Type", "text/event-stream")
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
		h.Set("X-Accel-Buffering", "no")
		s.state = writerStreaming
	}

	var frame []byte
	if event.IsTerminal() {
		frame = []byte(endFrame)
		s.state = writerCompleted
	} else {
		data, err := marshalEvent(event)
		if err != nil {
			return fmt.Errorf("failed to marshal event: %w", err)
		}
		frame = make([]byte, 0, len(data)+8)
		frame = append(frame, "data: "...)
		frame = append(frame, data...)
		frame = append(frame, "\n\n"...)
	}

	if _, err := s.w.Write(frame); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	if err := s.rc.Flush(); err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}
	return nil
}

// marshalEvent encodes an event without HTML escaping so Japanese text and
// URLs reach the client unchanged.
func marshalEvent(event api.StreamEvent) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(event); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// WriteReply sends a complete JSON reply with status 200.
// This is mutually exclusive with WriteEvent.
func (s *sseResponseWriter) WriteReply(_ context.Context, reply *api.ChatReply) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == writerStreaming {
		return errors.New("cannot write reply: streaming has already started")
	}
	if s.state == writerCompleted {
		return errors.New("cannot write reply: writer is completed")
	}

	s.state = writerCompleted
	transport.WriteReply(s.w, reply, http.StatusOK)
	return nil
}

// Flush ensures buffered data is sent to the client.
func (s *sseResponseWriter) Flush() error {
	return s.rc.Flush()
}

// hasWritten returns true once anything was sent.
func (s *sseResponseWriter) hasWritten() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state != writerIdle
}

// isCompleted returns true after the end event or a reply was written.
func (s *sseResponseWriter) isCompleted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == writerCompleted
}
