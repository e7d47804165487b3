package transport

import (
	"context"

	"github.com/rhuss/omotenashi/pkg/api"
)

// ChatHandler handles one chat request. It writes either stream events or
// a single reply to the ResponseWriter, depending on req.Stream. A returned
// error that was not yet written is turned into a reply by the transport.
type ChatHandler interface {
	HandleChat(ctx context.Context, req *api.ChatRequest, w ResponseWriter) error
}

// ChatHandlerFunc is an adapter that allows using an ordinary function
// as a ChatHandler.
type ChatHandlerFunc func(ctx context.Context, req *api.ChatRequest, w ResponseWriter) error

// HandleChat calls f(ctx, req, w).
func (f ChatHandlerFunc) HandleChat(ctx context.Context, req *api.ChatRequest, w ResponseWriter) error {
	return f(ctx, req, w)
}

// ResponseWriter abstracts streaming and non-streaming output for the handler.
// The transport layer creates a ResponseWriter for each request.
//
// WriteEvent and WriteReply are mutually exclusive on a single writer
// instance. Calling WriteEvent after the end event has been written
// returns an error.
type ResponseWriter interface {
	// WriteEvent sends a single streaming event.
	WriteEvent(ctx context.Context, event api.StreamEvent) error

	// WriteReply sends a complete successful reply.
	WriteReply(ctx context.Context, reply *api.ChatReply) error

	// Flush ensures buffered data is sent to the client. Returns an error
	// if the client has disconnected.
	Flush() error
}
