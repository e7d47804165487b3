// Package transport defines the handler contract and middleware chain for
// the chat gateway's HTTP/SSE transport layer.
//
// The transport layer decodes incoming requests into the types defined in
// pkg/api, dispatches them to a ChatHandler, and serializes the result back
// to the client either as one JSON reply or as a stream of SSE events.
//
// # Handler Interface
//
// ChatHandler is the single contract between the transport layer and the
// engine. The ResponseWriter it receives abstracts both output modes, so
// the engine emits stream events or a reply without knowing the wire
// format.
//
// # Middleware
//
// The middleware chain wraps ChatHandler with cross-cutting concerns.
// Built-in middleware provides panic recovery, request ID assignment
// (X-Request-ID), and structured logging via log/slog.
//
// # Error Replies
//
// Failures are classified as *api.APIError. HTTPStatusFromError and
// ReplyFromError turn a classification into the status code and the
// canned, user-safe reply text; error detail never reaches the client.
package transport
