// Package api defines the wire types shared by the omotenashi chat gateway.
//
// The browser talks to the gateway with two shapes only: a [ChatRequest]
// carrying the user's text and a [ChatReply] carrying the answer. The
// streaming endpoint emits [StreamEvent] values (start, token, error, end)
// framed as server-sent events.
//
// Failures are represented by [APIError], whose [ErrorType] identifies the
// failure class (missing configuration, upstream transport failure, content
// extraction failure). The transport layer maps each class to an HTTP status
// and a user-safe reply; raw detail never leaves the server.
//
// The package performs no I/O and depends only on the standard library.
package api
