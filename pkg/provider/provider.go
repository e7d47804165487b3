package provider

import (
	"context"
)

// Provider abstracts a chat completion backend.
//
// Implementations must be safe for concurrent use by multiple goroutines.
type Provider interface {
	// Name returns the provider identifier (e.g., "databricks").
	Name() string

	// Complete performs one non-streaming completion.
	Complete(ctx context.Context, req *Request) (*CompletionResult, error)

	// Stream performs a streaming completion. The returned channel receives
	// StreamEvent values and is closed by the provider when the stream
	// completes, fails or the context is cancelled. Cancelling ctx releases
	// the underlying connection.
	Stream(ctx context.Context, req *Request) (<-chan StreamEvent, error)

	// Close releases provider resources (HTTP clients, connections).
	Close() error
}
