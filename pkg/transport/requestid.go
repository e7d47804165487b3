package transport

import (
	"context"

	"github.com/google/uuid"

	"github.com/rhuss/omotenashi/pkg/api"
)

// RequestID returns middleware that assigns a unique request ID to each
// request. If the incoming request context already carries a request ID
// (set by the HTTP adapter from the X-Request-ID header), that value is
// used. Otherwise, a new unique ID is generated.
func RequestID() Middleware {
	return func(next ChatHandler) ChatHandler {
		return ChatHandlerFunc(func(ctx context.Context, req *api.ChatRequest, w ResponseWriter) error {
			if RequestIDFromContext(ctx) == "" {
				ctx = ContextWithRequestID(ctx, NewRequestID())
			}
			return next.HandleChat(ctx, req, w)
		})
	}
}

// NewRequestID creates a new random (version 4) UUID request ID.
func NewRequestID() string {
	return uuid.NewString()
}
