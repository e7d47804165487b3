package transport

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/rhuss/omotenashi/pkg/api"
)

// Recovery returns middleware that catches panics in the handler and
// converts them to server errors. The server continues to accept new
// requests after a panic is recovered.
func Recovery() Middleware {
	return func(next ChatHandler) ChatHandler {
		return ChatHandlerFunc(func(ctx context.Context, req *api.ChatRequest, w ResponseWriter) (retErr error) {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("panic in chat handler",
						"request_id", RequestIDFromContext(ctx),
						"panic", r,
						"stack", string(debug.Stack()),
					)
					retErr = api.NewServerError(fmt.Sprintf("internal server error: %v", r))
				}
			}()
			return next.HandleChat(ctx, req, w)
		})
	}
}
