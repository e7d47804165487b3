package transport

import (
	"context"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/rhuss/omotenashi/pkg/api"
)

// Logging returns middleware that emits one structured log entry per chat
// request. The user text itself is not logged, only its length.
//
// Empty input is logged as completed; every other classified failure is
// logged at error level with its type and diagnostic message.
func Logging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next ChatHandler) ChatHandler {
		return ChatHandlerFunc(func(ctx context.Context, req *api.ChatRequest, w ResponseWriter) error {
			start := time.Now()

			err := next.HandleChat(ctx, req, w)

			attrs := []slog.Attr{
				slog.String("request_id", RequestIDFromContext(ctx)),
				slog.Bool("stream", req.Stream),
				slog.Int("text_chars", utf8.RuneCountInString(req.Text)),
				slog.Duration("duration", time.Since(start)),
			}

			if err != nil && !api.IsType(err, api.ErrorTypeEmptyInput) {
				apiErr := api.AsAPIError(err)
				attrs = append(attrs,
					slog.String("error_type", string(apiErr.Type)),
					slog.String("error", apiErr.Message),
				)
				logger.LogAttrs(ctx, slog.LevelError, "request failed", attrs...)
			} else {
				logger.LogAttrs(ctx, slog.LevelInfo, "request completed", attrs...)
			}

			return err
		})
	}
}
