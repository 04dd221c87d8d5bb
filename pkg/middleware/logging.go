package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/cmayhew/weft/pkg/web"
)

// Logging returns middleware that emits one structured log entry per
// request, after the rest of the chain has unwound. The entry carries
// method, path, final status, duration, and the request id from the
// context.
func Logging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, req *web.Request, res *web.Response, next Next) error {
		start := time.Now()

		err := next(ctx)

		attrs := []slog.Attr{
			slog.String("request_id", RequestIDFromContext(ctx)),
			slog.String("method", req.Method),
			slog.String("path", req.Path),
			slog.Int("status", res.Status),
			slog.Duration("duration", time.Since(start)),
		}

		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
			logger.LogAttrs(ctx, slog.LevelError, "request failed", attrs...)
		} else {
			logger.LogAttrs(ctx, slog.LevelInfo, "request completed", attrs...)
		}

		return err
	}
}
