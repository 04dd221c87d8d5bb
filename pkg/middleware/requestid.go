package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/cmayhew/weft/pkg/web"
)

// requestIDKeyType is the context key type for request IDs.
type requestIDKeyType struct{}

var requestIDKey = requestIDKeyType{}

// RequestIDFromContext extracts the request ID from the context.
// Returns an empty string if no request ID is set.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return ""
}

// ContextWithRequestID returns a new context with the given request ID.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID returns middleware that assigns a unique id to each
// request. If the client supplied an X-Request-ID header that value is
// kept, otherwise a new one is generated. The id travels on the
// context and can be retrieved with RequestIDFromContext.
func RequestID() Middleware {
	return func(ctx context.Context, req *web.Request, res *web.Response, next Next) error {
		id := req.Header("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		return next(ContextWithRequestID(ctx, id))
	}
}
