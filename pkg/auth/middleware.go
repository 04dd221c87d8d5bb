package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/cmayhew/weft/pkg/middleware"
	"github.com/cmayhew/weft/pkg/web"
)

// RequireAuth returns middleware that resolves the caller from a
// bearer token and attaches the principal to the request. A missing or
// invalid token short-circuits the chain with a 401; that is normal
// control flow, not an error, so outer middleware still observes the
// final response on unwind.
func RequireAuth(svc *Service, logger *slog.Logger) middleware.Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, req *web.Request, res *web.Response, next middleware.Next) error {
		token, ok := bearerToken(req)
		if !ok {
			unauthorized(res)
			return nil
		}

		principal, err := svc.Verify(token)
		if err != nil {
			logger.WarnContext(ctx, "authentication failed",
				"path", req.Path,
				"error", err,
			)
			unauthorized(res)
			return nil
		}

		req.Principal = principal
		return next(ctx)
	}
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(req *web.Request) (string, bool) {
	header := req.Header("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return "", false
	}
	return token, true
}

// unauthorized shapes the short-circuit response.
func unauthorized(res *web.Response) {
	res.Status = http.StatusUnauthorized
	res.ContentType = "text/plain"
	res.Body = "authentication required"
}
