package middleware

import (
	"context"
	"strconv"
	"time"

	"github.com/cmayhew/weft/pkg/observability"
	"github.com/cmayhew/weft/pkg/web"
)

// Metrics returns middleware that records the request counter and
// duration histogram for each request, labeled by method and final
// status code.
func Metrics() Middleware {
	return func(ctx context.Context, req *web.Request, res *web.Response, next Next) error {
		start := time.Now()

		err := next(ctx)

		observability.RequestsTotal.WithLabelValues(req.Method, strconv.Itoa(res.Status)).Inc()
		observability.RequestDuration.WithLabelValues(req.Method).Observe(time.Since(start).Seconds())
		return err
	}
}
