// Package middleware defines the request interceptor contract and the
// per-request chain builder, along with the built-in interceptors
// (request id, logging, metrics).
package middleware

import (
	"context"

	"github.com/cmayhew/weft/pkg/web"
)

// Next continues the chain. A middleware that returns without calling
// next short-circuits the request: downstream links and the handler do
// not run, while upstream links still observe the final response on
// unwind.
type Next func(ctx context.Context) error

// Middleware is one link of the chain. It receives the request, the
// response under construction, and the continuation, and may mutate
// the response before or after calling next.
type Middleware func(ctx context.Context, req *web.Request, res *web.Response, next Next) error

// Terminal is the innermost invocable of a chain, typically the
// dispatcher bound to the matched handler.
type Terminal func(ctx context.Context, req *web.Request, res *web.Response) error

// Chain folds the global and route middleware lists, right to left,
// around terminal. Invocation order on entry is global then route,
// each left to right; unwind order is the exact reverse. The returned
// Terminal is built fresh per request and carries no shared state.
func Chain(global, route []Middleware, terminal Terminal) Terminal {
	next := terminal
	for _, list := range [][]Middleware{route, global} {
		for i := len(list) - 1; i >= 0; i-- {
			m, inner := list[i], next
			next = func(ctx context.Context, req *web.Request, res *web.Response) error {
				return m(ctx, req, res, func(ctx context.Context) error {
					return inner(ctx, req, res)
				})
			}
		}
	}
	return next
}
