// Package router compiles path templates into matchers and resolves
// incoming requests against them.
//
// Patterns consist of literal segments, matched verbatim, and {name}
// placeholders, each matching exactly one non-slash segment and
// capturing it under name. There is no further constraint syntax.
// Overlapping patterns are tolerated: routes are tried in registration
// order and the first full match wins, regardless of which pattern is
// more specific. Callers that want "/users/all" to beat "/users/{id}"
// must register it first.
package router

import (
	"strings"

	"github.com/cmayhew/weft/pkg/dispatch"
	"github.com/cmayhew/weft/pkg/middleware"
)

// segment is one compiled pattern element: a literal, or a named
// placeholder when param is non-empty.
type segment struct {
	literal string
	param   string
}

// Route is one registered entry: a compiled matcher, a method, the
// bound handler, and the route-specific middleware. Immutable after
// registration.
type Route struct {
	Method     string
	Pattern    string
	Handler    dispatch.Handler
	Middleware []middleware.Middleware

	segments []segment
}

// Match is the transient result of a successful lookup.
type Match struct {
	Handler    dispatch.Handler
	Params     map[string]string
	Middleware []middleware.Middleware
}

// Table is the route table. Register everything at startup; Handle is
// not safe to call concurrently with Match.
type Table struct {
	routes []*Route
}

// New returns an empty route table.
func New() *Table {
	return &Table{}
}

// Handle compiles pattern and appends the route to the table. The
// registration order is the match order.
func (t *Table) Handle(method, pattern string, h dispatch.Handler, mw ...middleware.Middleware) {
	t.routes = append(t.routes, &Route{
		Method:     method,
		Pattern:    pattern,
		Handler:    h,
		Middleware: mw,
		segments:   compile(pattern),
	})
}

// Match scans the table in registration order and returns the first
// route whose pattern matches path in full (anchored at both ends) and
// whose method equals method case-insensitively. Returns false when
// nothing matches; the caller maps that to a 404.
func (t *Table) Match(method, path string) (*Match, bool) {
	parts := splitPath(path)

	for _, r := range t.routes {
		if !strings.EqualFold(r.Method, method) {
			continue
		}
		params, ok := r.match(parts)
		if !ok {
			continue
		}
		return &Match{
			Handler:    r.Handler,
			Params:     params,
			Middleware: r.Middleware,
		}, true
	}
	return nil, false
}

// match checks the compiled segments against the split path and
// extracts placeholder captures.
func (r *Route) match(parts []string) (map[string]string, bool) {
	if len(parts) != len(r.segments) {
		return nil, false
	}

	var params map[string]string
	for i, seg := range r.segments {
		if seg.param == "" {
			if parts[i] != seg.literal {
				return nil, false
			}
			continue
		}
		if parts[i] == "" {
			return nil, false
		}
		if params == nil {
			params = make(map[string]string)
		}
		params[seg.param] = parts[i]
	}
	return params, true
}

// compile splits a pattern into segments, recognizing {name}
// placeholders.
func compile(pattern string) []segment {
	parts := splitPath(pattern)
	segs := make([]segment, len(parts))
	for i, p := range parts {
		if len(p) > 2 && p[0] == '{' && p[len(p)-1] == '}' {
			segs[i] = segment{param: p[1 : len(p)-1]}
		} else {
			segs[i] = segment{literal: p}
		}
	}
	return segs
}

// splitPath splits on "/" with leading and trailing slashes removed,
// so "/users/all" and "/users/all/" segment identically. The root path
// yields a single empty segment.
func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return []string{""}
	}
	return strings.Split(path, "/")
}
