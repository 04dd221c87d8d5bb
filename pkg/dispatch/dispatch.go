// Package dispatch binds request data to handler arguments, invokes
// the handler, and normalizes whatever it returns into the response.
//
// Parameter sources are declared explicitly per argument with a
// Binding descriptor: an argument is either the request itself or a
// value deserialized from the request body according to its declared
// Content-Type.
package dispatch

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"log/slog"
	"net/http"
	"strings"

	"github.com/cmayhew/weft/pkg/negotiate"
	"github.com/cmayhew/weft/pkg/web"
)

// Source says where one handler argument comes from.
type Source int

const (
	// FromRequest passes the request object itself.
	FromRequest Source = iota

	// FromBody deserializes the request body into a freshly allocated
	// target value.
	FromBody
)

// Binding describes how one handler argument is resolved.
type Binding struct {
	Source Source

	// New allocates the deserialization target for FromBody bindings.
	// It must return a pointer.
	New func() any
}

// Request returns a binding that passes the request object.
func Request() Binding {
	return Binding{Source: FromRequest}
}

// Body returns a binding that deserializes the request body into a
// value allocated by alloc.
func Body(alloc func() any) Binding {
	return Binding{Source: FromBody, New: alloc}
}

// Func is the invocable part of a handler. It receives the resolved
// argument list, in binding order, and returns either a *web.Response
// or any value to be serialized through the negotiated format.
type Func func(ctx context.Context, args []any) (any, error)

// Handler pairs an invocable with its declared argument bindings.
type Handler struct {
	Bindings []Binding
	Func     Func
}

// Dispatcher resolves handler arguments, invokes handlers, and
// finishes responses through the content negotiator.
type Dispatcher struct {
	negotiator *negotiate.Negotiator
	logger     *slog.Logger
}

// New creates a dispatcher using the given negotiator.
func New(n *negotiate.Negotiator, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{negotiator: n, logger: logger}
}

// Dispatch runs h for req and writes the normalized result into res.
//
// A handler returning a *web.Response keeps that response's body
// verbatim; only an unset content type is defaulted to the negotiated
// format. Any other return value is serialized through the negotiated
// format into res with the status left as-is (200 unless middleware
// changed it). A returned error propagates to the caller, which maps
// it to a generic failure response.
func (d *Dispatcher) Dispatch(ctx context.Context, req *web.Request, res *web.Response, h Handler) error {
	format := d.negotiator.Negotiate(req)

	args := make([]any, len(h.Bindings))
	for i, b := range h.Bindings {
		switch b.Source {
		case FromBody:
			args[i] = d.decodeBody(ctx, req, b)
		default:
			args[i] = req
		}
	}

	out, err := h.Func(ctx, args)
	if err != nil {
		return err
	}

	// A typed-nil response carries nothing; fold it into the nil case.
	if r, ok := out.(*web.Response); ok && r == nil {
		out = nil
	}

	switch v := out.(type) {
	case nil:
		if res.ContentType == "" {
			res.ContentType = format
		}
	case *web.Response:
		res.Status = v.Status
		res.Body = v.Body
		res.ContentType = v.ContentType
		if res.ContentType == "" {
			res.ContentType = format
		}
		res.Cookies = append(res.Cookies, v.Cookies...)
	default:
		if res.Status == 0 {
			res.Status = http.StatusOK
		}
		res.Body = d.negotiator.Serialize(v, format)
		res.ContentType = format
	}

	return nil
}

// decodeBody deserializes the request body for a FromBody binding.
// The declared Content-Type selects the codec: XML when it says so,
// JSON otherwise (including when unspecified). A decode failure is
// logged and the argument is left unresolved (nil) so the handler can
// decide how to answer; the request is not aborted.
func (d *Dispatcher) decodeBody(ctx context.Context, req *web.Request, b Binding) any {
	target := b.New()

	var err error
	if strings.Contains(req.Header("Content-Type"), "xml") {
		err = xml.Unmarshal([]byte(req.Body), target)
	} else {
		err = json.Unmarshal([]byte(req.Body), target)
	}

	if err != nil {
		d.logger.WarnContext(ctx, "body deserialization failed",
			"path", req.Path,
			"content_type", req.Header("Content-Type"),
			"error", err,
		)
		return nil
	}
	return target
}
