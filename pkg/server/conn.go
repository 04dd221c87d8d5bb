package server

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/cmayhew/weft/pkg/middleware"
	"github.com/cmayhew/weft/pkg/observability"
	"github.com/cmayhew/weft/pkg/web"
)

// handleConn processes exactly one request on conn and closes it. Any
// panic anywhere in the pipeline is converted into a 500 here, so a
// broken handler or middleware can never take down the listener loop.
func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	observability.ConnectionsActive.Inc()
	defer observability.ConnectionsActive.Dec()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic handling connection",
				"remote_addr", conn.RemoteAddr().String(),
				"panic", r,
			)
			writeFailure(conn, http.StatusInternalServerError)
		}
	}()

	if s.cfg.ReadTimeout > 0 {
		conn.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	}

	req, err := web.ReadRequest(bufio.NewReader(conn), s.cfg.MaxBodyBytes)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, web.ErrBodyTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		s.logger.Warn("rejecting unreadable request",
			"remote_addr", conn.RemoteAddr().String(),
			"error", err,
		)
		writeFailure(conn, status)
		return
	}

	if s.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.RequestTimeout)
		defer cancel()
	}

	res := web.NewResponse()

	// Session resolution. A newly minted session travels back to the
	// client as a cookie on this response.
	sess, created := s.sessions.GetOrCreate(req.SessionID())
	req.Session = sess
	if created {
		res.SetCookie(web.Cookie{
			Name:     web.SessionCookie,
			Value:    sess.ID,
			Path:     "/",
			HttpOnly: true,
		})
	}

	// Route matching. A miss still runs the global middleware around a
	// synthesized 404 terminal.
	var (
		terminal middleware.Terminal
		routeMW  []middleware.Middleware
	)
	if match, ok := s.routes.Match(req.Method, req.Path); ok {
		req.Params = match.Params
		routeMW = match.Middleware
		handler := match.Handler
		terminal = func(ctx context.Context, req *web.Request, res *web.Response) error {
			return s.dispatcher.Dispatch(ctx, req, res, handler)
		}
	} else {
		terminal = notFound
	}

	chain := middleware.Chain(s.global, routeMW, terminal)
	if err := chain(ctx, req, res); err != nil {
		s.logger.Error("request pipeline failed",
			"method", req.Method,
			"path", req.Path,
			"error", err,
		)
		writeFailure(conn, http.StatusInternalServerError)
		return
	}

	if err := res.Write(conn); err != nil {
		s.logger.Warn("writing response failed",
			"remote_addr", conn.RemoteAddr().String(),
			"error", err,
		)
	}
}

// notFound is the terminal used when no route matches.
func notFound(_ context.Context, _ *web.Request, res *web.Response) error {
	res.Status = http.StatusNotFound
	res.ContentType = "text/plain"
	res.Body = "Not Found"
	return nil
}

// writeFailure emits a bare failure response outside the normal
// pipeline, for faults where no request or response object exists.
func writeFailure(w io.Writer, status int) {
	res := &web.Response{
		Status:      status,
		ContentType: "text/plain",
		Body:        http.StatusText(status),
	}
	res.Write(w)
}
