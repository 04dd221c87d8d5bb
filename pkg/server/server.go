// Package server contains the listener loop and the per-connection
// handler: it frames one TCP connection into a request, resolves the
// session, matches the route, runs the middleware chain around the
// dispatcher, and writes the response. Exactly one response is written
// per connection; there is no keep-alive.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/cmayhew/weft/pkg/dispatch"
	"github.com/cmayhew/weft/pkg/middleware"
	"github.com/cmayhew/weft/pkg/observability"
	"github.com/cmayhew/weft/pkg/router"
	"github.com/cmayhew/weft/pkg/session"
)

// Config holds the server's runtime settings.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string

	// MaxConnections bounds simultaneous in-flight connections.
	// Connections beyond the bound are answered 503 and closed.
	MaxConnections int64

	// MaxBodyBytes caps the declared request body size. Zero means
	// web.DefaultMaxBodyBytes.
	MaxBodyBytes int64

	// ReadTimeout bounds reading the request from the socket.
	ReadTimeout time.Duration

	// RequestTimeout bounds the processing of one request; the context
	// handed to middleware and handlers is cancelled when it elapses.
	RequestTimeout time.Duration
}

// Server drives the request lifecycle pipeline.
type Server struct {
	cfg        Config
	routes     *router.Table
	sessions   *session.Store
	dispatcher *dispatch.Dispatcher
	global     []middleware.Middleware
	logger     *slog.Logger
	limiter    *semaphore.Weighted

	// ready is closed once the listener is bound; Addr is valid after.
	ready chan struct{}
	addr  net.Addr
}

// New assembles a server. Global middleware run, in order, outside any
// route-specific middleware on every request, including synthesized
// 404s.
func New(cfg Config, routes *router.Table, sessions *session.Store, d *dispatch.Dispatcher, logger *slog.Logger, global ...middleware.Middleware) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxConnections <= 0 {
		cfg.MaxConnections = 1024
	}
	return &Server{
		cfg:        cfg,
		routes:     routes,
		sessions:   sessions,
		dispatcher: d,
		global:     global,
		logger:     logger,
		limiter:    semaphore.NewWeighted(cfg.MaxConnections),
		ready:      make(chan struct{}),
	}
}

// Addr returns the bound listener address. Valid once ListenAndServe
// has bound; before that it returns nil.
func (s *Server) Addr() net.Addr {
	select {
	case <-s.ready:
		return s.addr
	default:
		return nil
	}
}

// ListenAndServe binds the listener and accepts connections until ctx
// is cancelled, then waits for in-flight connections to finish before
// returning. A bind failure is returned immediately and is the one
// fatal startup condition. Each accepted connection is handled on its
// own goroutine; the accept loop never waits on a connection.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	s.addr = ln.Addr()
	close(s.ready)

	// Unblock Accept on shutdown.
	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	s.logger.Info("server listening", "addr", s.addr.String())

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				// Drain: every in-flight connection holds one unit of
				// the limiter, so acquiring the full weight blocks
				// until the last handler has released its slot.
				s.limiter.Acquire(context.Background(), s.cfg.MaxConnections)
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			return err
		}

		if !s.limiter.TryAcquire(1) {
			observability.ConnectionsRejectedTotal.Inc()
			writeFailure(conn, http.StatusServiceUnavailable)
			conn.Close()
			continue
		}

		go func() {
			defer s.limiter.Release(1)
			s.handleConn(ctx, conn)
		}()
	}
}
