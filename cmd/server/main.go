// Command server runs the weft demo server.
//
// Configuration is layered: built-in defaults, a YAML file (-config
// flag, WEFT_CONFIG, ./config.yaml, /etc/weft/config.yaml), then
// WEFT_* environment variable overrides. See pkg/config.
package main

import (
	"context"
	"crypto/rand"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/cmayhew/weft/pkg/auth"
	"github.com/cmayhew/weft/pkg/config"
	"github.com/cmayhew/weft/pkg/demo"
	"github.com/cmayhew/weft/pkg/dispatch"
	"github.com/cmayhew/weft/pkg/middleware"
	"github.com/cmayhew/weft/pkg/negotiate"
	"github.com/cmayhew/weft/pkg/observability"
	"github.com/cmayhew/weft/pkg/router"
	"github.com/cmayhew/weft/pkg/server"
	"github.com/cmayhew/weft/pkg/session"
	"github.com/cmayhew/weft/pkg/storage"
	"github.com/cmayhew/weft/pkg/storage/postgres"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Stores.
	users, groups, err := buildStores(ctx, cfg)
	if err != nil {
		return err
	}
	logger.Info("storage ready", "type", cfg.Storage.Type)

	// Auth. An ephemeral secret keeps development setups working but
	// invalidates tokens on restart.
	secret := []byte(cfg.Auth.Secret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		rand.Read(secret)
		logger.Warn("auth.secret not configured, using an ephemeral secret")
	}
	authSvc := auth.NewService(secret, cfg.Auth.TokenTTL)

	// Session store with its background sweep.
	sessions := session.NewStore(cfg.Session.Timeout, cfg.Session.SweepInterval, logger)
	go sessions.Run(ctx)

	// Routes.
	table := router.New()
	demo.RegisterRoutes(table,
		&demo.UserController{Users: users, Groups: groups},
		&demo.GroupController{Groups: groups},
		&demo.AccountController{Auth: authSvc},
		authSvc, logger)

	dispatcher := dispatch.New(negotiate.New(), logger)

	// Metrics endpoint on its own listener.
	if cfg.Observability.Metrics.Enabled {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			logger.Info("metrics listening", "addr", cfg.Observability.Metrics.Addr)
			if err := http.ListenAndServe(cfg.Observability.Metrics.Addr, mux); err != nil {
				logger.Error("metrics endpoint failed", "error", err)
			}
		}()
	}

	srv := server.New(server.Config{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		MaxConnections: cfg.Server.MaxConnections,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		ReadTimeout:    cfg.Server.ReadTimeout,
		RequestTimeout: cfg.Server.RequestTimeout,
	}, table, sessions, dispatcher, logger,
		middleware.RequestID(),
		middleware.Logging(logger),
		middleware.Metrics(),
	)

	return srv.ListenAndServe(ctx)
}

// buildStores creates the user and group stores per the storage config.
func buildStores(ctx context.Context, cfg *config.Config) (storage.Store[*demo.User], storage.Store[*demo.UserGroup], error) {
	switch cfg.Storage.Type {
	case "postgres":
		pool, err := postgres.Connect(ctx, postgres.Config{
			DSN:      cfg.Storage.Postgres.DSN,
			MaxConns: cfg.Storage.Postgres.MaxConns,
		})
		if err != nil {
			return nil, nil, err
		}
		if cfg.Storage.Postgres.MigrateOnStart {
			if err := postgres.Migrate(ctx, pool, demo.DDL); err != nil {
				return nil, nil, err
			}
		}
		return postgres.NewStore(pool, demo.UserSchema()),
			postgres.NewStore(pool, demo.UserGroupSchema()), nil

	default:
		users, groups := demo.NewMemoryStores()
		return users, groups, nil
	}
}
