package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/vidfriends/friendgraph/internal/config"
	"github.com/vidfriends/friendgraph/internal/db"
	"github.com/vidfriends/friendgraph/internal/handlers"
	"github.com/vidfriends/friendgraph/internal/httpserver"
	"github.com/vidfriends/friendgraph/internal/logging"
	"github.com/vidfriends/friendgraph/internal/middleware"
)

// Run dispatches one of the friendgraph commands: serve, migrate or seed.
func Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("expected command: serve, migrate, or seed")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)
	ctx = logging.WithLogger(ctx, logger)

	switch args[0] {
	case "serve":
		return serve(ctx, cfg, logger)
	case "migrate":
		return runMigrations(ctx, cfg, args[1:])
	case "seed":
		return runSeed(ctx, cfg, args[1:])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func serve(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	deps, cleanup, err := buildDependencies(ctx, pool, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), httpserver.ShutdownTimeout)
		defer cancel()
		if err := cleanup(shutdownCtx); err != nil {
			logger.Warn("release dependencies", "error", err)
		}
	}()

	handler := middleware.RequestLogger(logger)(handlers.NewRouter(deps))
	srv := httpserver.New(cfg.AppPort, handler, logger)

	logger.Info("starting http server",
		"port", cfg.AppPort,
		"sessionBackend", cfg.SessionBackend,
		"eventsEnabled", cfg.Events.Enabled(),
	)

	return srv.Run(ctx)
}
