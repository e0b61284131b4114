package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vidfriends/friendgraph/internal/auth"
	"github.com/vidfriends/friendgraph/internal/config"
	"github.com/vidfriends/friendgraph/internal/db"
	"github.com/vidfriends/friendgraph/internal/events"
	"github.com/vidfriends/friendgraph/internal/friends"
	"github.com/vidfriends/friendgraph/internal/handlers"
	"github.com/vidfriends/friendgraph/internal/middleware"
	"github.com/vidfriends/friendgraph/internal/repositories"
)

type cleanupFunc func(ctx context.Context) error

// buildDependencies wires together concrete implementations used by the HTTP
// handlers. The returned cleanup releases background workers and clients in
// reverse order of construction.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config, logger *slog.Logger) (handlers.Dependencies, cleanupFunc, error) {
	var closers []cleanupFunc
	cleanup := func(ctx context.Context) error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i](ctx))
		}
		return errors.Join(errs...)
	}

	var sessionStore auth.SessionStore
	switch cfg.SessionBackend {
	case config.SessionBackendRedis:
		client, err := auth.ConnectRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return handlers.Dependencies{}, nil, err
		}
		closers = append(closers, func(context.Context) error { return client.Close() })
		sessionStore = auth.NewRedisSessionStore(client)
	default:
		sessionStore = repositories.NewPostgresSessionStore(pool)
	}

	var publisher friends.EventPublisher
	if cfg.Events.Enabled() {
		sink, err := events.ConnectNATS(events.NATSConfig{URL: cfg.Events.NATSURL, Subject: cfg.Events.Subject})
		if err != nil {
			_ = cleanup(ctx)
			return handlers.Dependencies{}, nil, fmt.Errorf("configure event publisher: %w", err)
		}
		dispatcher := events.NewDispatcher(sink, events.DispatcherConfig{
			QueueSize: cfg.Events.QueueSize,
			Workers:   cfg.Events.Workers,
		}, logger)
		closers = append(closers,
			func(context.Context) error { return sink.Close() },
			dispatcher.Shutdown,
		)
		publisher = dispatcher
	}

	users := repositories.NewPostgresUserRepository(pool)
	friendships := repositories.NewPostgresFriendshipRepository(pool)
	limit := cfg.RateLimit

	deps := handlers.Dependencies{
		Users:         users,
		Sessions:      auth.NewManager([]byte(cfg.JWTSecret), cfg.AccessTokenTTL, cfg.RefreshTTL, sessionStore),
		Friends:       friends.NewService(users, friendships, publisher),
		Health:        pool.Ping,
		AuthLimiter:   middleware.NewIPRateLimiter(limit.Requests, limit.Window, limit.Burst, limit.TTL),
		FriendLimiter: middleware.NewIPRateLimiter(limit.Requests, limit.Window, limit.Burst, limit.TTL),
	}

	return deps, cleanup, nil
}
