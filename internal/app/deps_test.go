package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vidfriends/friendgraph/internal/config"
)

type fakePool struct {
	pingErr error
}

func (fakePool) Acquire(context.Context) (*pgxpool.Conn, error) {
	return nil, errors.New("not implemented")
}

func (fakePool) BeginTx(context.Context, pgx.TxOptions) (pgx.Tx, error) {
	return nil, errors.New("not implemented")
}

func (p fakePool) Ping(context.Context) error { return p.pingErr }

func (fakePool) Close() {}

func testConfig() config.Config {
	return config.Config{
		JWTSecret:      "test-secret",
		AccessTokenTTL: time.Minute,
		RefreshTTL:     time.Hour,
		SessionBackend: config.SessionBackendPostgres,
		RateLimit:      config.RateLimitConfig{Requests: 10, Window: time.Second, Burst: 5, TTL: time.Minute},
	}
}

func TestBuildDependencies(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	deps, cleanup, err := buildDependencies(context.Background(), fakePool{}, testConfig(), logger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cleanup == nil {
		t.Fatal("expected cleanup function")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		if err := cleanup(ctx); err != nil {
			t.Fatalf("cleanup: %v", err)
		}
	}()

	if deps.Users == nil {
		t.Fatal("expected user repository to be configured")
	}
	if deps.Sessions == nil {
		t.Fatal("expected session manager to be configured")
	}
	if deps.Friends == nil {
		t.Fatal("expected friend service to be configured")
	}
	if deps.AuthLimiter == nil || deps.FriendLimiter == nil {
		t.Fatal("expected rate limiters to be configured")
	}
	if deps.Health == nil || deps.Health(context.Background()) != nil {
		t.Fatal("expected health check bound to the pool")
	}
}

func TestBuildDependenciesRejectsUnreachableBrokers(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := testConfig()
	cfg.Events = config.EventsConfig{NATSURL: "nats://127.0.0.1:1", Subject: "test"}
	if _, _, err := buildDependencies(context.Background(), fakePool{}, cfg, logger); err == nil {
		t.Fatal("expected nats connection error")
	}

	cfg = testConfig()
	cfg.SessionBackend = config.SessionBackendRedis
	cfg.Redis = config.RedisConfig{Addr: "127.0.0.1:1"}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, _, err := buildDependencies(ctx, fakePool{}, cfg, logger); err == nil {
		t.Fatal("expected redis connection error")
	}
}
