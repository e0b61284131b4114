package auth

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"
)

func TestRedisSessionStore(t *testing.T) {
	addr := os.Getenv("FRIENDGRAPH_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("FRIENDGRAPH_TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	client, err := ConnectRedis(ctx, addr, "", 15)
	if err != nil {
		t.Fatalf("connect redis: %v", err)
	}
	defer client.Close()

	store := NewRedisSessionStore(client)
	session := Session{RefreshToken: "refresh-1", UserID: "user-1", ExpiresAt: time.Now().Add(time.Hour).UTC()}

	if err := store.Save(ctx, session); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := store.Find(ctx, session.RefreshToken)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if loaded.UserID != session.UserID || !loaded.ExpiresAt.Equal(session.ExpiresAt) {
		t.Fatalf("unexpected session loaded: %+v", loaded)
	}

	ttl, err := client.TTL(ctx, redisSessionKey(session.RefreshToken)).Result()
	if err != nil {
		t.Fatalf("ttl: %v", err)
	}
	if ttl <= 0 || ttl > time.Hour {
		t.Fatalf("unexpected ttl %v", ttl)
	}

	if err := store.Delete(ctx, session.RefreshToken); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Find(ctx, session.RefreshToken); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound after delete got %v", err)
	}
	if err := store.Delete(ctx, session.RefreshToken); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound deleting twice got %v", err)
	}
}

func TestRedisSessionKeyUsesDigest(t *testing.T) {
	key := redisSessionKey("plain-token")
	if key != redisSessionPrefix+TokenDigest("plain-token") {
		t.Fatalf("unexpected key %q", key)
	}
	if len(TokenDigest("plain-token")) != 64 {
		t.Fatalf("expected hex sha256 digest")
	}
}
