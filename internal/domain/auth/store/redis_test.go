package store

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"github.com/CompilationErrror/library-auth/internal/domain/auth/model"
)

func newTestRedisStore(t *testing.T) (Store, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	store, err := NewRedis(Config{
		TTL: time.Hour,
		Redis: &RedisConfig{
			Addr: mr.Addr(),
		},
	})
	if err != nil {
		t.Fatalf("NewRedis error: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close(context.Background())
	})
	return store, mr
}

func TestRedisStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestRedisStore(t)

	record := model.TokenRecord{
		Token:     "redis-token",
		UserID:    "user-1",
		ExpiresAt: time.Now().Add(time.Hour),
		Metadata:  map[string]string{"user_agent": "test"},
	}
	if err := store.Store(ctx, record); err != nil {
		t.Fatalf("Store error: %v", err)
	}

	got, err := store.Get(ctx, record.Token)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.UserID != record.UserID || got.Metadata["user_agent"] != "test" {
		t.Fatalf("unexpected record: %+v", got)
	}

	claimed, err := store.Claim(ctx, record.Token)
	if err != nil {
		t.Fatalf("Claim error: %v", err)
	}
	if !claimed.Revoked {
		t.Fatalf("claimed record should be marked revoked")
	}

	if _, err := store.Claim(ctx, record.Token); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("second claim should fail, got %v", err)
	}
	if _, err := store.Get(ctx, record.Token); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("claimed token should be deleted, got %v", err)
	}
}

func TestRedisStoreKeyTTL(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestRedisStore(t)

	record := model.TokenRecord{
		Token:     "ttl-token",
		UserID:    "user-1",
		ExpiresAt: time.Now().Add(time.Minute),
	}
	if err := store.Store(ctx, record); err != nil {
		t.Fatalf("Store error: %v", err)
	}

	ttl := mr.TTL("refresh:" + record.Token)
	if ttl <= 0 || ttl > time.Minute {
		t.Fatalf("unexpected key TTL: %v", ttl)
	}

	mr.FastForward(2 * time.Minute)
	if _, err := store.Get(ctx, record.Token); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("token should expire with the key, got %v", err)
	}
}

func TestRedisStoreRejectsExpiredRecord(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestRedisStore(t)

	record := model.TokenRecord{
		Token:     "stale-token",
		UserID:    "user-1",
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	if err := store.Store(ctx, record); err == nil {
		t.Fatalf("expected error storing an already expired record")
	}
}

func TestRedisStoreRevoke(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestRedisStore(t)

	record := model.TokenRecord{
		Token:     "revoke-token",
		UserID:    "user-1",
		ExpiresAt: time.Now().Add(time.Hour),
	}
	if err := store.Store(ctx, record); err != nil {
		t.Fatalf("Store error: %v", err)
	}

	if err := store.Revoke(ctx, record.Token); err != nil {
		t.Fatalf("Revoke error: %v", err)
	}
	if err := store.Revoke(ctx, record.Token); err != nil {
		t.Fatalf("second Revoke error: %v", err)
	}
	if _, err := store.Get(ctx, record.Token); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("revoked token should be gone, got %v", err)
	}
}
