package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/CompilationErrror/library-auth/internal/domain/auth/model"
	"github.com/CompilationErrror/library-auth/internal/platform/storage"
)

func newTestSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:test-%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	if err := db.AutoMigrate(&storage.RefreshToken{}); err != nil {
		t.Fatalf("auto migrate: %v", err)
	}
	return db
}

func TestSQLiteStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	db := newTestSQLiteDB(t)

	store, err := NewSQLite(db, Config{TTL: time.Hour})
	if err != nil {
		t.Fatalf("NewSQLite error: %v", err)
	}

	record := model.TokenRecord{
		Token:     "sqlite-token",
		UserID:    "user-1",
		ExpiresAt: time.Now().Add(time.Hour),
		Metadata:  map[string]string{"ip": "10.0.0.1"},
	}
	if err := store.Store(ctx, record); err != nil {
		t.Fatalf("Store error: %v", err)
	}

	got, err := store.Get(ctx, record.Token)
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.UserID != record.UserID || got.Metadata["ip"] != "10.0.0.1" {
		t.Fatalf("unexpected record: %+v", got)
	}

	claimed, err := store.Claim(ctx, record.Token)
	if err != nil {
		t.Fatalf("Claim error: %v", err)
	}
	if !claimed.Revoked {
		t.Fatalf("claimed record should be revoked")
	}

	if _, err := store.Claim(ctx, record.Token); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("second claim should fail, got %v", err)
	}

	got, err = store.Get(ctx, record.Token)
	if err != nil {
		t.Fatalf("Get after claim error: %v", err)
	}
	if !got.Revoked {
		t.Fatalf("row should keep the revoked flag")
	}
}

func TestSQLiteStoreCleanupExpired(t *testing.T) {
	ctx := context.Background()
	db := newTestSQLiteDB(t)

	store, err := NewSQLite(db, Config{})
	if err != nil {
		t.Fatalf("NewSQLite error: %v", err)
	}

	now := time.Now()
	seed := []model.TokenRecord{
		{Token: "active", UserID: "u", ExpiresAt: now.Add(time.Hour)},
		{Token: "expired", UserID: "u", ExpiresAt: now.Add(-time.Minute)},
		{Token: "revoked", UserID: "u", ExpiresAt: now.Add(time.Hour), Revoked: true},
	}
	for _, record := range seed {
		if err := store.Store(ctx, record); err != nil {
			t.Fatalf("Store %s error: %v", record.Token, err)
		}
	}

	removed, err := store.CleanupExpired(ctx)
	if err != nil {
		t.Fatalf("CleanupExpired error: %v", err)
	}
	if removed != 2 {
		t.Fatalf("removed = %d, want 2", removed)
	}

	if _, err := store.Get(ctx, "active"); err != nil {
		t.Fatalf("active token should survive cleanup: %v", err)
	}
	if _, err := store.Get(ctx, "revoked"); !errors.Is(err, ErrTokenNotFound) {
		t.Fatalf("revoked token should be deleted, got %v", err)
	}
}

func TestSQLiteStoreConcurrentClaimSingleWinner(t *testing.T) {
	ctx := context.Background()
	db := newTestSQLiteDB(t)

	store, err := NewSQLite(db, Config{})
	if err != nil {
		t.Fatalf("NewSQLite error: %v", err)
	}

	record := model.TokenRecord{Token: "contested", UserID: "u", ExpiresAt: time.Now().Add(time.Hour)}
	if err := store.Store(ctx, record); err != nil {
		t.Fatalf("Store error: %v", err)
	}

	const claimers = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	wins := 0
	for i := 0; i < claimers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Claim(ctx, record.Token); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("claim winners = %d, want exactly 1", wins)
	}
}

func TestSQLiteStoreStats(t *testing.T) {
	ctx := context.Background()
	db := newTestSQLiteDB(t)

	store, err := NewSQLite(db, Config{})
	if err != nil {
		t.Fatalf("NewSQLite error: %v", err)
	}

	now := time.Now()
	_ = store.Store(ctx, model.TokenRecord{Token: "a", UserID: "u", ExpiresAt: now.Add(time.Hour)})
	_ = store.Store(ctx, model.TokenRecord{Token: "b", UserID: "u", ExpiresAt: now.Add(time.Hour), Revoked: true})

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats error: %v", err)
	}
	if stats["total"] != int64(2) || stats["revoked"] != int64(1) {
		t.Fatalf("unexpected stats: %v", stats)
	}
}
