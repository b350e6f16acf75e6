package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/CompilationErrror/library-auth/internal/domain/auth/repository"
	perrors "github.com/CompilationErrror/library-auth/internal/platform/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:storage-%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}
	if err := Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestUserRepositoryCreateAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))

	credential := &repository.Credential{
		Name:         "Ada",
		Surname:      "Lovelace",
		Email:        "ada@example.com",
		Username:     "ada",
		PasswordHash: "$argon2id$...",
	}
	if err := repo.Create(ctx, credential); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if credential.ID == "" {
		t.Fatalf("Create should assign an ID")
	}

	byID, err := repo.FindByID(ctx, credential.ID)
	if err != nil {
		t.Fatalf("FindByID error: %v", err)
	}
	if byID == nil || byID.Username != "ada" {
		t.Fatalf("unexpected credential: %+v", byID)
	}

	byUsername, err := repo.FindByUsername(ctx, "ada")
	if err != nil {
		t.Fatalf("FindByUsername error: %v", err)
	}
	if byUsername == nil || byUsername.ID != credential.ID {
		t.Fatalf("unexpected credential: %+v", byUsername)
	}

	byEmail, err := repo.FindByEmail(ctx, "ada@example.com")
	if err != nil {
		t.Fatalf("FindByEmail error: %v", err)
	}
	if byEmail == nil || byEmail.ID != credential.ID {
		t.Fatalf("unexpected credential: %+v", byEmail)
	}
}

func TestUserRepositoryMissReturnsNil(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))

	credential, err := repo.FindByUsername(ctx, "ghost")
	if err != nil {
		t.Fatalf("FindByUsername error: %v", err)
	}
	if credential != nil {
		t.Fatalf("expected nil for missing user, got %+v", credential)
	}
}

func TestUserRepositoryUniqueConstraints(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))

	first := &repository.Credential{Email: "ada@example.com", Username: "ada", PasswordHash: "h"}
	if err := repo.Create(ctx, first); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	dupe := &repository.Credential{Email: "ada@example.com", Username: "ada2", PasswordHash: "h"}
	err := repo.Create(ctx, dupe)
	if err == nil {
		t.Fatalf("expected unique constraint violation")
	}
	if !perrors.IsKind(err, perrors.KindStorage) {
		t.Fatalf("expected storage kind, got %v", err)
	}
}

func TestUserRepositoryUpdatePassword(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(newTestDB(t))

	credential := &repository.Credential{Email: "ada@example.com", Username: "ada", PasswordHash: "old"}
	if err := repo.Create(ctx, credential); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	if err := repo.UpdatePassword(ctx, credential.ID, "new"); err != nil {
		t.Fatalf("UpdatePassword error: %v", err)
	}

	updated, err := repo.FindByID(ctx, credential.ID)
	if err != nil {
		t.Fatalf("FindByID error: %v", err)
	}
	if updated.PasswordHash != "new" {
		t.Fatalf("password hash not updated: %+v", updated)
	}

	if err := repo.UpdatePassword(ctx, "missing-id", "new"); err == nil {
		t.Fatalf("expected error for unknown user")
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	if err := Migrate(db); err != nil {
		t.Fatalf("second Migrate error: %v", err)
	}

	var applied int64
	if err := db.Model(&MigrationRecord{}).Count(&applied).Error; err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if applied != int64(len(DefaultMigrations())) {
		t.Fatalf("applied = %d, want %d", applied, len(DefaultMigrations()))
	}
}
