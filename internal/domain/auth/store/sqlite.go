package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/CompilationErrror/library-auth/internal/domain/auth/model"
	"github.com/CompilationErrror/library-auth/internal/platform/storage"
)

type sqliteStore struct {
	db *gorm.DB
}

// NewSQLite builds a relational refresh token store. Revocation keeps the
// row and flips a flag; rotation relies on an optimistic single-row update
// so concurrent claims cannot both succeed.
func NewSQLite(db *gorm.DB, _ Config) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlite store requires database handle")
	}
	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) Store(ctx context.Context, record model.TokenRecord) error {
	if record.Token == "" {
		return fmt.Errorf("refresh token required")
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	row := &storage.RefreshToken{
		Token:     record.Token,
		UserID:    record.UserID,
		ExpiresAt: record.ExpiresAt,
		Revoked:   record.Revoked,
		CreatedAt: record.CreatedAt,
	}
	if len(record.Metadata) > 0 {
		meta, err := json.Marshal(record.Metadata)
		if err != nil {
			return err
		}
		row.Metadata = meta
	}
	return s.db.WithContext(ctx).Create(row).Error
}

func (s *sqliteStore) Get(ctx context.Context, token string) (model.TokenRecord, error) {
	var row storage.RefreshToken
	err := s.db.WithContext(ctx).Where("token = ?", token).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.TokenRecord{}, ErrTokenNotFound
	}
	if err != nil {
		return model.TokenRecord{}, err
	}
	return fromRow(&row), nil
}

func (s *sqliteStore) Claim(ctx context.Context, token string) (model.TokenRecord, error) {
	var claimed model.TokenRecord

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// the single-row compare-and-set: only one concurrent claim flips
		// the revoked flag
		res := tx.Model(&storage.RefreshToken{}).
			Where("token = ? AND revoked = ?", token, false).
			Update("revoked", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrTokenNotFound
		}

		var row storage.RefreshToken
		if err := tx.Where("token = ?", token).First(&row).Error; err != nil {
			return err
		}
		claimed = fromRow(&row)
		return nil
	})
	if err != nil {
		return model.TokenRecord{}, err
	}
	return claimed, nil
}

func (s *sqliteStore) Revoke(ctx context.Context, token string) error {
	return s.db.WithContext(ctx).
		Model(&storage.RefreshToken{}).
		Where("token = ?", token).
		Update("revoked", true).
		Error
}

func (s *sqliteStore) CleanupExpired(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("revoked = ? OR expires_at < ?", true, time.Now()).
		Delete(&storage.RefreshToken{})
	return res.RowsAffected, res.Error
}

func (s *sqliteStore) Stats(ctx context.Context) (map[string]any, error) {
	var total, revoked int64
	if err := s.db.WithContext(ctx).Model(&storage.RefreshToken{}).Count(&total).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).
		Model(&storage.RefreshToken{}).
		Where("revoked = ?", true).
		Count(&revoked).Error; err != nil {
		return nil, err
	}
	return map[string]any{
		"type":    "sqlite",
		"total":   total,
		"revoked": revoked,
	}, nil
}

func (s *sqliteStore) Close(context.Context) error {
	return nil
}

func fromRow(row *storage.RefreshToken) model.TokenRecord {
	record := model.TokenRecord{
		Token:     row.Token,
		UserID:    row.UserID,
		ExpiresAt: row.ExpiresAt,
		Revoked:   row.Revoked,
		CreatedAt: row.CreatedAt,
	}
	if len(row.Metadata) > 0 {
		var meta map[string]string
		if err := json.Unmarshal(row.Metadata, &meta); err == nil {
			record.Metadata = meta
		}
	}
	return record
}
