package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/CompilationErrror/library-auth/internal/domain/auth/model"
)

type redisStore struct {
	client *redis.Client
	prefix string
}

// NewRedis constructs a redis-backed refresh token store. Expiry is
// delegated to redis TTLs and revocation deletes the key outright, so a
// revoked token can never be observed again.
func NewRedis(cfg Config) (Store, error) {
	if cfg.Redis == nil {
		return nil, fmt.Errorf("redis configuration missing")
	}
	if cfg.Redis.Addr == "" {
		return nil, fmt.Errorf("redis address required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	prefix := cfg.Redis.Prefix
	if prefix == "" {
		prefix = "refresh:"
	}
	return &redisStore{
		client: client,
		prefix: prefix,
	}, nil
}

func (s *redisStore) key(token string) string {
	return s.prefix + token
}

func (s *redisStore) Store(ctx context.Context, record model.TokenRecord) error {
	if record.Token == "" {
		return fmt.Errorf("refresh token required")
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	expiry := time.Until(record.ExpiresAt)
	if expiry <= 0 {
		return fmt.Errorf("refresh token already expired")
	}

	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(record.Token), data, expiry).Err()
}

func (s *redisStore) Get(ctx context.Context, token string) (model.TokenRecord, error) {
	raw, err := s.client.Get(ctx, s.key(token)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return model.TokenRecord{}, ErrTokenNotFound
		}
		return model.TokenRecord{}, err
	}
	return s.decode(raw)
}

// Claim uses GETDEL so that two concurrent claims for the same token
// resolve to exactly one winner.
func (s *redisStore) Claim(ctx context.Context, token string) (model.TokenRecord, error) {
	raw, err := s.client.GetDel(ctx, s.key(token)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return model.TokenRecord{}, ErrTokenNotFound
		}
		return model.TokenRecord{}, err
	}
	record, err := s.decode(raw)
	if err != nil {
		return model.TokenRecord{}, err
	}
	record.Revoked = true
	return record, nil
}

func (s *redisStore) Revoke(ctx context.Context, token string) error {
	return s.client.Del(ctx, s.key(token)).Err()
}

func (s *redisStore) CleanupExpired(context.Context) (int64, error) {
	// Redis evicts expired keys natively and revocation deletes keys.
	return 0, nil
}

func (s *redisStore) Stats(ctx context.Context) (map[string]any, error) {
	size, err := s.client.DBSize(ctx).Result()
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"type":  "redis",
		"total": size,
	}, nil
}

func (s *redisStore) Close(context.Context) error {
	return s.client.Close()
}

func (s *redisStore) decode(raw []byte) (model.TokenRecord, error) {
	var record model.TokenRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return model.TokenRecord{}, err
	}
	return record, nil
}
