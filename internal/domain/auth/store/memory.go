package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/CompilationErrror/library-auth/internal/domain/auth/model"
)

type memoryStore struct {
	items       map[string]model.TokenRecord
	mutex       sync.RWMutex
	cleanupFreq time.Duration
	stop        chan struct{}
	stopOnce    sync.Once
}

// NewMemory builds an in-memory refresh token store. Revoked records are
// retained until the GC loop or CleanupExpired removes them, mirroring the
// relational backend's behaviour.
func NewMemory(cfg Config) Store {
	cleanup := 5 * time.Minute
	if cfg.Memory != nil && cfg.Memory.GCInterval > 0 {
		cleanup = cfg.Memory.GCInterval
	}
	s := &memoryStore{
		items:       make(map[string]model.TokenRecord),
		cleanupFreq: cleanup,
		stop:        make(chan struct{}),
	}
	go s.gcLoop()
	return s
}

func (s *memoryStore) gcLoop() {
	ticker := time.NewTicker(s.cleanupFreq)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			_, _ = s.CleanupExpired(context.Background())
		case <-s.stop:
			return
		}
	}
}

func (s *memoryStore) Store(_ context.Context, record model.TokenRecord) error {
	if record.Token == "" {
		return fmt.Errorf("refresh token required")
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	s.mutex.Lock()
	s.items[record.Token] = record
	s.mutex.Unlock()
	return nil
}

func (s *memoryStore) Get(_ context.Context, token string) (model.TokenRecord, error) {
	s.mutex.RLock()
	record, ok := s.items[token]
	s.mutex.RUnlock()
	if !ok {
		return model.TokenRecord{}, ErrTokenNotFound
	}
	return record, nil
}

func (s *memoryStore) Claim(_ context.Context, token string) (model.TokenRecord, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	record, ok := s.items[token]
	if !ok || record.Revoked {
		return model.TokenRecord{}, ErrTokenNotFound
	}
	record.Revoked = true
	s.items[token] = record
	return record, nil
}

func (s *memoryStore) Revoke(_ context.Context, token string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	record, ok := s.items[token]
	if !ok {
		return nil
	}
	record.Revoked = true
	s.items[token] = record
	return nil
}

func (s *memoryStore) CleanupExpired(_ context.Context) (int64, error) {
	now := time.Now()
	var removed int64

	s.mutex.Lock()
	for token, record := range s.items {
		if record.Revoked || record.Expired(now) {
			delete(s.items, token)
			removed++
		}
	}
	s.mutex.Unlock()
	return removed, nil
}

func (s *memoryStore) Stats(_ context.Context) (map[string]any, error) {
	now := time.Now()
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	total := len(s.items)
	active := 0
	for _, record := range s.items {
		if !record.Revoked && !record.Expired(now) {
			active++
		}
	}
	return map[string]any{
		"type":   "memory",
		"total":  total,
		"active": active,
	}, nil
}

func (s *memoryStore) Close(_ context.Context) error {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	return nil
}
