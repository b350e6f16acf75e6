package auth

import (
	"context"
	"sync"
	"time"

	"github.com/CompilationErrror/library-auth/internal/domain/auth/model"
	"github.com/CompilationErrror/library-auth/internal/domain/auth/store"
)

const defaultSweepInterval = 24 * time.Hour

// Sweeper periodically purges revoked and expired refresh token records
// from persistent storage. The first sweep happens one interval after
// Start; sweep failures are logged and the loop keeps running.
type Sweeper struct {
	tokens   store.Store
	logger   model.Logger
	interval time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

// NewSweeper builds a sweeper over the given token store.
func NewSweeper(tokens store.Store, logger model.Logger, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &Sweeper{
		tokens:   tokens,
		logger:   logger,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

// Start launches the sweep loop in the background.
func (s *Sweeper) Start() {
	go s.run()
}

func (s *Sweeper) run() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stop:
			return
		}
	}
}

// sweep runs one full cleanup batch; shutdown only interrupts the loop
// between batches.
func (s *Sweeper) sweep() {
	removed, err := s.tokens.CleanupExpired(context.Background())
	if err != nil {
		s.logger.Error("token cleanup failed: %v", err)
		return
	}
	if removed > 0 {
		s.logger.Info("removed %d revoked or expired refresh tokens", removed)
	}
}

// Close stops the loop. Safe to call more than once.
func (s *Sweeper) Close() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
}
