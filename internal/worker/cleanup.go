package worker

import (
	"context"
	"log"
	"sync"
	"time"

	"quillblog/internal/repository"
)

const (
	// DefaultCleanupInterval is how often expired tokens are purged
	DefaultCleanupInterval = 1 * time.Hour

	// DefaultRetention keeps expired tokens around briefly so reuse
	// detection can still see recently rotated-out tokens
	DefaultRetention = 24 * time.Hour
)

// TokenJanitor periodically deletes expired refresh tokens so the table does
// not grow without bound.
type TokenJanitor struct {
	repo      repository.RefreshTokenRepository
	interval  time.Duration
	retention time.Duration

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// JanitorConfig holds configuration for the token janitor.
type JanitorConfig struct {
	Interval  time.Duration // Time between cleanup runs
	Retention time.Duration // How long past expiry tokens are kept
}

// DefaultJanitorConfig returns sensible defaults.
func DefaultJanitorConfig() JanitorConfig {
	return JanitorConfig{
		Interval:  DefaultCleanupInterval,
		Retention: DefaultRetention,
	}
}

// NewTokenJanitor creates a new janitor.
func NewTokenJanitor(repo repository.RefreshTokenRepository, cfg JanitorConfig) *TokenJanitor {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultCleanupInterval
	}
	if cfg.Retention <= 0 {
		cfg.Retention = DefaultRetention
	}

	return &TokenJanitor{
		repo:      repo,
		interval:  cfg.Interval,
		retention: cfg.Retention,
	}
}

// Start begins the cleanup goroutine. Call Stop() to shut down.
func (j *TokenJanitor) Start(ctx context.Context) {
	j.ctx, j.cancel = context.WithCancel(ctx)

	log.Printf("[Janitor] Starting, interval=%v retention=%v", j.interval, j.retention)

	j.wg.Add(1)
	go j.run()
}

// Stop shuts down the janitor. Blocks until the goroutine has finished.
func (j *TokenJanitor) Stop() {
	log.Printf("[Janitor] Stopping...")
	j.cancel()
	j.wg.Wait()
	log.Printf("[Janitor] Stopped")
}

// run is the main loop: one cleanup pass per tick until cancelled.
func (j *TokenJanitor) run() {
	defer j.wg.Done()

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	// First pass on startup so restarts don't delay cleanup by a full interval
	j.cleanup()

	for {
		select {
		case <-j.ctx.Done():
			return
		case <-ticker.C:
			j.cleanup()
		}
	}
}

func (j *TokenJanitor) cleanup() {
	deleted, err := j.repo.DeleteExpired(j.ctx, j.retention)
	if err != nil {
		log.Printf("[Janitor] Cleanup failed: %v", err)
		return
	}
	if deleted > 0 {
		log.Printf("[Janitor] Deleted %d expired refresh tokens", deleted)
	}
}
