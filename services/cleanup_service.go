package services

import (
	"context"
	"errors"
	"time"

	"github.com/bihari123/reelpick/config"
	"github.com/bihari123/reelpick/logger"
	"github.com/bihari123/reelpick/repositories"
	"github.com/bihari123/reelpick/storage"
)

// CleanupService reaps orphaned staging areas: chunk blobs whose session has
// expired out of the store and that have gone stale past the retention
// window. Staging areas of failed sessions are kept while the session record
// exists, so operators can inspect them.
type CleanupService interface {
	Start(ctx context.Context)
	SweepOnce(ctx context.Context) int
}

type cleanupService struct {
	sessions repositories.SessionRepository
	store    storage.ChunkStore
}

func NewCleanupService(sessions repositories.SessionRepository, store storage.ChunkStore) CleanupService {
	return &cleanupService{sessions: sessions, store: store}
}

func (s *cleanupService) Start(ctx context.Context) {
	go func() {
		interval := time.Duration(config.AppConfig.Storage.OrphanScanIntervalSecs) * time.Second
		if interval <= 0 {
			interval = time.Hour
		}
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := s.SweepOnce(ctx); n > 0 {
					logger.L().Infow("reaped orphaned staging areas", "count", n)
				}
			}
		}
	}()
}

func (s *cleanupService) SweepOnce(ctx context.Context) int {
	retention := time.Duration(config.AppConfig.Storage.OrphanRetentionSecs) * time.Second
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	cutoff := time.Now().Add(-retention)

	entries, err := s.store.ListStaging(ctx)
	if err != nil {
		logger.L().Warnw("staging scan failed", "err", err)
		return 0
	}

	reaped := 0
	for _, entry := range entries {
		if entry.ModTime.After(cutoff) {
			continue
		}
		_, err := s.sessions.Load(ctx, entry.FileID)
		if err == nil {
			continue
		}
		if !errors.Is(err, repositories.ErrSessionNotFound) {
			// Store trouble; leave everything alone this round.
			logger.L().Warnw("session lookup failed during sweep", "file_id", entry.FileID, "err", err)
			continue
		}
		if err := s.store.RemoveStaging(ctx, entry.FileID); err != nil {
			logger.L().Warnw("staging removal failed", "file_id", entry.FileID, "err", err)
			continue
		}
		reaped++
	}
	return reaped
}
