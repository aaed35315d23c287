// file: service/cleanup_service.go

package service

import (
	"context"
	"go-habit-auth/common"
	"go-habit-auth/logger"
	"go-habit-auth/repository"
	"time"

	"github.com/sirupsen/logrus"
)

// CleanupService periodically sweeps expired rows out of both token stores.
// The sweep is storage hygiene only: validation re-checks expiry on every
// request, so a missed or failed sweep never affects correctness.
type CleanupService struct {
	tokenRepo     repository.ITokenRepository
	blacklistRepo repository.IBlacklistRepository
	interval      time.Duration
	clock         common.Clock
}

// NewCleanupService creates a new CleanupService.
func NewCleanupService(tokenRepo repository.ITokenRepository, blacklistRepo repository.IBlacklistRepository, interval time.Duration, clock common.Clock) *CleanupService {
	return &CleanupService{
		tokenRepo:     tokenRepo,
		blacklistRepo: blacklistRepo,
		interval:      interval,
		clock:         clock,
	}
}

// Run blocks, sweeping on every interval tick until the context is
// cancelled. Sweep failures are logged and left for the next tick; they are
// never fatal to request serving.
func (s *CleanupService) Run(ctx context.Context) {
	logger.Log.WithField("interval", s.interval).Info("Cleanup scheduler started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Log.Info("Cleanup scheduler stopped")
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Sweep runs one pass over both stores and returns the deletion counts.
// Deleting only rows whose expiry is strictly in the past makes the sweep
// safe to run concurrently with live traffic.
func (s *CleanupService) Sweep() (refreshDeleted, blacklistDeleted int64) {
	now := s.clock.Now()

	refreshDeleted, err := s.tokenRepo.DeleteExpired(now)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to sweep expired refresh tokens")
	}

	blacklistDeleted, err = s.blacklistRepo.DeleteExpired(now)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to sweep expired blacklist entries")
	}

	logger.Log.WithFields(logrus.Fields{
		"refresh_deleted":   refreshDeleted,
		"blacklist_deleted": blacklistDeleted,
	}).Info("Cleanup sweep finished")

	return refreshDeleted, blacklistDeleted
}
