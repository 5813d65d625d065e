// Package scheduler triggers the instant sync on a fixed interval. It is
// just another external trigger: overlapping runs are refused by the
// use case's lock, not here.
package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/fekuna/omnipos-catalog-sync/internal/apperror"
	"github.com/fekuna/omnipos-catalog-sync/internal/catalogsync/dto"
	"github.com/fekuna/omnipos-catalog-sync/pkg/logger"
	"go.uber.org/zap"
)

type InstantSyncer interface {
	RunInstantSync(ctx context.Context) (*dto.InstantSyncResult, error)
}

type Scheduler struct {
	uc       InstantSyncer
	interval time.Duration
	logger   logger.ZapLogger
}

func NewScheduler(uc InstantSyncer, interval time.Duration, log logger.ZapLogger) *Scheduler {
	return &Scheduler{
		uc:       uc,
		interval: interval,
		logger:   log,
	}
}

// Start blocks until ctx is done. A non-positive interval returns at once.
func (s *Scheduler) Start(ctx context.Context) {
	if s.interval <= 0 {
		return
	}
	s.logger.Info("Starting sync scheduler", zap.Duration("interval", s.interval))

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Stopping sync scheduler")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	result, err := s.uc.RunInstantSync(ctx)
	switch {
	case errors.Is(err, apperror.ErrSyncInProgress):
		s.logger.Info("scheduled sync skipped, another run holds the lock")
	case err != nil:
		s.logger.Error("scheduled sync failed", zap.Error(err))
	default:
		for _, p := range result.Phases {
			s.logger.Info("scheduled sync phase finished",
				zap.String("phase", p.Type),
				zap.String("status", p.Status),
			)
		}
	}
}
