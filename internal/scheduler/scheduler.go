package scheduler

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// QuotaSweeper resets free accounts whose monthly window has elapsed
type QuotaSweeper interface {
	ResetExpiredWindows(ctx context.Context) (int, error)
}

// Scheduler handles scheduled tasks
type Scheduler struct {
	cron    *cron.Cron
	sweeper QuotaSweeper
	logger  *zap.Logger
}

// NewScheduler creates a new scheduler
func NewScheduler(sweeper QuotaSweeper, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cron:    cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		sweeper: sweeper,
		logger:  logger,
	}
}

// Start registers the quota sweep and starts the scheduler
func (s *Scheduler) Start(quotaSweep string) error {
	_, err := s.cron.AddFunc(quotaSweep, func() {
		s.SweepQuotas(context.Background())
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started", zap.String("quota_sweep", quotaSweep))
	return nil
}

// SweepQuotas runs one quota sweep and returns the number of accounts reset
func (s *Scheduler) SweepQuotas(ctx context.Context) int {
	reset, err := s.sweeper.ResetExpiredWindows(ctx)
	if err != nil {
		s.logger.Error("quota sweep failed", zap.Error(err))
		return reset
	}
	s.logger.Info("quota sweep completed", zap.Int("reset", reset))
	return reset
}

// Stop stops the scheduler and waits for a running sweep to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}
