package services

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Sweeper deletes stale rows and reports how many went
type Sweeper interface {
	Sweep(ctx context.Context) (int64, error)
}

// SweepService periodically removes expired sessions and tokens
type SweepService struct {
	cron     *cron.Cron
	sweepers map[string]Sweeper
	lg       *zap.SugaredLogger
}

// NewSweepService creates a sweep service; sweepers are keyed by a name used
// in logs
func NewSweepService(sweepers map[string]Sweeper, lg *zap.SugaredLogger) *SweepService {
	return &SweepService{
		cron:     cron.New(),
		sweepers: sweepers,
		lg:       lg,
	}
}

// Start schedules the sweep on spec (standard cron or "@every 15m") and starts
// the scheduler
func (s *SweepService) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.RunOnce); err != nil {
		return err
	}
	s.cron.Start()
	s.lg.Infow("session sweep scheduled", "spec", spec)
	return nil
}

// Stop stops the scheduler and waits for a running sweep
func (s *SweepService) Stop() {
	<-s.cron.Stop().Done()
}

// RunOnce sweeps every store once
func (s *SweepService) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	for name, sw := range s.sweepers {
		n, err := sw.Sweep(ctx)
		if err != nil {
			s.lg.Errorw("sweep failed", "store", name, "error", err)
			continue
		}
		if n > 0 {
			s.lg.Infow("swept stale rows", "store", name, "rows", n)
		}
	}
}
