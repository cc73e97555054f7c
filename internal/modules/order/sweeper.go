package order

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron"
	"go.uber.org/zap"
)

// Sweeper runs CleanupExpiredReservations on a cron schedule.
type Sweeper struct {
	service Service
	cron    *cron.Cron
	timeout time.Duration
	logger  *zap.Logger
}

// NewSweeper schedules the reservation sweep. schedule uses cron syntax,
// including descriptors such as "@every 5m".
func NewSweeper(service Service, schedule string, logger *zap.Logger) (*Sweeper, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Sweeper{service: service, cron: cron.New(), timeout: time.Minute, logger: logger.Named("sweeper")}
	if err := s.cron.AddFunc(schedule, s.RunOnce); err != nil {
		return nil, fmt.Errorf("schedule reservation sweep %q: %w", schedule, err)
	}
	return s, nil
}

// RunOnce performs a single sweep.
func (s *Sweeper) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	n, err := s.service.CleanupExpiredReservations(ctx)
	if err != nil {
		s.logger.Error("reservation sweep failed", zap.Error(err))
		return
	}
	s.logger.Debug("reservation sweep done", zap.Int("cleared", n))
}

func (s *Sweeper) Start() { s.cron.Start() }
func (s *Sweeper) Stop()  { s.cron.Stop() }
