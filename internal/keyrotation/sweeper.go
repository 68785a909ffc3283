package keyrotation

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Sweeper runs the time-based rotation check on a cron schedule so the
// index keeps moving while no builds are running.
type Sweeper struct {
	rotator *Rotator
	cron    *cron.Cron
	timeout time.Duration
}

// NewSweeper registers the check. schedule accepts standard five-field
// expressions and descriptors such as "@every 15m".
func NewSweeper(rotator *Rotator, schedule string) (*Sweeper, error) {
	s := &Sweeper{
		rotator: rotator,
		cron:    cron.New(),
		timeout: 10 * time.Second,
	}
	if _, err := s.cron.AddFunc(schedule, s.Run); err != nil {
		return nil, err
	}
	return s, nil
}

// Run performs one check
func (s *Sweeper) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if _, err := s.rotator.Current(ctx); err != nil {
		s.rotator.log.Warn("rotation sweep failed", zap.Error(err))
	}
}

func (s *Sweeper) Start() {
	s.cron.Start()
	s.rotator.log.Info("rotation sweep scheduled")
}

// Stop halts the schedule and waits for a running check to finish
func (s *Sweeper) Stop() {
	<-s.cron.Stop().Done()
}
