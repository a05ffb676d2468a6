// Package sweep runs the subscription expiry sweep on a schedule.
package sweep

import (
	"context"
	"fmt"
	"time"

	"github.com/jcpaschoal/painel-swim/business/domain/subscriptionbus"
	"github.com/jcpaschoal/painel-swim/foundation/logger"
	"github.com/robfig/cron/v3"
)

// Sweeper moves expired subscriptions forward.
type Sweeper interface {
	Sweep(ctx context.Context) (subscriptionbus.SweepResult, error)
}

// Config controls the schedule.
type Config struct {
	Spec    string
	LockKey string
	LockTTL time.Duration
	Timeout time.Duration
}

// Scheduler runs the sweep from a cron schedule. When a Locker is set only
// the instance that takes the lock runs a tick.
type Scheduler struct {
	log     *logger.Logger
	sweeper Sweeper
	locker  Locker
	cfg     Config
	cron    *cron.Cron
}

// New constructs a scheduler. The locker may be nil for single instance
// deployments.
func New(log *logger.Logger, sweeper Sweeper, locker Locker, cfg Config) (*Scheduler, error) {
	if cfg.LockKey == "" {
		cfg.LockKey = "painel:sweep"
	}

	if cfg.LockTTL == 0 {
		cfg.LockTTL = time.Minute
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	s := Scheduler{
		log:     log,
		sweeper: sweeper,
		locker:  locker,
		cfg:     cfg,
		cron:    cron.New(),
	}

	if _, err := s.cron.AddFunc(cfg.Spec, s.tick); err != nil {
		return nil, fmt.Errorf("schedule %q: %w", cfg.Spec, err)
	}

	return &s, nil
}

// Start begins running the schedule in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the schedule and waits for a running tick to finish or for the
// context to end.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()

	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}

// Run performs one sweep. ran is false when another instance held the lock.
func (s *Scheduler) Run(ctx context.Context) (res subscriptionbus.SweepResult, ran bool, err error) {
	if s.locker != nil {
		release, acquired, err := s.locker.Acquire(ctx, s.cfg.LockKey, s.cfg.LockTTL)
		if err != nil {
			return subscriptionbus.SweepResult{}, false, fmt.Errorf("acquire: %w", err)
		}

		if !acquired {
			return subscriptionbus.SweepResult{}, false, nil
		}

		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				s.log.Error(ctx, "sweep: release lock", "err", err)
			}
		}()
	}

	res, err = s.sweeper.Sweep(ctx)
	if err != nil {
		return subscriptionbus.SweepResult{}, true, fmt.Errorf("sweep: %w", err)
	}

	return res, true, nil
}

func (s *Scheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.Timeout)
	defer cancel()

	res, ran, err := s.Run(ctx)
	switch {
	case err != nil:
		s.log.Error(ctx, "sweep: tick", "err", err)
	case !ran:
		s.log.Debug(ctx, "sweep: skipped, lock held elsewhere")
	default:
		s.log.Info(ctx, "sweep: tick", "suspended", res.Suspended, "pastDue", res.PastDue)
	}
}
