// Package heartbeat schedules orchestration runs: on a fixed interval, once
// on demand, or in response to skill file changes.
package heartbeat

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/grxkun/clawstr-skill-orchestrator/pkg/logger"
	"github.com/grxkun/clawstr-skill-orchestrator/pkg/orchestrator"
)

// DefaultInterval is how often the scheduler triggers a run.
const DefaultInterval = 6 * time.Hour

// Runner executes one orchestration run.
type Runner func(ctx context.Context) error

// RunSource reports the most recent persisted run, used to gate scheduled
// runs across process restarts.
type RunSource interface {
	Latest(ctx context.Context) (*orchestrator.Summary, error)
}

// Scheduler triggers runs on a fixed interval. When a run source is
// configured, a run only fires if the previous one finished at least a full
// interval ago.
type Scheduler struct {
	interval time.Duration
	runner   Runner
	runs     RunSource
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithRunSource gates scheduled runs on the last persisted run time.
func WithRunSource(runs RunSource) Option {
	return func(s *Scheduler) {
		s.runs = runs
	}
}

// NewScheduler creates a scheduler. A non-positive interval uses the default.
func NewScheduler(interval time.Duration, runner Runner, opts ...Option) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	s := &Scheduler{interval: interval, runner: runner}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Interval returns the configured run interval.
func (s *Scheduler) Interval() time.Duration {
	return s.interval
}

// ShouldRun reports whether a scheduled run is due. Without a run source, or
// without any recorded run, it is always due.
func (s *Scheduler) ShouldRun(ctx context.Context) (bool, error) {
	if s.runs == nil {
		return true, nil
	}

	latest, err := s.runs.Latest(ctx)
	if err != nil {
		return false, errors.Wrap(err, "failed to load last run")
	}
	if latest == nil {
		return true, nil
	}
	return time.Since(latest.FinishedAt) >= s.interval, nil
}

// RunOnce executes a single run if one is due.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	due, err := s.ShouldRun(ctx)
	if err != nil {
		return err
	}
	if !due {
		logger.G(ctx).Info("skipping run, last run is still fresh")
		return nil
	}
	return s.runner(ctx)
}

// Start runs the scheduler loop until ctx is cancelled. The first run fires
// immediately when due.
func (s *Scheduler) Start(ctx context.Context) error {
	log := logger.G(ctx).WithField("interval", s.interval)
	log.Info("heartbeat scheduler started")

	if err := s.RunOnce(ctx); err != nil {
		log.WithError(err).Error("scheduled run failed")
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				log.WithError(err).Error("scheduled run failed")
			}
		case <-ctx.Done():
			log.Info("heartbeat scheduler stopped")
			return ctx.Err()
		}
	}
}
