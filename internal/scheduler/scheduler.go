package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"psud/internal/logging"
)

// ErrLinkLost is returned by Run when the update task has failed the
// configured number of consecutive times.
var ErrLinkLost = errors.New("instrument link lost")

// Task is one scheduled unit of work. A non-nil error from the update task
// counts toward the failure threshold; command task errors are logged and
// absorbed.
type Task func(ctx context.Context) error

// Config sets the two cadences and the shutdown policy.
type Config struct {
	// CommandInterval is the cadence for draining queued commands.
	CommandInterval time.Duration
	// UpdateInterval is the cadence for full state snapshots. Must exceed
	// CommandInterval.
	UpdateInterval time.Duration
	// TriggerWindow lets a wakeup slightly before a deadline count as due,
	// so the loop does not spin on sub-window sleeps.
	TriggerWindow time.Duration
	// FailureThreshold is the number of consecutive update failures that
	// ends the run.
	FailureThreshold int
}

// Scheduler interleaves the two tasks on a single goroutine. Updates take
// priority when both are due, so a burst of commands can never starve the
// state snapshot.
type Scheduler struct {
	cfg     Config
	update  Task
	command Task
	logger  *slog.Logger
	clock   Clock
}

// Option adjusts scheduler construction.
type Option func(*Scheduler)

// WithClock substitutes the time source.
func WithClock(c Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// New creates a scheduler. Both tasks run on the caller's goroutine inside
// Run, never concurrently with each other.
func New(cfg Config, update, command Task, logger *slog.Logger, opts ...Option) *Scheduler {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Scheduler{
		cfg:     cfg,
		update:  update,
		command: command,
		logger:  logger,
		clock:   realClock{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run drives both cadences until ctx is cancelled (returns nil) or the
// update task exhausts the failure threshold (returns ErrLinkLost). The
// first update fires immediately; the first command slot follows one command
// interval later.
func (s *Scheduler) Run(ctx context.Context) error {
	now := s.clock.Now()
	nextUpdate := now
	nextCommand := now.Add(s.cfg.CommandInterval)
	failures := 0

	for {
		if ctx.Err() != nil {
			return nil
		}
		now = s.clock.Now()

		switch {
		case s.due(now, nextUpdate):
			err := s.update(ctx)
			nextUpdate = s.clock.Now().Add(s.cfg.UpdateInterval)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				failures++
				s.logger.Warn("update failed",
					logging.Int("consecutive_failures", failures),
					logging.Error(err))
				if failures >= s.cfg.FailureThreshold {
					return fmt.Errorf("%w: %d consecutive update failures: %w",
						ErrLinkLost, failures, err)
				}
			} else {
				failures = 0
			}

		case s.due(now, nextCommand):
			if err := s.command(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error("command slot failed", logging.Error(err))
			}
			nextCommand = s.clock.Now().Add(s.cfg.CommandInterval)

		default:
			wait := nextUpdate.Sub(now)
			if d := nextCommand.Sub(now); d < wait {
				wait = d
			}
			if err := s.clock.Sleep(ctx, wait); err != nil {
				return nil
			}
		}
	}
}

func (s *Scheduler) due(now, deadline time.Time) bool {
	return !now.Before(deadline.Add(-s.cfg.TriggerWindow))
}
