// Package scheduler triggers the weekly reset at the configured day and
// time.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dukerupert/choreweek/internal/model"
	"github.com/dukerupert/choreweek/internal/state"
)

const DefaultInterval = time.Minute

type State string

const (
	Idle           State = "idle"
	ResetTriggered State = "reset_triggered"
)

// Resetter performs the reset. Implemented by tracker.Tracker.
type Resetter interface {
	ScheduleInfo() (model.Configuration, time.Time)
	// ResetWeekIfDue re-evaluates Due under the resetter's own lock.
	ResetWeekIfDue(ctx context.Context, now time.Time) (model.WeeklySnapshot, bool, error)
}

// Due reports whether a reset should fire at now: the weekday and the
// HH:MM match the configuration and no reset happened yet today. A missed
// minute is not caught up.
func Due(now time.Time, cfg model.Configuration, lastReset time.Time) bool {
	return state.ResetDue(now, cfg, lastReset)
}

type Scheduler struct {
	resetter Resetter
	logger   *slog.Logger
	interval time.Duration
	loc      *time.Location
	now      func() time.Time

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
	done   chan struct{}
}

// New returns an idle scheduler. A zero interval means DefaultInterval and
// a nil location means time.Local.
func New(r Resetter, interval time.Duration, loc *time.Location, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		resetter: r,
		logger:   logger.With("component", "scheduler"),
		interval: interval,
		loc:      loc,
		now:      time.Now,
		state:    Idle,
	}
}

// Start begins the check loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	s.logger.Info("scheduler started", "interval", s.interval, "location", s.loc.String())

	go func() {
		defer close(done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Check(ctx)
			}
		}
	}()
}

// Stop cancels the loop and waits for an in-flight check.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Check runs one evaluation at the current time.
func (s *Scheduler) Check(ctx context.Context) bool {
	return s.CheckAt(ctx, s.now())
}

// CheckAt evaluates the schedule at now, read in the scheduler's location,
// and reports whether a reset was triggered.
func (s *Scheduler) CheckAt(ctx context.Context, now time.Time) bool {
	now = now.In(s.loc)
	cfg, last := s.resetter.ScheduleInfo()
	if !Due(now, cfg, last) {
		return false
	}

	s.setState(ResetTriggered)
	defer s.setState(Idle)

	snap, reset, err := s.resetter.ResetWeekIfDue(ctx, now)
	switch {
	case err != nil:
		s.logger.Error("scheduled reset failed", "error", err)
		return false
	case !reset:
		s.logger.Info("scheduled reset skipped, week already reset")
		return false
	}
	s.logger.Info("scheduled reset", "week", snap.Week)
	return true
}

func (s *Scheduler) setState(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}
