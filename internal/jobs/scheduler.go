package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/adhocore/gronx"

	"github.com/jdelaire/bingobot/core"
)

const cycleTimeout = 5 * time.Minute

// Job is a unit of scheduled work. Schedule is a cron expression.
type Job struct {
	Name     string
	Schedule string
	Run      func(ctx context.Context) error
}

// Scheduler runs jobs on their cron schedules until its context is
// cancelled. A failing or panicking job is logged and counted in the
// heartbeat; later cycles still run.
type Scheduler struct {
	jobs   []Job
	logger *slog.Logger
	now    func() time.Time
	after  func(time.Duration) <-chan time.Time

	mu sync.Mutex
	hb core.Heartbeat
}

// NewScheduler validates every job's schedule.
func NewScheduler(logger *slog.Logger, jobs ...Job) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	g := gronx.New()
	for _, j := range jobs {
		if j.Run == nil {
			return nil, fmt.Errorf("job %q has no run function", j.Name)
		}
		if !g.IsValid(j.Schedule) {
			return nil, fmt.Errorf("job %q: invalid schedule %q", j.Name, j.Schedule)
		}
	}
	return &Scheduler{
		jobs:   jobs,
		logger: logger,
		now:    time.Now,
		after:  time.After,
	}, nil
}

// WithClock overrides the time source and timer (for testing).
func (s *Scheduler) WithClock(now func() time.Time, after func(time.Duration) <-chan time.Time) *Scheduler {
	s.now = now
	s.after = after
	return s
}

// Heartbeat returns a snapshot of cycle outcomes.
func (s *Scheduler) Heartbeat() core.Heartbeat {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hb
}

func (s *Scheduler) Run(ctx context.Context) {
	if len(s.jobs) == 0 {
		<-ctx.Done()
		return
	}

	next := make([]time.Time, len(s.jobs))
	for i, j := range s.jobs {
		t, err := gronx.NextTickAfter(j.Schedule, s.now(), false)
		if err != nil {
			s.logger.Error("cannot schedule job", "job", j.Name, "error", err)
			continue
		}
		next[i] = t
	}

	s.logger.Info("scheduler started", "jobs", len(s.jobs))
	for {
		due, ok := earliest(next)
		if !ok {
			<-ctx.Done()
			return
		}

		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return
		case <-s.after(due.Sub(s.now())):
		}
		if ctx.Err() != nil {
			s.logger.Info("scheduler stopped")
			return
		}

		now := s.now()
		for i, j := range s.jobs {
			if next[i].IsZero() || next[i].After(now) {
				continue
			}
			s.runCycle(ctx, j)

			t, err := gronx.NextTickAfter(j.Schedule, s.now(), false)
			if err != nil {
				s.logger.Error("cannot reschedule job", "job", j.Name, "error", err)
				t = time.Time{}
			}
			next[i] = t
		}
	}
}

func (s *Scheduler) runCycle(ctx context.Context, j Job) {
	start := s.now()
	err := s.invoke(ctx, j)

	s.mu.Lock()
	s.hb.Cycles++
	if err != nil {
		s.hb.Failures++
		s.hb.LastFailure = start
		s.hb.LastError = fmt.Sprintf("%s: %v", j.Name, err)
	} else {
		s.hb.LastSuccess = start
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("scheduled job failed", "job", j.Name, "error", err)
		return
	}
	s.logger.Info("scheduled job finished", "job", j.Name, "duration", s.now().Sub(start))
}

func (s *Scheduler) invoke(ctx context.Context, j Job) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()

	cycleCtx, cancel := context.WithTimeout(ctx, cycleTimeout)
	defer cancel()
	return j.Run(cycleCtx)
}

func earliest(ts []time.Time) (time.Time, bool) {
	var first time.Time
	for _, t := range ts {
		if t.IsZero() {
			continue
		}
		if first.IsZero() || t.Before(first) {
			first = t
		}
	}
	return first, !first.IsZero()
}
