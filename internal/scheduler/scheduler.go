// Package scheduler runs a job once at startup and then once per day at a fixed wall-clock minute.
//
// Cycles run synchronously on the loop goroutine, so they never overlap. A trigger minute that
// passes entirely while a cycle is still running is skipped, not caught up. Job errors and panics
// are logged and contained: the loop only stops when its context is cancelled.
package scheduler

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"dynamic-dca-bot/internal/logger"
	"dynamic-dca-bot/internal/types"
)

const DefaultPollInterval = time.Second

// Job is one evaluation cycle.
type Job func(ctx context.Context) error

type Options struct {
	Trigger      TriggerTime
	Location     *time.Location
	PollInterval time.Duration
	Clock        Clock
}

type Scheduler struct {
	daily *Daily
	clock Clock
	poll  time.Duration
	job   Job
}

func New(opts Options, job Job) *Scheduler {
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	return &Scheduler{
		daily: NewDaily(opts.Trigger, opts.Location),
		clock: opts.Clock,
		poll:  opts.PollInterval,
		job:   job,
	}
}

// Run blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	start := s.clock.Now()
	// the startup run covers a start inside the trigger minute
	if s.daily.Due(start) {
		s.daily.MarkFired(start)
	}

	logger.Info(ctx, "Scheduler started",
		"trigger", s.daily.at.String(),
		"location", s.daily.loc.String(),
		"poll", s.poll,
	)
	s.runCycle(ctx, "startup")
	logger.Info(ctx, "Next scheduled cycle", "at", s.daily.Next(s.clock.Now()))

	for {
		select {
		case <-ctx.Done():
			logger.Info(ctx, "Scheduler stopped")
			return nil
		case <-s.clock.After(s.poll):
		}
		if ctx.Err() != nil {
			continue
		}

		now := s.clock.Now()
		if !s.daily.Due(now) {
			continue
		}
		s.daily.MarkFired(now)
		s.runCycle(ctx, "daily")
		logger.Info(ctx, "Next scheduled cycle", "at", s.daily.Next(s.clock.Now()))
	}
}

func (s *Scheduler) runCycle(ctx context.Context, trigger string) {
	if err := s.safeRun(ctx); err != nil {
		logger.Warn(ctx, "Cycle failed, waiting for next trigger",
			"trigger", trigger,
			"kind", types.ErrorKind(err),
			"error", err,
		)
	}
}

func (s *Scheduler) safeRun(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, "Cycle panicked", "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
			err = fmt.Errorf("cycle panicked: %v", r)
		}
	}()
	return s.job(ctx)
}
