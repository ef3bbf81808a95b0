package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/de-tools/snapshot-sweeper/pkg/services/sweeper"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Scheduler triggers the job on a standard five field cron expression.
type Scheduler struct {
	job      *Job
	schedule string
	cron     *cron.Cron

	mu      sync.Mutex
	running bool
}

func NewScheduler(job *Job, schedule string) (*Scheduler, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}
	return &Scheduler{
		job:      job,
		schedule: schedule,
		cron:     cron.New(cron.WithLocation(time.UTC)),
	}, nil
}

// Start registers the job and returns immediately. The scheduler stops when
// ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	logger := zerolog.Ctx(ctx)
	if _, err := s.cron.AddFunc(s.schedule, func() { s.run(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule sweep: %w", err)
	}

	s.cron.Start()
	s.running = true
	logger.Info().Str("schedule", s.schedule).Msg("sweep scheduler started")

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

func (s *Scheduler) run(ctx context.Context) {
	logger := zerolog.Ctx(ctx)
	logger.Info().Msg("starting scheduled sweep")

	_, err := s.job.Trigger(ctx)
	switch {
	case errors.Is(err, ErrSweepInProgress):
		logger.Warn().Msg("skipping scheduled sweep, previous sweep still running")
	case sweeper.PendingDeletes(err) > 0:
		// already logged by the sweeper with the pending count
	case err != nil:
		logger.Error().Err(err).Msg("scheduled sweep failed")
	}
}

// Stop waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false
}

// NextRun returns the next activation time, or nil if not started.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	if !s.running || len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
