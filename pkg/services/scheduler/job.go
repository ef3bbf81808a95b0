package scheduler

import (
	"context"
	"errors"
	"sync"

	"github.com/de-tools/snapshot-sweeper/pkg/models/domain"
)

var ErrSweepInProgress = errors.New("a sweep is already running")

// Runner is satisfied by *sweeper.Sweeper.
type Runner interface {
	Run(ctx context.Context) (*domain.SweepReport, error)
}

// Job makes sure only one sweep runs at a time and remembers the last result.
type Job struct {
	runner Runner

	running sync.Mutex

	mu      sync.RWMutex
	last    *domain.SweepReport
	lastErr error
}

func NewJob(runner Runner) *Job {
	return &Job{runner: runner}
}

// Trigger runs a sweep now. It returns ErrSweepInProgress instead of waiting
// when another sweep holds the job.
func (j *Job) Trigger(ctx context.Context) (*domain.SweepReport, error) {
	if !j.running.TryLock() {
		return nil, ErrSweepInProgress
	}
	defer j.running.Unlock()

	report, err := j.runner.Run(ctx)

	j.mu.Lock()
	if report != nil {
		j.last = report
	}
	j.lastErr = err
	j.mu.Unlock()

	return report, err
}

// Last returns the most recent report and the error of the most recent run.
func (j *Job) Last() (*domain.SweepReport, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.last, j.lastErr
}
