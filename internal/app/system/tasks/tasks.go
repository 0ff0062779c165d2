// internal/app/system/tasks/tasks.go
package tasks

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Job is a periodic maintenance task.
type Job struct {
	Name     string
	Interval time.Duration
	Run      func(ctx context.Context) error
}

// Runner drives a set of jobs on their intervals in one background
// goroutine per job. Jobs are best-effort: a failing run is logged and
// retried on the next tick.
type Runner struct {
	jobs   []Job
	log    *zap.Logger
	stopCh chan struct{}
	wg     sync.WaitGroup
}

func NewRunner(logger *zap.Logger, jobs ...Job) *Runner {
	return &Runner{
		jobs:   jobs,
		log:    logger,
		stopCh: make(chan struct{}),
	}
}

// Start launches all job loops.
func (r *Runner) Start() {
	for _, j := range r.jobs {
		r.wg.Add(1)
		go r.loop(j)
		r.log.Info("job started",
			zap.String("job", j.Name),
			zap.Duration("interval", j.Interval))
	}
}

// Stop signals all loops to stop and waits for them to finish.
func (r *Runner) Stop() {
	close(r.stopCh)
	r.wg.Wait()
	r.log.Info("job runner stopped")
}

func (r *Runner) loop(j Job) {
	defer r.wg.Done()

	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.runOnce(j)
		}
	}
}

func (r *Runner) runOnce(j Job) {
	runID := uuid.NewString()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := j.Run(ctx); err != nil {
		r.log.Error("job run failed",
			zap.String("job", j.Name),
			zap.String("run_id", runID),
			zap.Error(err))
	}
}
