package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jwalitptl/lms-api/pkg/logger"
)

// JobFunc is one unit of scheduled work.
type JobFunc func(ctx context.Context) error

// Scheduler runs named jobs on cron specs. A job still running when its next
// tick fires is skipped rather than stacked.
type Scheduler struct {
	cron   *cron.Cron
	logger *logger.Logger
	ctx    context.Context
	now    func() time.Time
}

func NewScheduler(loc *time.Location, log *logger.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		cron: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.Recover(log), cron.SkipIfStillRunning(log)),
		),
		logger: log,
		ctx:    context.Background(),
		now:    time.Now,
	}
}

func (s *Scheduler) Add(spec, name string, job JobFunc) error {
	if _, err := s.cron.AddFunc(spec, func() { s.run(s.ctx, name, job) }); err != nil {
		return fmt.Errorf("failed to schedule %s (%q): %w", name, spec, err)
	}
	s.logger.Info("job scheduled", "job", name, "spec", spec)
	return nil
}

func (s *Scheduler) run(ctx context.Context, name string, job JobFunc) error {
	start := s.now()
	if err := job(ctx); err != nil {
		s.logger.Error(err, "scheduled job failed", "job", name, "duration", time.Since(start).String())
		return err
	}
	s.logger.Debug("scheduled job finished", "job", name, "duration", time.Since(start).String())
	return nil
}

// Start blocks until ctx is cancelled, then waits for running jobs to finish.
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx = ctx
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))

	<-ctx.Done()
	s.logger.Info("scheduler stopping")
	<-s.cron.Stop().Done()
}
