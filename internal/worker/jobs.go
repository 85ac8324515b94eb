package worker

import (
	"context"

	"github.com/jwalitptl/lms-api/config"
	"github.com/jwalitptl/lms-api/pkg/logger"
	pkgworker "github.com/jwalitptl/lms-api/pkg/worker"
)

type ReminderSender interface {
	SendExpiryReminders(ctx context.Context) (int, error)
}

type AttemptSweeper interface {
	SweepOverdue(ctx context.Context) (int, error)
}

// RegisterJobs schedules the maintenance jobs. An empty spec disables a job.
func RegisterJobs(
	s *Scheduler,
	cfg config.SchedulerConfig,
	reminders ReminderSender,
	sweeper AttemptSweeper,
	cleanup *pkgworker.OutboxCleanup,
	log *logger.Logger,
) error {
	jobs := []struct {
		name string
		spec string
		fn   JobFunc
	}{
		{"certification_expiry_reminders", cfg.ExpiryReminderSpec, func(ctx context.Context) error {
			sent, err := reminders.SendExpiryReminders(ctx)
			log.Info("expiry reminders queued", "count", sent)
			return err
		}},
		{"overdue_attempt_sweep", cfg.AttemptSweepSpec, func(ctx context.Context) error {
			abandoned, err := sweeper.SweepOverdue(ctx)
			if abandoned > 0 {
				log.Info("overdue attempts abandoned", "count", abandoned)
			}
			return err
		}},
		{"outbox_cleanup", cfg.OutboxCleanupSpec, cleanup.Run},
	}

	for _, job := range jobs {
		if job.spec == "" {
			log.Warn("job disabled", "job", job.name)
			continue
		}
		if err := s.Add(job.spec, job.name, job.fn); err != nil {
			return err
		}
	}
	return nil
}
