package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/jwalitptl/lms-api/internal/repository"
	"github.com/jwalitptl/lms-api/pkg/logger"
)

// OutboxCleanup deletes processed outbox events older than the retention window.
type OutboxCleanup struct {
	repo      repository.OutboxRepository
	retention time.Duration
	logger    *logger.Logger
	now       func() time.Time
}

func NewOutboxCleanup(repo repository.OutboxRepository, retention time.Duration, logger *logger.Logger) *OutboxCleanup {
	return &OutboxCleanup{
		repo:      repo,
		retention: retention,
		logger:    logger,
		now:       time.Now,
	}
}

func (w *OutboxCleanup) Run(ctx context.Context) error {
	cutoff := w.now().Add(-w.retention)

	rows, err := w.repo.DeleteProcessedBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to cleanup outbox events: %w", err)
	}

	w.logger.Info("Cleaned up processed outbox events", "deleted", rows, "cutoff", cutoff)
	return nil
}
