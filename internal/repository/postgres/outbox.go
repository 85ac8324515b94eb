package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/jwalitptl/lms-api/internal/model"
	"github.com/jwalitptl/lms-api/internal/repository"
)

type outboxRepository struct {
	BaseRepository
}

func NewOutboxRepository(base BaseRepository) repository.OutboxRepository {
	return &outboxRepository{base}
}

const outboxColumns = `id, event_type, payload, status, error_message, retry_count, retry_at, created_at, processed_at`

func (r *outboxRepository) ClaimPending(ctx context.Context, limit int, lease time.Duration, now time.Time) ([]*model.OutboxEvent, error) {
	selectQuery := `
		SELECT ` + outboxColumns + `
		FROM outbox_events
		WHERE status = $1
		AND (retry_at IS NULL OR retry_at <= $2)
		ORDER BY created_at ASC
		LIMIT $3
		FOR UPDATE SKIP LOCKED
	`
	leaseQuery := `UPDATE outbox_events SET retry_at = $1 WHERE id = ANY($2::uuid[])`

	var events []*model.OutboxEvent
	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := tx.SelectContext(ctx, &events, selectQuery, model.OutboxStatusPending, now, limit); err != nil {
			return fmt.Errorf("failed to select pending events: %w", err)
		}
		if len(events) == 0 {
			return nil
		}

		ids := make([]string, len(events))
		for i, evt := range events {
			ids[i] = evt.ID.String()
		}
		until := now.Add(lease)
		if _, err := tx.ExecContext(ctx, leaseQuery, until, pq.Array(ids)); err != nil {
			return fmt.Errorf("failed to lease events: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *outboxRepository) MarkProcessed(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE outbox_events
		SET status = $1, processed_at = $2, error_message = NULL, retry_at = NULL
		WHERE id = $3
	`
	result, err := r.db.ExecContext(ctx, query, model.OutboxStatusProcessed, at, id)
	if err != nil {
		return translate(err, "mark event processed")
	}
	return expectOne(result, "mark event processed")
}

// MarkFailed records a failed dispatch. A nil retryAt makes the failure final.
func (r *outboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, retryAt *time.Time) error {
	status := model.OutboxStatusPending
	if retryAt == nil {
		status = model.OutboxStatusFailed
	}

	query := `
		UPDATE outbox_events
		SET status = $1, error_message = $2, retry_at = $3, retry_count = retry_count + 1
		WHERE id = $4
	`
	result, err := r.db.ExecContext(ctx, query, status, errMsg, retryAt, id)
	if err != nil {
		return translate(err, "mark event failed")
	}
	return expectOne(result, "mark event failed")
}

func (r *outboxRepository) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	query := `
		DELETE FROM outbox_events
		WHERE status = $1
		AND processed_at < $2
	`
	result, err := r.db.ExecContext(ctx, query, model.OutboxStatusProcessed, before)
	if err != nil {
		return 0, fmt.Errorf("failed to delete processed events: %w", err)
	}

	return result.RowsAffected()
}
