package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/lms-api/internal/model"
	"github.com/jwalitptl/lms-api/internal/repository"
)

type notificationRepository struct {
	BaseRepository
}

func NewNotificationRepository(base BaseRepository) repository.NotificationRepository {
	return &notificationRepository{base}
}

const notificationColumns = `id, user_id, type, channel, recipient, subject, body, reference_id, status,
	retry_count, last_error, read_at, sent_at, created_at, updated_at`

func (r *notificationRepository) CreateWithOutbox(ctx context.Context, notifications []*model.Notification, events []*model.OutboxEvent) error {
	insertNotification := `
		INSERT INTO notifications (` + notificationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	insertEvent := `
		INSERT INTO outbox_events (id, event_type, payload, status, retry_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	now := time.Now()

	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		for _, n := range notifications {
			if n.ID == uuid.Nil {
				n.ID = uuid.New()
			}
			n.CreatedAt = now
			n.UpdatedAt = now
			_, err := tx.ExecContext(ctx, insertNotification,
				n.ID, n.UserID, n.Type, n.Channel, n.Recipient, n.Subject, n.Body, n.ReferenceID,
				n.Status, n.RetryCount, n.LastError, n.ReadAt, n.SentAt, n.CreatedAt, n.UpdatedAt,
			)
			if err != nil {
				return translate(err, "create notification")
			}
		}

		for _, evt := range events {
			if evt.ID == uuid.Nil {
				evt.ID = uuid.New()
			}
			if evt.Status == "" {
				evt.Status = model.OutboxStatusPending
			}
			evt.CreatedAt = now
			_, err := tx.ExecContext(ctx, insertEvent,
				evt.ID, evt.EventType, evt.Payload, evt.Status, evt.RetryCount, evt.CreatedAt,
			)
			if err != nil {
				return translate(err, "create outbox event")
			}
		}
		return nil
	})
}

func (r *notificationRepository) Get(ctx context.Context, id uuid.UUID) (*model.Notification, error) {
	var n model.Notification
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = $1`
	if err := r.db.GetContext(ctx, &n, query, id); err != nil {
		return nil, translate(err, "get notification")
	}
	return &n, nil
}

func (r *notificationRepository) UpdateDelivery(ctx context.Context, n *model.Notification) error {
	query := `
		UPDATE notifications
		SET status = $1, retry_count = $2, last_error = $3, sent_at = $4, updated_at = $5
		WHERE id = $6
	`
	n.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query, n.Status, n.RetryCount, n.LastError, n.SentAt, n.UpdatedAt, n.ID)
	if err != nil {
		return translate(err, "update notification")
	}
	return expectOne(result, "update notification")
}

func (r *notificationRepository) List(ctx context.Context, filters *model.NotificationFilters) ([]*model.Notification, int, error) {
	where := ` WHERE user_id = $1`
	args := []interface{}{filters.UserID}
	argCount := 2

	if filters.Channel != "" {
		where += fmt.Sprintf(" AND channel = $%d", argCount)
		args = append(args, filters.Channel)
		argCount++
	}

	if filters.UnreadOnly {
		where += " AND read_at IS NULL"
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM notifications`+where, args...); err != nil {
		return nil, 0, translate(err, "count notifications")
	}

	filters.Normalize()
	query := `SELECT ` + notificationColumns + ` FROM notifications` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argCount, argCount+1)
	args = append(args, filters.PageSize, filters.Offset())

	var notifications []*model.Notification
	if err := r.db.SelectContext(ctx, &notifications, query, args...); err != nil {
		return nil, 0, translate(err, "list notifications")
	}
	return notifications, total, nil
}

// MarkRead is scoped to the owner; marking an already read notification is a no-op.
func (r *notificationRepository) MarkRead(ctx context.Context, id, userID uuid.UUID, at time.Time) error {
	query := `
		UPDATE notifications
		SET read_at = COALESCE(read_at, $1), updated_at = $2
		WHERE id = $3 AND user_id = $4
	`
	result, err := r.db.ExecContext(ctx, query, at, time.Now(), id, userID)
	if err != nil {
		return translate(err, "mark notification read")
	}
	return expectOne(result, "mark notification read")
}

func (r *notificationRepository) ExistsForReference(ctx context.Context, userID uuid.UUID, notificationType model.NotificationType, referenceID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM notifications
			WHERE user_id = $1 AND type = $2 AND reference_id = $3
		)
	`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, userID, notificationType, referenceID); err != nil {
		return false, translate(err, "check notification reference")
	}
	return exists, nil
}
