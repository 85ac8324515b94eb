package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jwalitptl/lms-api/internal/email"
	"github.com/jwalitptl/lms-api/internal/model"
	"github.com/jwalitptl/lms-api/internal/repository"
	"github.com/jwalitptl/lms-api/pkg/logger"
	"github.com/jwalitptl/lms-api/pkg/messaging"
	"github.com/jwalitptl/lms-api/pkg/metrics"
)

// Dispatcher performs the delivery behind a notification.dispatch outbox event.
type Dispatcher struct {
	notifications repository.NotificationRepository
	sender        email.Sender
	broker        messaging.Broker
	maxAttempts   int
	metrics       *metrics.Metrics
	logger        *logger.Logger
	now           func() time.Time
}

func NewDispatcher(
	notifications repository.NotificationRepository,
	sender email.Sender,
	broker messaging.Broker,
	maxAttempts int,
	metrics *metrics.Metrics,
	logger *logger.Logger,
) *Dispatcher {
	return &Dispatcher{
		notifications: notifications,
		sender:        sender,
		broker:        broker,
		maxAttempts:   maxAttempts,
		metrics:       metrics,
		logger:        logger,
		now:           time.Now,
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, event *model.OutboxEvent) error {
	if event.EventType != model.EventNotificationDispatch {
		return fmt.Errorf("unsupported event type: %s", event.EventType)
	}

	var payload model.DispatchPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return fmt.Errorf("failed to decode dispatch payload: %w", err)
	}

	n, err := d.notifications.Get(ctx, payload.NotificationID)
	if err != nil {
		return fmt.Errorf("failed to load notification %s: %w", payload.NotificationID, err)
	}
	if n.Status == model.NotificationStatusSent {
		return nil
	}

	if err := d.deliver(ctx, n); err != nil {
		n.RetryCount++
		msg := err.Error()
		n.LastError = &msg
		n.Status = model.NotificationStatusRetrying
		if n.RetryCount >= d.maxAttempts {
			n.Status = model.NotificationStatusFailed
		}
		d.metrics.NotificationsDelivered.WithLabelValues(string(n.Channel), string(n.Status)).Inc()
		if updateErr := d.notifications.UpdateDelivery(ctx, n); updateErr != nil {
			d.logger.Error(updateErr, "failed to record delivery failure", "notification_id", n.ID.String())
		}
		return err
	}

	sentAt := d.now()
	n.Status = model.NotificationStatusSent
	n.SentAt = &sentAt
	n.LastError = nil
	d.metrics.NotificationsDelivered.WithLabelValues(string(n.Channel), string(n.Status)).Inc()
	if err := d.notifications.UpdateDelivery(ctx, n); err != nil {
		return fmt.Errorf("failed to record delivery: %w", err)
	}
	return nil
}

func (d *Dispatcher) deliver(ctx context.Context, n *model.Notification) error {
	switch n.Channel {
	case model.ChannelEmail:
		return d.sender.Send(ctx, email.Message{
			To:      n.Recipient,
			Subject: n.Subject,
			Body:    n.Body,
		})
	case model.ChannelInApp:
		return d.broker.Publish(ctx, messaging.UserChannel(n.UserID.String()), model.InAppMessage{
			NotificationID: n.ID,
			UserID:         n.UserID,
			Type:           n.Type,
			Subject:        n.Subject,
			Body:           n.Body,
			CreatedAt:      n.CreatedAt,
		})
	default:
		return fmt.Errorf("unsupported channel: %s", n.Channel)
	}
}
