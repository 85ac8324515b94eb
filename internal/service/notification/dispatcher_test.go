package notification

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/lms-api/internal/email"
	"github.com/jwalitptl/lms-api/internal/model"
	"github.com/jwalitptl/lms-api/internal/repository/mocks"
	"github.com/jwalitptl/lms-api/pkg/logger"
	"github.com/jwalitptl/lms-api/pkg/metrics"
)

func dispatchEvent(t *testing.T, id uuid.UUID) *model.OutboxEvent {
	t.Helper()
	payload, err := json.Marshal(model.DispatchPayload{NotificationID: id})
	require.NoError(t, err)
	return &model.OutboxEvent{ID: uuid.New(), EventType: model.EventNotificationDispatch, Payload: payload}
}

func newTestDispatcher() (*Dispatcher, *mocks.NotificationRepository, *mocks.EmailSender, *mocks.Broker) {
	repo := new(mocks.NotificationRepository)
	sender := new(mocks.EmailSender)
	broker := new(mocks.Broker)
	d := NewDispatcher(repo, sender, broker, 3, metrics.NewNop(), logger.Nop())
	d.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	return d, repo, sender, broker
}

func TestDispatch_Email(t *testing.T) {
	d, repo, sender, _ := newTestDispatcher()
	n := &model.Notification{ID: uuid.New(), Channel: model.ChannelEmail, Recipient: "ada@example.com", Subject: "S", Body: "B"}

	repo.On("Get", mock.Anything, n.ID).Return(n, nil)
	sender.On("Send", mock.Anything, email.Message{To: "ada@example.com", Subject: "S", Body: "B"}).Return(nil)
	repo.On("UpdateDelivery", mock.Anything, mock.MatchedBy(func(got *model.Notification) bool {
		return got.Status == model.NotificationStatusSent && got.SentAt != nil
	})).Return(nil)

	require.NoError(t, d.Dispatch(context.Background(), dispatchEvent(t, n.ID)))
	repo.AssertExpectations(t)
	sender.AssertExpectations(t)
}

func TestDispatch_InAppPublishesOnUserChannel(t *testing.T) {
	d, repo, _, broker := newTestDispatcher()
	n := &model.Notification{ID: uuid.New(), UserID: uuid.New(), Channel: model.ChannelInApp, Type: model.NotificationQuizResult}

	repo.On("Get", mock.Anything, n.ID).Return(n, nil)
	broker.On("Publish", mock.Anything, "notifications:"+n.UserID.String(), mock.AnythingOfType("model.InAppMessage")).Return(nil)
	repo.On("UpdateDelivery", mock.Anything, n).Return(nil)

	require.NoError(t, d.Dispatch(context.Background(), dispatchEvent(t, n.ID)))
	broker.AssertExpectations(t)
}

func TestDispatch_FailureCountsRetries(t *testing.T) {
	d, repo, sender, _ := newTestDispatcher()
	n := &model.Notification{ID: uuid.New(), Channel: model.ChannelEmail, Recipient: "ada@example.com", RetryCount: 2}

	repo.On("Get", mock.Anything, n.ID).Return(n, nil)
	sender.On("Send", mock.Anything, mock.Anything).Return(errors.New("mailbox full"))
	repo.On("UpdateDelivery", mock.Anything, n).Return(nil)

	err := d.Dispatch(context.Background(), dispatchEvent(t, n.ID))
	assert.ErrorContains(t, err, "mailbox full")
	assert.Equal(t, 3, n.RetryCount)
	assert.Equal(t, model.NotificationStatusFailed, n.Status)
	require.NotNil(t, n.LastError)
}

func TestDispatch_AlreadySentIsNoop(t *testing.T) {
	d, repo, sender, _ := newTestDispatcher()
	n := &model.Notification{ID: uuid.New(), Channel: model.ChannelEmail, Status: model.NotificationStatusSent}
	repo.On("Get", mock.Anything, n.ID).Return(n, nil)

	require.NoError(t, d.Dispatch(context.Background(), dispatchEvent(t, n.ID)))
	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestDispatch_UnknownEventType(t *testing.T) {
	d, _, _, _ := newTestDispatcher()
	err := d.Dispatch(context.Background(), &model.OutboxEvent{EventType: "something.else"})
	assert.ErrorContains(t, err, "unsupported event type")
}
