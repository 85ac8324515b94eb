package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/lms-api/internal/model"
	"github.com/jwalitptl/lms-api/internal/repository"
)

func TestNotificationRepository_CreateWithOutbox(t *testing.T) {
	base, mock := newMockBase(t)
	repo := NewNotificationRepository(base)

	userID := uuid.New()
	n := &model.Notification{
		UserID:  userID,
		Type:    model.NotificationQuizResult,
		Channel: model.ChannelEmail,
		Status:  model.NotificationStatusPending,
	}
	payload, _ := json.Marshal(model.DispatchPayload{NotificationID: uuid.New()})
	evt := &model.OutboxEvent{EventType: model.EventNotificationDispatch, Payload: payload}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO notifications").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO outbox_events").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.CreateWithOutbox(context.Background(), []*model.Notification{n}, []*model.OutboxEvent{evt})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, n.ID)
	assert.Equal(t, model.OutboxStatusPending, evt.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_CreateWithOutboxRollsBack(t *testing.T) {
	base, mock := newMockBase(t)
	repo := NewNotificationRepository(base)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO notifications").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO outbox_events").WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := repo.CreateWithOutbox(context.Background(),
		[]*model.Notification{{UserID: uuid.New()}},
		[]*model.OutboxEvent{{EventType: model.EventNotificationDispatch, Payload: []byte(`{}`)}},
	)
	assert.ErrorContains(t, err, "failed to create outbox event")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_ListUnread(t *testing.T) {
	base, mock := newMockBase(t)
	repo := NewNotificationRepository(base)
	userID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND channel = $2 AND read_at IS NULL")).
		WithArgs(userID, model.ChannelInApp).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY created_at DESC LIMIT $3 OFFSET $4")).
		WithArgs(userID, model.ChannelInApp, 50, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id"}).AddRow(uuid.NewString(), userID.String()))

	items, total, err := repo.List(context.Background(), &model.NotificationFilters{
		UserID:     userID,
		Channel:    model.ChannelInApp,
		UnreadOnly: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	assert.Len(t, items, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepository_MarkReadOtherUser(t *testing.T) {
	base, mock := newMockBase(t)
	repo := NewNotificationRepository(base)
	id, other := uuid.New(), uuid.New()
	at := time.Now()

	mock.ExpectExec(regexp.QuoteMeta("WHERE id = $3 AND user_id = $4")).
		WithArgs(at, sqlmock.AnyArg(), id, other).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.MarkRead(context.Background(), id, other, at), repository.ErrNotFound)
}

func TestNotificationRepository_ExistsForReference(t *testing.T) {
	base, mock := newMockBase(t)
	repo := NewNotificationRepository(base)
	userID, ref := uuid.New(), uuid.New()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(userID, model.NotificationCertificateExpiring, ref).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsForReference(context.Background(), userID, model.NotificationCertificateExpiring, ref)
	require.NoError(t, err)
	assert.True(t, exists)
}
