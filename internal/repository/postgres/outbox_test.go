package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/lms-api/internal/model"
)

func TestOutboxRepository_ClaimPendingLeasesEvents(t *testing.T) {
	base, mock := newMockBase(t)
	repo := NewOutboxRepository(base)
	now := time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE SKIP LOCKED")).
		WithArgs(model.OutboxStatusPending, now, 10).
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_type", "payload", "status", "retry_count"}).
			AddRow(id.String(), model.EventNotificationDispatch, []byte(`{"notification_id":"x"}`), "PENDING", 0))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE outbox_events SET retry_at = $1")).
		WithArgs(now.Add(time.Minute), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	events, err := repo.ClaimPending(context.Background(), 10, time.Minute, now)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, id, events[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxRepository_ClaimPendingEmpty(t *testing.T) {
	base, mock := newMockBase(t)
	repo := NewOutboxRepository(base)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM outbox_events").WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectCommit()

	events, err := repo.ClaimPending(context.Background(), 10, time.Minute, time.Now())
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOutboxRepository_MarkFailed(t *testing.T) {
	retryAt := time.Date(2026, 6, 1, 8, 5, 0, 0, time.UTC)

	tests := []struct {
		name    string
		retryAt *time.Time
		status  model.OutboxStatus
	}{
		{"retry scheduled", &retryAt, model.OutboxStatusPending},
		{"final failure", nil, model.OutboxStatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base, mock := newMockBase(t)
			repo := NewOutboxRepository(base)
			id := uuid.New()

			mock.ExpectExec(regexp.QuoteMeta("retry_count = retry_count + 1")).
				WithArgs(tt.status, "smtp down", tt.retryAt, id).
				WillReturnResult(sqlmock.NewResult(0, 1))

			require.NoError(t, repo.MarkFailed(context.Background(), id, "smtp down", tt.retryAt))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
