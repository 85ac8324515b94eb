package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/lms-api/internal/model"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("duplicate record")
)

// AttemptSummary is the slice of an attempt the dashboard needs to resolve its badge.
type AttemptSummary struct {
	Status       model.AttemptStatus `db:"status"`
	Score        *float64            `db:"score"`
	PassingScore float64             `db:"passing_score"`
}

// All repository interfaces in one file
type (
	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
	}

	CourseRepository interface {
		Create(ctx context.Context, course *model.Course) error
		Get(ctx context.Context, id uuid.UUID) (*model.Course, error)
		List(ctx context.Context, filters *model.CourseFilters) ([]*model.Course, int, error)
	}

	EnrollmentRepository interface {
		Create(ctx context.Context, enrollment *model.Enrollment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Enrollment, error)
		// Update fails with ErrNotFound unless the stored status is still expected.
		Update(ctx context.Context, enrollment *model.Enrollment, expected model.EnrollmentStatus) error
		List(ctx context.Context, filters *model.EnrollmentFilters) ([]*model.Enrollment, error)
		CountByStatus(ctx context.Context) (map[model.EnrollmentStatus]int, error)
	}

	QuizRepository interface {
		Create(ctx context.Context, quiz *model.Quiz) error
		Get(ctx context.Context, id uuid.UUID) (*model.Quiz, error)
		ListByCourse(ctx context.Context, courseID uuid.UUID) ([]*model.Quiz, error)
	}

	AttemptRepository interface {
		Create(ctx context.Context, attempt *model.QuizAttempt) error
		Get(ctx context.Context, id uuid.UUID) (*model.QuizAttempt, error)
		// Update writes the attempt only while it is still in the expected status.
		Update(ctx context.Context, attempt *model.QuizAttempt, expected model.AttemptStatus) error
		ListForUser(ctx context.Context, quizID, userID uuid.UUID) ([]*model.QuizAttempt, error)
		ListOverdue(ctx context.Context, grace time.Duration, now time.Time) ([]*model.QuizAttempt, error)
		Summaries(ctx context.Context) ([]AttemptSummary, error)
	}

	CertificationRepository interface {
		Create(ctx context.Context, cert *model.Certification) error
		Get(ctx context.Context, id uuid.UUID) (*model.Certification, error)
		List(ctx context.Context, filters *model.CertificationFilters) ([]*model.Certification, error)
		// Revoke sets the revocation fields once; a second call returns ErrNotFound.
		Revoke(ctx context.Context, id uuid.UUID, at time.Time, reason string) error
	}

	NotificationRepository interface {
		// CreateWithOutbox stores the deliveries and their dispatch events atomically.
		CreateWithOutbox(ctx context.Context, notifications []*model.Notification, events []*model.OutboxEvent) error
		Get(ctx context.Context, id uuid.UUID) (*model.Notification, error)
		UpdateDelivery(ctx context.Context, notification *model.Notification) error
		List(ctx context.Context, filters *model.NotificationFilters) ([]*model.Notification, int, error)
		MarkRead(ctx context.Context, id, userID uuid.UUID, at time.Time) error
		ExistsForReference(ctx context.Context, userID uuid.UUID, notificationType model.NotificationType, referenceID uuid.UUID) (bool, error)
	}

	PreferenceRepository interface {
		Get(ctx context.Context, userID uuid.UUID, notificationType model.NotificationType) (*model.NotificationPreference, error)
		ListForUser(ctx context.Context, userID uuid.UUID) ([]*model.NotificationPreference, error)
		Upsert(ctx context.Context, pref *model.NotificationPreference) error
	}

	TemplateRepository interface {
		Get(ctx context.Context, notificationType model.NotificationType) (*model.NotificationTemplate, error)
		List(ctx context.Context) ([]*model.NotificationTemplate, error)
		Upsert(ctx context.Context, tmpl *model.NotificationTemplate) error
	}

	OutboxRepository interface {
		// ClaimPending locks up to limit due events and pushes their retry_at
		// forward by lease so concurrent workers skip them.
		ClaimPending(ctx context.Context, limit int, lease time.Duration, now time.Time) ([]*model.OutboxEvent, error)
		MarkProcessed(ctx context.Context, id uuid.UUID, at time.Time) error
		MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, retryAt *time.Time) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)
