// Package mocks holds testify mocks for the repository interfaces and the
// delivery ports services depend on.
package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/jwalitptl/lms-api/internal/email"
	"github.com/jwalitptl/lms-api/internal/model"
	"github.com/jwalitptl/lms-api/internal/repository"
)

type UserRepository struct{ mock.Mock }

func (m *UserRepository) Create(ctx context.Context, user *model.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *UserRepository) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	user, _ := args.Get(0).(*model.User)
	return user, args.Error(1)
}

func (m *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	user, _ := args.Get(0).(*model.User)
	return user, args.Error(1)
}

type CourseRepository struct{ mock.Mock }

func (m *CourseRepository) Create(ctx context.Context, course *model.Course) error {
	return m.Called(ctx, course).Error(0)
}

func (m *CourseRepository) Get(ctx context.Context, id uuid.UUID) (*model.Course, error) {
	args := m.Called(ctx, id)
	course, _ := args.Get(0).(*model.Course)
	return course, args.Error(1)
}

func (m *CourseRepository) List(ctx context.Context, filters *model.CourseFilters) ([]*model.Course, int, error) {
	args := m.Called(ctx, filters)
	courses, _ := args.Get(0).([]*model.Course)
	return courses, args.Int(1), args.Error(2)
}

type EnrollmentRepository struct{ mock.Mock }

func (m *EnrollmentRepository) Create(ctx context.Context, e *model.Enrollment) error {
	return m.Called(ctx, e).Error(0)
}

func (m *EnrollmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Enrollment, error) {
	args := m.Called(ctx, id)
	e, _ := args.Get(0).(*model.Enrollment)
	return e, args.Error(1)
}

func (m *EnrollmentRepository) Update(ctx context.Context, e *model.Enrollment, expected model.EnrollmentStatus) error {
	return m.Called(ctx, e, expected).Error(0)
}

func (m *EnrollmentRepository) List(ctx context.Context, filters *model.EnrollmentFilters) ([]*model.Enrollment, error) {
	args := m.Called(ctx, filters)
	list, _ := args.Get(0).([]*model.Enrollment)
	return list, args.Error(1)
}

func (m *EnrollmentRepository) CountByStatus(ctx context.Context) (map[model.EnrollmentStatus]int, error) {
	args := m.Called(ctx)
	counts, _ := args.Get(0).(map[model.EnrollmentStatus]int)
	return counts, args.Error(1)
}

type QuizRepository struct{ mock.Mock }

func (m *QuizRepository) Create(ctx context.Context, quiz *model.Quiz) error {
	return m.Called(ctx, quiz).Error(0)
}

func (m *QuizRepository) Get(ctx context.Context, id uuid.UUID) (*model.Quiz, error) {
	args := m.Called(ctx, id)
	quiz, _ := args.Get(0).(*model.Quiz)
	return quiz, args.Error(1)
}

func (m *QuizRepository) ListByCourse(ctx context.Context, courseID uuid.UUID) ([]*model.Quiz, error) {
	args := m.Called(ctx, courseID)
	list, _ := args.Get(0).([]*model.Quiz)
	return list, args.Error(1)
}

type AttemptRepository struct{ mock.Mock }

func (m *AttemptRepository) Create(ctx context.Context, a *model.QuizAttempt) error {
	return m.Called(ctx, a).Error(0)
}

func (m *AttemptRepository) Get(ctx context.Context, id uuid.UUID) (*model.QuizAttempt, error) {
	args := m.Called(ctx, id)
	a, _ := args.Get(0).(*model.QuizAttempt)
	return a, args.Error(1)
}

func (m *AttemptRepository) Update(ctx context.Context, a *model.QuizAttempt, expected model.AttemptStatus) error {
	return m.Called(ctx, a, expected).Error(0)
}

func (m *AttemptRepository) ListForUser(ctx context.Context, quizID, userID uuid.UUID) ([]*model.QuizAttempt, error) {
	args := m.Called(ctx, quizID, userID)
	list, _ := args.Get(0).([]*model.QuizAttempt)
	return list, args.Error(1)
}

func (m *AttemptRepository) ListOverdue(ctx context.Context, grace time.Duration, now time.Time) ([]*model.QuizAttempt, error) {
	args := m.Called(ctx, grace, now)
	list, _ := args.Get(0).([]*model.QuizAttempt)
	return list, args.Error(1)
}

func (m *AttemptRepository) Summaries(ctx context.Context) ([]repository.AttemptSummary, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]repository.AttemptSummary)
	return list, args.Error(1)
}

type CertificationRepository struct{ mock.Mock }

func (m *CertificationRepository) Create(ctx context.Context, cert *model.Certification) error {
	return m.Called(ctx, cert).Error(0)
}

func (m *CertificationRepository) Get(ctx context.Context, id uuid.UUID) (*model.Certification, error) {
	args := m.Called(ctx, id)
	cert, _ := args.Get(0).(*model.Certification)
	return cert, args.Error(1)
}

func (m *CertificationRepository) List(ctx context.Context, filters *model.CertificationFilters) ([]*model.Certification, error) {
	args := m.Called(ctx, filters)
	list, _ := args.Get(0).([]*model.Certification)
	return list, args.Error(1)
}

func (m *CertificationRepository) Revoke(ctx context.Context, id uuid.UUID, at time.Time, reason string) error {
	return m.Called(ctx, id, at, reason).Error(0)
}

type NotificationRepository struct{ mock.Mock }

func (m *NotificationRepository) CreateWithOutbox(ctx context.Context, notifications []*model.Notification, events []*model.OutboxEvent) error {
	return m.Called(ctx, notifications, events).Error(0)
}

func (m *NotificationRepository) Get(ctx context.Context, id uuid.UUID) (*model.Notification, error) {
	args := m.Called(ctx, id)
	n, _ := args.Get(0).(*model.Notification)
	return n, args.Error(1)
}

func (m *NotificationRepository) UpdateDelivery(ctx context.Context, n *model.Notification) error {
	return m.Called(ctx, n).Error(0)
}

func (m *NotificationRepository) List(ctx context.Context, filters *model.NotificationFilters) ([]*model.Notification, int, error) {
	args := m.Called(ctx, filters)
	list, _ := args.Get(0).([]*model.Notification)
	return list, args.Int(1), args.Error(2)
}

func (m *NotificationRepository) MarkRead(ctx context.Context, id, userID uuid.UUID, at time.Time) error {
	return m.Called(ctx, id, userID, at).Error(0)
}

func (m *NotificationRepository) ExistsForReference(ctx context.Context, userID uuid.UUID, t model.NotificationType, referenceID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, t, referenceID)
	return args.Bool(0), args.Error(1)
}

type PreferenceRepository struct{ mock.Mock }

func (m *PreferenceRepository) Get(ctx context.Context, userID uuid.UUID, t model.NotificationType) (*model.NotificationPreference, error) {
	args := m.Called(ctx, userID, t)
	pref, _ := args.Get(0).(*model.NotificationPreference)
	return pref, args.Error(1)
}

func (m *PreferenceRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*model.NotificationPreference, error) {
	args := m.Called(ctx, userID)
	list, _ := args.Get(0).([]*model.NotificationPreference)
	return list, args.Error(1)
}

func (m *PreferenceRepository) Upsert(ctx context.Context, pref *model.NotificationPreference) error {
	return m.Called(ctx, pref).Error(0)
}

type TemplateRepository struct{ mock.Mock }

func (m *TemplateRepository) Get(ctx context.Context, t model.NotificationType) (*model.NotificationTemplate, error) {
	args := m.Called(ctx, t)
	tmpl, _ := args.Get(0).(*model.NotificationTemplate)
	return tmpl, args.Error(1)
}

func (m *TemplateRepository) List(ctx context.Context) ([]*model.NotificationTemplate, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]*model.NotificationTemplate)
	return list, args.Error(1)
}

func (m *TemplateRepository) Upsert(ctx context.Context, tmpl *model.NotificationTemplate) error {
	return m.Called(ctx, tmpl).Error(0)
}

// Notifier mocks the notification entry point other services call.
type OutboxRepository struct{ mock.Mock }

func (m *OutboxRepository) ClaimPending(ctx context.Context, limit int, lease time.Duration, now time.Time) ([]*model.OutboxEvent, error) {
	args := m.Called(ctx, limit, lease, now)
	events, _ := args.Get(0).([]*model.OutboxEvent)
	return events, args.Error(1)
}

func (m *OutboxRepository) MarkProcessed(ctx context.Context, id uuid.UUID, at time.Time) error {
	return m.Called(ctx, id, at).Error(0)
}

func (m *OutboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, retryAt *time.Time) error {
	return m.Called(ctx, id, errMsg, retryAt).Error(0)
}

func (m *OutboxRepository) DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

type Notifier struct{ mock.Mock }

func (m *Notifier) Notify(ctx context.Context, userID uuid.UUID, t model.NotificationType, data map[string]string, referenceID *uuid.UUID) error {
	return m.Called(ctx, userID, t, data, referenceID).Error(0)
}

type EmailSender struct{ mock.Mock }

func (m *EmailSender) Send(ctx context.Context, msg email.Message) error {
	return m.Called(ctx, msg).Error(0)
}

type Broker struct{ mock.Mock }

func (m *Broker) Publish(ctx context.Context, channel string, message interface{}) error {
	return m.Called(ctx, channel, message).Error(0)
}

func (m *Broker) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	args := m.Called(ctx, channel)
	ch, _ := args.Get(0).(<-chan []byte)
	return ch, args.Error(1)
}

func (m *Broker) Close() error {
	return m.Called().Error(0)
}

type Issuer struct{ mock.Mock }

func (m *Issuer) IssueFor(ctx context.Context, userID, courseID uuid.UUID, previous *uuid.UUID) (*model.Certification, error) {
	args := m.Called(ctx, userID, courseID, previous)
	cert, _ := args.Get(0).(*model.Certification)
	return cert, args.Error(1)
}
