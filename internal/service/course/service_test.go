package course

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/lms-api/internal/model"
	"github.com/jwalitptl/lms-api/internal/repository"
	"github.com/jwalitptl/lms-api/internal/repository/mocks"
	"github.com/jwalitptl/lms-api/pkg/auth"
	apperrors "github.com/jwalitptl/lms-api/pkg/errors"
	"github.com/jwalitptl/lms-api/pkg/logger"
)

var now = time.Date(2026, 5, 4, 8, 30, 0, 0, time.UTC)

type fixture struct {
	courses     *mocks.CourseRepository
	enrollments *mocks.EnrollmentRepository
	users       *mocks.UserRepository
	issuer      *mocks.Issuer
	notifier    *mocks.Notifier
	svc         *Service
}

func newFixture() *fixture {
	f := &fixture{
		courses:     new(mocks.CourseRepository),
		enrollments: new(mocks.EnrollmentRepository),
		users:       new(mocks.UserRepository),
		issuer:      new(mocks.Issuer),
		notifier:    new(mocks.Notifier),
	}
	f.svc = NewService(f.courses, f.enrollments, f.users, f.issuer, f.notifier, logger.Nop())
	f.svc.now = func() time.Time { return now }
	return f
}

func principal(role model.Role) auth.Principal {
	return auth.Principal{UserID: uuid.New(), Role: role}
}

func publishedCourse() *model.Course {
	c := &model.Course{Title: "Ladder safety", Published: true}
	c.ID = uuid.New()
	return c
}

func TestCreateCourse(t *testing.T) {
	f := newFixture()
	instructor := principal(model.RoleInstructor)
	f.courses.On("Create", mock.Anything, mock.MatchedBy(func(c *model.Course) bool {
		return c.CreatedBy == instructor.UserID && c.Title == "Ladder safety"
	})).Return(nil)

	_, err := f.svc.CreateCourse(context.Background(), instructor, &model.CreateCourseRequest{Title: "Ladder safety"})
	require.NoError(t, err)

	_, err = f.svc.CreateCourse(context.Background(), principal(model.RoleCollaborator), &model.CreateCourseRequest{Title: "x"})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrForbidden))
}

func TestGetCourse_DraftHiddenFromCollaborators(t *testing.T) {
	f := newFixture()
	draft := publishedCourse()
	draft.Published = false
	f.courses.On("Get", mock.Anything, draft.ID).Return(draft, nil)

	_, err := f.svc.GetCourse(context.Background(), principal(model.RoleCollaborator), draft.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrNotFound))

	got, err := f.svc.GetCourse(context.Background(), principal(model.RoleAdmin), draft.ID)
	require.NoError(t, err)
	assert.Equal(t, draft.ID, got.ID)
}

func TestListCourses_PublishedOnlyForCollaborators(t *testing.T) {
	f := newFixture()
	f.courses.On("List", mock.Anything, mock.MatchedBy(func(fl *model.CourseFilters) bool {
		return fl.PublishedOnly && fl.Page == 1 && fl.PageSize == 50
	})).Return([]*model.Course{publishedCourse()}, 1, nil)

	courses, total, err := f.svc.ListCourses(context.Background(), principal(model.RoleCollaborator), model.Pagination{})
	require.NoError(t, err)
	assert.Len(t, courses, 1)
	assert.Equal(t, 1, total)
}

func TestEnroll_Self(t *testing.T) {
	f := newFixture()
	c := publishedCourse()
	p := principal(model.RoleCollaborator)

	f.courses.On("Get", mock.Anything, c.ID).Return(c, nil)
	f.enrollments.On("List", mock.Anything, mock.Anything).Return([]*model.Enrollment{}, nil)
	f.enrollments.On("Create", mock.Anything, mock.MatchedBy(func(e *model.Enrollment) bool {
		return e.UserID == p.UserID && e.Status == model.EnrollmentStatusActive && e.EnrolledAt.Equal(now)
	})).Return(nil)
	f.notifier.On("Notify", mock.Anything, p.UserID, model.NotificationEnrollmentConfirmed, mock.Anything, mock.Anything).Return(nil)

	e, err := f.svc.Enroll(context.Background(), p, c.ID, &model.EnrollRequest{})
	require.NoError(t, err)
	assert.Equal(t, c.ID, e.CourseID)
	f.notifier.AssertExpectations(t)
}

func TestEnroll_Duplicate(t *testing.T) {
	f := newFixture()
	c := publishedCourse()
	p := principal(model.RoleCollaborator)

	f.courses.On("Get", mock.Anything, c.ID).Return(c, nil)
	f.enrollments.On("List", mock.Anything, mock.Anything).Return([]*model.Enrollment{
		{UserID: p.UserID, CourseID: c.ID, Status: model.EnrollmentStatusActive},
	}, nil)

	_, err := f.svc.Enroll(context.Background(), p, c.ID, nil)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrConflict))
	f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestEnroll_RaceHitsUniqueIndex(t *testing.T) {
	f := newFixture()
	c := publishedCourse()

	f.courses.On("Get", mock.Anything, c.ID).Return(c, nil)
	f.enrollments.On("List", mock.Anything, mock.Anything).Return([]*model.Enrollment{}, nil)
	f.enrollments.On("Create", mock.Anything, mock.Anything).Return(repository.ErrDuplicate)

	_, err := f.svc.Enroll(context.Background(), principal(model.RoleCollaborator), c.ID, nil)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrConflict))
}

func TestEnroll_ReactivatesWithdrawn(t *testing.T) {
	f := newFixture()
	c := publishedCourse()
	p := principal(model.RoleCollaborator)
	old := &model.Enrollment{UserID: p.UserID, CourseID: c.ID, Status: model.EnrollmentStatusWithdrawn}
	old.ID = uuid.New()

	f.courses.On("Get", mock.Anything, c.ID).Return(c, nil)
	f.enrollments.On("List", mock.Anything, mock.Anything).Return([]*model.Enrollment{old}, nil)
	f.enrollments.On("Update", mock.Anything, old, model.EnrollmentStatusWithdrawn).Return(nil)
	f.notifier.On("Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	e, err := f.svc.Enroll(context.Background(), p, c.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, old.ID, e.ID)
	assert.Equal(t, model.EnrollmentStatusActive, e.Status)
}

func TestEnroll_OtherUser(t *testing.T) {
	f := newFixture()
	c := publishedCourse()
	target := uuid.New()

	_, err := f.svc.Enroll(context.Background(), principal(model.RoleCollaborator), c.ID, &model.EnrollRequest{UserID: &target})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrForbidden))

	f.users.On("Get", mock.Anything, target).Return(&model.User{}, nil)
	f.courses.On("Get", mock.Anything, c.ID).Return(c, nil)
	f.enrollments.On("List", mock.Anything, mock.Anything).Return([]*model.Enrollment{}, nil)
	f.enrollments.On("Create", mock.Anything, mock.Anything).Return(nil)
	f.notifier.On("Notify", mock.Anything, target, model.NotificationEnrollmentConfirmed, mock.Anything, mock.Anything).Return(nil)

	e, err := f.svc.Enroll(context.Background(), principal(model.RoleAdmin), c.ID, &model.EnrollRequest{UserID: &target})
	require.NoError(t, err)
	assert.Equal(t, target, e.UserID)
}

func TestCompleteEnrollment_IssuesCertification(t *testing.T) {
	f := newFixture()
	c := publishedCourse()
	e := &model.Enrollment{UserID: uuid.New(), CourseID: c.ID, Status: model.EnrollmentStatusActive}
	e.ID = uuid.New()
	cert := &model.Certification{UserID: e.UserID, CourseID: c.ID, IssuedAt: now}

	f.enrollments.On("Get", mock.Anything, e.ID).Return(e, nil)
	f.courses.On("Get", mock.Anything, c.ID).Return(c, nil)
	f.enrollments.On("Update", mock.Anything, e, model.EnrollmentStatusActive).Return(nil)
	f.notifier.On("Notify", mock.Anything, e.UserID, model.NotificationCourseCompleted, mock.Anything, mock.Anything).Return(nil)
	f.issuer.On("IssueFor", mock.Anything, e.UserID, c.ID, (*uuid.UUID)(nil)).Return(cert, nil)

	got, issued, err := f.svc.CompleteEnrollment(context.Background(), principal(model.RoleInstructor), e.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EnrollmentStatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
	assert.Equal(t, cert, issued)

	_, _, err = f.svc.CompleteEnrollment(context.Background(), principal(model.RoleInstructor), e.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrConflict))
	f.issuer.AssertNumberOfCalls(t, "IssueFor", 1)
}

func TestCompleteEnrollment_IssueFailureReopens(t *testing.T) {
	f := newFixture()
	c := publishedCourse()
	e := &model.Enrollment{UserID: uuid.New(), CourseID: c.ID, Status: model.EnrollmentStatusActive}
	e.ID = uuid.New()
	cert := &model.Certification{UserID: e.UserID, CourseID: c.ID, IssuedAt: now}
	instructor := principal(model.RoleInstructor)

	f.enrollments.On("Get", mock.Anything, e.ID).Return(e, nil)
	f.courses.On("Get", mock.Anything, c.ID).Return(c, nil)
	f.enrollments.On("Update", mock.Anything, e, model.EnrollmentStatusActive).Return(nil)
	f.enrollments.On("Update", mock.Anything, e, model.EnrollmentStatusCompleted).Return(nil)
	f.issuer.On("IssueFor", mock.Anything, e.UserID, c.ID, (*uuid.UUID)(nil)).Return(nil, errors.New("db down")).Once()
	f.issuer.On("IssueFor", mock.Anything, e.UserID, c.ID, (*uuid.UUID)(nil)).Return(cert, nil).Once()
	f.notifier.On("Notify", mock.Anything, e.UserID, model.NotificationCourseCompleted, mock.Anything, mock.Anything).Return(nil)

	_, _, err := f.svc.CompleteEnrollment(context.Background(), instructor, e.ID)
	require.Error(t, err)
	assert.Equal(t, model.EnrollmentStatusActive, e.Status)
	assert.Nil(t, e.CompletedAt)
	f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	got, issued, err := f.svc.CompleteEnrollment(context.Background(), instructor, e.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EnrollmentStatusCompleted, got.Status)
	assert.Equal(t, cert, issued)
	f.issuer.AssertNumberOfCalls(t, "IssueFor", 2)
	f.notifier.AssertNumberOfCalls(t, "Notify", 1)
}

func TestCompleteEnrollment_LostRaceIsConflict(t *testing.T) {
	f := newFixture()
	c := publishedCourse()
	e := &model.Enrollment{UserID: uuid.New(), CourseID: c.ID, Status: model.EnrollmentStatusActive}
	e.ID = uuid.New()

	f.enrollments.On("Get", mock.Anything, e.ID).Return(e, nil)
	f.courses.On("Get", mock.Anything, c.ID).Return(c, nil)
	f.enrollments.On("Update", mock.Anything, e, model.EnrollmentStatusActive).Return(repository.ErrNotFound)

	_, _, err := f.svc.CompleteEnrollment(context.Background(), principal(model.RoleAdmin), e.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrConflict))
	f.issuer.AssertNotCalled(t, "IssueFor", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.notifier.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestWithdraw(t *testing.T) {
	f := newFixture()
	p := principal(model.RoleCollaborator)
	e := &model.Enrollment{UserID: p.UserID, CourseID: uuid.New(), Status: model.EnrollmentStatusActive}
	e.ID = uuid.New()

	f.enrollments.On("Get", mock.Anything, e.ID).Return(e, nil)
	f.enrollments.On("Update", mock.Anything, e, model.EnrollmentStatusActive).Return(nil)

	_, err := f.svc.Withdraw(context.Background(), principal(model.RoleCollaborator), e.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrNotFound))

	got, err := f.svc.Withdraw(context.Background(), p, e.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EnrollmentStatusWithdrawn, got.Status)
}
