package course

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/lms-api/internal/model"
	"github.com/jwalitptl/lms-api/internal/repository"
	"github.com/jwalitptl/lms-api/internal/service/certification"
	"github.com/jwalitptl/lms-api/internal/service/notification"
	"github.com/jwalitptl/lms-api/pkg/auth"
	apperrors "github.com/jwalitptl/lms-api/pkg/errors"
	"github.com/jwalitptl/lms-api/pkg/logger"
)

type CourseServicer interface {
	CreateCourse(ctx context.Context, p auth.Principal, req *model.CreateCourseRequest) (*model.Course, error)
	GetCourse(ctx context.Context, p auth.Principal, id uuid.UUID) (*model.Course, error)
	ListCourses(ctx context.Context, p auth.Principal, page model.Pagination) ([]*model.Course, int, error)
	Enroll(ctx context.Context, p auth.Principal, courseID uuid.UUID, req *model.EnrollRequest) (*model.Enrollment, error)
	ListEnrollments(ctx context.Context, p auth.Principal, filter model.EnrollmentFilters) ([]*model.Enrollment, error)
	CompleteEnrollment(ctx context.Context, p auth.Principal, id uuid.UUID) (*model.Enrollment, *model.Certification, error)
	Withdraw(ctx context.Context, p auth.Principal, id uuid.UUID) (*model.Enrollment, error)
}

type Service struct {
	courses     repository.CourseRepository
	enrollments repository.EnrollmentRepository
	users       repository.UserRepository
	issuer      certification.Issuer
	notifier    notification.Notifier
	logger      *logger.Logger
	now         func() time.Time
}

func NewService(
	courses repository.CourseRepository,
	enrollments repository.EnrollmentRepository,
	users repository.UserRepository,
	issuer certification.Issuer,
	notifier notification.Notifier,
	logger *logger.Logger,
) *Service {
	return &Service{
		courses:     courses,
		enrollments: enrollments,
		users:       users,
		issuer:      issuer,
		notifier:    notifier,
		logger:      logger,
		now:         time.Now,
	}
}

func canAuthor(p auth.Principal) bool {
	return p.HasRole(model.RoleAdmin, model.RoleInstructor)
}

func (s *Service) CreateCourse(ctx context.Context, p auth.Principal, req *model.CreateCourseRequest) (*model.Course, error) {
	if !canAuthor(p) {
		return nil, apperrors.Forbidden("only admins and instructors can create courses")
	}

	course := &model.Course{
		Title:                       req.Title,
		Description:                 req.Description,
		CertificationValidityMonths: req.CertificationValidityMonths,
		Published:                   req.Published,
		CreatedBy:                   p.UserID,
	}
	if err := s.courses.Create(ctx, course); err != nil {
		return nil, fmt.Errorf("failed to create course: %w", err)
	}

	s.logger.Info("course created", "course_id", course.ID.String(), "created_by", p.UserID.String())
	return course, nil
}

func (s *Service) getCourse(ctx context.Context, id uuid.UUID) (*model.Course, error) {
	course, err := s.courses.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("course", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get course: %w", err)
	}
	return course, nil
}

// GetCourse hides drafts from collaborators.
func (s *Service) GetCourse(ctx context.Context, p auth.Principal, id uuid.UUID) (*model.Course, error) {
	course, err := s.getCourse(ctx, id)
	if err != nil {
		return nil, err
	}
	if !course.Published && !canAuthor(p) {
		return nil, apperrors.NotFound("course", nil)
	}
	return course, nil
}

func (s *Service) ListCourses(ctx context.Context, p auth.Principal, page model.Pagination) ([]*model.Course, int, error) {
	page.Normalize()
	filters := &model.CourseFilters{PublishedOnly: !canAuthor(p), Pagination: page}

	courses, total, err := s.courses.List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list courses: %w", err)
	}
	return courses, total, nil
}

// Enroll signs the caller up, or with an explicit user id lets an admin enroll
// someone else. A withdrawn enrollment is reactivated instead of duplicated.
func (s *Service) Enroll(ctx context.Context, p auth.Principal, courseID uuid.UUID, req *model.EnrollRequest) (*model.Enrollment, error) {
	userID := p.UserID
	if req != nil && req.UserID != nil && *req.UserID != p.UserID {
		if !p.IsAdmin() {
			return nil, apperrors.Forbidden("only admins can enroll other users")
		}
		userID = *req.UserID
		if _, err := s.users.Get(ctx, userID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, apperrors.NotFound("user", err)
			}
			return nil, fmt.Errorf("failed to get user: %w", err)
		}
	}

	course, err := s.GetCourse(ctx, p, courseID)
	if err != nil {
		return nil, err
	}
	if !course.Published {
		return nil, apperrors.BadRequest("course is not published", nil)
	}

	existing, err := s.enrollments.List(ctx, &model.EnrollmentFilters{UserID: &userID, CourseID: &courseID})
	if err != nil {
		return nil, fmt.Errorf("failed to check enrollment: %w", err)
	}

	now := s.now()
	var enrollment *model.Enrollment
	if len(existing) > 0 {
		enrollment = existing[0]
		if enrollment.Status != model.EnrollmentStatusWithdrawn {
			return nil, apperrors.Conflict("already enrolled in this course")
		}
		enrollment.Status = model.EnrollmentStatusActive
		enrollment.EnrolledAt = now
		enrollment.CompletedAt = nil
		if err := s.enrollments.Update(ctx, enrollment, model.EnrollmentStatusWithdrawn); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, apperrors.Conflict("enrollment changed concurrently; retry")
			}
			return nil, fmt.Errorf("failed to reactivate enrollment: %w", err)
		}
	} else {
		enrollment = &model.Enrollment{
			UserID:     userID,
			CourseID:   courseID,
			Status:     model.EnrollmentStatusActive,
			EnrolledAt: now,
		}
		if err := s.enrollments.Create(ctx, enrollment); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return nil, apperrors.Conflict("already enrolled in this course")
			}
			return nil, fmt.Errorf("failed to create enrollment: %w", err)
		}
	}

	s.notify(ctx, userID, model.NotificationEnrollmentConfirmed, course, enrollment.ID)
	return enrollment, nil
}

func (s *Service) notify(ctx context.Context, userID uuid.UUID, t model.NotificationType, course *model.Course, ref uuid.UUID) {
	data := map[string]string{"course_title": course.Title}
	if err := s.notifier.Notify(ctx, userID, t, data, &ref); err != nil {
		s.logger.Error(err, "failed to queue notification", "type", string(t), "user_id", userID.String())
	}
}

// ListEnrollments scopes collaborators to their own enrollments.
func (s *Service) ListEnrollments(ctx context.Context, p auth.Principal, filter model.EnrollmentFilters) ([]*model.Enrollment, error) {
	if !canAuthor(p) {
		own := p.UserID
		filter.UserID = &own
	}
	enrollments, err := s.enrollments.List(ctx, &filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list enrollments: %w", err)
	}
	return enrollments, nil
}

func (s *Service) getEnrollment(ctx context.Context, id uuid.UUID) (*model.Enrollment, error) {
	enrollment, err := s.enrollments.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("enrollment", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get enrollment: %w", err)
	}
	return enrollment, nil
}

// CompleteEnrollment marks the course finished and issues its certification.
// The ACTIVE to COMPLETED transition is claimed first so concurrent calls
// issue at most one certification; a failed issue reopens the enrollment.
func (s *Service) CompleteEnrollment(ctx context.Context, p auth.Principal, id uuid.UUID) (*model.Enrollment, *model.Certification, error) {
	if !canAuthor(p) {
		return nil, nil, apperrors.Forbidden("only admins and instructors can complete enrollments")
	}

	enrollment, err := s.getEnrollment(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if enrollment.Status != model.EnrollmentStatusActive {
		return nil, nil, apperrors.Conflict(fmt.Sprintf("enrollment is %s", enrollment.Status))
	}
	course, err := s.getCourse(ctx, enrollment.CourseID)
	if err != nil {
		return nil, nil, err
	}

	now := s.now()
	enrollment.Status = model.EnrollmentStatusCompleted
	enrollment.CompletedAt = &now
	if err := s.enrollments.Update(ctx, enrollment, model.EnrollmentStatusActive); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, apperrors.Conflict("enrollment is no longer active")
		}
		return nil, nil, fmt.Errorf("failed to complete enrollment: %w", err)
	}

	cert, err := s.issuer.IssueFor(ctx, enrollment.UserID, enrollment.CourseID, nil)
	if err != nil {
		s.reopen(ctx, enrollment)
		return nil, nil, fmt.Errorf("failed to issue certification: %w", err)
	}

	s.notify(ctx, enrollment.UserID, model.NotificationCourseCompleted, course, enrollment.ID)
	return enrollment, cert, nil
}

// reopen rolls a claimed completion back to ACTIVE.
func (s *Service) reopen(ctx context.Context, enrollment *model.Enrollment) {
	enrollment.Status = model.EnrollmentStatusActive
	enrollment.CompletedAt = nil
	if err := s.enrollments.Update(ctx, enrollment, model.EnrollmentStatusCompleted); err != nil {
		s.logger.Error(err, "failed to reopen enrollment after issue failure", "enrollment_id", enrollment.ID)
	}
}

func (s *Service) Withdraw(ctx context.Context, p auth.Principal, id uuid.UUID) (*model.Enrollment, error) {
	enrollment, err := s.getEnrollment(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.CanManage(enrollment.UserID) {
		return nil, apperrors.NotFound("enrollment", nil)
	}
	if enrollment.Status != model.EnrollmentStatusActive {
		return nil, apperrors.Conflict(fmt.Sprintf("enrollment is %s", enrollment.Status))
	}

	enrollment.Status = model.EnrollmentStatusWithdrawn
	if err := s.enrollments.Update(ctx, enrollment, model.EnrollmentStatusActive); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Conflict("enrollment is no longer active")
		}
		return nil, fmt.Errorf("failed to withdraw enrollment: %w", err)
	}
	return enrollment, nil
}
