package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/jwalitptl/lms-api/internal/model"
	"github.com/jwalitptl/lms-api/internal/repository"
	"github.com/jwalitptl/lms-api/internal/status"
	"github.com/jwalitptl/lms-api/pkg/auth"
	apperrors "github.com/jwalitptl/lms-api/pkg/errors"
)

type DashboardServicer interface {
	Summary(ctx context.Context, p auth.Principal) (*model.DashboardSummary, error)
}

type Service struct {
	certs       repository.CertificationRepository
	attempts    repository.AttemptRepository
	enrollments repository.EnrollmentRepository
	courses     repository.CourseRepository
	now         func() time.Time
}

func NewService(
	certs repository.CertificationRepository,
	attempts repository.AttemptRepository,
	enrollments repository.EnrollmentRepository,
	courses repository.CourseRepository,
) *Service {
	return &Service{
		certs:       certs,
		attempts:    attempts,
		enrollments: enrollments,
		courses:     courses,
		now:         time.Now,
	}
}

// Summary counts records by the same derived statuses the detail views show,
// so the dashboard and the lists never disagree.
func (s *Service) Summary(ctx context.Context, p auth.Principal) (*model.DashboardSummary, error) {
	if !p.IsAdmin() {
		return nil, apperrors.Forbidden("dashboard is restricted to admins")
	}

	summary := &model.DashboardSummary{
		Certifications: make(map[string]int, len(status.CertificationStatuses)),
		Attempts:       make(map[string]int, len(status.AttemptResults)),
		Enrollments:    make(map[string]int, 3),
	}
	for _, st := range status.CertificationStatuses {
		summary.Certifications[string(st)] = 0
	}
	for _, r := range status.AttemptResults {
		summary.Attempts[string(r)] = 0
	}
	for _, st := range []model.EnrollmentStatus{model.EnrollmentStatusActive, model.EnrollmentStatusCompleted, model.EnrollmentStatusWithdrawn} {
		summary.Enrollments[string(st)] = 0
	}

	certs, err := s.certs.List(ctx, &model.CertificationFilters{})
	if err != nil {
		return nil, fmt.Errorf("failed to list certifications: %w", err)
	}
	now := s.now()
	for _, cert := range certs {
		summary.Certifications[string(status.ClassifyCertification(cert, now))]++
	}

	attempts, err := s.attempts.Summaries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize attempts: %w", err)
	}
	for _, a := range attempts {
		summary.Attempts[string(status.ResolveAttempt(a.Status, a.Score, a.PassingScore))]++
	}

	counts, err := s.enrollments.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count enrollments: %w", err)
	}
	for st, n := range counts {
		summary.Enrollments[string(st)] = n
	}

	_, total, err := s.courses.List(ctx, &model.CourseFilters{Pagination: model.Pagination{Page: 1, PageSize: 1}})
	if err != nil {
		return nil, fmt.Errorf("failed to count courses: %w", err)
	}
	summary.Courses = total

	return summary, nil
}
