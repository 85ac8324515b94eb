package certification

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/lms-api/internal/model"
	"github.com/jwalitptl/lms-api/internal/repository"
	"github.com/jwalitptl/lms-api/internal/service/notification"
	"github.com/jwalitptl/lms-api/internal/status"
	"github.com/jwalitptl/lms-api/pkg/auth"
	apperrors "github.com/jwalitptl/lms-api/pkg/errors"
	"github.com/jwalitptl/lms-api/pkg/logger"
	"github.com/jwalitptl/lms-api/pkg/metrics"
)

const dateLayout = "2006-01-02"

// View is a certification with its status derived at read time.
type View struct {
	*model.Certification
	Status          status.CertificationStatus `json:"status"`
	DaysUntilExpiry *int                       `json:"days_until_expiry,omitempty"`
}

type ListFilter struct {
	UserID   *uuid.UUID
	CourseID *uuid.UUID
	Status   status.CertificationStatus
}

// Issuer is the slice of the service enrollment completion needs.
type Issuer interface {
	IssueFor(ctx context.Context, userID, courseID uuid.UUID, previous *uuid.UUID) (*model.Certification, error)
}

type CertificationServicer interface {
	Issuer
	Issue(ctx context.Context, p auth.Principal, req *model.IssueCertificationRequest) (*View, error)
	Get(ctx context.Context, p auth.Principal, id uuid.UUID) (*View, error)
	List(ctx context.Context, p auth.Principal, filter ListFilter) ([]View, error)
	Revoke(ctx context.Context, p auth.Principal, id uuid.UUID, reason string) (*View, error)
	Recertify(ctx context.Context, p auth.Principal, id uuid.UUID) (*View, error)
	ExportCSV(ctx context.Context, p auth.Principal, filter ListFilter, w io.Writer) error
	SendExpiryReminders(ctx context.Context) (int, error)
}

type Service struct {
	certs    repository.CertificationRepository
	courses  repository.CourseRepository
	notices  repository.NotificationRepository
	notifier notification.Notifier
	metrics  *metrics.Metrics
	logger   *logger.Logger
	now      func() time.Time
}

func NewService(
	certs repository.CertificationRepository,
	courses repository.CourseRepository,
	notices repository.NotificationRepository,
	notifier notification.Notifier,
	metrics *metrics.Metrics,
	logger *logger.Logger,
) *Service {
	return &Service{
		certs:    certs,
		courses:  courses,
		notices:  notices,
		notifier: notifier,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *Service) view(cert *model.Certification, now time.Time) View {
	v := View{Certification: cert, Status: status.ClassifyCertification(cert, now)}
	if cert.ExpiresAt != nil && cert.RevokedAt == nil {
		days := status.DaysUntil(*cert.ExpiresAt, now)
		v.DaysUntilExpiry = &days
	}
	return v
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

func (s *Service) getCert(ctx context.Context, id uuid.UUID) (*model.Certification, error) {
	cert, err := s.certs.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("certification", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get certification: %w", err)
	}
	return cert, nil
}

// IssueFor creates a certification valid for the course's validity period.
// Courses without one issue certifications that never expire.
func (s *Service) IssueFor(ctx context.Context, userID, courseID uuid.UUID, previous *uuid.UUID) (*model.Certification, error) {
	course, err := s.getCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}

	issuedAt := s.now()
	cert := &model.Certification{
		UserID:                  userID,
		CourseID:                courseID,
		IssuedAt:                issuedAt,
		PreviousCertificationID: previous,
	}
	if months := course.CertificationValidityMonths; months != nil && *months > 0 {
		expires := issuedAt.AddDate(0, *months, 0)
		cert.ExpiresAt = &expires
	}

	if err := s.certs.Create(ctx, cert); err != nil {
		return nil, fmt.Errorf("failed to create certification: %w", err)
	}
	s.metrics.CertificationsIssued.Inc()

	expires := "never"
	if cert.ExpiresAt != nil {
		expires = cert.ExpiresAt.Format(dateLayout)
	}
	s.notify(ctx, cert, model.NotificationCertificateIssued, map[string]string{
		"course_title": course.Title,
		"issued_at":    issuedAt.Format(dateLayout),
		"expires_at":   expires,
	})
	return cert, nil
}

func (s *Service) notify(ctx context.Context, cert *model.Certification, t model.NotificationType, data map[string]string) {
	ref := cert.ID
	if err := s.notifier.Notify(ctx, cert.UserID, t, data, &ref); err != nil {
		s.logger.Error(err, "failed to queue notification", "type", string(t), "certification_id", cert.ID.String())
	}
}

func (s *Service) Issue(ctx context.Context, p auth.Principal, req *model.IssueCertificationRequest) (*View, error) {
	if !p.HasRole(model.RoleAdmin, model.RoleInstructor) {
		return nil, apperrors.Forbidden("only admins and instructors can issue certifications")
	}
	cert, err := s.IssueFor(ctx, req.UserID, req.CourseID, nil)
	if err != nil {
		return nil, err
	}
	v := s.view(cert, s.now())
	return &v, nil
}

func (s *Service) Get(ctx context.Context, p auth.Principal, id uuid.UUID) (*View, error) {
	cert, err := s.getCert(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.CanManage(cert.UserID) && !p.HasRole(model.RoleInstructor) {
		return nil, apperrors.NotFound("certification", nil)
	}
	v := s.view(cert, s.now())
	return &v, nil
}

// List scopes collaborators to their own certifications. The status filter is
// applied after classification since status is never stored.
func (s *Service) List(ctx context.Context, p auth.Principal, filter ListFilter) ([]View, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperrors.BadRequest(fmt.Sprintf("unknown certification status %q", filter.Status), nil)
	}
	if !p.HasRole(model.RoleAdmin, model.RoleInstructor) {
		own := p.UserID
		filter.UserID = &own
	}

	certs, err := s.certs.List(ctx, &model.CertificationFilters{UserID: filter.UserID, CourseID: filter.CourseID})
	if err != nil {
		return nil, fmt.Errorf("failed to list certifications: %w", err)
	}

	now := s.now()
	views := make([]View, 0, len(certs))
	for _, cert := range certs {
		v := s.view(cert, now)
		if filter.Status != "" && v.Status != filter.Status {
			continue
		}
		views = append(views, v)
	}
	return views, nil
}

func (s *Service) Revoke(ctx context.Context, p auth.Principal, id uuid.UUID, reason string) (*View, error) {
	if !p.IsAdmin() {
		return nil, apperrors.Forbidden("only admins can revoke certifications")
	}

	cert, err := s.getCert(ctx, id)
	if err != nil {
		return nil, err
	}
	if cert.RevokedAt != nil {
		return nil, apperrors.Conflict("certification is already revoked")
	}

	at := s.now()
	if err := s.certs.Revoke(ctx, id, at, reason); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Conflict("certification is already revoked")
		}
		return nil, fmt.Errorf("failed to revoke certification: %w", err)
	}
	cert.RevokedAt = &at
	cert.RevocationReason = &reason
	s.metrics.CertificationsRevoked.Inc()

	data := map[string]string{"reason": reason}
	if course, err := s.getCourse(ctx, cert.CourseID); err == nil {
		data["course_title"] = course.Title
	}
	s.notify(ctx, cert, model.NotificationCertificateRevoked, data)

	v := s.view(cert, at)
	return &v, nil
}

// Recertify issues a fresh certification linked to id. The original row is left untouched.
func (s *Service) Recertify(ctx context.Context, p auth.Principal, id uuid.UUID) (*View, error) {
	if !p.HasRole(model.RoleAdmin, model.RoleInstructor) {
		return nil, apperrors.Forbidden("only admins and instructors can recertify")
	}

	prev, err := s.getCert(ctx, id)
	if err != nil {
		return nil, err
	}
	if prev.RevokedAt != nil {
		return nil, apperrors.Conflict("revoked certifications cannot be recertified")
	}

	cert, err := s.IssueFor(ctx, prev.UserID, prev.CourseID, &prev.ID)
	if err != nil {
		return nil, err
	}
	v := s.view(cert, s.now())
	return &v, nil
}

// SendExpiryReminders notifies holders of certifications that are expiring or
// have expired. Each certification gets at most one reminder of each kind, and
// certifications already superseded by a recertification are skipped.
func (s *Service) SendExpiryReminders(ctx context.Context) (int, error) {
	now := s.now()
	horizon := now.AddDate(0, 0, status.ExpiringWindowDays+1)

	candidates, err := s.certs.List(ctx, &model.CertificationFilters{ExpiresBefore: &horizon})
	if err != nil {
		return 0, fmt.Errorf("failed to list expiring certifications: %w", err)
	}

	titles := make(map[uuid.UUID]string)
	sent := 0
	for _, cert := range candidates {
		var t model.NotificationType
		switch status.ClassifyCertification(cert, now) {
		case status.CertificationExpiring:
			t = model.NotificationCertificateExpiring
		case status.CertificationExpired:
			t = model.NotificationCertificateExpired
		default:
			continue
		}

		superseded, err := s.superseded(ctx, cert)
		if err != nil {
			return sent, err
		}
		if superseded {
			continue
		}

		exists, err := s.notices.ExistsForReference(ctx, cert.UserID, t, cert.ID)
		if err != nil {
			return sent, fmt.Errorf("failed to check reminder history: %w", err)
		}
		if exists {
			continue
		}

		title, ok := titles[cert.CourseID]
		if !ok {
			course, err := s.getCourse(ctx, cert.CourseID)
			if err != nil {
				return sent, err
			}
			title = course.Title
			titles[cert.CourseID] = title
		}

		ref := cert.ID
		err = s.notifier.Notify(ctx, cert.UserID, t, map[string]string{
			"course_title": title,
			"expires_at":   cert.ExpiresAt.Format(dateLayout),
			"days_left":    fmt.Sprintf("%d", status.DaysUntil(*cert.ExpiresAt, now)),
		}, &ref)
		if err != nil {
			s.logger.Error(err, "failed to queue expiry reminder", "certification_id", cert.ID.String())
			continue
		}
		sent++
	}
	return sent, nil
}

func (s *Service) superseded(ctx context.Context, cert *model.Certification) (bool, error) {
	siblings, err := s.certs.List(ctx, &model.CertificationFilters{UserID: &cert.UserID, CourseID: &cert.CourseID})
	if err != nil {
		return false, fmt.Errorf("failed to list certifications: %w", err)
	}
	for _, other := range siblings {
		if other.ID != cert.ID && other.RevokedAt == nil && other.IssuedAt.After(cert.IssuedAt) {
			return true, nil
		}
	}
	return false, nil
}
