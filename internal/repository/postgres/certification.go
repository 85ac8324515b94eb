package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/lms-api/internal/model"
	"github.com/jwalitptl/lms-api/internal/repository"
)

type certificationRepository struct {
	BaseRepository
}

func NewCertificationRepository(base BaseRepository) repository.CertificationRepository {
	return &certificationRepository{base}
}

const certificationColumns = `id, user_id, course_id, issued_at, expires_at, revoked_at, revocation_reason,
	previous_certification_id, created_at, updated_at`

func (r *certificationRepository) Create(ctx context.Context, cert *model.Certification) error {
	query := `
		INSERT INTO certifications (` + certificationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	if cert.ID == uuid.Nil {
		cert.ID = uuid.New()
	}
	cert.CreatedAt = time.Now()
	cert.UpdatedAt = cert.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		cert.ID,
		cert.UserID,
		cert.CourseID,
		cert.IssuedAt,
		cert.ExpiresAt,
		cert.RevokedAt,
		cert.RevocationReason,
		cert.PreviousCertificationID,
		cert.CreatedAt,
		cert.UpdatedAt,
	)
	return translate(err, "create certification")
}

func (r *certificationRepository) Get(ctx context.Context, id uuid.UUID) (*model.Certification, error) {
	var cert model.Certification
	query := `SELECT ` + certificationColumns + ` FROM certifications WHERE id = $1`
	if err := r.db.GetContext(ctx, &cert, query, id); err != nil {
		return nil, translate(err, "get certification")
	}
	return &cert, nil
}

func (r *certificationRepository) List(ctx context.Context, filters *model.CertificationFilters) ([]*model.Certification, error) {
	query := `SELECT ` + certificationColumns + ` FROM certifications WHERE 1=1`
	args := []interface{}{}
	argCount := 1

	if filters.UserID != nil {
		query += fmt.Sprintf(" AND user_id = $%d", argCount)
		args = append(args, *filters.UserID)
		argCount++
	}

	if filters.CourseID != nil {
		query += fmt.Sprintf(" AND course_id = $%d", argCount)
		args = append(args, *filters.CourseID)
		argCount++
	}

	if filters.ExpiresBefore != nil {
		query += fmt.Sprintf(" AND revoked_at IS NULL AND expires_at IS NOT NULL AND expires_at < $%d", argCount)
		args = append(args, *filters.ExpiresBefore)
	}

	query += " ORDER BY issued_at DESC"

	var certs []*model.Certification
	if err := r.db.SelectContext(ctx, &certs, query, args...); err != nil {
		return nil, translate(err, "list certifications")
	}
	return certs, nil
}

func (r *certificationRepository) Revoke(ctx context.Context, id uuid.UUID, at time.Time, reason string) error {
	query := `
		UPDATE certifications
		SET revoked_at = $1, revocation_reason = $2, updated_at = $3
		WHERE id = $4 AND revoked_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, at, reason, time.Now(), id)
	if err != nil {
		return translate(err, "revoke certification")
	}
	return expectOne(result, "revoke certification")
}
