package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/lms-api/internal/model"
	"github.com/jwalitptl/lms-api/internal/repository"
)

type enrollmentRepository struct {
	BaseRepository
}

func NewEnrollmentRepository(base BaseRepository) repository.EnrollmentRepository {
	return &enrollmentRepository{base}
}

const enrollmentColumns = `id, user_id, course_id, status, enrolled_at, completed_at, created_at, updated_at`

func (r *enrollmentRepository) Create(ctx context.Context, e *model.Enrollment) error {
	query := `
		INSERT INTO enrollments (` + enrollmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.CreatedAt = time.Now()
	e.UpdatedAt = e.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.UserID, e.CourseID, e.Status, e.EnrolledAt, e.CompletedAt, e.CreatedAt, e.UpdatedAt,
	)
	return translate(err, "create enrollment")
}

func (r *enrollmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Enrollment, error) {
	var e model.Enrollment
	if err := r.db.GetContext(ctx, &e, `SELECT `+enrollmentColumns+` FROM enrollments WHERE id = $1`, id); err != nil {
		return nil, translate(err, "get enrollment")
	}
	return &e, nil
}

func (r *enrollmentRepository) Update(ctx context.Context, e *model.Enrollment, expected model.EnrollmentStatus) error {
	query := `
		UPDATE enrollments
		SET status = $1, enrolled_at = $2, completed_at = $3, updated_at = $4
		WHERE id = $5 AND status = $6
	`
	e.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query, e.Status, e.EnrolledAt, e.CompletedAt, e.UpdatedAt, e.ID, expected)
	if err != nil {
		return translate(err, "update enrollment")
	}
	return expectOne(result, "update enrollment")
}

func (r *enrollmentRepository) List(ctx context.Context, filters *model.EnrollmentFilters) ([]*model.Enrollment, error) {
	query := `SELECT ` + enrollmentColumns + ` FROM enrollments WHERE 1=1`
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

	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argCount)
		args = append(args, filters.Status)
	}

	query += " ORDER BY enrolled_at DESC"

	var enrollments []*model.Enrollment
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, translate(err, "list enrollments")
	}
	return enrollments, nil
}

func (r *enrollmentRepository) CountByStatus(ctx context.Context) (map[model.EnrollmentStatus]int, error) {
	var rows []struct {
		Status model.EnrollmentStatus `db:"status"`
		Count  int                    `db:"count"`
	}
	if err := r.db.SelectContext(ctx, &rows, `SELECT status, COUNT(*) AS count FROM enrollments GROUP BY status`); err != nil {
		return nil, translate(err, "count enrollments")
	}

	counts := make(map[model.EnrollmentStatus]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
