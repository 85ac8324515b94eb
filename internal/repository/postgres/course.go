package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/lms-api/internal/model"
	"github.com/jwalitptl/lms-api/internal/repository"
)

type courseRepository struct {
	BaseRepository
}

func NewCourseRepository(base BaseRepository) repository.CourseRepository {
	return &courseRepository{base}
}

const courseColumns = `id, title, description, certification_validity_months, published, created_by, created_at, updated_at`

func (r *courseRepository) Create(ctx context.Context, course *model.Course) error {
	query := `
		INSERT INTO courses (` + courseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if course.ID == uuid.Nil {
		course.ID = uuid.New()
	}
	course.CreatedAt = time.Now()
	course.UpdatedAt = course.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		course.ID,
		course.Title,
		course.Description,
		course.CertificationValidityMonths,
		course.Published,
		course.CreatedBy,
		course.CreatedAt,
		course.UpdatedAt,
	)
	return translate(err, "create course")
}

func (r *courseRepository) Get(ctx context.Context, id uuid.UUID) (*model.Course, error) {
	var course model.Course
	if err := r.db.GetContext(ctx, &course, `SELECT `+courseColumns+` FROM courses WHERE id = $1`, id); err != nil {
		return nil, translate(err, "get course")
	}
	return &course, nil
}

func (r *courseRepository) List(ctx context.Context, filters *model.CourseFilters) ([]*model.Course, int, error) {
	where := ""
	if filters.PublishedOnly {
		where = " WHERE published = TRUE"
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM courses`+where); err != nil {
		return nil, 0, translate(err, "count courses")
	}

	query := `SELECT ` + courseColumns + ` FROM courses` + where + ` ORDER BY title ASC LIMIT $1 OFFSET $2`
	var courses []*model.Course
	if err := r.db.SelectContext(ctx, &courses, query, filters.PageSize, filters.Offset()); err != nil {
		return nil, 0, translate(err, "list courses")
	}
	return courses, total, nil
}
