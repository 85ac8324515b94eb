package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/lms-api/internal/model"
	"github.com/jwalitptl/lms-api/internal/repository"
)

type quizRepository struct {
	BaseRepository
}

func NewQuizRepository(base BaseRepository) repository.QuizRepository {
	return &quizRepository{base}
}

const quizColumns = `id, course_id, title, passing_score, max_attempts, time_limit_minutes, remediation_on_fail, questions, created_at, updated_at`

func (r *quizRepository) Create(ctx context.Context, quiz *model.Quiz) error {
	query := `
		INSERT INTO quizzes (` + quizColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	if quiz.ID == uuid.Nil {
		quiz.ID = uuid.New()
	}
	quiz.CreatedAt = time.Now()
	quiz.UpdatedAt = quiz.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		quiz.ID,
		quiz.CourseID,
		quiz.Title,
		quiz.PassingScore,
		quiz.MaxAttempts,
		quiz.TimeLimitMinutes,
		quiz.RemediationOnFail,
		quiz.Questions,
		quiz.CreatedAt,
		quiz.UpdatedAt,
	)
	return translate(err, "create quiz")
}

func (r *quizRepository) Get(ctx context.Context, id uuid.UUID) (*model.Quiz, error) {
	var quiz model.Quiz
	if err := r.db.GetContext(ctx, &quiz, `SELECT `+quizColumns+` FROM quizzes WHERE id = $1`, id); err != nil {
		return nil, translate(err, "get quiz")
	}
	return &quiz, nil
}

func (r *quizRepository) ListByCourse(ctx context.Context, courseID uuid.UUID) ([]*model.Quiz, error) {
	var quizzes []*model.Quiz
	query := `SELECT ` + quizColumns + ` FROM quizzes WHERE course_id = $1 ORDER BY created_at ASC`
	if err := r.db.SelectContext(ctx, &quizzes, query, courseID); err != nil {
		return nil, translate(err, "list quizzes")
	}
	return quizzes, nil
}
