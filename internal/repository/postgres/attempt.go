package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/lms-api/internal/model"
	"github.com/jwalitptl/lms-api/internal/repository"
)

type attemptRepository struct {
	BaseRepository
}

func NewAttemptRepository(base BaseRepository) repository.AttemptRepository {
	return &attemptRepository{base}
}

const attemptColumns = `id, quiz_id, user_id, attempt_number, status, score, requires_remediation,
	remediation_completed, answers, started_at, submitted_at, created_at, updated_at`

// Create relies on the unique (quiz_id, user_id, attempt_number) key and the
// partial unique index on in-progress attempts; either violation is ErrDuplicate.
func (r *attemptRepository) Create(ctx context.Context, a *model.QuizAttempt) error {
	query := `
		INSERT INTO quiz_attempts (` + attemptColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt

	_, err := r.db.ExecContext(ctx, query,
		a.ID,
		a.QuizID,
		a.UserID,
		a.AttemptNumber,
		a.Status,
		a.Score,
		a.RequiresRemediation,
		a.RemediationCompleted,
		a.Answers,
		a.StartedAt,
		a.SubmittedAt,
		a.CreatedAt,
		a.UpdatedAt,
	)
	return translate(err, "create attempt")
}

func (r *attemptRepository) Get(ctx context.Context, id uuid.UUID) (*model.QuizAttempt, error) {
	var a model.QuizAttempt
	if err := r.db.GetContext(ctx, &a, `SELECT `+attemptColumns+` FROM quiz_attempts WHERE id = $1`, id); err != nil {
		return nil, translate(err, "get attempt")
	}
	return &a, nil
}

func (r *attemptRepository) Update(ctx context.Context, a *model.QuizAttempt, expected model.AttemptStatus) error {
	query := `
		UPDATE quiz_attempts
		SET status = $1, score = $2, requires_remediation = $3, remediation_completed = $4,
			answers = $5, submitted_at = $6, updated_at = $7
		WHERE id = $8 AND status = $9
	`
	a.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		a.Status,
		a.Score,
		a.RequiresRemediation,
		a.RemediationCompleted,
		a.Answers,
		a.SubmittedAt,
		a.UpdatedAt,
		a.ID,
		expected,
	)
	if err != nil {
		return translate(err, "update attempt")
	}
	return expectOne(result, "update attempt")
}

func (r *attemptRepository) ListForUser(ctx context.Context, quizID, userID uuid.UUID) ([]*model.QuizAttempt, error) {
	query := `SELECT ` + attemptColumns + ` FROM quiz_attempts WHERE quiz_id = $1 AND user_id = $2 ORDER BY attempt_number ASC`

	var attempts []*model.QuizAttempt
	if err := r.db.SelectContext(ctx, &attempts, query, quizID, userID); err != nil {
		return nil, translate(err, "list attempts")
	}
	return attempts, nil
}

func (r *attemptRepository) ListOverdue(ctx context.Context, grace time.Duration, now time.Time) ([]*model.QuizAttempt, error) {
	query := `
		SELECT a.id, a.quiz_id, a.user_id, a.attempt_number, a.status, a.score, a.requires_remediation,
			a.remediation_completed, a.answers, a.started_at, a.submitted_at, a.created_at, a.updated_at
		FROM quiz_attempts a
		JOIN quizzes q ON q.id = a.quiz_id
		WHERE a.status = $1
		AND q.time_limit_minutes IS NOT NULL
		AND a.started_at + (q.time_limit_minutes * INTERVAL '1 minute') + ($2 * INTERVAL '1 second') < $3
		ORDER BY a.started_at ASC
	`
	var attempts []*model.QuizAttempt
	err := r.db.SelectContext(ctx, &attempts, query, model.AttemptStatusInProgress, grace.Seconds(), now)
	if err != nil {
		return nil, translate(err, "list overdue attempts")
	}
	return attempts, nil
}

func (r *attemptRepository) Summaries(ctx context.Context) ([]repository.AttemptSummary, error) {
	query := `
		SELECT a.status, a.score, q.passing_score
		FROM quiz_attempts a
		JOIN quizzes q ON q.id = a.quiz_id
	`
	var rows []repository.AttemptSummary
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, translate(err, "summarize attempts")
	}
	return rows, nil
}
