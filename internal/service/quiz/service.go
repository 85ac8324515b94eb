package quiz

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/lms-api/internal/gate"
	"github.com/jwalitptl/lms-api/internal/model"
	"github.com/jwalitptl/lms-api/internal/repository"
	"github.com/jwalitptl/lms-api/internal/service/notification"
	"github.com/jwalitptl/lms-api/internal/status"
	"github.com/jwalitptl/lms-api/pkg/auth"
	apperrors "github.com/jwalitptl/lms-api/pkg/errors"
	"github.com/jwalitptl/lms-api/pkg/logger"
	"github.com/jwalitptl/lms-api/pkg/metrics"
)

// AttemptView is an attempt together with its resolved result badge.
type AttemptView struct {
	*model.QuizAttempt
	Result status.AttemptResult `json:"result"`
}

type AttemptHistory struct {
	Attempts []AttemptView `json:"attempts"`
	CanStart gate.Decision `json:"can_start"`
}

type QuizServicer interface {
	CreateQuiz(ctx context.Context, p auth.Principal, courseID uuid.UUID, req *model.CreateQuizRequest) (*model.Quiz, error)
	GetQuiz(ctx context.Context, p auth.Principal, id uuid.UUID) (*model.Quiz, error)
	ListQuizzes(ctx context.Context, p auth.Principal, courseID uuid.UUID) ([]*model.Quiz, error)
	StartAttempt(ctx context.Context, p auth.Principal, quizID uuid.UUID) (*model.QuizAttempt, error)
	ListAttempts(ctx context.Context, p auth.Principal, quizID, userID uuid.UUID) (*AttemptHistory, error)
	SubmitAttempt(ctx context.Context, p auth.Principal, attemptID uuid.UUID, req *model.SubmitAttemptRequest) (*AttemptView, error)
	CompleteRemediation(ctx context.Context, p auth.Principal, attemptID uuid.UUID) (*model.QuizAttempt, error)
	SweepOverdue(ctx context.Context) (int, error)
}

type Service struct {
	quizzes     repository.QuizRepository
	attempts    repository.AttemptRepository
	courses     repository.CourseRepository
	enrollments repository.EnrollmentRepository
	notifier    notification.Notifier
	grace       time.Duration
	metrics     *metrics.Metrics
	logger      *logger.Logger
	now         func() time.Time
}

func NewService(
	quizzes repository.QuizRepository,
	attempts repository.AttemptRepository,
	courses repository.CourseRepository,
	enrollments repository.EnrollmentRepository,
	notifier notification.Notifier,
	grace time.Duration,
	metrics *metrics.Metrics,
	logger *logger.Logger,
) *Service {
	return &Service{
		quizzes:     quizzes,
		attempts:    attempts,
		courses:     courses,
		enrollments: enrollments,
		notifier:    notifier,
		grace:       grace,
		metrics:     metrics,
		logger:      logger,
		now:         time.Now,
	}
}

func canAuthor(p auth.Principal) bool {
	return p.HasRole(model.RoleAdmin, model.RoleInstructor)
}

func (s *Service) CreateQuiz(ctx context.Context, p auth.Principal, courseID uuid.UUID, req *model.CreateQuizRequest) (*model.Quiz, error) {
	if !canAuthor(p) {
		return nil, apperrors.Forbidden("only admins and instructors can create quizzes")
	}
	if _, err := s.courses.Get(ctx, courseID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("course", err)
		}
		return nil, fmt.Errorf("failed to get course: %w", err)
	}

	questions, err := prepareQuestions(req.Questions)
	if err != nil {
		return nil, apperrors.BadRequest(err.Error(), nil)
	}

	quiz := &model.Quiz{
		CourseID:          courseID,
		Title:             req.Title,
		PassingScore:      req.PassingScore,
		MaxAttempts:       req.MaxAttempts,
		TimeLimitMinutes:  req.TimeLimitMinutes,
		RemediationOnFail: req.RemediationOnFail,
		Questions:         questions,
	}
	if err := s.quizzes.Create(ctx, quiz); err != nil {
		return nil, fmt.Errorf("failed to create quiz: %w", err)
	}
	return quiz, nil
}

func (s *Service) getQuiz(ctx context.Context, id uuid.UUID) (*model.Quiz, error) {
	quiz, err := s.quizzes.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("quiz", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get quiz: %w", err)
	}
	return quiz, nil
}

// GetQuiz hides the answer key from anyone who cannot author quizzes.
func (s *Service) GetQuiz(ctx context.Context, p auth.Principal, id uuid.UUID) (*model.Quiz, error) {
	quiz, err := s.getQuiz(ctx, id)
	if err != nil {
		return nil, err
	}
	if canAuthor(p) {
		return quiz, nil
	}
	return quiz.Redacted(), nil
}

func (s *Service) ListQuizzes(ctx context.Context, p auth.Principal, courseID uuid.UUID) ([]*model.Quiz, error) {
	quizzes, err := s.quizzes.ListByCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to list quizzes: %w", err)
	}
	if canAuthor(p) {
		return quizzes, nil
	}
	redacted := make([]*model.Quiz, len(quizzes))
	for i, q := range quizzes {
		redacted[i] = q.Redacted()
	}
	return redacted, nil
}

func (s *Service) requireEnrollment(ctx context.Context, userID, courseID uuid.UUID) error {
	enrollments, err := s.enrollments.List(ctx, &model.EnrollmentFilters{UserID: &userID, CourseID: &courseID})
	if err != nil {
		return fmt.Errorf("failed to check enrollment: %w", err)
	}
	for _, e := range enrollments {
		if e.Status != model.EnrollmentStatusWithdrawn {
			return nil
		}
	}
	return apperrors.Forbidden("not enrolled in this course")
}

func (s *Service) StartAttempt(ctx context.Context, p auth.Principal, quizID uuid.UUID) (*model.QuizAttempt, error) {
	quiz, err := s.getQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if err := s.requireEnrollment(ctx, p.UserID, quiz.CourseID); err != nil {
		return nil, err
	}

	prior, err := s.attempts.ListForUser(ctx, quizID, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}

	last := gate.LastAttempt(prior)
	decision := gate.Evaluate(prior, quiz.MaxAttempts, last)
	if !decision.Allowed {
		s.metrics.AttemptsRefused.WithLabelValues(string(decision.Reason)).Inc()
		return nil, apperrors.Conflict("cannot start a new attempt: " + string(decision.Reason))
	}

	number := 1
	if last != nil {
		number = last.AttemptNumber + 1
	}
	attempt := &model.QuizAttempt{
		QuizID:        quizID,
		UserID:        p.UserID,
		AttemptNumber: number,
		Status:        model.AttemptStatusInProgress,
		Answers:       model.Answers{},
		StartedAt:     s.now(),
	}
	if err := s.attempts.Create(ctx, attempt); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.Conflict("cannot start a new attempt: " + string(gate.ReasonAttemptInProgress))
		}
		return nil, fmt.Errorf("failed to create attempt: %w", err)
	}

	s.metrics.AttemptsStarted.Inc()
	return attempt, nil
}

func (s *Service) ListAttempts(ctx context.Context, p auth.Principal, quizID, userID uuid.UUID) (*AttemptHistory, error) {
	if !p.CanManage(userID) && !p.HasRole(model.RoleInstructor) {
		return nil, apperrors.Forbidden("cannot view another user's attempts")
	}

	quiz, err := s.getQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}

	attempts, err := s.attempts.ListForUser(ctx, quizID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list attempts: %w", err)
	}

	views := make([]AttemptView, len(attempts))
	for i, a := range attempts {
		views[i] = AttemptView{QuizAttempt: a, Result: status.ResolveAttempt(a.Status, a.Score, quiz.PassingScore)}
	}

	return &AttemptHistory{
		Attempts: views,
		CanStart: gate.Evaluate(attempts, quiz.MaxAttempts, gate.LastAttempt(attempts)),
	}, nil
}

func (s *Service) getAttempt(ctx context.Context, id uuid.UUID) (*model.QuizAttempt, error) {
	attempt, err := s.attempts.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NotFound("attempt", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	return attempt, nil
}

func (s *Service) overdue(quiz *model.Quiz, attempt *model.QuizAttempt, at time.Time) bool {
	limit := quiz.TimeLimit()
	if limit == 0 {
		return false
	}
	return at.After(attempt.StartedAt.Add(limit + s.grace))
}

func (s *Service) SubmitAttempt(ctx context.Context, p auth.Principal, attemptID uuid.UUID, req *model.SubmitAttemptRequest) (*AttemptView, error) {
	attempt, err := s.getAttempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.UserID != p.UserID {
		return nil, apperrors.Forbidden("cannot submit another user's attempt")
	}
	if attempt.Status != model.AttemptStatusInProgress {
		return nil, apperrors.Conflict("attempt is not in progress")
	}

	quiz, err := s.getQuiz(ctx, attempt.QuizID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if s.overdue(quiz, attempt, now) {
		attempt.Status = model.AttemptStatusAbandoned
		attempt.SubmittedAt = &now
		if err := s.attempts.Update(ctx, attempt, model.AttemptStatusInProgress); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("failed to abandon attempt: %w", err)
		}
		s.metrics.AttemptsAbandoned.Inc()
		return nil, apperrors.Conflict("time limit exceeded; attempt abandoned")
	}

	if err := validateAnswers(quiz.Questions, req.Answers); err != nil {
		return nil, apperrors.BadRequest(err.Error(), nil)
	}

	score := Score(quiz.Questions, req.Answers)
	attempt.Score = &score
	attempt.Answers = req.Answers
	attempt.SubmittedAt = &now
	if score >= quiz.PassingScore {
		attempt.Status = model.AttemptStatusPassed
	} else {
		attempt.Status = model.AttemptStatusFailed
		attempt.RequiresRemediation = quiz.RemediationOnFail
	}

	if err := s.attempts.Update(ctx, attempt, model.AttemptStatusInProgress); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Conflict("attempt is not in progress")
		}
		return nil, fmt.Errorf("failed to submit attempt: %w", err)
	}

	result := status.ResolveAttempt(attempt.Status, attempt.Score, quiz.PassingScore)
	s.metrics.AttemptsSubmitted.WithLabelValues(string(result)).Inc()

	data := map[string]string{
		"quiz_title":     quiz.Title,
		"score":          strconv.FormatFloat(score, 'f', 1, 64),
		"attempt_number": strconv.Itoa(attempt.AttemptNumber),
		"result":         string(result),
	}
	s.notify(ctx, attempt.UserID, model.NotificationQuizResult, data, attempt.ID)
	if attempt.RequiresRemediation {
		s.notify(ctx, attempt.UserID, model.NotificationRemediationRequired, data, attempt.ID)
	}

	return &AttemptView{QuizAttempt: attempt, Result: result}, nil
}

// notify never fails the caller; a lost notification is logged.
func (s *Service) notify(ctx context.Context, userID uuid.UUID, t model.NotificationType, data map[string]string, ref uuid.UUID) {
	if err := s.notifier.Notify(ctx, userID, t, data, &ref); err != nil {
		s.logger.Error(err, "failed to queue notification", "type", string(t), "user_id", userID.String())
	}
}

// CompleteRemediation can be recorded by the learner or signed off by staff.
func (s *Service) CompleteRemediation(ctx context.Context, p auth.Principal, attemptID uuid.UUID) (*model.QuizAttempt, error) {
	attempt, err := s.getAttempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if !p.CanManage(attempt.UserID) && !p.HasRole(model.RoleInstructor) {
		return nil, apperrors.Forbidden("cannot update another user's attempt")
	}
	if !attempt.RequiresRemediation {
		return nil, apperrors.BadRequest("attempt does not require remediation", nil)
	}
	if attempt.RemediationCompleted {
		return attempt, nil
	}

	attempt.RemediationCompleted = true
	if err := s.attempts.Update(ctx, attempt, attempt.Status); err != nil {
		return nil, fmt.Errorf("failed to complete remediation: %w", err)
	}
	return attempt, nil
}

// SweepOverdue abandons in-progress attempts that ran past their time limit
// plus the submission grace period.
func (s *Service) SweepOverdue(ctx context.Context) (int, error) {
	now := s.now()
	overdue, err := s.attempts.ListOverdue(ctx, s.grace, now)
	if err != nil {
		return 0, fmt.Errorf("failed to list overdue attempts: %w", err)
	}

	abandoned := 0
	for _, attempt := range overdue {
		attempt.Status = model.AttemptStatusAbandoned
		attempt.SubmittedAt = &now
		err := s.attempts.Update(ctx, attempt, model.AttemptStatusInProgress)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return abandoned, fmt.Errorf("failed to abandon attempt %s: %w", attempt.ID, err)
		}
		abandoned++
		s.metrics.AttemptsAbandoned.Inc()
	}
	return abandoned, nil
}
