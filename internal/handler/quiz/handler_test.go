package quiz

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/jwalitptl/lms-api/internal/gate"
	"github.com/jwalitptl/lms-api/internal/middleware"
	"github.com/jwalitptl/lms-api/internal/model"
	quizService "github.com/jwalitptl/lms-api/internal/service/quiz"
	"github.com/jwalitptl/lms-api/internal/status"
	"github.com/jwalitptl/lms-api/pkg/auth"
	apperrors "github.com/jwalitptl/lms-api/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockService struct {
	mock.Mock
}

func (m *mockService) CreateQuiz(ctx context.Context, p auth.Principal, courseID uuid.UUID, req *model.CreateQuizRequest) (*model.Quiz, error) {
	args := m.Called(ctx, p, courseID, req)
	q, _ := args.Get(0).(*model.Quiz)
	return q, args.Error(1)
}

func (m *mockService) GetQuiz(ctx context.Context, p auth.Principal, id uuid.UUID) (*model.Quiz, error) {
	args := m.Called(ctx, p, id)
	q, _ := args.Get(0).(*model.Quiz)
	return q, args.Error(1)
}

func (m *mockService) ListQuizzes(ctx context.Context, p auth.Principal, courseID uuid.UUID) ([]*model.Quiz, error) {
	args := m.Called(ctx, p, courseID)
	qs, _ := args.Get(0).([]*model.Quiz)
	return qs, args.Error(1)
}

func (m *mockService) StartAttempt(ctx context.Context, p auth.Principal, quizID uuid.UUID) (*model.QuizAttempt, error) {
	args := m.Called(ctx, p, quizID)
	a, _ := args.Get(0).(*model.QuizAttempt)
	return a, args.Error(1)
}

func (m *mockService) ListAttempts(ctx context.Context, p auth.Principal, quizID, userID uuid.UUID) (*quizService.AttemptHistory, error) {
	args := m.Called(ctx, p, quizID, userID)
	h, _ := args.Get(0).(*quizService.AttemptHistory)
	return h, args.Error(1)
}

func (m *mockService) SubmitAttempt(ctx context.Context, p auth.Principal, attemptID uuid.UUID, req *model.SubmitAttemptRequest) (*quizService.AttemptView, error) {
	args := m.Called(ctx, p, attemptID, req)
	v, _ := args.Get(0).(*quizService.AttemptView)
	return v, args.Error(1)
}

func (m *mockService) CompleteRemediation(ctx context.Context, p auth.Principal, attemptID uuid.UUID) (*model.QuizAttempt, error) {
	args := m.Called(ctx, p, attemptID)
	a, _ := args.Get(0).(*model.QuizAttempt)
	return a, args.Error(1)
}

func (m *mockService) SweepOverdue(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func setupRouter(svc *mockService, p auth.Principal) *gin.Engine {
	r := gin.New()
	api := r.Group("/api/v1", func(c *gin.Context) {
		c.Set(middleware.ContextPrincipal, p)
		c.Next()
	})
	NewHandler(svc).RegisterRoutes(api)
	return r
}

func do(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

var learner = auth.Principal{UserID: uuid.New(), Role: model.RoleCollaborator}

func TestStartAttempt(t *testing.T) {
	quizID := uuid.New()

	t.Run("refused by gate", func(t *testing.T) {
		svc := new(mockService)
		svc.On("StartAttempt", mock.Anything, learner, quizID).
			Return(nil, apperrors.Conflict(string(gate.ReasonRemediationPending)))

		w := do(setupRouter(svc, learner), http.MethodPost, "/api/v1/quizzes/"+quizID.String()+"/attempts", "")
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), string(gate.ReasonRemediationPending))
	})

	t.Run("started", func(t *testing.T) {
		svc := new(mockService)
		svc.On("StartAttempt", mock.Anything, learner, quizID).
			Return(&model.QuizAttempt{QuizID: quizID, UserID: learner.UserID, AttemptNumber: 1, Status: model.AttemptStatusInProgress}, nil)

		w := do(setupRouter(svc, learner), http.MethodPost, "/api/v1/quizzes/"+quizID.String()+"/attempts", "")
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), `"attempt_number":1`)
	})
}

func TestListAttemptsTarget(t *testing.T) {
	quizID := uuid.New()
	other := uuid.New()
	history := &quizService.AttemptHistory{CanStart: gate.Decision{Allowed: true}}

	svc := new(mockService)
	svc.On("ListAttempts", mock.Anything, learner, quizID, learner.UserID).Return(history, nil).Once()
	svc.On("ListAttempts", mock.Anything, learner, quizID, other).Return(nil, apperrors.Forbidden("cannot view another user's attempts")).Once()

	r := setupRouter(svc, learner)
	w := do(r, http.MethodGet, "/api/v1/quizzes/"+quizID.String()+"/attempts", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(r, http.MethodGet, "/api/v1/quizzes/"+quizID.String()+"/attempts?user_id="+other.String(), "")
	assert.Equal(t, http.StatusForbidden, w.Code)
	svc.AssertExpectations(t)
}

func TestSubmitAttempt(t *testing.T) {
	attemptID := uuid.New()

	t.Run("answers required", func(t *testing.T) {
		svc := new(mockService)
		w := do(setupRouter(svc, learner), http.MethodPost, "/api/v1/attempts/"+attemptID.String()+"/submit", `{}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		svc.AssertNotCalled(t, "SubmitAttempt", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("graded", func(t *testing.T) {
		score := 50.0
		svc := new(mockService)
		svc.On("SubmitAttempt", mock.Anything, learner, attemptID, &model.SubmitAttemptRequest{Answers: model.Answers{"q1": 0, "q2": 3}}).
			Return(&quizService.AttemptView{
				QuizAttempt: &model.QuizAttempt{Status: model.AttemptStatusFailed, Score: &score},
				Result:      status.AttemptFailed,
			}, nil)

		w := do(setupRouter(svc, learner), http.MethodPost, "/api/v1/attempts/"+attemptID.String()+"/submit", `{"answers":{"q1":0,"q2":3}}`)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"result":"failed"`)
		svc.AssertExpectations(t)
	})
}

func TestCreateQuizRequiresAuthor(t *testing.T) {
	courseID := uuid.New()
	w := do(setupRouter(new(mockService), learner), http.MethodPost, "/api/v1/courses/"+courseID.String()+"/quizzes", `{}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
