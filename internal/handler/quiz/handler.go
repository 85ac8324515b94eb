package quiz

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/lms-api/internal/handler"
	"github.com/jwalitptl/lms-api/internal/middleware"
	"github.com/jwalitptl/lms-api/internal/model"
	quizService "github.com/jwalitptl/lms-api/internal/service/quiz"
	"github.com/jwalitptl/lms-api/pkg/httputil"
)

type Handler struct {
	service quizService.QuizServicer
}

func NewHandler(service quizService.QuizServicer) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/courses/:id/quizzes", middleware.RequireRole(model.RoleAdmin, model.RoleInstructor), h.CreateQuiz)
	r.GET("/courses/:id/quizzes", h.ListQuizzes)

	quizzes := r.Group("/quizzes")
	{
		quizzes.GET("/:id", h.GetQuiz)
		quizzes.POST("/:id/attempts", h.StartAttempt)
		quizzes.GET("/:id/attempts", h.ListAttempts)
	}

	attempts := r.Group("/attempts")
	{
		attempts.POST("/:id/submit", h.SubmitAttempt)
		attempts.POST("/:id/remediation", h.CompleteRemediation)
	}
}

func (h *Handler) CreateQuiz(c *gin.Context) {
	p, ok := handler.Principal(c)
	if !ok {
		return
	}
	courseID, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	var req model.CreateQuizRequest
	if !handler.Bind(c, &req) {
		return
	}

	quiz, err := h.service.CreateQuiz(c.Request.Context(), p, courseID, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, quiz)
}

func (h *Handler) ListQuizzes(c *gin.Context) {
	p, ok := handler.Principal(c)
	if !ok {
		return
	}
	courseID, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	quizzes, err := h.service.ListQuizzes(c.Request.Context(), p, courseID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, quizzes)
}

func (h *Handler) GetQuiz(c *gin.Context) {
	p, ok := handler.Principal(c)
	if !ok {
		return
	}
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	quiz, err := h.service.GetQuiz(c.Request.Context(), p, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, quiz)
}

func (h *Handler) StartAttempt(c *gin.Context) {
	p, ok := handler.Principal(c)
	if !ok {
		return
	}
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	attempt, err := h.service.StartAttempt(c.Request.Context(), p, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, attempt)
}

// ListAttempts defaults to the caller's own history; instructors may pass user_id.
func (h *Handler) ListAttempts(c *gin.Context) {
	p, ok := handler.Principal(c)
	if !ok {
		return
	}
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	userID, ok := handler.QueryID(c, "user_id")
	if !ok {
		return
	}
	target := p.UserID
	if userID != nil {
		target = *userID
	}

	history, err := h.service.ListAttempts(c.Request.Context(), p, id, target)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, history)
}

func (h *Handler) SubmitAttempt(c *gin.Context) {
	p, ok := handler.Principal(c)
	if !ok {
		return
	}
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	var req model.SubmitAttemptRequest
	if !handler.Bind(c, &req) {
		return
	}

	view, err := h.service.SubmitAttempt(c.Request.Context(), p, id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, view)
}

func (h *Handler) CompleteRemediation(c *gin.Context) {
	p, ok := handler.Principal(c)
	if !ok {
		return
	}
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	attempt, err := h.service.CompleteRemediation(c.Request.Context(), p, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, attempt)
}
