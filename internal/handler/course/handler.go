package course

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/lms-api/internal/handler"
	"github.com/jwalitptl/lms-api/internal/middleware"
	"github.com/jwalitptl/lms-api/internal/model"
	courseService "github.com/jwalitptl/lms-api/internal/service/course"
	"github.com/jwalitptl/lms-api/pkg/httputil"
)

type Handler struct {
	service courseService.CourseServicer
}

func NewHandler(service courseService.CourseServicer) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	authors := middleware.RequireRole(model.RoleAdmin, model.RoleInstructor)

	courses := r.Group("/courses")
	{
		courses.POST("", authors, h.CreateCourse)
		courses.GET("", h.ListCourses)
		courses.GET("/:id", h.GetCourse)
		courses.POST("/:id/enrollments", h.Enroll)
	}

	enrollments := r.Group("/enrollments")
	{
		enrollments.GET("", h.ListEnrollments)
		enrollments.POST("/:id/complete", authors, h.CompleteEnrollment)
		enrollments.POST("/:id/withdraw", h.Withdraw)
	}
}

func (h *Handler) CreateCourse(c *gin.Context) {
	p, ok := handler.Principal(c)
	if !ok {
		return
	}
	var req model.CreateCourseRequest
	if !handler.Bind(c, &req) {
		return
	}

	course, err := h.service.CreateCourse(c.Request.Context(), p, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, course)
}

func (h *Handler) ListCourses(c *gin.Context) {
	p, ok := handler.Principal(c)
	if !ok {
		return
	}
	var page model.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		httputil.RespondWithBadRequest(c, "invalid pagination")
		return
	}

	courses, total, err := h.service.ListCourses(c.Request.Context(), p, page)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	page.Normalize()
	httputil.RespondWithPagination(c, courses, page.Page, page.PageSize, total)
}

func (h *Handler) GetCourse(c *gin.Context) {
	p, ok := handler.Principal(c)
	if !ok {
		return
	}
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	course, err := h.service.GetCourse(c.Request.Context(), p, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, course)
}

func (h *Handler) Enroll(c *gin.Context) {
	p, ok := handler.Principal(c)
	if !ok {
		return
	}
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	var req model.EnrollRequest
	if c.Request.ContentLength > 0 && !handler.Bind(c, &req) {
		return
	}

	enrollment, err := h.service.Enroll(c.Request.Context(), p, id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, enrollment)
}

func (h *Handler) ListEnrollments(c *gin.Context) {
	p, ok := handler.Principal(c)
	if !ok {
		return
	}
	userID, ok := handler.QueryID(c, "user_id")
	if !ok {
		return
	}
	courseID, ok := handler.QueryID(c, "course_id")
	if !ok {
		return
	}

	filter := model.EnrollmentFilters{
		UserID:   userID,
		CourseID: courseID,
		Status:   model.EnrollmentStatus(c.Query("status")),
	}
	enrollments, err := h.service.ListEnrollments(c.Request.Context(), p, filter)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, enrollments)
}

type completionResponse struct {
	Enrollment    *model.Enrollment    `json:"enrollment"`
	Certification *model.Certification `json:"certification"`
}

func (h *Handler) CompleteEnrollment(c *gin.Context) {
	p, ok := handler.Principal(c)
	if !ok {
		return
	}
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	enrollment, cert, err := h.service.CompleteEnrollment(c.Request.Context(), p, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, completionResponse{Enrollment: enrollment, Certification: cert})
}

func (h *Handler) Withdraw(c *gin.Context) {
	p, ok := handler.Principal(c)
	if !ok {
		return
	}
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	enrollment, err := h.service.Withdraw(c.Request.Context(), p, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, enrollment)
}
