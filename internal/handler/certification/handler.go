package certification

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/lms-api/internal/handler"
	"github.com/jwalitptl/lms-api/internal/middleware"
	"github.com/jwalitptl/lms-api/internal/model"
	certService "github.com/jwalitptl/lms-api/internal/service/certification"
	"github.com/jwalitptl/lms-api/internal/status"
	"github.com/jwalitptl/lms-api/pkg/httputil"
)

type Handler struct {
	service certService.CertificationServicer
}

func NewHandler(service certService.CertificationServicer) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	authors := middleware.RequireRole(model.RoleAdmin, model.RoleInstructor)

	certs := r.Group("/certifications")
	{
		certs.POST("", authors, h.Issue)
		certs.GET("", h.List)
		certs.GET("/export", h.Export)
		certs.GET("/:id", h.Get)
		certs.POST("/:id/revoke", middleware.RequireRole(model.RoleAdmin), h.Revoke)
		certs.POST("/:id/recertify", authors, h.Recertify)
	}
}

func (h *Handler) Issue(c *gin.Context) {
	p, ok := handler.Principal(c)
	if !ok {
		return
	}
	var req model.IssueCertificationRequest
	if !handler.Bind(c, &req) {
		return
	}

	view, err := h.service.Issue(c.Request.Context(), p, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, view)
}

func listFilter(c *gin.Context) (certService.ListFilter, bool) {
	userID, ok := handler.QueryID(c, "user_id")
	if !ok {
		return certService.ListFilter{}, false
	}
	courseID, ok := handler.QueryID(c, "course_id")
	if !ok {
		return certService.ListFilter{}, false
	}
	return certService.ListFilter{
		UserID:   userID,
		CourseID: courseID,
		Status:   status.CertificationStatus(c.Query("status")),
	}, true
}

func (h *Handler) List(c *gin.Context) {
	p, ok := handler.Principal(c)
	if !ok {
		return
	}
	filter, ok := listFilter(c)
	if !ok {
		return
	}

	views, err := h.service.List(c.Request.Context(), p, filter)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, views)
}

func (h *Handler) Export(c *gin.Context) {
	p, ok := handler.Principal(c)
	if !ok {
		return
	}
	filter, ok := listFilter(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.service.ExportCSV(c.Request.Context(), p, filter, &buf); err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	filename := fmt.Sprintf("certifications-%s.csv", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (h *Handler) Get(c *gin.Context) {
	p, ok := handler.Principal(c)
	if !ok {
		return
	}
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	view, err := h.service.Get(c.Request.Context(), p, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, view)
}

func (h *Handler) Revoke(c *gin.Context) {
	p, ok := handler.Principal(c)
	if !ok {
		return
	}
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}
	var req model.RevokeCertificationRequest
	if !handler.Bind(c, &req) {
		return
	}

	view, err := h.service.Revoke(c.Request.Context(), p, id, req.Reason)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, view)
}

func (h *Handler) Recertify(c *gin.Context) {
	p, ok := handler.Principal(c)
	if !ok {
		return
	}
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	view, err := h.service.Recertify(c.Request.Context(), p, id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithCreated(c, view)
}
