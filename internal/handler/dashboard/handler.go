package dashboard

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/lms-api/internal/handler"
	"github.com/jwalitptl/lms-api/internal/middleware"
	"github.com/jwalitptl/lms-api/internal/model"
	dashboardService "github.com/jwalitptl/lms-api/internal/service/dashboard"
	"github.com/jwalitptl/lms-api/pkg/httputil"
)

type Handler struct {
	service dashboardService.DashboardServicer
}

func NewHandler(service dashboardService.DashboardServicer) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/dashboard", middleware.RequireRole(model.RoleAdmin), h.Summary)
}

func (h *Handler) Summary(c *gin.Context) {
	p, ok := handler.Principal(c)
	if !ok {
		return
	}
	summary, err := h.service.Summary(c.Request.Context(), p)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, summary)
}
