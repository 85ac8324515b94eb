package notification

import (
	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/lms-api/internal/handler"
	"github.com/jwalitptl/lms-api/internal/middleware"
	"github.com/jwalitptl/lms-api/internal/model"
	notificationService "github.com/jwalitptl/lms-api/internal/service/notification"
	"github.com/jwalitptl/lms-api/pkg/httputil"
)

type Handler struct {
	service notificationService.NotificationServicer
}

func NewHandler(service notificationService.NotificationServicer) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	notifications := r.Group("/notifications")
	{
		notifications.GET("", h.ListInbox)
		notifications.POST("/:id/read", h.MarkRead)
		notifications.GET("/preferences", h.ListPreferences)
		notifications.PUT("/preferences/:type", h.UpdatePreference)
	}

	templates := r.Group("/notification-templates", middleware.RequireRole(model.RoleAdmin))
	{
		templates.GET("", h.ListTemplates)
		templates.PUT("/:type", h.UpsertTemplate)
	}
}

type inboxQuery struct {
	Unread bool `form:"unread"`
	model.Pagination
}

func (h *Handler) ListInbox(c *gin.Context) {
	p, ok := handler.Principal(c)
	if !ok {
		return
	}
	var q inboxQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		httputil.RespondWithBadRequest(c, "invalid query")
		return
	}

	items, total, err := h.service.ListInbox(c.Request.Context(), p.UserID, q.Unread, q.Pagination)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	q.Normalize()
	httputil.RespondWithPagination(c, items, q.Page, q.PageSize, total)
}

func (h *Handler) MarkRead(c *gin.Context) {
	p, ok := handler.Principal(c)
	if !ok {
		return
	}
	id, ok := handler.ParamID(c, "id")
	if !ok {
		return
	}

	if err := h.service.MarkRead(c.Request.Context(), p.UserID, id); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"id": id})
}

func (h *Handler) ListPreferences(c *gin.Context) {
	p, ok := handler.Principal(c)
	if !ok {
		return
	}

	prefs, err := h.service.ListPreferences(c.Request.Context(), p.UserID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, prefs)
}

func paramType(c *gin.Context) (model.NotificationType, bool) {
	t := model.NotificationType(c.Param("type"))
	if !t.Valid() {
		httputil.RespondWithBadRequest(c, "unknown notification type")
		return "", false
	}
	return t, true
}

func (h *Handler) UpdatePreference(c *gin.Context) {
	p, ok := handler.Principal(c)
	if !ok {
		return
	}
	t, ok := paramType(c)
	if !ok {
		return
	}
	var req model.UpdatePreferenceRequest
	if !handler.Bind(c, &req) {
		return
	}

	pref, err := h.service.UpdatePreference(c.Request.Context(), p.UserID, t, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, pref)
}

func (h *Handler) ListTemplates(c *gin.Context) {
	templates, err := h.service.ListTemplates(c.Request.Context())
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, templates)
}

func (h *Handler) UpsertTemplate(c *gin.Context) {
	t, ok := paramType(c)
	if !ok {
		return
	}
	var req model.UpsertTemplateRequest
	if !handler.Bind(c, &req) {
		return
	}

	tmpl, err := h.service.UpsertTemplate(c.Request.Context(), t, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, tmpl)
}
