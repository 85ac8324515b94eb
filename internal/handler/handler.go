// Package handler holds the request helpers shared by the resource handlers.
package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/lms-api/internal/middleware"
	"github.com/jwalitptl/lms-api/pkg/auth"
	apperrors "github.com/jwalitptl/lms-api/pkg/errors"
	"github.com/jwalitptl/lms-api/pkg/httputil"
)

// Principal returns the authenticated caller, responding 401 when there is none.
func Principal(c *gin.Context) (auth.Principal, bool) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Unauthorized(nil))
	}
	return p, ok
}

// ParamID parses the named path parameter as a UUID, responding 400 on failure.
func ParamID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		httputil.RespondWithBadRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// QueryID parses an optional UUID query parameter.
func QueryID(c *gin.Context, name string) (*uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		httputil.RespondWithBadRequest(c, "invalid "+name)
		return nil, false
	}
	return &id, true
}

// Bind decodes the JSON body into obj, responding 400 with the validation errors.
func Bind(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		httputil.RespondWithBadRequest(c, middleware.ValidationMessage(err))
		return false
	}
	return true
}
