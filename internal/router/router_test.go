package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/lms-api/internal/handler/health"
	promHandler "github.com/jwalitptl/lms-api/internal/handler/prometheus"
	"github.com/jwalitptl/lms-api/internal/middleware"
	"github.com/jwalitptl/lms-api/internal/model"
	"github.com/jwalitptl/lms-api/pkg/auth"
)

type fakePinger struct {
	err error
}

func (f fakePinger) PingContext(context.Context) error {
	return f.err
}

type stubAuthHandler struct{}

func (stubAuthHandler) RegisterPublicRoutes(r *gin.RouterGroup) {
	r.POST("/auth/login", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
}

func (stubAuthHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/users/me", func(c *gin.Context) {
		p, _ := middleware.PrincipalFrom(c)
		c.String(http.StatusOK, p.UserID.String())
	})
}

func newTestRouter(t *testing.T, pinger health.Pinger, limit *middleware.RateLimiterConfig) (*gin.Engine, auth.JWTService) {
	t.Helper()
	jwtSvc := auth.NewJWTService("router-secret", "lms-api", time.Hour)
	r := NewRouter(
		middleware.NewAuthMiddleware(jwtSvc),
		stubAuthHandler{},
		health.NewHandler(pinger),
		promHandler.New(prometheus.NewRegistry(), "lms_test"),
		nil,
		RouterConfig{
			Mode:           gin.TestMode,
			RateLimit:      limit,
			CORSConfig:     middleware.DefaultCORSConfig(),
			SecurityConfig: middleware.DefaultSecurityConfig(),
			RequestTimeout: 5 * time.Second,
		},
	)
	r.Setup()
	return r.Engine(), jwtSvc
}

func serve(e *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)
	return w
}

func TestHealthRoutesArePublic(t *testing.T) {
	e, _ := newTestRouter(t, fakePinger{}, nil)

	w := serve(e, httptest.NewRequest(http.MethodGet, "/api/v1/health/live", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.HeaderXRequestID))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "1.0", w.Header().Get("X-API-Version"))

	down, _ := newTestRouter(t, fakePinger{err: errors.New("connection refused")}, nil)
	w = serve(down, httptest.NewRequest(http.MethodGet, "/api/v1/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	e, jwtSvc := newTestRouter(t, fakePinger{}, nil)

	w := serve(e, httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	user := &model.User{Email: "ada@example.com", Role: model.RoleCollaborator}
	user.ID = uuid.New()
	token, _, err := jwtSvc.GenerateAccessToken(user)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = serve(e, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, user.ID.String(), w.Body.String())
}

func TestLoginIsRateLimited(t *testing.T) {
	e, _ := newTestRouter(t, fakePinger{}, &middleware.RateLimiterConfig{RPS: 0.001, Burst: 1, Idle: time.Minute})

	login := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.RemoteAddr = "203.0.113.7:4000"
		return serve(e, req).Code
	}
	assert.Equal(t, http.StatusOK, login())
	assert.Equal(t, http.StatusTooManyRequests, login())
}

func TestMetricsEndpoint(t *testing.T) {
	e, _ := newTestRouter(t, fakePinger{}, nil)
	serve(e, httptest.NewRequest(http.MethodGet, "/api/v1/health/live", nil))

	w := serve(e, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `lms_test_http_requests_total{method="GET",path="/api/v1/health/live",status="200"} 1`)
}
