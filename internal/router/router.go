package router

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/lms-api/internal/middleware"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

// PublicHandler also exposes routes that need no token.
type PublicHandler interface {
	Handler
	RegisterPublicRoutes(*gin.RouterGroup)
}

// MetricsHandler records request metrics and serves the scrape endpoint.
type MetricsHandler interface {
	Middleware() gin.HandlerFunc
	Handler() gin.HandlerFunc
}

type Router struct {
	engine      *gin.Engine
	auth        *middleware.AuthMiddleware
	rateLimiter *middleware.RateLimiter
	authH       PublicHandler
	healthH     Handler
	metricsH    MetricsHandler
	handlers    []Handler
}

type RouterConfig struct {
	Mode           string
	RateLimit      *middleware.RateLimiterConfig
	CORSConfig     middleware.CORSConfig
	SecurityConfig middleware.SecurityConfig
	RequestTimeout time.Duration
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	authH PublicHandler,
	healthH Handler,
	metricsH MetricsHandler,
	handlers []Handler,
	config RouterConfig,
) *Router {
	if config.Mode != "" {
		gin.SetMode(config.Mode)
	}
	engine := gin.New()

	r := &Router{
		engine:   engine,
		auth:     auth,
		authH:    authH,
		healthH:  healthH,
		metricsH: metricsH,
		handlers: handlers,
	}
	if config.RateLimit != nil {
		r.rateLimiter = middleware.NewRateLimiter(*config.RateLimit)
	}

	timeout := config.RequestTimeout
	if timeout <= 0 {
		timeout = middleware.DefaultTimeoutConfig().Duration
	}

	engine.Use(
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Recovery(),
		metricsH.Middleware(),
		middleware.SecurityHeaders(config.SecurityConfig),
		middleware.CORS(config.CORSConfig),
		middleware.Timeout(middleware.TimeoutConfig{Duration: timeout}),
	)

	return r
}

func (r *Router) Setup() {
	r.engine.GET("/metrics", r.metricsH.Handler())

	api := r.engine.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	r.healthH.RegisterRoutes(api)

	public := api.Group("")
	if r.rateLimiter != nil {
		public.Use(r.rateLimiter.RateLimit())
	}
	r.authH.RegisterPublicRoutes(public)

	protected := api.Group("")
	protected.Use(r.auth.Authenticate())
	if r.rateLimiter != nil {
		protected.Use(r.rateLimiter.RateLimit())
	}
	r.authH.RegisterRoutes(protected)
	for _, h := range r.handlers {
		h.RegisterRoutes(protected)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
