package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/jwalitptl/lms-api/config"
	"github.com/jwalitptl/lms-api/internal/handler/auth"
	"github.com/jwalitptl/lms-api/internal/handler/certification"
	"github.com/jwalitptl/lms-api/internal/handler/course"
	"github.com/jwalitptl/lms-api/internal/handler/dashboard"
	"github.com/jwalitptl/lms-api/internal/handler/health"
	"github.com/jwalitptl/lms-api/internal/handler/notification"
	promHandler "github.com/jwalitptl/lms-api/internal/handler/prometheus"
	"github.com/jwalitptl/lms-api/internal/handler/quiz"
	"github.com/jwalitptl/lms-api/internal/middleware"
	"github.com/jwalitptl/lms-api/internal/repository/postgres"
	"github.com/jwalitptl/lms-api/internal/router"
	authService "github.com/jwalitptl/lms-api/internal/service/auth"
	certService "github.com/jwalitptl/lms-api/internal/service/certification"
	courseService "github.com/jwalitptl/lms-api/internal/service/course"
	dashboardService "github.com/jwalitptl/lms-api/internal/service/dashboard"
	notificationService "github.com/jwalitptl/lms-api/internal/service/notification"
	quizService "github.com/jwalitptl/lms-api/internal/service/quiz"
	pkgauth "github.com/jwalitptl/lms-api/pkg/auth"
	"github.com/jwalitptl/lms-api/pkg/logger"
	"github.com/jwalitptl/lms-api/pkg/metrics"
	"github.com/jwalitptl/lms-api/pkg/security"
)

const metricsNamespace = "lms"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logCfg := cfg.Log.ToLoggerConfig()
	log := logger.NewLogger(&logCfg)
	log.SetGlobal()

	if err := middleware.RegisterValidators(); err != nil {
		log.Fatal(err, "failed to register validators")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(reg, metricsNamespace)

	// Repositories
	base := postgres.NewBaseRepository(db)
	userRepo := postgres.NewUserRepository(base)
	courseRepo := postgres.NewCourseRepository(base)
	enrollmentRepo := postgres.NewEnrollmentRepository(base)
	quizRepo := postgres.NewQuizRepository(base)
	attemptRepo := postgres.NewAttemptRepository(base)
	certRepo := postgres.NewCertificationRepository(base)
	notificationRepo := postgres.NewNotificationRepository(base)
	preferenceRepo := postgres.NewPreferenceRepository(base)
	templateRepo := postgres.NewTemplateRepository(base)

	// Services
	jwtSvc := pkgauth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Expiry())
	authSvc := authService.NewService(userRepo, jwtSvc, security.NewBcryptHasher(0), log.With("service", "auth"))
	notificationSvc := notificationService.NewService(
		templateRepo, preferenceRepo, notificationRepo, userRepo,
		cfg.Notification.TemplateCacheTTL, appMetrics, log.With("service", "notification"),
	)
	certSvc := certService.NewService(certRepo, courseRepo, notificationRepo, notificationSvc, appMetrics, log.With("service", "certification"))
	courseSvc := courseService.NewService(courseRepo, enrollmentRepo, userRepo, certSvc, notificationSvc, log.With("service", "course"))
	quizSvc := quizService.NewService(
		quizRepo, attemptRepo, courseRepo, enrollmentRepo, notificationSvc,
		cfg.Quiz.SubmissionGrace, appMetrics, log.With("service", "quiz"),
	)
	dashboardSvc := dashboardService.NewService(certRepo, attemptRepo, enrollmentRepo, courseRepo)

	// HTTP
	routerCfg := router.RouterConfig{
		Mode:           cfg.Server.Mode,
		CORSConfig:     middleware.DefaultCORSConfig(),
		SecurityConfig: middleware.DefaultSecurityConfig(),
		RequestTimeout: cfg.Server.WriteTimeout,
	}
	if cfg.RateLimit.Enabled {
		routerCfg.RateLimit = &middleware.RateLimiterConfig{
			RPS:   cfg.RateLimit.RequestsPerSecond,
			Burst: cfg.RateLimit.Burst,
		}
	}

	r := router.NewRouter(
		middleware.NewAuthMiddleware(jwtSvc),
		auth.NewHandler(authSvc),
		health.NewHandler(db),
		promHandler.New(reg, metricsNamespace),
		[]router.Handler{
			course.NewHandler(courseSvc),
			quiz.NewHandler(quizSvc),
			certification.NewHandler(certSvc),
			notification.NewHandler(notificationSvc),
			dashboard.NewHandler(dashboardSvc),
		},
		routerCfg,
	)
	r.Setup()

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:        r.Engine(),
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	go func() {
		log.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err, "failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error(err, "server forced to shutdown")
		return
	}

	log.Info("server exited properly")
}
