package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jwalitptl/lms-api/config"
	"github.com/jwalitptl/lms-api/internal/email"
	"github.com/jwalitptl/lms-api/internal/repository/postgres"
	certService "github.com/jwalitptl/lms-api/internal/service/certification"
	notificationService "github.com/jwalitptl/lms-api/internal/service/notification"
	quizService "github.com/jwalitptl/lms-api/internal/service/quiz"
	"github.com/jwalitptl/lms-api/internal/worker"
	"github.com/jwalitptl/lms-api/pkg/logger"
	"github.com/jwalitptl/lms-api/pkg/messaging/redis"
	"github.com/jwalitptl/lms-api/pkg/metrics"
	pkgworker "github.com/jwalitptl/lms-api/pkg/worker"
)

const healthAddr = ":8081"

func setupHealthCheck(reg *prometheus.Registry, ping func(ctx context.Context) error, log *logger.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: healthAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err, "health check server failed")
		}
	}()
	return srv
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logCfg := cfg.Log.ToLoggerConfig()
	log := logger.NewLogger(&logCfg)
	log.SetGlobal()

	hostname, _ := os.Hostname()
	log = log.With("worker_id", fmt.Sprintf("%s-%d", hostname, os.Getpid()))

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal(err, "failed to connect to database")
	}
	defer db.Close()

	broker, err := redis.NewRedisBroker(cfg.Redis.ToBrokerConfig(), &log.ZL)
	if err != nil {
		log.Fatal(err, "failed to create Redis broker")
	}
	defer broker.Close()

	sender, err := email.NewSender(cfg.Email, log.With("component", "email"))
	if err != nil {
		log.Fatal(err, "failed to create email sender")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(reg, "lms_worker")

	base := postgres.NewBaseRepository(db)
	userRepo := postgres.NewUserRepository(base)
	courseRepo := postgres.NewCourseRepository(base)
	enrollmentRepo := postgres.NewEnrollmentRepository(base)
	quizRepo := postgres.NewQuizRepository(base)
	attemptRepo := postgres.NewAttemptRepository(base)
	certRepo := postgres.NewCertificationRepository(base)
	notificationRepo := postgres.NewNotificationRepository(base)
	outboxRepo := postgres.NewOutboxRepository(base)

	notificationSvc := notificationService.NewService(
		postgres.NewTemplateRepository(base), postgres.NewPreferenceRepository(base), notificationRepo, userRepo,
		cfg.Notification.TemplateCacheTTL, appMetrics, log.With("service", "notification"),
	)
	certSvc := certService.NewService(certRepo, courseRepo, notificationRepo, notificationSvc, appMetrics, log.With("service", "certification"))
	quizSvc := quizService.NewService(
		quizRepo, attemptRepo, courseRepo, enrollmentRepo, notificationSvc,
		cfg.Quiz.SubmissionGrace, appMetrics, log.With("service", "quiz"),
	)

	dispatcher := notificationService.NewDispatcher(
		notificationRepo, sender, broker, cfg.Outbox.RetryAttempts, appMetrics, log.With("component", "dispatcher"),
	)
	processor := pkgworker.NewOutboxProcessor(
		outboxRepo, dispatcher, cfg.Outbox.ToWorkerConfig(), log.With("component", "outbox"), appMetrics,
	)

	scheduler := worker.NewScheduler(cfg.Location(), log.With("component", "scheduler"))
	cleanup := pkgworker.NewOutboxCleanup(outboxRepo, cfg.Outbox.Retention, log.With("component", "outbox_cleanup"))
	if err := worker.RegisterJobs(scheduler, cfg.Scheduler, certSvc, quizSvc, cleanup, log); err != nil {
		log.Fatal(err, "failed to register scheduled jobs")
	}

	healthSrv := setupHealthCheck(reg, db.PingContext, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Shutting down...")
		cancel()
	}()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		processor.Start(ctx)
	}()
	go func() {
		defer wg.Done()
		scheduler.Start(ctx)
	}()
	wg.Wait()

	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	_ = healthSrv.Shutdown(shutdownCtx)
	log.Info("worker exited")
}
