package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/stemsi/quizdesk-backend/internal/backend"
	"github.com/stemsi/quizdesk-backend/internal/config"
	"github.com/stemsi/quizdesk-backend/internal/database"
	"github.com/stemsi/quizdesk-backend/internal/handler"
	"github.com/stemsi/quizdesk-backend/internal/logger"
	"github.com/stemsi/quizdesk-backend/internal/metrics"
	"github.com/stemsi/quizdesk-backend/internal/middleware"
	"github.com/stemsi/quizdesk-backend/internal/quiz"
	"github.com/stemsi/quizdesk-backend/internal/repository"
	"github.com/stemsi/quizdesk-backend/internal/router"
	"github.com/stemsi/quizdesk-backend/internal/service"
	"github.com/stemsi/quizdesk-backend/internal/validator"
	"github.com/stemsi/quizdesk-backend/internal/worker"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().
		Str("port", cfg.ServerPort).
		Str("mode", cfg.GinMode).
		Str("log_level", cfg.LogLevel).
		Bool("remote_backend", cfg.QuizBackendURL != "").
		Msg("Starting QuizDesk Backend")

	// ─── Initialize Validator ──────────────────────────────────────────
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Connect to Redis ──────────────────────────────────────────────
	rdb, err := database.NewRedisClient(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer rdb.Close()

	// ─── Metrics ───────────────────────────────────────────────────────
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(reg)

	// ─── Initialize Repositories ───────────────────────────────────────
	adminRepo := repository.NewAdminRepository(pool)
	questionRepo := repository.NewQuestionRepository(pool)
	questionCache := repository.NewQuestionCache(rdb, questionRepo, cfg.QuestionCacheTTL, log)
	resultRepo := repository.NewResultRepository(pool)
	beaconRepo := repository.NewBeaconRepository(pool)
	settingRepo := repository.NewSettingRepository(pool)
	dashboardRepo := repository.NewDashboardRepository(pool)
	sessionRepo := repository.NewRedisSessionRepository(rdb, cfg.SessionTTL, cfg.ResultTTL, log)

	// ─── Initialize Services ──────────────────────────────────────────
	authService := service.NewAuthService(cfg, rdb)
	adminService := service.NewAdminService(adminRepo)
	settingService := service.NewSettingService(settingRepo, log)
	questionService := service.NewQuestionService(questionRepo, questionCache, settingService, log)
	resultService := service.NewResultService(resultRepo, beaconRepo)
	dashboardService := service.NewDashboardService(dashboardRepo)
	syncService := service.NewSyncService(rdb)

	// Sessions talk to a remote quiz backend when one is configured, and to
	// the in-process services otherwise.
	var quizBackend quiz.Backend = backend.NewLocal(questionService, settingService, syncService)
	if cfg.QuizBackendURL != "" {
		quizBackend = backend.NewClient(cfg.QuizBackendURL, cfg.QuizBackendToken, cfg.BackendTimeout, log)
	}

	sessionService := service.NewSessionService(sessionRepo, quizBackend, quiz.Options{
		Policy: quiz.Policy{
			MaxViolations: cfg.MaxViolations,
			HiddenGrace:   cfg.HiddenGrace,
		},
		TickInterval:       cfg.TickInterval,
		CheckpointInterval: cfg.CheckpointInterval,
		SyncTimeout:        cfg.BackendTimeout,
		Recorder:           m,
	}, log)

	// ─── Initialize Handlers ──────────────────────────────────────────
	handlers := &router.Handlers{
		Auth:      handler.NewAuthHandler(authService, adminService),
		Admin:     handler.NewAdminHandler(sessionService, dashboardService, log),
		Question:  handler.NewQuestionHandler(questionService),
		Result:    handler.NewResultHandler(resultService, log),
		Dashboard: handler.NewDashboardHandler(dashboardService),
		Setting:   handler.NewSettingHandler(settingService, log),
		Session:   handler.NewSessionHandler(sessionService),
		Quiz:      handler.NewQuizHandler(questionService, settingService, syncService, log),
		WS:        handler.NewWSHandler(sessionService, log, cfg.AllowedOrigins),
		System:    handler.NewSystemHandler(pool, rdb, sessionService, m, log),
	}

	// ─── Start Background Workers ─────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	workersDone := make(chan struct{}, 2)

	resultWorker := worker.NewResultWorker(rdb, resultRepo, log)
	beaconWorker := worker.NewBeaconWorker(rdb, beaconRepo, log)

	go func() { resultWorker.Start(workerCtx); workersDone <- struct{}{} }()
	go func() { beaconWorker.Start(workerCtx); workersDone <- struct{}{} }()

	// ─── Setup Router ──────────────────────────────────────────────────
	limiter := middleware.NewRateLimiter(ctx, cfg.RegisterRateLimit, time.Minute)
	r := router.SetupRouter(authService, handlers, m, limiter, cfg)

	// ─── Create HTTP Server ────────────────────────────────────────────
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	// ─── Start Server in Goroutine ─────────────────────────────────────
	go func() {
		log.Info().Str("addr", ":"+cfg.ServerPort).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server error")
		}
	}()

	// ─── Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully...")

	// 1. Stop accepting new HTTP requests (5s timeout). WebSocket
	// connections are hijacked and end with their runners below.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	// 2. Stop hosted sessions. Snapshots stay in Redis so students resume
	// on the next process.
	sessionCtx, sessionCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer sessionCancel()
	if err := sessionService.Shutdown(sessionCtx); err != nil {
		log.Error().Err(err).Msg("Quiz sessions did not stop in time")
	}

	// 3. Stop background workers and wait for their buffers to drain.
	workerCancel()
	drainTimeout := time.After(10 * time.Second)
drain:
	for i := 0; i < 2; i++ {
		select {
		case <-workersDone:
		case <-drainTimeout:
			log.Warn().Msg("Workers did not drain in time")
			break drain
		}
	}

	log.Info().Msg("Shutdown complete")
}

// init sets zerolog global defaults before main runs.
func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}
