package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stemsi/quizdesk-backend/internal/config"
	"github.com/stemsi/quizdesk-backend/internal/handler"
	"github.com/stemsi/quizdesk-backend/internal/metrics"
	"github.com/stemsi/quizdesk-backend/internal/middleware"
	"github.com/stemsi/quizdesk-backend/internal/response"
	"github.com/stemsi/quizdesk-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth      *handler.AuthHandler
	Admin     *handler.AdminHandler
	Question  *handler.QuestionHandler
	Result    *handler.ResultHandler
	Dashboard *handler.DashboardHandler
	Setting   *handler.SettingHandler
	Session   *handler.SessionHandler
	Quiz      *handler.QuizHandler
	WS        *handler.WSHandler
	System    *handler.SystemHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
// limiter guards login and registration; nil disables rate limiting.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	m *metrics.Metrics,
	limiter *middleware.RateLimiter,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "Content-Disposition"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	if m != nil {
		router.Use(m.Middleware())
		router.GET("/metrics", gin.WrapH(m.Handler()))
	}

	router.GET("/health", handlers.System.Health)

	limited := func(h gin.HandlerFunc) []gin.HandlerFunc {
		if limiter == nil {
			return []gin.HandlerFunc{h}
		}
		return []gin.HandlerFunc{limiter.Middleware(), h}
	}

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/admin/login", limited(handlers.Auth.AdminLogin)...)
		auth.GET("/admin/me", middleware.RequireAdminJWT(authService), handlers.Auth.GetAdminProfile)
		auth.POST("/admin/logout", middleware.RequireAdminJWT(authService), handlers.Auth.AdminLogout)
	}

	// ─── 2. Session Group (Public) ─────────────────────────────────────
	sessions := router.Group("/api/v1/sessions")
	{
		sessions.POST("", limited(handlers.Session.Register)...)
		sessions.GET("/:roll/result", handlers.Session.GetResult)
	}

	// ─── 3. WebSocket Group ────────────────────────────────────────────
	ws := router.Group("/ws/v1")
	{
		ws.GET("/sessions/:roll/stream", handlers.WS.SessionStream)
	}

	// ─── 4. Quiz Backend Group ─────────────────────────────────────────
	// Consumed by hosts running with QUIZ_BACKEND_URL pointed here.
	api := router.Group("/api/v1")
	api.Use(middleware.RequireServiceToken(cfg.QuizBackendToken))
	{
		api.GET("/quiz/questions/:category", handlers.Quiz.GetQuestions)
		api.POST("/quiz/submit", handlers.Quiz.Submit)
		api.POST("/quiz/beacon", handlers.Quiz.Beacon)
		api.GET("/config", handlers.Quiz.GetConfig)
	}

	// ─── 5. Admin Group (JWT) ──────────────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdminJWT(authService))
	adminAPI.Use(middleware.Compress(middleware.CompressConfig{
		SkipPaths: []string{"/api/v1/admin/system/metrics"},
	}))
	{
		// Question bank
		questions := adminAPI.Group("/questions")
		{
			questions.GET("", handlers.Question.ListQuestions)
			questions.GET("/categories", handlers.Question.ListCategories)
			questions.GET("/:id", handlers.Question.GetQuestion)
			questions.POST("", handlers.Question.CreateQuestion)
			questions.PUT("/:id", handlers.Question.UpdateQuestion)
			questions.DELETE("/:id", handlers.Question.DeleteQuestion)
		}

		// Results
		results := adminAPI.Group("/results")
		{
			results.GET("", handlers.Result.ListResults)
			results.GET("/export", handlers.Result.ExportResults)
			results.GET("/:id", handlers.Result.GetResult)
			results.DELETE("/:id", handlers.Result.DeleteResult)
		}

		// Cheaters
		adminAPI.GET("/cheaters", handlers.Admin.ListCheaters)
		adminAPI.GET("/cheaters/:roll", handlers.Admin.GetCheater)
		adminAPI.DELETE("/cheaters/:roll", handlers.Admin.PardonCheater)

		// Live sessions
		adminAPI.GET("/sessions", handlers.Admin.ListActiveSessions)
		adminAPI.DELETE("/sessions/:roll", handlers.Admin.AbandonSession)
		adminAPI.GET("/sessions/:session_id/beacons", handlers.Result.ListBeacons)

		// Dashboard
		adminAPI.GET("/dashboard", handlers.Dashboard.GetAnalytics)

		// System Monitoring
		adminAPI.GET("/system/metrics", handlers.System.SystemMetricsSSE)

		// Quiz configuration
		settingsGroup := adminAPI.Group("/settings")
		{
			settingsGroup.GET("", handlers.Setting.GetQuizConfig)
			settingsGroup.PUT("", handlers.Setting.UpdateQuizConfig)
		}
	}

	return router
}
