package handlers

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/secure"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"

	"dailyquestions/internal/config"
	"dailyquestions/internal/middleware"
	"dailyquestions/internal/observability"
	"dailyquestions/internal/services"
	"dailyquestions/internal/version"
)

// NewRouter creates a new router with all the necessary middleware and routes
func NewRouter(
	cfg *config.Config,
	userService services.UserServiceInterface,
	questionService services.QuestionServiceInterface,
	responseService services.ResponseServiceInterface,
	statsService services.StatsServiceInterface,
	logger *observability.Logger,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	// HTTP request logging middleware using our observability logger
	router.Use(func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start)
		statusCode := c.Writer.Status()

		fields := map[string]interface{}{
			"http.method":      c.Request.Method,
			"http.path":        c.Request.URL.Path,
			"http.status_code": statusCode,
			"http.latency_ms":  latency.Milliseconds(),
			"http.client_ip":   c.ClientIP(),
			"http.user_agent":  c.Request.UserAgent(),
		}
		if len(c.Errors) > 0 {
			fields["http.error"] = c.Errors.String()
		}

		if statusCode >= 500 {
			logger.Error(c.Request.Context(), "HTTP request failed", nil, fields)
		} else if statusCode >= 400 {
			logger.Warn(c.Request.Context(), "HTTP request warning", fields)
		} else {
			logger.Info(c.Request.Context(), "HTTP request", fields)
		}
	})

	// Health check endpoint (defined before any middleware)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "dailyquestions"})
	})

	// OpenTelemetry middleware for HTTP tracing and error attributes
	router.Use(observability.GinMiddlewareWithErrorHandling("dailyquestions"))

	// Disable automatic redirection for trailing slashes, which is better for APIs
	router.RedirectTrailingSlash = false

	// CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.CORSOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Requested-With"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Cookie sessions
	store := cookie.NewStore([]byte(cfg.Server.SessionSecret))
	sessionOpts := sessions.Options{
		Path:     config.SessionPath,
		MaxAge:   int(config.SessionMaxAge.Seconds()),
		HttpOnly: config.SessionHTTPOnly,
		Secure:   config.SessionSecure,
	}
	if cfg.Server.Debug {
		sessionOpts.SameSite = http.SameSiteDefaultMode
	} else {
		sessionOpts.SameSite = http.SameSiteLaxMode
		sessionOpts.Secure = true
	}
	store.Options(sessionOpts)
	router.Use(sessions.Sessions(config.SessionName, store))

	gin.SetMode(gin.ReleaseMode)
	if cfg.Server.Debug {
		gin.SetMode(gin.DebugMode)
	}

	// Security headers
	secureConfig := secure.DefaultConfig()
	secureConfig.SSLRedirect = false
	secureConfig.ContentSecurityPolicy = config.DefaultCSP
	router.Use(secure.New(secureConfig))

	// Initialize handlers
	authHandler := NewAuthHandler(userService, cfg, logger)
	questionHandler := NewQuestionHandler(questionService, cfg, logger)
	responseHandler := NewResponseHandler(responseService, cfg, logger)
	statsHandler := NewStatsHandler(statsService, cfg, logger)
	adminHandler := NewAdminHandler(userService, cfg, logger)

	v1 := router.Group("/v1")
	{
		v1.GET("/version", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"service":   "dailyquestions",
				"version":   version.Version,
				"commit":    version.Commit,
				"buildTime": version.BuildTime,
			})
		})

		auth := v1.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/status", authHandler.Status)
			auth.POST("/signup", authHandler.Signup)
		}

		questions := v1.Group("/questions")
		questions.Use(middleware.RequireAuth())
		{
			questions.GET("", questionHandler.ListQuestions)
			questions.GET("/categories", questionHandler.ListCategories)
			questions.GET("/:id", questionHandler.GetQuestion)
		}

		responses := v1.Group("/responses")
		responses.Use(middleware.RequireAuth())
		{
			responses.POST("", responseHandler.SubmitResponses)
			responses.GET("", responseHandler.GetResponsesForDay)
			responses.GET("/sheet", responseHandler.GetDaySheet)
			responses.GET("/history", responseHandler.GetResponseHistory)
		}

		stats := v1.Group("/stats")
		stats.Use(middleware.RequireAuth())
		{
			stats.GET("", statsHandler.GetSummary)
			stats.GET("/weekly", statsHandler.GetWeeklyActivity)
		}

		admin := v1.Group("/admin")
		admin.Use(middleware.RequireAdmin(userService))
		{
			admin.GET("/dashboard", statsHandler.GetAdminDashboard)
			admin.GET("/users", adminHandler.ListUsers)
			admin.DELETE("/users/:id", adminHandler.DeleteUser)
			admin.PUT("/users/:id/admin", adminHandler.SetUserAdmin)
			admin.GET("/questions", questionHandler.ListAllQuestions)
			admin.POST("/questions", questionHandler.CreateQuestion)
			admin.PUT("/questions/:id", questionHandler.UpdateQuestion)
			admin.POST("/questions/:id/toggle", questionHandler.ToggleQuestionActive)
			admin.DELETE("/questions/:id", questionHandler.DeleteQuestion)
		}
	}

	return router
}
