// Package main provides the entry point for the daily questions backend server.
// It sets up the HTTP server, database connection, middleware, and API routes.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dailyquestions/internal/config"
	"dailyquestions/internal/database"
	"dailyquestions/internal/handlers"
	"dailyquestions/internal/observability"
	"dailyquestions/internal/services"
	contextutils "dailyquestions/internal/utils"

	"github.com/gin-gonic/gin"
)

// Application bundles the HTTP router with the resources it owns.
type Application struct {
	cfg    *config.Config
	db     *sql.DB
	router *gin.Engine
	logger *observability.Logger
}

// NewApplication wires the services and router on top of an open database.
func NewApplication(cfg *config.Config, db *sql.DB, logger *observability.Logger) *Application {
	userService := services.NewUserServiceWithLogger(db, cfg, logger)
	questionService := services.NewQuestionServiceWithLogger(db, cfg, logger)
	responseService := services.NewResponseServiceWithLogger(db, cfg, logger)
	statsService := services.NewStatsServiceWithLogger(db, cfg, logger)

	router := handlers.NewRouter(
		cfg,
		userService,
		questionService,
		responseService,
		statsService,
		logger,
	)

	return &Application{
		cfg:    cfg,
		db:     db,
		router: router,
		logger: logger,
	}
}

// Run starts the HTTP server and blocks until the context is cancelled or the
// server fails.
func (a *Application) Run(ctx context.Context, port string) error {
	serverErr := make(chan error, 1)
	go func() {
		if err := a.router.Run(":" + port); err != nil {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-serverErr:
		return contextutils.WrapError(err, "server failed")
	}
}

// Shutdown releases the application's resources.
func (a *Application) Shutdown(_ context.Context) error {
	return a.db.Close()
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	tp, mp, logger, err := observability.SetupObservability(&cfg.OpenTelemetry, "dailyquestions")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize observability: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()

		if tp != nil {
			if err := tp.Shutdown(shutdownCtx); err != nil {
				logger.Warn(ctx, "Error shutting down tracer provider", map[string]interface{}{"error": err.Error()})
			}
		}
		if mp != nil {
			if err := mp.Shutdown(shutdownCtx); err != nil {
				logger.Warn(ctx, "Error shutting down meter provider", map[string]interface{}{"error": err.Error()})
			}
		}
	}()

	logger.Info(ctx, "Starting daily questions service", map[string]interface{}{
		"port":     cfg.Server.Port,
		"logLevel": cfg.Server.LogLevel,
	})

	dbManager := database.NewManager(logger)
	db, err := dbManager.InitDBWithConfig(cfg.Database)
	if err != nil {
		logger.Error(ctx, "Failed to initialize database", err)
		os.Exit(1)
	}

	app := NewApplication(cfg, db, logger)

	// Ensure the configured admin account exists before serving traffic
	userService := services.NewUserServiceWithLogger(db, cfg, logger)
	if err := userService.EnsureAdminUserExists(ctx, cfg.Server.AdminUsername, cfg.Server.AdminPassword); err != nil {
		logger.Error(ctx, "Failed to ensure admin user exists", err, map[string]interface{}{"admin_username": cfg.Server.AdminUsername})
		os.Exit(1)
	}

	appErr := make(chan error, 1)
	go func() {
		if err := app.Run(ctx, cfg.Server.Port); err != nil {
			appErr <- err
		}
	}()

	select {
	case <-shutdownCh:
		logger.Info(ctx, "Received shutdown signal, shutting down gracefully")
	case err := <-appErr:
		logger.Error(ctx, "Application failed", err)
		os.Exit(1)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "Error during application shutdown", err)
		os.Exit(1)
	}

	logger.Info(ctx, "Shutdown completed successfully")
}
