package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/verdantx/carbon-trade-api/internal/accounts"
	"github.com/verdantx/carbon-trade-api/internal/auth"
	"github.com/verdantx/carbon-trade-api/internal/config"
	"github.com/verdantx/carbon-trade-api/internal/database"
	"github.com/verdantx/carbon-trade-api/internal/overdue"
	"github.com/verdantx/carbon-trade-api/internal/requests"
	"github.com/verdantx/carbon-trade-api/internal/settlement"
	"github.com/verdantx/carbon-trade-api/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// init configures the application logging based on environment settings
// In development mode, it enables pretty printing with timestamps
// Debug logging can be enabled via DEBUG environment variable
func init() {
	// Configure pretty logging for development
	if os.Getenv("ENV") != "production" {
		output := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		zlog.Logger = zerolog.New(output).With().Timestamp().Logger()
	}

	// Set global log level
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if os.Getenv("DEBUG") == "true" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// main initializes and runs the carbon trade API server with graceful
// shutdown support
func main() {
	cfg := config.Load()

	// Initialize database
	db, err := database.NewDatabase(cfg.DatabasePath)
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to initialize database")
	}

	// Initialize router
	router := gin.Default()

	// Initialize services and handlers
	authService := auth.NewService(db, cfg.JWTSecret, cfg.StartingCarbon, cfg.StartingCash)
	authHandlers := auth.NewGinHandlers(authService)

	accountsService := accounts.NewService(db)
	accountsHandlers := accounts.NewGinHandlers(accountsService)

	requestsService := requests.NewService(db)
	requestsHandlers := requests.NewGinHandlers(requestsService)

	settlementService := settlement.NewService(db)
	settlementHandlers := settlement.NewGinHandlers(settlementService)

	overdueTracker := overdue.NewTracker(db, cfg.OverdueThreshold)
	overdueHandlers := overdue.NewGinHandlers(overdueTracker)

	// Create and start overdue sweep processor
	overdueProcessor := overdue.NewProcessor(db, cfg.OverdueThreshold, cfg.SweepInterval)
	processorCtx, processorCancel := context.WithCancel(context.Background())
	defer processorCancel()

	go overdueProcessor.Start(processorCtx)

	// Setup middleware
	router.Use(middleware.RateLimit())

	// Setup API routes
	setupRoutes(router, cfg, authHandlers, accountsHandlers, requestsHandlers, settlementHandlers, overdueHandlers)

	// Create server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Graceful shutdown setup
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Msg("listen")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info().Msg("Shutting down server...")

	// Give outstanding operations 5 seconds to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	zlog.Info().Msg("Server exiting")
}

// setupRoutes configures all API endpoints and their handlers
// Auth routes are public; everything else requires a company JWT
func setupRoutes(
	router *gin.Engine,
	cfg *config.Config,
	authHandlers *auth.GinHandlers,
	accountsHandlers *accounts.GinHandlers,
	requestsHandlers *requests.GinHandlers,
	settlementHandlers *settlement.GinHandlers,
	overdueHandlers *overdue.GinHandlers,
) {
	v1 := router.Group("/api/v1")
	{
		// Auth routes
		authRoutes := v1.Group("/auth")
		{
			authRoutes.POST("/register", authHandlers.RegisterHandler())
			authRoutes.POST("/login", authHandlers.LoginHandler())
		}

		// Company routes
		me := v1.Group("/me")
		me.Use(middleware.JWTAuth(cfg.JWTSecret))
		{
			me.GET("/balances", accountsHandlers.GetBalancesHandler())
			me.GET("/requests", requestsHandlers.MyRequestsHandler())
		}

		// Trade request routes
		reqRoutes := v1.Group("/requests")
		reqRoutes.Use(middleware.JWTAuth(cfg.JWTSecret))
		{
			reqRoutes.POST("", requestsHandlers.CreateRequestHandler())
			reqRoutes.GET("/received", overdueHandlers.ReceivedRequestsHandler())
			reqRoutes.POST("/received/:received_id/viewed", overdueHandlers.AcknowledgeHandler())
			reqRoutes.POST("/:request_id/decision", settlementHandlers.DecideRequestHandler())
		}
	}
}
