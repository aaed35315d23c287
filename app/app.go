// File: app/app.go
package app

import (
	"context"
	"go-habit-auth/common"
	"go-habit-auth/config"
	"go-habit-auth/db"
	"go-habit-auth/handler"
	"go-habit-auth/logger"
	"go-habit-auth/repository"
	"go-habit-auth/router"
	"go-habit-auth/service"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func Run() {
	config.LoadConfig(".")
	logger.Init()
	logger.Log.Info("Logger initialized")
	logger.Log.Info("Configuration loaded successfully")

	database, err := db.Connect()
	if err != nil {
		logger.Log.Fatalf("Error connecting to the database: %v", err)
	}
	defer database.Close()

	if err := db.RunMigrations("file://db/migrations"); err != nil {
		logger.Log.Fatalf("Error running database migrations: %v", err)
	}

	// Throttling fails open, so a missing Redis only disables the limiter.
	var cacheClient service.ICacheClient
	if config.AppConfig.RateLimit.Enabled {
		redisClient, err := db.ConnectRedis()
		if err != nil {
			logger.Log.WithError(err).Warn("Redis unavailable, rate limiting disabled")
		} else {
			cacheClient = redisClient
			defer redisClient.Close()
		}
	}

	// --- Wiring All Layers Together ---
	clock := common.RealClock{}

	tokenRepo := repository.NewTokenRepository(database)
	blacklistRepo := repository.NewBlacklistRepository(database)

	jwtCfg := config.AppConfig.JWT
	codec := service.NewTokenCodec(jwtCfg.SecretKey, jwtCfg.AccessTTL, jwtCfg.RefreshTTL, clock)
	validator := service.NewTokenValidator(codec, tokenRepo, blacklistRepo, clock)
	sessionService := service.NewSessionService(codec, validator, tokenRepo, blacklistRepo, clock)

	limiter := service.NewRateLimiter(cacheClient,
		config.AppConfig.RateLimit.MaxAttempts,
		config.AppConfig.RateLimit.Window,
	)

	authHandler := handler.NewAuthHandler(sessionService, limiter, clock)

	// Expired-row sweeps run for the lifetime of the process.
	cleanupCtx, stopCleanup := context.WithCancel(context.Background())
	defer stopCleanup()
	cleanupService := service.NewCleanupService(tokenRepo, blacklistRepo, config.AppConfig.Cleanup.Interval, clock)
	go cleanupService.Run(cleanupCtx)

	r := router.NewRouter(authHandler, validator)

	// --- Start the Server with Graceful Shutdown ---
	port := config.AppConfig.Server.Port
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		logger.Log.Infof("Server starting on port :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Warn("Shutdown signal received. Starting graceful shutdown...")
	stopCleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Log.Info("Server exited properly")
}
