package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"salesInsight/app/echo-server/metrics"
	"salesInsight/app/echo-server/router"
	"salesInsight/business/clv"
	"salesInsight/business/refresh"
	"salesInsight/business/rfm"
	"salesInsight/business/stats"
	"salesInsight/internal/middleware"
	"salesInsight/internal/repository/artifactfs"
	psqlRepo "salesInsight/internal/repository/postgres"
	redisRepo "salesInsight/internal/repository/redis"
	"salesInsight/internal/rest"
	"salesInsight/pkg/config"
	"salesInsight/pkg/database"
	pkgredis "salesInsight/pkg/database/redis"
	"salesInsight/pkg/logger"
	pkgmetrics "salesInsight/pkg/metrics"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.App.Environment, cfg.App.LogLevel)
	defer logger.Sync()
	logger.Info("Starting Sales Insight API", "version", cfg.App.Version)

	pkgmetrics.Init()
	metrics.Init()

	db, err := database.Open(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", "driver", cfg.Database.Driver, "error", err)
	}
	if err := psqlRepo.Migrate(db); err != nil {
		logger.Fatal("Failed to migrate database", "error", err)
	}

	logger.Info("Database connected successfully", "driver", cfg.Database.Driver)

	// Stats cache is optional; without redis every summary hits the database
	var (
		redisClient *goredis.Client
		statsCache  stats.Cache
	)
	if cfg.Redis.Enabled() {
		redisClient, err = pkgredis.NewRedisClient(cfg)
		if err != nil {
			logger.Warn("Redis unavailable, stats cache disabled", "error", err)
		} else {
			statsCache = redisRepo.NewStatsCache(redisClient, "")
			logger.Info("Redis connected successfully")
		}
	}

	// Init repo
	salesRepo := psqlRepo.NewSalesRepository(db)
	rfmRepo := psqlRepo.NewRFMRepository(db)
	artifactStore := newArtifactStore(cfg, db)

	// Init service
	rfmService := rfm.NewService(salesRepo, rfmRepo)
	clvService := clv.NewService(artifactStore)
	statsService := stats.NewService(salesRepo, statsCache, cfg.Redis.StatsTTL)

	// A missing table or model is served as 404/unavailable until the next refresh
	initCtx, initCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := rfmService.Handle().Init(initCtx); err != nil {
		logger.Warn("RFM table not loaded", "error", err)
	}
	if err := clvService.Handle().Init(initCtx); err != nil {
		logger.Warn("CLV model not loaded", "error", err)
	}
	initCancel()

	refreshJob := refresh.NewJob(
		rfmService,
		clvService,
		clv.TrainOptions{TestFraction: cfg.Model.TestFraction, Seed: cfg.Model.Seed},
		cfg.Refresh.Timeout,
		statsService,
	)
	scheduler := refresh.NewScheduler(refreshJob, cfg.Refresh.CronSpec)
	if err := scheduler.Start(); err != nil {
		logger.Fatal("Failed to start refresh scheduler", "spec", cfg.Refresh.CronSpec, "error", err)
	}

	// Init handler
	healthHandler := rest.NewHealthHandler()
	rfmHandler := rest.NewRFMHandler(rfmService)
	clvHandler := rest.NewCLVHandler(clvService.Predictor(), clvService)
	statsHandler := rest.NewStatsHandler(statsService, cfg.Server.RequestTimeout)
	adminHandler := rest.NewAdminHandler(map[string]rest.Reloader{
		"rfm_table": rfmService.Handle(),
		"clv_model": clvService.Handle(),
	}, refreshJob)

	// Init echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// HTTP error handler
	e.HTTPErrorHandler = middleware.ErrorHandler

	// Global middleware
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger())
	e.Use(metrics.Middleware())

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Setup routes
	api := e.Group("/api/v1")
	router.SetHealthRoutes(api, healthHandler)
	router.SetRFMRoutes(api, rfmHandler)
	router.SetCLVRoutes(api, clvHandler)
	router.SetStatsRoutes(api, statsHandler)
	router.SetAdminRoutes(api, adminHandler)

	// Goroutine server
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Server.Port)
		logger.Info("Server starting", "address", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown server
	if err := e.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	rfmService.Handle().Teardown()
	clvService.Handle().Teardown()

	if err := pkgredis.CloseRedisClient(redisClient); err != nil {
		logger.Error("Redis close error", "error", err)
	}
	if err := database.Close(db); err != nil {
		logger.Error("Database close error", "error", err)
	}

	logger.Info("Server stopped")
}

func newArtifactStore(cfg *config.Config, db *gorm.DB) clv.ArtifactStore {
	if cfg.Model.ArtifactStore == config.ArtifactStorePostgres {
		return psqlRepo.NewArtifactRepository(db)
	}
	return artifactfs.NewStore(cfg.Model.ArtifactDir)
}
