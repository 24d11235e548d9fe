package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Atharva9281/WindBorne/internal/cache"
	"github.com/Atharva9281/WindBorne/internal/clients/alphavantage"
	"github.com/Atharva9281/WindBorne/internal/config"
	"github.com/Atharva9281/WindBorne/internal/database"
	"github.com/Atharva9281/WindBorne/internal/export"
	exporthandlers "github.com/Atharva9281/WindBorne/internal/export/handlers"
	"github.com/Atharva9281/WindBorne/internal/optimizer"
	optimizerhandlers "github.com/Atharva9281/WindBorne/internal/optimizer/handlers"
	"github.com/Atharva9281/WindBorne/internal/ratelimit"
	"github.com/Atharva9281/WindBorne/internal/scheduler"
	"github.com/Atharva9281/WindBorne/internal/scoring"
	"github.com/Atharva9281/WindBorne/internal/server"
	"github.com/Atharva9281/WindBorne/internal/vendors"
	vendorhandlers "github.com/Atharva9281/WindBorne/internal/vendors/handlers"
	"github.com/Atharva9281/WindBorne/pkg/logger"
)

func main() {
	// Load configuration first so the log level is configurable
	cfg, err := config.Load()
	if err != nil {
		fallback := logger.New(logger.Config{Level: "info", Pretty: true})
		fallback.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting WindBorne vendor risk service")

	// Initialize database
	db, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "windborne.db"),
		Profile: database.ProfileCache,
		Name:    "windborne",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Cache layer
	store := cache.NewStore(db.Conn())
	policy := cache.NewPolicy()
	stats := cache.NewStatsRepo(db.Conn())
	cacheMgr := cache.NewManager(store, policy, stats, log)

	// Upstream client behind the shared rate limiter
	limiter := ratelimit.New(cfg.CallDelay)
	avClient := alphavantage.New(cfg.AlphaVantageURL, cfg.AlphaVantageAPIKey, limiter, stats, log)

	// Domain services
	calc := scoring.NewCalculator(log)
	scores := vendors.NewRiskRepository(db.Conn())
	vendorSvc := vendors.NewService(cacheMgr, scores, calc, avClient, cfg.VendorTimeout, log)
	portfolioSvc := vendors.NewPortfolioService(db.Conn(), cacheMgr, scores, log)
	opt := optimizer.New(cacheMgr, stats, vendorSvc, log)
	exportSvc := export.NewService(vendorSvc, portfolioSvc, scores, log)

	// Background jobs: nightly sweep, hourly proactive refresh
	sched := scheduler.New(log)
	if err := sched.AddJob("30 3 * * *", optimizer.NewSweepJob(opt, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register sweep job")
	}
	if err := sched.AddJob("@hourly", optimizer.NewRefreshJob(opt, 10*time.Minute, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register refresh job")
	}
	sched.Start()
	defer sched.Stop()

	// HTTP server
	srv := server.New(server.Config{
		Port:    cfg.Port,
		Log:     log,
		DB:      db,
		Config:  cfg,
		Vendors: vendorhandlers.NewHandler(vendorSvc, portfolioSvc, log),
		Cache:   optimizerhandlers.NewHandler(opt, log),
		Export:  exporthandlers.NewHandler(exportSvc, log),
	})

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
