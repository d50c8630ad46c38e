package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vytor/pylearn/internal/api"
	"github.com/vytor/pylearn/internal/config"
	"github.com/vytor/pylearn/internal/db"
	"github.com/vytor/pylearn/internal/logger"
	"github.com/vytor/pylearn/internal/repository/sqlite"
	"github.com/vytor/pylearn/internal/scheduler"
	"github.com/vytor/pylearn/internal/services"
	"github.com/vytor/pylearn/internal/worker"
)

func main() {
	cfg := config.Load()

	format := logger.ParseFormat(cfg.LogFormat)
	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithFormat(format),
		logger.WithColors(format == logger.FormatText),
	)
	logger.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration: %v", err)
		os.Exit(1)
	}

	log.Info("pylearn review server starting")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("log_level=%s log_format=%s", cfg.LogLevel, cfg.LogFormat)
	log.Debug("stats_worker_count=%d", cfg.StatsWorkerCount)
	log.Debug("stats_queue_size=%d", cfg.StatsQueueSize)
	log.Debug("default_session_minutes=%d", cfg.DefaultSessionMinutes)
	log.Debug("request_timeout=%s", cfg.RequestTimeout)
	log.Debug("rate_limit_rps=%g rate_limit_burst=%d", cfg.RateLimitRPS, cfg.RateLimitBurst)

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed to open database: %v", err)
		os.Exit(1)
	}
	defer func() {
		log.Debug("closing database connection")
		database.Close()
	}()

	learnerRepo := sqlite.NewLearnerRepository(database.DB)
	itemRepo := sqlite.NewReviewItemRepository(database.DB)
	statsRepo := sqlite.NewStatsRepository(database.DB)

	sched := scheduler.New()
	statsService := services.NewStatsService(learnerRepo, itemRepo, statsRepo, sched)

	statsPool := worker.NewPool(cfg.StatsWorkerCount, cfg.StatsQueueSize)
	queue := &worker.Queue{Pool: statsPool, Refresher: statsService}

	srv := &api.Server{
		LearnerService:        services.NewLearnerService(learnerRepo),
		ReviewService:         services.NewReviewService(learnerRepo, itemRepo, statsRepo, queue, sched),
		StatsService:          statsService,
		DB:                    database,
		DefaultSessionMinutes: cfg.DefaultSessionMinutes,
		RequestTimeout:        cfg.RequestTimeout,
	}
	if cfg.RateLimitRPS > 0 {
		srv.RateLimiter = api.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	statsPool.Start(ctx)

	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout(cfg.RequestTimeout),
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error: %v", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	log.Info("received signal %v, initiating graceful shutdown", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	// Queued refresh jobs drain before the database closes.
	log.Debug("stopping stats pool")
	statsPool.Stop()

	log.Info("pylearn review server stopped")
}

// writeTimeout leaves room for the timeout handler to answer before the
// connection deadline. A zero request timeout disables both.
func writeTimeout(requestTimeout time.Duration) time.Duration {
	if requestTimeout <= 0 {
		return 0
	}
	return requestTimeout + 5*time.Second
}
