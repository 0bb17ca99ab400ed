// README: Entry point; loads config, wires the scheduling service and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"ridesched/internal/config"
	httptransport "ridesched/internal/http"
	"ridesched/internal/infra"
	"ridesched/internal/modules/scheduling"
	"ridesched/pkg/logger"
	"ridesched/pkg/metrics"
)

func main() {
	cfg, err := config.Load()
	log := logger.NewLogger(cfg.Log.Level)
	defer func() { _ = log.Sync() }()
	if err != nil {
		log.Fatal("Failed to load config", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL", "error", err)
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Warn("Redis unavailable; results will not be cached until it recovers", "addr", cfg.Redis.Addr, "error", err)
	}

	m := metrics.NewMetrics("ridesched", prometheus.DefaultRegisterer)

	schedulingStore := scheduling.NewStore(dbPool)
	schedulingCache := scheduling.NewCache(redisClient)
	schedulingSvc, err := scheduling.NewService(schedulingStore, schedulingCache, cfg.Scheduling, log, m)
	if err != nil {
		log.Fatal("Failed to build scheduling service", "error", err)
	}

	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	handler := httptransport.NewServer(httptransport.ServerDeps{
		Scheduling: schedulingSvc,
		Log:        log,
		Gatherer:   prometheus.DefaultGatherer,
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler.Routes()}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Info("Starting ridesched API", "addr", cfg.HTTP.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("HTTP server failed", "error", err)
	}
}
