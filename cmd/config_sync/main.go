package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	businessapp "github.com/replytics/dashboard-api/internal/business_service/app"
	businessrepo "github.com/replytics/dashboard-api/internal/business_service/repository/postgres"
	configsyncapp "github.com/replytics/dashboard-api/internal/configsync_service/app"
	"github.com/replytics/dashboard-api/internal/platform/cache"
	"github.com/replytics/dashboard-api/internal/platform/config"
	"github.com/replytics/dashboard-api/internal/platform/database"
	"github.com/replytics/dashboard-api/internal/platform/logger"
	"github.com/replytics/dashboard-api/internal/platform/messagebroker"
	"github.com/replytics/dashboard-api/internal/voicebot"
)

const serviceName = "config_sync"

func main() {
	cfg, err := config.Load(serviceName)
	if err != nil {
		slog.Error("Failed to load configuration", "service", serviceName, "error", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.LogLevel)
	appLogger.Info("Config sync service starting...")

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbPool, err := database.NewDBPool(rootCtx, cfg.PostgresDSN)
	if err != nil {
		appLogger.Error("Failed to connect to PostgreSQL", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()
	appLogger.Info("Connected to PostgreSQL database")

	natsClient, err := messagebroker.NewNatsClient(cfg.NATSUrl, serviceName, appLogger)
	if err != nil {
		appLogger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer natsClient.Close()
	appLogger.Info("Connected to NATS")

	redisCache, err := cache.NewRedisCache(rootCtx, cfg.RedisURL)
	if err != nil {
		appLogger.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer redisCache.Close()
	appLogger.Info("Connected to Redis")

	businessSvc := businessapp.NewApplication(
		businessrepo.NewPgBusinessProfileRepository(dbPool, appLogger),
		businessrepo.NewPgVoiceSettingsRepository(dbPool, appLogger),
		businessrepo.NewPgHoursRepository(dbPool, appLogger),
		natsClient,
		appLogger,
	)

	voiceBotClient := voicebot.NewClient(voicebot.Config{
		BaseURL:    cfg.VoiceBotURL,
		JWTSecret:  cfg.VoiceBotJWTSecret,
		JWTExpiry:  time.Duration(cfg.VoiceBotJWTExpiryMins) * time.Minute,
		Timeout:    time.Duration(cfg.VoiceBotTimeoutSeconds) * time.Second,
		MaxRetries: cfg.VoiceBotMaxRetries,
		CacheTTL:   time.Duration(cfg.VoiceBotCacheTTL) * time.Second,
	}, redisCache, appLogger)

	consumer := configsyncapp.NewConsumer(businessSvc, voiceBotClient, appLogger)

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsMux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"status":"ok"}`)
	})
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ConfigSyncMetricsPort),
		Handler: metricsMux,
	}

	g, gCtx := errgroup.WithContext(rootCtx)

	g.Go(func() error {
		return consumer.Run(gCtx, natsClient)
	})

	g.Go(func() error {
		appLogger.Info("Metrics server listening", "addr", metricsServer.Addr)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return metricsServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		appLogger.Error("Config sync service exited with error", "error", err)
		os.Exit(1)
	}
	appLogger.Info("Config sync service shut down.")
}
