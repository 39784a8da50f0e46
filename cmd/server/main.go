package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	appservice "github.com/fraudguard/fraudguard/internal/application/service"
	"github.com/fraudguard/fraudguard/internal/config"
	domainservice "github.com/fraudguard/fraudguard/internal/domain/service"
	"github.com/fraudguard/fraudguard/internal/infrastructure/audit"
	"github.com/fraudguard/fraudguard/internal/infrastructure/monitoring"
	"github.com/fraudguard/fraudguard/internal/infrastructure/persistence/postgres"
	"github.com/fraudguard/fraudguard/internal/infrastructure/persistence/redis"
	"github.com/fraudguard/fraudguard/internal/interfaces/http"
	"github.com/fraudguard/fraudguard/internal/interfaces/http/handlers"
	"github.com/fraudguard/fraudguard/internal/ml"
	"github.com/fraudguard/fraudguard/pkg/logger"
)

func main() {
	startupLogger, err := monitoring.NewZapLogger(&config.LogConfig{Level: "info", Format: "console"})
	if err != nil {
		log.Fatalf("failed to create startup logger: %v", err)
	}

	cfg, v, err := config.LoadConfig(startupLogger)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	appLogger, err := monitoring.NewZapLogger(&cfg.Log)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	config.WatchLogLevel(v, appLogger)

	ctx := context.Background()

	tracing, err := monitoring.NewTracingManager(cfg, appLogger)
	if err != nil {
		appLogger.Fatal(ctx, "failed to initialize tracing", err)
	}
	defer tracing.Shutdown(context.Background())

	metrics := monitoring.NewMetrics(prometheus.DefaultRegisterer)

	// Profile storage: Redis with TTL when configured, otherwise the
	// in-process sharded store.
	var profiles domainservice.ProfileStore
	if cfg.Redis.Enabled {
		client, err := redis.NewClient(ctx, &cfg.Redis)
		if err != nil {
			appLogger.Fatal(ctx, "failed to connect to redis", err)
		}
		defer client.Close()
		ttl := time.Duration(cfg.Redis.ProfileTTL) * time.Hour
		profiles = redis.NewProfileStore(client, ttl, appLogger)
	}

	riskCache := domainservice.NewEntityRiskCache(domainservice.DefaultHeuristics(), profiles, domainservice.CacheOptions{
		EntityRiskTTL:  time.Duration(cfg.Cache.EntityRiskTTLHours) * time.Hour,
		SweepInterval:  time.Duration(cfg.Cache.SweepIntervalMins) * time.Minute,
		ProfileShards:  cfg.Cache.ProfileShards,
		VelocityWindow: cfg.Cache.VelocityWindowLimit,
	}, appLogger)
	pipeline := domainservice.NewFeaturePipeline(riskCache, appLogger)

	handle := ml.NewHandle()
	trainer := ml.NewTrainer(ml.TrainerConfig{
		ForestTrees:       cfg.Training.ForestTrees,
		BoostingRounds:    cfg.Training.BoostingRounds,
		AutoencoderEpochs: cfg.Training.AutoencoderEpochs,
		HoldoutFraction:   cfg.Training.HoldoutFraction,
		MinRows:           cfg.Training.MinRows,
		Seed:              cfg.Training.Seed,
	})

	// Prediction log: optional, analytics report no data without it.
	var predictions domainservice.PredictionRepository
	if cfg.Database.Enabled {
		db, err := postgres.NewDatabase(ctx, &cfg.Database, appLogger)
		if err != nil {
			appLogger.Fatal(ctx, "failed to connect to database", err)
		}
		predictions = postgres.NewPredictionRepository(db, appLogger)
	}

	var alerts domainservice.AlertPublisher
	if cfg.Kafka.Enabled() {
		alerts = audit.NewKafkaAlertPublisher(cfg.Kafka, appLogger)
	} else {
		alerts = audit.NewNoopPublisher()
	}
	defer alerts.Close()

	scoringSvc := appservice.NewScoringAppService(pipeline, riskCache, handle, predictions, alerts, metrics, appLogger)
	trainingSvc := appservice.NewTrainingAppService(pipeline, trainer, handle, alerts, metrics, appLogger)
	analyticsSvc := appservice.NewAnalyticsAppService(predictions, appLogger)

	router := http.NewRouter(cfg, appLogger, tracing, metrics,
		handlers.NewHealthHandler(scoringSvc),
		handlers.NewPredictionHandler(scoringSvc),
		handlers.NewModelHandler(scoringSvc, trainingSvc),
		handlers.NewAnalyticsHandler(analyticsSvc),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- router.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			appLogger.Fatal(ctx, "http server failed", err)
		}
	case sig := <-quit:
		appLogger.Info(ctx, "shutdown signal received", logger.Fields{
			"signal": sig.String(),
		})
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := router.Stop(shutdownCtx); err != nil {
			appLogger.Error(shutdownCtx, "forced shutdown", err)
		}
	}

	appLogger.Info(ctx, "server stopped")
}
