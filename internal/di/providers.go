package di

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"FraudSight/internal/domain/repository"
	"FraudSight/internal/features"
	"FraudSight/internal/handler/api"
	"FraudSight/internal/registry"
	internalrepo "FraudSight/internal/repository"
	"FraudSight/internal/scoring"
	"FraudSight/internal/training"
	"FraudSight/pkg/cache"
	pkgch "FraudSight/pkg/clickhouse"
	"FraudSight/pkg/config"
	xhttp "FraudSight/pkg/http"
	pkgkafka "FraudSight/pkg/kafka"
	applogger "FraudSight/pkg/logger"
	"FraudSight/pkg/metrics"
	"FraudSight/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideNormalizer creates the feature normalizer.
func ProvideNormalizer() *features.Normalizer {
	return features.NewNormalizer()
}

// ProvideModelCache loads every model artifact from the models
// directory at startup.
func ProvideModelCache(cfg *config.Config, log *applogger.Logger) (*registry.Cache, error) {
	c := registry.NewCache(cfg.Models.Dir, log)
	if err := c.LoadAll(); err != nil {
		return nil, fmt.Errorf("model cache: %w", err)
	}
	return c, nil
}

// ProvideClickHouseClient creates the ClickHouse client for the
// prediction audit log, or nil when the log is disabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.PredictionLog.Enabled {
		return nil, nil
	}

	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.PredictionLog.Host),
		pkgch.WithPort(cfg.PredictionLog.Port),
		pkgch.WithDatabase(cfg.PredictionLog.Database),
		pkgch.WithCredentials(cfg.PredictionLog.User, cfg.PredictionLog.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithAsyncInsert(cfg.PredictionLog.AsyncInsert, cfg.PredictionLog.WaitForAsync),
		pkgch.WithTimeouts(cfg.PredictionLog.DialTimeout, cfg.PredictionLog.ReadTimeout, cfg.PredictionLog.WriteTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stmts := append(
		[]string{"CREATE DATABASE IF NOT EXISTS " + cfg.PredictionLog.Database},
		internalrepo.PredictionLogSchema(cfg.PredictionLog.Database+"."+cfg.PredictionLog.Table)...,
	)
	if err := client.InitSchema(ctx, stmts); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvidePredictionLog creates the audit log writer.
func ProvidePredictionLog(client *pkgch.Client, cfg *config.Config) repository.PredictionLog {
	if client == nil {
		return internalrepo.NopPredictionLog{}
	}
	return internalrepo.NewClickHousePredictionLog(client, cfg.PredictionLog.Database+"."+cfg.PredictionLog.Table)
}

// ProvideKafkaProducer creates the Kafka producer for job events, or
// nil when events are disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Events.Enabled {
		return nil, nil
	}

	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Events.Brokers),
		pkgkafka.WithCompression(cfg.Events.Compression),
		pkgkafka.WithRequiredAcks(cfg.Events.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Events.MaxAttempts),
		pkgkafka.WithTimeouts(cfg.Events.WriteTimeout, cfg.Events.ReadTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideEventPublisher creates the job lifecycle event publisher.
func ProvideEventPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.EventPublisher {
	if producer == nil {
		return internalrepo.NopEventPublisher{}
	}
	return internalrepo.NewKafkaEventPublisher(producer, cfg.Events.Topic)
}

// ProvideDatasetCache creates the TTL cache for parsed datasets.
func ProvideDatasetCache() cache.Service {
	return cache.NewMemoryCache(cache.WithMaxSize(64))
}

// ProvideDatasetStore creates the filesystem dataset store.
func ProvideDatasetStore(cfg *config.Config, c cache.Service) repository.DatasetStore {
	return internalrepo.NewFSDatasetStore(cfg.Datasets.Dir, c, cfg.Datasets.CacheTTL)
}

// ProvideJobStore creates the configured job store backend.
func ProvideJobStore(cfg *config.Config) (repository.JobStore, error) {
	switch cfg.Jobs.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Jobs.Redis.Addr,
			Password: cfg.Jobs.Redis.Password,
			DB:       cfg.Jobs.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		return internalrepo.NewRedisJobStore(client, cfg.Jobs.Redis.KeyPrefix), nil
	default:
		return internalrepo.NewMemoryJobStore(), nil
	}
}

// ProvideRegistryStore creates the model registry store.
func ProvideRegistryStore() repository.RegistryStore {
	return internalrepo.NewMemoryRegistryStore()
}

// ProvideModelStore creates the filesystem artifact store.
func ProvideModelStore(cfg *config.Config) (training.ArtifactStore, error) {
	return internalrepo.NewFSModelStore(cfg.Models.Dir)
}

// ProvideEngine creates the scoring engine.
func ProvideEngine(
	modelCache *registry.Cache,
	normalizer *features.Normalizer,
	m repository.Metrics,
	predLog repository.PredictionLog,
	log *applogger.Logger,
) *scoring.Engine {
	return scoring.NewEngine(modelCache, normalizer, m, predLog, log)
}

// ProvideOrchestrator creates the training orchestrator.
func ProvideOrchestrator(
	jobs repository.JobStore,
	entries repository.RegistryStore,
	datasets repository.DatasetStore,
	artifacts training.ArtifactStore,
	modelCache *registry.Cache,
	events repository.EventPublisher,
	m repository.Metrics,
	log *applogger.Logger,
) *training.Orchestrator {
	return training.NewOrchestrator(jobs, entries, datasets, artifacts, modelCache, events, m, log)
}

// ProvideHTTPHandler combines the API handlers.
func ProvideHTTPHandler(log *applogger.Logger, engine *scoring.Engine, orch *training.Orchestrator) xhttp.Handler {
	return api.NewRouter(
		api.NewScoringEchoHandler(log, engine),
		api.NewTrainingEchoHandler(log, orch),
	)
}

// ProvideApp creates the application.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	handler xhttp.Handler,
	orch *training.Orchestrator,
	chClient *pkgch.Client,
	producer *pkgkafka.Producer,
	datasetCache cache.Service,
) *server.App {
	return server.New(cfg, log, handler, orch, chClient, producer, datasetCache)
}
