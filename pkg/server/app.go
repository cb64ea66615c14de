package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"FraudSight/internal/training"
	"FraudSight/pkg/cache"
	pkgch "FraudSight/pkg/clickhouse"
	"FraudSight/pkg/config"
	xhttp "FraudSight/pkg/http"
	pkgkafka "FraudSight/pkg/kafka"
	applogger "FraudSight/pkg/logger"
)

// App owns the process lifecycle: it starts the HTTP server, waits for
// a shutdown signal, then stops the orchestrator and closes the
// infrastructure clients in order.
type App struct {
	cfg          *config.Config
	log          *applogger.Logger
	httpHandler  xhttp.Handler
	httpServer   *xhttp.Server
	orchestrator *training.Orchestrator

	// Optional clients, nil when the matching feature is disabled.
	chClient     *pkgch.Client
	producer     *pkgkafka.Producer
	datasetCache cache.Service
}

// New creates an App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	handler xhttp.Handler,
	orchestrator *training.Orchestrator,
	chClient *pkgch.Client,
	producer *pkgkafka.Producer,
	datasetCache cache.Service,
) *App {
	return &App{
		cfg:          cfg,
		log:          log,
		httpHandler:  handler,
		orchestrator: orchestrator,
		chClient:     chClient,
		producer:     producer,
		datasetCache: datasetCache,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("fraudsight started",
		applogger.String("environment", a.cfg.Environment),
		applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown stops accepting requests, lets running training jobs wind
// down, then closes clients.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if err := a.orchestrator.Shutdown(ctx); err != nil {
		a.log.Warn("training jobs still running at shutdown", applogger.Error(err))
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.log.Warn("kafka producer close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}
	if a.datasetCache != nil {
		if err := a.datasetCache.Close(); err != nil {
			a.log.Warn("dataset cache close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
