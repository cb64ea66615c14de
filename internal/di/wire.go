//go:build wireinject
// +build wireinject

package di

import (
	"FraudSight/pkg/config"
	"FraudSight/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Scoring pipeline
		ProvideNormalizer,
		ProvideModelCache,
		ProvideClickHouseClient,
		ProvidePredictionLog,
		ProvideEngine,

		// Training pipeline
		ProvideDatasetCache,
		ProvideDatasetStore,
		ProvideJobStore,
		ProvideRegistryStore,
		ProvideModelStore,
		ProvideKafkaProducer,
		ProvideEventPublisher,
		ProvideOrchestrator,

		// HTTP surface and application
		ProvideHTTPHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
