//go:build wireinject
// +build wireinject

package di

import (
	"SignalWatch/pkg/config"
	"SignalWatch/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Observability
		ProvideLogger,
		ProvideRegistry,
		ProvideMetrics,
		ProvideEndpointMetrics,

		// Infrastructure clients
		ProvideCache,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideClickHouseClient,

		// Repositories and external services
		ProvideDedupStore,
		ProvideSignalStore,
		ProvideHistoryStore,
		ProvideIndicatorSource,
		ProvideNotifier,
		ProvideQuoteSource,

		// Use cases
		ProvideRulesEngine,
		ProvideCycleRecorder,
		ProvideEvaluationCycle,
		ProvideScheduler,
		ProvideKafkaReportsHandler,
		ProvideMarketService,

		// HTTP
		ProvideRateLimiter,
		ProvideSignalsHandler,
		ProvideMarketHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
