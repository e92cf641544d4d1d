//go:build wireinject
// +build wireinject

package di

import (
	"HerdPulse/pkg/config"
	"HerdPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideBytesCache,

		// Repositories
		ProvideYieldStore,
		ProvideYieldPublisher,
		ProvideLogDigest,

		// Analytics and ingest
		ProvideForecastStrategy,
		ProvideHerdAnalytics,
		ProvideInsights,
		ProvideMemo,
		ProvideLimiter,
		ProvideYieldProcessor,
		ProvideKafkaYieldsHandler,

		// HTTP and application server
		ProvideHTTPHandler,
		ProvideApp,
	)
	return nil, nil, nil
}
