//go:build wireinject
// +build wireinject

package di

import (
	"LPQuant/pkg/config"
	"LPQuant/pkg/server"

	"github.com/google/wire"
)

var storageSet = wire.NewSet(
	ProvideLogger,
	ProvideRegistry,
	ProvideIngestMetrics,
	ProvideSwapStore,
	ProvideCache,
	ProvideBarsUseCase,
	ProvideBarBuilder,
)

var ingestSet = wire.NewSet(
	ProvidePublisher,
	ProvideSwapProcessor,
	ProvideEventSource,
	ProvideSwapPoller,
)

// InitializeApp wires the HTTP service together with the indexer and Kafka
// consumer it may run.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		storageSet,
		ingestSet,
		ProvideKafkaConsumer,
		ProvideEngineMetrics,
		ProvideStrategies,
		ProvideRecommendUseCase,
		ProvideHTTPServer,
		ProvideApp,
	)
	return nil, nil, nil
}

// InitializeIndexer wires the store and ingestion path for the indexer CLI.
func InitializeIndexer(cfg *config.Config) (*Indexer, func(), error) {
	wire.Build(
		storageSet,
		ingestSet,
		ProvideIndexer,
	)
	return nil, nil, nil
}
