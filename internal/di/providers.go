package di

import (
	"context"
	"fmt"
	"io"
	"time"

	domrepo "LPQuant/internal/domain/repository"
	"LPQuant/internal/handler/api"
	internalrepo "LPQuant/internal/repository"
	svcmetrics "LPQuant/internal/service/metrics"
	"LPQuant/internal/service/ratelimit"
	"LPQuant/internal/service/sui"
	"LPQuant/internal/services/indexer"
	"LPQuant/internal/services/strategy"
	"LPQuant/internal/services/volatility"
	"LPQuant/internal/usecase"
	"LPQuant/pkg/cache"
	pkgch "LPQuant/pkg/clickhouse"
	"LPQuant/pkg/config"
	xhttp "LPQuant/pkg/http"
	pkgkafka "LPQuant/pkg/kafka"
	applogger "LPQuant/pkg/logger"
	"LPQuant/pkg/metrics"
	"LPQuant/pkg/server"

	"github.com/prometheus/client_golang/prometheus"
)

const initTimeout = 10 * time.Second

// Registry pairs the registerer collectors go to with the gatherer /metrics
// serves. pkg/kafka registers on the default registry, so both default too.
type Registry struct {
	prometheus.Registerer
	prometheus.Gatherer
}

func ProvideRegistry() Registry {
	return Registry{Registerer: prometheus.DefaultRegisterer, Gatherer: prometheus.DefaultGatherer}
}

func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideIngestMetrics creates the indexer metrics recorder.
func ProvideIngestMetrics(reg Registry) domrepo.Metrics {
	return metrics.New(reg.Registerer)
}

func ProvideEngineMetrics(reg Registry) *svcmetrics.Engine {
	return svcmetrics.NewEngine(reg.Registerer)
}

// ProvideSwapStore opens the store named by backend.store and ensures its
// schema.
func ProvideSwapStore(cfg *config.Config, l *applogger.Logger) (domrepo.SwapStore, func(), error) {
	var store domrepo.SwapStore
	switch cfg.Backend.Store {
	case usecase.BackendClickHouse:
		client, err := pkgch.NewClient(
			pkgch.WithHost(cfg.ClickHouse.Host),
			pkgch.WithPort(cfg.ClickHouse.Port),
			pkgch.WithDatabase(cfg.ClickHouse.Database),
			pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
			pkgch.WithMaxConnections(10, 5),
			pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
			pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
			pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.ReadTimeout),
			pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("clickhouse client: %w", err)
		}
		ch := internalrepo.NewClickHouseStore(client, cfg.ClickHouse.Database)
		ch.SetLogger(l)
		store = ch
	default:
		sq, err := internalrepo.NewSQLiteStore(cfg.SQLite.Path, cfg.SQLite.BusyTimeout)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite store: %w", err)
		}
		sq.SetLogger(l)
		store = sq
	}

	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("init %s store: %w", cfg.Backend.Store, err)
	}
	l.Info("swap store ready", applogger.String("store", cfg.Backend.Store))

	cleanup := func() {
		if err := store.Close(); err != nil {
			l.Warn("swap store close failed", applogger.Error(err))
		}
	}
	return store, cleanup, nil
}

// ProvideCache returns the bars cache, or nil when caching is disabled.
func ProvideCache(cfg *config.Config, l *applogger.Logger) (cache.Service, func(), error) {
	if !cfg.Cache.Enabled {
		return nil, func() {}, nil
	}

	var svc cache.Service
	switch cfg.Cache.Type {
	case "redis", "layered":
		r := cfg.Cache.Redis
		rc, err := cache.NewRedisCache(
			cache.WithRedisAddr(r.Addr),
			cache.WithRedisAuth(r.Password, r.DB),
			cache.WithRedisPool(r.PoolSize, r.MinIdleConns, r.PoolTimeout),
			cache.WithRedisPrefix(r.Prefix),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("redis cache: %w", err)
		}
		svc = rc
		if cfg.Cache.Type == "layered" {
			svc = cache.NewLayeredCache(rc, cache.WithLayeredMemory(cfg.Cache.MaxSize, cfg.Cache.L1TTL))
		}
	default:
		svc = cache.NewMemoryCache(cache.WithMemoryMaxSize(cfg.Cache.MaxSize))
	}
	l.Info("bars cache ready", applogger.String("type", cfg.Cache.Type), applogger.Duration("ttl", cfg.Cache.TTL))

	cleanup := func() {
		if c, ok := svc.(io.Closer); ok {
			if err := c.Close(); err != nil {
				l.Warn("cache close failed", applogger.Error(err))
			}
		}
	}
	return svc, cleanup, nil
}

func ProvideBarsUseCase(store domrepo.SwapStore, cfg *config.Config, c cache.Service, l *applogger.Logger) *usecase.BarsUseCase {
	return usecase.NewBarsUseCase(store, cfg, c, cfg.Cache.TTL, l)
}

// ProvideBarBuilder locks bar writes per pool through the cache when one is
// configured. With a Redis backed cache the CLI rebuild and the poller share
// the lock.
func ProvideBarBuilder(store domrepo.SwapStore, bars *usecase.BarsUseCase, c cache.Service, cfg *config.Config, l *applogger.Logger) *usecase.BarBuilder {
	var opts []usecase.BarBuilderOption
	if c != nil {
		opts = append(opts, usecase.WithPoolLocker(c, cfg.Cache.LockWait))
	}
	return usecase.NewBarBuilder(store, bars, l, opts...)
}

// ProvidePublisher builds the Kafka publisher when the poller writes to
// Kafka. Other backends get a nil publisher.
func ProvidePublisher(cfg *config.Config) (domrepo.Publisher, func(), error) {
	if cfg.Backend.Type != usecase.BackendKafka {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithWriteTimeout(cfg.Kafka.Producer.WriteTimeout),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	pub := internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic)
	return pub, func() { _ = pub.Close() }, nil
}

func ProvideSwapProcessor(
	pub domrepo.Publisher,
	store domrepo.SwapStore,
	builder *usecase.BarBuilder,
	m domrepo.Metrics,
	cfg *config.Config,
	l *applogger.Logger,
) *usecase.SwapProcessor {
	return usecase.NewSwapProcessor(pub, store, builder, m, cfg.Backend.Type, l)
}

func ProvideEventSource(cfg *config.Config) domrepo.EventSource {
	return sui.NewClient(cfg)
}

func ProvideSwapPoller(
	source domrepo.EventSource,
	store domrepo.SwapStore,
	proc *usecase.SwapProcessor,
	m domrepo.Metrics,
	cfg *config.Config,
	l *applogger.Logger,
) *usecase.SwapPoller {
	return usecase.NewSwapPoller(source, store, proc,
		indexer.PoolsFromConfig(cfg.Indexer.Pools),
		usecase.PollerOptions{
			EventType: cfg.Indexer.EventType,
			PageSize:  cfg.Indexer.PageSize,
			Interval:  cfg.Indexer.PollInterval,
			Backfill:  cfg.Indexer.Backfill,
		},
		m, l)
}

// ProvideKafkaConsumer returns a consumer that persists published swaps, or
// nil when kafka.consumer.enabled is off.
func ProvideKafkaConsumer(cfg *config.Config, proc *usecase.SwapProcessor, m domrepo.Metrics, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Consumer.Enabled {
		return nil, nil
	}
	c := cfg.Kafka.Consumer
	consumer, err := pkgkafka.NewConsumer(l,
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(c.GroupID),
		pkgkafka.WithConsumerWorkers(c.Workers),
		pkgkafka.WithConsumerBufferSize(c.BufferSize),
		pkgkafka.WithConsumerRetry(c.RetryMax, c.BackoffMin, c.BackoffMax),
		pkgkafka.WithConsumerDLQ(c.DLQTopic),
		pkgkafka.WithConsumerFetch(c.MinBytes, c.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.RegisterHandler(usecase.NewKafkaSwapsHandler(cfg.Kafka.Topic, proc, m))
	return consumer, nil
}

func ProvideStrategies(cfg *config.Config) *strategy.Registry {
	return strategy.NewRegistry(cfg.Engine.DefaultStrategy,
		strategy.NewPatternStrategy(),
		strategy.NewSigmaStrategy(volatility.New(cfg.Engine.AnnualizeFactor)),
	)
}

func ProvideRecommendUseCase(
	strategies *strategy.Registry,
	bars *usecase.BarsUseCase,
	m *svcmetrics.Engine,
	cfg *config.Config,
	l *applogger.Logger,
) *usecase.RecommendUseCase {
	return usecase.NewRecommendUseCase(strategies, bars, m, usecase.RecommendConfig{
		AnnualizeFactor:    cfg.Engine.AnnualizeFactor,
		DefaultProfile:     cfg.Engine.DefaultProfile,
		DefaultHorizonDays: cfg.Engine.DefaultHorizonDays,
		DefaultCapitalUSD:  cfg.Engine.DefaultCapitalUSD,
		MaxKlines:          cfg.Engine.MaxKlines,
	}, l)
}

func ProvideHTTPServer(
	cfg *config.Config,
	l *applogger.Logger,
	reg Registry,
	store domrepo.SwapStore,
	recommend *usecase.RecommendUseCase,
	bars *usecase.BarsUseCase,
) *xhttp.Server {
	handlers := xhttp.Handlers{
		api.NewHealthHandler(map[string]api.Pinger{cfg.Backend.Store: store}),
		api.NewRecommendHandler(l, recommend),
		api.NewPoolsHandler(l, cfg.Indexer.Pools, bars),
	}

	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORSOrigins(cfg.Server.CORSOrigins...),
		xhttp.WithMetrics(reg.Registerer, reg.Gatherer, metricsPath),
		xhttp.WithLogger(l),
	}
	if cfg.RateLimit.Enabled {
		opts = append(opts, xhttp.WithRateLimiter(ratelimit.New(cfg.RateLimit.Capacity, cfg.RateLimit.RefillPerSec)))
	}
	return xhttp.NewServer(handlers, opts...)
}

func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	srv *xhttp.Server,
	poller *usecase.SwapPoller,
	consumer *pkgkafka.Consumer,
) *server.App {
	if !cfg.Indexer.Enabled {
		poller = nil
	}
	return server.New(cfg, l, srv, poller, consumer)
}

// Indexer bundles what the indexer CLI needs.
type Indexer struct {
	Config  *config.Config
	Log     *applogger.Logger
	Store   domrepo.SwapStore
	Poller  *usecase.SwapPoller
	Builder *usecase.BarBuilder
}

func ProvideIndexer(
	cfg *config.Config,
	l *applogger.Logger,
	store domrepo.SwapStore,
	poller *usecase.SwapPoller,
	builder *usecase.BarBuilder,
) *Indexer {
	return &Indexer{Config: cfg, Log: l, Store: store, Poller: poller, Builder: builder}
}
