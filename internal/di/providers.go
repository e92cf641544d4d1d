package di

import (
	"context"
	"fmt"
	"time"

	"HerdPulse/internal/domain/repository"
	domsvc "HerdPulse/internal/domain/service"
	"HerdPulse/internal/handler/api"
	"HerdPulse/internal/middleware"
	internalrepo "HerdPulse/internal/repository"
	"HerdPulse/internal/service/cache"
	"HerdPulse/internal/service/ratelimit"
	"HerdPulse/internal/services/analytics"
	"HerdPulse/internal/usecase"
	pkgch "HerdPulse/pkg/clickhouse"
	"HerdPulse/pkg/config"
	xhttp "HerdPulse/pkg/http"
	pkgkafka "HerdPulse/pkg/kafka"
	applogger "HerdPulse/pkg/logger"
	"HerdPulse/pkg/metrics"
	"HerdPulse/pkg/server"
)

// ProvideLogger builds the process logger from the log section.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideClickHouseClient connects only when storage.driver is clickhouse.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, func(), error) {
	if cfg.Storage.Driver != "clickhouse" {
		return nil, func() {}, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithAddr(cfg.ClickHouse.Host, cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithPool(10, 5, 0),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, func() { _ = client.Close() }, nil
}

// ProvideYieldStore opens the configured backend and ensures its schema.
func ProvideYieldStore(cfg *config.Config, ch *pkgch.Client, l *applogger.Logger) (repository.YieldStore, func(), error) {
	var store repository.YieldStore
	switch cfg.Storage.Driver {
	case "clickhouse":
		s := internalrepo.NewCHHistoryStore(ch)
		s.SetLogger(l)
		store = s
	default:
		s, err := internalrepo.NewSQLiteHistoryStore(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite store: %w", err)
		}
		s.SetLogger(l)
		store = s
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("%s schema: %w", cfg.Storage.Driver, err)
	}
	return store, func() { _ = store.Close() }, nil
}

// ProvideKafkaProducer is nil unless records or log digests go to Kafka.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if cfg.Ingest.Backend != usecase.BackendKafka && !cfg.Log.Digest.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithDelivery(cfg.Kafka.RequiredAcks, cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithKeyPartitioning(true),
	)
	if err != nil {
		return nil, fmt.Errorf("provide producer: %w", err)
	}
	return producer, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideYieldPublisher is nil when no producer was built. Records the broker
// rejects wait in a PublishBuffer until a retry succeeds.
func ProvideYieldPublisher(producer *pkgkafka.Producer, cfg *config.Config, m repository.Metrics, l *applogger.Logger) repository.Publisher {
	if producer == nil {
		return nil
	}
	buf := middleware.NewPublishBuffer(
		internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic),
		m,
		middleware.WithBufferSize(cfg.Kafka.Producer.BufferSize),
		middleware.WithBufferLogger(l),
	)
	buf.Start(context.Background())
	return buf
}

// ProvideLogDigest attaches a Kafka-backed digest to the logger when enabled.
func ProvideLogDigest(cfg *config.Config, producer *pkgkafka.Producer, l *applogger.Logger) *applogger.Digest {
	if !cfg.Log.Digest.Enabled || producer == nil {
		return nil
	}
	d := applogger.NewDigest(applogger.DigestConfig{
		Interval:   cfg.Log.Digest.Interval,
		MaxEntries: cfg.Log.Digest.MaxEntries,
		Sink:       internalrepo.NewKafkaDigestSink(producer, cfg.Log.Digest.Topic, "herdpulse-api"),
	})
	l.AttachDigest(d)
	return d
}

// ProvideKafkaConsumer is nil unless kafka.consumer.enabled.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Consumer.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.SetLogger(l)
	consumer.WithConsumerHook(pkgkafka.NewHookChain(
		pkgkafka.TraceHook(),
		pkgkafka.RejectEmptyHook(),
		pkgkafka.LoggingHook(l),
	))
	return consumer, nil
}

// ProvideKafkaYieldsHandler stores records consumed from the yields topic.
func ProvideKafkaYieldsHandler(cfg *config.Config, store repository.YieldStore, m repository.Metrics) *usecase.KafkaYieldsHandler {
	return usecase.NewKafkaYieldsHandler(cfg.Kafka.Topic, store, m)
}

// ProvideForecastStrategy picks the forecaster named in analytics.forecast_strategy.
func ProvideForecastStrategy(cfg *config.Config) (domsvc.ForecastStrategy, error) {
	return analytics.NewForecastStrategy(cfg.Analytics.ForecastStrategy)
}

// ProvideHerdAnalytics assembles the engine over the store.
func ProvideHerdAnalytics(store repository.YieldStore, forecast domsvc.ForecastStrategy, cfg *config.Config, l *applogger.Logger) *usecase.HerdAnalytics {
	trend := analytics.NewLinearTrend()
	a := usecase.NewHerdAnalytics(
		store,
		trend,
		forecast,
		analytics.NewZScoreDetector(),
		analytics.NewHerdClassifier(trend),
		analytics.NewRuleEngine(),
		analytics.NewRevenueForecaster(cfg.Analytics.DefaultUnitPrice),
	)
	a.SetLogger(l)
	return a
}

func ProvideInsights(a *usecase.HerdAnalytics, cfg *config.Config) *usecase.InsightsUseCase {
	return usecase.NewInsightsUseCase(a, cfg.Analytics.Timeout)
}

// ProvideBytesCache uses Redis when enabled, else an in-process TTL cache.
func ProvideBytesCache(cfg *config.Config) (cache.BytesCache, func()) {
	if cfg.Analytics.Redis.Enabled {
		rc := cache.NewRedisCache(cache.RedisConfig{
			Addr:     cfg.Analytics.Redis.Addr,
			Password: cfg.Analytics.Redis.Password,
			DB:       cfg.Analytics.Redis.DB,
		})
		return rc, func() { _ = rc.Close() }
	}
	return cache.NewTTLCache(), func() {}
}

func ProvideMemo(c cache.BytesCache, cfg *config.Config) *cache.Memo {
	return cache.NewMemo(c, cfg.Analytics.CacheTTL)
}

func ProvideLimiter(cfg *config.Config) *ratelimit.Limiter {
	capacity, refill := cfg.Server.RateLimit.Capacity, cfg.Server.RateLimit.RefillPerSec
	if capacity <= 0 {
		capacity = 30
	}
	if refill <= 0 {
		refill = 5
	}
	return ratelimit.New(capacity, refill)
}

// ProvideYieldProcessor routes POST /api/yields to the configured ingest backend.
func ProvideYieldProcessor(pub repository.Publisher, store repository.YieldStore, m repository.Metrics, cfg *config.Config) *usecase.YieldProcessor {
	return usecase.NewYieldProcessor(pub, store, m, cfg.Ingest.Backend)
}

// ProvideHTTPHandler groups the API routes; analytics reads are rate limited.
func ProvideHTTPHandler(
	l *applogger.Logger,
	a *usecase.HerdAnalytics,
	insights *usecase.InsightsUseCase,
	memo *cache.Memo,
	proc *usecase.YieldProcessor,
	limiter *ratelimit.Limiter,
) xhttp.Handler {
	return xhttp.Handlers{
		api.NewAnalyticsEchoHandler(l, a, insights, memo, ratelimit.Middleware(limiter, ratelimit.OwnerOrIP)),
		api.NewYieldsEchoHandler(l, proc),
	}
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	store repository.YieldStore,
	handler xhttp.Handler,
	proc *usecase.YieldProcessor,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaYieldsHandler,
	digest *applogger.Digest,
	limiter *ratelimit.Limiter,
	c cache.BytesCache,
) *server.App {
	app := server.New(cfg, l, store, handler, proc)
	if consumer != nil {
		app.SetConsumer(consumer, kh)
	}
	app.SetDigest(digest)
	app.AddJanitor(func() int { return limiter.Sweep(10 * time.Minute) })
	if ttl, ok := c.(*cache.TTLCache); ok {
		app.AddJanitor(ttl.Sweep)
	}
	return app
}
