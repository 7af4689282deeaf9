package di

import (
	"context"
	"fmt"
	"time"

	"SignalWatch/internal/domain/repository"
	"SignalWatch/internal/handler/api"
	internalrepo "SignalWatch/internal/repository"
	"SignalWatch/internal/service/line"
	"SignalWatch/internal/service/market"
	svcmetrics "SignalWatch/internal/service/metrics"
	"SignalWatch/internal/service/ratelimit"
	"SignalWatch/internal/service/twse"
	"SignalWatch/internal/services/indicators"
	"SignalWatch/internal/services/rules"
	"SignalWatch/internal/usecase"
	"SignalWatch/pkg/cache"
	pkgch "SignalWatch/pkg/clickhouse"
	"SignalWatch/pkg/config"
	pkgkafka "SignalWatch/pkg/kafka"
	applogger "SignalWatch/pkg/logger"
	"SignalWatch/pkg/metrics"
	"SignalWatch/pkg/server"
	"SignalWatch/pkg/util"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// ProvideLogger builds the application logger from the log section.
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

// ProvideRegistry returns a private registry carrying the Go and process collectors.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(reg *prometheus.Registry) repository.Metrics {
	return metrics.New(reg)
}

func ProvideEndpointMetrics(reg *prometheus.Registry) *svcmetrics.Endpoints {
	return svcmetrics.NewEndpoints(reg)
}

// ProvideCache connects the key/value store backing dedup and the published set.
func ProvideCache(cfg *config.Config) (cache.Service, error) {
	if cfg.Store.Backend == "memory" {
		return cache.NewMemoryCache(), nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Store.Addr),
		cache.WithRedisPassword(cfg.Store.Password),
		cache.WithRedisDB(cfg.Store.DB),
		cache.WithRedisPrefix(cfg.Store.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	return rc, nil
}

func ProvideDedupStore(c cache.Service) repository.DedupStore {
	return internalrepo.NewDedupStore(c)
}

func ProvideSignalStore(c cache.Service) repository.SignalStore {
	return internalrepo.NewSignalStore(c)
}

// ProvideIndicatorSource picks the simulated or remote indicator feed.
func ProvideIndicatorSource(cfg *config.Config) repository.IndicatorSource {
	if cfg.Indicators.Source == "http" {
		return indicators.NewHTTPSource(cfg.Indicators.URL, cfg.Indicators.Timeout)
	}
	seed := cfg.Indicators.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return indicators.NewSimulatedSource(seed)
}

func ProvideRulesEngine(cfg *config.Config) *rules.Engine {
	return rules.NewEngine(cfg.Signals.EquityETFs, cfg.Signals.BondETFs)
}

// ProvideNotifier creates the LINE push client. Credentials are re-read from the
// environment on every send.
func ProvideNotifier(cfg *config.Config, l *applogger.Logger) repository.Notifier {
	return line.NewClient(l, cfg.Line.Timeout,
		line.WithEndpoint(cfg.Line.Endpoint),
		line.WithCredentials(cfg.Line.ChannelAccessToken, cfg.Line.UserID),
	)
}

// ProvideKafkaProducer creates a Kafka producer, or nil when no brokers are configured.
func ProvideKafkaProducer(cfg *config.Config, reg *prometheus.Registry) (*pkgkafka.Producer, error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(reg,
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithWriteTimeout(cfg.Kafka.WriteTimeout),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideClickHouseClient connects and creates the history table, or returns nil when
// no host is configured.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if cfg.ClickHouse.Host == "" {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := pkgch.NewClient(ctx,
		pkgch.WithAddr(cfg.ClickHouse.Host, cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(cfg.ClickHouse.MaxOpenConns, 2),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	if err := client.InitSchema(ctx, internalrepo.HistorySchema(cfg.History.Table)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideHistoryStore is nil without ClickHouse; the history route is then not served.
func ProvideHistoryStore(ch *pkgch.Client, cfg *config.Config, l *applogger.Logger) repository.HistoryStore {
	if ch == nil {
		return nil
	}
	return internalrepo.NewClickHouseHistoryStore(ch.DB(), cfg.History.Table, l)
}

// ProvideCycleRecorder routes cycle reports to the configured history backend.
func ProvideCycleRecorder(
	cfg *config.Config,
	producer *pkgkafka.Producer,
	history repository.HistoryStore,
	m repository.Metrics,
) *usecase.CycleRecorder {
	var sink repository.ReportSink
	switch cfg.History.Backend {
	case usecase.HistoryBackendKafka:
		if producer != nil {
			sink = internalrepo.NewKafkaReportPublisher(producer, cfg.Kafka.Topic)
		}
	case usecase.HistoryBackendClickHouse:
		if history != nil {
			sink = history
		}
	}
	return usecase.NewCycleRecorder(cfg.History.Backend, sink, m)
}

func ProvideEvaluationCycle(
	cfg *config.Config,
	source repository.IndicatorSource,
	engine *rules.Engine,
	dedup repository.DedupStore,
	notifier repository.Notifier,
	store repository.SignalStore,
	recorder *usecase.CycleRecorder,
	m repository.Metrics,
	l *applogger.Logger,
) *usecase.EvaluationCycle {
	return usecase.NewEvaluationCycle(source, engine, dedup, notifier, store, recorder, m, l,
		usecase.CycleOptions{
			Cooldown:    cfg.Signals.Cooldown,
			Retention:   cfg.Signals.Retention,
			SendTimeout: cfg.Line.Timeout,
			Timeout:     cfg.Scheduler.CycleTimeout,
			Policy:      usecase.ParseMarkPolicy(cfg.Signals.MarkPolicy),
		})
}

// ProvideScheduler always returns a scheduler so HTTP triggers are serialized; the
// interval is zero unless scheduling is enabled.
func ProvideScheduler(cfg *config.Config, cycle *usecase.EvaluationCycle, c cache.Service, l *applogger.Logger) *usecase.Scheduler {
	var interval time.Duration
	if cfg.Scheduler.Enabled {
		interval = cfg.Scheduler.Interval
	}
	return usecase.NewScheduler(cycle, c, l, interval, cfg.Scheduler.CycleTimeout, cfg.Scheduler.RunOnStart)
}

// ProvideKafkaConsumer creates the history consumer when enabled.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Consumer.Enabled || len(cfg.Kafka.Brokers) == 0 {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(l,
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return consumer, nil
}

// ProvideKafkaReportsHandler writes consumed reports to ClickHouse.
func ProvideKafkaReportsHandler(cfg *config.Config, history repository.HistoryStore, m repository.Metrics) *usecase.KafkaReportsHandler {
	if history == nil {
		return nil
	}
	return usecase.NewKafkaReportsHandler(cfg.Kafka.Topic, history, m)
}

func ProvideQuoteSource(cfg *config.Config, l *applogger.Logger) repository.QuoteSource {
	symbols := make([]twse.Symbol, len(cfg.Market.Symbols))
	for i, s := range cfg.Market.Symbols {
		symbols[i] = twse.Symbol{App: s.Symbol, Channel: s.Channel, Code: s.Code}
	}
	return twse.NewClient(l, cfg.Market.QuoteURL, cfg.Market.Timeout, symbols)
}

func ProvideMarketService(cfg *config.Config, quotes repository.QuoteSource, m repository.Metrics, l *applogger.Logger) (*usecase.MarketService, error) {
	session, err := util.NewTradingSession(cfg.Market.Location, 9*time.Hour, 13*time.Hour+30*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("trading session: %w", err)
	}
	symbols := make([]string, len(cfg.Market.Symbols))
	for i, s := range cfg.Market.Symbols {
		symbols[i] = s.Symbol
	}
	return usecase.NewMarketService(quotes, market.NewCache(symbols, cfg.Market.Index), session, m, l), nil
}

func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.RateLimit.Capacity, cfg.RateLimit.RefillPerSec)
}

func ProvideSignalsHandler(
	cfg *config.Config,
	l *applogger.Logger,
	scheduler *usecase.Scheduler,
	store repository.SignalStore,
	history repository.HistoryStore,
	rl *ratelimit.Limiter,
	m *svcmetrics.Endpoints,
) *api.SignalsEchoHandler {
	return api.NewSignalsEchoHandler(l, scheduler, store, history, cfg.Scheduler.TriggerToken, rl, m)
}

func ProvideMarketHandler(l *applogger.Logger, svc *usecase.MarketService, rl *ratelimit.Limiter, m *svcmetrics.Endpoints) *api.MarketEchoHandler {
	return api.NewMarketEchoHandler(l, svc, rl, m)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	reg *prometheus.Registry,
	signals *api.SignalsEchoHandler,
	marketHandler *api.MarketEchoHandler,
	scheduler *usecase.Scheduler,
	rl *ratelimit.Limiter,
	c cache.Service,
	producer *pkgkafka.Producer,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaReportsHandler,
	chClient *pkgch.Client,
) *server.App {
	app := server.New(cfg, l, reg, scheduler, rl, c)
	app.SetHandlers(signals, marketHandler)
	app.SetKafka(producer, consumer)
	if kh != nil {
		app.SetReportsHandler(kh)
	}
	app.SetClickHouse(chClient)
	return app
}
