package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"SignalWatch/internal/service/ratelimit"
	"SignalWatch/internal/usecase"
	"SignalWatch/pkg/cache"
	pkgch "SignalWatch/pkg/clickhouse"
	"SignalWatch/pkg/config"
	xhttp "SignalWatch/pkg/http"
	pkgkafka "SignalWatch/pkg/kafka"
	applogger "SignalWatch/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
)

const limiterIdle = 10 * time.Minute

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	registry   *prometheus.Registry
	scheduler  *usecase.Scheduler
	limiter    *ratelimit.Limiter
	cache      cache.Service
	producer   *pkgkafka.Producer
	consumer   *pkgkafka.Consumer
	kh         pkgkafka.MessageHandler
	chClient   *pkgch.Client
	handlers   []xhttp.Handler
	httpServer *xhttp.Server
}

// New creates a new App instance with its core dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	reg *prometheus.Registry,
	scheduler *usecase.Scheduler,
	limiter *ratelimit.Limiter,
	c cache.Service,
) *App {
	return &App{
		cfg:       cfg,
		logger:    l,
		registry:  reg,
		scheduler: scheduler,
		limiter:   limiter,
		cache:     c,
	}
}

// SetHandlers sets the route groups served over HTTP.
func (a *App) SetHandlers(hs ...xhttp.Handler) { a.handlers = append(a.handlers, hs...) }

// SetKafka attaches the optional producer and consumer. Either may be nil.
func (a *App) SetKafka(p *pkgkafka.Producer, c *pkgkafka.Consumer) {
	a.producer, a.consumer = p, c
}

func (a *App) SetReportsHandler(h pkgkafka.MessageHandler) { a.kh = h }

func (a *App) SetClickHouse(c *pkgch.Client) { a.chClient = c }

// Run starts the application and blocks until interrupted or the HTTP server fails.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := a.logger
	if a.cfg.Log.Collect.Enabled && a.producer != nil {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   a.cfg.Log.Collect.Interval,
			CountThreshold: a.cfg.Log.Collect.Threshold,
			Topic:          a.cfg.Log.Collect.Topic,
			Publisher:      a.producer,
		})
		l.Info("log collector enabled", applogger.String("topic", a.cfg.Log.Collect.Topic))
	}

	a.httpServer = xhttp.NewServer(l, a.handlers,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithSlowThreshold(a.cfg.Server.SlowThreshold),
		xhttp.WithRegistry(a.registry),
	)

	a.scheduler.Start(ctx)
	go a.sweepLimiter(ctx)

	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(ctx); err != nil {
				l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var runErr error
	select {
	case <-sigCh:
		l.Info("shutdown signal received")
	case runErr = <-a.httpServer.Errors():
		l.Error("http server failed", applogger.Error(runErr))
	}

	cancel()
	a.shutdown()
	return runErr
}

func (a *App) sweepLimiter(ctx context.Context) {
	ticker := time.NewTicker(limiterIdle)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.limiter.Sweep(limiterIdle); n > 0 {
				a.logger.Debug("rate limiter swept", applogger.Int("buckets", n))
			}
		}
	}
}

// shutdown stops intake first, then the scheduler, then closes clients.
func (a *App) shutdown() {
	l := a.logger
	l.Info("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(ctx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}
	if err := a.scheduler.Shutdown(ctx); err != nil {
		l.Warn("scheduler stop error", applogger.Error(err))
	}
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// flushes pending aggregated logs through the producer
	l.RemoveCollector()

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			l.Warn("kafka producer close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}
	if err := a.cache.Close(); err != nil {
		l.Warn("cache close error", applogger.Error(err))
	}

	l.Info("shutdown complete")
}
