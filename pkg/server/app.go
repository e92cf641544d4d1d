package server

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"HerdPulse/internal/domain/repository"
	"HerdPulse/internal/usecase"
	"HerdPulse/pkg/config"
	xhttp "HerdPulse/pkg/http"
	pkgkafka "HerdPulse/pkg/kafka"
	applogger "HerdPulse/pkg/logger"
)

const janitorInterval = time.Minute

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	log         *applogger.Logger
	store       repository.YieldStore
	httpHandler xhttp.Handler
	httpServer  *xhttp.Server
	proc        *usecase.YieldProcessor
	consumer    *pkgkafka.Consumer
	kh          pkgkafka.MessageHandler
	digest      *applogger.Digest
	janitors    []func() int
	wg          sync.WaitGroup
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	store repository.YieldStore,
	handler xhttp.Handler,
	proc *usecase.YieldProcessor,
) *App {
	if l == nil {
		l = applogger.Nop()
	}
	return &App{
		cfg:         cfg,
		log:         l,
		store:       store,
		httpHandler: handler,
		proc:        proc,
	}
}

// SetConsumer enables the Kafka ingest consumer.
func (a *App) SetConsumer(c *pkgkafka.Consumer, kh pkgkafka.MessageHandler) {
	a.consumer = c
	a.kh = kh
}

// SetDigest hands the log digest to the app so it is flushed on shutdown.
func (a *App) SetDigest(d *applogger.Digest) { a.digest = d }

// AddJanitor registers a periodic cleanup that returns how many items it dropped.
func (a *App) AddJanitor(fn func() int) {
	a.janitors = append(a.janitors, fn)
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext serves until ctx is cancelled, then shuts down.
func (a *App) RunContext(ctx context.Context) error {
	metricsPath := ""
	if a.cfg.Metrics.Enabled {
		metricsPath = a.cfg.Metrics.Path
	}
	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithHost(a.cfg.Server.Host),
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithSlowThreshold(a.cfg.Server.SlowThreshold),
		xhttp.WithCORS(a.cfg.Server.CORSOrigins...),
		xhttp.WithMetricsPath(metricsPath),
		xhttp.WithLogger(a.log),
		xhttp.WithHealthCheck(a.store.Health),
	)

	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		if err := a.consumer.Start(); err != nil {
			a.log.Error("kafka consumer start error", applogger.Error(err))
			return err
		}
		a.log.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("herdpulse started",
		applogger.String("storage", a.cfg.Storage.Driver),
		applogger.String("ingest", a.proc.Backend()),
		applogger.String("forecast", a.cfg.Analytics.ForecastStrategy),
	)

	janitorCtx, cancel := context.WithCancel(ctx)
	a.wg.Add(1)
	go a.runJanitors(janitorCtx)

	<-ctx.Done()
	cancel()
	a.wg.Wait()

	a.log.Info("shutdown signal received")
	return a.shutdown()
}

func (a *App) runJanitors(ctx context.Context) {
	defer a.wg.Done()
	if len(a.janitors) == 0 {
		return
	}
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			dropped := 0
			for _, fn := range a.janitors {
				dropped += fn()
			}
			if dropped > 0 {
				a.log.Debug("janitor sweep", applogger.Int("dropped", dropped))
			}
		}
	}
}

// shutdown stops intake first, then flushes and closes outputs.
func (a *App) shutdown() error {
	ctx := context.Background()

	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		stopCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout+time.Second)
		if err := a.consumer.Stop(stopCtx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
		cancel()
	}

	// the digest shares the producer with the publisher, so it goes first
	if a.digest != nil {
		a.digest.Close()
	}
	if a.proc != nil {
		a.proc.Close()
	}

	a.log.Info("shutdown complete")
	return nil
}
