package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/okian/vacancy/internal/adapters/http/api"
	"github.com/okian/vacancy/internal/adapters/http/swagger"
	"github.com/okian/vacancy/internal/adapters/repository"
	"github.com/okian/vacancy/internal/adapters/sink"
	service "github.com/okian/vacancy/internal/app"
	"github.com/okian/vacancy/internal/config"
	"github.com/okian/vacancy/internal/domain/preference"
	"github.com/okian/vacancy/internal/natsutil"
	"github.com/okian/vacancy/internal/population"
	"github.com/okian/vacancy/pkg/logger"
	"github.com/okian/vacancy/pkg/metrics"
	"github.com/okian/vacancy/pkg/tracing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 15 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	nanosecondsPerMillisecond = 1e6

	serviceName    = "vacancy"
	serviceVersion = "1.0.0"
)

func main() {
	// Our own system metrics replace the default Go collectors.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := configureLogging(cfg); err != nil {
		logger.Get().Warn(ctx, "invalid log_level; falling back to info",
			logger.String("log_level", cfg.LogLevel), logger.Error(err))
	}
	log := logger.Get()

	if cfg.TracingEnabled {
		if err := tracing.Init(serviceName, serviceVersion, cfg.TracingOutput); err != nil {
			log.Warn(ctx, "tracing disabled", logger.Error(err))
		}
		defer func() {
			if err := tracing.Shutdown(context.Background()); err != nil {
				log.Warn(ctx, "tracing shutdown failed", logger.Error(err))
			}
		}()
	}

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal(ctx, "allocation service failed", logger.Error(err))
	}
}

// configureLogging applies log_format and log_level to the global logger.
// An invalid level falls back to info and is returned.
func configureLogging(cfg *config.Config) error {
	if cfg.LogFormat == string(logger.FormatJSON) {
		if err := logger.InitWithWriter(os.Stdout, logger.FormatJSON); err != nil {
			return err
		}
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		_ = logger.SetLevelString("info")
		return err
	}
	return nil
}

// run serves the API until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	pop, err := population.LoadFile(ctx, cfg.PopulationFile)
	if err != nil {
		return err
	}
	log.Info(ctx, "population loaded",
		logger.String("file", cfg.PopulationFile),
		logger.Int("candidates", len(pop.Candidates)),
		logger.Int("slots", len(pop.Slots)),
	)

	ad, err := openAdapters(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer ad.Close()

	opts, err := serviceOptions(cfg, log, ad)
	if err != nil {
		return err
	}
	svc, err := service.New(pop, opts...)
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, cfg, svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return err
		}
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}

// newMux registers the API and its reference documentation.
func newMux(ctx context.Context, cfg *config.Config, deps api.Dependencies) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(deps, api.WithMaxLimit(cfg.MaxRosterLimit)).Register(ctx, mux)
	return mux
}

// adapters holds the backends opened from configuration. The service never
// closes them.
type adapters struct {
	store  repository.Store
	sinks  []sink.Sink
	cache  *repository.SQLiteStore
	nc     *nats.Conn
	logger logger.Logger
}

// openAdapters selects the preference store and the publication sinks:
// the log sink always, the SQLite cache when sqlite_path is set, and the
// NATS assignment bucket when the store is nats.
func openAdapters(ctx context.Context, cfg *config.Config, log logger.Logger) (*adapters, error) {
	ad := &adapters{logger: log}
	ad.sinks = append(ad.sinks, sink.NewLogSink(log.Named("sink")))

	if cfg.SQLitePath != "" {
		cache, err := repository.NewSQLiteStore(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		ad.cache = cache
		ad.sinks = append(ad.sinks, cache)
	}

	switch cfg.Store {
	case config.StoreSQLite:
		ad.store = ad.cache
	case config.StoreNATS:
		nc, js, err := natsutil.Connect(cfg.NATSURL, serviceName)
		if err != nil {
			ad.Close()
			return nil, err
		}
		ad.nc = nc
		kvStore, err := repository.NewKVStore(ctx, js, cfg.NATSPreferencesBucket)
		if err != nil {
			ad.Close()
			return nil, err
		}
		ad.store = kvStore
		if cfg.NATSAssignmentBucket != "" {
			kvSink, err := sink.NewKVSink(ctx, js, cfg.NATSAssignmentBucket, cfg.NATSAssignmentPrefix, log.Named("kv-sink"))
			if err != nil {
				ad.Close()
				return nil, err
			}
			ad.sinks = append(ad.sinks, kvSink)
		}
	default:
		ad.store = repository.NewMemoryStore()
	}

	log.Info(ctx, "adapters ready",
		logger.String("store", ad.store.Name()),
		logger.Int("sinks", len(ad.sinks)),
	)
	return ad, nil
}

func (a *adapters) combinedSink() sink.Sink {
	if len(a.sinks) == 1 {
		return a.sinks[0]
	}
	return sink.NewMulti(a.sinks...)
}

// Close releases every opened backend.
func (a *adapters) Close() {
	ctx := context.Background()
	if a.store != nil && a.store != repository.Store(a.cache) {
		if err := a.store.Close(); err != nil {
			a.logger.Warn(ctx, "closing preference store failed", logger.Error(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warn(ctx, "closing sqlite cache failed", logger.Error(err))
		}
	}
	if a.nc != nil {
		if err := a.nc.Drain(); err != nil {
			a.logger.Warn(ctx, "draining nats connection failed", logger.Error(err))
		}
	}
}

func serviceOptions(cfg *config.Config, log logger.Logger, ad *adapters) ([]service.Option, error) {
	policy, err := preference.ParsePolicy(cfg.QuotaPolicy)
	if err != nil {
		return nil, err
	}
	base, maxDelay := cfg.PublishBackoff()
	return []service.Option{
		service.WithLogger(log.Named("coordinator")),
		service.WithRepository(ad.store),
		service.WithSink(ad.combinedSink()),
		service.WithQuotaPolicy(policy),
		service.WithPublishQueueSize(cfg.PublishQueueSize),
		service.WithPublishRetry(base, maxDelay, cfg.PublishMaxAttempts),
		service.WithVerify(cfg.VerifyInvariants),
	}, nil
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metrics.RefreshInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater starts a background goroutine that updates service metrics.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(metrics.RefreshInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics refreshes gauges that only change between commits.
func updateServiceMetrics(svc *service.Service) {
	stats := svc.GetStats()
	metrics.UpdateQueueSize(stats.QueueDepth)
	metrics.UpdateAssignmentTotals(stats.Assigned, stats.Unassigned)
	metrics.UpdatePublishedVersion(stats.PublishedVersion)
}
