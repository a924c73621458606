// Package app wires configuration, connections and components into the
// ingestor service and the maintenance commands.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/jonesrussell/streetcode-ingestor/internal/api"
	"github.com/jonesrussell/streetcode-ingestor/internal/config"
	"github.com/jonesrussell/streetcode-ingestor/internal/content"
	"github.com/jonesrussell/streetcode-ingestor/internal/database"
	"github.com/jonesrussell/streetcode-ingestor/internal/ingest"
	"github.com/jonesrussell/streetcode-ingestor/internal/locations"
	"github.com/jonesrussell/streetcode-ingestor/internal/logger"
	"github.com/jonesrussell/streetcode-ingestor/internal/maintenance"
	"github.com/jonesrussell/streetcode-ingestor/internal/metrics"
	"github.com/jonesrussell/streetcode-ingestor/internal/scheduler"
	"github.com/jonesrussell/streetcode-ingestor/internal/sources"
	"github.com/jonesrussell/streetcode-ingestor/internal/subscriber"
	"github.com/jonesrussell/streetcode-ingestor/internal/tags"
)

const (
	// DefaultShutdownTimeout bounds scheduler shutdown.
	DefaultShutdownTimeout = 30 * time.Second
	// PingTimeout bounds the Redis connectivity check.
	PingTimeout = 5 * time.Second
)

// App owns the configuration, logger and lazily opened connections.
type App struct {
	config     *config.Config
	logger     logger.Logger
	version    string
	configPath string

	registry   *prometheus.Registry
	collectors *metrics.Collectors

	mu          sync.Mutex
	db          *sqlx.DB
	redisClient redis.UniversalClient
}

// Options configures New.
type Options struct {
	ConfigPath string
	Version    string
	Debug      bool
}

// New loads configuration and builds the logger. Connections are opened on
// first use so commands that need only one backend do not require the other.
func New(opts Options) (*App, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if opts.Debug {
		cfg.Service.Debug = true
		cfg.Logging.Level = "debug"
	}
	version := opts.Version
	if version == "" {
		version = cfg.Service.Version
	}

	appLogger, err := logger.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}
	appLogger = appLogger.With(
		logger.String("service", cfg.Service.Name),
		logger.String("version", version),
	)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &App{
		config:     cfg,
		logger:     appLogger,
		version:    version,
		configPath: opts.ConfigPath,
		registry:   registry,
		collectors: metrics.NewCollectors(registry),
	}, nil
}

// Config returns the loaded configuration.
func (a *App) Config() *config.Config {
	return a.config
}

// Logger returns the service logger.
func (a *App) Logger() logger.Logger {
	return a.logger
}

// Database opens the PostgreSQL pool on first call.
func (a *App) Database() (*sqlx.DB, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.db != nil {
		return a.db, nil
	}

	db, err := database.NewPostgresConnection(a.config.Database)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	a.logger.Info("Connected to PostgreSQL",
		logger.String("host", a.config.Database.Host),
		logger.String("database", a.config.Database.Database),
	)

	a.db = db
	return db, nil
}

// Redis opens and pings the Redis client on first call.
func (a *App) Redis(ctx context.Context) (redis.UniversalClient, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.redisClient != nil {
		return a.redisClient, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     a.config.Redis.Address,
		Password: a.config.Redis.Password,
		DB:       a.config.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, PingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to Redis: %w", err)
	}
	a.logger.Info("Connected to Redis", logger.String("address", a.config.Redis.Address))

	a.redisClient = client
	return client, nil
}

// Tracker returns the Redis-backed ingestion counters.
func (a *App) Tracker(ctx context.Context) (*metrics.Tracker, error) {
	client, err := a.Redis(ctx)
	if err != nil {
		return nil, err
	}
	return metrics.NewTracker(client, a.logger), nil
}

// Maintenance builds the maintenance job runner.
func (a *App) Maintenance() (*maintenance.Runner, error) {
	db, err := a.Database()
	if err != nil {
		return nil, err
	}

	return maintenance.NewRunner(maintenance.Deps{
		Articles:   database.NewMaintenanceRepository(db),
		Locations:  locations.NewResolver(database.NewCityRepository(db), a.logger),
		Tags:       database.NewTagRepository(db),
		Collectors: a.collectors,
	}, a.logger), nil
}

// Migrator opens a schema migrator for the configured database.
func (a *App) Migrator(migrationsPath string) (*database.Migrator, error) {
	return database.NewMigrator(a.config.Database, migrationsPath, a.logger)
}

// pipeline assembles the decorated message processor.
func (a *App) pipeline(db *sqlx.DB, tracker *metrics.Tracker) ingest.Processor {
	cities := database.NewCityRepository(db)

	core := ingest.NewPipeline(ingest.Deps{
		Articles:  database.NewArticleRepository(db),
		Cities:    cities,
		Sources:   sources.NewResolver(database.NewSourceRepository(db), a.logger),
		Locations: locations.NewResolver(cities, a.logger),
		Tags:      tags.NewReconciler(database.NewTagRepository(db), a.logger),
		Sanitizer: content.NewSanitizer(a.config.Content.AllowedTags),
	}, ingest.Options{
		ClassifyMissingRelevance: a.config.Ingest.ShouldClassifyMissing(),
	}, a.logger)

	retrying := ingest.NewRetrying(core, ingest.RetryPolicy{
		Attempts:     a.config.Subscriber.RetryAttempts,
		InitialDelay: a.config.Subscriber.RetryInitialDelay,
	}, a.logger, a.collectors.Retries.Inc)

	return ingest.NewInstrumented(retrying, tracker, a.collectors, a.logger)
}

// Serve runs the subscriber, the HTTP server and scheduled maintenance until
// ctx is canceled, SIGINT or SIGTERM arrives, or a component fails.
func (a *App) Serve(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := a.Database()
	if err != nil {
		return err
	}
	rdb, err := a.Redis(ctx)
	if err != nil {
		return err
	}
	tracker := metrics.NewTracker(rdb, a.logger)
	runner, err := a.Maintenance()
	if err != nil {
		return err
	}

	sub := subscriber.New(rdb, a.pipeline(db, tracker), a.config.Subscriber, a.collectors, a.logger)

	sched := scheduler.New(a.logger)
	if _, err = sched.Add(maintenance.JobRecountTags, a.config.Schedule.TagRecount, func(ctx context.Context) error {
		_, recountErr := runner.RecountTags(ctx)
		return recountErr
	}); err != nil {
		return err
	}

	server := api.NewServer(api.Options{
		ServiceName: a.config.Service.Name,
		Version:     a.version,
		Port:        a.config.Service.Port,
		Debug:       a.config.Service.Debug,
		Metrics:     a.collectors.Handler(),
		Checks: map[string]api.HealthCheck{
			"database":   {Probe: db.PingContext, Critical: true},
			"redis":      {Probe: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }, Critical: true},
			"subscriber": {Probe: subscriberProbe(sub)},
		},
	}, tracker, a.logger)

	a.logger.Info("Starting ingestor",
		logger.String("config_path", a.configPath),
		logger.Strings("channels", a.config.Subscriber.Channels),
		logger.Int("workers", a.config.Subscriber.Workers),
		logger.Int("port", a.config.Service.Port),
	)

	sched.Start()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return sub.Run(gctx) })
	g.Go(func() error { return server.Run(gctx) })
	runErr := g.Wait()

	stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), DefaultShutdownTimeout)
	defer cancel()
	if stopErr := sched.Stop(stopCtx); stopErr != nil {
		a.logger.Warn("Scheduler did not stop cleanly", logger.Error(stopErr))
	}

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		a.logger.Error("Ingestor stopped with error", logger.Error(runErr))
		return runErr
	}
	a.logger.Info("Service stopped")
	return nil
}

func subscriberProbe(sub *subscriber.Subscriber) func(context.Context) error {
	return func(context.Context) error {
		if !sub.Healthy() {
			return errors.New("not subscribed")
		}
		return nil
	}
}

// Close releases open connections and flushes the logger.
func (a *App) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warn("Failed to close Redis client", logger.Error(err))
		}
		a.redisClient = nil
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("Failed to close database", logger.Error(err))
		}
		a.db = nil
	}

	_ = a.logger.Sync()
	return nil
}
