package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"io.winapps.pushrelay/internal/config"
	"io.winapps.pushrelay/internal/db"
	"io.winapps.pushrelay/internal/expo"
	"io.winapps.pushrelay/internal/handlers"
	"io.winapps.pushrelay/internal/metrics"
	"io.winapps.pushrelay/internal/notify"
	"io.winapps.pushrelay/internal/scheduler"
	"io.winapps.pushrelay/internal/stats"
	"io.winapps.pushrelay/internal/tokens"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration from .env and the environment
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatalw("Server exited with error", "error", err)
	}
	logger.Info("Server exited")
}

func run(cfg *config.Config, logger *zap.SugaredLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize token store
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	gateway := expo.NewClient(logger.Named("expo"),
		expo.WithHTTPClient(&http.Client{Timeout: cfg.Expo.HTTPTimeout}),
		expo.WithPushURL(cfg.Expo.PushURL),
		expo.WithAccessToken(cfg.Expo.AccessToken),
	)
	dispatcher := notify.NewDispatcher(store, gateway,
		notify.WithBatchSize(cfg.Expo.MaxBatchSize),
		notify.WithMetrics(m),
		notify.WithLogger(logger.Named("notify")),
	)
	aggregator := stats.NewAggregator(store)

	// Initialize scheduler
	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		loc, _ := cfg.Scheduler.Location()
		sched = scheduler.New(
			scheduler.WithLocation(loc),
			scheduler.WithJobTimeout(cfg.Scheduler.JobTimeout),
			scheduler.WithLogger(logger.Named("scheduler")),
			scheduler.WithMetrics(m),
		)
		err := scheduler.RegisterDefaults(sched, dispatcher, aggregator, scheduler.Schedules{
			DailyReminder: cfg.Scheduler.DailyReminder,
			WeeklyReport:  cfg.Scheduler.WeeklyReport,
			DailyCleanup:  cfg.Scheduler.DailyCleanup,
		}, logger.Named("scheduler"))
		if err != nil {
			return err
		}
		sched.Start()
	}

	sysCfg := handlers.SystemHandlerConfig{
		Store:         store,
		Stats:         aggregator,
		DBMode:        cfg.Database.Mode,
		DashboardPath: cfg.DashboardPath,
		Logger:        logger,
	}
	if sched != nil {
		sysCfg.Jobs = sched
	}

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handlers.NewRouter(handlers.RouterConfig{
		Tokens:        handlers.NewTokensHandler(store, logger),
		Notifications: handlers.NewNotificationsHandler(dispatcher, logger),
		System:        handlers.NewSystemHandler(sysCfg),
		Metrics:       m,
		Logger:        logger,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infow("Server starting", "port", cfg.Port, "db_mode", cfg.Database.Mode, "env", cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		err := srv.Shutdown(shutdownCtx)
		if sched != nil {
			select {
			case <-sched.Stop().Done():
			case <-shutdownCtx.Done():
				logger.Warn("Timed out waiting for running jobs")
			}
		}
		return err
	})

	return g.Wait()
}

// openStore picks the token backend from DB_MODE and puts the Redis
// read-aside cache in front of it when REDIS_ENABLED is set.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.SugaredLogger) (tokens.Store, error) {
	var store tokens.Store
	switch cfg.Database.Mode {
	case config.DBModePostgres:
		pool, err := db.InitPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		store = tokens.NewPostgresStore(pool, pool, pool.Close)
		logger.Infow("Connected to PostgreSQL", "database", cfg.Database.Name)
	default:
		store = tokens.NewMemoryStore()
		logger.Info("Using embedded token store")
	}

	if !cfg.Redis.Enabled {
		return store, nil
	}

	rdb, err := db.InitRedis(ctx, cfg.Redis)
	if err != nil {
		store.Close()
		return nil, err
	}
	logger.Infow("Connected to Redis", "addr", cfg.Redis.Addr())
	cached := tokens.NewCachedStore(store, tokens.NewRedisClient(rdb), cfg.Redis.TokenTTL, logger.Named("cache"))
	return &closingStore{CachedStore: cached, closeFn: func() { _ = rdb.Close() }}, nil
}

// closingStore also releases the Redis client on Close.
type closingStore struct {
	*tokens.CachedStore
	closeFn func()
}

func (s *closingStore) Close() {
	s.CachedStore.Close()
	s.closeFn()
}

func newLogger(cfg *config.Config) (*zap.SugaredLogger, error) {
	zapCfg := zap.NewProductionConfig()
	if cfg.IsDevelopment() {
		zapCfg = zap.NewDevelopmentConfig()
	}
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	zapCfg.Level = level

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}
