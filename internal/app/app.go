package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/geoinv/internal/collector"
	"github.com/MrSnakeDoc/geoinv/internal/config"
	"github.com/MrSnakeDoc/geoinv/internal/httpserver"
	"github.com/MrSnakeDoc/geoinv/internal/httpserver/deps"
	"github.com/MrSnakeDoc/geoinv/internal/index"
	"github.com/MrSnakeDoc/geoinv/internal/logger"
	"github.com/MrSnakeDoc/geoinv/internal/metrics"
	"github.com/MrSnakeDoc/geoinv/internal/redis"
	"github.com/MrSnakeDoc/geoinv/internal/runner"
	"github.com/MrSnakeDoc/geoinv/internal/scheduler"
	"github.com/MrSnakeDoc/geoinv/internal/sources/ows"
	"github.com/MrSnakeDoc/geoinv/internal/store/files"
	redisstore "github.com/MrSnakeDoc/geoinv/internal/store/redis"
	"github.com/MrSnakeDoc/geoinv/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	server      *httpserver.Server
	redisClient *goredis.Client
	mirror      *redisstore.Store
	memIndex    *index.MemoryIndex
	metrics     *metrics.Metrics
	runner      *runner.Runner
	scheduler   *scheduler.RunScheduler
}

func New() *App {
	cfg := config.Load()

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)

	rules, err := ows.NewRulesLoader(cfg.RulesFile).Load()
	if err != nil {
		loggerClient.Errorf("Failed to load collector rules: %v", err)
		os.Exit(1)
	}

	// Redis is an optional mirror: a failed connection disables it, it never stops the runs
	var redisClient *goredis.Client
	var mirror *redisstore.Store
	if cfg.RedisEnabled() {
		loggerClient.Infof("Connecting to Redis mirror at %s", cfg.RedisAddr)
		redisClient, err = redis.New(context.Background(), redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			RedisDB:        cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
			WarnThreshold:  cfg.RedisWarnThreshold,
		}, loggerClient)
		if err != nil {
			loggerClient.Warn("redis mirror unavailable, continuing without it",
				logger.Error(err))
			redisClient = nil
		} else {
			mirror = redisstore.NewStore(redisClient, cfg.RedisEventsCap)
			loggerClient.Info("Redis mirror initialized successfully")
		}
	} else {
		loggerClient.Info("redis address not configured, mirror disabled")
	}

	memIndex := index.NewMemoryIndex()
	m := metrics.New()

	coll := collector.New(collector.Options{
		Timeout:           cfg.RequestTimeout,
		Retries:           cfg.RequestRetries,
		SkipTLSValidation: cfg.SkipTLSValidation,
		Concurrency:       cfg.Concurrency,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Location:          cfg.Location,
	}, rules, loggerClient, m)

	r := runner.New(runner.Options{
		WindowDays: cfg.BreakerWindowDays,
		Threshold:  cfg.BreakerThreshold,
		Location:   cfg.Location,
	}, runner.Stores{
		Directory: files.NewDirectoryStore(cfg.DirectoryFile),
		Inventory: files.NewInventoryStore(cfg.InventoryFile),
		Log:       files.NewEventLogStore(cfg.LogFile, cfg.Location),
	}, coll, loggerClient).
		WithPublisher(memIndex).
		WithRecorder(m)
	if mirror != nil {
		r.WithMirror(mirror)
	}

	// Create manual run trigger channel
	reloadTrigger := make(chan struct{}, 1)

	// Dependencies passed to routes (extend as needed).
	d := deps.Deps{
		Logger:        loggerClient,
		StartTime:     time.Now(),
		Version:       version.Version,
		Commit:        version.Commit,
		BuildDate:     version.BuildDate,
		GoVersion:     version.GoVersion,
		TimeNow:       time.Now,
		DirectoryFile: cfg.DirectoryFile,
		InventoryFile: cfg.InventoryFile,
		LogFile:       cfg.LogFile,
		MemoryIndex:   memIndex,
		Metrics:       m.Handler(),
		ReloadTrigger: reloadTrigger,
	}

	if mirror != nil {
		d.Mirror = mirror
	}

	return &App{
		cfg:         cfg,
		logger:      loggerClient,
		server:      httpserver.New(cfg, loggerClient, d),
		redisClient: redisClient,
		mirror:      mirror,
		memIndex:    memIndex,
		metrics:     m,
		runner:      r,
		scheduler:   scheduler.NewRunScheduler(r, loggerClient, cfg.RunInterval, reloadTrigger),
	}
}

// RunOnce performs a single run and exits, for cron-style deployments.
func (a *App) RunOnce() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer a.closeRedis()

	a.logger.Infof("geoinv %s: single run", version.Version)
	if _, err := a.runner.Run(ctx); err != nil {
		return fmt.Errorf("run failed: %w", err)
	}
	return nil
}

func (a *App) Run() error {
	a.logger.Infof("🚀 Starting geoinv v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Info(version.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Serve the mirrored inventory until the first local run completes
	if a.mirror != nil {
		syncer := scheduler.NewRedisSyncer(a.mirror, a.memIndex, a.logger)
		if err := syncer.Sync(ctx); err != nil {
			a.logger.Warn("failed to sync from redis on startup, waiting for the first run",
				logger.Error(err))
		}
	}

	errCh := make(chan error, 1)
	go func() {
		if err := a.server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// Run immediately, then periodically and on POST /api/reload
	a.scheduler.Start(ctx)
	a.logger.Info("run scheduler started",
		logger.Duration("interval", a.cfg.RunInterval))

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		stop()
		a.scheduler.Stop()
		a.closeRedis()
		return err
	}

	// Waits for a run in progress: its context is cancelled, writes are atomic
	a.scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	a.closeRedis()
	a.logger.Info("✅ geoinv stopped cleanly")
	return nil
}

func (a *App) closeRedis() {
	if a.redisClient == nil {
		return
	}
	if err := a.redisClient.Close(); err != nil {
		a.logger.Warnf("failed to close redis: %v", err)
	} else {
		a.logger.Info("✅ Redis closed cleanly")
	}
	a.redisClient = nil
}
