package app

import (
	"context"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/marks/internal/config"
	"github.com/MrSnakeDoc/marks/internal/httpserver"
	"github.com/MrSnakeDoc/marks/internal/httpserver/deps"
	"github.com/MrSnakeDoc/marks/internal/library"
	"github.com/MrSnakeDoc/marks/internal/linkcheck"
	"github.com/MrSnakeDoc/marks/internal/logger"
	"github.com/MrSnakeDoc/marks/internal/redis"
	"github.com/MrSnakeDoc/marks/internal/repository"
	"github.com/MrSnakeDoc/marks/internal/scheduler"
	"github.com/MrSnakeDoc/marks/internal/store"
	"github.com/MrSnakeDoc/marks/internal/store/memory"
	redisstore "github.com/MrSnakeDoc/marks/internal/store/redis"
	"github.com/MrSnakeDoc/marks/internal/store/sqlite"
	"github.com/MrSnakeDoc/marks/internal/version"
)

// App owns the store connection and the library built on top of it.
type App struct {
	cfg    *config.Config
	logger logger.Logger
	store  store.KV
	lib    *library.Library
}

// New opens the configured store and loads both collections.
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	kv, err := openStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	opts := []repository.Option{repository.WithSeed(cfg.SeedDefaults)}
	bookmarks := repository.NewBookmarkRepository(ctx, kv, cfg.BookmarksKey, log, opts...)
	projects := repository.NewProjectRepository(ctx, kv, cfg.ProjectsKey, log, opts...)
	checker := linkcheck.New(linkcheck.ConfigFrom(cfg), log)

	log.Info("library loaded",
		logger.String("store", cfg.StoreBackend),
		logger.Int("bookmarks", bookmarks.Len()),
		logger.Int("projects", len(projects.All())))

	return &App{
		cfg:    cfg,
		logger: log,
		store:  kv,
		lib:    library.New(bookmarks, projects, checker, log),
	}, nil
}

// openStore connects the backend selected by cfg.StoreBackend.
func openStore(ctx context.Context, cfg *config.Config, log logger.Logger) (store.KV, error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		log.Warn("using in-memory store, nothing will survive a restart")
		return memory.NewStore(), nil

	case config.BackendRedis:
		// Fail fast if Redis stays unreachable past the connect timeout.
		client, err := redis.Connect(ctx, cfg.RedisURL, cfg.RedisPoolSize, redis.Retry{
			Timeout:     cfg.RedisConnectTimeout,
			Interval:    cfg.RedisRetryInterval,
			MaxInterval: cfg.RedisMaxWait,
			PingTimeout: cfg.RedisPingTimeout,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return redisstore.NewStore(client), nil

	default:
		s, err := sqlite.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		log.Debug("sqlite store opened", logger.String("driver", s.Driver()))
		return s, nil
	}
}

// Library returns the bookmark and project handle.
func (a *App) Library() *library.Library { return a.lib }

// Store returns the underlying key-value store.
func (a *App) Store() store.KV { return a.store }

// Close releases the store connection.
func (a *App) Close() error {
	return a.store.Close()
}

// Serve runs the reference sweeper and the HTTP server until ctx is done,
// then shuts both down.
func (a *App) Serve(ctx context.Context) error {
	a.logger.Info("🚀 Starting marks",
		logger.String("version", version.Version),
		logger.String("commit", version.Commit),
		logger.String("built", version.BuildDate),
		logger.String("go", version.GoVersion),
		logger.String("addr", a.cfg.ListenAddr))

	sweepTrigger := make(chan struct{}, 1)
	sweeper := scheduler.NewRefSweeper(a.lib, a.logger, a.cfg.SweepInterval, sweepTrigger)

	d := deps.Deps{
		Logger:           a.logger,
		StartTime:        time.Now(),
		Version:          version.Version,
		Commit:           version.Commit,
		BuildDate:        version.BuildDate,
		GoVersion:        version.GoVersion,
		TimeNow:          time.Now,
		AllowedHosts:     a.cfg.AllowedHosts,
		AllowedCIDRS:     a.cfg.AllowedCIDRS,
		TrustProxy:       a.cfg.TrustProxy,
		Library:          a.lib,
		Store:            a.store,
		StoreBackend:     a.cfg.StoreBackend,
		RequestTimeout:   a.cfg.RequestTimeout,
		LinkCheckTimeout: a.cfg.LinkCheckTimeout,
		CheckBurst:       a.cfg.CheckBurst,
		CheckRefillPM:    a.cfg.CheckRefillPM,
		SweepTrigger:     sweepTrigger,
	}
	server := httpserver.New(a.cfg, a.logger, d)

	if err := sweeper.Start(ctx); err != nil {
		return fmt.Errorf("failed to start reference sweeper: %w", err)
	}
	a.logger.Info("reference sweeper started",
		logger.Duration("interval", a.cfg.SweepInterval))

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case runErr = <-errCh:
	}

	sweeper.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to stop server: %w", err)
	}

	if runErr == nil {
		a.logger.Info("✅ marks stopped cleanly")
	}
	return runErr
}
