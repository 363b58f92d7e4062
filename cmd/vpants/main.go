package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/hibiken/asynq"

	"github.com/vpants/bookkeeper/internal/app"
	"github.com/vpants/bookkeeper/internal/observability"
	"github.com/vpants/bookkeeper/internal/platform/cache"
	"github.com/vpants/bookkeeper/internal/platform/db"
	"github.com/vpants/bookkeeper/internal/reporting"
	"github.com/vpants/bookkeeper/internal/shared"
	"github.com/vpants/bookkeeper/internal/store"
	"github.com/vpants/bookkeeper/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping server startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)
	slog.SetDefault(logger)

	if cfg.MigrateOnStart {
		if err := db.Migrate(cfg.PGDSN); err != nil {
			logger.Error("migrate", slog.Any("error", err))
			os.Exit(1)
		}
	}

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.Connect(ctx, cache.Options{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Warn("redis unavailable, reports served uncached", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	reportCache := reporting.NewCache(redisClient, cfg.ReportCacheTTL)
	go func() {
		if err := reportCache.ListenForInvalidation(ctx, reporting.BumpChannel); err != nil && !errors.Is(err, context.Canceled) {
			logger.Warn("report cache listener", slog.Any("error", err))
		}
	}()

	services, err := app.NewServices(cfg, store.NewPostgres(pool), reportCache, logger)
	if err != nil {
		logger.Error("wire services", slog.Any("error", err))
		os.Exit(1)
	}

	redisOpt := asynq.RedisClientOpt{Addr: cfg.RedisAddr}
	jobClient := asynq.NewClient(redisOpt)
	defer func() { _ = jobClient.Close() }()
	inspector := asynq.NewInspector(redisOpt)
	defer func() { _ = inspector.Close() }()

	router := app.NewRouter(services.Handlers(app.RouterParams{
		Logger:     logger,
		Config:     cfg,
		Metrics:    observability.NewMetrics(),
		Keys:       shared.NewPGKeyStore(pool),
		DB:         pool,
		JobHandler: jobs.NewHandler(inspector, jobClient, logger),
	}))

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
