package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/hibiken/asynq"

	"github.com/vpants/bookkeeper/internal/app"
	jobmetrics "github.com/vpants/bookkeeper/internal/jobs"
	"github.com/vpants/bookkeeper/internal/platform/cache"
	"github.com/vpants/bookkeeper/internal/platform/db"
	"github.com/vpants/bookkeeper/internal/reporting"
	"github.com/vpants/bookkeeper/internal/shared"
	"github.com/vpants/bookkeeper/internal/store"
	"github.com/vpants/bookkeeper/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.Connect(ctx, cache.Options{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	loc, err := cfg.Location()
	if err != nil {
		logger.Error("load timezone", slog.Any("error", err))
		os.Exit(1)
	}
	reportCache := reporting.NewCache(redisClient, cfg.ReportCacheTTL)
	services, err := app.NewServices(cfg, store.NewPostgres(pool), reportCache, logger)
	if err != nil {
		logger.Error("wire services", slog.Any("error", err))
		os.Exit(1)
	}
	metrics := jobmetrics.NewMetrics(nil)

	lowStockJob := jobs.NewLowStockScanJob(services.Inventory, cfg.LowStockThreshold, logger, metrics)
	warmupJob := jobs.NewReportsWarmupJob(services.Reporting, logger, metrics)
	cleanupJob := jobs.NewIdempotencyCleanupJob(shared.NewPGKeyStore(pool), cfg.IdempotencyRetention, logger, metrics)

	cron := make([]jobs.CronRegistration, 0, 3)
	for _, entry := range []struct {
		spec string
		typ  string
	}{
		{cfg.JobLowStockCron, jobs.TaskLowStockScan},
		{cfg.JobWarmupCron, jobs.TaskReportsWarmup},
		{cfg.JobIdempotencyCron, jobs.TaskIdempotencyCleanup},
	} {
		task, err := jobs.NewTask(entry.typ)
		if err != nil {
			logger.Error("build task", slog.String("type", entry.typ), slog.Any("error", err))
			os.Exit(1)
		}
		cron = append(cron, jobs.CronRegistration{Spec: entry.spec, Task: task, Options: []asynq.Option{asynq.MaxRetry(3)}})
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Location:  loc,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskLowStockScan, Handler: lowStockJob.Handle},
			{Type: jobs.TaskReportsWarmup, Handler: warmupJob.Handle},
			{Type: jobs.TaskIdempotencyCleanup, Handler: cleanupJob.Handle},
		},
		Cron: cron,
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
