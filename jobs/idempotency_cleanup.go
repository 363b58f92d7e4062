package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/vpants/bookkeeper/internal/jobs"
)

// Purger removes idempotency claims older than retention.
type Purger interface {
	Purge(ctx context.Context, retention time.Duration) (int64, error)
}

// IdempotencyCleanupJob drops stale idempotency keys.
type IdempotencyCleanupJob struct {
	Keys      Purger
	Retention time.Duration
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// NewIdempotencyCleanupJob wires dependencies for the cleanup handler.
func NewIdempotencyCleanupJob(keys Purger, retention time.Duration, logger *slog.Logger, metrics *jobmetrics.Metrics) *IdempotencyCleanupJob {
	return &IdempotencyCleanupJob{Keys: keys, Retention: retention, Logger: logger, Metrics: metrics}
}

// Handle processes TaskIdempotencyCleanup tasks.
func (j *IdempotencyCleanupJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Keys == nil {
		return errors.New("idempotency cleanup: handler not configured")
	}
	var payload IdempotencyCleanupPayload
	if err := decode(t, &payload); err != nil {
		return err
	}
	retention := j.Retention
	if payload.Retention > 0 {
		retention = payload.Retention
	}
	if retention <= 0 {
		return errors.New("idempotency cleanup: retention must be positive")
	}
	metrics := metricsOr(j.Metrics)
	tracker := metrics.Track(TaskIdempotencyCleanup)
	defer func() { err = tracker.End(err) }()

	n, err := j.Keys.Purge(ctx, retention)
	if err != nil {
		jobLogger(j.Logger, TaskIdempotencyCleanup).Error("purge keys", slog.Any("error", err))
		return err
	}
	metrics.AddPurged(n)
	jobLogger(j.Logger, TaskIdempotencyCleanup).Info("idempotency keys purged", slog.Int64("count", n), slog.Duration("retention", retention))
	return nil
}
