package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/vpants/bookkeeper/internal/jobs"
)

// Warmer pre-populates cached reports.
type Warmer interface {
	Warmup(ctx context.Context) error
}

// ReportsWarmupJob refreshes the dashboard report cache.
type ReportsWarmupJob struct {
	Reports Warmer
	Timeout time.Duration
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewReportsWarmupJob wires dependencies for the warmup handler.
func NewReportsWarmupJob(reports Warmer, logger *slog.Logger, metrics *jobmetrics.Metrics) *ReportsWarmupJob {
	return &ReportsWarmupJob{Reports: reports, Timeout: 20 * time.Second, Logger: logger, Metrics: metrics}
}

// Handle processes TaskReportsWarmup tasks.
func (j *ReportsWarmupJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Reports == nil {
		return errors.New("reports warmup: handler not configured")
	}
	var payload ReportsWarmupPayload
	if err := decode(t, &payload); err != nil {
		return err
	}
	tracker := metricsOr(j.Metrics).Track(TaskReportsWarmup)
	defer func() { err = tracker.End(err) }()

	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}
	logger := jobLogger(j.Logger, TaskReportsWarmup)
	start := time.Now()
	if err := j.Reports.Warmup(ctx); err != nil {
		logger.Error("warm reports", slog.Any("error", err))
		return err
	}
	logger.Info("reports warmed", slog.Duration("duration", time.Since(start)))
	return nil
}
