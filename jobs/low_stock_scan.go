package jobs

import (
	"context"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/vpants/bookkeeper/internal/jobs"
	"github.com/vpants/bookkeeper/internal/store"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// LowStockLister lists stock entries at or below a threshold.
type LowStockLister interface {
	LowStock(ctx context.Context, threshold int64) ([]store.StockEntry, error)
}

// LowStockScanJob logs and gauges low stock entries.
type LowStockScanJob struct {
	Stock     LowStockLister
	Threshold int64
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// NewLowStockScanJob wires dependencies for the scan handler.
func NewLowStockScanJob(stock LowStockLister, threshold int64, logger *slog.Logger, metrics *jobmetrics.Metrics) *LowStockScanJob {
	return &LowStockScanJob{Stock: stock, Threshold: threshold, Logger: logger, Metrics: metrics}
}

// Handle processes TaskLowStockScan tasks.
func (j *LowStockScanJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Stock == nil {
		return errors.New("low stock scan: handler not configured")
	}
	var payload LowStockScanPayload
	if err := decode(t, &payload); err != nil {
		return err
	}
	threshold := j.Threshold
	if payload.Threshold > 0 {
		threshold = payload.Threshold
	}
	metrics := metricsOr(j.Metrics)
	tracker := metrics.Track(TaskLowStockScan)
	defer func() { err = tracker.End(err) }()

	logger := jobLogger(j.Logger, TaskLowStockScan)
	entries, err := j.Stock.LowStock(ctx, threshold)
	if err != nil {
		logger.Error("list low stock", slog.Any("error", err))
		return err
	}
	counts := map[string]int{}
	for _, e := range entries {
		counts[string(e.ItemType)]++
		logger.Warn("low stock",
			slog.String("item_type", string(e.ItemType)),
			slog.String("item_name", e.ItemName),
			slog.String("size", e.Size),
			slog.Int64("quantity", e.Quantity),
		)
	}
	metrics.SetLowStock(counts)
	logger.Info("low stock scan complete", slog.Int64("threshold", threshold), slog.Int("entries", len(entries)))
	return nil
}

func metricsOr(m *jobmetrics.Metrics) *jobmetrics.Metrics {
	if m != nil {
		return m
	}
	return defaultJobMetrics
}

func jobLogger(l *slog.Logger, job string) *slog.Logger {
	if l == nil {
		l = slog.Default()
	}
	return l.With(slog.String("job", job))
}
