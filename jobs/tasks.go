package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLowStockScan reports stock entries at or below the threshold.
	TaskLowStockScan = "stock:low_scan"
	// TaskReportsWarmup pre-computes the dashboard reports.
	TaskReportsWarmup = "reports:warmup"
	// TaskIdempotencyCleanup drops expired idempotency keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

// TaskTypes lists the task types the worker serves.
var TaskTypes = []string{TaskLowStockScan, TaskReportsWarmup, TaskIdempotencyCleanup}

// LowStockScanPayload overrides the configured threshold when positive.
type LowStockScanPayload struct {
	Threshold int64 `json:"threshold,omitempty"`
}

// ReportsWarmupPayload carries scheduling metadata.
type ReportsWarmupPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// IdempotencyCleanupPayload overrides the configured retention when positive.
type IdempotencyCleanupPayload struct {
	Retention time.Duration `json:"retention,omitempty"`
}

// NewLowStockScanTask constructs a low stock scan task.
func NewLowStockScanTask(threshold int64) (*asynq.Task, error) {
	return newTask(TaskLowStockScan, LowStockScanPayload{Threshold: threshold})
}

// NewReportsWarmupTask constructs a report warmup task.
func NewReportsWarmupTask(at time.Time) (*asynq.Task, error) {
	return newTask(TaskReportsWarmup, ReportsWarmupPayload{ScheduledFor: at})
}

// NewIdempotencyCleanupTask constructs a cleanup task.
func NewIdempotencyCleanupTask(retention time.Duration) (*asynq.Task, error) {
	return newTask(TaskIdempotencyCleanup, IdempotencyCleanupPayload{Retention: retention})
}

// NewTask builds a task of typ with its default payload.
func NewTask(typ string) (*asynq.Task, error) {
	switch typ {
	case TaskLowStockScan:
		return NewLowStockScanTask(0)
	case TaskReportsWarmup:
		return NewReportsWarmupTask(time.Now().UTC())
	case TaskIdempotencyCleanup:
		return NewIdempotencyCleanupTask(0)
	}
	return nil, ErrUnknownTask
}

func newTask(typ string, payload any) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(typ, body, asynq.Queue(QueueDefault), asynq.MaxRetry(3)), nil
}

func decode(t *asynq.Task, dest any) error {
	if len(t.Payload()) == 0 {
		return nil
	}
	if err := json.Unmarshal(t.Payload(), dest); err != nil {
		return asynq.SkipRetry
	}
	return nil
}
