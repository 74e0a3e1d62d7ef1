// Package jobs holds the background task definitions and the Asynq
// worker that runs them.
package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"

	// TaskLowStockScan walks the catalog and records a notification for
	// every product at or below its minimum stock.
	TaskLowStockScan = "stock:lowscan"

	// TaskCacheWarmup reloads all collections from the document store
	// into the local cache file.
	TaskCacheWarmup = "cache:warmup"
)

// LowStockScanPayload tunes a single scan run.
type LowStockScanPayload struct {
	// Threshold overrides per-product minimum stock when positive.
	Threshold int `json:"threshold"`
}

// NewLowStockScanTask constructs an Asynq task.
func NewLowStockScanTask(payload LowStockScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLowStockScan, data), nil
}

// NewCacheWarmupTask constructs an Asynq task with an empty payload.
func NewCacheWarmupTask() *asynq.Task {
	return asynq.NewTask(TaskCacheWarmup, nil)
}
