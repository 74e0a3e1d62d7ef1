package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/lababil/lababil-pos/internal/pos"
)

// CacheWarmupJob reloads all collections from the document store into
// live state, which in turn rewrites the local cache file. Scheduled so
// a long-running process converges after out-of-band store changes.
type CacheWarmupJob struct {
	Loader *pos.Loader
	State  *pos.State
	Logger *slog.Logger
}

// NewCacheWarmupJob initialises the warmup handler.
func NewCacheWarmupJob(loader *pos.Loader, state *pos.State, logger *slog.Logger) *CacheWarmupJob {
	return &CacheWarmupJob{Loader: loader, State: state, Logger: logger}
}

// Handle executes the warmup.
func (j *CacheWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Loader == nil || j.State == nil {
		return errors.New("cache warmup: handler not configured")
	}
	start := time.Now()
	j.Loader.LoadAll(ctx, j.State)
	snap := j.State.Snapshot()
	j.logger().Info("completed cache warmup",
		slog.Int("products", len(snap.Products)),
		slog.Int("sales", len(snap.Sales)),
		slog.Int("purchases", len(snap.Purchases)),
		slog.Duration("duration", time.Since(start)))
	return nil
}

func (j *CacheWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskCacheWarmup))
	}
	return slog.Default().With(slog.String("job", TaskCacheWarmup))
}
