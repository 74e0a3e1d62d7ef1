package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/lababil/lababil-pos/internal/app"
	"github.com/lababil/lababil-pos/internal/docstore"
	"github.com/lababil/lababil-pos/internal/localstore"
	"github.com/lababil/lababil-pos/internal/platform/cache"
	"github.com/lababil/lababil-pos/internal/platform/db"
	"github.com/lababil/lababil-pos/internal/pos"
	"github.com/lababil/lababil-pos/jobs"
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

	local, err := localstore.NewFile(cfg.DataDir)
	if err != nil {
		logger.Error("open local cache", slog.Any("error", err))
		os.Exit(1)
	}

	var redisClient *redis.Client
	if cfg.StoreBackend != "memory" {
		redisClient, err = cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Error("connect redis", slog.Any("error", err))
			os.Exit(1)
		}
	}
	defer func() {
		if redisClient == nil {
			return
		}
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	var store docstore.Store
	switch cfg.StoreBackend {
	case "postgres":
		pool, err := db.New(ctx, cfg.PGDSN)
		if err != nil {
			logger.Error("connect postgres", slog.Any("error", err))
			os.Exit(1)
		}
		defer pool.Close()
		pg := docstore.NewPostgres(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			logger.Error("ensure schema", slog.Any("error", err))
			os.Exit(1)
		}
		store = pg
	case "redis":
		store = docstore.NewRedis(redisClient)
	default:
		store = docstore.NewMemory()
	}

	// The worker keeps its own state copy, refreshed by the warmup task.
	state := pos.NewState(local, pos.NewBroker(), logger)
	loader := pos.NewLoader(store, local, logger)
	loader.LoadAll(ctx, state)

	scanJob := jobs.NewLowStockScanJob(store, state, logger)
	warmupJob := jobs.NewCacheWarmupJob(loader, state, logger)

	scanTask, err := jobs.NewLowStockScanTask(jobs.LowStockScanPayload{})
	if err != nil {
		logger.Error("build scan task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskLowStockScan, Handler: scanJob.Handle},
			{Type: jobs.TaskCacheWarmup, Handler: warmupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 1 * * *", Task: scanTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "*/15 * * * *", Task: jobs.NewCacheWarmupTask(), Options: []asynq.Option{asynq.MaxRetry(1)}},
		},
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
