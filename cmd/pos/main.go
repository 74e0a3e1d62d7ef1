package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/lababil/lababil-pos/internal/app"
	"github.com/lababil/lababil-pos/internal/audit"
	"github.com/lababil/lababil-pos/internal/docstore"
	"github.com/lababil/lababil-pos/internal/localstore"
	"github.com/lababil/lababil-pos/internal/observability"
	"github.com/lababil/lababil-pos/internal/platform/cache"
	"github.com/lababil/lababil-pos/internal/platform/db"
	"github.com/lababil/lababil-pos/internal/pos"
	"github.com/lababil/lababil-pos/internal/reports"
	"github.com/lababil/lababil-pos/internal/shared"
	"github.com/lababil/lababil-pos/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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
			logger.Warn("redis unavailable", slog.Any("error", err))
			redisClient = nil
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
		if redisClient == nil {
			logger.Error("redis store backend requires a reachable redis")
			os.Exit(1)
		}
		store = docstore.NewRedis(redisClient)
	default:
		store = docstore.NewMemory()
	}

	var notifier pos.Notifier
	if redisClient != nil {
		notifier = pos.NewRedisNotifier(ctx, redisClient, logger)
	} else {
		notifier = pos.NewBroker()
	}

	state := pos.NewState(local, notifier, logger)
	loader := pos.NewLoader(store, local, logger)
	loader.LoadAll(ctx, state)

	recorder := audit.NewRecorder(store)
	service := pos.NewService(store, state, local, recorder, logger)

	// startup migration runs as the system, not a request identity
	bootCtx := shared.ContextWithIdentity(ctx, shared.Identity{Username: "system", Role: shared.RoleAdmin})
	if err := service.MigrateLocalToRemote(bootCtx); err != nil {
		logger.Warn("local migration", slog.Any("error", err))
	}

	var jobHandler *jobs.Handler
	if redisClient != nil {
		inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
		defer func() {
			if err := inspector.Close(); err != nil {
				logger.Warn("inspector close", slog.Any("error", err))
			}
		}()
		jobHandler = jobs.NewHandler(inspector, logger)
	}

	metrics := observability.NewMetrics()

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		POSHandler:     pos.NewHandler(logger, service, metrics),
		ReportsHandler: reports.NewHandler(logger, state),
		JobHandler:     jobHandler,
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server",
			slog.String("addr", cfg.AppAddr),
			slog.String("store", cfg.StoreBackend))
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
