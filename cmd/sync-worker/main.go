package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shelfwatch/shelfwatch-backend/internal/alerts"
	"github.com/shelfwatch/shelfwatch-backend/internal/cron"
	"github.com/shelfwatch/shelfwatch-backend/internal/inventory"
	"github.com/shelfwatch/shelfwatch-backend/internal/providers"
	"github.com/shelfwatch/shelfwatch-backend/internal/stocksync"
	"github.com/shelfwatch/shelfwatch-backend/internal/tenants"
	"github.com/shelfwatch/shelfwatch-backend/pkg/clover"
	"github.com/shelfwatch/shelfwatch-backend/pkg/config"
	"github.com/shelfwatch/shelfwatch-backend/pkg/db"
	"github.com/shelfwatch/shelfwatch-backend/pkg/logger"
	"github.com/shelfwatch/shelfwatch-backend/pkg/metrics"
	"github.com/shelfwatch/shelfwatch-backend/pkg/migrate"
	"github.com/shelfwatch/shelfwatch-backend/pkg/notify"
	"github.com/shelfwatch/shelfwatch-backend/pkg/redis"
)

const lockKeyFormat = "sw:sync-worker:lock:%s"

func main() {
	logg := logger.New(logger.Options{ServiceName: "sync-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "sync-worker"

	logg = logger.New(logger.Options{
		ServiceName: "sync-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	cloverClient, err := clover.NewClient(cfg.Clover.Environment, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create clover client", err)
		os.Exit(1)
	}

	registry := providers.NewRegistry(
		providers.NewSquareAdapter(logg),
		providers.NewCloverAdapter(cloverClient, logg),
	)

	metricsCollector := metrics.NewSyncMetrics(prometheus.DefaultRegisterer)

	tenantService := tenants.NewService(tenants.NewRepository(dbClient), logg)
	inventoryService := inventory.NewService(inventory.NewRepository(dbClient), logg)
	sender := notify.NewDispatcher(
		notify.NewSMSClient(cfg.SMS, logg),
		notify.NewEmailClient(cfg.Email, logg),
	)
	alertService := alerts.NewService(
		inventoryService,
		sender,
		alerts.NewRedisLocker(redisClient),
		redisClient,
		cfg.Alerts,
		logg,
		metricsCollector,
	)
	syncService := stocksync.NewService(tenantService, registry, inventoryService, alertService, cfg.Sync, logg, metricsCollector)

	lock, err := cron.NewRedisLock(redisClient, lockKey(cfg.App.Env), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create worker lock", err)
		os.Exit(1)
	}

	syncJob, err := cron.NewSyncAllJob(cron.SyncAllJobParams{Logger: logg, Sync: syncService})
	if err != nil {
		logg.Error(context.Background(), "failed to create sync job", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(syncJob),
		Lock:     lock,
		Metrics:  metricsCollector,
		Interval: cfg.Sync.WorkerPeriod,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create worker service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
	})

	go serveMetrics(ctx, cfg.App.Port, logg)

	logg.Info(ctx, "starting sync worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "sync worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "sync worker shutting down gracefully")
}

func serveMetrics(ctx context.Context, port string, logg *logger.Logger) {
	if port == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	server := &http.Server{Addr: ":" + port, Handler: mux}

	go func() {
		<-ctx.Done()
		_ = server.Close()
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "metrics endpoint stopped unexpectedly", err)
	}
}

func lockKey(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockKeyFormat, env)
}
