package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"

	"github.com/shelfwatch/shelfwatch-backend/api/routes"
	"github.com/shelfwatch/shelfwatch-backend/internal/alerts"
	"github.com/shelfwatch/shelfwatch-backend/internal/inventory"
	"github.com/shelfwatch/shelfwatch-backend/internal/providers"
	"github.com/shelfwatch/shelfwatch-backend/internal/stocksync"
	"github.com/shelfwatch/shelfwatch-backend/internal/tenants"
	"github.com/shelfwatch/shelfwatch-backend/internal/webhooks"
	"github.com/shelfwatch/shelfwatch-backend/pkg/clover"
	"github.com/shelfwatch/shelfwatch-backend/pkg/config"
	"github.com/shelfwatch/shelfwatch-backend/pkg/db"
	"github.com/shelfwatch/shelfwatch-backend/pkg/logger"
	"github.com/shelfwatch/shelfwatch-backend/pkg/migrate"
	"github.com/shelfwatch/shelfwatch-backend/pkg/notify"
	"github.com/shelfwatch/shelfwatch-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
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
		nil,
	)

	syncService := stocksync.NewService(tenantService, registry, inventoryService, alertService, cfg.Sync, logg, nil)
	webhookService := webhooks.NewService(tenantService, registry, inventoryService, alertService, logg)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:    cfg,
			Logger:    logg,
			Database:  dbClient,
			Cache:     redisClient,
			Inventory: inventoryService,
			Tenants:   tenantService,
			Sync:      syncService,
			Alerts:    alertService,
			Webhooks:  webhookService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
