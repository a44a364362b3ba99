package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shelfwatch/shelfwatch-backend/api/controllers"
	webhookcontrollers "github.com/shelfwatch/shelfwatch-backend/api/controllers/webhooks"
	"github.com/shelfwatch/shelfwatch-backend/api/middleware"
	"github.com/shelfwatch/shelfwatch-backend/pkg/config"
	"github.com/shelfwatch/shelfwatch-backend/pkg/db"
	"github.com/shelfwatch/shelfwatch-backend/pkg/logger"
	"github.com/shelfwatch/shelfwatch-backend/pkg/redis"
)

// RouterParams carries everything the HTTP surface depends on.
type RouterParams struct {
	Config *config.Config
	Logger *logger.Logger

	Database db.Pinger
	Cache    redis.Pinger

	Inventory controllers.InventoryService
	Tenants   controllers.TenantService
	Sync      controllers.SyncService
	Alerts    controllers.AlertService
	Webhooks  webhookcontrollers.StockEventHandler
}

// NewRouter assembles the chi router with middleware and all route groups.
func NewRouter(p RouterParams) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer(p.Logger))
	r.Use(middleware.RequestID(p.Logger))
	r.Use(middleware.Logging(p.Logger))
	r.Use(middleware.CORS())

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive())
		r.Get("/ready", controllers.HealthReady(p.Database, p.Cache, p.Logger))
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Provider callbacks authenticate with signatures, not tenant headers.
		r.Route("/webhooks", func(r chi.Router) {
			squareSecret := ""
			cloverSecret := ""
			if p.Config != nil {
				squareSecret = p.Config.Square.WebhookSecret
				cloverSecret = p.Config.Clover.WebhookSecret
			}
			r.Post("/square", webhookcontrollers.Square(p.Webhooks, squareSecret, p.Logger))
			r.Post("/clover", webhookcontrollers.Clover(p.Webhooks, cloverSecret, p.Logger))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.BusinessContext(p.Logger))

			r.Route("/inventory", func(r chi.Router) {
				r.Get("/", controllers.ListInventory(p.Inventory, p.Logger))
				r.Get("/stats", controllers.InventoryStats(p.Inventory, p.Logger))
				r.Get("/{itemId}", controllers.GetInventoryItem(p.Inventory, p.Logger))
				r.Patch("/{itemId}", controllers.UpdateInventoryItem(p.Inventory, p.Logger))
			})

			r.Post("/sync", controllers.TriggerSync(p.Sync, p.Logger))
			r.Post("/alerts/check", controllers.TriggerAlertCheck(p.Tenants, p.Alerts, p.Logger))
			r.Patch("/settings/alerts", controllers.UpdateAlertSettings(p.Tenants, p.Logger))
		})
	})

	return r
}
