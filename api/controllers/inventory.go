package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/shelfwatch/shelfwatch-backend/api/middleware"
	"github.com/shelfwatch/shelfwatch-backend/api/responses"
	"github.com/shelfwatch/shelfwatch-backend/api/validators"
	"github.com/shelfwatch/shelfwatch-backend/internal/inventory"
	"github.com/shelfwatch/shelfwatch-backend/pkg/db/models"
	pkgerrors "github.com/shelfwatch/shelfwatch-backend/pkg/errors"
	"github.com/shelfwatch/shelfwatch-backend/pkg/logger"
	"github.com/shelfwatch/shelfwatch-backend/pkg/pagination"
)

// InventoryService is the slice of the inventory service the HTTP layer uses.
type InventoryService interface {
	List(ctx context.Context, businessID uuid.UUID, params inventory.ListParams) (*inventory.ListResult, error)
	GetItem(ctx context.Context, businessID, itemID uuid.UUID) (*models.InventoryItem, error)
	Stats(ctx context.Context, businessID uuid.UUID) (*inventory.Stats, error)
	UpdateItemSettings(ctx context.Context, businessID, itemID uuid.UUID, settings inventory.ItemSettings) (*models.InventoryItem, error)
}

type updateItemSettingsRequest struct {
	LowStockThreshold *int  `json:"lowStockThreshold,omitempty" validate:"omitempty,min=0"`
	TrackStock        *bool `json:"trackStock,omitempty"`
}

// ListInventory returns one filtered, sorted page of the tenant's items.
func ListInventory(svc InventoryService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		businessID, ok := middleware.BusinessIDFromContext(ctx)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "business context missing"))
			return
		}

		page, err := validators.ParseQueryInt(r, "page", 1, 1, 1_000_000)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		pageSize, err := validators.ParseQueryInt(r, "pageSize", pagination.DefaultPageSize, 1, pagination.MaxPageSize)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		lowStockOnly, err := validators.ParseQueryBool(r, "lowStockOnly", false)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.List(ctx, businessID, inventory.ListParams{
			Search:       r.URL.Query().Get("search"),
			Category:     r.URL.Query().Get("category"),
			LowStockOnly: lowStockOnly,
			Page:         page,
			PageSize:     pageSize,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// InventoryStats returns the tenant's aggregate stock counters.
func InventoryStats(svc InventoryService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		businessID, ok := middleware.BusinessIDFromContext(ctx)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "business context missing"))
			return
		}

		stats, err := svc.Stats(ctx, businessID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, stats)
	}
}

// GetInventoryItem returns one item scoped to the tenant.
func GetInventoryItem(svc InventoryService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		businessID, ok := middleware.BusinessIDFromContext(ctx)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "business context missing"))
			return
		}

		itemID, err := uuid.Parse(chi.URLParam(r, "itemId"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id"))
			return
		}

		item, err := svc.GetItem(ctx, businessID, itemID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, item)
	}
}

// UpdateInventoryItem applies the merchant-editable settings of one item.
func UpdateInventoryItem(svc InventoryService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		businessID, ok := middleware.BusinessIDFromContext(ctx)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "business context missing"))
			return
		}

		itemID, err := uuid.Parse(chi.URLParam(r, "itemId"))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid item id"))
			return
		}

		var body updateItemSettingsRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		item, err := svc.UpdateItemSettings(ctx, businessID, itemID, inventory.ItemSettings{
			LowStockThreshold: body.LowStockThreshold,
			TrackStock:        body.TrackStock,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, item)
	}
}
