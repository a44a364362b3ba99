package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shelfwatch/shelfwatch-backend/internal/providers"
	"github.com/shelfwatch/shelfwatch-backend/pkg/db/models"
	"github.com/shelfwatch/shelfwatch-backend/pkg/enums"
	pkgerrors "github.com/shelfwatch/shelfwatch-backend/pkg/errors"
	"github.com/shelfwatch/shelfwatch-backend/pkg/logger"
	"github.com/shelfwatch/shelfwatch-backend/pkg/pagination"
)

// ListParams are the query inputs for the item listing.
type ListParams struct {
	Search       string
	Category     string
	LowStockOnly bool
	Page         int
	PageSize     int
}

// ListResult is one page of items plus paging metadata.
type ListResult struct {
	Items      []models.InventoryItem `json:"items"`
	Total      int64                  `json:"total"`
	Page       int                    `json:"page"`
	PageSize   int                    `json:"pageSize"`
	TotalPages int                    `json:"totalPages"`
}

// Service exposes the mirrored-inventory operations.
type Service struct {
	repo   Repository
	logger *logger.Logger
}

// NewService wires the inventory service.
func NewService(repo Repository, logg *logger.Logger) *Service {
	return &Service{repo: repo, logger: logg}
}

// List returns one sorted, filtered page of the tenant's items.
func (s *Service) List(ctx context.Context, businessID uuid.UUID, params ListParams) (*ListResult, error) {
	page := pagination.NormalizePage(params.Page)
	size := pagination.NormalizePageSize(params.PageSize)

	items, total, err := s.repo.List(ctx, businessID, ListFilter{
		Search:       strings.TrimSpace(params.Search),
		Category:     strings.TrimSpace(params.Category),
		LowStockOnly: params.LowStockOnly,
		Offset:       pagination.Offset(page, size),
		Limit:        size,
	})
	if err != nil {
		return nil, err
	}

	return &ListResult{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   size,
		TotalPages: pagination.TotalPages(total, size),
	}, nil
}

// GetItem loads one item scoped to the tenant.
func (s *Service) GetItem(ctx context.Context, businessID, itemID uuid.UUID) (*models.InventoryItem, error) {
	return s.repo.FindByID(ctx, businessID, itemID)
}

// Stats aggregates the tenant's inventory counters.
func (s *Service) Stats(ctx context.Context, businessID uuid.UUID) (*Stats, error) {
	return s.repo.Stats(ctx, businessID)
}

// UpdateItemSettings applies the merchant-editable fields of one item.
func (s *Service) UpdateItemSettings(ctx context.Context, businessID, itemID uuid.UUID, settings ItemSettings) (*models.InventoryItem, error) {
	if settings.LowStockThreshold != nil && *settings.LowStockThreshold < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "low stock threshold must be non-negative")
	}

	item, err := s.repo.FindByID(ctx, businessID, itemID)
	if err != nil {
		return nil, err
	}

	if settings.LowStockThreshold != nil {
		item.LowStockThreshold = *settings.LowStockThreshold
	}
	if settings.TrackStock != nil {
		item.TrackStock = *settings.TrackStock
	}

	if err := s.repo.UpdateSettings(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// ApplyRemote mirrors one provider item into the tenant's inventory and
// reports whether a new row was created. New rows inherit the tenant's default
// threshold; existing rows only receive the provider-owned columns.
func (s *Service) ApplyRemote(ctx context.Context, business *models.Business, provider enums.Provider, remote providers.RemoteStockItem, syncedAt time.Time) (bool, error) {
	if remote.RemoteID == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "remote item id required")
	}

	existing, err := s.repo.FindByKey(ctx, business.ID, provider, remote.RemoteID)
	if err != nil && !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		return false, err
	}
	created := existing == nil

	item := models.InventoryItem{
		BusinessID:        business.ID,
		Provider:          provider,
		ProviderItemID:    remote.RemoteID,
		Name:              remote.Name,
		SKU:               remote.SKU,
		Category:          remote.Category,
		Quantity:          remote.Quantity,
		UnitPrice:         remote.UnitPrice,
		LowStockThreshold: business.DefaultLowStockThreshold,
		TrackStock:        true,
		LastSyncedAt:      syncedAt,
	}
	if err := s.repo.Upsert(ctx, &item); err != nil {
		return false, err
	}
	return created, nil
}

// LowStock returns every tracked item currently below its threshold.
func (s *Service) LowStock(ctx context.Context, businessID uuid.UUID) ([]models.InventoryItem, error) {
	return s.repo.LowStock(ctx, businessID)
}

// StampAlerts records that an alert covering the given items went out.
func (s *Service) StampAlerts(ctx context.Context, itemIDs []uuid.UUID, sentAt time.Time) error {
	return s.repo.StampAlerts(ctx, itemIDs, sentAt)
}
