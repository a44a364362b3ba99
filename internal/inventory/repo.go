package inventory

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/shelfwatch/shelfwatch-backend/pkg/db"
	"github.com/shelfwatch/shelfwatch-backend/pkg/db/models"
	"github.com/shelfwatch/shelfwatch-backend/pkg/enums"
	pkgerrors "github.com/shelfwatch/shelfwatch-backend/pkg/errors"
)

// stockOrderExpr ranks out-of-stock items first, then low-stock, then the
// rest, alphabetically within each band.
const stockOrderExpr = "CASE " +
	"WHEN quantity <= 0 THEN 0 " +
	"WHEN track_stock AND quantity < low_stock_threshold THEN 1 " +
	"ELSE 2 END, LOWER(name) ASC"

// ListFilter narrows the tenant's item listing.
type ListFilter struct {
	Search       string
	Category     string
	LowStockOnly bool
	Offset       int
	Limit        int
}

// Stats aggregates one tenant's mirrored inventory. LastSyncedAt is the most
// recent sync touch across all items; nil when the tenant has none.
type Stats struct {
	TotalItems    int64      `json:"totalItems"`
	TrackedItems  int64      `json:"trackedItems"`
	LowStockItems int64      `json:"lowStockItems"`
	OutOfStock    int64      `json:"outOfStockItems"`
	LastSyncedAt  *time.Time `json:"lastSyncedAt"`
}

// ItemSettings is the merchant-editable slice of an item. Nil fields are left
// untouched.
type ItemSettings struct {
	LowStockThreshold *int
	TrackStock        *bool
}

// Repository is the persistence surface for mirrored inventory.
type Repository interface {
	List(ctx context.Context, businessID uuid.UUID, filter ListFilter) ([]models.InventoryItem, int64, error)
	FindByID(ctx context.Context, businessID, itemID uuid.UUID) (*models.InventoryItem, error)
	FindByKey(ctx context.Context, businessID uuid.UUID, provider enums.Provider, providerItemID string) (*models.InventoryItem, error)
	Upsert(ctx context.Context, item *models.InventoryItem) error
	UpdateSettings(ctx context.Context, item *models.InventoryItem) error
	Stats(ctx context.Context, businessID uuid.UUID) (*Stats, error)
	LowStock(ctx context.Context, businessID uuid.UUID) ([]models.InventoryItem, error)
	StampAlerts(ctx context.Context, itemIDs []uuid.UUID, sentAt time.Time) error
}

type gormRepository struct {
	client *db.Client
}

// NewRepository builds the GORM-backed inventory repository.
func NewRepository(client *db.Client) Repository {
	return &gormRepository{client: client}
}

func (r *gormRepository) List(ctx context.Context, businessID uuid.UUID, filter ListFilter) ([]models.InventoryItem, int64, error) {
	query := r.client.DB().WithContext(ctx).
		Model(&models.InventoryItem{}).
		Where("business_id = ?", businessID)

	// LOWER/LIKE instead of ILIKE so the query also runs on sqlite.
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"(LOWER(name) LIKE ? OR LOWER(sku) LIKE ? OR LOWER(category) LIKE ?)",
			pattern, pattern, pattern,
		)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", filter.Category)
	}
	if filter.LowStockOnly {
		query = query.Where("track_stock AND quantity < low_stock_threshold")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count inventory items")
	}

	var items []models.InventoryItem
	err := query.
		Order(stockOrderExpr).
		Offset(filter.Offset).
		Limit(filter.Limit).
		Find(&items).Error
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list inventory items")
	}
	return items, total, nil
}

func (r *gormRepository) FindByID(ctx context.Context, businessID, itemID uuid.UUID) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := r.client.DB().WithContext(ctx).
		Where("business_id = ? AND id = ?", businessID, itemID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find inventory item")
	}
	return &item, nil
}

func (r *gormRepository) FindByKey(ctx context.Context, businessID uuid.UUID, provider enums.Provider, providerItemID string) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := r.client.DB().WithContext(ctx).
		Where("business_id = ? AND provider = ? AND provider_item_id = ?", businessID, provider, providerItemID).
		First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find inventory item by key")
	}
	return &item, nil
}

// Upsert writes the provider-owned columns of one item. The merchant-owned
// columns (threshold, tracking flag) and the alert stamp are never assigned on
// conflict, so sync runs cannot clobber them.
func (r *gormRepository) Upsert(ctx context.Context, item *models.InventoryItem) error {
	err := r.client.DB().WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{
				{Name: "business_id"},
				{Name: "provider"},
				{Name: "provider_item_id"},
			},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "sku", "category", "quantity", "unit_price", "last_synced_at", "updated_at",
			}),
		}).
		Create(item).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "upsert inventory item")
	}
	return nil
}

func (r *gormRepository) UpdateSettings(ctx context.Context, item *models.InventoryItem) error {
	err := r.client.DB().WithContext(ctx).
		Model(&models.InventoryItem{}).
		Where("id = ?", item.ID).
		Updates(map[string]any{
			"low_stock_threshold": item.LowStockThreshold,
			"track_stock":         item.TrackStock,
		}).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update item settings")
	}
	return nil
}

func (r *gormRepository) Stats(ctx context.Context, businessID uuid.UUID) (*Stats, error) {
	var stats Stats
	err := r.client.DB().WithContext(ctx).
		Model(&models.InventoryItem{}).
		Select(
			"COUNT(*) AS total_items, "+
				"SUM(CASE WHEN track_stock THEN 1 ELSE 0 END) AS tracked_items, "+
				"SUM(CASE WHEN track_stock AND quantity < low_stock_threshold THEN 1 ELSE 0 END) AS low_stock_items, "+
				"SUM(CASE WHEN quantity <= 0 THEN 1 ELSE 0 END) AS out_of_stock, "+
				"MAX(last_synced_at) AS last_synced_at",
		).
		Where("business_id = ?", businessID).
		Scan(&stats).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "aggregate inventory stats")
	}
	return &stats, nil
}

func (r *gormRepository) LowStock(ctx context.Context, businessID uuid.UUID) ([]models.InventoryItem, error) {
	var items []models.InventoryItem
	err := r.client.DB().WithContext(ctx).
		Where("business_id = ?", businessID).
		Where("track_stock AND quantity < low_stock_threshold").
		Order(stockOrderExpr).
		Find(&items).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list low stock items")
	}
	return items, nil
}

func (r *gormRepository) StampAlerts(ctx context.Context, itemIDs []uuid.UUID, sentAt time.Time) error {
	if len(itemIDs) == 0 {
		return nil
	}
	err := r.client.DB().WithContext(ctx).
		Model(&models.InventoryItem{}).
		Where("id IN ?", itemIDs).
		Update("last_alert_sent_at", sentAt).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "stamp alert timestamps")
	}
	return nil
}
