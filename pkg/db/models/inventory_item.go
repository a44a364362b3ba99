package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shelfwatch/shelfwatch-backend/pkg/enums"
)

// InventoryItem mirrors one POS item for one tenant. Identity is
// (business_id, provider, provider_item_id); quantity is authoritative only as
// of LastSyncedAt. Rows are never deleted — an item the provider removed
// simply stops receiving updates.
type InventoryItem struct {
	ID                uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BusinessID        uuid.UUID        `gorm:"column:business_id;type:uuid;not null;uniqueIndex:idx_inventory_identity,priority:1"`
	Provider          enums.Provider   `gorm:"column:provider;not null;uniqueIndex:idx_inventory_identity,priority:2"`
	ProviderItemID    string           `gorm:"column:provider_item_id;not null;uniqueIndex:idx_inventory_identity,priority:3"`
	Name              string           `gorm:"column:name;not null"`
	SKU               *string          `gorm:"column:sku"`
	Category          *string          `gorm:"column:category"`
	Quantity          int              `gorm:"column:quantity;not null;default:0"`
	LowStockThreshold int              `gorm:"column:low_stock_threshold;not null;default:0"`
	UnitPrice         *decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2)"`
	TrackStock        bool             `gorm:"column:track_stock;not null;default:true"`
	LastAlertSentAt   *time.Time       `gorm:"column:last_alert_sent_at"`
	LastSyncedAt      time.Time        `gorm:"column:last_synced_at;not null"`
	CreatedAt         time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

// IsLow reports whether the item is below its threshold (strict comparison).
func (i InventoryItem) IsLow() bool {
	return i.TrackStock && i.Quantity < i.LowStockThreshold
}

// IsOut reports whether the item is fully depleted.
func (i InventoryItem) IsOut() bool {
	return i.Quantity <= 0
}
