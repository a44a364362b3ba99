package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/shelfwatch/shelfwatch-backend/pkg/enums"
)

// Business is one tenant: a merchant whose POS inventory we mirror.
type Business struct {
	ID                       uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name                     string              `gorm:"column:name;not null"`
	AlertsEnabled            bool                `gorm:"column:alerts_enabled;not null;default:false"`
	AlertChannels            pq.StringArray      `gorm:"column:alert_channels;type:text[];not null;default:ARRAY[]::text[]"`
	AlertSMSNumber           *string             `gorm:"column:alert_sms_number"`
	AlertEmail               *string             `gorm:"column:alert_email"`
	DefaultLowStockThreshold int                 `gorm:"column:default_low_stock_threshold;not null;default:10"`
	Credential               *ProviderCredential `gorm:"foreignKey:BusinessID;constraint:OnDelete:CASCADE"`
	CreatedAt                time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt                time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// ChannelEnabled reports whether the tenant opted into the given channel.
func (b Business) ChannelEnabled(channel enums.AlertChannel) bool {
	for _, c := range b.AlertChannels {
		if c == string(channel) {
			return true
		}
	}
	return false
}

// Connected reports whether the tenant has a usable provider credential.
func (b Business) Connected() bool {
	return b.Credential != nil && b.Credential.AccessToken != ""
}
