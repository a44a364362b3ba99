package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/shelfwatch/shelfwatch-backend/pkg/enums"
)

// ProviderCredential stores the POS connection for a tenant. A tenant connects
// at most one provider; tokens are written by the external OAuth collaborator.
type ProviderCredential struct {
	ID          uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BusinessID  uuid.UUID      `gorm:"column:business_id;type:uuid;not null;uniqueIndex"`
	Provider    enums.Provider `gorm:"column:provider;not null;index:idx_credentials_merchant,priority:1"`
	MerchantID  string         `gorm:"column:merchant_id;not null;index:idx_credentials_merchant,priority:2"`
	AccessToken string         `gorm:"column:access_token;not null" json:"-"`
	Environment string         `gorm:"column:environment;not null;default:'production'"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
