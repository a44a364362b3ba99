package tenants

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shelfwatch/shelfwatch-backend/pkg/db"
	"github.com/shelfwatch/shelfwatch-backend/pkg/db/models"
	"github.com/shelfwatch/shelfwatch-backend/pkg/enums"
	pkgerrors "github.com/shelfwatch/shelfwatch-backend/pkg/errors"
)

// Repository is the persistence surface for tenants.
type Repository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Business, error)
	FindByMerchant(ctx context.Context, provider enums.Provider, merchantID string) (*models.Business, error)
	ListConnected(ctx context.Context) ([]models.Business, error)
	UpdateAlertSettings(ctx context.Context, business *models.Business) error
}

type gormRepository struct {
	client *db.Client
}

// NewRepository builds the GORM-backed tenant repository.
func NewRepository(client *db.Client) Repository {
	return &gormRepository{client: client}
}

func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Business, error) {
	var business models.Business
	err := r.client.DB().WithContext(ctx).
		Preload("Credential").
		First(&business, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "business not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find business")
	}
	return &business, nil
}

func (r *gormRepository) FindByMerchant(ctx context.Context, provider enums.Provider, merchantID string) (*models.Business, error) {
	var credential models.ProviderCredential
	err := r.client.DB().WithContext(ctx).
		Where("provider = ? AND merchant_id = ?", provider, merchantID).
		First(&credential).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no business for merchant")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "find credential by merchant")
	}
	return r.FindByID(ctx, credential.BusinessID)
}

func (r *gormRepository) ListConnected(ctx context.Context) ([]models.Business, error) {
	var businesses []models.Business
	err := r.client.DB().WithContext(ctx).
		Joins("JOIN provider_credentials ON provider_credentials.business_id = businesses.id").
		Preload("Credential").
		Order("businesses.created_at ASC").
		Find(&businesses).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list connected businesses")
	}
	return businesses, nil
}

func (r *gormRepository) UpdateAlertSettings(ctx context.Context, business *models.Business) error {
	err := r.client.DB().WithContext(ctx).
		Model(&models.Business{}).
		Where("id = ?", business.ID).
		Updates(map[string]any{
			"alerts_enabled":              business.AlertsEnabled,
			"alert_channels":              business.AlertChannels,
			"alert_sms_number":            business.AlertSMSNumber,
			"alert_email":                 business.AlertEmail,
			"default_low_stock_threshold": business.DefaultLowStockThreshold,
		}).Error
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update alert settings")
	}
	return nil
}
