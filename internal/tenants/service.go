package tenants

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/shelfwatch/shelfwatch-backend/pkg/db/models"
	"github.com/shelfwatch/shelfwatch-backend/pkg/enums"
	pkgerrors "github.com/shelfwatch/shelfwatch-backend/pkg/errors"
	"github.com/shelfwatch/shelfwatch-backend/pkg/logger"
)

// AlertSettingsInput carries a partial update of a tenant's alert preferences.
// Nil fields are left untouched.
type AlertSettingsInput struct {
	AlertsEnabled            *bool
	AlertChannels            []string
	AlertSMSNumber           *string
	AlertEmail               *string
	DefaultLowStockThreshold *int
}

// Service exposes tenant lookup and settings operations.
type Service struct {
	repo   Repository
	logger *logger.Logger
}

// NewService wires the tenant service.
func NewService(repo Repository, logg *logger.Logger) *Service {
	return &Service{repo: repo, logger: logg}
}

// GetBusiness loads one tenant with its provider credential.
func (s *Service) GetBusiness(ctx context.Context, id uuid.UUID) (*models.Business, error) {
	return s.repo.FindByID(ctx, id)
}

// FindByMerchant resolves the tenant that owns a provider merchant id. Used by
// webhook ingestion where only the provider's identifiers are available.
func (s *Service) FindByMerchant(ctx context.Context, provider enums.Provider, merchantID string) (*models.Business, error) {
	if strings.TrimSpace(merchantID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "merchant id required")
	}
	return s.repo.FindByMerchant(ctx, provider, merchantID)
}

// ListConnected returns every tenant with a provider credential on file.
func (s *Service) ListConnected(ctx context.Context) ([]models.Business, error) {
	return s.repo.ListConnected(ctx)
}

// UpdateAlertSettings applies a partial settings update after validating the
// channel list against the tenant's configured destinations.
func (s *Service) UpdateAlertSettings(ctx context.Context, id uuid.UUID, input AlertSettingsInput) (*models.Business, error) {
	business, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.AlertsEnabled != nil {
		business.AlertsEnabled = *input.AlertsEnabled
	}
	if input.AlertChannels != nil {
		channels := pq.StringArray{}
		for _, raw := range input.AlertChannels {
			channel, err := enums.ParseAlertChannel(raw)
			if err != nil {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
			}
			channels = append(channels, string(channel))
		}
		business.AlertChannels = channels
	}
	if input.AlertSMSNumber != nil {
		trimmed := strings.TrimSpace(*input.AlertSMSNumber)
		if trimmed == "" {
			business.AlertSMSNumber = nil
		} else {
			business.AlertSMSNumber = &trimmed
		}
	}
	if input.AlertEmail != nil {
		trimmed := strings.TrimSpace(*input.AlertEmail)
		if trimmed == "" {
			business.AlertEmail = nil
		} else {
			business.AlertEmail = &trimmed
		}
	}
	if input.DefaultLowStockThreshold != nil {
		if *input.DefaultLowStockThreshold < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "default low stock threshold must be non-negative")
		}
		business.DefaultLowStockThreshold = *input.DefaultLowStockThreshold
	}

	if business.AlertsEnabled {
		if business.ChannelEnabled(enums.AlertChannelSMS) && business.AlertSMSNumber == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "sms channel requires a destination number")
		}
		if business.ChannelEnabled(enums.AlertChannelEmail) && business.AlertEmail == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "email channel requires a destination address")
		}
	}

	if err := s.repo.UpdateAlertSettings(ctx, business); err != nil {
		return nil, err
	}
	if s.logger != nil {
		s.logger.Info(s.logger.WithBusinessID(ctx, business.ID.String()), "alert settings updated")
	}
	return business, nil
}
