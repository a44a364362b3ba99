package tenants

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfwatch/shelfwatch-backend/pkg/db/models"
	"github.com/shelfwatch/shelfwatch-backend/pkg/enums"
	pkgerrors "github.com/shelfwatch/shelfwatch-backend/pkg/errors"
)

type fakeRepo struct {
	findByIDFn            func(ctx context.Context, id uuid.UUID) (*models.Business, error)
	findByMerchantFn      func(ctx context.Context, provider enums.Provider, merchantID string) (*models.Business, error)
	listConnectedFn       func(ctx context.Context) ([]models.Business, error)
	updateAlertSettingsFn func(ctx context.Context, business *models.Business) error
}

func (f *fakeRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Business, error) {
	return f.findByIDFn(ctx, id)
}

func (f *fakeRepo) FindByMerchant(ctx context.Context, provider enums.Provider, merchantID string) (*models.Business, error) {
	return f.findByMerchantFn(ctx, provider, merchantID)
}

func (f *fakeRepo) ListConnected(ctx context.Context) ([]models.Business, error) {
	return f.listConnectedFn(ctx)
}

func (f *fakeRepo) UpdateAlertSettings(ctx context.Context, business *models.Business) error {
	if f.updateAlertSettingsFn == nil {
		return nil
	}
	return f.updateAlertSettingsFn(ctx, business)
}

func boolPtr(v bool) *bool    { return &v }
func strPtr(v string) *string { return &v }
func intPtr(v int) *int       { return &v }

func TestUpdateAlertSettingsAppliesPartialUpdate(t *testing.T) {
	id := uuid.New()
	stored := &models.Business{
		ID:                       id,
		Name:                     "Corner Deli",
		AlertChannels:            pq.StringArray{},
		DefaultLowStockThreshold: 10,
	}

	var saved *models.Business
	repo := &fakeRepo{
		findByIDFn: func(_ context.Context, got uuid.UUID) (*models.Business, error) {
			assert.Equal(t, id, got)
			return stored, nil
		},
		updateAlertSettingsFn: func(_ context.Context, business *models.Business) error {
			saved = business
			return nil
		},
	}

	service := NewService(repo, nil)
	business, err := service.UpdateAlertSettings(context.Background(), id, AlertSettingsInput{
		AlertsEnabled:            boolPtr(true),
		AlertChannels:            []string{"sms", "email"},
		AlertSMSNumber:           strPtr("+1 415 555 0100"),
		AlertEmail:               strPtr("owner@cornerdeli.test"),
		DefaultLowStockThreshold: intPtr(5),
	})

	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.True(t, business.AlertsEnabled)
	assert.Equal(t, pq.StringArray{"sms", "email"}, business.AlertChannels)
	assert.Equal(t, 5, business.DefaultLowStockThreshold)
}

func TestUpdateAlertSettingsRejectsUnknownChannel(t *testing.T) {
	repo := &fakeRepo{
		findByIDFn: func(context.Context, uuid.UUID) (*models.Business, error) {
			return &models.Business{ID: uuid.New()}, nil
		},
	}

	service := NewService(repo, nil)
	_, err := service.UpdateAlertSettings(context.Background(), uuid.New(), AlertSettingsInput{
		AlertChannels: []string{"pager"},
	})

	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestUpdateAlertSettingsRequiresDestinationForEnabledChannel(t *testing.T) {
	repo := &fakeRepo{
		findByIDFn: func(context.Context, uuid.UUID) (*models.Business, error) {
			return &models.Business{ID: uuid.New(), AlertChannels: pq.StringArray{}}, nil
		},
	}

	service := NewService(repo, nil)
	_, err := service.UpdateAlertSettings(context.Background(), uuid.New(), AlertSettingsInput{
		AlertsEnabled: boolPtr(true),
		AlertChannels: []string{"sms"},
	})

	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestFindByMerchantRequiresMerchantID(t *testing.T) {
	service := NewService(&fakeRepo{}, nil)
	_, err := service.FindByMerchant(context.Background(), enums.ProviderSquare, "  ")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
