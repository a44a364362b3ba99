package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/shelfwatch/shelfwatch-backend/api/middleware"
	"github.com/shelfwatch/shelfwatch-backend/api/responses"
	"github.com/shelfwatch/shelfwatch-backend/api/validators"
	"github.com/shelfwatch/shelfwatch-backend/internal/alerts"
	"github.com/shelfwatch/shelfwatch-backend/internal/tenants"
	"github.com/shelfwatch/shelfwatch-backend/pkg/db/models"
	pkgerrors "github.com/shelfwatch/shelfwatch-backend/pkg/errors"
	"github.com/shelfwatch/shelfwatch-backend/pkg/logger"
)

// TenantService is the slice of the tenant service the HTTP layer uses.
type TenantService interface {
	GetBusiness(ctx context.Context, id uuid.UUID) (*models.Business, error)
	UpdateAlertSettings(ctx context.Context, id uuid.UUID, input tenants.AlertSettingsInput) (*models.Business, error)
}

// AlertService runs on-demand low-stock evaluations.
type AlertService interface {
	CheckBusiness(ctx context.Context, business *models.Business) (*alerts.CheckResult, error)
}

type updateAlertSettingsRequest struct {
	AlertsEnabled            *bool    `json:"alertsEnabled,omitempty"`
	AlertChannels            []string `json:"alertChannels,omitempty"`
	AlertSMSNumber           *string  `json:"alertSmsNumber,omitempty"`
	AlertEmail               *string  `json:"alertEmail,omitempty" validate:"omitempty,email"`
	DefaultLowStockThreshold *int     `json:"defaultLowStockThreshold,omitempty" validate:"omitempty,min=0"`
}

// TriggerAlertCheck runs an on-demand low-stock evaluation for the tenant.
func TriggerAlertCheck(tenantSvc TenantService, alertSvc AlertService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if tenantSvc == nil || alertSvc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "alert service unavailable"))
			return
		}

		businessID, ok := middleware.BusinessIDFromContext(ctx)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "business context missing"))
			return
		}

		business, err := tenantSvc.GetBusiness(ctx, businessID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := alertSvc.CheckBusiness(ctx, business)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// UpdateAlertSettings applies a partial update of the tenant's alert
// preferences.
func UpdateAlertSettings(svc TenantService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tenant service unavailable"))
			return
		}

		businessID, ok := middleware.BusinessIDFromContext(ctx)
		if !ok {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "business context missing"))
			return
		}

		var body updateAlertSettingsRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		business, err := svc.UpdateAlertSettings(ctx, businessID, tenants.AlertSettingsInput{
			AlertsEnabled:            body.AlertsEnabled,
			AlertChannels:            body.AlertChannels,
			AlertSMSNumber:           body.AlertSMSNumber,
			AlertEmail:               body.AlertEmail,
			DefaultLowStockThreshold: body.DefaultLowStockThreshold,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, business)
	}
}
