package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/shelfwatch/shelfwatch-backend/internal/alerts"
	"github.com/shelfwatch/shelfwatch-backend/internal/tenants"
	"github.com/shelfwatch/shelfwatch-backend/pkg/db/models"
)

type stubTenantService struct {
	get    func(ctx context.Context, id uuid.UUID) (*models.Business, error)
	update func(ctx context.Context, id uuid.UUID, input tenants.AlertSettingsInput) (*models.Business, error)
}

func (s *stubTenantService) GetBusiness(ctx context.Context, id uuid.UUID) (*models.Business, error) {
	if s.get != nil {
		return s.get(ctx, id)
	}
	return &models.Business{ID: id}, nil
}

func (s *stubTenantService) UpdateAlertSettings(ctx context.Context, id uuid.UUID, input tenants.AlertSettingsInput) (*models.Business, error) {
	if s.update != nil {
		return s.update(ctx, id, input)
	}
	return &models.Business{ID: id}, nil
}

type stubAlertService struct {
	check func(ctx context.Context, business *models.Business) (*alerts.CheckResult, error)
}

func (s *stubAlertService) CheckBusiness(ctx context.Context, business *models.Business) (*alerts.CheckResult, error) {
	if s.check != nil {
		return s.check(ctx, business)
	}
	return &alerts.CheckResult{}, nil
}

func TestTriggerAlertCheck(t *testing.T) {
	businessID := uuid.New()
	alertSvc := &stubAlertService{
		check: func(ctx context.Context, business *models.Business) (*alerts.CheckResult, error) {
			if business.ID != businessID {
				t.Fatalf("expected business %s got %s", businessID, business.ID)
			}
			return &alerts.CheckResult{
				LowStockItems: 1,
				AlertsSent:    1,
				Items:         []models.InventoryItem{{Name: "Espresso Beans", Quantity: 2}},
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/alerts/check", nil)
	rec := httptest.NewRecorder()
	TriggerAlertCheck(&stubTenantService{}, alertSvc, nil).ServeHTTP(rec, withBusiness(req, businessID))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"lowStockItems":1`) {
		t.Fatalf("check result missing: %s", rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"Espresso Beans"`) {
		t.Fatalf("low stock items missing from response: %s", rec.Body.String())
	}
}

func TestUpdateAlertSettingsForwardsPartialInput(t *testing.T) {
	var captured tenants.AlertSettingsInput
	svc := &stubTenantService{
		update: func(ctx context.Context, id uuid.UUID, input tenants.AlertSettingsInput) (*models.Business, error) {
			captured = input
			return &models.Business{ID: id}, nil
		},
	}

	body := `{"alertsEnabled":true,"alertChannels":["sms"],"alertSmsNumber":"+15551234567"}`
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/settings/alerts", strings.NewReader(body))
	rec := httptest.NewRecorder()
	UpdateAlertSettings(svc, nil).ServeHTTP(rec, withBusiness(req, uuid.New()))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", rec.Code, rec.Body.String())
	}
	if captured.AlertsEnabled == nil || !*captured.AlertsEnabled {
		t.Fatalf("alertsEnabled not forwarded: %+v", captured)
	}
	if len(captured.AlertChannels) != 1 || captured.AlertChannels[0] != "sms" {
		t.Fatalf("channels not forwarded: %+v", captured)
	}
	if captured.DefaultLowStockThreshold != nil {
		t.Fatalf("untouched field should stay nil: %+v", captured)
	}
}

func TestUpdateAlertSettingsRejectsBadEmail(t *testing.T) {
	body := `{"alertEmail":"not-an-email"}`
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/settings/alerts", strings.NewReader(body))
	rec := httptest.NewRecorder()
	UpdateAlertSettings(&stubTenantService{}, nil).ServeHTTP(rec, withBusiness(req, uuid.New()))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid email got %d", rec.Code)
	}
}

func TestUpdateAlertSettingsRejectsUnknownFields(t *testing.T) {
	body := `{"alertsEnabled":true,"bogus":1}`
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/settings/alerts", strings.NewReader(body))
	rec := httptest.NewRecorder()
	UpdateAlertSettings(&stubTenantService{}, nil).ServeHTTP(rec, withBusiness(req, uuid.New()))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field got %d", rec.Code)
	}
}
