package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/shelfwatch/shelfwatch-backend/internal/alerts"
	"github.com/shelfwatch/shelfwatch-backend/internal/inventory"
	"github.com/shelfwatch/shelfwatch-backend/internal/stocksync"
	"github.com/shelfwatch/shelfwatch-backend/internal/tenants"
	"github.com/shelfwatch/shelfwatch-backend/internal/webhooks"
	"github.com/shelfwatch/shelfwatch-backend/pkg/config"
	"github.com/shelfwatch/shelfwatch-backend/pkg/db/models"
	"github.com/shelfwatch/shelfwatch-backend/pkg/logger"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

type stubInventoryService struct{}

func (stubInventoryService) List(ctx context.Context, businessID uuid.UUID, params inventory.ListParams) (*inventory.ListResult, error) {
	return &inventory.ListResult{Page: params.Page, PageSize: params.PageSize}, nil
}

func (stubInventoryService) GetItem(ctx context.Context, businessID, itemID uuid.UUID) (*models.InventoryItem, error) {
	return &models.InventoryItem{ID: itemID, BusinessID: businessID}, nil
}

func (stubInventoryService) Stats(ctx context.Context, businessID uuid.UUID) (*inventory.Stats, error) {
	return &inventory.Stats{}, nil
}

func (stubInventoryService) UpdateItemSettings(ctx context.Context, businessID, itemID uuid.UUID, settings inventory.ItemSettings) (*models.InventoryItem, error) {
	return &models.InventoryItem{ID: itemID, BusinessID: businessID}, nil
}

type stubTenantService struct{}

func (stubTenantService) GetBusiness(ctx context.Context, id uuid.UUID) (*models.Business, error) {
	return &models.Business{ID: id}, nil
}

func (stubTenantService) UpdateAlertSettings(ctx context.Context, id uuid.UUID, input tenants.AlertSettingsInput) (*models.Business, error) {
	return &models.Business{ID: id}, nil
}

type stubSyncService struct{}

func (stubSyncService) SyncBusiness(ctx context.Context, businessID uuid.UUID) (*stocksync.Run, error) {
	return &stocksync.Run{BusinessID: businessID}, nil
}

type stubAlertService struct{}

func (stubAlertService) CheckBusiness(ctx context.Context, business *models.Business) (*alerts.CheckResult, error) {
	return &alerts.CheckResult{}, nil
}

type stubWebhookService struct{}

func (stubWebhookService) HandleStockEvent(ctx context.Context, event webhooks.StockEvent) (*webhooks.Result, error) {
	return &webhooks.Result{Applied: true}, nil
}

func newTestRouter() http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(RouterParams{
		Config: &config.Config{
			Square: config.SquareConfig{WebhookSecret: "sq-secret"},
			Clover: config.CloverConfig{WebhookSecret: "clv-secret"},
		},
		Logger:    logg,
		Database:  stubPinger{},
		Cache:     stubPinger{},
		Inventory: stubInventoryService{},
		Tenants:   stubTenantService{},
		Sync:      stubSyncService{},
		Alerts:    stubAlertService{},
		Webhooks:  stubWebhookService{},
	})
}

func TestHealthLive(t *testing.T) {
	router := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
}

func TestHealthReady(t *testing.T) {
	router := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestTenantRoutesRequireBusinessHeader(t *testing.T) {
	router := newTestRouter()

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/inventory"},
		{http.MethodGet, "/api/v1/inventory/stats"},
		{http.MethodPost, "/api/v1/sync"},
		{http.MethodPost, "/api/v1/alerts/check"},
	}
	for _, tc := range paths {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Fatalf("%s %s: expected 403 without header got %d", tc.method, tc.path, rec.Code)
		}
	}
}

func TestTenantRoutesRejectMalformedBusinessHeader(t *testing.T) {
	router := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/inventory", nil)
	req.Header.Set("X-Business-Id", "not-a-uuid")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed header got %d", rec.Code)
	}
}

func TestInventoryListWithBusinessHeader(t *testing.T) {
	router := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/inventory?page=2", nil)
	req.Header.Set("X-Business-Id", uuid.NewString())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"page":2`) {
		t.Fatalf("paging not surfaced: %s", rec.Body.String())
	}
}

func TestWebhookRoutesSkipBusinessHeader(t *testing.T) {
	router := newTestRouter()

	// No tenant header, but a bad signature: the webhook path must answer
	// with 401, not the 403 of the tenant middleware.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/square", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unsigned webhook got %d", rec.Code)
	}
}

func TestRequestIDHeaderEchoed(t *testing.T) {
	router := newTestRouter()
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set("X-Request-Id", "req-123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-Id"); got != "req-123" {
		t.Fatalf("expected request id echoed, got %q", got)
	}
}
