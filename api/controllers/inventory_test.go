package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/shelfwatch/shelfwatch-backend/api/middleware"
	"github.com/shelfwatch/shelfwatch-backend/internal/inventory"
	"github.com/shelfwatch/shelfwatch-backend/pkg/db/models"
)

type stubInventoryService struct {
	list    func(ctx context.Context, businessID uuid.UUID, params inventory.ListParams) (*inventory.ListResult, error)
	getItem func(ctx context.Context, businessID, itemID uuid.UUID) (*models.InventoryItem, error)
	stats   func(ctx context.Context, businessID uuid.UUID) (*inventory.Stats, error)
	update  func(ctx context.Context, businessID, itemID uuid.UUID, settings inventory.ItemSettings) (*models.InventoryItem, error)
}

func (s *stubInventoryService) List(ctx context.Context, businessID uuid.UUID, params inventory.ListParams) (*inventory.ListResult, error) {
	if s.list != nil {
		return s.list(ctx, businessID, params)
	}
	return &inventory.ListResult{}, nil
}

func (s *stubInventoryService) GetItem(ctx context.Context, businessID, itemID uuid.UUID) (*models.InventoryItem, error) {
	if s.getItem != nil {
		return s.getItem(ctx, businessID, itemID)
	}
	return &models.InventoryItem{}, nil
}

func (s *stubInventoryService) Stats(ctx context.Context, businessID uuid.UUID) (*inventory.Stats, error) {
	if s.stats != nil {
		return s.stats(ctx, businessID)
	}
	return &inventory.Stats{}, nil
}

func (s *stubInventoryService) UpdateItemSettings(ctx context.Context, businessID, itemID uuid.UUID, settings inventory.ItemSettings) (*models.InventoryItem, error) {
	if s.update != nil {
		return s.update(ctx, businessID, itemID, settings)
	}
	return &models.InventoryItem{}, nil
}

func withBusiness(req *http.Request, id uuid.UUID) *http.Request {
	return req.WithContext(middleware.WithBusinessID(req.Context(), id))
}

func TestListInventoryPassesFilters(t *testing.T) {
	businessID := uuid.New()
	var captured inventory.ListParams
	svc := &stubInventoryService{
		list: func(ctx context.Context, gotBusiness uuid.UUID, params inventory.ListParams) (*inventory.ListResult, error) {
			if gotBusiness != businessID {
				t.Fatalf("expected business %s got %s", businessID, gotBusiness)
			}
			captured = params
			return &inventory.ListResult{Page: params.Page, PageSize: params.PageSize}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/inventory?page=3&pageSize=50&search=cola&category=drinks&lowStockOnly=true", nil)
	rec := httptest.NewRecorder()
	ListInventory(svc, nil).ServeHTTP(rec, withBusiness(req, businessID))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", rec.Code, rec.Body.String())
	}
	if captured.Page != 3 || captured.PageSize != 50 {
		t.Fatalf("paging not forwarded: %+v", captured)
	}
	if captured.Search != "cola" || captured.Category != "drinks" || !captured.LowStockOnly {
		t.Fatalf("filters not forwarded: %+v", captured)
	}
}

func TestListInventoryRejectsBadPaging(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/inventory?page=zero", nil)
	rec := httptest.NewRecorder()
	ListInventory(&stubInventoryService{}, nil).ServeHTTP(rec, withBusiness(req, uuid.New()))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-numeric page got %d", rec.Code)
	}
}

func TestListInventoryRequiresBusinessContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/inventory", nil)
	rec := httptest.NewRecorder()
	ListInventory(&stubInventoryService{}, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without business context got %d", rec.Code)
	}
}

func TestGetInventoryItemRejectsBadID(t *testing.T) {
	router := chi.NewRouter()
	router.Get("/inventory/{itemId}", GetInventoryItem(&stubInventoryService{}, nil))

	req := httptest.NewRequest(http.MethodGet, "/inventory/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, withBusiness(req, uuid.New()))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed id got %d", rec.Code)
	}
}

func TestUpdateInventoryItemRejectsNegativeThreshold(t *testing.T) {
	router := chi.NewRouter()
	router.Patch("/inventory/{itemId}", UpdateInventoryItem(&stubInventoryService{}, nil))

	body := `{"lowStockThreshold":-2}`
	req := httptest.NewRequest(http.MethodPatch, "/inventory/"+uuid.NewString(), strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, withBusiness(req, uuid.New()))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for negative threshold got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestUpdateInventoryItemForwardsSettings(t *testing.T) {
	itemID := uuid.New()
	var captured inventory.ItemSettings
	svc := &stubInventoryService{
		update: func(ctx context.Context, businessID, gotItem uuid.UUID, settings inventory.ItemSettings) (*models.InventoryItem, error) {
			if gotItem != itemID {
				t.Fatalf("expected item %s got %s", itemID, gotItem)
			}
			captured = settings
			return &models.InventoryItem{ID: itemID}, nil
		},
	}

	router := chi.NewRouter()
	router.Patch("/inventory/{itemId}", UpdateInventoryItem(svc, nil))

	body := `{"lowStockThreshold":7,"trackStock":false}`
	req := httptest.NewRequest(http.MethodPatch, "/inventory/"+itemID.String(), strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, withBusiness(req, uuid.New()))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", rec.Code, rec.Body.String())
	}
	if captured.LowStockThreshold == nil || *captured.LowStockThreshold != 7 {
		t.Fatalf("threshold not forwarded: %+v", captured)
	}
	if captured.TrackStock == nil || *captured.TrackStock {
		t.Fatalf("trackStock not forwarded: %+v", captured)
	}
}

func TestInventoryStats(t *testing.T) {
	svc := &stubInventoryService{
		stats: func(ctx context.Context, businessID uuid.UUID) (*inventory.Stats, error) {
			return &inventory.Stats{TotalItems: 12, LowStockItems: 3}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/inventory/stats", nil)
	rec := httptest.NewRecorder()
	InventoryStats(svc, nil).ServeHTTP(rec, withBusiness(req, uuid.New()))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"totalItems":12`) {
		t.Fatalf("stats not in response: %s", rec.Body.String())
	}
}
