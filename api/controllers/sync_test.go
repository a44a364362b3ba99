package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/shelfwatch/shelfwatch-backend/internal/stocksync"
	pkgerrors "github.com/shelfwatch/shelfwatch-backend/pkg/errors"
)

type stubSyncService struct {
	sync func(ctx context.Context, businessID uuid.UUID) (*stocksync.Run, error)
}

func (s *stubSyncService) SyncBusiness(ctx context.Context, businessID uuid.UUID) (*stocksync.Run, error) {
	if s.sync != nil {
		return s.sync(ctx, businessID)
	}
	return &stocksync.Run{BusinessID: businessID}, nil
}

func TestTriggerSyncReturnsRun(t *testing.T) {
	businessID := uuid.New()
	svc := &stubSyncService{
		sync: func(ctx context.Context, gotID uuid.UUID) (*stocksync.Run, error) {
			if gotID != businessID {
				t.Fatalf("expected business %s got %s", businessID, gotID)
			}
			return &stocksync.Run{BusinessID: businessID, Pages: 2, Synced: 40}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sync", nil)
	rec := httptest.NewRecorder()
	TriggerSync(svc, nil).ServeHTTP(rec, withBusiness(req, businessID))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestTriggerSyncNotConnected(t *testing.T) {
	svc := &stubSyncService{
		sync: func(ctx context.Context, businessID uuid.UUID) (*stocksync.Run, error) {
			return nil, pkgerrors.New(pkgerrors.CodeNotConnected, "business has no provider connection")
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sync", nil)
	rec := httptest.NewRecorder()
	TriggerSync(svc, nil).ServeHTTP(rec, withBusiness(req, uuid.New()))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for disconnected tenant got %d", rec.Code)
	}
}

func TestTriggerSyncPartialRun(t *testing.T) {
	svc := &stubSyncService{
		sync: func(ctx context.Context, businessID uuid.UUID) (*stocksync.Run, error) {
			run := &stocksync.Run{BusinessID: businessID, Pages: 1, Synced: 20, Errors: []string{"page 2: rate limited"}}
			return run, pkgerrors.New(pkgerrors.CodeRateLimit, "provider rate limit persisted")
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sync", nil)
	rec := httptest.NewRecorder()
	TriggerSync(svc, nil).ServeHTTP(rec, withBusiness(req, uuid.New()))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 for aborted run got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestTriggerSyncRequiresBusinessContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sync", nil)
	rec := httptest.NewRecorder()
	TriggerSync(&stubSyncService{}, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without business context got %d", rec.Code)
	}
}
