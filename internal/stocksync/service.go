package stocksync

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shelfwatch/shelfwatch-backend/internal/alerts"
	"github.com/shelfwatch/shelfwatch-backend/internal/providers"
	"github.com/shelfwatch/shelfwatch-backend/pkg/config"
	"github.com/shelfwatch/shelfwatch-backend/pkg/db/models"
	"github.com/shelfwatch/shelfwatch-backend/pkg/enums"
	pkgerrors "github.com/shelfwatch/shelfwatch-backend/pkg/errors"
	"github.com/shelfwatch/shelfwatch-backend/pkg/logger"
	"github.com/shelfwatch/shelfwatch-backend/pkg/metrics"
)

// tenantStore is the slice of the tenant service the orchestrator reads.
type tenantStore interface {
	GetBusiness(ctx context.Context, id uuid.UUID) (*models.Business, error)
	ListConnected(ctx context.Context) ([]models.Business, error)
}

// itemWriter mirrors provider items into local inventory.
type itemWriter interface {
	ApplyRemote(ctx context.Context, business *models.Business, provider enums.Provider, remote providers.RemoteStockItem, syncedAt time.Time) (bool, error)
}

// alertChecker runs the post-sync low-stock evaluation.
type alertChecker interface {
	CheckBusiness(ctx context.Context, business *models.Business) (*alerts.CheckResult, error)
}

// adapterRegistry resolves the provider adapter for a tenant.
type adapterRegistry interface {
	For(provider enums.Provider) (providers.Adapter, error)
}

// Run is the outcome of one tenant sync. Item-level failures are collected in
// Errors without aborting the run; Alerts is nil when the sync failed before
// the alert check could run.
type Run struct {
	BusinessID uuid.UUID           `json:"businessId"`
	Provider   enums.Provider      `json:"provider"`
	Pages      int                 `json:"pages"`
	Synced     int                 `json:"synced"`
	Created    int                 `json:"created"`
	Updated    int                 `json:"updated"`
	Errors     []string            `json:"errors,omitempty"`
	Alerts     *alerts.CheckResult `json:"alerts,omitempty"`
	StartedAt  time.Time           `json:"startedAt"`
	FinishedAt time.Time           `json:"finishedAt"`
}

// Service orchestrates full inventory syncs.
type Service struct {
	tenants  tenantStore
	registry adapterRegistry
	items    itemWriter
	alerts   alertChecker
	cfg      config.SyncConfig
	logger   *logger.Logger
	metrics  *metrics.SyncMetrics

	now func() time.Time
}

// NewService wires the sync orchestrator.
func NewService(
	tenants tenantStore,
	registry adapterRegistry,
	items itemWriter,
	checker alertChecker,
	cfg config.SyncConfig,
	logg *logger.Logger,
	m *metrics.SyncMetrics,
) *Service {
	return &Service{
		tenants:  tenants,
		registry: registry,
		items:    items,
		alerts:   checker,
		cfg:      cfg,
		logger:   logg,
		metrics:  m,
		now:      time.Now,
	}
}

// SyncBusiness walks every provider page for one tenant and mirrors the items.
// A tenant without a provider connection is rejected up front. Page fetch
// failures end the run; item-level failures are recorded and skipped so one
// bad item cannot block the rest of the catalog.
func (s *Service) SyncBusiness(ctx context.Context, businessID uuid.UUID) (*Run, error) {
	business, err := s.tenants.GetBusiness(ctx, businessID)
	if err != nil {
		return nil, err
	}
	if !business.Connected() {
		return nil, pkgerrors.New(pkgerrors.CodeNotConnected, "business has no provider connection")
	}

	provider := business.Credential.Provider
	ctx = s.logCtx(ctx, business, provider)

	adapter, err := s.registry.For(provider)
	if err != nil {
		return nil, err
	}
	creds := providers.Credentials{
		MerchantID:  business.Credential.MerchantID,
		AccessToken: business.Credential.AccessToken,
		Environment: business.Credential.Environment,
	}

	run := &Run{
		BusinessID: business.ID,
		Provider:   provider,
		StartedAt:  s.now(),
	}
	if s.logger != nil {
		s.logger.Info(ctx, "inventory sync started")
	}

	cursor := ""
	for {
		if run.Pages >= s.cfg.MaxPages {
			run.Errors = append(run.Errors, fmt.Sprintf("page cap of %d reached before listing was exhausted", s.cfg.MaxPages))
			if s.logger != nil {
				s.logger.Warn(ctx, "sync page cap reached")
			}
			break
		}

		page, err := adapter.FetchPage(ctx, creds, cursor, s.cfg.PageSize)
		if err != nil {
			run.Errors = append(run.Errors, fmt.Sprintf("fetch page %d: %v", run.Pages+1, err))
			run.FinishedAt = s.now()
			return run, err
		}
		run.Pages++

		for _, remote := range page.Items {
			created, err := s.items.ApplyRemote(ctx, business, provider, remote, run.StartedAt)
			if err != nil {
				run.Errors = append(run.Errors, fmt.Sprintf("item %s: %v", remote.RemoteID, err))
				if s.logger != nil {
					s.logger.Error(ctx, "item sync failed", err)
				}
				continue
			}
			run.Synced++
			if created {
				run.Created++
			} else {
				run.Updated++
			}
		}

		cursor = page.NextCursor
		if cursor == "" {
			break
		}
	}

	s.metrics.AddItemsSynced(provider.String(), run.Synced)

	alertResult, err := s.alerts.CheckBusiness(ctx, business)
	if err != nil {
		run.Errors = append(run.Errors, fmt.Sprintf("alert check: %v", err))
		if s.logger != nil {
			s.logger.Error(ctx, "post-sync alert check failed", err)
		}
	} else {
		run.Alerts = alertResult
	}

	run.FinishedAt = s.now()
	if s.logger != nil {
		s.logger.Info(ctx, fmt.Sprintf("inventory sync finished: %d synced, %d errors", run.Synced, len(run.Errors)))
	}
	return run, nil
}

// SyncAll runs a sync for every connected tenant. One tenant's failure never
// blocks the others; failed tenants are reported through the returned runs.
func (s *Service) SyncAll(ctx context.Context) ([]*Run, error) {
	businesses, err := s.tenants.ListConnected(ctx)
	if err != nil {
		return nil, err
	}

	runs := make([]*Run, 0, len(businesses))
	for i := range businesses {
		business := businesses[i]
		run, err := s.SyncBusiness(ctx, business.ID)
		if err != nil {
			if s.logger != nil {
				s.logger.Error(s.logger.WithBusinessID(ctx, business.ID.String()), "tenant sync failed", err)
			}
			if run == nil {
				run = &Run{BusinessID: business.ID, Errors: []string{err.Error()}}
			}
		}
		runs = append(runs, run)
	}
	return runs, nil
}

func (s *Service) logCtx(ctx context.Context, business *models.Business, provider enums.Provider) context.Context {
	if s.logger == nil {
		return ctx
	}
	ctx = s.logger.WithBusinessID(ctx, business.ID.String())
	return s.logger.WithProvider(ctx, provider.String())
}
