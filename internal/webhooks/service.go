package webhooks

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shelfwatch/shelfwatch-backend/internal/alerts"
	"github.com/shelfwatch/shelfwatch-backend/internal/providers"
	"github.com/shelfwatch/shelfwatch-backend/pkg/db/models"
	"github.com/shelfwatch/shelfwatch-backend/pkg/enums"
	pkgerrors "github.com/shelfwatch/shelfwatch-backend/pkg/errors"
	"github.com/shelfwatch/shelfwatch-backend/pkg/logger"
)

// tenantResolver maps provider merchant ids to tenants.
type tenantResolver interface {
	FindByMerchant(ctx context.Context, provider enums.Provider, merchantID string) (*models.Business, error)
}

// itemWriter mirrors provider items into local inventory.
type itemWriter interface {
	ApplyRemote(ctx context.Context, business *models.Business, provider enums.Provider, remote providers.RemoteStockItem, syncedAt time.Time) (bool, error)
}

// alertChecker runs the post-update low-stock evaluation.
type alertChecker interface {
	CheckBusiness(ctx context.Context, business *models.Business) (*alerts.CheckResult, error)
}

// adapterRegistry resolves the provider adapter for the event source.
type adapterRegistry interface {
	For(provider enums.Provider) (providers.Adapter, error)
}

// StockEvent is a provider-agnostic stock change notification.
type StockEvent struct {
	Provider     enums.Provider
	MerchantID   string
	RemoteItemID string
	EventType    string
}

// Result reports how an event was processed. Ignored events (unknown merchant,
// vanished item) are acknowledged without error so providers stop retrying.
type Result struct {
	BusinessID uuid.UUID           `json:"businessId,omitempty"`
	Applied    bool                `json:"applied"`
	Created    bool                `json:"created"`
	Ignored    string              `json:"ignored,omitempty"`
	Alerts     *alerts.CheckResult `json:"alerts,omitempty"`
}

// Service processes provider stock webhooks. Handling is idempotent: the same
// event re-fetches the same remote state and upserts the same row, and alert
// cooldown keeps duplicate deliveries from double-notifying.
type Service struct {
	tenants  tenantResolver
	registry adapterRegistry
	items    itemWriter
	alerts   alertChecker
	logger   *logger.Logger

	now func() time.Time
}

// NewService wires the webhook ingestor.
func NewService(tenants tenantResolver, registry adapterRegistry, items itemWriter, checker alertChecker, logg *logger.Logger) *Service {
	return &Service{
		tenants:  tenants,
		registry: registry,
		items:    items,
		alerts:   checker,
		logger:   logg,
		now:      time.Now,
	}
}

// HandleStockEvent refreshes one item from the provider and re-evaluates
// alerts for the tenant.
func (s *Service) HandleStockEvent(ctx context.Context, event StockEvent) (*Result, error) {
	if strings.TrimSpace(event.RemoteItemID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "event is missing an item id")
	}
	ctx = s.logCtx(ctx, event)

	business, err := s.tenants.FindByMerchant(ctx, event.Provider, event.MerchantID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			if s.logger != nil {
				s.logger.Warn(ctx, "webhook for unknown merchant, ignoring")
			}
			return &Result{Ignored: "unknown merchant"}, nil
		}
		return nil, err
	}

	adapter, err := s.registry.For(event.Provider)
	if err != nil {
		return nil, err
	}

	remote, err := adapter.FetchOne(ctx, providers.Credentials{
		MerchantID:  business.Credential.MerchantID,
		AccessToken: business.Credential.AccessToken,
		Environment: business.Credential.Environment,
	}, event.RemoteItemID)
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			if s.logger != nil {
				s.logger.Info(ctx, "item no longer visible at provider, ignoring event")
			}
			return &Result{BusinessID: business.ID, Ignored: "item not visible"}, nil
		}
		return nil, err
	}

	created, err := s.items.ApplyRemote(ctx, business, event.Provider, *remote, s.now())
	if err != nil {
		return nil, err
	}

	result := &Result{BusinessID: business.ID, Applied: true, Created: created}
	alertResult, err := s.alerts.CheckBusiness(ctx, business)
	if err != nil {
		if s.logger != nil {
			s.logger.Error(ctx, "post-webhook alert check failed", err)
		}
		return result, nil
	}
	result.Alerts = alertResult
	return result, nil
}

func (s *Service) logCtx(ctx context.Context, event StockEvent) context.Context {
	if s.logger == nil {
		return ctx
	}
	ctx = s.logger.WithProvider(ctx, event.Provider.String())
	return s.logger.WithFields(ctx, map[string]any{
		"merchant_id":    event.MerchantID,
		"remote_item_id": event.RemoteItemID,
	})
}
