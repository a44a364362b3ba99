package alerts

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/shelfwatch/shelfwatch-backend/pkg/config"
	"github.com/shelfwatch/shelfwatch-backend/pkg/db/models"
	"github.com/shelfwatch/shelfwatch-backend/pkg/enums"
	pkgerrors "github.com/shelfwatch/shelfwatch-backend/pkg/errors"
	"github.com/shelfwatch/shelfwatch-backend/pkg/logger"
	"github.com/shelfwatch/shelfwatch-backend/pkg/metrics"
	"github.com/shelfwatch/shelfwatch-backend/pkg/notify"
)

// inventoryStore is the slice of the inventory service the engine reads.
type inventoryStore interface {
	LowStock(ctx context.Context, businessID uuid.UUID) ([]models.InventoryItem, error)
	StampAlerts(ctx context.Context, itemIDs []uuid.UUID, sentAt time.Time) error
}

// keyBuilder produces the per-tenant lock key.
type keyBuilder interface {
	LockKey(parts ...string) string
}

// CheckResult summarizes one alert evaluation for a tenant. Items holds every
// item currently below threshold, including ones the cooldown suppressed, so
// callers can show the full low-stock picture regardless of what was sent.
type CheckResult struct {
	LowStockItems int                    `json:"lowStockItems"`
	AlertedItems  int                    `json:"alertedItems"`
	AlertsSent    int                    `json:"alertsSent"`
	Skipped       bool                   `json:"skipped"`
	Items         []models.InventoryItem `json:"items"`
}

// Service evaluates low-stock state and dispatches alerts. Evaluation for one
// tenant is serialized through a distributed lock so concurrent sync runs and
// webhook bursts cannot double-send.
type Service struct {
	inventory inventoryStore
	sender    notify.Sender
	locker    Locker
	keys      keyBuilder
	cfg       config.AlertsConfig
	logger    *logger.Logger
	metrics   *metrics.SyncMetrics

	now func() time.Time
}

// NewService wires the alert engine.
func NewService(
	inventory inventoryStore,
	sender notify.Sender,
	locker Locker,
	keys keyBuilder,
	cfg config.AlertsConfig,
	logg *logger.Logger,
	m *metrics.SyncMetrics,
) *Service {
	return &Service{
		inventory: inventory,
		sender:    sender,
		locker:    locker,
		keys:      keys,
		cfg:       cfg,
		logger:    logg,
		metrics:   m,
		now:       time.Now,
	}
}

// CheckBusiness evaluates one tenant and sends at most one alert batch. Items
// alerted within the cooldown window are excluded; the alert timestamp is only
// written after at least one channel accepted the message.
func (s *Service) CheckBusiness(ctx context.Context, business *models.Business) (*CheckResult, error) {
	result := &CheckResult{}
	if business == nil || !business.AlertsEnabled {
		return result, nil
	}
	ctx = s.logCtx(ctx, business)

	lock, err := s.locker.Obtain(ctx, s.keys.LockKey("alerts", business.ID.String()), s.cfg.LockTTL)
	if err != nil {
		if errors.Is(err, ErrLockHeld) {
			result.Skipped = true
			if s.logger != nil {
				s.logger.Info(ctx, "alert check already in flight, skipping")
			}
			return result, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "obtain alert lock")
	}
	defer func() { _ = lock.Release(ctx) }()

	items, err := s.inventory.LowStock(ctx, business.ID)
	if err != nil {
		return nil, err
	}
	result.Items = items
	result.LowStockItems = len(items)

	now := s.now()
	eligible := make([]models.InventoryItem, 0, len(items))
	for _, item := range items {
		if item.LastAlertSentAt != nil && now.Sub(*item.LastAlertSentAt) < s.cfg.Cooldown {
			continue
		}
		eligible = append(eligible, item)
	}
	result.AlertedItems = len(eligible)
	if len(eligible) == 0 {
		return result, nil
	}

	subject, body := s.composeMessage(business, eligible)
	sent, sendErr := s.dispatch(ctx, business, subject, body)
	result.AlertsSent = sent
	if sent == 0 {
		return result, pkgerrors.Wrap(pkgerrors.CodeDependency, sendErr, "all alert channels failed")
	}

	ids := make([]uuid.UUID, 0, len(eligible))
	for _, item := range eligible {
		ids = append(ids, item.ID)
	}
	if err := s.inventory.StampAlerts(ctx, ids, now); err != nil {
		return result, err
	}

	if s.logger != nil {
		s.logger.Info(ctx, fmt.Sprintf("low stock alert sent for %d items", len(eligible)))
	}
	return result, nil
}

func (s *Service) dispatch(ctx context.Context, business *models.Business, subject, body string) (int, error) {
	sent := 0
	var combined error

	if business.ChannelEnabled(enums.AlertChannelSMS) && business.AlertSMSNumber != nil {
		if err := s.sender.SendSMS(ctx, *business.AlertSMSNumber, body); err != nil {
			combined = multierr.Append(combined, err)
			if s.logger != nil {
				s.logger.Error(ctx, "sms alert failed", err)
			}
		} else {
			sent++
			s.metrics.IncAlertsSent(string(enums.AlertChannelSMS))
		}
	}

	if business.ChannelEnabled(enums.AlertChannelEmail) && business.AlertEmail != nil {
		if err := s.sender.SendEmail(ctx, *business.AlertEmail, subject, body); err != nil {
			combined = multierr.Append(combined, err)
			if s.logger != nil {
				s.logger.Error(ctx, "email alert failed", err)
			}
		} else {
			sent++
			s.metrics.IncAlertsSent(string(enums.AlertChannelEmail))
		}
	}

	return sent, combined
}

func (s *Service) composeMessage(business *models.Business, items []models.InventoryItem) (string, string) {
	subject := fmt.Sprintf("Low stock alert: %d item(s) at %s", len(items), business.Name)

	var b strings.Builder
	fmt.Fprintf(&b, "%d item(s) are running low at %s:\n", len(items), business.Name)
	for _, item := range items {
		label := item.Name
		if item.SKU != nil && *item.SKU != "" {
			label = fmt.Sprintf("%s (%s)", item.Name, *item.SKU)
		}
		if item.IsOut() {
			fmt.Fprintf(&b, "- %s: OUT OF STOCK\n", label)
			continue
		}
		fmt.Fprintf(&b, "- %s: %d left (threshold %d)\n", label, item.Quantity, item.LowStockThreshold)
	}
	return subject, b.String()
}

func (s *Service) logCtx(ctx context.Context, business *models.Business) context.Context {
	if s.logger == nil {
		return ctx
	}
	return s.logger.WithBusinessID(ctx, business.ID.String())
}
