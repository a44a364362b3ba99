package alerts

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfwatch/shelfwatch-backend/pkg/config"
	"github.com/shelfwatch/shelfwatch-backend/pkg/db/models"
)

type fakeInventory struct {
	lowStockFn func(ctx context.Context, businessID uuid.UUID) ([]models.InventoryItem, error)
	stamped    []uuid.UUID
	stampedAt  time.Time
	stampErr   error
}

func (f *fakeInventory) LowStock(ctx context.Context, businessID uuid.UUID) ([]models.InventoryItem, error) {
	return f.lowStockFn(ctx, businessID)
}

func (f *fakeInventory) StampAlerts(_ context.Context, itemIDs []uuid.UUID, sentAt time.Time) error {
	if f.stampErr != nil {
		return f.stampErr
	}
	f.stamped = append(f.stamped, itemIDs...)
	f.stampedAt = sentAt
	return nil
}

type fakeSender struct {
	smsErr    error
	emailErr  error
	smsSent   []string
	emailSent []string
	bodies    []string
}

func (f *fakeSender) SendSMS(_ context.Context, to, body string) error {
	if f.smsErr != nil {
		return f.smsErr
	}
	f.smsSent = append(f.smsSent, to)
	f.bodies = append(f.bodies, body)
	return nil
}

func (f *fakeSender) SendEmail(_ context.Context, to, _, body string) error {
	if f.emailErr != nil {
		return f.emailErr
	}
	f.emailSent = append(f.emailSent, to)
	f.bodies = append(f.bodies, body)
	return nil
}

type fakeLock struct{ released bool }

func (f *fakeLock) Release(context.Context) error {
	f.released = true
	return nil
}

type fakeLocker struct {
	err  error
	lock *fakeLock
}

func (f *fakeLocker) Obtain(context.Context, string, time.Duration) (Lock, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.lock == nil {
		f.lock = &fakeLock{}
	}
	return f.lock, nil
}

type fakeKeys struct{}

func (fakeKeys) LockKey(parts ...string) string { return "test:" + strings.Join(parts, ":") }

func testConfig() config.AlertsConfig {
	return config.AlertsConfig{Cooldown: 24 * time.Hour, LockTTL: 30 * time.Second}
}

func testBusiness(channels ...string) *models.Business {
	sms := "+14155550100"
	email := "owner@store.test"
	return &models.Business{
		ID:             uuid.New(),
		Name:           "Corner Deli",
		AlertsEnabled:  true,
		AlertChannels:  pq.StringArray(channels),
		AlertSMSNumber: &sms,
		AlertEmail:     &email,
	}
}

func newTestService(inv *fakeInventory, sender *fakeSender, locker Locker, now time.Time) *Service {
	service := NewService(inv, sender, locker, fakeKeys{}, testConfig(), nil, nil)
	service.now = func() time.Time { return now }
	return service
}

func lowItem(name string, qty, threshold int, lastAlert *time.Time) models.InventoryItem {
	return models.InventoryItem{
		ID:                uuid.New(),
		Name:              name,
		Quantity:          qty,
		LowStockThreshold: threshold,
		TrackStock:        true,
		LastAlertSentAt:   lastAlert,
	}
}

func TestCheckBusinessDisabledIsNoop(t *testing.T) {
	business := testBusiness("sms")
	business.AlertsEnabled = false

	service := newTestService(&fakeInventory{}, &fakeSender{}, &fakeLocker{}, time.Now())
	result, err := service.CheckBusiness(context.Background(), business)

	require.NoError(t, err)
	assert.Zero(t, result.AlertsSent)
	assert.Zero(t, result.LowStockItems)
}

func TestCheckBusinessSendsAndStamps(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	item := lowItem("Espresso Beans", 2, 5, nil)
	inv := &fakeInventory{
		lowStockFn: func(context.Context, uuid.UUID) ([]models.InventoryItem, error) {
			return []models.InventoryItem{item}, nil
		},
	}
	sender := &fakeSender{}
	locker := &fakeLocker{}

	service := newTestService(inv, sender, locker, now)
	result, err := service.CheckBusiness(context.Background(), testBusiness("sms", "email"))

	require.NoError(t, err)
	assert.Equal(t, 1, result.LowStockItems)
	assert.Equal(t, 1, result.AlertedItems)
	assert.Equal(t, 2, result.AlertsSent)
	require.Len(t, result.Items, 1)
	assert.Equal(t, item.ID, result.Items[0].ID)
	assert.Equal(t, []uuid.UUID{item.ID}, inv.stamped)
	assert.Equal(t, now, inv.stampedAt)
	assert.True(t, locker.lock.released)
	require.NotEmpty(t, sender.bodies)
	assert.Contains(t, sender.bodies[0], "Espresso Beans")
	assert.Contains(t, sender.bodies[0], "2 left (threshold 5)")
}

func TestCheckBusinessCooldownSuppressesRecentAlerts(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	oneHourAgo := now.Add(-1 * time.Hour)
	dayAndHourAgo := now.Add(-25 * time.Hour)

	recent := lowItem("Recent", 1, 5, &oneHourAgo)
	stale := lowItem("Stale", 1, 5, &dayAndHourAgo)
	inv := &fakeInventory{
		lowStockFn: func(context.Context, uuid.UUID) ([]models.InventoryItem, error) {
			return []models.InventoryItem{recent, stale}, nil
		},
	}
	sender := &fakeSender{}

	service := newTestService(inv, sender, &fakeLocker{}, now)
	result, err := service.CheckBusiness(context.Background(), testBusiness("sms"))

	require.NoError(t, err)
	assert.Equal(t, 2, result.LowStockItems)
	assert.Equal(t, 1, result.AlertedItems)
	// The suppressed item still shows up in the result list.
	require.Len(t, result.Items, 2)
	assert.Equal(t, []uuid.UUID{recent.ID, stale.ID}, []uuid.UUID{result.Items[0].ID, result.Items[1].ID})
	// Only the stale item gets re-stamped.
	assert.Equal(t, []uuid.UUID{stale.ID}, inv.stamped)
	require.Len(t, sender.bodies, 1)
	assert.Contains(t, sender.bodies[0], "Stale")
	assert.NotContains(t, sender.bodies[0], "Recent")
}

func TestCheckBusinessAllWithinCooldownSendsNothing(t *testing.T) {
	now := time.Now()
	justNow := now.Add(-10 * time.Minute)
	inv := &fakeInventory{
		lowStockFn: func(context.Context, uuid.UUID) ([]models.InventoryItem, error) {
			return []models.InventoryItem{lowItem("Beans", 1, 5, &justNow)}, nil
		},
	}
	sender := &fakeSender{}

	service := newTestService(inv, sender, &fakeLocker{}, now)
	result, err := service.CheckBusiness(context.Background(), testBusiness("sms"))

	require.NoError(t, err)
	assert.Zero(t, result.AlertedItems)
	assert.Zero(t, result.AlertsSent)
	assert.Len(t, result.Items, 1)
	assert.Empty(t, sender.smsSent)
	assert.Empty(t, inv.stamped)
}

func TestCheckBusinessPartialChannelFailureStillStamps(t *testing.T) {
	now := time.Now()
	item := lowItem("Beans", 1, 5, nil)
	inv := &fakeInventory{
		lowStockFn: func(context.Context, uuid.UUID) ([]models.InventoryItem, error) {
			return []models.InventoryItem{item}, nil
		},
	}
	sender := &fakeSender{smsErr: errors.New("twilio down")}

	service := newTestService(inv, sender, &fakeLocker{}, now)
	result, err := service.CheckBusiness(context.Background(), testBusiness("sms", "email"))

	require.NoError(t, err)
	assert.Equal(t, 1, result.AlertsSent)
	assert.Equal(t, []uuid.UUID{item.ID}, inv.stamped)
}

func TestCheckBusinessAllChannelsFailedDoesNotStamp(t *testing.T) {
	inv := &fakeInventory{
		lowStockFn: func(context.Context, uuid.UUID) ([]models.InventoryItem, error) {
			return []models.InventoryItem{lowItem("Beans", 1, 5, nil)}, nil
		},
	}
	sender := &fakeSender{smsErr: errors.New("twilio down"), emailErr: errors.New("sendgrid down")}

	service := newTestService(inv, sender, &fakeLocker{}, time.Now())
	result, err := service.CheckBusiness(context.Background(), testBusiness("sms", "email"))

	require.Error(t, err)
	assert.Zero(t, result.AlertsSent)
	assert.Empty(t, inv.stamped)
}

func TestCheckBusinessSkipsWhenLockHeld(t *testing.T) {
	service := newTestService(&fakeInventory{}, &fakeSender{}, &fakeLocker{err: ErrLockHeld}, time.Now())
	result, err := service.CheckBusiness(context.Background(), testBusiness("sms"))

	require.NoError(t, err)
	assert.True(t, result.Skipped)
}

func TestComposeMessageMarksOutOfStock(t *testing.T) {
	service := newTestService(&fakeInventory{}, &fakeSender{}, &fakeLocker{}, time.Now())
	sku := "CB-01"
	_, body := service.composeMessage(testBusiness("sms"), []models.InventoryItem{
		{Name: "Cold Brew", SKU: &sku, Quantity: 0, LowStockThreshold: 5, TrackStock: true},
	})

	assert.Contains(t, body, "Cold Brew (CB-01): OUT OF STOCK")
}
