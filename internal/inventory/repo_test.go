package inventory

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shelfwatch/shelfwatch-backend/pkg/config"
	"github.com/shelfwatch/shelfwatch-backend/pkg/db"
	"github.com/shelfwatch/shelfwatch-backend/pkg/db/models"
	"github.com/shelfwatch/shelfwatch-backend/pkg/enums"
)

// newSQLiteRepo spins up an in-memory database so the repository's SQL runs
// against a real driver rather than a fake.
func newSQLiteRepo(t *testing.T) Repository {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	client, err := db.New(context.Background(), config.DBConfig{Driver: "sqlite", DSN: dsn}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	err = client.DB().Exec(`CREATE TABLE inventory_items (
		id TEXT PRIMARY KEY,
		business_id TEXT NOT NULL,
		provider TEXT NOT NULL,
		provider_item_id TEXT NOT NULL,
		name TEXT NOT NULL,
		sku TEXT,
		category TEXT,
		quantity INTEGER NOT NULL DEFAULT 0,
		low_stock_threshold INTEGER NOT NULL DEFAULT 0,
		unit_price NUMERIC,
		track_stock BOOLEAN NOT NULL DEFAULT true,
		last_alert_sent_at DATETIME,
		last_synced_at DATETIME NOT NULL,
		created_at DATETIME,
		updated_at DATETIME,
		UNIQUE (business_id, provider, provider_item_id)
	)`).Error
	require.NoError(t, err)

	return NewRepository(client)
}

func seedItem(t *testing.T, repo Repository, businessID uuid.UUID, name, sku, category string, qty int) models.InventoryItem {
	t.Helper()

	item := models.InventoryItem{
		ID:                uuid.New(),
		BusinessID:        businessID,
		Provider:          enums.ProviderSquare,
		ProviderItemID:    "remote-" + uuid.NewString(),
		Name:              name,
		SKU:               strPtrOrNil(sku),
		Category:          strPtrOrNil(category),
		Quantity:          qty,
		LowStockThreshold: 5,
		TrackStock:        true,
		LastSyncedAt:      time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Upsert(context.Background(), &item))
	return item
}

func strPtrOrNil(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func TestListSearchMatchesCategory(t *testing.T) {
	repo := newSQLiteRepo(t)
	businessID := uuid.New()

	seedItem(t, repo, businessID, "Espresso Beans", "EB-01", "Coffee", 10)
	juice := seedItem(t, repo, businessID, "Orange Juice", "OJ-01", "Cold Drinks", 10)
	seedItem(t, repo, businessID, "Croissant", "CR-01", "Bakery", 10)

	items, total, err := repo.List(context.Background(), businessID, ListFilter{Search: "drink", Limit: 10})

	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, juice.ID, items[0].ID)
}

func TestListSearchIsCaseInsensitive(t *testing.T) {
	repo := newSQLiteRepo(t)
	businessID := uuid.New()

	beans := seedItem(t, repo, businessID, "Espresso Beans", "EB-01", "Coffee", 10)
	seedItem(t, repo, businessID, "Croissant", "CR-01", "Bakery", 10)

	items, total, err := repo.List(context.Background(), businessID, ListFilter{Search: "ESPRESSO", Limit: 10})

	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, items, 1)
	assert.Equal(t, beans.ID, items[0].ID)
}

func TestListSearchMatchesSKU(t *testing.T) {
	repo := newSQLiteRepo(t)
	businessID := uuid.New()

	beans := seedItem(t, repo, businessID, "Espresso Beans", "EB-01", "Coffee", 10)
	seedItem(t, repo, businessID, "Orange Juice", "OJ-01", "Cold Drinks", 10)

	items, _, err := repo.List(context.Background(), businessID, ListFilter{Search: "eb-0", Limit: 10})

	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, beans.ID, items[0].ID)
}

func TestListSearchScopedToTenant(t *testing.T) {
	repo := newSQLiteRepo(t)
	mine := uuid.New()
	theirs := uuid.New()

	seedItem(t, repo, mine, "Espresso Beans", "EB-01", "Coffee", 10)
	seedItem(t, repo, theirs, "Espresso Beans", "EB-01", "Coffee", 10)

	_, total, err := repo.List(context.Background(), mine, ListFilter{Search: "coffee", Limit: 10})

	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}
