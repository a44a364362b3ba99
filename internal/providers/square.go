package providers

import (
	"context"
	"sync"

	"github.com/shelfwatch/shelfwatch-backend/pkg/enums"
	pkgerrors "github.com/shelfwatch/shelfwatch-backend/pkg/errors"
	"github.com/shelfwatch/shelfwatch-backend/pkg/logger"
	"github.com/shelfwatch/shelfwatch-backend/pkg/square"
)

// squareCatalog is the slice of the Square wrapper the adapter consumes.
type squareCatalog interface {
	ListCatalogItems(ctx context.Context, cursor string, limit int) (*square.CatalogPage, error)
	GetCatalogItem(ctx context.Context, objectID string) (*square.CatalogItem, error)
	InventoryCounts(ctx context.Context, variationIDs []string) (map[string]float64, error)
}

// SquareAdapter walks the Square catalog with cursor pagination and joins in
// inventory counts per page. Clients are cached per access token so repeated
// runs for the same tenant reuse one SDK client.
type SquareAdapter struct {
	logger     *logger.Logger
	retryDelay func(attempt int) error

	mu      sync.Mutex
	clients map[string]squareCatalog

	// newClient is swappable in tests.
	newClient func(creds Credentials) (squareCatalog, error)
}

// NewSquareAdapter builds the Square-backed adapter.
func NewSquareAdapter(logg *logger.Logger) *SquareAdapter {
	a := &SquareAdapter{
		logger:  logg,
		clients: map[string]squareCatalog{},
	}
	a.newClient = func(creds Credentials) (squareCatalog, error) {
		return square.NewClient(square.ClientParams{
			AccessToken: creds.AccessToken,
			Environment: creds.Environment,
		}, logg)
	}
	return a
}

func (a *SquareAdapter) Provider() enums.Provider {
	return enums.ProviderSquare
}

// FetchPage lists one catalog page and resolves stock counts for it. Square
// signals throttling through its error payload without a wait hint, so rate
// limited calls back off for a fixed delay before retrying the same cursor.
func (a *SquareAdapter) FetchPage(ctx context.Context, creds Credentials, cursor string, limit int) (*Page, error) {
	client, err := a.clientFor(creds)
	if err != nil {
		return nil, err
	}

	var catalogPage *square.CatalogPage
	err = a.withRateLimitRetry(ctx, func() error {
		var fetchErr error
		catalogPage, fetchErr = client.ListCatalogItems(ctx, cursor, limit)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}

	variationIDs := make([]string, 0, len(catalogPage.Items))
	for _, item := range catalogPage.Items {
		if item.Archived || item.VariationID == "" {
			continue
		}
		variationIDs = append(variationIDs, item.VariationID)
	}

	var counts map[string]float64
	err = a.withRateLimitRetry(ctx, func() error {
		var fetchErr error
		counts, fetchErr = client.InventoryCounts(ctx, variationIDs)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}

	page := &Page{NextCursor: catalogPage.Cursor}
	for _, item := range catalogPage.Items {
		if item.Archived {
			continue
		}
		page.Items = append(page.Items, a.normalize(item, counts))
	}
	return page, nil
}

// FetchOne resolves a single catalog object, following variation ids from
// webhook payloads to their parent item.
func (a *SquareAdapter) FetchOne(ctx context.Context, creds Credentials, remoteID string) (*RemoteStockItem, error) {
	client, err := a.clientFor(creds)
	if err != nil {
		return nil, err
	}

	var catalogItem *square.CatalogItem
	err = a.withRateLimitRetry(ctx, func() error {
		var fetchErr error
		catalogItem, fetchErr = client.GetCatalogItem(ctx, remoteID)
		return fetchErr
	})
	if err != nil {
		return nil, err
	}
	if catalogItem.Archived {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "catalog item is archived")
	}

	var counts map[string]float64
	if catalogItem.VariationID != "" {
		err = a.withRateLimitRetry(ctx, func() error {
			var fetchErr error
			counts, fetchErr = client.InventoryCounts(ctx, []string{catalogItem.VariationID})
			return fetchErr
		})
		if err != nil {
			return nil, err
		}
	}

	item := a.normalize(*catalogItem, counts)
	return &item, nil
}

func (a *SquareAdapter) normalize(item square.CatalogItem, counts map[string]float64) RemoteStockItem {
	remote := RemoteStockItem{
		RemoteID: item.ObjectID,
		Name:     item.Name,
		SKU:      optionalString(item.SKU),
		Category: optionalString(item.Category),
		Quantity: quantityFromCount(counts[item.VariationID]),
	}
	if item.PriceCents != nil {
		remote.UnitPrice = centsToDecimal(*item.PriceCents)
	}
	return remote
}

func (a *SquareAdapter) withRateLimitRetry(ctx context.Context, call func() error) error {
	for attempt := 0; ; attempt++ {
		err := call()
		if err == nil {
			return nil
		}
		if !pkgerrors.IsCode(err, pkgerrors.CodeRateLimit) || attempt >= maxRateLimitRetries {
			return err
		}
		if a.logger != nil {
			a.logger.Warn(ctx, "square rate limited, backing off")
		}
		if a.retryDelay != nil {
			if err := a.retryDelay(attempt); err != nil {
				return err
			}
			continue
		}
		if err := sleepCtx(ctx, defaultRetryDelay); err != nil {
			return err
		}
	}
}

func (a *SquareAdapter) clientFor(creds Credentials) (squareCatalog, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if client, ok := a.clients[creds.AccessToken]; ok {
		return client, nil
	}
	client, err := a.newClient(creds)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeNotConnected, err, "square credentials rejected")
	}
	a.clients[creds.AccessToken] = client
	return client, nil
}
