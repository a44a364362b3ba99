package providers

import (
	"context"
	"strconv"
	"time"

	"github.com/shelfwatch/shelfwatch-backend/pkg/clover"
	"github.com/shelfwatch/shelfwatch-backend/pkg/enums"
	pkgerrors "github.com/shelfwatch/shelfwatch-backend/pkg/errors"
	"github.com/shelfwatch/shelfwatch-backend/pkg/logger"
)

// cloverAPI is the slice of the Clover client the adapter consumes.
type cloverAPI interface {
	ListItems(ctx context.Context, creds clover.Credentials, offset, limit int) ([]clover.Item, error)
	GetItem(ctx context.Context, creds clover.Credentials, itemID string) (*clover.Item, error)
}

// CloverAdapter walks the Clover merchant inventory with offset/limit
// pagination. Cursors are the stringified next offset.
type CloverAdapter struct {
	client cloverAPI
	logger *logger.Logger

	// sleep is swappable in tests.
	sleep func(ctx context.Context, attempt int, hinted bool) error
}

// NewCloverAdapter builds the Clover-backed adapter.
func NewCloverAdapter(client *clover.Client, logg *logger.Logger) *CloverAdapter {
	return &CloverAdapter{client: client, logger: logg}
}

func (a *CloverAdapter) Provider() enums.Provider {
	return enums.ProviderClover
}

// FetchPage lists one offset page. Clover communicates throttling through a
// Retry-After header; the adapter honors the indicated wait before retrying
// the same offset so no page is skipped.
func (a *CloverAdapter) FetchPage(ctx context.Context, creds Credentials, cursor string, limit int) (*Page, error) {
	offset, err := parseOffsetCursor(cursor)
	if err != nil {
		return nil, err
	}

	items, err := a.listWithRetry(ctx, clover.Credentials{
		MerchantID:  creds.MerchantID,
		AccessToken: creds.AccessToken,
	}, offset, limit)
	if err != nil {
		return nil, err
	}

	page := &Page{}
	for _, item := range items {
		remote, ok := normalizeCloverItem(item)
		if !ok {
			continue
		}
		page.Items = append(page.Items, remote)
	}

	// A short page means the listing is exhausted; otherwise advance the offset
	// by the raw element count, hidden items included.
	if len(items) >= limit {
		page.NextCursor = strconv.Itoa(offset + len(items))
	}
	return page, nil
}

// FetchOne fetches a single item by id.
func (a *CloverAdapter) FetchOne(ctx context.Context, creds Credentials, remoteID string) (*RemoteStockItem, error) {
	cloverCreds := clover.Credentials{MerchantID: creds.MerchantID, AccessToken: creds.AccessToken}

	for attempt := 0; ; attempt++ {
		item, err := a.client.GetItem(ctx, cloverCreds, remoteID)
		if err != nil {
			if wait, limited := clover.IsRateLimited(err); limited && attempt < maxRateLimitRetries {
				if err := a.backoff(ctx, attempt, wait); err != nil {
					return nil, err
				}
				continue
			}
			return nil, err
		}
		remote, ok := normalizeCloverItem(*item)
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "clover item is hidden")
		}
		return &remote, nil
	}
}

func (a *CloverAdapter) listWithRetry(ctx context.Context, creds clover.Credentials, offset, limit int) ([]clover.Item, error) {
	for attempt := 0; ; attempt++ {
		items, err := a.client.ListItems(ctx, creds, offset, limit)
		if err == nil {
			return items, nil
		}
		wait, limited := clover.IsRateLimited(err)
		if !limited || attempt >= maxRateLimitRetries {
			return nil, err
		}
		if a.logger != nil {
			a.logger.Warn(ctx, "clover rate limited, backing off")
		}
		if err := a.backoff(ctx, attempt, wait); err != nil {
			return nil, err
		}
	}
}

func (a *CloverAdapter) backoff(ctx context.Context, attempt int, wait time.Duration) error {
	if a.sleep != nil {
		return a.sleep(ctx, attempt, wait > 0)
	}
	if wait <= 0 {
		wait = defaultRetryDelay
	}
	return sleepCtx(ctx, wait)
}

func normalizeCloverItem(item clover.Item) (RemoteStockItem, bool) {
	if item.Hidden {
		return RemoteStockItem{}, false
	}
	if item.Available != nil && !*item.Available {
		return RemoteStockItem{}, false
	}

	remote := RemoteStockItem{
		RemoteID:  item.ID,
		Name:      item.Name,
		UnitPrice: centsToDecimal(item.Price),
	}
	if item.SKU != "" {
		remote.SKU = optionalString(item.SKU)
	} else {
		remote.SKU = optionalString(item.Code)
	}
	if item.Categories != nil && len(item.Categories.Elements) > 0 {
		remote.Category = optionalString(item.Categories.Elements[0].Name)
	}
	if item.ItemStock != nil {
		remote.Quantity = quantityFromCount(item.ItemStock.Quantity)
	}
	return remote, true
}

func parseOffsetCursor(cursor string) (int, error) {
	if cursor == "" {
		return 0, nil
	}
	offset, err := strconv.Atoi(cursor)
	if err != nil || offset < 0 {
		return 0, pkgerrors.New(pkgerrors.CodeInternal, "malformed clover cursor "+strconv.Quote(cursor))
	}
	return offset, nil
}
