package providers

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shelfwatch/shelfwatch-backend/pkg/enums"
	pkgerrors "github.com/shelfwatch/shelfwatch-backend/pkg/errors"
)

const (
	// maxRateLimitRetries bounds how often one page fetch is retried after a
	// provider 429 before the error is surfaced to the caller.
	maxRateLimitRetries = 3

	// defaultRetryDelay is used when the provider does not indicate a wait.
	defaultRetryDelay = 3 * time.Second
)

// Credentials carry one tenant's provider connection.
type Credentials struct {
	MerchantID  string
	AccessToken string
	Environment string
}

// RemoteStockItem is the provider-agnostic projection of one POS inventory
// item. Quantity is the provider's current on-hand count; UnitPrice is in the
// merchant's currency, nil when the provider has no price on file.
type RemoteStockItem struct {
	RemoteID  string
	Name      string
	SKU       *string
	Category  *string
	Quantity  int
	UnitPrice *decimal.Decimal
}

// Page is one page of remote items. An empty NextCursor means the listing is
// exhausted.
type Page struct {
	Items      []RemoteStockItem
	NextCursor string
}

// Adapter translates one provider's API into the normalized item stream. A
// FetchPage call with an empty cursor starts from the beginning; implementations
// absorb provider rate limits internally by waiting and retrying the same page,
// so a returned page is never skipped.
type Adapter interface {
	Provider() enums.Provider
	FetchPage(ctx context.Context, creds Credentials, cursor string, limit int) (*Page, error)
	FetchOne(ctx context.Context, creds Credentials, remoteID string) (*RemoteStockItem, error)
}

// sleepCtx waits for d unless the context ends first.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return pkgerrors.Wrap(pkgerrors.CodeInternal, ctx.Err(), "sync interrupted")
	case <-timer.C:
		return nil
	}
}

// quantityFromCount converts a provider stock count to a local quantity.
// Square reports negative IN_STOCK counts for oversold items; locally quantity
// never goes below zero.
func quantityFromCount(count float64) int {
	if count < 0 {
		return 0
	}
	return int(count)
}

func centsToDecimal(cents int64) *decimal.Decimal {
	price := decimal.New(cents, -2)
	return &price
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
