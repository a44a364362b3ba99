package webhooks

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/shelfwatch/shelfwatch-backend/api/responses"
	"github.com/shelfwatch/shelfwatch-backend/api/validators"
	"github.com/shelfwatch/shelfwatch-backend/internal/webhooks"
	"github.com/shelfwatch/shelfwatch-backend/pkg/enums"
	pkgerrors "github.com/shelfwatch/shelfwatch-backend/pkg/errors"
	"github.com/shelfwatch/shelfwatch-backend/pkg/logger"
)

const (
	cloverAuthHeader = "X-Clover-Auth"

	// Clover prefixes inventory object ids with the object type.
	cloverItemPrefix = "I:"
)

type cloverEvent struct {
	ObjectID string `json:"objectId"`
	Type     string `json:"type"`
	TS       int64  `json:"ts"`
}

type cloverPayload struct {
	AppID     string                   `json:"appId"`
	Merchants map[string][]cloverEvent `json:"merchants"`
}

// Clover receives inventory webhooks from Clover. Clover authenticates with a
// shared secret header rather than a payload signature, and batches events for
// multiple merchants into one delivery.
func Clover(svc StockEventHandler, secret string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		if secret == "" || subtle.ConstantTimeCompare([]byte(r.Header.Get(cloverAuthHeader)), []byte(secret)) != 1 {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid webhook credentials"))
			return
		}

		var payload cloverPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		results := []*webhooks.Result{}
		for merchantID, events := range payload.Merchants {
			for _, event := range events {
				if !strings.HasPrefix(event.ObjectID, cloverItemPrefix) {
					continue
				}
				result, err := svc.HandleStockEvent(ctx, webhooks.StockEvent{
					Provider:     enums.ProviderClover,
					MerchantID:   merchantID,
					RemoteItemID: strings.TrimPrefix(event.ObjectID, cloverItemPrefix),
					EventType:    event.Type,
				})
				if err != nil {
					responses.WriteError(ctx, logg, w, err)
					return
				}
				results = append(results, result)
			}
		}

		responses.WriteSuccess(w, map[string]any{"processed": len(results), "results": results})
	}
}
