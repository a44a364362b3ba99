package webhooks

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"

	"github.com/shelfwatch/shelfwatch-backend/api/responses"
	"github.com/shelfwatch/shelfwatch-backend/internal/webhooks"
	"github.com/shelfwatch/shelfwatch-backend/pkg/enums"
	pkgerrors "github.com/shelfwatch/shelfwatch-backend/pkg/errors"
	"github.com/shelfwatch/shelfwatch-backend/pkg/logger"
)

// StockEventHandler processes provider-agnostic stock change events.
type StockEventHandler interface {
	HandleStockEvent(ctx context.Context, event webhooks.StockEvent) (*webhooks.Result, error)
}

const squareSignatureHeader = "Square-Signature"

// Square catalog/inventory events carry the changed object id under data.
type squarePayload struct {
	MerchantID string `json:"merchant_id"`
	Type       string `json:"type"`
	EventID    string `json:"event_id"`
	Data       struct {
		Type string `json:"type"`
		ID   string `json:"id"`
	} `json:"data"`
}

// Square receives catalog and inventory webhooks from Square, verifies the
// HMAC signature, and refreshes the referenced item.
func Square(svc StockEventHandler, secret string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unreadable payload"))
			return
		}

		if !verifySquareSignature(secret, body, r.Header.Get(squareSignatureHeader)) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid webhook signature"))
			return
		}

		var payload squarePayload
		if err := json.Unmarshal(body, &payload); err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed webhook payload"))
			return
		}

		result, err := svc.HandleStockEvent(ctx, webhooks.StockEvent{
			Provider:     enums.ProviderSquare,
			MerchantID:   payload.MerchantID,
			RemoteItemID: payload.Data.ID,
			EventType:    payload.Type,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

func verifySquareSignature(secret string, body []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
