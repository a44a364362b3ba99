package webhooks

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shelfwatch/shelfwatch-backend/pkg/enums"
)

func TestCloverWebhookProcessesItemEvents(t *testing.T) {
	handler := &stubEventHandler{}
	body := `{"appId":"APP1","merchants":{"CLV_M1":[{"objectId":"I:ITEM_1","type":"UPDATE","ts":1700000000},{"objectId":"O:ORDER_1","type":"CREATE","ts":1700000001}]}}`

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/clover", strings.NewReader(body))
	req.Header.Set("X-Clover-Auth", "shared-secret")
	rec := httptest.NewRecorder()
	Clover(handler, "shared-secret", nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d (%s)", rec.Code, rec.Body.String())
	}
	if handler.calls != 1 {
		t.Fatalf("only item events should be handled, got %d calls", handler.calls)
	}
	event := handler.events[0]
	if event.Provider != enums.ProviderClover || event.MerchantID != "CLV_M1" || event.RemoteItemID != "ITEM_1" {
		t.Fatalf("event not mapped: %+v", event)
	}
}

func TestCloverWebhookRejectsBadSecret(t *testing.T) {
	handler := &stubEventHandler{}
	body := `{"appId":"APP1","merchants":{}}`

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/clover", strings.NewReader(body))
	req.Header.Set("X-Clover-Auth", "wrong")
	rec := httptest.NewRecorder()
	Clover(handler, "shared-secret", nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad auth got %d", rec.Code)
	}
	if handler.calls != 0 {
		t.Fatalf("handler should not run on bad auth")
	}
}

func TestCloverWebhookRejectsWhenSecretUnset(t *testing.T) {
	handler := &stubEventHandler{}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/clover", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	Clover(handler, "", nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with no configured secret got %d", rec.Code)
	}
}

func TestCloverWebhookEmptyBatch(t *testing.T) {
	handler := &stubEventHandler{}
	body := `{"appId":"APP1","merchants":{"CLV_M1":[]}}`

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/clover", strings.NewReader(body))
	req.Header.Set("X-Clover-Auth", "shared-secret")
	rec := httptest.NewRecorder()
	Clover(handler, "shared-secret", nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for empty batch got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"processed":0`) {
		t.Fatalf("expected zero processed: %s", rec.Body.String())
	}
}
