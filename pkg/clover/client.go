package clover

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/shelfwatch/shelfwatch-backend/pkg/errors"
	"github.com/shelfwatch/shelfwatch-backend/pkg/logger"
)

const (
	sandboxEnv    = "sandbox"
	productionEnv = "production"

	defaultTimeout = 30 * time.Second
)

var baseURLs = map[string]string{
	sandboxEnv:    "https://sandbox.dev.clover.com",
	productionEnv: "https://api.clover.com",
}

var errInvalidCloverEnv = fmt.Errorf("clover environment must be %q or %q", sandboxEnv, productionEnv)

// RateLimitError signals an HTTP 429 with the provider-indicated wait.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("clover rate limited, retry after %s", e.RetryAfter)
}

// Item is the raw Clover inventory item shape we consume.
type Item struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	SKU    string `json:"sku"`
	Code   string `json:"code"`
	Price  int64  `json:"price"`
	Hidden bool   `json:"hidden"`

	Available *bool `json:"available,omitempty"`

	ItemStock *struct {
		Quantity float64 `json:"quantity"`
	} `json:"itemStock,omitempty"`

	Categories *struct {
		Elements []struct {
			Name string `json:"name"`
		} `json:"elements"`
	} `json:"categories,omitempty"`
}

type itemListResponse struct {
	Elements []Item `json:"elements"`
}

// Credentials carry the per-tenant Clover connection inputs.
type Credentials struct {
	MerchantID  string
	AccessToken string
}

// Client is a thin Clover v3 REST client. Clover has no Go SDK, so requests
// are built by hand against the merchant inventory endpoints.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *logger.Logger
}

// NewClient builds a Clover client for the configured environment.
func NewClient(environment string, logg *logger.Logger) (*Client, error) {
	env := strings.TrimSpace(strings.ToLower(environment))
	if env == "" {
		env = sandboxEnv
	}
	base, ok := baseURLs[env]
	if !ok {
		return nil, errInvalidCloverEnv
	}
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    base,
		logger:     logg,
	}, nil
}

// ListItems fetches one offset/limit page of inventory items with stock and
// category expansions.
func (c *Client) ListItems(ctx context.Context, creds Credentials, offset, limit int) ([]Item, error) {
	query := url.Values{}
	query.Set("expand", "itemStock,categories")
	query.Set("limit", strconv.Itoa(limit))
	query.Set("offset", strconv.Itoa(offset))

	path := fmt.Sprintf("/v3/merchants/%s/items", url.PathEscape(creds.MerchantID))
	var payload itemListResponse
	if err := c.get(ctx, creds, path, query, &payload); err != nil {
		return nil, err
	}
	return payload.Elements, nil
}

// GetItem fetches a single inventory item by id.
func (c *Client) GetItem(ctx context.Context, creds Credentials, itemID string) (*Item, error) {
	query := url.Values{}
	query.Set("expand", "itemStock,categories")

	path := fmt.Sprintf("/v3/merchants/%s/items/%s", url.PathEscape(creds.MerchantID), url.PathEscape(itemID))
	var payload Item
	if err := c.get(ctx, creds, path, query, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (c *Client) get(ctx context.Context, creds Credentials, path string, query url.Values, dest any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build clover request")
	}
	req.Header.Set("Authorization", "Bearer "+creds.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clover request failed")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return &RateLimitError{RetryAfter: retryAfter(resp)}
	case resp.StatusCode == http.StatusNotFound:
		return pkgerrors.New(pkgerrors.CodeNotFound, "clover resource not found")
	case resp.StatusCode == http.StatusUnauthorized:
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "clover token rejected")
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		err := fmt.Errorf("clover responded %d", resp.StatusCode)
		if c.logger != nil {
			c.logger.Error(ctx, "clover request failed", err)
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clover request failed")
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode clover response")
	}
	return nil
}

func retryAfter(resp *http.Response) time.Duration {
	raw := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if raw == "" {
		return 0
	}
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

// IsRateLimited reports whether err is a Clover 429 and returns the wait.
func IsRateLimited(err error) (time.Duration, bool) {
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return rl.RetryAfter, true
	}
	return 0, false
}
