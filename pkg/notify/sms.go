package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ttacon/libphonenumber"

	"github.com/shelfwatch/shelfwatch-backend/pkg/config"
	pkgerrors "github.com/shelfwatch/shelfwatch-backend/pkg/errors"
	"github.com/shelfwatch/shelfwatch-backend/pkg/logger"
)

const twilioMessagesURL = "https://api.twilio.com/2010-04-01/Accounts/%s/Messages.json"

var errSMSNotConfigured = errors.New("sms transport is not configured")

// SMSClient dispatches text messages through the Twilio REST API.
type SMSClient struct {
	httpClient *http.Client
	accountSID string
	authToken  string
	fromNumber string
	region     string
	logger     *logger.Logger
}

// NewSMSClient builds the Twilio-backed SMS sender.
func NewSMSClient(cfg config.SMSConfig, logg *logger.Logger) *SMSClient {
	return &SMSClient{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		accountSID: strings.TrimSpace(cfg.AccountSID),
		authToken:  strings.TrimSpace(cfg.AuthToken),
		fromNumber: strings.TrimSpace(cfg.FromNumber),
		region:     strings.TrimSpace(cfg.Region),
		logger:     logg,
	}
}

// Configured reports whether the client has usable credentials.
func (c *SMSClient) Configured() bool {
	return c != nil && c.accountSID != "" && c.authToken != "" && c.fromNumber != ""
}

// Send normalizes the destination to E.164 and posts the message.
func (c *SMSClient) Send(ctx context.Context, to, body string) error {
	if !c.Configured() {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, errSMSNotConfigured, "send sms")
	}

	normalized, err := c.normalize(to)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sms destination")
	}

	form := url.Values{}
	form.Set("To", normalized)
	form.Set("From", c.fromNumber)
	form.Set("Body", body)

	endpoint := fmt.Sprintf(twilioMessagesURL, url.PathEscape(c.accountSID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build sms request")
	}
	req.SetBasicAuth(c.accountSID, c.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sms request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("twilio responded %d", resp.StatusCode)
		if c.logger != nil {
			c.logger.Error(ctx, "sms dispatch failed", err)
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sms dispatch failed")
	}
	return nil
}

func (c *SMSClient) normalize(raw string) (string, error) {
	region := c.region
	if region == "" {
		region = "US"
	}
	parsed, err := libphonenumber.Parse(strings.TrimSpace(raw), region)
	if err != nil {
		return "", err
	}
	return libphonenumber.Format(parsed, libphonenumber.E164), nil
}
