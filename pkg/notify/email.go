package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shelfwatch/shelfwatch-backend/pkg/config"
	pkgerrors "github.com/shelfwatch/shelfwatch-backend/pkg/errors"
	"github.com/shelfwatch/shelfwatch-backend/pkg/logger"
)

const sendgridMailURL = "https://api.sendgrid.com/v3/mail/send"

var errEmailNotConfigured = errors.New("email transport is not configured")

// EmailClient dispatches mail through the SendGrid v3 API.
type EmailClient struct {
	httpClient *http.Client
	apiKey     string
	from       string
	logger     *logger.Logger
}

// NewEmailClient builds the SendGrid-backed email sender.
func NewEmailClient(cfg config.EmailConfig, logg *logger.Logger) *EmailClient {
	return &EmailClient{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		apiKey:     strings.TrimSpace(cfg.APIKey),
		from:       strings.TrimSpace(cfg.DefaultFrom),
		logger:     logg,
	}
}

// Configured reports whether the client has usable credentials.
func (c *EmailClient) Configured() bool {
	return c != nil && c.apiKey != "" && c.from != ""
}

type sendgridPayload struct {
	Personalizations []struct {
		To []struct {
			Email string `json:"email"`
		} `json:"to"`
	} `json:"personalizations"`
	From struct {
		Email string `json:"email"`
	} `json:"from"`
	Subject string `json:"subject"`
	Content []struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	} `json:"content"`
}

// Send posts a plain-text message to one recipient.
func (c *EmailClient) Send(ctx context.Context, to, subject, body string) error {
	if !c.Configured() {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, errEmailNotConfigured, "send email")
	}
	if strings.TrimSpace(to) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email destination required")
	}

	payload := sendgridPayload{Subject: subject}
	payload.Personalizations = make([]struct {
		To []struct {
			Email string `json:"email"`
		} `json:"to"`
	}, 1)
	payload.Personalizations[0].To = []struct {
		Email string `json:"email"`
	}{{Email: to}}
	payload.From.Email = c.from
	payload.Content = []struct {
		Type  string `json:"type"`
		Value string `json:"value"`
	}{{Type: "text/plain", Value: body}}

	encoded, err := json.Marshal(payload)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode email payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, sendgridMailURL, bytes.NewReader(encoded))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build email request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "email request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("sendgrid responded %d", resp.StatusCode)
		if c.logger != nil {
			c.logger.Error(ctx, "email dispatch failed", err)
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "email dispatch failed")
	}
	return nil
}

// Dispatcher bundles both transports behind the Sender interface.
type Dispatcher struct {
	sms   *SMSClient
	email *EmailClient
}

// NewDispatcher wires the SMS and email clients together.
func NewDispatcher(sms *SMSClient, email *EmailClient) *Dispatcher {
	return &Dispatcher{sms: sms, email: email}
}

func (d *Dispatcher) SendSMS(ctx context.Context, to, body string) error {
	return d.sms.Send(ctx, to, body)
}

func (d *Dispatcher) SendEmail(ctx context.Context, to, subject, body string) error {
	return d.email.Send(ctx, to, subject, body)
}
