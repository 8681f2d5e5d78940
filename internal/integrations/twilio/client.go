// Package twilio delivers lead notifications by SMS through the Twilio
// Messages API.
package twilio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/domain"
)

const (
	DefaultBaseURL = "https://api.twilio.com"
	defaultTimeout = 10 * time.Second
)

type notConfiguredError struct{}

func (notConfiguredError) Error() string       { return "twilio: sms service not configured" }
func (notConfiguredError) NotConfigured() bool { return true }

// ErrNotConfigured means the account SID, sender number or auth token is
// missing, so no message can be sent.
var ErrNotConfigured error = notConfiguredError{}

// TokenSource yields the Twilio auth token.
type TokenSource interface {
	Value(ctx context.Context) (string, error)
}

// APIError is a non-2xx reply from Twilio with its JSON diagnostic body.
type APIError struct {
	StatusCode int
	Details    json.RawMessage
}

func (e *APIError) Error() string {
	return fmt.Sprintf("twilio: unexpected status %d: %s", e.StatusCode, string(e.Details))
}

func (e *APIError) HTTPStatusCode() int {
	return e.StatusCode
}

func (e *APIError) ProviderDetails() json.RawMessage {
	return e.Details
}

type messageResponse struct {
	SID string `json:"sid"`
}

// Credentials identify the sending account. AuthToken is resolved per call.
type Credentials struct {
	AccountSID string
	FromNumber string
	AuthToken  TokenSource
}

type Sender struct {
	client *resty.Client
	creds  Credentials
	to     string
}

type Option func(*settings)

type settings struct {
	baseURL    string
	httpClient *http.Client
}

func WithBaseURL(baseURL string) Option {
	return func(s *settings) {
		s.baseURL = strings.TrimSpace(baseURL)
	}
}

func WithHTTPClient(c *http.Client) Option {
	return func(s *settings) {
		s.httpClient = c
	}
}

// NewSender returns a Sender that texts every lead to the business number to.
// Incomplete credentials are accepted here and reported by SendSMS.
func NewSender(creds Credentials, to string, opts ...Option) (*Sender, error) {
	to = strings.TrimSpace(to)
	if to == "" {
		return nil, errors.New("twilio: recipient must not be empty")
	}
	st := settings{baseURL: DefaultBaseURL}
	for _, opt := range opts {
		opt(&st)
	}

	var rc *resty.Client
	if st.httpClient != nil {
		rc = resty.NewWithClient(st.httpClient)
	} else {
		rc = resty.New().SetTimeout(defaultTimeout)
	}
	rc.SetBaseURL(strings.TrimRight(st.baseURL, "/")).SetRetryCount(0)

	creds.AccountSID = strings.TrimSpace(creds.AccountSID)
	creds.FromNumber = strings.TrimSpace(creds.FromNumber)
	return &Sender{client: rc, creds: creds, to: to}, nil
}

// SendSMS texts n to the business and returns the message SID.
func (s *Sender) SendSMS(ctx context.Context, n domain.LeadNotification) (string, error) {
	if s.creds.AccountSID == "" || s.creds.FromNumber == "" || s.creds.AuthToken == nil {
		return "", ErrNotConfigured
	}
	token, err := s.creds.AuthToken.Value(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNotConfigured, err)
	}

	var out messageResponse
	res, err := s.client.R().
		SetContext(ctx).
		SetBasicAuth(s.creds.AccountSID, token).
		SetFormData(map[string]string{
			"To":   s.to,
			"From": s.creds.FromNumber,
			"Body": MessageBody(n),
		}).
		SetPathParam("sid", s.creds.AccountSID).
		SetResult(&out).
		Post("/2010-04-01/Accounts/{sid}/Messages.json")
	if err != nil {
		return "", fmt.Errorf("twilio: request failed: %w", err)
	}
	if res.IsError() {
		return "", &APIError{StatusCode: res.StatusCode(), Details: rawDetails(res.Body())}
	}
	if out.SID == "" {
		return "", errors.New("twilio: response missing sid")
	}
	return out.SID, nil
}

// MessageBody renders the plain-text lead alert.
func MessageBody(n domain.LeadNotification) string {
	return fmt.Sprintf(`🔔 NEW LEAD - Royal Diamond WA

👤 Name: %s
📱 Phone: %s
📧 Email: %s
🏠 Address: %s

🧹 Service: %s
💰 Estimate: %s

📝 Details: %s

Reply to this customer ASAP!`,
		orDefault(n.Name, "Not provided"),
		orDefault(n.Phone, "Not provided"),
		orDefault(n.Email, "Not provided"),
		orDefault(n.Address, "Not provided"),
		orDefault(n.Service, "Not specified"),
		orDefault(n.Estimate, "Not calculated"),
		orDefault(n.Details, "None"),
	)
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v == "" {
		return def
	}
	return v
}

func rawDetails(body []byte) json.RawMessage {
	body = bytes.TrimSpace(body)
	if len(body) > 0 && json.Valid(body) {
		return json.RawMessage(body)
	}
	quoted, _ := json.Marshal(string(body))
	return quoted
}
