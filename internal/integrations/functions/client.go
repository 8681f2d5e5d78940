// Package functions is the client side of the site's serverless endpoints:
// the streaming chat relay and the two lead notifiers.
package functions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/domain"
)

const (
	chatPath  = "/functions/v1/cleaning-chat"
	emailPath = "/functions/v1/send-lead-email"
	smsPath   = "/functions/v1/send-lead-sms"
)

// StatusError is a non-2xx reply from one of the functions. Message is the
// "error" field of the JSON body when there is one.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("functions: unexpected status %d: %s", e.StatusCode, e.Message)
}

func (e *StatusError) HTTPStatusCode() int {
	return e.StatusCode
}

type chatRequest struct {
	Messages []domain.ChatMessage `json:"messages"`
}

type errorBody struct {
	Error string `json:"error"`
}

type Client struct {
	rc *resty.Client
}

type Option func(*settings)

type settings struct {
	httpClient *http.Client
	apiKey     string
}

func WithHTTPClient(c *http.Client) Option {
	return func(s *settings) {
		s.httpClient = c
	}
}

// WithAPIKey sends key as both the bearer token and the apikey header, the
// way the hosted functions gateway expects a publishable key.
func WithAPIKey(key string) Option {
	return func(s *settings) {
		s.apiKey = strings.TrimSpace(key)
	}
}

// NewClient targets the functions deployment at baseURL. No client timeout is
// set because chat replies stream; callers bound requests with ctx.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("functions: base url must not be empty")
	}
	var st settings
	for _, opt := range opts {
		opt(&st)
	}

	rc := resty.New()
	if st.httpClient != nil {
		rc = resty.NewWithClient(st.httpClient)
	}
	rc.SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetRetryCount(0)
	if st.apiKey != "" {
		rc.SetAuthToken(st.apiKey).SetHeader("apikey", st.apiKey)
	}
	return &Client{rc: rc}, nil
}

// StreamChat posts the conversation and returns the event-stream body. The
// caller must close it.
func (c *Client) StreamChat(ctx context.Context, messages []domain.ChatMessage) (io.ReadCloser, error) {
	res, err := c.rc.R().
		SetContext(ctx).
		SetHeader("Accept", "text/event-stream").
		SetBody(chatRequest{Messages: messages}).
		SetDoNotParseResponse(true).
		Post(chatPath)
	if err != nil {
		return nil, fmt.Errorf("functions: chat request: %w", err)
	}
	body := res.RawBody()
	if res.IsError() {
		defer func() { _ = body.Close() }()
		raw, _ := io.ReadAll(io.LimitReader(body, 4096))
		return nil, statusError(res.StatusCode(), raw)
	}
	return body, nil
}

// NotifyLead asks the SMS function to text the lead to the business.
func (c *Client) NotifyLead(ctx context.Context, n domain.LeadNotification) error {
	return c.post(ctx, smsPath, n)
}

// NotifyQuote asks the email function to mail the quote to the business.
func (c *Client) NotifyQuote(ctx context.Context, n domain.LeadNotification) error {
	return c.post(ctx, emailPath, n)
}

func (c *Client) post(ctx context.Context, path string, n domain.LeadNotification) error {
	res, err := c.rc.R().SetContext(ctx).SetBody(n).Post(path)
	if err != nil {
		return fmt.Errorf("functions: %s: %w", path, err)
	}
	if res.IsError() {
		return statusError(res.StatusCode(), res.Body())
	}
	return nil
}

func statusError(status int, raw []byte) *StatusError {
	msg := strings.TrimSpace(string(raw))
	var eb errorBody
	if json.Unmarshal(raw, &eb) == nil && eb.Error != "" {
		msg = eb.Error
	}
	return &StatusError{StatusCode: status, Message: msg}
}
