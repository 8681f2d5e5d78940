// Package resend delivers lead notifications by email through the Resend API.
package resend

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/microcosm-cc/bluemonday"

	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/domain"
)

const (
	DefaultBaseURL  = "https://api.resend.com"
	DefaultFrom     = "Royal Diamond <onboarding@resend.dev>"
	defaultBusiness = "Royal Diamond WA"
	defaultTimeout  = 10 * time.Second
)

//go:embed lead_email.html.tmpl
var leadEmailHTML string

var leadEmailTmpl = template.Must(template.New("lead_email").Parse(leadEmailHTML))

// TokenSource yields the Resend API key.
type TokenSource interface {
	Value(ctx context.Context) (string, error)
}

// APIError is a non-2xx reply from Resend. Details holds the provider's JSON
// body so callers can pass it through untouched.
type APIError struct {
	StatusCode int
	Details    json.RawMessage
}

func (e *APIError) Error() string {
	return fmt.Sprintf("resend: unexpected status %d: %s", e.StatusCode, string(e.Details))
}

func (e *APIError) HTTPStatusCode() int {
	return e.StatusCode
}

func (e *APIError) ProviderDetails() json.RawMessage {
	return e.Details
}

type emailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type emailResponse struct {
	ID string `json:"id"`
}

type Sender struct {
	client   *resty.Client
	tokens   TokenSource
	from     string
	to       string
	business string
	policy   *bluemonday.Policy
}

type Option func(*settings)

type settings struct {
	baseURL    string
	httpClient *http.Client
	from       string
	business   string
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

func WithFrom(from string) Option {
	return func(s *settings) {
		if strings.TrimSpace(from) != "" {
			s.from = from
		}
	}
}

// WithBusinessName sets the name shown in the email header and footer.
func WithBusinessName(name string) Option {
	return func(s *settings) {
		if strings.TrimSpace(name) != "" {
			s.business = name
		}
	}
}

// NewSender returns a Sender that mails every lead to the inbox at to.
func NewSender(tokens TokenSource, to string, opts ...Option) (*Sender, error) {
	if tokens == nil {
		return nil, errors.New("resend: token source must not be nil")
	}
	to = strings.TrimSpace(to)
	if to == "" {
		return nil, errors.New("resend: recipient must not be empty")
	}
	st := settings{baseURL: DefaultBaseURL, from: DefaultFrom, business: defaultBusiness}
	for _, opt := range opts {
		opt(&st)
	}

	var rc *resty.Client
	if st.httpClient != nil {
		rc = resty.NewWithClient(st.httpClient)
	} else {
		rc = resty.New().SetTimeout(defaultTimeout)
	}
	rc.SetBaseURL(strings.TrimRight(st.baseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetRetryCount(0)

	return &Sender{
		client:   rc,
		tokens:   tokens,
		from:     st.from,
		to:       to,
		business: st.business,
		policy:   bluemonday.StrictPolicy(),
	}, nil
}

// SendEmail delivers n and returns the Resend message id.
func (s *Sender) SendEmail(ctx context.Context, n domain.LeadNotification) (string, error) {
	apiKey, err := s.tokens.Value(ctx)
	if err != nil {
		return "", fmt.Errorf("resend: resolve api key: %w", err)
	}
	body, err := s.render(n)
	if err != nil {
		return "", err
	}

	var out emailResponse
	res, err := s.client.R().
		SetContext(ctx).
		SetAuthToken(apiKey).
		SetBody(emailRequest{
			From:    s.from,
			To:      []string{s.to},
			Subject: Subject(n),
			HTML:    body,
		}).
		SetResult(&out).
		Post("/emails")
	if err != nil {
		return "", fmt.Errorf("resend: request failed: %w", err)
	}
	if res.IsError() {
		return "", &APIError{StatusCode: res.StatusCode(), Details: rawDetails(res.Body())}
	}
	if out.ID == "" {
		return "", errors.New("resend: response missing id")
	}
	return out.ID, nil
}

// Subject builds the email subject line.
func Subject(n domain.LeadNotification) string {
	name := strings.TrimSpace(n.Name)
	if name == "" {
		name = "Cliente"
	}
	service := strings.TrimSpace(n.Service)
	if service == "" {
		service = "Serviço de Limpeza"
	}
	return fmt.Sprintf("🔔 Novo Lead: %s - %s", name, service)
}

type emailView struct {
	Business string
	domain.LeadNotification
}

// render strips any markup from the visitor-supplied fields and lets
// html/template do the escaping.
func (s *Sender) render(n domain.LeadNotification) (string, error) {
	view := emailView{
		Business: s.business,
		LeadNotification: domain.LeadNotification{
			Name:     s.clean(n.Name),
			Phone:    s.clean(n.Phone),
			Email:    s.clean(n.Email),
			Service:  s.clean(n.Service),
			Estimate: s.clean(n.Estimate),
			Address:  s.clean(n.Address),
			Details:  s.clean(n.Details),
		},
	}
	var buf bytes.Buffer
	if err := leadEmailTmpl.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("resend: render email: %w", err)
	}
	return buf.String(), nil
}

func (s *Sender) clean(v string) string {
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(v)))
}

func rawDetails(body []byte) json.RawMessage {
	body = bytes.TrimSpace(body)
	if len(body) > 0 && json.Valid(body) {
		return json.RawMessage(body)
	}
	quoted, _ := json.Marshal(string(body))
	return quoted
}
