package usecase

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/domain"
)

const (
	defaultMaxMessages   = 50
	defaultMaxMessageLen = 4000
)

// Streamer opens a streaming completion against the model gateway.
type Streamer interface {
	StreamChat(ctx context.Context, model string, messages []domain.ChatMessage) (io.ReadCloser, error)
}

// Recorder receives outcome counts. The metrics package implements it.
type Recorder interface {
	RelayRequest(outcome string)
	Notification(channel, outcome string)
	QuoteStep(step string)
}

type nopRecorder struct{}

func (nopRecorder) RelayRequest(string)         {}
func (nopRecorder) Notification(string, string) {}
func (nopRecorder) QuoteStep(string)            {}

type RelayService struct {
	streamer      Streamer
	model         string
	maxMessages   int
	maxMessageLen int
	rec           Recorder
}

type RelayInput struct {
	Messages []domain.ChatMessage
}

type RelayOption func(*RelayService)

// WithLimits bounds the conversation a visitor can submit. Zero keeps the
// default.
func WithLimits(maxMessages, maxMessageLen int) RelayOption {
	return func(s *RelayService) {
		if maxMessages > 0 {
			s.maxMessages = maxMessages
		}
		if maxMessageLen > 0 {
			s.maxMessageLen = maxMessageLen
		}
	}
}

func WithRelayRecorder(r Recorder) RelayOption {
	return func(s *RelayService) {
		if r != nil {
			s.rec = r
		}
	}
}

func NewRelayService(st Streamer, model string, opts ...RelayOption) (*RelayService, error) {
	if st == nil {
		return nil, errors.New("usecase: streamer must not be nil")
	}
	model = strings.TrimSpace(model)
	if model == "" {
		return nil, errors.New("usecase: model must not be empty")
	}
	s := &RelayService{
		streamer:      st,
		model:         model,
		maxMessages:   defaultMaxMessages,
		maxMessageLen: defaultMaxMessageLen,
		rec:           nopRecorder{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Relay prefixes the fixed system instruction to the visitor's conversation
// and opens the upstream stream. The returned body is the gateway's event
// stream, unmodified; the caller must close it.
func (s *RelayService) Relay(ctx context.Context, in RelayInput) (io.ReadCloser, error) {
	if err := s.validate(in.Messages); err != nil {
		s.rec.RelayRequest("invalid")
		return nil, err
	}

	body, err := s.streamer.StreamChat(ctx, s.model, buildPromptMessages(in.Messages))
	if err != nil {
		status, ok := upstreamStatusCode(err)
		switch {
		case ok && status == http.StatusTooManyRequests:
			s.rec.RelayRequest("rate_limited")
			return nil, newError(ErrorRateLimited, "gateway_rate_limited", err)
		case ok && status == http.StatusPaymentRequired:
			s.rec.RelayRequest("payment_required")
			return nil, newError(ErrorPaymentRequired, "gateway_payment_required", err)
		case ok:
			s.rec.RelayRequest("upstream_error")
			return nil, newError(ErrorUpstream, "gateway_error", err)
		default:
			s.rec.RelayRequest("internal_error")
			return nil, newError(ErrorInternal, "gateway_request_error", err)
		}
	}
	s.rec.RelayRequest("ok")
	return body, nil
}

func (s *RelayService) validate(messages []domain.ChatMessage) error {
	if len(messages) == 0 {
		return newError(ErrorInvalidInput, "empty_messages", nil)
	}
	if len(messages) > s.maxMessages {
		return newError(ErrorInvalidInput, "too_many_messages", nil)
	}
	for _, m := range messages {
		if m.Role != domain.RoleUser && m.Role != domain.RoleAssistant {
			return newError(ErrorInvalidInput, "invalid_role", nil)
		}
		if len(m.Content) > s.maxMessageLen {
			return newError(ErrorInvalidInput, "message_too_long", nil)
		}
	}
	if strings.TrimSpace(messages[len(messages)-1].Content) == "" {
		return newError(ErrorInvalidInput, "empty_message", nil)
	}
	return nil
}
