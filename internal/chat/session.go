// Package chat is the consumer side of the chat relay: it keeps the visible
// transcript, streams assistant replies into it, and texts the business when a
// reply declares a captured lead.
package chat

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/domain"
	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/lead"
	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/stream"
)

const (
	Greeting = "Hello! 👋 Welcome to Royal Diamond WA. I'm here to help you get a free cleaning estimate. What type of cleaning service are you interested in today?"
	Apology  = "I apologize, but I'm having trouble connecting. Please try again or call us directly at (425) 399-6635."

	// DefaultHistoryLimit matches the relay's per-request message cap.
	DefaultHistoryLimit = 50
)

var (
	ErrBusy         = errors.New("chat: a reply is still streaming")
	ErrEmptyMessage = errors.New("chat: message is empty")
)

// Relay opens a streamed reply for the whole conversation so far.
type Relay interface {
	StreamChat(ctx context.Context, messages []domain.ChatMessage) (io.ReadCloser, error)
}

type LeadNotifier interface {
	NotifyLead(ctx context.Context, n domain.LeadNotification) error
}

// Result describes one completed Send. Degraded is set when the reply was
// replaced by the apology; Err then holds the cause.
type Result struct {
	Reply    string
	Lead     *domain.LeadInfo
	Notified bool
	Degraded bool
	Err      error
}

type Session struct {
	relay    Relay
	notifier LeadNotifier
	logger   *slog.Logger
	limit    int

	busy     atomic.Bool
	mu       sync.Mutex
	messages []domain.ChatMessage
}

type Option func(*Session)

func WithLogger(l *slog.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithHistoryLimit caps how many of the latest messages are sent with each
// request. The local transcript keeps everything.
func WithHistoryLimit(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.limit = n
		}
	}
}

// NewSession returns a session seeded with the greeting.
func NewSession(relay Relay, notifier LeadNotifier, opts ...Option) (*Session, error) {
	if relay == nil {
		return nil, errors.New("chat: relay must not be nil")
	}
	if notifier == nil {
		return nil, errors.New("chat: notifier must not be nil")
	}
	s := &Session{
		relay:    relay,
		notifier: notifier,
		logger:   slog.Default(),
		limit:    DefaultHistoryLimit,
		messages: []domain.ChatMessage{{Role: domain.RoleAssistant, Content: Greeting}},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Messages returns a copy of the transcript.
func (s *Session) Messages() []domain.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.ChatMessage(nil), s.messages...)
}

// Send appends the visitor's text, streams the reply and calls onUpdate with
// the marker-free partial reply after every fragment. Relay and stream
// failures never surface as errors: the reply degrades to the apology and the
// user message stays in the transcript.
func (s *Session) Send(ctx context.Context, text string, onUpdate func(string)) (Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{}, ErrEmptyMessage
	}
	if !s.busy.CompareAndSwap(false, true) {
		return Result{}, ErrBusy
	}
	defer s.busy.Store(false)

	s.mu.Lock()
	s.messages = append(s.messages, domain.ChatMessage{Role: domain.RoleUser, Content: text})
	history := window(s.messages, s.limit)
	s.mu.Unlock()

	raw, err := s.stream(ctx, history, onUpdate)
	if err != nil {
		s.logger.Error("chat reply failed", "err", err)
		return s.degrade(raw, err), nil
	}

	reply := lead.Strip(raw)
	if reply != "" {
		s.appendAssistant(reply)
	}
	res := Result{Reply: reply}

	info, ok := lead.Extract(raw)
	if !ok {
		return res, nil
	}
	res.Lead = &info
	if info.Phone == "" {
		s.logger.Warn("lead marker without phone, not notifying")
		return res, nil
	}
	if err := s.notifier.NotifyLead(ctx, info.Notification()); err != nil {
		s.logger.Error("lead notification failed", "err", err)
		return res, nil
	}
	res.Notified = true
	return res, nil
}

func (s *Session) stream(ctx context.Context, history []domain.ChatMessage, onUpdate func(string)) (string, error) {
	body, err := s.relay.StreamChat(ctx, history)
	if err != nil {
		return "", err
	}
	defer func() { _ = body.Close() }()

	dec := stream.NewDecoder(body)
	var raw strings.Builder
	for {
		frag, err := dec.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return raw.String(), err
		}
		raw.WriteString(frag)
		if onUpdate != nil {
			onUpdate(lead.Strip(raw.String()))
		}
	}
	if n := dec.Skipped(); n > 0 {
		s.logger.Warn("skipped undecodable stream lines", "count", n)
	}
	return raw.String(), nil
}

// window copies the last limit messages. A cut history starts on a user turn.
func window(msgs []domain.ChatMessage, limit int) []domain.ChatMessage {
	start := max(len(msgs)-limit, 0)
	for start > 0 && start < len(msgs)-1 && msgs[start].Role != domain.RoleUser {
		start++
	}
	return append([]domain.ChatMessage(nil), msgs[start:]...)
}

// degrade keeps whatever partial reply arrived and appends the apology.
func (s *Session) degrade(raw string, cause error) Result {
	if partial := lead.Strip(raw); partial != "" {
		s.appendAssistant(partial)
	}
	s.appendAssistant(Apology)
	return Result{Reply: Apology, Degraded: true, Err: cause}
}

func (s *Session) appendAssistant(content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, domain.ChatMessage{Role: domain.RoleAssistant, Content: content})
}
