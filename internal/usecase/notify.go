package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/domain"
)

const (
	channelEmail = "email"
	channelSMS   = "sms"
)

type EmailSender interface {
	SendEmail(ctx context.Context, n domain.LeadNotification) (string, error)
}

type SMSSender interface {
	SendSMS(ctx context.Context, n domain.LeadNotification) (string, error)
}

// notConfigured is implemented by sender errors that mean credentials are
// missing rather than that the provider refused the message.
type notConfigured interface {
	NotConfigured() bool
}

// NotifyService forwards lead notifications to the email and SMS providers.
// Either sender may be nil; calls to a missing channel fail with
// ErrorNotConfigured.
type NotifyService struct {
	email  EmailSender
	sms    SMSSender
	rec    Recorder
	logger *slog.Logger
}

type NotifyOption func(*NotifyService)

func WithNotifyRecorder(r Recorder) NotifyOption {
	return func(s *NotifyService) {
		if r != nil {
			s.rec = r
		}
	}
}

func WithNotifyLogger(l *slog.Logger) NotifyOption {
	return func(s *NotifyService) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewNotifyService(email EmailSender, sms SMSSender, opts ...NotifyOption) (*NotifyService, error) {
	if email == nil && sms == nil {
		return nil, errors.New("usecase: at least one notification sender is required")
	}
	s := &NotifyService{email: email, sms: sms, rec: nopRecorder{}, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SendEmail mails n to the business and returns the provider message id.
func (s *NotifyService) SendEmail(ctx context.Context, n domain.LeadNotification) (string, error) {
	if s.email == nil {
		s.rec.Notification(channelEmail, "not_configured")
		return "", newError(ErrorNotConfigured, "email_not_configured", nil)
	}
	id, err := s.email.SendEmail(ctx, n)
	if err != nil {
		return "", s.fail(channelEmail, err)
	}
	s.rec.Notification(channelEmail, "sent")
	s.logger.Info("lead email sent", "email_id", id, "service", n.Service)
	return id, nil
}

// SendSMS texts n to the business and returns the provider message SID.
func (s *NotifyService) SendSMS(ctx context.Context, n domain.LeadNotification) (string, error) {
	if s.sms == nil {
		s.rec.Notification(channelSMS, "not_configured")
		return "", newError(ErrorNotConfigured, "sms_not_configured", nil)
	}
	sid, err := s.sms.SendSMS(ctx, n)
	if err != nil {
		return "", s.fail(channelSMS, err)
	}
	s.rec.Notification(channelSMS, "sent")
	s.logger.Info("lead sms sent", "message_sid", sid, "service", n.Service)
	return sid, nil
}

// NotifyQuote is the in-process quote email path used by the wizard.
func (s *NotifyService) NotifyQuote(ctx context.Context, n domain.LeadNotification) error {
	_, err := s.SendEmail(ctx, n)
	return err
}

// NotifyLead is the in-process SMS path used by the chat session.
func (s *NotifyService) NotifyLead(ctx context.Context, n domain.LeadNotification) error {
	_, err := s.SendSMS(ctx, n)
	return err
}

func (s *NotifyService) fail(channel string, err error) error {
	var nc notConfigured
	if errors.As(err, &nc) && nc.NotConfigured() {
		s.rec.Notification(channel, "not_configured")
		return newError(ErrorNotConfigured, channel+"_not_configured", err)
	}
	if _, ok := upstreamStatusCode(err); ok {
		s.rec.Notification(channel, "provider_error")
		return newError(ErrorUpstream, channel+"_provider_error", err)
	}
	s.rec.Notification(channel, "failed")
	return newError(ErrorInternal, channel+"_send_error", err)
}
