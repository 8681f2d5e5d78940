package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/domain"
	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/integrations/resend"
	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/integrations/twilio"
)

type mockEmail struct {
	id  string
	err error
	got []domain.LeadNotification
}

func (m *mockEmail) SendEmail(_ context.Context, n domain.LeadNotification) (string, error) {
	m.got = append(m.got, n)
	return m.id, m.err
}

type mockSMS struct {
	sid string
	err error
	got []domain.LeadNotification
}

func (m *mockSMS) SendSMS(_ context.Context, n domain.LeadNotification) (string, error) {
	m.got = append(m.got, n)
	return m.sid, m.err
}

func TestNewNotifyService_RequiresASender(t *testing.T) {
	_, err := NewNotifyService(nil, nil)
	require.Error(t, err)
}

func TestNotify_Success(t *testing.T) {
	email := &mockEmail{id: "em_1"}
	sms := &mockSMS{sid: "SM1"}
	rec := newRecorder()
	svc, err := NewNotifyService(email, sms, WithNotifyRecorder(rec))
	require.NoError(t, err)

	id, err := svc.SendEmail(context.Background(), domain.LeadNotification{Name: "Jane"})
	require.NoError(t, err)
	require.Equal(t, "em_1", id)

	sid, err := svc.SendSMS(context.Background(), domain.LeadNotification{Phone: "+15551234567"})
	require.NoError(t, err)
	require.Equal(t, "SM1", sid)

	require.NoError(t, svc.NotifyQuote(context.Background(), domain.LeadNotification{Name: "Quote Request"}))
	require.NoError(t, svc.NotifyLead(context.Background(), domain.LeadNotification{Phone: "+1"}))
	require.Len(t, email.got, 2)
	require.Len(t, sms.got, 2)
	require.Equal(t, 2, rec.notify["email/sent"])
	require.Equal(t, 2, rec.notify["sms/sent"])
}

func TestNotify_MissingChannel(t *testing.T) {
	svc, err := NewNotifyService(&mockEmail{id: "x"}, nil)
	require.NoError(t, err)
	_, err = svc.SendSMS(context.Background(), domain.LeadNotification{})
	expectError(t, err, ErrorNotConfigured, "sms_not_configured")

	svc, err = NewNotifyService(nil, &mockSMS{sid: "x"})
	require.NoError(t, err)
	err = svc.NotifyQuote(context.Background(), domain.LeadNotification{})
	expectError(t, err, ErrorNotConfigured, "email_not_configured")
}

func TestNotify_TwilioNotConfigured(t *testing.T) {
	svc, err := NewNotifyService(nil, &mockSMS{err: fmt.Errorf("%w: missing token", twilio.ErrNotConfigured)})
	require.NoError(t, err)
	_, err = svc.SendSMS(context.Background(), domain.LeadNotification{})
	expectError(t, err, ErrorNotConfigured, "sms_not_configured")
}

func TestNotify_ProviderErrorCarriesDetails(t *testing.T) {
	provErr := &resend.APIError{StatusCode: 422, Details: json.RawMessage(`{"message":"Invalid to field"}`)}
	svc, err := NewNotifyService(&mockEmail{err: provErr}, nil)
	require.NoError(t, err)

	_, err = svc.SendEmail(context.Background(), domain.LeadNotification{})
	expectError(t, err, ErrorUpstream, "email_provider_error")
	details, ok := ProviderDetails(err)
	require.True(t, ok)
	require.JSONEq(t, `{"message":"Invalid to field"}`, string(details))
}

func TestNotify_TransportError(t *testing.T) {
	svc, err := NewNotifyService(nil, &mockSMS{err: errors.New("dial tcp: timeout")})
	require.NoError(t, err)
	_, err = svc.SendSMS(context.Background(), domain.LeadNotification{})
	expectError(t, err, ErrorInternal, "sms_send_error")
	_, ok := ProviderDetails(err)
	require.False(t, ok)
}
