package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/require"

	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/domain"
	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/integrations/resend"
	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/usecase"
)

type stubRelay struct {
	body string
	err  error
	in   usecase.RelayInput
}

func (s *stubRelay) Relay(_ context.Context, in usecase.RelayInput) (io.ReadCloser, error) {
	s.in = in
	if s.err != nil {
		return nil, s.err
	}
	return io.NopCloser(strings.NewReader(s.body)), nil
}

type stubNotify struct {
	id  string
	err error
	in  domain.LeadNotification
}

func (s *stubNotify) SendEmail(_ context.Context, n domain.LeadNotification) (string, error) {
	s.in = n
	return s.id, s.err
}

func (s *stubNotify) SendSMS(_ context.Context, n domain.LeadNotification) (string, error) {
	s.in = n
	return s.id, s.err
}

type stubQuotes struct {
	out usecase.QuoteOutput
	err error
	in  usecase.QuoteInput
}

func (s *stubQuotes) Advance(_ context.Context, in usecase.QuoteInput) (usecase.QuoteOutput, error) {
	s.in = in
	return s.out, s.err
}

func makeEvent(method, body string) events.APIGatewayProxyRequest {
	return events.APIGatewayProxyRequest{
		HTTPMethod: method,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       body,
	}
}

func makeURLEvent(method, body string) events.LambdaFunctionURLRequest {
	req := events.LambdaFunctionURLRequest{
		Headers: map[string]string{"content-type": "application/json"},
		Body:    body,
	}
	req.RequestContext.HTTP.Method = method
	return req
}

func parseBody[T any](t *testing.T, body string) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal([]byte(body), &v))
	return v
}

func readStream(t *testing.T, resp *events.LambdaFunctionURLStreamingResponse) string {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(raw)
}

func TestConstructors_ValidateDependencies(t *testing.T) {
	_, err := NewChatHandler(nil)
	require.Error(t, err)
	_, err = NewEmailHandler(nil)
	require.Error(t, err)
	_, err = NewSMSHandler(nil)
	require.Error(t, err)
	_, err = NewQuoteHandler(nil)
	require.Error(t, err)
}

func TestChat_StreamsRelayBody(t *testing.T) {
	relay := &stubRelay{body: "data: {\"choices\":[{\"delta\":{\"content\":\"Hi\"}}]}\n\ndata: [DONE]\n\n"}
	h, err := NewChatHandler(relay)
	require.NoError(t, err)

	resp, err := h.Handle(context.Background(), makeURLEvent(http.MethodPost, `{"messages":[{"role":"user","content":"hello"}]}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/event-stream", resp.Headers["Content-Type"])
	require.Equal(t, "*", resp.Headers["Access-Control-Allow-Origin"])
	require.NotEmpty(t, resp.Headers[correlationHeader])
	require.Equal(t, relay.body, readStream(t, resp))
	require.Equal(t, []domain.ChatMessage{{Role: "user", Content: "hello"}}, relay.in.Messages)
}

func TestChat_Base64Body(t *testing.T) {
	relay := &stubRelay{body: "data: [DONE]\n"}
	h, err := NewChatHandler(relay)
	require.NoError(t, err)

	req := makeURLEvent(http.MethodPost, base64.StdEncoding.EncodeToString([]byte(`{"messages":[{"role":"user","content":"hi"}]}`)))
	req.IsBase64Encoded = true
	resp, err := h.Handle(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, relay.in.Messages, 1)
}

func TestChat_Preflight(t *testing.T) {
	h, err := NewChatHandler(&stubRelay{})
	require.NoError(t, err)

	resp, err := h.Handle(context.Background(), makeURLEvent(http.MethodOptions, ""))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "authorization, x-client-info, apikey, content-type", resp.Headers["Access-Control-Allow-Headers"])
}

func TestChat_MapsRelayErrors(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"rate limited", &usecase.Error{Code: usecase.ErrorRateLimited, Reason: "gateway_rate_limited"}, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later."},
		{"payment", &usecase.Error{Code: usecase.ErrorPaymentRequired, Reason: "gateway_payment_required"}, http.StatusPaymentRequired, "Payment required. Please add credits."},
		{"upstream", fmt.Errorf("x: %w", &usecase.Error{Code: usecase.ErrorUpstream, Reason: "gateway_error"}), http.StatusInternalServerError, "AI service error"},
		{"invalid", &usecase.Error{Code: usecase.ErrorInvalidInput, Reason: "empty_messages"}, http.StatusBadRequest, "Invalid request body"},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, "Unknown error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h, err := NewChatHandler(&stubRelay{err: tc.err})
			require.NoError(t, err)
			resp, err := h.Handle(context.Background(), makeURLEvent(http.MethodPost, `{"messages":[]}`))
			require.NoError(t, err)
			require.Equal(t, tc.status, resp.StatusCode)
			out := parseBody[errorResponse](t, readStream(t, resp))
			require.Equal(t, tc.msg, out.Error)
		})
	}
}

func TestChat_InvalidBody(t *testing.T) {
	relay := &stubRelay{}
	h, err := NewChatHandler(relay)
	require.NoError(t, err)
	resp, err := h.Handle(context.Background(), makeURLEvent(http.MethodPost, "not-json"))
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	out := parseBody[errorResponse](t, readStream(t, resp))
	require.Equal(t, string(usecase.ErrorInvalidInput), out.Code)
	require.Nil(t, relay.in.Messages)
}

func TestEmail_HappyPath(t *testing.T) {
	sender := &stubNotify{id: "em_123"}
	h, err := NewEmailHandler(sender)
	require.NoError(t, err)

	resp, err := h.Handle(context.Background(), makeEvent(http.MethodPost, `{"name":"Jane","phone":"+1555","service":"Deep Cleaning"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := parseBody[emailResponse](t, resp.Body)
	require.True(t, out.Success)
	require.Equal(t, "em_123", out.EmailID)
	require.Equal(t, "Jane", sender.in.Name)
}

func TestEmail_ProviderFailureCarriesDetails(t *testing.T) {
	provErr := &resend.APIError{StatusCode: 422, Details: json.RawMessage(`{"message":"bad to"}`)}
	sender := &stubNotify{err: &usecase.Error{Code: usecase.ErrorUpstream, Reason: "email_provider_error", Err: provErr}}
	h, err := NewEmailHandler(sender)
	require.NoError(t, err)

	resp, err := h.Handle(context.Background(), makeEvent(http.MethodPost, `{}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	out := parseBody[errorResponse](t, resp.Body)
	require.Equal(t, "Failed to send email", out.Error)
	require.JSONEq(t, `{"message":"bad to"}`, string(out.Details))
}

func TestEmail_InvalidBodyAndPreflight(t *testing.T) {
	h, err := NewEmailHandler(&stubNotify{})
	require.NoError(t, err)

	resp, err := h.Handle(context.Background(), makeEvent(http.MethodPost, "{"))
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = h.Handle(context.Background(), makeEvent(http.MethodOptions, ""))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "*", resp.Headers["Access-Control-Allow-Origin"])
}

func TestSMS_Responses(t *testing.T) {
	sender := &stubNotify{id: "SM42"}
	h, err := NewSMSHandler(sender)
	require.NoError(t, err)

	resp, err := h.Handle(context.Background(), makeEvent(http.MethodPost, `{"name":"Jane","phone":"+15551234567"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	out := parseBody[smsResponse](t, resp.Body)
	require.Equal(t, "SM42", out.MessageSID)

	sender.err = &usecase.Error{Code: usecase.ErrorNotConfigured, Reason: "sms_not_configured"}
	resp, err = h.Handle(context.Background(), makeEvent(http.MethodPost, `{}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	errOut := parseBody[errorResponse](t, resp.Body)
	require.Equal(t, "SMS service not configured", errOut.Error)
	require.Empty(t, errOut.Details)

	sender.err = &usecase.Error{Code: usecase.ErrorInternal, Reason: "sms_send_error", Err: errors.New("dial tcp")}
	resp, err = h.Handle(context.Background(), makeEvent(http.MethodPost, `{}`))
	require.NoError(t, err)
	errOut = parseBody[errorResponse](t, resp.Body)
	require.Equal(t, "Failed to send SMS", errOut.Error)
	require.Contains(t, string(errOut.Details), "dial tcp")
}

func TestQuote_HappyPath(t *testing.T) {
	quotes := &stubQuotes{out: usecase.QuoteOutput{
		SessionID: "sess-1",
		Step:      domain.StepFrequency,
		Messages: []domain.WizardTurn{
			{Speaker: domain.SpeakerBot, Content: "How often?", Options: []domain.Option{{Value: "weekly", Label: "Weekly"}}},
		},
	}}
	h, err := NewQuoteHandler(quotes)
	require.NoError(t, err)

	resp, err := h.Handle(context.Background(), makeEvent(http.MethodPost, `{"sessionId":" sess-1 ","choice":"regular"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, usecase.QuoteInput{SessionID: "sess-1", Choice: "regular"}, quotes.in)

	out := parseBody[quoteResponse](t, resp.Body)
	require.Equal(t, "sess-1", out.SessionID)
	require.Equal(t, domain.StepFrequency, out.Step)
	require.Len(t, out.Options, 1)
	require.Nil(t, out.Quote)
}

func TestQuote_EmptyBodyStarts(t *testing.T) {
	quotes := &stubQuotes{out: usecase.QuoteOutput{SessionID: "new"}}
	h, err := NewQuoteHandler(quotes)
	require.NoError(t, err)

	resp, err := h.Handle(context.Background(), makeEvent(http.MethodPost, ""))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, usecase.QuoteInput{}, quotes.in)
}

func TestQuote_MapsErrors(t *testing.T) {
	quotes := &stubQuotes{err: &usecase.Error{Code: usecase.ErrorInvalidInput, Reason: "invalid_choice"}}
	h, err := NewQuoteHandler(quotes)
	require.NoError(t, err)

	resp, err := h.Handle(context.Background(), makeEvent(http.MethodPost, `{"choice":"weekly"}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "invalid_choice", parseBody[errorResponse](t, resp.Body).Error)

	quotes.err = errors.New("boom")
	resp, err = h.Handle(context.Background(), makeEvent(http.MethodPost, `{}`))
	require.NoError(t, err)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	require.Equal(t, string(usecase.ErrorInternal), parseBody[errorResponse](t, resp.Body).Code)
}

func TestHandle_UsesProvidedCorrelationID_CaseInsensitive(t *testing.T) {
	h, err := NewQuoteHandler(&stubQuotes{})
	require.NoError(t, err)

	event := makeEvent(http.MethodPost, `{}`)
	event.Headers["x-correlation-id"] = "corr-123"
	resp, err := h.Handle(context.Background(), event)
	require.NoError(t, err)
	require.Equal(t, "corr-123", resp.Headers[correlationHeader])
}
