// Package handler adapts the use cases to Lambda events. Every response
// carries the CORS headers the site's browser clients expect and an
// X-Correlation-Id, echoed from the request when one was sent.
package handler

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/usecase"
)

const correlationHeader = "X-Correlation-Id"

var corsHeaders = map[string]string{
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Headers": "authorization, x-client-info, apikey, content-type",
	"Access-Control-Allow-Methods": "POST, OPTIONS",
}

type errorResponse struct {
	Error   string          `json:"error"`
	Code    string          `json:"code,omitempty"`
	Details json.RawMessage `json:"details,omitempty"`
}

// Option configures any of the handlers.
type Option func(*base)

type base struct {
	logger *slog.Logger
}

func WithLogger(l *slog.Logger) Option {
	return func(b *base) {
		if l != nil {
			b.logger = l
		}
	}
}

func newBase(opts []Option) base {
	b := base{logger: slog.Default()}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

func responseHeaders(correlationID, contentType string) map[string]string {
	h := make(map[string]string, len(corsHeaders)+2)
	for k, v := range corsHeaders {
		h[k] = v
	}
	h[correlationHeader] = correlationID
	if contentType != "" {
		h["Content-Type"] = contentType
	}
	return h
}

func correlationID(headers map[string]string) string {
	for k, v := range headers {
		if strings.EqualFold(k, correlationHeader) && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return uuid.NewString()
}

func requestBody(body string, isBase64 bool) ([]byte, error) {
	if !isBase64 {
		return []byte(body), nil
	}
	return base64.StdEncoding.DecodeString(body)
}

func statusFor(code usecase.ErrorCode) int {
	switch code {
	case usecase.ErrorInvalidInput:
		return http.StatusBadRequest
	case usecase.ErrorRateLimited:
		return http.StatusTooManyRequests
	case usecase.ErrorPaymentRequired:
		return http.StatusPaymentRequired
	default:
		return http.StatusInternalServerError
	}
}

// details is the provider payload when there is one, else the error text.
func details(err error) json.RawMessage {
	if d, ok := usecase.ProviderDetails(err); ok && len(d) > 0 {
		return d
	}
	raw, _ := json.Marshal(err.Error())
	return raw
}

func jsonResponse(status int, correlationID string, v any) events.APIGatewayProxyResponse {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body = []byte(`{"error":"Unknown error","code":"INTERNAL_ERROR"}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    responseHeaders(correlationID, "application/json"),
		Body:       string(body),
	}
}

func preflight(correlationID string) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers:    responseHeaders(correlationID, "text/plain"),
		Body:       "ok",
	}
}

func invalidBody(correlationID string) events.APIGatewayProxyResponse {
	return jsonResponse(http.StatusBadRequest, correlationID, errorResponse{
		Error: "Invalid request body",
		Code:  string(usecase.ErrorInvalidInput),
	})
}

func logFailure(l *slog.Logger, msg, correlationID string, err error) {
	var ucErr *usecase.Error
	if errors.As(err, &ucErr) {
		l.Error(msg, "correlation_id", correlationID, "code", ucErr.Code, "reason", ucErr.Reason, "err", ucErr.Err)
		return
	}
	l.Error(msg, "correlation_id", correlationID, "err", err)
}
