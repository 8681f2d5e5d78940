package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/domain"
	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/usecase"
)

type Relayer interface {
	Relay(ctx context.Context, in usecase.RelayInput) (io.ReadCloser, error)
}

type chatRequest struct {
	Messages []domain.ChatMessage `json:"messages"`
}

// ChatHandler serves cleaning-chat through a Lambda function URL with
// response streaming, so the gateway's event stream reaches the browser as it
// is produced.
type ChatHandler struct {
	base
	relay Relayer
}

func NewChatHandler(relay Relayer, opts ...Option) (*ChatHandler, error) {
	if relay == nil {
		return nil, errors.New("handler: relay must not be nil")
	}
	return &ChatHandler{base: newBase(opts), relay: relay}, nil
}

func (h *ChatHandler) Handle(ctx context.Context, req events.LambdaFunctionURLRequest) (*events.LambdaFunctionURLStreamingResponse, error) {
	cid := correlationID(req.Headers)

	if req.RequestContext.HTTP.Method == http.MethodOptions {
		return &events.LambdaFunctionURLStreamingResponse{
			StatusCode: http.StatusOK,
			Headers:    responseHeaders(cid, "text/plain"),
			Body:       strings.NewReader("ok"),
		}, nil
	}

	raw, err := requestBody(req.Body, req.IsBase64Encoded)
	var in chatRequest
	if err == nil {
		err = json.Unmarshal(raw, &in)
	}
	if err != nil {
		return streamJSON(invalidBody(cid)), nil
	}

	body, err := h.relay.Relay(ctx, usecase.RelayInput{Messages: in.Messages})
	if err != nil {
		logFailure(h.logger, "chat relay failed", cid, err)
		return streamJSON(chatError(cid, err)), nil
	}

	h.logger.Info("chat relay streaming", "correlation_id", cid, "messages", len(in.Messages))
	return &events.LambdaFunctionURLStreamingResponse{
		StatusCode: http.StatusOK,
		Headers:    responseHeaders(cid, "text/event-stream"),
		Body:       body,
	}, nil
}

func chatError(cid string, err error) events.APIGatewayProxyResponse {
	code := usecase.CodeOf(err)
	msg := "Unknown error"
	switch code {
	case usecase.ErrorInvalidInput:
		msg = "Invalid request body"
	case usecase.ErrorRateLimited:
		msg = "Rate limit exceeded. Please try again later."
	case usecase.ErrorPaymentRequired:
		msg = "Payment required. Please add credits."
	case usecase.ErrorUpstream:
		msg = "AI service error"
	}
	return jsonResponse(statusFor(code), cid, errorResponse{Error: msg, Code: string(code)})
}

func streamJSON(r events.APIGatewayProxyResponse) *events.LambdaFunctionURLStreamingResponse {
	return &events.LambdaFunctionURLStreamingResponse{
		StatusCode: r.StatusCode,
		Headers:    r.Headers,
		Body:       strings.NewReader(r.Body),
	}
}
