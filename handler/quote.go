package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/domain"
	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/usecase"
)

type Advancer interface {
	Advance(ctx context.Context, in usecase.QuoteInput) (usecase.QuoteOutput, error)
}

type quoteRequest struct {
	SessionID string `json:"sessionId"`
	Choice    string `json:"choice"`
	Reset     bool   `json:"reset"`
}

type quoteResponse struct {
	SessionID string                 `json:"sessionId"`
	Step      domain.WizardStep      `json:"step"`
	Messages  []domain.WizardTurn    `json:"messages"`
	Options   []domain.Option        `json:"options,omitempty"`
	Quote     *domain.QuoteSummary   `json:"quote,omitempty"`
	Schedule  *usecase.ScheduleLinks `json:"schedule,omitempty"`
}

// QuoteHandler serves quote-wizard: one wizard transition per request, with
// the session kept server side under sessionId.
type QuoteHandler struct {
	base
	quotes Advancer
}

func NewQuoteHandler(quotes Advancer, opts ...Option) (*QuoteHandler, error) {
	if quotes == nil {
		return nil, errors.New("handler: quote service must not be nil")
	}
	return &QuoteHandler{base: newBase(opts), quotes: quotes}, nil
}

func (h *QuoteHandler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	cid := correlationID(req.Headers)
	if req.HTTPMethod == http.MethodOptions {
		return preflight(cid), nil
	}

	var in quoteRequest
	raw, err := requestBody(req.Body, req.IsBase64Encoded)
	if err == nil && strings.TrimSpace(string(raw)) != "" {
		err = json.Unmarshal(raw, &in)
	}
	if err != nil {
		return invalidBody(cid), nil
	}

	out, err := h.quotes.Advance(ctx, usecase.QuoteInput{
		SessionID: strings.TrimSpace(in.SessionID),
		Choice:    strings.TrimSpace(in.Choice),
		Reset:     in.Reset,
	})
	if err != nil {
		logFailure(h.logger, "quote wizard failed", cid, err)
		return jsonResponse(statusFor(usecase.CodeOf(err)), cid, quoteError(err)), nil
	}

	resp := quoteResponse{
		SessionID: out.SessionID,
		Step:      out.Step,
		Messages:  out.Messages,
		Quote:     out.Quote,
		Schedule:  out.Schedule,
	}
	if n := len(out.Messages); n > 0 {
		resp.Options = out.Messages[n-1].Options
	}
	return jsonResponse(http.StatusOK, cid, resp), nil
}

func quoteError(err error) errorResponse {
	var ucErr *usecase.Error
	if errors.As(err, &ucErr) && ucErr.Code == usecase.ErrorInvalidInput {
		return errorResponse{Error: ucErr.Reason, Code: string(ucErr.Code)}
	}
	return errorResponse{Error: "Unknown error", Code: string(usecase.CodeOf(err))}
}
