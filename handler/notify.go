package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/domain"
	"github.com/neoscienzatechnology-lgtm/Royaldiamondwebsite/internal/usecase"
)

type EmailSender interface {
	SendEmail(ctx context.Context, n domain.LeadNotification) (string, error)
}

type SMSSender interface {
	SendSMS(ctx context.Context, n domain.LeadNotification) (string, error)
}

type emailResponse struct {
	Success bool   `json:"success"`
	EmailID string `json:"emailId"`
}

type smsResponse struct {
	Success    bool   `json:"success"`
	MessageSID string `json:"messageSid"`
}

// EmailHandler serves send-lead-email.
type EmailHandler struct {
	base
	sender EmailSender
}

func NewEmailHandler(sender EmailSender, opts ...Option) (*EmailHandler, error) {
	if sender == nil {
		return nil, errors.New("handler: email sender must not be nil")
	}
	return &EmailHandler{base: newBase(opts), sender: sender}, nil
}

func (h *EmailHandler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	cid := correlationID(req.Headers)
	if req.HTTPMethod == http.MethodOptions {
		return preflight(cid), nil
	}
	n, ok := decodeNotification(req)
	if !ok {
		return invalidBody(cid), nil
	}

	id, err := h.sender.SendEmail(ctx, n)
	if err != nil {
		logFailure(h.logger, "lead email failed", cid, err)
		return jsonResponse(statusFor(usecase.CodeOf(err)), cid, errorResponse{
			Error:   "Failed to send email",
			Code:    string(usecase.CodeOf(err)),
			Details: details(err),
		}), nil
	}
	h.logger.Info("lead email sent", "correlation_id", cid, "email_id", id)
	return jsonResponse(http.StatusOK, cid, emailResponse{Success: true, EmailID: id}), nil
}

// SMSHandler serves send-lead-sms.
type SMSHandler struct {
	base
	sender SMSSender
}

func NewSMSHandler(sender SMSSender, opts ...Option) (*SMSHandler, error) {
	if sender == nil {
		return nil, errors.New("handler: sms sender must not be nil")
	}
	return &SMSHandler{base: newBase(opts), sender: sender}, nil
}

func (h *SMSHandler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	cid := correlationID(req.Headers)
	if req.HTTPMethod == http.MethodOptions {
		return preflight(cid), nil
	}
	n, ok := decodeNotification(req)
	if !ok {
		return invalidBody(cid), nil
	}

	sid, err := h.sender.SendSMS(ctx, n)
	if err != nil {
		logFailure(h.logger, "lead sms failed", cid, err)
		code := usecase.CodeOf(err)
		if code == usecase.ErrorNotConfigured {
			return jsonResponse(http.StatusInternalServerError, cid, errorResponse{
				Error: "SMS service not configured",
				Code:  string(code),
			}), nil
		}
		return jsonResponse(statusFor(code), cid, errorResponse{
			Error:   "Failed to send SMS",
			Code:    string(code),
			Details: details(err),
		}), nil
	}
	h.logger.Info("lead sms sent", "correlation_id", cid, "message_sid", sid)
	return jsonResponse(http.StatusOK, cid, smsResponse{Success: true, MessageSID: sid}), nil
}

func decodeNotification(req events.APIGatewayProxyRequest) (domain.LeadNotification, bool) {
	raw, err := requestBody(req.Body, req.IsBase64Encoded)
	if err != nil {
		return domain.LeadNotification{}, false
	}
	var n domain.LeadNotification
	if err := json.Unmarshal(raw, &n); err != nil {
		return domain.LeadNotification{}, false
	}
	return n, true
}
