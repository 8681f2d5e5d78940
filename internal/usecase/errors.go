package usecase

import (
	"encoding/json"
	"errors"
	"fmt"
)

type ErrorCode string

const (
	ErrorInvalidInput    ErrorCode = "INVALID_INPUT"
	ErrorRateLimited     ErrorCode = "RATE_LIMITED"
	ErrorPaymentRequired ErrorCode = "PAYMENT_REQUIRED"
	ErrorUpstream        ErrorCode = "UPSTREAM_ERROR"
	ErrorNotConfigured   ErrorCode = "NOT_CONFIGURED"
	ErrorInternal        ErrorCode = "INTERNAL_ERROR"
)

type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("usecase: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("usecase: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}

// CodeOf returns the usecase code carried by err, or ErrorInternal.
func CodeOf(err error) ErrorCode {
	var ucErr *Error
	if errors.As(err, &ucErr) {
		return ucErr.Code
	}
	return ErrorInternal
}

type httpStatusCoder interface {
	HTTPStatusCode() int
}

type providerDetailer interface {
	ProviderDetails() json.RawMessage
}

func upstreamStatusCode(err error) (int, bool) {
	var statusErr httpStatusCoder
	if !errors.As(err, &statusErr) {
		return 0, false
	}
	return statusErr.HTTPStatusCode(), true
}

// ProviderDetails returns the diagnostic body a notification provider sent
// back with a failure, if any.
func ProviderDetails(err error) (json.RawMessage, bool) {
	var d providerDetailer
	if !errors.As(err, &d) {
		return nil, false
	}
	return d.ProviderDetails(), true
}
