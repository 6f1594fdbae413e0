package models

import (
	"errors"
	"fmt"

	"razorpay-provider/pkg/payment"
)

const (
	ErrorCodeInvalidData           = "invalid_data"
	ErrorCodeUnsupportedOperation  = "payment_intent_operation_unsupported"
	ErrorCodeRefundPaymentNotFound = "refund_payment_not_found"
	ErrorCodeCaptureFailed         = "capture_failed"
	ErrorCodeSessionLocked         = "session_locked"
	ErrorCodeNotConfigured         = "not_configured"
	ErrorCodeUpstream              = "upstream_error"
)

// ProviderError is the error shape handed back to the host for every failed
// operation.
type ProviderError struct {
	Message string `json:"error"`
	Code    string `json:"code,omitempty"`
	Detail  string `json:"detail,omitempty"`
}

func (e *ProviderError) Error() string {
	if e.Detail == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, e.Detail)
}

// NewValidationError returns an invalid_data error.
func NewValidationError(message string) *ProviderError {
	return &ProviderError{Message: message, Code: ErrorCodeInvalidData, Detail: message}
}

// BuildError wraps cause under message. A wrapped ProviderError contributes
// "error\ndetail" as the detail and keeps its code; any other error
// contributes its own detail or message.
func BuildError(message string, cause error) *ProviderError {
	out := &ProviderError{Message: message}
	if cause == nil {
		return out
	}

	var pe *ProviderError
	if errors.As(cause, &pe) {
		out.Code = pe.Code
		out.Detail = pe.Message + "\n" + pe.Detail
		return out
	}

	var gw *payment.GatewayError
	if errors.As(cause, &gw) {
		out.Code = ErrorCodeUpstream
	}
	if errors.Is(cause, payment.ErrNotConfigured) {
		out.Code = ErrorCodeNotConfigured
	}

	var detailed interface{ Detail() string }
	if errors.As(cause, &detailed) {
		out.Detail = detailed.Detail()
	} else {
		out.Detail = cause.Error()
	}
	return out
}
