package payment

import (
	"errors"
	"fmt"
)

// ErrNotConfigured is returned when a required credential or secret is missing.
var ErrNotConfigured = errors.New("razorpay is not configured")

// GatewayError wraps a failed SDK call.
type GatewayError struct {
	Operation string
	Err       error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("razorpay %s failed: %v", e.Operation, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// Detail returns the upstream message without the operation prefix.
func (e *GatewayError) Detail() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}
