package utils

import "time"

// Application Constants
const (
	AppName    = "razorpay-provider"
	AppVersion = "1.0.0"

	DefaultCountryCode = "+91"

	// Authentication
	HostTokenTTL  = 1 * time.Hour
	HostRole      = "host"
	ContextUserID = "subject"
	ContextRole   = "role"

	// Request tracing
	HeaderRequestID  = "X-Request-ID"
	ContextRequestID = "request_id"

	// Webhooks
	MaxWebhookBodySize = 1 << 20 // 1MB
)

// HTTP Status Messages
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Error Messages
const (
	ErrInvalidToken     = "invalid token"
	ErrTokenExpired     = "token expired"
	ErrInternalServer   = "internal server error"
	ErrForbidden        = "forbidden"
	ErrValidationFailed = "validation failed"
)
