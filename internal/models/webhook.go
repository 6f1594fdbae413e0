package models

import (
	"net/http"

	"razorpay-provider/pkg/payment"

	"github.com/shopspring/decimal"
)

type WebhookAction string

const (
	WebhookActionSuccessful   WebhookAction = "captured"
	WebhookActionAuthorized   WebhookAction = "authorized"
	WebhookActionFailed       WebhookAction = "failed"
	WebhookActionNotSupported WebhookAction = "not_supported"
)

const (
	HeaderWebhookSignature = "X-Razorpay-Signature"
	HeaderWebhookEventID   = "X-Razorpay-Event-Id"
)

// WebhookEnvelope is one inbound delivery. RawBody must be the exact bytes
// received; signatures are computed over them.
type WebhookEnvelope struct {
	Headers http.Header
	RawBody []byte
	Payload *payment.WebhookPayload
}

func (e *WebhookEnvelope) Signature() string {
	return e.Headers.Get(HeaderWebhookSignature)
}

func (e *WebhookEnvelope) EventID() string {
	return e.Headers.Get(HeaderWebhookEventID)
}

type WebhookData struct {
	SessionID string          `json:"session_id"`
	Amount    decimal.Decimal `json:"amount"`
}

type WebhookResult struct {
	Action    WebhookAction `json:"action"`
	Data      *WebhookData  `json:"data,omitempty"`
	Duplicate bool          `json:"duplicate,omitempty"`

	// Payment and Event are kept for local consumers and not serialised.
	Payment *payment.Payment `json:"-"`
	Event   string           `json:"-"`
}

// PaymentEvent is what the live feed broadcasts for a classified webhook.
type PaymentEvent struct {
	Event     string          `json:"event"`
	Action    WebhookAction   `json:"action"`
	SessionID string          `json:"session_id,omitempty"`
	PaymentID string          `json:"payment_id,omitempty"`
	OrderID   string          `json:"order_id,omitempty"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency,omitempty"`
	Timestamp int64           `json:"timestamp"`
}
