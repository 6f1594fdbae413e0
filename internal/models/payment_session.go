package models

import (
	"razorpay-provider/pkg/payment"

	"github.com/shopspring/decimal"
)

type SessionStatus string

const (
	SessionStatusRequiresMore SessionStatus = "requires_more"
	SessionStatusAuthorized   SessionStatus = "authorized"
	SessionStatusCaptured     SessionStatus = "captured"
	SessionStatusPending      SessionStatus = "pending"
	SessionStatusError        SessionStatus = "error"
	SessionStatusCanceled     SessionStatus = "canceled"
)

// SessionData is the provider blob stored by the host for one payment session.
// It mirrors the gateway order plus what the provider learned along the way.
type SessionData struct {
	ID         string        `json:"id,omitempty"`
	OrderID    string        `json:"order_id,omitempty"`
	Entity     string        `json:"entity,omitempty"`
	Amount     int64         `json:"amount"`
	AmountPaid int64         `json:"amount_paid"`
	AmountDue  int64         `json:"amount_due"`
	Currency   string        `json:"currency,omitempty"`
	Receipt    string        `json:"receipt,omitempty"`
	Status     string        `json:"status,omitempty"`
	Attempts   int           `json:"attempts"`
	Notes      payment.Notes `json:"notes,omitempty"`
	CreatedAt  int64         `json:"created_at,omitempty"`

	IntentRequest   *payment.OrderRequest       `json:"intentRequest,omitempty"`
	Payments        map[string]*payment.Payment `json:"payments,omitempty"`
	RefundSessions  []payment.Refund            `json:"refundSessions,omitempty"`
	CaptureFailures map[string]string           `json:"capture_failures,omitempty"`
}

// NewSessionData builds session data from a freshly created order.
func NewSessionData(order *payment.Order, intent *payment.OrderRequest) *SessionData {
	data := &SessionData{IntentRequest: intent}
	data.ApplyOrder(order)
	return data
}

// ApplyOrder copies the order attributes onto the session.
func (s *SessionData) ApplyOrder(order *payment.Order) {
	if order == nil {
		return
	}
	s.ID = order.ID
	s.Entity = order.Entity
	s.Amount = order.Amount
	s.AmountPaid = order.AmountPaid
	s.AmountDue = order.AmountDue
	s.Currency = order.Currency
	s.Receipt = order.Receipt
	s.Status = order.Status
	s.Attempts = order.Attempts
	s.Notes = order.Notes
	s.CreatedAt = order.CreatedAt
}

// LookupIDs returns the ids to try when fetching the order, primary first.
func (s *SessionData) LookupIDs() []string {
	if s == nil {
		return nil
	}
	var ids []string
	if s.ID != "" {
		ids = append(ids, s.ID)
	}
	if s.OrderID != "" && s.OrderID != s.ID {
		ids = append(ids, s.OrderID)
	}
	return ids
}

// IntentCustomerID returns the gateway customer id recorded at initiate time.
func (s *SessionData) IntentCustomerID() string {
	if s == nil || s.IntentRequest == nil {
		return ""
	}
	return s.IntentRequest.Notes["razorpay_id"]
}

// Cart is the host context passed alongside a session ("extra").
type Cart struct {
	ID             string        `json:"id"`
	ResourceID     string        `json:"resource_id"`
	Notes          payment.Notes `json:"notes"`
	Customer       *Customer     `json:"customer,omitempty"`
	BillingAddress *Address      `json:"billing_address,omitempty"`
}

type PaymentContext struct {
	SessionID      string    `json:"session_id"`
	IdempotencyKey string    `json:"idempotency_key,omitempty"`
	Customer       *Customer `json:"customer,omitempty"`
	BillingAddress *Address  `json:"billing_address,omitempty"`
	Cart           *Cart     `json:"extra,omitempty"`
}

// ResolveCustomer prefers the context customer over the cart's.
func (c PaymentContext) ResolveCustomer() *Customer {
	if c.Customer != nil {
		return c.Customer
	}
	if c.Cart != nil {
		return c.Cart.Customer
	}
	return nil
}

// ResolveBilling prefers the context billing address over the cart's.
func (c PaymentContext) ResolveBilling() *Address {
	if c.BillingAddress != nil {
		return c.BillingAddress
	}
	if c.Cart != nil {
		return c.Cart.BillingAddress
	}
	return nil
}

type InitiatePaymentInput struct {
	Amount       decimal.Decimal `json:"amount"`
	CurrencyCode string          `json:"currency_code"`
	Context      PaymentContext  `json:"context"`
}

type UpdatePaymentInput struct {
	Amount       decimal.Decimal `json:"amount"`
	CurrencyCode string          `json:"currency_code"`
	Data         *SessionData    `json:"data"`
	Context      PaymentContext  `json:"context"`
}

// UpdateDataInput carries a data-only update. Amount and currency are accepted
// only so they can be rejected.
type UpdateDataInput struct {
	Amount   *decimal.Decimal `json:"amount,omitempty"`
	Currency string           `json:"currency,omitempty"`
	Notes    payment.Notes    `json:"notes,omitempty"`
	Data     *SessionData     `json:"data"`
}

type AuthorizeResult struct {
	Status SessionStatus `json:"status"`
	Data   *SessionData  `json:"data"`
}
