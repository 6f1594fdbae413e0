package validators

import (
	"razorpay-provider/internal/models"

	"github.com/shopspring/decimal"
)

type InitiatePaymentRequest struct {
	Amount       decimal.Decimal       `json:"amount" validate:"gte=0"`
	CurrencyCode string                `json:"currency_code" validate:"required,currency_code"`
	Context      models.PaymentContext `json:"context"`
}

// SessionRequest carries the session blob for capture, cancel, delete,
// retrieve and status.
type SessionRequest struct {
	Data *models.SessionData `json:"data" validate:"required"`
}

type AuthorizePaymentRequest struct {
	Data    *models.SessionData    `json:"data" validate:"required"`
	Context map[string]interface{} `json:"context"`
}

type RefundPaymentRequest struct {
	Data   *models.SessionData `json:"data" validate:"required"`
	Amount decimal.Decimal     `json:"amount" validate:"gt=0"`
}

type UpdatePaymentRequest struct {
	Amount       decimal.Decimal       `json:"amount" validate:"gte=0"`
	CurrencyCode string                `json:"currency_code" validate:"omitempty,currency_code"`
	Data         *models.SessionData   `json:"data"`
	Context      models.PaymentContext `json:"context"`
}

type VerifySignatureRequest struct {
	PaymentID string `json:"razorpay_payment_id" validate:"required,razorpay_id=pay"`
	OrderID   string `json:"razorpay_order_id" validate:"required,razorpay_id=order"`
	Signature string `json:"razorpay_signature" validate:"required,hexadecimal,len=64"`
}

func ValidateInitiatePayment(req *InitiatePaymentRequest) ValidationErrors {
	return ValidateStruct(req)
}

func ValidateRefundPayment(req *RefundPaymentRequest) ValidationErrors {
	return ValidateStruct(req)
}

func ValidateUpdatePayment(req *UpdatePaymentRequest) ValidationErrors {
	return ValidateStruct(req)
}

func (r *InitiatePaymentRequest) Input() *models.InitiatePaymentInput {
	return &models.InitiatePaymentInput{
		Amount:       r.Amount,
		CurrencyCode: r.CurrencyCode,
		Context:      r.Context,
	}
}

func (r *UpdatePaymentRequest) Input() *models.UpdatePaymentInput {
	return &models.UpdatePaymentInput{
		Amount:       r.Amount,
		CurrencyCode: r.CurrencyCode,
		Data:         r.Data,
		Context:      r.Context,
	}
}
