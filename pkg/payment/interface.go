package payment

import (
	"context"
	"encoding/json"
	"fmt"
)

// Gateway is the subset of the Razorpay API the provider relies on. Amounts are
// always in the currency's smallest unit.
type Gateway interface {
	CreateOrder(ctx context.Context, request *OrderRequest) (*Order, error)
	FetchOrder(ctx context.Context, orderID string) (*Order, error)
	EditOrder(ctx context.Context, orderID string, notes Notes) (*Order, error)
	FetchOrderPayments(ctx context.Context, orderID string) (*PaymentList, error)

	CapturePayment(ctx context.Context, paymentID string, amount int64, currency string) (*Payment, error)
	RefundPayment(ctx context.Context, paymentID string, request *RefundRequest) (*Refund, error)

	CreateCustomer(ctx context.Context, request *CustomerRequest) (*Customer, error)
	FetchCustomer(ctx context.Context, customerID string) (*Customer, error)
	EditCustomer(ctx context.Context, customerID string, request *CustomerRequest) (*Customer, error)
	ListCustomers(ctx context.Context, count, skip int) (*CustomerList, error)
}

const (
	OrderStatusCreated   = "created"
	OrderStatusAttempted = "attempted"
	OrderStatusPaid      = "paid"

	PaymentStatusCreated    = "created"
	PaymentStatusAuthorized = "authorized"
	PaymentStatusCaptured   = "captured"
	PaymentStatusRefunded   = "refunded"
	PaymentStatusFailed     = "failed"

	CaptureAutomatic = "automatic"
	CaptureManual    = "manual"
)

// Notes is Razorpay's free-form key/value map. The API renders an empty notes
// object as a JSON array, so decoding accepts both shapes.
type Notes map[string]string

func (n *Notes) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	switch v := raw.(type) {
	case nil:
		*n = nil
	case []interface{}:
		*n = Notes{}
	case map[string]interface{}:
		notes := make(Notes, len(v))
		for key, value := range v {
			switch s := value.(type) {
			case string:
				notes[key] = s
			case nil:
				notes[key] = ""
			default:
				notes[key] = fmt.Sprint(s)
			}
		}
		*n = notes
	default:
		return fmt.Errorf("notes: unexpected JSON type %T", raw)
	}
	return nil
}

// Clone returns a copy that is safe to mutate.
func (n Notes) Clone() Notes {
	out := make(Notes, len(n))
	for k, v := range n {
		out[k] = v
	}
	return out
}

// Merge overlays other on top of a copy of n.
func (n Notes) Merge(other Notes) Notes {
	out := n.Clone()
	for k, v := range other {
		out[k] = v
	}
	return out
}

type CaptureOptions struct {
	RefundSpeed           string `json:"refund_speed,omitempty"`
	AutomaticExpiryPeriod int    `json:"automatic_expiry_period,omitempty"`
	ManualExpiryPeriod    int    `json:"manual_expiry_period,omitempty"`
}

type OrderPaymentOptions struct {
	Capture        string          `json:"capture"`
	CaptureOptions *CaptureOptions `json:"capture_options,omitempty"`
}

// OrderRequest is the body sent to create an order. CaptureMethod,
// SetupFutureUsage and PaymentMethodTypes come from the intent options supplier
// and are omitted when empty.
type OrderRequest struct {
	Amount             int64                `json:"amount"`
	Currency           string               `json:"currency"`
	Receipt            string               `json:"receipt,omitempty"`
	Notes              Notes                `json:"notes"`
	Payment            *OrderPaymentOptions `json:"payment,omitempty"`
	CaptureMethod      string               `json:"capture_method,omitempty"`
	SetupFutureUsage   string               `json:"setup_future_usage,omitempty"`
	PaymentMethodTypes []string             `json:"payment_method_types,omitempty"`
}

type Order struct {
	ID         string `json:"id"`
	Entity     string `json:"entity,omitempty"`
	Amount     int64  `json:"amount"`
	AmountPaid int64  `json:"amount_paid"`
	AmountDue  int64  `json:"amount_due"`
	Currency   string `json:"currency"`
	Receipt    string `json:"receipt,omitempty"`
	Status     string `json:"status"`
	Attempts   int    `json:"attempts"`
	Notes      Notes  `json:"notes"`
	CreatedAt  int64  `json:"created_at"`
}

type Payment struct {
	ID             string `json:"id"`
	Entity         string `json:"entity,omitempty"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	Status         string `json:"status"`
	OrderID        string `json:"order_id"`
	Method         string `json:"method,omitempty"`
	Captured       bool   `json:"captured"`
	AmountRefunded int64  `json:"amount_refunded"`
	Email          string `json:"email,omitempty"`
	Contact        string `json:"contact,omitempty"`
	CustomerID     string `json:"customer_id,omitempty"`
	Notes          Notes  `json:"notes"`
	ErrorCode      string `json:"error_code,omitempty"`
	ErrorReason    string `json:"error_reason,omitempty"`
	CreatedAt      int64  `json:"created_at"`
}

type PaymentList struct {
	Entity string    `json:"entity,omitempty"`
	Count  int       `json:"count"`
	Items  []Payment `json:"items"`
}

type RefundRequest struct {
	Amount  int64  `json:"amount"`
	Speed   string `json:"speed,omitempty"`
	Receipt string `json:"receipt,omitempty"`
	Notes   Notes  `json:"notes,omitempty"`
}

type Refund struct {
	ID             string `json:"id"`
	Entity         string `json:"entity,omitempty"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	PaymentID      string `json:"payment_id"`
	Status         string `json:"status"`
	SpeedRequested string `json:"speed_requested,omitempty"`
	SpeedProcessed string `json:"speed_processed,omitempty"`
	Notes          Notes  `json:"notes"`
	CreatedAt      int64  `json:"created_at"`
}

// CustomerRequest is used for both create and edit. FailExisting is only
// meaningful on create: 0 returns the existing customer instead of failing.
type CustomerRequest struct {
	Name         string `json:"name,omitempty"`
	Email        string `json:"email,omitempty"`
	Contact      string `json:"contact,omitempty"`
	GSTIN        string `json:"gstin,omitempty"`
	FailExisting *int   `json:"fail_existing,omitempty"`
	Notes        Notes  `json:"notes,omitempty"`
}

type Customer struct {
	ID        string `json:"id"`
	Entity    string `json:"entity,omitempty"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Contact   string `json:"contact"`
	GSTIN     string `json:"gstin,omitempty"`
	Notes     Notes  `json:"notes"`
	CreatedAt int64  `json:"created_at"`
}

type CustomerList struct {
	Entity string     `json:"entity,omitempty"`
	Count  int        `json:"count"`
	Items  []Customer `json:"items"`
}

// WebhookPayload is the decoded body of a Razorpay webhook delivery.
type WebhookPayload struct {
	Entity    string   `json:"entity"`
	AccountID string   `json:"account_id"`
	Event     string   `json:"event"`
	Contains  []string `json:"contains"`
	Payload   struct {
		Payment *struct {
			Entity *Payment `json:"entity"`
		} `json:"payment"`
		Order *struct {
			Entity *Order `json:"entity"`
		} `json:"order"`
	} `json:"payload"`
	CreatedAt int64 `json:"created_at"`
}

// PaymentEntity returns the nested payload.payment.entity, or nil.
func (w *WebhookPayload) PaymentEntity() *Payment {
	if w == nil || w.Payload.Payment == nil {
		return nil
	}
	return w.Payload.Payment.Entity
}
