package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/razorpay/razorpay-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const accountHeader = "X-Razorpay-Account"

// RazorpayGateway implements Gateway over the razorpay-go SDK. The SDK has no
// context support, so every call checks ctx before dispatching.
type RazorpayGateway struct {
	client  *razorpay.Client
	account string
	metrics *Metrics
	tracer  trace.Tracer
}

type RazorpayOption func(*RazorpayGateway)

// WithAccount sends X-Razorpay-Account on every request.
func WithAccount(account string) RazorpayOption {
	return func(g *RazorpayGateway) {
		g.account = account
	}
}

func WithMetrics(metrics *Metrics) RazorpayOption {
	return func(g *RazorpayGateway) {
		g.metrics = metrics
	}
}

func NewRazorpayGateway(keyID, keySecret string, opts ...RazorpayOption) (*RazorpayGateway, error) {
	if keyID == "" || keySecret == "" {
		return nil, fmt.Errorf("razorpay key id and secret are required: %w", ErrNotConfigured)
	}

	g := &RazorpayGateway{
		client: razorpay.NewClient(keyID, keySecret),
		tracer: otel.Tracer("razorpay-provider/pkg/payment"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

func (g *RazorpayGateway) headers() map[string]string {
	headers := map[string]string{}
	if g.account != "" {
		headers[accountHeader] = g.account
	}
	return headers
}

// call runs one SDK request inside a span and records its outcome.
func (g *RazorpayGateway) call(ctx context.Context, operation string, fn func(headers map[string]string) (map[string]interface{}, error), out interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, span := g.tracer.Start(ctx, "razorpay."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("razorpay.operation", operation)),
	)
	defer span.End()

	start := time.Now()
	resp, err := fn(g.headers())
	g.metrics.observe(operation, time.Since(start), err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return &GatewayError{Operation: operation, Err: err}
	}

	if err := decodeResponse(resp, out); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to decode %s response: %w", operation, err)
	}
	return nil
}

func (g *RazorpayGateway) CreateOrder(ctx context.Context, request *OrderRequest) (*Order, error) {
	data, err := encodeRequest(request)
	if err != nil {
		return nil, err
	}

	var order Order
	err = g.call(ctx, "order.create", func(h map[string]string) (map[string]interface{}, error) {
		return g.client.Order.Create(data, h)
	}, &order)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (g *RazorpayGateway) FetchOrder(ctx context.Context, orderID string) (*Order, error) {
	var order Order
	err := g.call(ctx, "order.fetch", func(h map[string]string) (map[string]interface{}, error) {
		return g.client.Order.Fetch(orderID, nil, h)
	}, &order)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (g *RazorpayGateway) EditOrder(ctx context.Context, orderID string, notes Notes) (*Order, error) {
	data := map[string]interface{}{"notes": map[string]string(notes)}

	var order Order
	err := g.call(ctx, "order.edit", func(h map[string]string) (map[string]interface{}, error) {
		return g.client.Order.Update(orderID, data, h)
	}, &order)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (g *RazorpayGateway) FetchOrderPayments(ctx context.Context, orderID string) (*PaymentList, error) {
	var list PaymentList
	err := g.call(ctx, "order.payments", func(h map[string]string) (map[string]interface{}, error) {
		return g.client.Order.Payments(orderID, nil, h)
	}, &list)
	if err != nil {
		return nil, err
	}
	return &list, nil
}

func (g *RazorpayGateway) CapturePayment(ctx context.Context, paymentID string, amount int64, currency string) (*Payment, error) {
	data := map[string]interface{}{"currency": currency}

	var p Payment
	err := g.call(ctx, "payment.capture", func(h map[string]string) (map[string]interface{}, error) {
		return g.client.Payment.Capture(paymentID, int(amount), data, h)
	}, &p)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (g *RazorpayGateway) RefundPayment(ctx context.Context, paymentID string, request *RefundRequest) (*Refund, error) {
	data, err := encodeRequest(request)
	if err != nil {
		return nil, err
	}

	var refund Refund
	err = g.call(ctx, "payment.refund", func(h map[string]string) (map[string]interface{}, error) {
		return g.client.Payment.Refund(paymentID, int(request.Amount), data, h)
	}, &refund)
	if err != nil {
		return nil, err
	}
	return &refund, nil
}

func (g *RazorpayGateway) CreateCustomer(ctx context.Context, request *CustomerRequest) (*Customer, error) {
	data, err := encodeRequest(request)
	if err != nil {
		return nil, err
	}

	var customer Customer
	err = g.call(ctx, "customer.create", func(h map[string]string) (map[string]interface{}, error) {
		return g.client.Customer.Create(data, h)
	}, &customer)
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (g *RazorpayGateway) FetchCustomer(ctx context.Context, customerID string) (*Customer, error) {
	var customer Customer
	err := g.call(ctx, "customer.fetch", func(h map[string]string) (map[string]interface{}, error) {
		return g.client.Customer.Fetch(customerID, nil, h)
	}, &customer)
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (g *RazorpayGateway) EditCustomer(ctx context.Context, customerID string, request *CustomerRequest) (*Customer, error) {
	data, err := encodeRequest(request)
	if err != nil {
		return nil, err
	}

	var customer Customer
	err = g.call(ctx, "customer.edit", func(h map[string]string) (map[string]interface{}, error) {
		return g.client.Customer.Edit(customerID, data, h)
	}, &customer)
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (g *RazorpayGateway) ListCustomers(ctx context.Context, count, skip int) (*CustomerList, error) {
	query := map[string]interface{}{"count": count, "skip": skip}

	var list CustomerList
	err := g.call(ctx, "customer.list", func(h map[string]string) (map[string]interface{}, error) {
		return g.client.Customer.All(query, h)
	}, &list)
	if err != nil {
		return nil, err
	}
	return &list, nil
}

// The SDK speaks map[string]interface{}; typed values cross that boundary as JSON.
func encodeRequest(v interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	var data map[string]interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	return data, nil
}

func decodeResponse(resp map[string]interface{}, out interface{}) error {
	raw, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
