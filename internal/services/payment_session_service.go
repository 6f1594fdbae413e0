package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"razorpay-provider/internal/config"
	"razorpay-provider/internal/models"
	"razorpay-provider/pkg/logger"
	"razorpay-provider/pkg/payment"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const defaultCaptureConcurrency = 4

// PaymentSessionProvider is the provider contract the host drives per
// payment-session lifecycle event. Every returned error is a
// *models.ProviderError.
type PaymentSessionProvider interface {
	InitiatePayment(ctx context.Context, input *models.InitiatePaymentInput) (*models.SessionData, error)
	AuthorizePayment(ctx context.Context, data *models.SessionData, extra map[string]interface{}) (*models.AuthorizeResult, error)
	CapturePayment(ctx context.Context, data *models.SessionData) (*models.SessionData, error)
	CancelPayment(ctx context.Context, data *models.SessionData) (*models.SessionData, error)
	DeletePayment(ctx context.Context, data *models.SessionData) (*models.SessionData, error)
	RefundPayment(ctx context.Context, data *models.SessionData, amount decimal.Decimal) (*models.SessionData, error)
	RetrievePayment(ctx context.Context, data *models.SessionData) (*models.SessionData, error)
	UpdatePayment(ctx context.Context, input *models.UpdatePaymentInput) (*models.SessionData, error)
	UpdatePaymentData(ctx context.Context, sessionID string, input *models.UpdateDataInput) (*models.SessionData, error)
	GetPaymentStatus(ctx context.Context, data *models.SessionData) (models.SessionStatus, error)
	VerifyPaymentSignature(paymentID, orderID, signature string) (bool, error)
	ConstructWebhookEvent(rawBody []byte, signature string) (bool, error)
}

// CustomerResolver links a host customer to a gateway customer.
type CustomerResolver interface {
	Refresh(ctx context.Context, customer *models.Customer)
	Reconcile(ctx context.Context, customer *models.Customer, intent *payment.OrderRequest, billing *models.Address) *payment.Customer
}

type IntentOptions struct {
	CaptureMethod      string
	SetupFutureUsage   string
	PaymentMethodTypes []string
}

// IntentOptionsSupplier contributes optional fields to every order request.
type IntentOptionsSupplier interface {
	IntentOptions() IntentOptions
}

// StaticIntentOptions supplies the same options for every order.
type StaticIntentOptions IntentOptions

func (o StaticIntentOptions) IntentOptions() IntentOptions {
	return IntentOptions(o)
}

type PaymentSessionService struct {
	cfg                config.RazorpayConfig
	gateway            payment.Gateway
	customers          CustomerResolver
	verifier           *payment.Verifier
	intentOptions      IntentOptionsSupplier
	locker             SessionLocker
	captureConcurrency int
	logger             *logger.Logger
}

type SessionOption func(*PaymentSessionService)

func WithIntentOptions(supplier IntentOptionsSupplier) SessionOption {
	return func(s *PaymentSessionService) {
		s.intentOptions = supplier
	}
}

// WithSessionLocker serialises capture and refund per session.
func WithSessionLocker(locker SessionLocker) SessionOption {
	return func(s *PaymentSessionService) {
		s.locker = locker
	}
}

func WithCaptureConcurrency(n int) SessionOption {
	return func(s *PaymentSessionService) {
		if n > 0 {
			s.captureConcurrency = n
		}
	}
}

func NewPaymentSessionService(cfg config.RazorpayConfig, gateway payment.Gateway, customers CustomerResolver, log *logger.Logger, opts ...SessionOption) (*PaymentSessionService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	resolved := cfg.Resolve()

	s := &PaymentSessionService{
		cfg:                resolved,
		gateway:            gateway,
		customers:          customers,
		verifier:           payment.NewVerifier(resolved.KeySecret, resolved.WebhookSecret),
		intentOptions:      StaticIntentOptions{},
		captureConcurrency: defaultCaptureConcurrency,
		logger:             log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *PaymentSessionService) InitiatePayment(ctx context.Context, input *models.InitiatePaymentInput) (*models.SessionData, error) {
	cart := input.Context.Cart
	if cart == nil {
		return nil, models.NewValidationError("cart not ready")
	}
	if input.CurrencyCode == "" {
		return nil, models.NewValidationError("currency code unknown")
	}
	if input.Amount.IsNegative() {
		return nil, models.NewValidationError("amount must not be negative")
	}

	currency := strings.ToUpper(input.CurrencyCode)
	intent := s.buildOrderRequest(input, cart, currency)
	log := s.logger.WithContext(ctx).WithSessionID(input.Context.SessionID)

	customer := input.Context.ResolveCustomer()
	billing := input.Context.ResolveBilling()

	rpCustomer := s.customers.Reconcile(ctx, customer, intent, billing)
	if rpCustomer == nil {
		log.Error("unable to find razorpay customer")
	} else {
		intent.Notes["razorpay_id"] = rpCustomer.ID
		log.WithField("rp_customer_id", rpCustomer.ID).Debug("razorpay customer attached to order")
	}

	phone := ""
	if customer != nil {
		phone = customer.Phone
	}
	if phone == "" && billing != nil {
		phone = billing.Phone
	}
	if phone == "" {
		return nil, models.BuildError("An error occurred in InitiatePayment during the invalid phone number",
			models.NewValidationError("no phone number"))
	}

	order, err := s.gateway.CreateOrder(ctx, intent)
	if err != nil {
		return nil, models.BuildError("An error occurred in InitiatePayment during the creation of the razorpay payment intent", err)
	}

	log.LogPaymentEvent(order.ID, "order.created", input.Amount, currency)
	return models.NewSessionData(order, intent), nil
}

func (s *PaymentSessionService) buildOrderRequest(input *models.InitiatePaymentInput, cart *models.Cart, currency string) *payment.OrderRequest {
	notes := cart.Notes.Merge(payment.Notes{
		"resource_id": cart.ResourceID,
		"session_id":  input.Context.SessionID,
		"cart_id":     cart.ID,
	})

	opts := s.intentOptions.IntentOptions()

	return &payment.OrderRequest{
		Amount:   payment.ToSmallestUnit(input.Amount, currency),
		Currency: currency,
		Notes:    notes,
		Payment: &payment.OrderPaymentOptions{
			Capture: s.cfg.CaptureMode(),
			CaptureOptions: &payment.CaptureOptions{
				RefundSpeed:           s.cfg.RefundSpeed,
				AutomaticExpiryPeriod: s.cfg.AutomaticExpiryPeriod,
				ManualExpiryPeriod:    s.cfg.ManualExpiryPeriod,
			},
		},
		CaptureMethod:      opts.CaptureMethod,
		SetupFutureUsage:   opts.SetupFutureUsage,
		PaymentMethodTypes: opts.PaymentMethodTypes,
	}
}

// fetchOrder tries the primary id, then the legacy order_id.
func (s *PaymentSessionService) fetchOrder(ctx context.Context, data *models.SessionData, withPayments bool) (*payment.Order, *payment.PaymentList, error) {
	ids := data.LookupIDs()
	if len(ids) == 0 {
		return nil, nil, models.NewValidationError("session data has no order id")
	}

	var lastErr error
	for i, id := range ids {
		if i > 0 {
			s.logger.WithContext(ctx).WithOrderID(id).Warn("received payment data from session not order data")
		}

		order, err := s.gateway.FetchOrder(ctx, id)
		if err != nil {
			lastErr = err
			continue
		}
		if !withPayments {
			return order, nil, nil
		}

		payments, err := s.gateway.FetchOrderPayments(ctx, id)
		if err != nil {
			lastErr = err
			continue
		}
		return order, payments, nil
	}
	return nil, nil, lastErr
}

func (s *PaymentSessionService) GetPaymentStatus(ctx context.Context, data *models.SessionData) (models.SessionStatus, error) {
	order, payments, err := s.fetchOrder(ctx, data, true)
	if err != nil {
		return models.SessionStatusError, models.BuildError("An error occurred in getPaymentStatus", err)
	}

	switch order.Status {
	case payment.OrderStatusCreated:
		return models.SessionStatusRequiresMore, nil
	case payment.OrderStatusPaid:
		return models.SessionStatusAuthorized, nil
	case payment.OrderStatusAttempted:
		return attemptedStatus(order, payments), nil
	default:
		return models.SessionStatusPending, nil
	}
}

// attemptedStatus resolves an attempted order: authorised only once the
// authorised payments cover the order amount exactly.
func attemptedStatus(order *payment.Order, payments *payment.PaymentList) models.SessionStatus {
	if order == nil {
		return models.SessionStatusError
	}

	var authorized int64
	if payments != nil {
		for _, p := range payments.Items {
			if p.Status == payment.PaymentStatusAuthorized {
				authorized += p.Amount
			}
		}
	}

	if authorized == order.Amount {
		return models.SessionStatusAuthorized
	}
	return models.SessionStatusRequiresMore
}

func (s *PaymentSessionService) AuthorizePayment(ctx context.Context, data *models.SessionData, _ map[string]interface{}) (*models.AuthorizeResult, error) {
	status, err := s.GetPaymentStatus(ctx, data)
	return &models.AuthorizeResult{Status: status, Data: data}, err
}

// CapturePayment captures every authorised payment on the order concurrently.
// All captures run to completion; failures are reported per payment in
// CaptureFailures alongside a capture_failed error.
func (s *PaymentSessionService) CapturePayment(ctx context.Context, data *models.SessionData) (*models.SessionData, error) {
	if data == nil || data.ID == "" {
		return nil, models.NewValidationError("session data has no order id")
	}

	lock, err := s.lockSession(ctx, data.ID)
	if err != nil {
		return nil, err
	}
	defer s.unlockSession(ctx, lock)

	list, err := s.gateway.FetchOrderPayments(ctx, data.ID)
	if err != nil {
		return nil, models.BuildError("An error occurred in capturePayment", err)
	}

	var eligible []payment.Payment
	for _, p := range list.Items {
		if p.Status == payment.PaymentStatusAuthorized {
			eligible = append(eligible, p)
		}
	}
	if len(eligible) == 0 {
		return data, nil
	}

	captured := make([]*payment.Payment, len(eligible))
	failures := make([]error, len(eligible))

	var g errgroup.Group
	g.SetLimit(s.captureConcurrency)
	for i := range eligible {
		i := i
		p := eligible[i]
		g.Go(func() error {
			amount := payment.ToSmallestUnit(payment.FromSmallestUnit(p.Amount, p.Currency), p.Currency)
			result, err := s.gateway.CapturePayment(ctx, p.ID, amount, p.Currency)
			if err != nil {
				failures[i] = err
				return nil
			}
			captured[i] = result
			return nil
		})
	}
	_ = g.Wait()

	if data.Payments == nil {
		data.Payments = make(map[string]*payment.Payment, len(eligible))
	}
	data.CaptureFailures = nil

	log := s.logger.WithContext(ctx).WithOrderID(data.ID)
	for i, p := range eligible {
		if failures[i] != nil {
			if data.CaptureFailures == nil {
				data.CaptureFailures = make(map[string]string)
			}
			data.CaptureFailures[p.ID] = failures[i].Error()
			log.WithError(failures[i]).WithField("payment_id", p.ID).Error("payment capture failed")
			continue
		}
		data.Payments[captured[i].ID] = captured[i]
		log.LogPaymentEvent(data.ID, "payment.captured", payment.FromSmallestUnit(captured[i].Amount, captured[i].Currency), captured[i].Currency)
	}

	if len(data.CaptureFailures) > 0 {
		return data, &models.ProviderError{
			Message: "An error occurred in capturePayment",
			Code:    models.ErrorCodeCaptureFailed,
			Detail:  fmt.Sprintf("%d of %d captures failed", len(data.CaptureFailures), len(eligible)),
		}
	}
	return data, nil
}

func (s *PaymentSessionService) CancelPayment(_ context.Context, _ *models.SessionData) (*models.SessionData, error) {
	return nil, &models.ProviderError{
		Message: "Unable to cancel as razorpay doesn't support cancellation",
		Code:    models.ErrorCodeUnsupportedOperation,
	}
}

func (s *PaymentSessionService) DeletePayment(ctx context.Context, data *models.SessionData) (*models.SessionData, error) {
	return s.CancelPayment(ctx, data)
}

// RefundPayment refunds against the first payment large enough to cover the
// amount. When none qualifies the data comes back untouched together with a
// refund_payment_not_found error.
func (s *PaymentSessionService) RefundPayment(ctx context.Context, data *models.SessionData, amount decimal.Decimal) (*models.SessionData, error) {
	if data == nil || data.ID == "" {
		return nil, models.NewValidationError("session data has no order id")
	}
	if !amount.IsPositive() {
		return nil, models.NewValidationError("refund amount must be positive")
	}

	lock, err := s.lockSession(ctx, data.ID)
	if err != nil {
		return nil, err
	}
	defer s.unlockSession(ctx, lock)

	refundAmount := payment.ToSmallestUnit(amount, data.Currency)

	list, err := s.gateway.FetchOrderPayments(ctx, data.ID)
	if err != nil {
		return nil, models.BuildError("An error occurred in refundPayment", err)
	}

	var target *payment.Payment
	for i := range list.Items {
		p := &list.Items[i]
		if p.Amount >= refundAmount && (p.Status == payment.PaymentStatusAuthorized || p.Status == payment.PaymentStatusCaptured) {
			target = p
			break
		}
	}
	if target == nil {
		return data, &models.ProviderError{
			Message: "An error occurred in refundPayment",
			Code:    models.ErrorCodeRefundPaymentNotFound,
			Detail:  fmt.Sprintf("no authorized or captured payment covers %d", refundAmount),
		}
	}

	refund, err := s.gateway.RefundPayment(ctx, target.ID, &payment.RefundRequest{
		Amount: refundAmount,
		Speed:  s.cfg.RefundSpeed,
	})
	if err != nil {
		return nil, models.BuildError("An error occurred in refundPayment", err)
	}

	data.RefundSessions = append(data.RefundSessions, *refund)
	s.logger.WithContext(ctx).LogPaymentEvent(data.ID, "payment.refunded", amount, data.Currency)
	return data, nil
}

func (s *PaymentSessionService) RetrievePayment(ctx context.Context, data *models.SessionData) (*models.SessionData, error) {
	order, _, err := s.fetchOrder(ctx, data, false)
	if err != nil {
		return nil, models.BuildError("An error occurred in retrievePayment", err)
	}

	out := *data
	out.ApplyOrder(order)
	return &out, nil
}

// UpdatePayment re-initiates the session. A change of gateway customer is
// detected by comparing the host customer's link with the id recorded on the
// session's order request.
func (s *PaymentSessionService) UpdatePayment(ctx context.Context, input *models.UpdatePaymentInput) (*models.SessionData, error) {
	customer := input.Context.ResolveCustomer()
	billing := input.Context.ResolveBilling()

	if billing == nil && customer != nil && len(customer.Addresses) == 0 {
		return nil, models.BuildError("An error occurred in updatePayment during the retrieve of the cart",
			models.NewValidationError("no billing address on cart or customer"))
	}

	if customer != nil {
		s.customers.Refresh(ctx, customer)
	}
	linked := customer.RazorpayCustomerID()
	if linked == "" || linked != input.Data.IntentCustomerID() {
		phone := ""
		if customer != nil {
			phone = customer.Phone
		}
		if phone == "" && billing != nil {
			phone = billing.Phone
		}
		if phone == "" {
			s.logger.WithContext(ctx).Warn("phone number wasn't specified")
			return nil, models.BuildError("An error occurred in updatePayment during the retrieve of the customer",
				models.NewValidationError("the phone number wasn't specified"))
		}

		out, err := s.InitiatePayment(ctx, &models.InitiatePaymentInput{
			Amount:       input.Amount,
			CurrencyCode: input.CurrencyCode,
			Context:      input.Context,
		})
		if err != nil {
			return nil, models.BuildError("An error occurred in updatePayment during the initiate of the new payment for the new customer", err)
		}
		return out, nil
	}

	if input.Amount.IsZero() {
		return nil, models.BuildError("amount not valid", models.NewValidationError("amount not valid"))
	}
	if input.CurrencyCode == "" {
		return nil, models.BuildError("currency code not known", models.NewValidationError("currency code unknown"))
	}

	reinit := input.Context
	if input.Data != nil && input.Data.ID != "" {
		existing, err := s.gateway.FetchOrder(ctx, input.Data.ID)
		if err != nil {
			return nil, models.BuildError("An error occurred in updatePayment", err)
		}
		if reinit.Cart != nil {
			cart := *reinit.Cart
			cart.Notes = existing.Notes.Merge(cart.Notes)
			reinit.Cart = &cart
		}
	}

	out, err := s.InitiatePayment(ctx, &models.InitiatePaymentInput{
		Amount:       input.Amount,
		CurrencyCode: strings.ToUpper(input.CurrencyCode),
		Context:      reinit,
	})
	if err != nil {
		return nil, models.BuildError("An error occurred in updatePayment", err)
	}
	return out, nil
}

// UpdatePaymentData merges notes onto the order. Amount and currency changes
// must go through UpdatePayment. Gateway failures return the caller's data.
func (s *PaymentSessionService) UpdatePaymentData(ctx context.Context, sessionID string, input *models.UpdateDataInput) (*models.SessionData, error) {
	if input.Amount != nil || input.Currency != "" {
		return nil, models.BuildError("An error occurred in updatePaymentData",
			models.NewValidationError("Cannot update amount, use updatePayment instead"))
	}

	data := input.Data
	if data == nil {
		data = &models.SessionData{ID: sessionID}
	}
	orderID := data.ID
	if orderID == "" {
		orderID = sessionID
	}
	log := s.logger.WithContext(ctx).WithOrderID(orderID)

	order, err := s.gateway.FetchOrder(ctx, orderID)
	if err != nil {
		log.WithError(err).Warn("unable to fetch order for data update")
		return data, nil
	}

	notes := input.Notes
	if len(notes) == 0 {
		notes = data.Notes
	}
	out := *data
	if len(notes) == 0 {
		log.Warn("only notes can be updated in razorpay order")
		out.ApplyOrder(order)
		return &out, nil
	}

	edited, err := s.gateway.EditOrder(ctx, orderID, order.Notes.Merge(notes))
	if err != nil {
		log.WithError(err).Warn("unable to edit order notes")
		return data, nil
	}

	out.ApplyOrder(edited)
	return &out, nil
}

func (s *PaymentSessionService) VerifyPaymentSignature(paymentID, orderID, signature string) (bool, error) {
	ok, err := s.verifier.VerifyPaymentSignature(paymentID, orderID, signature)
	if err != nil {
		return false, models.BuildError("razorpay not configured", err)
	}
	return ok, nil
}

func (s *PaymentSessionService) ConstructWebhookEvent(rawBody []byte, signature string) (bool, error) {
	ok, err := s.verifier.VerifyWebhookSignature(rawBody, signature)
	if err != nil {
		return false, models.BuildError("razorpay not configured", err)
	}
	return ok, nil
}

func (s *PaymentSessionService) lockSession(ctx context.Context, key string) (*DistributedLock, error) {
	if s.locker == nil {
		return nil, nil
	}

	lock, err := s.locker.Lock(ctx, key)
	if errors.Is(err, ErrLockNotAcquired) {
		return nil, &models.ProviderError{
			Message: "another operation is in progress on this session",
			Code:    models.ErrorCodeSessionLocked,
			Detail:  err.Error(),
		}
	}
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).WithOrderID(key).Warn("session lock unavailable, continuing unlocked")
		return nil, nil
	}
	return lock, nil
}

func (s *PaymentSessionService) unlockSession(ctx context.Context, lock *DistributedLock) {
	if lock == nil {
		return
	}
	if err := s.locker.Unlock(context.WithoutCancel(ctx), lock); err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("failed to release session lock")
	}
}
