package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"

	"razorpay-provider/internal/config"
	"razorpay-provider/internal/models"
	"razorpay-provider/pkg/logger"
	"razorpay-provider/pkg/payment"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testRazorpayConfig() config.RazorpayConfig {
	return config.RazorpayConfig{
		KeyID:         "rzp_test_key",
		KeySecret:     "key_secret",
		WebhookSecret: "whsec",
	}
}

func newSessionService(t *testing.T, gw *MockGateway, resolver *MockCustomerResolver, opts ...SessionOption) *PaymentSessionService {
	t.Helper()
	resolver.On("Refresh", mock.Anything, mock.Anything).Maybe()
	svc, err := NewPaymentSessionService(testRazorpayConfig(), gw, resolver, logger.Discard(), opts...)
	require.NoError(t, err)
	return svc
}

func providerCode(t *testing.T, err error) string {
	t.Helper()
	var pe *models.ProviderError
	require.ErrorAs(t, err, &pe)
	return pe.Code
}

func checkoutContext() models.PaymentContext {
	return models.PaymentContext{
		SessionID: "payses_1",
		Customer: &models.Customer{
			ID:    "cus_host_1",
			Email: "asha@example.com",
			Phone: "+919000000001",
		},
		Cart: &models.Cart{
			ID:             "cart_1",
			ResourceID:     "res_1",
			Notes:          payment.Notes{"channel": "web"},
			BillingAddress: &models.Address{Phone: "+919000000002"},
		},
	}
}

func TestNewPaymentSessionService_RequiresCredentials(t *testing.T) {
	_, err := NewPaymentSessionService(config.RazorpayConfig{}, new(MockGateway), new(MockCustomerResolver), logger.Discard())
	assert.ErrorIs(t, err, config.ErrNotConfigured)
	assert.Equal(t, models.ErrorCodeNotConfigured, models.BuildError("initiate", err).Code)
}

func TestInitiatePayment_RequiresCart(t *testing.T) {
	svc := newSessionService(t, new(MockGateway), new(MockCustomerResolver))

	_, err := svc.InitiatePayment(context.Background(), &models.InitiatePaymentInput{
		Amount:       decimal.NewFromInt(10),
		CurrencyCode: "inr",
	})
	assert.Equal(t, models.ErrorCodeInvalidData, providerCode(t, err))
}

func TestInitiatePayment_CreatesOrder(t *testing.T) {
	gw := new(MockGateway)
	resolver := new(MockCustomerResolver)
	svc := newSessionService(t, gw, resolver)

	resolver.On("Reconcile", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&payment.Customer{ID: "cust_rzp_1"})

	var sent *payment.OrderRequest
	gw.On("CreateOrder", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { sent = args.Get(1).(*payment.OrderRequest) }).
		Return(&payment.Order{ID: "order_1", Amount: 10050, Currency: "INR", Status: payment.OrderStatusCreated}, nil)

	data, err := svc.InitiatePayment(context.Background(), &models.InitiatePaymentInput{
		Amount:       decimal.RequireFromString("100.50"),
		CurrencyCode: "inr",
		Context:      checkoutContext(),
	})
	require.NoError(t, err)

	require.NotNil(t, sent)
	assert.Equal(t, int64(10050), sent.Amount)
	assert.Equal(t, "INR", sent.Currency)
	assert.Equal(t, payment.Notes{
		"channel":     "web",
		"resource_id": "res_1",
		"session_id":  "payses_1",
		"cart_id":     "cart_1",
		"razorpay_id": "cust_rzp_1",
	}, sent.Notes)
	assert.Equal(t, payment.CaptureManual, sent.Payment.Capture)
	assert.Equal(t, "normal", sent.Payment.CaptureOptions.RefundSpeed)
	assert.Equal(t, 20, sent.Payment.CaptureOptions.AutomaticExpiryPeriod)
	assert.Equal(t, 7200, sent.Payment.CaptureOptions.ManualExpiryPeriod)

	assert.Equal(t, "order_1", data.ID)
	assert.Equal(t, int64(10050), data.Amount)
	assert.Same(t, sent, data.IntentRequest)
}

func TestInitiatePayment_AppliesIntentOptions(t *testing.T) {
	gw := new(MockGateway)
	resolver := new(MockCustomerResolver)
	svc := newSessionService(t, gw, resolver, WithIntentOptions(StaticIntentOptions{
		CaptureMethod:      "manual",
		PaymentMethodTypes: []string{"upi", "card"},
	}))

	resolver.On("Reconcile", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	gw.On("CreateOrder", mock.Anything, mock.MatchedBy(func(req *payment.OrderRequest) bool {
		_, linked := req.Notes["razorpay_id"]
		return req.CaptureMethod == "manual" && len(req.PaymentMethodTypes) == 2 && req.SetupFutureUsage == "" && !linked
	})).Return(&payment.Order{ID: "order_2"}, nil)

	data, err := svc.InitiatePayment(context.Background(), &models.InitiatePaymentInput{
		Amount:       decimal.NewFromInt(1),
		CurrencyCode: "INR",
		Context:      checkoutContext(),
	})
	require.NoError(t, err)
	assert.Equal(t, "order_2", data.ID)
}

func TestInitiatePayment_PhoneRequired(t *testing.T) {
	gw := new(MockGateway)
	resolver := new(MockCustomerResolver)
	svc := newSessionService(t, gw, resolver)

	resolver.On("Reconcile", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	ctx := checkoutContext()
	ctx.Customer.Phone = ""
	ctx.Cart.BillingAddress = nil

	_, err := svc.InitiatePayment(context.Background(), &models.InitiatePaymentInput{
		Amount:       decimal.NewFromInt(1),
		CurrencyCode: "INR",
		Context:      ctx,
	})
	assert.Equal(t, models.ErrorCodeInvalidData, providerCode(t, err))
	gw.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
}

func TestInitiatePayment_UpstreamFailure(t *testing.T) {
	gw := new(MockGateway)
	resolver := new(MockCustomerResolver)
	svc := newSessionService(t, gw, resolver)

	resolver.On("Reconcile", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	gw.On("CreateOrder", mock.Anything, mock.Anything).
		Return(nil, &payment.GatewayError{Operation: "order.create", Err: errors.New("BAD_REQUEST_ERROR: amount exceeds maximum")})

	_, err := svc.InitiatePayment(context.Background(), &models.InitiatePaymentInput{
		Amount:       decimal.NewFromInt(1),
		CurrencyCode: "INR",
		Context:      checkoutContext(),
	})

	var pe *models.ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, models.ErrorCodeUpstream, pe.Code)
	assert.Contains(t, pe.Detail, "amount exceeds maximum")
}

func TestGetPaymentStatus(t *testing.T) {
	tests := []struct {
		name     string
		order    *payment.Order
		payments []payment.Payment
		want     models.SessionStatus
	}{
		{
			name:  "created requires more",
			order: &payment.Order{Status: payment.OrderStatusCreated, Amount: 1000},
			want:  models.SessionStatusRequiresMore,
		},
		{
			name:  "paid is authorized",
			order: &payment.Order{Status: payment.OrderStatusPaid, Amount: 1000},
			want:  models.SessionStatusAuthorized,
		},
		{
			name:  "attempted and fully authorized",
			order: &payment.Order{Status: payment.OrderStatusAttempted, Amount: 1000},
			payments: []payment.Payment{
				{Amount: 600, Status: payment.PaymentStatusAuthorized},
				{Amount: 400, Status: payment.PaymentStatusAuthorized},
				{Amount: 1000, Status: payment.PaymentStatusFailed},
			},
			want: models.SessionStatusAuthorized,
		},
		{
			name:     "attempted and partially authorized",
			order:    &payment.Order{Status: payment.OrderStatusAttempted, Amount: 1000},
			payments: []payment.Payment{{Amount: 600, Status: payment.PaymentStatusAuthorized}},
			want:     models.SessionStatusRequiresMore,
		},
		{
			name:  "unknown status is pending",
			order: &payment.Order{Status: "on_hold", Amount: 1000},
			want:  models.SessionStatusPending,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := new(MockGateway)
			svc := newSessionService(t, gw, new(MockCustomerResolver))

			gw.On("FetchOrder", mock.Anything, "order_1").Return(tt.order, nil)
			gw.On("FetchOrderPayments", mock.Anything, "order_1").Return(&payment.PaymentList{Items: tt.payments}, nil)

			status, err := svc.GetPaymentStatus(context.Background(), &models.SessionData{ID: "order_1"})
			require.NoError(t, err)
			assert.Equal(t, tt.want, status)
		})
	}
}

func TestGetPaymentStatus_FallsBackToOrderID(t *testing.T) {
	gw := new(MockGateway)
	svc := newSessionService(t, gw, new(MockCustomerResolver))

	gw.On("FetchOrder", mock.Anything, "payses_1").Return(nil, errors.New("not found"))
	gw.On("FetchOrder", mock.Anything, "order_1").Return(&payment.Order{Status: payment.OrderStatusPaid}, nil)
	gw.On("FetchOrderPayments", mock.Anything, "order_1").Return(&payment.PaymentList{}, nil)

	status, err := svc.GetPaymentStatus(context.Background(), &models.SessionData{ID: "payses_1", OrderID: "order_1"})
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusAuthorized, status)
}

func TestAuthorizePayment_NoOrderIsError(t *testing.T) {
	gw := new(MockGateway)
	svc := newSessionService(t, gw, new(MockCustomerResolver))

	gw.On("FetchOrder", mock.Anything, "order_1").Return(nil, errors.New("not found"))

	data := &models.SessionData{ID: "order_1"}
	result, err := svc.AuthorizePayment(context.Background(), data, nil)

	require.Error(t, err)
	assert.Equal(t, models.SessionStatusError, result.Status)
	assert.Same(t, data, result.Data)
}

func TestCapturePayment_CapturesAuthorizedPayments(t *testing.T) {
	gw := new(MockGateway)
	svc := newSessionService(t, gw, new(MockCustomerResolver))

	gw.On("FetchOrderPayments", mock.Anything, "order_1").Return(&payment.PaymentList{Items: []payment.Payment{
		{ID: "pay_1", Amount: 5000, Currency: "INR", Status: payment.PaymentStatusAuthorized},
		{ID: "pay_2", Amount: 2500, Currency: "INR", Status: payment.PaymentStatusAuthorized},
		{ID: "pay_3", Amount: 1000, Currency: "INR", Status: payment.PaymentStatusCaptured},
	}}, nil)
	gw.On("CapturePayment", mock.Anything, "pay_1", int64(5000), "INR").
		Return(&payment.Payment{ID: "pay_1", Amount: 5000, Currency: "INR", Status: payment.PaymentStatusCaptured}, nil)
	gw.On("CapturePayment", mock.Anything, "pay_2", int64(2500), "INR").
		Return(&payment.Payment{ID: "pay_2", Amount: 2500, Currency: "INR", Status: payment.PaymentStatusCaptured}, nil)

	data, err := svc.CapturePayment(context.Background(), &models.SessionData{ID: "order_1"})
	require.NoError(t, err)

	assert.Len(t, data.Payments, 2)
	assert.Equal(t, payment.PaymentStatusCaptured, data.Payments["pay_1"].Status)
	assert.Empty(t, data.CaptureFailures)
	gw.AssertNotCalled(t, "CapturePayment", mock.Anything, "pay_3", mock.Anything, mock.Anything)
}

func TestCapturePayment_CollectsFailures(t *testing.T) {
	gw := new(MockGateway)
	svc := newSessionService(t, gw, new(MockCustomerResolver))

	gw.On("FetchOrderPayments", mock.Anything, "order_1").Return(&payment.PaymentList{Items: []payment.Payment{
		{ID: "pay_1", Amount: 5000, Currency: "INR", Status: payment.PaymentStatusAuthorized},
		{ID: "pay_2", Amount: 2500, Currency: "INR", Status: payment.PaymentStatusAuthorized},
	}}, nil)
	gw.On("CapturePayment", mock.Anything, "pay_1", int64(5000), "INR").
		Return(&payment.Payment{ID: "pay_1", Status: payment.PaymentStatusCaptured}, nil)
	gw.On("CapturePayment", mock.Anything, "pay_2", int64(2500), "INR").
		Return(nil, errors.New("payment already captured"))

	data, err := svc.CapturePayment(context.Background(), &models.SessionData{ID: "order_1"})

	assert.Equal(t, models.ErrorCodeCaptureFailed, providerCode(t, err))
	require.NotNil(t, data)
	assert.Contains(t, data.Payments, "pay_1")
	assert.Equal(t, "payment already captured", data.CaptureFailures["pay_2"])
}

func TestCapturePayment_NothingToCapture(t *testing.T) {
	gw := new(MockGateway)
	svc := newSessionService(t, gw, new(MockCustomerResolver))

	gw.On("FetchOrderPayments", mock.Anything, "order_1").Return(&payment.PaymentList{Items: []payment.Payment{
		{ID: "pay_1", Status: payment.PaymentStatusFailed},
	}}, nil)

	in := &models.SessionData{ID: "order_1"}
	out, err := svc.CapturePayment(context.Background(), in)
	require.NoError(t, err)
	assert.Same(t, in, out)
	gw.AssertNotCalled(t, "CapturePayment", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCancelAndDeleteAreUnsupported(t *testing.T) {
	svc := newSessionService(t, new(MockGateway), new(MockCustomerResolver))

	_, err := svc.CancelPayment(context.Background(), &models.SessionData{ID: "order_1"})
	assert.Equal(t, models.ErrorCodeUnsupportedOperation, providerCode(t, err))

	_, err = svc.DeletePayment(context.Background(), &models.SessionData{ID: "order_1"})
	assert.Equal(t, models.ErrorCodeUnsupportedOperation, providerCode(t, err))
}

func TestRefundPayment_RefundsCoveringPayment(t *testing.T) {
	gw := new(MockGateway)
	svc := newSessionService(t, gw, new(MockCustomerResolver))

	gw.On("FetchOrderPayments", mock.Anything, "order_1").Return(&payment.PaymentList{Items: []payment.Payment{
		{ID: "pay_small", Amount: 1000, Status: payment.PaymentStatusCaptured},
		{ID: "pay_failed", Amount: 9000, Status: payment.PaymentStatusFailed},
		{ID: "pay_big", Amount: 9000, Status: payment.PaymentStatusCaptured},
	}}, nil)
	gw.On("RefundPayment", mock.Anything, "pay_big", &payment.RefundRequest{Amount: 2550, Speed: "normal"}).
		Return(&payment.Refund{ID: "rfnd_1", Amount: 2550, PaymentID: "pay_big"}, nil)

	data := &models.SessionData{ID: "order_1", Currency: "INR", RefundSessions: []payment.Refund{{ID: "rfnd_0"}}}
	out, err := svc.RefundPayment(context.Background(), data, decimal.RequireFromString("25.50"))
	require.NoError(t, err)

	require.Len(t, out.RefundSessions, 2)
	assert.Equal(t, "rfnd_0", out.RefundSessions[0].ID)
	assert.Equal(t, "rfnd_1", out.RefundSessions[1].ID)
}

func TestRefundPayment_NoCoveringPayment(t *testing.T) {
	gw := new(MockGateway)
	svc := newSessionService(t, gw, new(MockCustomerResolver))

	gw.On("FetchOrderPayments", mock.Anything, "order_1").Return(&payment.PaymentList{Items: []payment.Payment{
		{ID: "pay_1", Amount: 1000, Status: payment.PaymentStatusCaptured},
	}}, nil)

	data := &models.SessionData{ID: "order_1", Currency: "INR"}
	out, err := svc.RefundPayment(context.Background(), data, decimal.NewFromInt(50))

	assert.Equal(t, models.ErrorCodeRefundPaymentNotFound, providerCode(t, err))
	assert.Same(t, data, out)
	assert.Empty(t, out.RefundSessions)
	gw.AssertNotCalled(t, "RefundPayment", mock.Anything, mock.Anything, mock.Anything)
}

func TestRefundPayment_LockedSession(t *testing.T) {
	gw := new(MockGateway)
	store := new(MockLockStore)
	svc := newSessionService(t, gw, new(MockCustomerResolver), WithSessionLocker(NewRedisSessionLocker(store, 0)))

	store.On("SetNX", mock.Anything, "lock:session:order_1", mock.Anything, mock.Anything).Return(false, nil)

	_, err := svc.RefundPayment(context.Background(), &models.SessionData{ID: "order_1", Currency: "INR"}, decimal.NewFromInt(1))

	assert.Equal(t, models.ErrorCodeSessionLocked, providerCode(t, err))
	gw.AssertNotCalled(t, "FetchOrderPayments", mock.Anything, mock.Anything)
}

func TestCapturePayment_ReleasesLock(t *testing.T) {
	gw := new(MockGateway)
	store := new(MockLockStore)
	svc := newSessionService(t, gw, new(MockCustomerResolver), WithSessionLocker(NewRedisSessionLocker(store, 0)))

	store.On("SetNX", mock.Anything, "lock:session:order_1", mock.Anything, mock.Anything).Return(true, nil)
	store.On("CompareAndDelete", mock.Anything, "lock:session:order_1", mock.Anything).Return(true, nil)
	gw.On("FetchOrderPayments", mock.Anything, "order_1").Return(&payment.PaymentList{}, nil)

	_, err := svc.CapturePayment(context.Background(), &models.SessionData{ID: "order_1"})
	require.NoError(t, err)
	store.AssertExpectations(t)
}

func TestRetrievePayment_FallsBackToOrderID(t *testing.T) {
	gw := new(MockGateway)
	svc := newSessionService(t, gw, new(MockCustomerResolver))

	gw.On("FetchOrder", mock.Anything, "payses_1").Return(nil, errors.New("not found"))
	gw.On("FetchOrder", mock.Anything, "order_1").Return(&payment.Order{ID: "order_1", Status: payment.OrderStatusPaid, AmountPaid: 500}, nil)

	out, err := svc.RetrievePayment(context.Background(), &models.SessionData{ID: "payses_1", OrderID: "order_1"})
	require.NoError(t, err)
	assert.Equal(t, "order_1", out.ID)
	assert.Equal(t, int64(500), out.AmountPaid)
}

func TestUpdatePayment_CustomerChangeReinitiates(t *testing.T) {
	gw := new(MockGateway)
	resolver := new(MockCustomerResolver)
	svc := newSessionService(t, gw, resolver)

	ctx := checkoutContext()
	ctx.Customer.SetMetadata(models.MetadataNamespaceRazorpay, models.MetadataKeyCustomerID, "cust_new")

	resolver.On("Reconcile", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(&payment.Customer{ID: "cust_new"})
	gw.On("CreateOrder", mock.Anything, mock.Anything).Return(&payment.Order{ID: "order_2"}, nil)

	out, err := svc.UpdatePayment(context.Background(), &models.UpdatePaymentInput{
		Amount:       decimal.NewFromInt(10),
		CurrencyCode: "INR",
		Data: &models.SessionData{ID: "order_1", IntentRequest: &payment.OrderRequest{
			Notes: payment.Notes{"razorpay_id": "cust_old"},
		}},
		Context: ctx,
	})
	require.NoError(t, err)
	assert.Equal(t, "order_2", out.ID)
	gw.AssertNotCalled(t, "FetchOrder", mock.Anything, mock.Anything)
}

func TestUpdatePayment_SameCustomerRequiresAmount(t *testing.T) {
	svc := newSessionService(t, new(MockGateway), new(MockCustomerResolver))

	ctx := checkoutContext()
	ctx.Customer.SetMetadata(models.MetadataNamespaceRazorpay, models.MetadataKeyCustomerID, "cust_1")

	_, err := svc.UpdatePayment(context.Background(), &models.UpdatePaymentInput{
		CurrencyCode: "INR",
		Data: &models.SessionData{ID: "order_1", IntentRequest: &payment.OrderRequest{
			Notes: payment.Notes{"razorpay_id": "cust_1"},
		}},
		Context: ctx,
	})
	assert.Equal(t, models.ErrorCodeInvalidData, providerCode(t, err))
}

func TestUpdatePayment_ReadsLinkFromStoredCustomer(t *testing.T) {
	resolver := new(MockCustomerResolver)
	resolver.On("Refresh", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Customer).SetMetadata(models.MetadataNamespaceRazorpay, models.MetadataKeyCustomerID, "cust_1")
	}).Once()
	svc := newSessionService(t, new(MockGateway), resolver)

	_, err := svc.UpdatePayment(context.Background(), &models.UpdatePaymentInput{
		CurrencyCode: "INR",
		Data: &models.SessionData{ID: "order_1", IntentRequest: &payment.OrderRequest{
			Notes: payment.Notes{"razorpay_id": "cust_1"},
		}},
		Context: checkoutContext(),
	})

	assert.Equal(t, models.ErrorCodeInvalidData, providerCode(t, err), "stored link matches, so amount is required")
	resolver.AssertNotCalled(t, "Reconcile", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdatePayment_SameCustomerCarriesExistingNotes(t *testing.T) {
	gw := new(MockGateway)
	resolver := new(MockCustomerResolver)
	svc := newSessionService(t, gw, resolver)

	ctx := checkoutContext()
	ctx.Customer.SetMetadata(models.MetadataNamespaceRazorpay, models.MetadataKeyCustomerID, "cust_1")

	gw.On("FetchOrder", mock.Anything, "order_1").Return(&payment.Order{
		ID:    "order_1",
		Notes: payment.Notes{"promo": "DIWALI", "channel": "app"},
	}, nil)
	resolver.On("Reconcile", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(&payment.Customer{ID: "cust_1"})
	gw.On("CreateOrder", mock.Anything, mock.MatchedBy(func(req *payment.OrderRequest) bool {
		return req.Amount == 2000 && req.Notes["promo"] == "DIWALI" && req.Notes["channel"] == "web"
	})).Return(&payment.Order{ID: "order_2", Amount: 2000}, nil)

	out, err := svc.UpdatePayment(context.Background(), &models.UpdatePaymentInput{
		Amount:       decimal.NewFromInt(20),
		CurrencyCode: "inr",
		Data: &models.SessionData{ID: "order_1", IntentRequest: &payment.OrderRequest{
			Notes: payment.Notes{"razorpay_id": "cust_1"},
		}},
		Context: ctx,
	})
	require.NoError(t, err)
	assert.Equal(t, "order_2", out.ID)
	assert.Equal(t, payment.Notes{"channel": "web"}, ctx.Cart.Notes, "caller cart is not mutated")
}

func TestUpdatePaymentData(t *testing.T) {
	t.Run("amount changes are rejected", func(t *testing.T) {
		svc := newSessionService(t, new(MockGateway), new(MockCustomerResolver))
		amount := decimal.NewFromInt(5)

		_, err := svc.UpdatePaymentData(context.Background(), "order_1", &models.UpdateDataInput{Amount: &amount})
		assert.Equal(t, models.ErrorCodeInvalidData, providerCode(t, err))
	})

	t.Run("notes are merged onto the order", func(t *testing.T) {
		gw := new(MockGateway)
		svc := newSessionService(t, gw, new(MockCustomerResolver))

		gw.On("FetchOrder", mock.Anything, "order_1").Return(&payment.Order{ID: "order_1", Notes: payment.Notes{"a": "1", "b": "1"}}, nil)
		gw.On("EditOrder", mock.Anything, "order_1", payment.Notes{"a": "1", "b": "2", "c": "3"}).
			Return(&payment.Order{ID: "order_1", Notes: payment.Notes{"a": "1", "b": "2", "c": "3"}}, nil)

		out, err := svc.UpdatePaymentData(context.Background(), "payses_1", &models.UpdateDataInput{
			Notes: payment.Notes{"b": "2", "c": "3"},
			Data:  &models.SessionData{ID: "order_1"},
		})
		require.NoError(t, err)
		assert.Equal(t, "3", out.Notes["c"])
	})

	t.Run("gateway failure returns data unchanged", func(t *testing.T) {
		gw := new(MockGateway)
		svc := newSessionService(t, gw, new(MockCustomerResolver))

		gw.On("FetchOrder", mock.Anything, "order_1").Return(nil, errors.New("timeout"))

		data := &models.SessionData{ID: "order_1", Receipt: "r1"}
		out, err := svc.UpdatePaymentData(context.Background(), "payses_1", &models.UpdateDataInput{
			Notes: payment.Notes{"x": "y"},
			Data:  data,
		})
		require.NoError(t, err)
		assert.Same(t, data, out)
	})

	t.Run("edit failure returns data unchanged", func(t *testing.T) {
		gw := new(MockGateway)
		svc := newSessionService(t, gw, new(MockCustomerResolver))

		gw.On("FetchOrder", mock.Anything, "order_1").Return(&payment.Order{ID: "order_1"}, nil)
		gw.On("EditOrder", mock.Anything, "order_1", mock.Anything).Return(nil, errors.New("rejected"))

		data := &models.SessionData{ID: "order_1"}
		out, err := svc.UpdatePaymentData(context.Background(), "payses_1", &models.UpdateDataInput{
			Notes: payment.Notes{"x": "y"},
			Data:  data,
		})
		require.NoError(t, err)
		assert.Same(t, data, out)
	})
}

func TestVerifyPaymentSignature(t *testing.T) {
	svc := newSessionService(t, new(MockGateway), new(MockCustomerResolver))

	mac := hmac.New(sha256.New, []byte("key_secret"))
	mac.Write([]byte("order_1|pay_1"))
	signature := hex.EncodeToString(mac.Sum(nil))

	ok, err := svc.VerifyPaymentSignature("pay_1", "order_1", signature)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.VerifyPaymentSignature("pay_2", "order_1", signature)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConstructWebhookEvent(t *testing.T) {
	svc := newSessionService(t, new(MockGateway), new(MockCustomerResolver))
	body := []byte(`{"event":"payment.captured"}`)

	mac := hmac.New(sha256.New, []byte("whsec"))
	mac.Write(body)

	ok, err := svc.ConstructWebhookEvent(body, hex.EncodeToString(mac.Sum(nil)))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.ConstructWebhookEvent(body, "deadbeef")
	require.NoError(t, err)
	assert.False(t, ok)
}
