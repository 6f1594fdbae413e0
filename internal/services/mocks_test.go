package services

import (
	"context"
	"time"

	"razorpay-provider/internal/models"
	"razorpay-provider/pkg/payment"

	"github.com/stretchr/testify/mock"
)

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateOrder(ctx context.Context, request *payment.OrderRequest) (*payment.Order, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Order), args.Error(1)
}

func (m *MockGateway) FetchOrder(ctx context.Context, orderID string) (*payment.Order, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Order), args.Error(1)
}

func (m *MockGateway) EditOrder(ctx context.Context, orderID string, notes payment.Notes) (*payment.Order, error) {
	args := m.Called(ctx, orderID, notes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Order), args.Error(1)
}

func (m *MockGateway) FetchOrderPayments(ctx context.Context, orderID string) (*payment.PaymentList, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.PaymentList), args.Error(1)
}

func (m *MockGateway) CapturePayment(ctx context.Context, paymentID string, amount int64, currency string) (*payment.Payment, error) {
	args := m.Called(ctx, paymentID, amount, currency)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Payment), args.Error(1)
}

func (m *MockGateway) RefundPayment(ctx context.Context, paymentID string, request *payment.RefundRequest) (*payment.Refund, error) {
	args := m.Called(ctx, paymentID, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Refund), args.Error(1)
}

func (m *MockGateway) CreateCustomer(ctx context.Context, request *payment.CustomerRequest) (*payment.Customer, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Customer), args.Error(1)
}

func (m *MockGateway) FetchCustomer(ctx context.Context, customerID string) (*payment.Customer, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Customer), args.Error(1)
}

func (m *MockGateway) EditCustomer(ctx context.Context, customerID string, request *payment.CustomerRequest) (*payment.Customer, error) {
	args := m.Called(ctx, customerID, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Customer), args.Error(1)
}

func (m *MockGateway) ListCustomers(ctx context.Context, count, skip int) (*payment.CustomerList, error) {
	args := m.Called(ctx, count, skip)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.CustomerList), args.Error(1)
}

type MockCustomerStore struct {
	mock.Mock
}

func (m *MockCustomerStore) GetByID(ctx context.Context, id string) (*models.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Customer), args.Error(1)
}

func (m *MockCustomerStore) UpdateMetadata(ctx context.Context, id, namespace string, patch map[string]interface{}) error {
	args := m.Called(ctx, id, namespace, patch)
	return args.Error(0)
}

type MockCustomerResolver struct {
	mock.Mock
}

func (m *MockCustomerResolver) Refresh(ctx context.Context, customer *models.Customer) {
	m.Called(ctx, customer)
}

func (m *MockCustomerResolver) Reconcile(ctx context.Context, customer *models.Customer, intent *payment.OrderRequest, billing *models.Address) *payment.Customer {
	args := m.Called(ctx, customer, intent, billing)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*payment.Customer)
}

type MockLockStore struct {
	mock.Mock
}

func (m *MockLockStore) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error) {
	args := m.Called(ctx, key, value, expiration)
	return args.Bool(0), args.Error(1)
}

func (m *MockLockStore) CompareAndDelete(ctx context.Context, key string, value interface{}) (bool, error) {
	args := m.Called(ctx, key, value)
	return args.Bool(0), args.Error(1)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, event *models.PaymentEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
