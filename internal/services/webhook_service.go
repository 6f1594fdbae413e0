package services

import (
	"context"
	"encoding/json"
	"time"

	"razorpay-provider/internal/models"
	"razorpay-provider/pkg/logger"
	"razorpay-provider/pkg/payment"
)

const (
	EventPaymentCaptured   = "payment.captured"
	EventPaymentAuthorized = "payment.authorized"
	EventPaymentFailed     = "payment.failed"

	webhookDedupPrefix = "webhook:event:"
)

// WebhookVerifier checks a delivery signature over the raw body.
type WebhookVerifier interface {
	VerifyWebhookSignature(body []byte, signature string) (bool, error)
}

// DedupStore records event ids that have already been processed.
type DedupStore interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) (bool, error)
}

type WebhookService struct {
	verifier WebhookVerifier
	gateway  payment.Gateway
	logger   *logger.Logger

	dedup    DedupStore
	dedupTTL time.Duration
	archive  *WebhookArchive
	events   PaymentEventPublisher
	notifier *NotificationService
	metrics  *payment.Metrics
}

type WebhookOption func(*WebhookService)

func WithDedup(store DedupStore, ttl time.Duration) WebhookOption {
	return func(s *WebhookService) {
		s.dedup = store
		s.dedupTTL = ttl
	}
}

func WithArchive(archive *WebhookArchive) WebhookOption {
	return func(s *WebhookService) { s.archive = archive }
}

func WithEventPublisher(events PaymentEventPublisher) WebhookOption {
	return func(s *WebhookService) { s.events = events }
}

func WithNotifier(notifier *NotificationService) WebhookOption {
	return func(s *WebhookService) { s.notifier = notifier }
}

func WithWebhookMetrics(metrics *payment.Metrics) WebhookOption {
	return func(s *WebhookService) { s.metrics = metrics }
}

func NewWebhookService(verifier WebhookVerifier, gateway payment.Gateway, log *logger.Logger, opts ...WebhookOption) *WebhookService {
	s := &WebhookService{
		verifier: verifier,
		gateway:  gateway,
		logger:   log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetWebhookActionAndData verifies and classifies one delivery. It never
// returns an error: anything that prevents classification yields "failed".
func (s *WebhookService) GetWebhookActionAndData(ctx context.Context, envelope *models.WebhookEnvelope) *models.WebhookResult {
	failed := &models.WebhookResult{Action: models.WebhookActionFailed}
	log := s.logger.WithContext(ctx)

	ok, err := s.verifier.VerifyWebhookSignature(envelope.RawBody, envelope.Signature())
	if err != nil {
		log.WithError(err).Error("webhook signature could not be verified")
		return failed
	}
	if !ok {
		log.LogSecurityEvent("webhook_signature_mismatch", "warning", map[string]interface{}{
			"event_id": envelope.EventID(),
		})
		return failed
	}

	payload := envelope.Payload
	if payload == nil {
		payload = &payment.WebhookPayload{}
		if err := json.Unmarshal(envelope.RawBody, payload); err != nil {
			log.WithError(err).Warn("webhook body is not a valid razorpay payload")
			return failed
		}
	}

	p := payload.PaymentEntity()
	if p == nil {
		log.WithField("event", payload.Event).Warn("webhook carries no payment entity")
		return failed
	}
	failed.Payment = p
	failed.Event = payload.Event

	order, err := s.gateway.FetchOrder(ctx, p.OrderID)
	if err != nil {
		log.WithError(err).WithOrderID(p.OrderID).Error("unable to fetch order for webhook")
		return failed
	}

	units := order.AmountPaid
	if units == 0 {
		units = p.Amount
	}
	data := &models.WebhookData{
		SessionID: p.Notes["session_id"],
		Amount:    payment.FromSmallestUnit(units, p.Currency),
	}

	result := &models.WebhookResult{Data: data, Payment: p, Event: payload.Event}
	switch payload.Event {
	case EventPaymentCaptured:
		result.Action = models.WebhookActionSuccessful
	case EventPaymentAuthorized:
		result.Action = models.WebhookActionAuthorized
	case EventPaymentFailed:
		result.Action = models.WebhookActionFailed
	default:
		return &models.WebhookResult{Action: models.WebhookActionNotSupported, Payment: p, Event: payload.Event}
	}
	return result
}

// Process classifies a delivery and runs the side effects once per event id:
// archive, live broadcast and failure notification.
func (s *WebhookService) Process(ctx context.Context, envelope *models.WebhookEnvelope) *models.WebhookResult {
	result := s.GetWebhookActionAndData(ctx, envelope)
	defer s.metrics.ObserveWebhook(string(result.Action))

	// Deliveries that were not fully classified get no side effects and do
	// not claim their event id, so a redelivery can still succeed.
	if result.Payment == nil || (result.Data == nil && result.Action != models.WebhookActionNotSupported) {
		return result
	}

	log := s.logger.WithContext(ctx).WithFields(map[string]interface{}{
		"event":      result.Event,
		"payment_id": result.Payment.ID,
		"action":     string(result.Action),
	})

	if s.isDuplicate(ctx, envelope.EventID()) {
		log.Info("duplicate webhook delivery ignored")
		result.Duplicate = true
		return result
	}

	if s.archive != nil {
		if _, err := s.archive.Store(ctx, envelope, result); err != nil {
			log.WithError(err).Warn("failed to archive webhook")
		}
	}

	if s.events != nil && result.Data != nil {
		if err := s.events.Publish(ctx, paymentEventFrom(result)); err != nil {
			log.WithError(err).Warn("failed to publish payment event")
		}
	}

	if s.notifier != nil && result.Event == EventPaymentFailed {
		if err := s.notifier.NotifyPaymentFailed(ctx, result.Payment); err != nil {
			log.WithError(err).Warn("failed to notify customer of failed payment")
		}
	}

	log.Info("webhook processed")
	return result
}

func (s *WebhookService) isDuplicate(ctx context.Context, eventID string) bool {
	if s.dedup == nil || eventID == "" {
		return false
	}

	fresh, err := s.dedup.SetNX(ctx, webhookDedupPrefix+eventID, time.Now().Unix(), s.dedupTTL)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Warn("webhook de-duplication unavailable")
		return false
	}
	return !fresh
}

func paymentEventFrom(result *models.WebhookResult) *models.PaymentEvent {
	return &models.PaymentEvent{
		Event:     result.Event,
		Action:    result.Action,
		SessionID: result.Data.SessionID,
		PaymentID: result.Payment.ID,
		OrderID:   result.Payment.OrderID,
		Amount:    result.Data.Amount,
		Currency:  result.Payment.Currency,
		Timestamp: time.Now().Unix(),
	}
}
