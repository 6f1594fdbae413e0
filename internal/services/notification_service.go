package services

import (
	"context"
	"errors"
	"fmt"

	"razorpay-provider/pkg/logger"
	"razorpay-provider/pkg/payment"
	"razorpay-provider/pkg/sms"
)

var ErrNoContact = errors.New("payment has no contact number")

// NotificationService tells customers about payments that need their
// attention. Only failed payments are notified today.
type NotificationService struct {
	sms    sms.Provider
	logger *logger.Logger
}

func NewNotificationService(provider sms.Provider, log *logger.Logger) *NotificationService {
	return &NotificationService{sms: provider, logger: log}
}

func (n *NotificationService) NotifyPaymentFailed(ctx context.Context, p *payment.Payment) error {
	if p == nil || p.Contact == "" {
		return ErrNoContact
	}

	receipt, err := n.sms.Send(ctx, &sms.Message{
		To:   p.Contact,
		Body: failedPaymentMessage(p),
		Type: sms.MessageTypeTransactional,
	})
	if err != nil {
		return fmt.Errorf("failed to send payment failure sms via %s: %w", n.sms.Name(), err)
	}

	n.logger.WithContext(ctx).WithFields(map[string]interface{}{
		"payment_id": p.ID,
		"provider":   n.sms.Name(),
		"message_id": receipt.MessageID,
	}).Info("payment failure notification sent")
	return nil
}

func failedPaymentMessage(p *payment.Payment) string {
	amount := payment.FromSmallestUnit(p.Amount, p.Currency)
	msg := fmt.Sprintf("Your payment of %s %s could not be completed", amount.StringFixed(payment.CurrencyExponent(p.Currency)), p.Currency)
	if p.ErrorReason != "" {
		msg += " (" + p.ErrorReason + ")"
	}
	return msg + ". Please try again."
}
