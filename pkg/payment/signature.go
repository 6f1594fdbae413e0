package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/razorpay/razorpay-go/utils"
)

// Verifier checks checkout and webhook signatures. Both checks fail closed when
// their secret is missing.
type Verifier struct {
	keySecret     string
	webhookSecret string
}

func NewVerifier(keySecret, webhookSecret string) *Verifier {
	return &Verifier{
		keySecret:     keySecret,
		webhookSecret: webhookSecret,
	}
}

// VerifyPaymentSignature checks the signature checkout returns after a
// successful payment: hex HMAC-SHA256 of "order_id|payment_id".
func (v *Verifier) VerifyPaymentSignature(paymentID, orderID, signature string) (bool, error) {
	if v.keySecret == "" {
		return false, fmt.Errorf("key secret missing: %w", ErrNotConfigured)
	}

	expected := sign(v.keySecret, orderID+"|"+paymentID)
	return hmac.Equal([]byte(expected), []byte(signature)), nil
}

// VerifyWebhookSignature checks x-razorpay-signature against the exact raw
// request body.
func (v *Verifier) VerifyWebhookSignature(body []byte, signature string) (bool, error) {
	if v.webhookSecret == "" {
		return false, fmt.Errorf("webhook secret missing: %w", ErrNotConfigured)
	}
	if signature == "" {
		return false, nil
	}
	return utils.VerifyWebhookSignature(string(body), signature, v.webhookSecret), nil
}

func sign(secret, payload string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(payload))
	return hex.EncodeToString(h.Sum(nil))
}
