package config

import (
	"fmt"
	"os"
	"time"

	"razorpay-provider/pkg/payment"
)

// ErrNotConfigured is shared with the gateway so handlers map both to not_configured.
var ErrNotConfigured = payment.ErrNotConfigured

const (
	defaultRefundSpeed           = "normal"
	defaultAutomaticExpiryPeriod = 20
	minAutomaticExpiryPeriod     = 12
	defaultManualExpiryPeriod    = 10
	minManualExpiryPeriod        = 7200
)

type RazorpayConfig struct {
	KeyID                 string `yaml:"key_id"`
	KeySecret             string `yaml:"key_secret"`
	WebhookSecret         string `yaml:"webhook_secret"`
	Account               string `yaml:"account"`
	AutoCapture           bool   `yaml:"auto_capture"`
	RefundSpeed           string `yaml:"refund_speed"`
	AutomaticExpiryPeriod int    `yaml:"automatic_expiry_period"`
	ManualExpiryPeriod    int    `yaml:"manual_expiry_period"`
}

type WebhookConfig struct {
	DedupTTL        time.Duration `yaml:"dedup_ttl"`
	Archive         bool          `yaml:"archive"`
	ArchivePrefix   string        `yaml:"archive_prefix"`
	NotifyOnFailure bool          `yaml:"notify_on_failure"`
}

func loadRazorpayConfig() *RazorpayConfig {
	return &RazorpayConfig{
		KeyID:                 getEnv("RAZORPAY_KEY_ID", ""),
		KeySecret:             getEnv("RAZORPAY_KEY_SECRET", ""),
		WebhookSecret:         getEnv("RAZORPAY_WEBHOOK_SECRET", ""),
		Account:               getEnv("RAZORPAY_ACCOUNT", ""),
		AutoCapture:           getEnvAsBool("RAZORPAY_AUTO_CAPTURE", false),
		RefundSpeed:           getEnv("RAZORPAY_REFUND_SPEED", ""),
		AutomaticExpiryPeriod: getEnvAsInt("RAZORPAY_AUTOMATIC_EXPIRY_PERIOD", 0),
		ManualExpiryPeriod:    getEnvAsInt("RAZORPAY_MANUAL_EXPIRY_PERIOD", 0),
	}
}

func loadWebhookConfig() *WebhookConfig {
	return &WebhookConfig{
		DedupTTL:        getEnvAsDuration("WEBHOOK_DEDUP_TTL", 24*time.Hour),
		Archive:         getEnvAsBool("WEBHOOK_ARCHIVE", false),
		ArchivePrefix:   getEnv("WEBHOOK_ARCHIVE_PREFIX", "webhooks/razorpay"),
		NotifyOnFailure: getEnvAsBool("WEBHOOK_NOTIFY_ON_FAILURE", false),
	}
}

func (c *RazorpayConfig) Validate() error {
	if c.KeyID == "" {
		return fmt.Errorf("RAZORPAY_KEY_ID is required: %w", ErrNotConfigured)
	}
	if c.KeySecret == "" {
		return fmt.Errorf("RAZORPAY_KEY_SECRET is required: %w", ErrNotConfigured)
	}
	return nil
}

// Resolve returns a copy with defaults and floors applied. The webhook secret
// falls back to RAZORPAY_WEBHOOK_SECRET, then RAZORPAY_TEST_WEBHOOK_SECRET.
func (c RazorpayConfig) Resolve() RazorpayConfig {
	if c.RefundSpeed == "" {
		c.RefundSpeed = defaultRefundSpeed
	}

	if c.AutomaticExpiryPeriod == 0 {
		c.AutomaticExpiryPeriod = defaultAutomaticExpiryPeriod
	}
	c.AutomaticExpiryPeriod = max(c.AutomaticExpiryPeriod, minAutomaticExpiryPeriod)

	if c.ManualExpiryPeriod == 0 {
		c.ManualExpiryPeriod = defaultManualExpiryPeriod
	}
	c.ManualExpiryPeriod = max(c.ManualExpiryPeriod, minManualExpiryPeriod)

	if c.WebhookSecret == "" {
		c.WebhookSecret = os.Getenv("RAZORPAY_WEBHOOK_SECRET")
	}
	if c.WebhookSecret == "" {
		c.WebhookSecret = os.Getenv("RAZORPAY_TEST_WEBHOOK_SECRET")
	}
	return c
}

// CaptureMode is "automatic" or "manual".
func (c RazorpayConfig) CaptureMode() string {
	if c.AutoCapture {
		return "automatic"
	}
	return "manual"
}
