package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRazorpayConfig_Resolve(t *testing.T) {
	t.Setenv("RAZORPAY_WEBHOOK_SECRET", "")
	t.Setenv("RAZORPAY_TEST_WEBHOOK_SECRET", "")

	resolved := RazorpayConfig{KeyID: "k", KeySecret: "s"}.Resolve()
	assert.Equal(t, "normal", resolved.RefundSpeed)
	assert.Equal(t, 20, resolved.AutomaticExpiryPeriod)
	assert.Equal(t, 7200, resolved.ManualExpiryPeriod)
	assert.Empty(t, resolved.WebhookSecret)
	assert.Equal(t, "manual", resolved.CaptureMode())

	resolved = RazorpayConfig{
		RefundSpeed:           "optimum",
		AutomaticExpiryPeriod: 5,
		ManualExpiryPeriod:    9000,
		AutoCapture:           true,
	}.Resolve()
	assert.Equal(t, "optimum", resolved.RefundSpeed)
	assert.Equal(t, 12, resolved.AutomaticExpiryPeriod)
	assert.Equal(t, 9000, resolved.ManualExpiryPeriod)
	assert.Equal(t, "automatic", resolved.CaptureMode())
}

func TestRazorpayConfig_ResolveWebhookSecretFallback(t *testing.T) {
	t.Setenv("RAZORPAY_WEBHOOK_SECRET", "")
	t.Setenv("RAZORPAY_TEST_WEBHOOK_SECRET", "test_secret")
	assert.Equal(t, "test_secret", RazorpayConfig{}.Resolve().WebhookSecret)

	t.Setenv("RAZORPAY_WEBHOOK_SECRET", "live_secret")
	assert.Equal(t, "live_secret", RazorpayConfig{}.Resolve().WebhookSecret)

	assert.Equal(t, "configured", RazorpayConfig{WebhookSecret: "configured"}.Resolve().WebhookSecret)
}

func TestRazorpayConfig_Validate(t *testing.T) {
	assert.ErrorIs(t, (&RazorpayConfig{}).Validate(), ErrNotConfigured)
	assert.ErrorIs(t, (&RazorpayConfig{KeyID: "k"}).Validate(), ErrNotConfigured)
	assert.NoError(t, (&RazorpayConfig{KeyID: "k", KeySecret: "s"}).Validate())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("RAZORPAY_KEY_ID", "rzp_test_env")
	t.Setenv("RAZORPAY_KEY_SECRET", "secret_env")
	t.Setenv("RAZORPAY_AUTO_CAPTURE", "true")
	t.Setenv("SECURITY_JWT_SECRET", "jwt")
	t.Setenv("WEBHOOK_DEDUP_TTL", "1h")

	cfg, err := Load()
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "rzp_test_env", cfg.Razorpay.KeyID)
	assert.True(t, cfg.Razorpay.AutoCapture)
	assert.Equal(t, time.Hour, cfg.Webhook.DedupTTL)
	assert.Equal(t, "host", cfg.Security.JWTRole)
}

func TestLoad_YAMLOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
razorpay:
  key_id: rzp_test_file
  key_secret: secret_file
  refund_speed: optimum
security:
  jwt_secret: from-file
storage:
  provider: s3
  aws:
    bucket: archive
    access_key_id: AKIAFILE
    secret_access_key: file-secret
`), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("RAZORPAY_KEY_ID", "rzp_test_env")
	t.Setenv("RAZORPAY_ACCOUNT", "acc_env")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "rzp_test_file", cfg.Razorpay.KeyID)
	assert.Equal(t, "optimum", cfg.Razorpay.RefundSpeed)
	assert.Equal(t, "acc_env", cfg.Razorpay.Account)
	assert.Equal(t, "from-file", cfg.Security.JWTSecret)

	assert.Equal(t, "archive", cfg.Storage.AWS.Bucket)
	assert.Equal(t, "AKIAFILE", cfg.Storage.AWS.AccessKeyID)
	assert.True(t, cfg.Storage.AWS.IsStatic())
	assert.False(t, AWSCredentials{AccessKeyID: "only-id"}.IsStatic())
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate_RequiresJWTSecret(t *testing.T) {
	cfg := &Config{
		Razorpay: &RazorpayConfig{KeyID: "k", KeySecret: "s"},
		Security: &SecurityConfig{},
	}
	assert.ErrorIs(t, cfg.Validate(), ErrNotConfigured)
}
