package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DanielPopoola/hosted-payment-gateway/internal/config"
	"github.com/DanielPopoola/hosted-payment-gateway/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("GATEWAY_STORE__DRIVER", "memory")
	t.Setenv("GATEWAY_GATEWAY__STORE_NAME", "1100000001")
	t.Setenv("GATEWAY_GATEWAY__SHARED_SECRET", "s3cret")
	t.Setenv("GATEWAY_GATEWAY__SUCCESS_URL", "https://example.org/platnosc/{order_id}/status?result=success")
	t.Setenv("GATEWAY_GATEWAY__FAIL_URL", "https://example.org/platnosc/{order_id}/status?result=failure")
	t.Setenv("GATEWAY_GATEWAY__NOTIFICATION_URL", "https://api.example.org/api/payments/webhooks/fiserv/s2s")
}

func TestLoadConfig_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "Europe/Warsaw", cfg.Gateway.Timezone)
	assert.Equal(t, "985", cfg.Gateway.Currency)
	assert.Equal(t, 10, cfg.RateLimit.PerMinute)
	assert.Equal(t, 100, cfg.RateLimit.PerHour)
	assert.Equal(t, 3, cfg.Store.Retry.MaxRetries)

	limits, err := cfg.Gateway.Limits()
	require.NoError(t, err)
	assert.Equal(t, "1.00", limits.Min.String())
	assert.Equal(t, "5000.00", limits.Max.String())

	outbound, notification, err := cfg.Signing.Scopes()
	require.NoError(t, err)
	assert.Equal(t, "hashExtended", outbound.SignatureField())
	assert.Equal(t, config.DefaultOutboundFields, outbound.Fields())
	assert.Equal(t, config.DefaultNotificationFields, notification.Fields())

	engine, err := cfg.NewEngine()
	require.NoError(t, err)
	assert.Equal(t, "base64", engine.Encoding().Name())
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("GATEWAY_SERVER__PORT", "9090")
	t.Setenv("GATEWAY_SIGNING__ENCODING", "hex")
	t.Setenv("GATEWAY_GATEWAY__MAX_AMOUNT", "250.00")
	t.Setenv("GATEWAY_WEBHOOK__ALLOWED_SOURCES", "10.0.0.0/8,192.168.1.7")
	t.Setenv("GATEWAY_WEBHOOK__STORE_TIMEOUT", "750ms")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "hex", cfg.Signing.Encoding)
	assert.Equal(t, 750*time.Millisecond, cfg.Webhook.StoreTimeout)

	prefixes, err := cfg.Webhook.AllowedPrefixes()
	require.NoError(t, err)
	require.Len(t, prefixes, 2)
	assert.Equal(t, "10.0.0.0/8", prefixes[0].String())
	assert.Equal(t, "192.168.1.7/32", prefixes[1].String())
}

func TestLoadConfig_File(t *testing.T) {
	setRequiredEnv(t)

	path := filepath.Join(t.TempDir(), "gateway.yaml")
	yaml := `
signing:
  notification:
    fields: [oid, status, chargetotal]
logger:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))
	t.Setenv("GATEWAY_CONFIG_FILE", path)

	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	_, notification, err := cfg.Signing.Scopes()
	require.NoError(t, err)
	assert.Equal(t, []string{"chargetotal", "oid", "status"}, notification.Fields())
	assert.Equal(t, "debug", cfg.Logger.Level)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing secret", map[string]string{"GATEWAY_GATEWAY__SHARED_SECRET": ""}},
		{"unknown timezone", map[string]string{"GATEWAY_GATEWAY__TIMEZONE": "Mars/Olympus"}},
		{"inverted limits", map[string]string{"GATEWAY_GATEWAY__MIN_AMOUNT": "10", "GATEWAY_GATEWAY__MAX_AMOUNT": "5"}},
		{"signature field in scope", map[string]string{"GATEWAY_SIGNING__OUTBOUND__FIELDS": "oid,hashExtended"}},
		{"bad encoding", map[string]string{"GATEWAY_SIGNING__ENCODING": "base32"}},
		{"bad allowlist", map[string]string{"GATEWAY_WEBHOOK__ALLOWED_SOURCES": "not-an-ip"}},
		{"postgres without database", map[string]string{"GATEWAY_STORE__DRIVER": "postgres"}},
		{"signed payment method cleared", map[string]string{"GATEWAY_GATEWAY__PAYMENT_METHOD": ""}},
		{"optional donor field in scope", map[string]string{"GATEWAY_SIGNING__OUTBOUND__FIELDS": "oid,chargetotal,bname"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := config.LoadConfig()
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrConfiguration)
		})
	}
}

func TestLoadConfig_PaymentMethodOptionalWhenUnsigned(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("GATEWAY_GATEWAY__PAYMENT_METHOD", "")
	t.Setenv("GATEWAY_SIGNING__OUTBOUND__FIELDS", "chargetotal,currency,oid,storename,txndatetime")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	assert.Empty(t, cfg.Gateway.PaymentMethod)
}

func TestLoggerConfig_NewLogger(t *testing.T) {
	assert.NotNil(t, config.LoggerConfig{Level: "debug", Format: "text"}.NewLogger())
	assert.NotNil(t, config.LoggerConfig{Level: "nonsense"}.NewLogger())
}
