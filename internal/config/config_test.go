package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"PORT", "MERCADOPAGO_ACCESS_TOKEN", "MERCADOPAGO_API_BASE", "MERCADOPAGO_TIMEOUT",
	"WEBHOOK_SECRET", "WEBHOOK_INSECURE", "DEVICE_HOST", "ESP8266_IP", "DEVICE_PORT",
	"ESP8266_PORT", "AUDIT_LOG_PATH", "AUDIT_DB_PATH", "JWT_SECRET", "ADMIN_PASSWORD_HASH",
	"CORS_ORIGINS",
}

const testJWTSecret = "0123456789abcdef0123456789abcdef"

func clearEnv(t *testing.T) {
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "https://api.mercadopago.com", cfg.APIBase)
	assert.Equal(t, 15*time.Second, cfg.GatewayTimeout)
	assert.Equal(t, "192.168.1.100", cfg.DeviceHost)
	assert.Equal(t, 80, cfg.DevicePort)
	assert.Equal(t, "./logs/transactions.log", cfg.AuditLogPath)
	assert.False(t, cfg.WebhookInsecure)
	assert.False(t, cfg.Configured())
	assert.Empty(t, cfg.JWTSecret)

	// there is no built-in JWT secret; the webhook is disabled so its
	// secret is not required
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWTSecret")
	assert.NotContains(t, err.Error(), "WebhookSecret")
}

func TestValidate_JWTSecret(t *testing.T) {
	clearEnv(t)

	t.Setenv("JWT_SECRET", "short")
	err := Load().Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `JWTSecret failed "min"`)

	t.Setenv("JWT_SECRET", testJWTSecret)
	assert.NoError(t, Load().Validate())
}

func TestValidate_WebhookSecretOnlyWithToken(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", testJWTSecret)
	assert.NoError(t, Load().Validate())

	// enabling the webhook makes the secret mandatory
	t.Setenv("MERCADOPAGO_ACCESS_TOKEN", "APP_USR-1")
	err := Load().Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `WebhookSecret failed "required_with_token"`)

	t.Setenv("WEBHOOK_SECRET", "s3cret")
	assert.NoError(t, Load().Validate())
}

func TestLoad_FromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "5000")
	t.Setenv("MERCADOPAGO_ACCESS_TOKEN", "APP_USR-1")
	t.Setenv("MERCADOPAGO_TIMEOUT", "3s")
	t.Setenv("WEBHOOK_SECRET", "s3cret")
	t.Setenv("JWT_SECRET", testJWTSecret)
	t.Setenv("ESP8266_IP", "10.0.0.7")
	t.Setenv("ESP8266_PORT", "8081")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test,")

	cfg := Load()
	assert.Equal(t, 5000, cfg.Port)
	assert.True(t, cfg.Configured())
	assert.Equal(t, 3*time.Second, cfg.GatewayTimeout)
	assert.Equal(t, "10.0.0.7", cfg.DeviceHost)
	assert.Equal(t, 8081, cfg.DevicePort)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
	assert.NoError(t, cfg.Validate())

	t.Setenv("DEVICE_HOST", "fridge.local")
	assert.Equal(t, "fridge.local", Load().DeviceHost)
}

func TestValidate_InsecureNeedsNoSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("MERCADOPAGO_ACCESS_TOKEN", "APP_USR-1")
	t.Setenv("JWT_SECRET", testJWTSecret)
	t.Setenv("WEBHOOK_INSECURE", "true")

	cfg := Load()
	assert.True(t, cfg.WebhookInsecure)
	assert.NoError(t, cfg.Validate())
}

func TestValidate_RejectsBadValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("WEBHOOK_SECRET", "s3cret")
	t.Setenv("DEVICE_PORT", "70000")
	t.Setenv("DEVICE_HOST", "not a host")

	err := Load().Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DevicePort")
	assert.Contains(t, err.Error(), "DeviceHost")
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)
	// godotenv never overrides a variable that is present, even if empty
	os.Unsetenv("WEBHOOK_SECRET")
	os.Unsetenv("DEVICE_PORT")
	t.Setenv("PORT", "1234")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("WEBHOOK_SECRET=from-file\nDEVICE_PORT=9090\nPORT=1\n"), 0644))

	LoadEnvFile(filepath.Join(t.TempDir(), "missing.env"), path)

	cfg := Load()
	assert.Equal(t, "from-file", cfg.WebhookSecret)
	assert.Equal(t, 9090, cfg.DevicePort)
	assert.Equal(t, 1234, cfg.Port)
}
