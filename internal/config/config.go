package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config is loaded once at startup and passed to each component.
type Config struct {
	Port int `validate:"min=1,max=65535"`

	AccessToken    string
	APIBase        string        `validate:"required,url"`
	GatewayTimeout time.Duration `validate:"gt=0"`

	// WebhookSecret is required once the webhook is enabled, unless
	// WebhookInsecure is set explicitly. See webhookSecretRule.
	WebhookSecret   string
	WebhookInsecure bool

	DeviceHost string `validate:"required,hostname|ip"`
	DevicePort int    `validate:"min=1,max=65535"`

	AuditLogPath string `validate:"required"`
	AuditDBPath  string

	// JWTSecret has no default.
	JWTSecret         string `validate:"required,min=16"`
	AdminPasswordHash string
	CORSOrigins       []string
}

// LoadEnvFile loads variables from a .env file when one exists. Variables
// already present in the environment win.
func LoadEnvFile(paths ...string) {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			log.Printf("config: load %s: %v", p, err)
		}
		return
	}
}

func Load() *Config {
	port := intEnv("PORT", 8080)
	apiBase := os.Getenv("MERCADOPAGO_API_BASE")
	if apiBase == "" {
		apiBase = "https://api.mercadopago.com"
	}
	gatewayTimeout := 15 * time.Second
	if v := os.Getenv("MERCADOPAGO_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			gatewayTimeout = d
		}
	}
	insecure := os.Getenv("WEBHOOK_INSECURE") == "true" || os.Getenv("WEBHOOK_INSECURE") == "1"

	deviceHost := firstEnv("DEVICE_HOST", "ESP8266_IP")
	if deviceHost == "" {
		deviceHost = "192.168.1.100"
	}
	devicePort := 80
	if p := firstEnv("DEVICE_PORT", "ESP8266_PORT"); p != "" {
		if v, err := strconv.Atoi(p); err == nil {
			devicePort = v
		}
	}

	auditLogPath := os.Getenv("AUDIT_LOG_PATH")
	if auditLogPath == "" {
		auditLogPath = "./logs/transactions.log"
	}
	corsOrigins := []string{
		"http://localhost:5173",
		"http://127.0.0.1:5173",
		"http://localhost:3000",
		"http://127.0.0.1:3000",
	}
	if o := os.Getenv("CORS_ORIGINS"); o != "" {
		// Comma-separated list, e.g. "http://localhost:5173,http://127.0.0.1:5173"
		parts := strings.Split(o, ",")
		corsOrigins = make([]string, 0, len(parts))
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				corsOrigins = append(corsOrigins, s)
			}
		}
	}
	return &Config{
		Port:              port,
		AccessToken:       os.Getenv("MERCADOPAGO_ACCESS_TOKEN"),
		APIBase:           apiBase,
		GatewayTimeout:    gatewayTimeout,
		WebhookSecret:     os.Getenv("WEBHOOK_SECRET"),
		WebhookInsecure:   insecure,
		DeviceHost:        deviceHost,
		DevicePort:        devicePort,
		AuditLogPath:      auditLogPath,
		AuditDBPath:       os.Getenv("AUDIT_DB_PATH"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),
		CORSOrigins:       corsOrigins,
	}
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	validate := validator.New()
	validate.RegisterStructValidation(webhookSecretRule, Config{})
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

func webhookSecretRule(sl validator.StructLevel) {
	c := sl.Current().Interface().(Config)
	if c.Configured() && !c.WebhookInsecure && c.WebhookSecret == "" {
		sl.ReportError(c.WebhookSecret, "WebhookSecret", "WebhookSecret", "required_with_token", "")
	}
}

// Configured reports whether gateway credentials are present.
func (c *Config) Configured() bool {
	return c.AccessToken != ""
}

func intEnv(key string, def int) int {
	if p := os.Getenv(key); p != "" {
		if v, err := strconv.Atoi(p); err == nil {
			return v
		}
	}
	return def
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
