package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/DanielPopoola/hosted-payment-gateway/internal/domain"
	"github.com/DanielPopoola/hosted-payment-gateway/internal/signing"
	"github.com/go-playground/validator"
	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Primary   Primary         `koanf:"primary"`
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database" validate:"-"`
	Store     StoreConfig     `koanf:"store"`
	Redis     RedisConfig     `koanf:"redis"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Logger    LoggerConfig    `koanf:"logger"`
	Worker    WorkerConfig    `koanf:"worker"`
	Gateway   GatewayConfig   `koanf:"gateway"`
	Signing   SigningConfig   `koanf:"signing"`
	Webhook   WebhookConfig   `koanf:"webhook"`
	Alerting  AlertingConfig  `koanf:"alerting"`
}

type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

type ServerConfig struct {
	Port            string        `koanf:"port" validate:"required"`
	ReadTimeout     time.Duration `koanf:"read_timeout" validate:"required"`
	WriteTimeout    time.Duration `koanf:"write_timeout" validate:"required"`
	IdleTimeout     time.Duration `koanf:"idle_timeout" validate:"required"`
	RequestTimeout  time.Duration `koanf:"request_timeout" validate:"required"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"required"`
	TrustProxy      bool          `koanf:"trust_proxy"`
}

type DatabaseConfig struct {
	Host            string        `koanf:"host" validate:"required"`
	Port            int           `koanf:"port" validate:"required"`
	User            string        `koanf:"user" validate:"required"`
	Password        string        `koanf:"password" validate:"required"`
	Name            string        `koanf:"name" validate:"required"`
	SSLMode         string        `koanf:"ssl_mode" validate:"required"`
	MaxOpenConns    int           `koanf:"max_open_conns" validate:"required"`
	MaxIdleConns    int           `koanf:"max_idle_conns" validate:"required"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime" validate:"required"`
	ConnMaxIdleTime time.Duration `koanf:"conn_max_idle_time" validate:"required"`
}

type StoreConfig struct {
	Driver string      `koanf:"driver" validate:"required,oneof=postgres memory"`
	Retry  RetryConfig `koanf:"retry"`
}

type RetryConfig struct {
	InitialInterval time.Duration `koanf:"initial_interval" validate:"required"`
	MaxInterval     time.Duration `koanf:"max_interval" validate:"required"`
	MaxRetries      int           `koanf:"max_retries" validate:"min=0"`
}

type RedisConfig struct {
	Addr         string        `koanf:"addr"`
	Password     string        `koanf:"password"`
	DB           int           `koanf:"db"`
	PoolSize     int           `koanf:"pool_size"`
	DialTimeout  time.Duration `koanf:"dial_timeout"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
}

type RateLimitConfig struct {
	Enabled   bool   `koanf:"enabled"`
	PerMinute int    `koanf:"per_minute" validate:"min=0"`
	PerHour   int    `koanf:"per_hour" validate:"min=0"`
	KeyPrefix string `koanf:"key_prefix"`
}

type LoggerConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format" validate:"omitempty,oneof=json text"`
}

type WorkerConfig struct {
	Interval   time.Duration `koanf:"interval" validate:"required"`
	StaleAfter time.Duration `koanf:"stale_after" validate:"required"`
	BatchSize  int           `koanf:"batch_size" validate:"required"`
}

type GatewayConfig struct {
	StoreName       string `koanf:"store_name" validate:"required"`
	SharedSecret    string `koanf:"shared_secret" validate:"required"`
	URL             string `koanf:"url" validate:"required,url"`
	Currency        string `koanf:"currency" validate:"required"`
	Timezone        string `koanf:"timezone" validate:"required"`
	TxnType         string `koanf:"txn_type" validate:"required"`
	CheckoutOption  string `koanf:"checkout_option" validate:"required"`
	PaymentMethod   string `koanf:"payment_method"`
	MinAmount       string `koanf:"min_amount" validate:"required"`
	MaxAmount       string `koanf:"max_amount" validate:"required"`
	SuccessURL      string `koanf:"success_url" validate:"required"`
	FailURL         string `koanf:"fail_url" validate:"required"`
	NotificationURL string `koanf:"notification_url" validate:"required"`
}

type SigningConfig struct {
	Encoding     string      `koanf:"encoding" validate:"omitempty,oneof=base64 hex"`
	Outbound     ScopeConfig `koanf:"outbound"`
	Notification ScopeConfig `koanf:"notification"`
}

type ScopeConfig struct {
	Name            string   `koanf:"name" validate:"required"`
	Version         int      `koanf:"version" validate:"min=1"`
	Fields          []string `koanf:"fields" validate:"required,min=1"`
	SignatureFields []string `koanf:"signature_fields" validate:"required,min=1"`
}

type WebhookConfig struct {
	StoreTimeout   time.Duration `koanf:"store_timeout" validate:"required"`
	AllowedSources []string      `koanf:"allowed_sources"`
	MaxBodyBytes   int64         `koanf:"max_body_bytes" validate:"required"`
}

type AlertingConfig struct {
	// QuietPeriod suppresses repeats of the same alert. Zero logs every one.
	QuietPeriod time.Duration `koanf:"quiet_period"`
}

// LoadConfig layers defaults, an optional YAML file named by
// GATEWAY_CONFIG_FILE, and GATEWAY_* environment variables, then validates
// the result. Any failure is a configuration error.
func LoadConfig() (*Config, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		logger.Error("failed to load defaults", "error", err)
		return nil, err
	}

	if path := os.Getenv("GATEWAY_CONFIG_FILE"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			logger.Error("failed to load config file", "path", path, "error", err)
			return nil, domain.NewConfigurationError(fmt.Sprintf("cannot read config file %s: %v", path, err))
		}
	}

	err := k.Load(env.Provider("GATEWAY_", ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, "GATEWAY_")),
			"__",
			".",
		)
	}), nil)
	if err != nil {
		logger.Error("failed to load environment variables", "error", err)
		return nil, err
	}

	mainConfig := &Config{}

	err = k.Unmarshal("", mainConfig)
	if err != nil {
		logger.Error("could not unmarshal main config", "error", err)
		return nil, err
	}

	if err := mainConfig.Validate(); err != nil {
		logger.Error("config validation failed", "error", err)
		return nil, err
	}

	return mainConfig, nil
}

// Validate checks struct tags and the cross-field rules tags cannot express.
func (c *Config) Validate() error {
	validate := validator.New()

	if err := validate.Struct(c); err != nil {
		return domain.NewConfigurationError(err.Error())
	}

	if c.Store.Driver == DriverPostgres {
		if err := validate.Struct(c.Database); err != nil {
			return domain.NewConfigurationError(err.Error())
		}
	}

	if _, err := c.Gateway.Limits(); err != nil {
		return err
	}
	if _, err := c.Gateway.Location(); err != nil {
		return err
	}
	outbound, _, err := c.Signing.Scopes()
	if err != nil {
		return err
	}
	if err := c.checkOutboundScope(outbound); err != nil {
		return err
	}
	if _, err := c.Webhook.AllowedPrefixes(); err != nil {
		return err
	}

	return nil
}

// checkOutboundScope rejects a scope naming a field the request builder can
// leave out, which would otherwise fail every initiate at request time.
func (c *Config) checkOutboundScope(outbound signing.Scope) error {
	if outbound.Contains("paymentMethod") && strings.TrimSpace(c.Gateway.PaymentMethod) == "" {
		return domain.NewConfigurationError("outbound scope signs paymentMethod but gateway.payment_method is empty")
	}
	for _, field := range []string{"bname", "bmail"} {
		if outbound.Contains(field) {
			return domain.NewConfigurationError(fmt.Sprintf("outbound scope cannot sign optional donor field %s", field))
		}
	}
	return nil
}

func defaults() map[string]any {
	return map[string]any{
		"primary.env": "development",

		"server.port":             "8080",
		"server.read_timeout":     "15s",
		"server.write_timeout":    "15s",
		"server.idle_timeout":     "60s",
		"server.request_timeout":  "10s",
		"server.shutdown_timeout": "30s",

		"database.ssl_mode":           "disable",
		"database.max_open_conns":     10,
		"database.max_idle_conns":     2,
		"database.conn_max_lifetime":  "1h",
		"database.conn_max_idle_time": "30m",

		"store.driver":                 DriverPostgres,
		"store.retry.initial_interval": "100ms",
		"store.retry.max_interval":     "2s",
		"store.retry.max_retries":      3,

		"redis.pool_size":     20,
		"redis.dial_timeout":  "2s",
		"redis.read_timeout":  "1s",
		"redis.write_timeout": "1s",

		"rate_limit.enabled":    true,
		"rate_limit.per_minute": 10,
		"rate_limit.per_hour":   100,
		"rate_limit.key_prefix": "ratelimit:initiate",

		"logger.level":  "info",
		"logger.format": "json",

		"worker.interval":    "5m",
		"worker.stale_after": "2h",
		"worker.batch_size":  100,

		"gateway.url":             "https://test.ipg-online.com/connect/gateway/processing",
		"gateway.currency":        "985",
		"gateway.timezone":        "Europe/Warsaw",
		"gateway.txn_type":        "sale",
		"gateway.checkout_option": "combinedpage",
		"gateway.payment_method":  "M",
		"gateway.min_amount":      "1.00",
		"gateway.max_amount":      "5000.00",

		"signing.encoding":                      "base64",
		"signing.outbound.name":                 "outbound",
		"signing.outbound.version":              1,
		"signing.outbound.fields":               DefaultOutboundFields,
		"signing.outbound.signature_fields":     []string{"hashExtended"},
		"signing.notification.name":             "notification",
		"signing.notification.version":          1,
		"signing.notification.fields":           DefaultNotificationFields,
		"signing.notification.signature_fields": []string{"notification_hash", "response_hash", "hash"},

		"webhook.store_timeout":  "3s",
		"webhook.max_body_bytes": 64 << 10,

		"alerting.quiet_period": "10m",
	}
}
