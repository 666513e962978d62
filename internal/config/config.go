// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type HTTPConfig struct {
	Port            int           `yaml:"port"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL            string `yaml:"url"`
	MigrationsPath string `yaml:"migrations_path"`
	AutoMigrate    bool   `yaml:"auto_migrate"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	LockTTL  time.Duration `yaml:"lock_ttl"`
}

type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	Issuer    string `yaml:"issuer"`
}

type WebhookConfig struct {
	MercadoPagoSecret string        `yaml:"mercadopago_secret"`
	StripeSecret      string        `yaml:"stripe_secret"`
	StripeTolerance   time.Duration `yaml:"stripe_tolerance"`
}

type FeesConfig struct {
	UnknownMethodPolicy string `yaml:"unknown_method_policy"` // cheapest|reject
	Currency            string `yaml:"currency"`
	Provider            string `yaml:"provider"` // gateway recorded on new payments
}

type SettingsConfig struct {
	CacheSize int           `yaml:"cache_size"`
	CacheTTL  time.Duration `yaml:"cache_ttl"`
}

type SchedulerConfig struct {
	PendingExpiry time.Duration `yaml:"pending_expiry"`
	Interval      time.Duration `yaml:"interval"`
	BatchSize     int           `yaml:"batch_size"`
}

type OutboxConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
	BatchSize    int           `yaml:"batch_size"`
}

type CouponConfig struct {
	ValidateLimit  int           `yaml:"validate_limit"` // per user, per window
	ValidateWindow time.Duration `yaml:"validate_window"`
}

type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Log       LogConfig       `yaml:"log"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Auth      AuthConfig      `yaml:"auth"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Fees      FeesConfig      `yaml:"fees"`
	Settings  SettingsConfig  `yaml:"settings"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Outbox    OutboxConfig    `yaml:"outbox"`
	Coupons   CouponConfig    `yaml:"coupons"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the yaml file at path, applies environment overrides for
// secrets and fills defaults. An empty path skips the file.
func LoadConfig(path string, dev bool) (*Config, error) {
	var cfg Config
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("auth.jwt_secret is required")
	}
	switch cfg.Fees.UnknownMethodPolicy {
	case "cheapest", "reject":
	default:
		return nil, fmt.Errorf("fees.unknown_method_policy: unsupported value %q", cfg.Fees.UnknownMethodPolicy)
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("MERCADOPAGO_WEBHOOK_SECRET"); v != "" {
		cfg.Webhook.MercadoPagoSecret = v
	}
	if v := os.Getenv("STRIPE_WEBHOOK_SECRET"); v != "" {
		cfg.Webhook.StripeSecret = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
}

func applyDefaults(cfg *Config) {
	if cfg.HTTP.Port <= 0 {
		cfg.HTTP.Port = 8080
	}
	cfg.HTTP.RequestTimeout = orDefault(cfg.HTTP.RequestTimeout, 15*time.Second)
	cfg.HTTP.ShutdownTimeout = orDefault(cfg.HTTP.ShutdownTimeout, 10*time.Second)
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Database.MigrationsPath == "" {
		cfg.Database.MigrationsPath = "migrations"
	}
	cfg.Redis.LockTTL = orDefault(cfg.Redis.LockTTL, 30*time.Second)
	if cfg.Kafka.Topic == "" {
		cfg.Kafka.Topic = "settlement.events"
	}
	if cfg.Auth.Issuer == "" {
		cfg.Auth.Issuer = "course-platform"
	}
	cfg.Webhook.StripeTolerance = orDefault(cfg.Webhook.StripeTolerance, 5*time.Minute)
	cfg.Fees.UnknownMethodPolicy = strings.ToLower(strings.TrimSpace(cfg.Fees.UnknownMethodPolicy))
	if cfg.Fees.UnknownMethodPolicy == "" {
		cfg.Fees.UnknownMethodPolicy = "cheapest"
	}
	if cfg.Fees.Currency == "" {
		cfg.Fees.Currency = "BRL"
	}
	if cfg.Fees.Provider == "" {
		cfg.Fees.Provider = "mercadopago"
	}
	if cfg.Settings.CacheSize <= 0 {
		cfg.Settings.CacheSize = 64
	}
	cfg.Settings.CacheTTL = orDefault(cfg.Settings.CacheTTL, time.Minute)
	cfg.Scheduler.PendingExpiry = orDefault(cfg.Scheduler.PendingExpiry, 48*time.Hour)
	cfg.Scheduler.Interval = orDefault(cfg.Scheduler.Interval, 10*time.Minute)
	if cfg.Scheduler.BatchSize <= 0 {
		cfg.Scheduler.BatchSize = 100
	}
	cfg.Outbox.PollInterval = orDefault(cfg.Outbox.PollInterval, 2*time.Second)
	if cfg.Outbox.BatchSize <= 0 {
		cfg.Outbox.BatchSize = 50
	}
	if cfg.Coupons.ValidateLimit <= 0 {
		cfg.Coupons.ValidateLimit = 30
	}
	cfg.Coupons.ValidateWindow = orDefault(cfg.Coupons.ValidateWindow, time.Minute)
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
