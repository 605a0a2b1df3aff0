// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type AuthConfig struct {
	JWTSecret      string        `yaml:"jwt_secret"`
	TokenTTL       time.Duration `yaml:"token_ttl"`
	LoginRateLimit int           `yaml:"login_rate_limit"` // attempts per minute per username
	BcryptCost     int           `yaml:"bcrypt_cost"`
}

// PaymobConfig holds the hosted-checkout credentials. It is passed by value into
// the gateway client; nothing reads it from globals.
type PaymobConfig struct {
	BaseURL       string        `yaml:"base_url"`
	APIKey        string        `yaml:"api_key"`
	HMACSecret    string        `yaml:"hmac_secret"`
	IntegrationID int64         `yaml:"integration_id"`
	IframeID      int64         `yaml:"iframe_id"`
	Timeout       time.Duration `yaml:"timeout"`
	RetryBackoff  time.Duration `yaml:"retry_backoff"`
	KeyExpiration int           `yaml:"key_expiration"` // seconds
}

type TicketConfig struct {
	ValidFor time.Duration `yaml:"valid_for"`
}

type WorkerConfig struct {
	SweepInterval   time.Duration `yaml:"sweep_interval"`
	SweepStaleAfter time.Duration `yaml:"sweep_stale_after"`
	PaymentExpiry   time.Duration `yaml:"payment_expiry"`
	ExpiryInterval  time.Duration `yaml:"expiry_interval"`
	BatchSize       int           `yaml:"batch_size"`
}

type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Auth     AuthConfig     `yaml:"auth"`
	Paymob   PaymobConfig   `yaml:"paymob"`
	Tickets  TicketConfig   `yaml:"tickets"`
	Workers  WorkerConfig   `yaml:"workers"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML file at path, applies environment overrides for
// secrets, fills defaults and validates the result.
func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b, dev)
}

func Parse(b []byte, dev bool) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)
	cfg.Runtime.Dev = dev

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	overrides := map[string]*string{
		"DATABASE_URL":       &cfg.Database.URL,
		"REDIS_URL":          &cfg.Redis.URL,
		"PAYMOB_API_KEY":     &cfg.Paymob.APIKey,
		"PAYMOB_HMAC_SECRET": &cfg.Paymob.HMACSecret,
		"JWT_SECRET":         &cfg.Auth.JWTSecret,
	}
	for k, dst := range overrides {
		if v, ok := os.LookupEnv(k); ok && v != "" {
			*dst = v
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.HTTP.RequestTimeout <= 0 {
		cfg.HTTP.RequestTimeout = 30 * time.Second
	}
	if cfg.HTTP.ShutdownTimeout <= 0 {
		cfg.HTTP.ShutdownTimeout = 10 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)

	if cfg.Auth.TokenTTL <= 0 {
		cfg.Auth.TokenTTL = 24 * time.Hour
	}
	if cfg.Auth.LoginRateLimit <= 0 {
		cfg.Auth.LoginRateLimit = 10
	}
	if cfg.Auth.BcryptCost <= 0 {
		cfg.Auth.BcryptCost = 12
	}

	if cfg.Paymob.BaseURL == "" {
		cfg.Paymob.BaseURL = "https://accept.paymob.com/api"
	}
	if cfg.Paymob.Timeout <= 0 {
		cfg.Paymob.Timeout = 15 * time.Second
	}
	if cfg.Paymob.RetryBackoff <= 0 {
		cfg.Paymob.RetryBackoff = 500 * time.Millisecond
	}
	if cfg.Paymob.KeyExpiration <= 0 {
		cfg.Paymob.KeyExpiration = 3600
	}

	if cfg.Tickets.ValidFor <= 0 {
		cfg.Tickets.ValidFor = 2 * time.Hour
	}

	if cfg.Workers.SweepInterval <= 0 {
		cfg.Workers.SweepInterval = time.Minute
	}
	if cfg.Workers.SweepStaleAfter <= 0 {
		cfg.Workers.SweepStaleAfter = 10 * time.Minute
	}
	if cfg.Workers.PaymentExpiry <= 0 {
		cfg.Workers.PaymentExpiry = time.Duration(cfg.Paymob.KeyExpiration)*time.Second + 15*time.Minute
	}
	if cfg.Workers.ExpiryInterval <= 0 {
		cfg.Workers.ExpiryInterval = 5 * time.Minute
	}
	if cfg.Workers.BatchSize <= 0 {
		cfg.Workers.BatchSize = 100
	}
}

// Minimal validation
func (cfg *Config) validate() error {
	if cfg.Database.URL == "" {
		return errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return errors.New("redis.url is required")
	}
	if cfg.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is required")
	}
	// A ticket must outlive the checkout key that pays for it.
	if key := time.Duration(cfg.Paymob.KeyExpiration) * time.Second; cfg.Tickets.ValidFor <= key {
		return fmt.Errorf("tickets.valid_for (%s) must exceed paymob.key_expiration (%s)", cfg.Tickets.ValidFor, key)
	}
	if cfg.Runtime.Dev {
		return nil
	}
	if cfg.Paymob.APIKey == "" || cfg.Paymob.HMACSecret == "" {
		return errors.New("paymob.api_key and paymob.hmac_secret are required")
	}
	if cfg.Paymob.IntegrationID == 0 || cfg.Paymob.IframeID == 0 {
		return errors.New("paymob.integration_id and paymob.iframe_id are required")
	}
	return nil
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
