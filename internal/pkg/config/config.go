// Package config loads the typed application configuration once at startup.
// Values come from the process environment overlaid with the .env file read
// by internal/pkg/env.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	cenv "github.com/caarlos0/env/v11"

	"github.com/ManuelReschke/LaunchPad/internal/pkg/entitlements"
	"github.com/ManuelReschke/LaunchPad/internal/pkg/env"
)

const (
	TierPolicyOverwrite = "overwrite"
	TierPolicyHighest   = "highest"

	RateLimitBackendDB    = "db"
	RateLimitBackendRedis = "redis"
)

type Config struct {
	App      AppConfig      `envPrefix:"APP_"`
	DB       DBConfig       `envPrefix:"DB_"`
	Cache    CacheConfig    `envPrefix:"CACHE_"`
	Stripe   StripeConfig   `envPrefix:"STRIPE_"`
	Firebase FirebaseConfig `envPrefix:"FIREBASE_"`
	LLM      LLMConfig      `envPrefix:"LLM_"`
	Export   ExportConfig   `envPrefix:"S3_"`
	Metrics  MetricsConfig  `envPrefix:"METRICS_"`

	RateLimitBackend string `env:"RATE_LIMIT_BACKEND" envDefault:"db"`
	TierUpdatePolicy string `env:"TIER_UPDATE_POLICY" envDefault:"overwrite"`
}

type AppConfig struct {
	Env        string        `env:"ENV" envDefault:"prod"`
	Host       string        `env:"HOST" envDefault:"localhost"`
	Port       string        `env:"PORT" envDefault:"4000"`
	PublicURL  string        `env:"PUBLIC_URL" envDefault:"http://localhost:4000"`
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"120h"`
}

type DBConfig struct {
	User     string `env:"USER"`
	Password string `env:"PASSWORD"`
	Host     string `env:"HOST" envDefault:"127.0.0.1"`
	Port     string `env:"PORT" envDefault:"3306"`
	Name     string `env:"NAME"`
}

// DSN returns the go-sql-driver/mysql data source name.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		c.User, c.Password, c.Host, c.Port, c.Name)
}

// MigrateURL returns the golang-migrate database URL.
func (c DBConfig) MigrateURL() string {
	return fmt.Sprintf("mysql://%s:%s@tcp(%s:%s)/%s?multiStatements=true",
		c.User, c.Password, c.Host, c.Port, c.Name)
}

type CacheConfig struct {
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     string `env:"PORT" envDefault:"6379"`
	Password string `env:"PASSWORD"`
}

func (c CacheConfig) Addr() string {
	return c.Host + ":" + c.Port
}

type StripeConfig struct {
	SecretKey      string `env:"SECRET_KEY"`
	WebhookSecret  string `env:"WEBHOOK_SECRET"`
	PriceSOP       string `env:"PRICE_SOP"`
	PriceCAIO      string `env:"PRICE_CAIO"`
	PriceLaunchpad string `env:"PRICE_LAUNCHPAD"`
	PriceOrderBump string `env:"PRICE_ORDER_BUMP"`
}

// PriceTiers maps every configured Stripe price id to the tier it grants.
// The order bump is an add-on to the SOP bundle and grants nothing beyond it.
func (c StripeConfig) PriceTiers() map[string]entitlements.Tier {
	out := map[string]entitlements.Tier{}
	add := func(price string, tier entitlements.Tier) {
		if p := strings.TrimSpace(price); p != "" {
			out[p] = tier
		}
	}
	add(c.PriceSOP, entitlements.TierSOP)
	add(c.PriceCAIO, entitlements.TierCAIO)
	add(c.PriceLaunchpad, entitlements.TierLaunchpad)
	add(c.PriceOrderBump, entitlements.TierSOP)
	return out
}

var (
	ErrStripeNotConfigured  = errors.New("STRIPE_SECRET_KEY is not set")
	ErrWebhookNotConfigured = errors.New("STRIPE_WEBHOOK_SECRET is not set")
	ErrPricesNotConfigured  = errors.New("no STRIPE_PRICE_* values are set")
)

// CheckoutReady reports whether checkout sessions can be created.
func (c StripeConfig) CheckoutReady() error {
	if strings.TrimSpace(c.SecretKey) == "" {
		return ErrStripeNotConfigured
	}
	if c.PriceSOP == "" && c.PriceCAIO == "" && c.PriceLaunchpad == "" {
		return ErrPricesNotConfigured
	}
	return nil
}

// WebhookReady reports whether webhook deliveries can be verified.
func (c StripeConfig) WebhookReady() error {
	if strings.TrimSpace(c.WebhookSecret) == "" {
		return ErrWebhookNotConfigured
	}
	return nil
}

type FirebaseConfig struct {
	ProjectID string `env:"PROJECT_ID"`
}

func (c FirebaseConfig) Issuer() string {
	return "https://securetoken.google.com/" + c.ProjectID
}

type LLMConfig struct {
	APIKey  string        `env:"API_KEY"`
	BaseURL string        `env:"BASE_URL" envDefault:"https://api.openai.com/v1"`
	Model   string        `env:"MODEL" envDefault:"gpt-4o-mini"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"60s"`
}

type ExportConfig struct {
	Enabled         bool   `env:"EXPORT_ENABLED" envDefault:"false"`
	AccessKeyID     string `env:"ACCESS_KEY_ID"`
	SecretAccessKey string `env:"SECRET_ACCESS_KEY"`
	Region          string `env:"REGION" envDefault:"us-east-1"`
	BucketName      string `env:"BUCKET_NAME"`
	EndpointURL     string `env:"ENDPOINT_URL"`
}

type MetricsConfig struct {
	User     string `env:"USER" envDefault:"admin"`
	Password string `env:"PASSWORD"`
}

func (c *Config) IsDev() bool {
	return c.App.Env == "dev"
}

// Validate rejects values that would make the process misbehave silently.
// Missing Stripe or LLM secrets are not errors here; the dependent
// endpoints report them at request time.
func (c *Config) Validate() error {
	switch c.TierUpdatePolicy {
	case TierPolicyOverwrite, TierPolicyHighest:
	default:
		return fmt.Errorf("TIER_UPDATE_POLICY must be %q or %q, got %q", TierPolicyOverwrite, TierPolicyHighest, c.TierUpdatePolicy)
	}
	switch c.RateLimitBackend {
	case RateLimitBackendDB, RateLimitBackendRedis:
	default:
		return fmt.Errorf("RATE_LIMIT_BACKEND must be %q or %q, got %q", RateLimitBackendDB, RateLimitBackendRedis, c.RateLimitBackend)
	}
	if c.Export.Enabled {
		if c.Export.AccessKeyID == "" || c.Export.SecretAccessKey == "" || c.Export.BucketName == "" {
			return errors.New("S3_ACCESS_KEY_ID, S3_SECRET_ACCESS_KEY and S3_BUCKET_NAME are required when S3_EXPORT_ENABLED=true")
		}
	}
	if c.LLM.Timeout <= 0 {
		return errors.New("LLM_TIMEOUT must be positive")
	}
	return nil
}

// LoadFromMap parses and validates a config from an explicit environment.
func LoadFromMap(environment map[string]string) (*Config, error) {
	var cfg Config
	if err := cenv.ParseWithOptions(&cfg, cenv.Options{Environment: environment}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load reads the .env file (if any) and the process environment.
func Load() (*Config, error) {
	env.SetupEnvFile()
	return LoadFromMap(env.Merged())
}
