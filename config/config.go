package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	IdentityFirebase = "firebase"
	IdentityJWT      = "jwt"

	StoreFirestore = "firestore"
	StoreMongo     = "mongo"
	StoreMemory    = "memory"

	BindingsStore = "store"
	BindingsRedis = "redis"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config is read once at process start.
type Config struct {
	Port        string   `env:"PORT" envDefault:"8000"`
	Environment string   `env:"APP_ENV" envDefault:"development"`
	LogLevel    string   `env:"LOG_LEVEL" envDefault:"info"`
	BaseURL     string   `env:"BASE_URL"`
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`

	TrustedProxies []string `env:"TRUSTED_PROXIES" envSeparator:"," envDefault:"127.0.0.1,::1"`

	StripeSecretKey      string `env:"STRIPE_SECRET_KEY,required,notEmpty"`
	StripePublishableKey string `env:"STRIPE_PUBLISHABLE_KEY"`
	StripePriceID        string `env:"STRIPE_PRICE_ID,required,notEmpty"`
	StripeWebhookSecret  string `env:"STRIPE_WEBHOOK_SECRET"`

	IdentityProvider   string `env:"IDENTITY_PROVIDER" envDefault:"firebase"`
	FirebaseConfig     string `env:"FIREBASE_CONFIG"`
	FirebaseProjectID  string `env:"FIREBASE_PROJECT_ID"`
	FirebaseAPIKey     string `env:"FIREBASE_API_KEY"`
	FirebaseAuthDomain string `env:"FIREBASE_AUTH_DOMAIN"`
	JWTSecret          string `env:"JWT_SECRET"`
	JWTIssuer          string `env:"JWT_ISSUER"`

	StoreDriver   string `env:"STORE_DRIVER" envDefault:"firestore"`
	MongoURI      string `env:"MONGO_URI"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"subscriptions"`

	BindingStore       string        `env:"BINDING_STORE" envDefault:"store"`
	RedisURL           string        `env:"REDIS_URL"`
	CheckoutBindingTTL time.Duration `env:"CHECKOUT_BINDING_TTL" envDefault:"24h"`

	UpstreamTimeout time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"10s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
	InternalAPIKey  string        `env:"INTERNAL_API_KEY"`

	TemplatesDir string `env:"TEMPLATES_DIR" envDefault:"templates"`
	StaticDir    string `env:"STATIC_DIR" envDefault:"static"`
}

// Load reads an optional .env file and parses the environment into a Config.
func Load() (*Config, error) {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks driver names and the settings each driver depends on.
func (c *Config) Validate() error {
	switch c.IdentityProvider {
	case IdentityFirebase:
	case IdentityJWT:
		if c.JWTSecret == "" {
			return fmt.Errorf("%w: JWT_SECRET is required when IDENTITY_PROVIDER=jwt", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown IDENTITY_PROVIDER %q", ErrInvalidConfig, c.IdentityProvider)
	}

	switch c.StoreDriver {
	case StoreFirestore, StoreMemory:
	case StoreMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("%w: MONGO_URI is required when STORE_DRIVER=mongo", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown STORE_DRIVER %q", ErrInvalidConfig, c.StoreDriver)
	}

	switch c.BindingStore {
	case BindingsStore:
	case BindingsRedis:
		if c.RedisURL == "" {
			return fmt.Errorf("%w: REDIS_URL is required when BINDING_STORE=redis", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown BINDING_STORE %q", ErrInvalidConfig, c.BindingStore)
	}

	if c.UpstreamTimeout <= 0 {
		return fmt.Errorf("%w: UPSTREAM_TIMEOUT must be positive", ErrInvalidConfig)
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	return nil
}

// NeedsFirebase reports whether a Firebase app must be initialised.
func (c *Config) NeedsFirebase() bool {
	return c.IdentityProvider == IdentityFirebase || c.StoreDriver == StoreFirestore
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// PageContext is the public configuration handed to the HTML templates.
func (c *Config) PageContext() map[string]any {
	return map[string]any{
		"publishable_key":      c.StripePublishableKey,
		"firebase_api_key":     c.FirebaseAPIKey,
		"firebase_auth_domain": c.FirebaseAuthDomain,
		"firebase_project_id":  c.FirebaseProjectID,
	}
}
