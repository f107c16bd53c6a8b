package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	Currency     CurrencyConfig
	Payment      PaymentConfig
	Stripe       StripeConfig
	Square       SquareConfig
	Checkout     CheckoutConfig
	RateLimit    RateLimitConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	BigQuery     BigQueryConfig
	Outbox       OutboxConfig
	Email        EmailConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.FeatureFlags.applySQLiteOverride(&cfg.DB)
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Payment.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SIMRYO_APP_ENV" required:"true"`
	Port         string `envconfig:"SIMRYO_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SIMRYO_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SIMRYO_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SIMRYO_DB_DSN"`
	Driver string `envconfig:"SIMRYO_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SIMRYO_DB_HOST"`
	LegacyPort     int    `envconfig:"SIMRYO_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SIMRYO_DB_USER"`
	LegacyPassword string `envconfig:"SIMRYO_DB_PASSWORD"`
	LegacyName     string `envconfig:"SIMRYO_DB_NAME"`
	LegacySSLMode  string `envconfig:"SIMRYO_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SIMRYO_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SIMRYO_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SIMRYO_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SIMRYO_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SIMRYO_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SIMRYO_REDIS_ADDR"`
	Password     string        `envconfig:"SIMRYO_REDIS_PASSWORD"`
	DB           int           `envconfig:"SIMRYO_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SIMRYO_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SIMRYO_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SIMRYO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SIMRYO_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SIMRYO_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"SIMRYO_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SIMRYO_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"SIMRYO_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"SIMRYO_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"SIMRYO_AUTO_MIGRATE" default:"false"`
}

// applySQLiteOverride switches the database config to the embedded sqlite
// driver for local development, so no postgres credentials are needed.
func (f FeatureFlagsConfig) applySQLiteOverride(db *DBConfig) {
	if !f.UseSQLite {
		return
	}
	db.Driver = "sqlite"
	if db.DSN == "" {
		db.DSN = "file:simryo.db?cache=shared"
	}
}

// CurrencyConfig carries the static conversion rates used by the currency
// helper. Plan prices are canonically EUR; settlement happens in USD.
type CurrencyConfig struct {
	EURToUSD string `envconfig:"SIMRYO_CURRENCY_EUR_TO_USD" default:"1.087"`
}

type PaymentConfig struct {
	Provider string `envconfig:"SIMRYO_PAYMENT_PROVIDER" default:"stripe"`
}

func (p PaymentConfig) validate() error {
	switch p.NormalizedProvider() {
	case PaymentProviderStripe, PaymentProviderSquare:
		return nil
	default:
		return fmt.Errorf("payment provider must be %q or %q", PaymentProviderStripe, PaymentProviderSquare)
	}
}

// NormalizedProvider returns the lowercased provider name, defaulting to stripe.
func (p PaymentConfig) NormalizedProvider() string {
	provider := strings.TrimSpace(strings.ToLower(p.Provider))
	if provider == "" {
		return PaymentProviderStripe
	}
	return provider
}

type StripeConfig struct {
	APIKey string `envconfig:"SIMRYO_STRIPE_API_KEY"`
	Env    string `envconfig:"SIMRYO_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

type SquareConfig struct {
	AccessToken string `envconfig:"SIMRYO_SQUARE_ACCESS_TOKEN"`
	LocationID  string `envconfig:"SIMRYO_SQUARE_LOCATION_ID"`
	Env         string `envconfig:"SIMRYO_SQUARE_ENV" default:"sandbox"`
}

// Environment returns the normalized Square environment (sandbox/production).
func (s SquareConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "sandbox"
	}
	return env
}

type CheckoutConfig struct {
	SessionTTL        time.Duration `envconfig:"SIMRYO_CHECKOUT_SESSION_TTL" default:"30m"`
	CartTTL           time.Duration `envconfig:"SIMRYO_CART_TTL" default:"720h"`
	CartSweepInterval time.Duration `envconfig:"SIMRYO_CART_SWEEP_INTERVAL" default:"5m"`
}

type RateLimitConfig struct {
	CheckoutWindow time.Duration `envconfig:"SIMRYO_CHECKOUT_RATE_WINDOW" default:"1m"`
	CheckoutLimit  int           `envconfig:"SIMRYO_CHECKOUT_RATE_LIMIT" default:"10"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"SIMRYO_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"SIMRYO_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"SIMRYO_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic        string `envconfig:"SIMRYO_PUBSUB_ORDERS_TOPIC" required:"true"`
	OrdersSubscription string `envconfig:"SIMRYO_PUBSUB_ORDERS_SUBSCRIPTION" required:"true"`
}

type BigQueryConfig struct {
	Dataset               string `envconfig:"SIMRYO_BIGQUERY_DATASET" default:"simryo"`
	StorefrontEventsTable string `envconfig:"SIMRYO_BIGQUERY_STOREFRONT_TABLE" default:"storefront_events"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"SIMRYO_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"SIMRYO_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"SIMRYO_OUTBOX_MAX_ATTEMPTS" default:"10"`
	IdempotencyTTL time.Duration `envconfig:"SIMRYO_OUTBOX_IDEMPOTENCY_TTL" default:"168h"`
}

type EmailConfig struct {
	FromAddress string `envconfig:"SIMRYO_EMAIL_FROM" default:"support@simryo.com"`
	FromName    string `envconfig:"SIMRYO_EMAIL_FROM_NAME" default:"SIMRYO"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
