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
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	CORS         CORSConfig
	RateLimit    RateLimitConfig
	Listings     ListingsConfig
	Activity     ActivityConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Retention    RetentionConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"EMLAKHUB_APP_ENV" required:"true"`
	Port         string `envconfig:"EMLAKHUB_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"EMLAKHUB_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"EMLAKHUB_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type ServiceConfig struct {
	Kind string `envconfig:"EMLAKHUB_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"EMLAKHUB_DB_DSN"`
	Driver string `envconfig:"EMLAKHUB_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"EMLAKHUB_DB_HOST"`
	LegacyPort     int    `envconfig:"EMLAKHUB_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"EMLAKHUB_DB_USER"`
	LegacyPassword string `envconfig:"EMLAKHUB_DB_PASSWORD"`
	LegacyName     string `envconfig:"EMLAKHUB_DB_NAME"`
	LegacySSLMode  string `envconfig:"EMLAKHUB_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"EMLAKHUB_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"EMLAKHUB_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"EMLAKHUB_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"EMLAKHUB_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the configured driver is the embedded sqlite driver.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DBDriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"EMLAKHUB_REDIS_URL" required:"true"`
	Address      string        `envconfig:"EMLAKHUB_REDIS_ADDR"`
	Password     string        `envconfig:"EMLAKHUB_REDIS_PASSWORD"`
	DB           int           `envconfig:"EMLAKHUB_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"EMLAKHUB_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"EMLAKHUB_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"EMLAKHUB_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"EMLAKHUB_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"EMLAKHUB_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig verifies access tokens minted by the identity provider.
type JWTConfig struct {
	Secret            string `envconfig:"EMLAKHUB_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"EMLAKHUB_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"EMLAKHUB_JWT_EXPIRATION_MINUTES" default:"60"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"EMLAKHUB_CORS_ALLOWED_ORIGINS" default:"*"`
	MaxAgeSeconds  int      `envconfig:"EMLAKHUB_CORS_MAX_AGE_SECONDS" default:"300"`
}

type RateLimitConfig struct {
	ReportWindow      time.Duration `envconfig:"EMLAKHUB_RATE_LIMIT_REPORT_WINDOW" default:"1h"`
	ReportUserLimit   int           `envconfig:"EMLAKHUB_RATE_LIMIT_REPORT_USER_LIMIT" default:"10"`
	ReportIPLimit     int           `envconfig:"EMLAKHUB_RATE_LIMIT_REPORT_IP_LIMIT" default:"30"`
	ContactWindow     time.Duration `envconfig:"EMLAKHUB_RATE_LIMIT_CONTACT_WINDOW" default:"10m"`
	ContactEmailLimit int           `envconfig:"EMLAKHUB_RATE_LIMIT_CONTACT_EMAIL_LIMIT" default:"3"`
	ContactIPLimit    int           `envconfig:"EMLAKHUB_RATE_LIMIT_CONTACT_IP_LIMIT" default:"10"`
}

type ListingsConfig struct {
	ViewDedupeTTL       time.Duration `envconfig:"EMLAKHUB_LISTINGS_VIEW_DEDUPE_TTL" default:"6h"`
	SuggestedLimit      int           `envconfig:"EMLAKHUB_LISTINGS_SUGGESTED_LIMIT" default:"6"`
	FeaturedLimit       int           `envconfig:"EMLAKHUB_LISTINGS_FEATURED_LIMIT" default:"12"`
	MaxImagesPerListing int           `envconfig:"EMLAKHUB_LISTINGS_MAX_IMAGES" default:"20"`
	RequireReview       bool          `envconfig:"EMLAKHUB_LISTINGS_REQUIRE_REVIEW" default:"false"`
}

// ActivityConfig sizes the asynchronous activity recorder.
type ActivityConfig struct {
	QueueSize    int           `envconfig:"EMLAKHUB_ACTIVITY_QUEUE_SIZE" default:"256"`
	Workers      int           `envconfig:"EMLAKHUB_ACTIVITY_WORKERS" default:"2"`
	WriteTimeout time.Duration `envconfig:"EMLAKHUB_ACTIVITY_WRITE_TIMEOUT" default:"5s"`
	DrainTimeout time.Duration `envconfig:"EMLAKHUB_ACTIVITY_DRAIN_TIMEOUT" default:"10s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"EMLAKHUB_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"EMLAKHUB_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"EMLAKHUB_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"EMLAKHUB_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"EMLAKHUB_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DomainTopic        string `envconfig:"EMLAKHUB_PUBSUB_DOMAIN_TOPIC" default:"emlakhub-domain-events"`
	DomainSubscription string `envconfig:"EMLAKHUB_PUBSUB_DOMAIN_SUBSCRIPTION" default:"emlakhub-domain-events-worker"`
}

// OutboxConfig tunes the outbox relay. PublishRate caps messages per second
// across every topic.
type OutboxConfig struct {
	BatchSize      int           `envconfig:"EMLAKHUB_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollInterval   time.Duration `envconfig:"EMLAKHUB_OUTBOX_PUBLISH_POLL" default:"500ms"`
	MaxBackoff     time.Duration `envconfig:"EMLAKHUB_OUTBOX_MAX_BACKOFF" default:"10s"`
	PublishTimeout time.Duration `envconfig:"EMLAKHUB_OUTBOX_PUBLISH_TIMEOUT" default:"15s"`
	PublishRate    float64       `envconfig:"EMLAKHUB_OUTBOX_PUBLISH_RATE" default:"100"`
	MaxAttempts    int           `envconfig:"EMLAKHUB_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

// RetentionConfig bounds how long published outbox rows and read notifications are kept.
type RetentionConfig struct {
	Interval          time.Duration `envconfig:"EMLAKHUB_RETENTION_INTERVAL" default:"1h"`
	OutboxPublished   time.Duration `envconfig:"EMLAKHUB_RETENTION_OUTBOX_PUBLISHED" default:"720h"`
	NotificationsRead time.Duration `envconfig:"EMLAKHUB_RETENTION_NOTIFICATIONS_READ" default:"2160h"`
	LockTTL           time.Duration `envconfig:"EMLAKHUB_RETENTION_LOCK_TTL" default:"10m"`
	JobTimeout        time.Duration `envconfig:"EMLAKHUB_RETENTION_JOB_TIMEOUT" default:"5m"`
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
