package config

const (
	EnvPrefix = "EMLAKHUB"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	DBDriverPostgres = "postgres"
	DBDriverSQLite   = "sqlite"

	EnvAppEnv    = "EMLAKHUB_APP_ENV"
	EnvPort      = "EMLAKHUB_APP_PORT"
	EnvDBDSN     = "EMLAKHUB_DB_DSN"
	EnvDBDriver  = "EMLAKHUB_DB_DRIVER"
	EnvDBHost    = "EMLAKHUB_DB_HOST"
	EnvDBUser    = "EMLAKHUB_DB_USER"
	EnvDBName    = "EMLAKHUB_DB_NAME"
	EnvRedisURL  = "EMLAKHUB_REDIS_URL"
	EnvJWTSecret = "EMLAKHUB_JWT_SECRET"
	EnvJWTIssuer = "EMLAKHUB_JWT_ISSUER"

	EnvCORSAllowedOrigins    = "EMLAKHUB_CORS_ALLOWED_ORIGINS"
	EnvActivityQueueSize     = "EMLAKHUB_ACTIVITY_QUEUE_SIZE"
	EnvPubSubDomainTopic     = "EMLAKHUB_PUBSUB_DOMAIN_TOPIC"
	EnvPubSubDomainSub       = "EMLAKHUB_PUBSUB_DOMAIN_SUBSCRIPTION"
	EnvListingsViewDedupeTTL = "EMLAKHUB_LISTINGS_VIEW_DEDUPE_TTL"
)

// legacyDBEnvVars must all be set when EMLAKHUB_DB_DSN is absent.
var legacyDBEnvVars = []string{
	EnvDBHost,
	EnvDBUser,
	EnvDBName,
}
