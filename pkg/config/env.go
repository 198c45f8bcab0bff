package config

// EnvPrefix namespaces every variable read by Load.
const EnvPrefix = "FARMFRESH"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "FARMFRESH_APP_ENV"
	EnvPort     = "FARMFRESH_APP_PORT"
	EnvLogLevel = "FARMFRESH_LOG_LEVEL"

	EnvDBDSN      = "FARMFRESH_DB_DSN"
	EnvDBDriver   = "FARMFRESH_DB_DRIVER"
	EnvDBHost     = "FARMFRESH_DB_HOST"
	EnvDBPort     = "FARMFRESH_DB_PORT"
	EnvDBUser     = "FARMFRESH_DB_USER"
	EnvDBPassword = "FARMFRESH_DB_PASSWORD"
	EnvDBName     = "FARMFRESH_DB_NAME"

	EnvRedisURL = "FARMFRESH_REDIS_URL"

	EnvJWTSecret               = "FARMFRESH_JWT_SECRET"
	EnvJWTIssuer               = "FARMFRESH_JWT_ISSUER"
	EnvJWTExpMins              = "FARMFRESH_JWT_EXPIRATION_MINUTES"
	EnvRefreshTokenTTLMinutes  = "FARMFRESH_REFRESH_TOKEN_TTL_MINUTES"
	EnvAutoMigrate             = "FARMFRESH_AUTO_MIGRATE"
	EnvGCPProjectID            = "FARMFRESH_GCP_PROJECT_ID"
	EnvGCSBucket               = "FARMFRESH_GCS_BUCKET_NAME"
	EnvGCSPublicBaseURL        = "FARMFRESH_GCS_PUBLIC_BASE_URL"
	EnvPubSubOrdersTopic       = "FARMFRESH_PUBSUB_ORDERS_TOPIC"
	EnvOrdersIdempotencyTTL    = "FARMFRESH_ORDERS_IDEMPOTENCY_TTL"
	EnvOrdersPlaceLimit        = "FARMFRESH_ORDERS_PLACE_LIMIT"
	EnvOrdersPlaceWindow       = "FARMFRESH_ORDERS_PLACE_WINDOW"
	EnvCORSAllowedOrigins      = "FARMFRESH_CORS_ALLOWED_ORIGINS"
	EnvUploadMaxMB             = "FARMFRESH_UPLOAD_MAX_MB"
	EnvOutboxPublishBatchSize  = "FARMFRESH_OUTBOX_PUBLISH_BATCH_SIZE"
	EnvOutboxPublishPollMillis = "FARMFRESH_OUTBOX_PUBLISH_POLL_MS"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
