package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Orders        OrdersConfig
	GCP           GCPConfig
	GCS           GCSConfig
	Upload        UploadConfig
	PubSub        PubSubConfig
	Outbox        OutboxConfig
	Cron          CronConfig
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
	Env                string        `envconfig:"FARMFRESH_APP_ENV" required:"true"`
	Port               string        `envconfig:"FARMFRESH_APP_PORT" required:"true"`
	LogLevel           string        `envconfig:"FARMFRESH_LOG_LEVEL" default:"info"`
	LogWarnStack       bool          `envconfig:"FARMFRESH_LOG_WARN_STACK" default:"false"`
	ShutdownTimeout    time.Duration `envconfig:"FARMFRESH_SHUTDOWN_TIMEOUT" default:"15s"`
	CORSAllowedOrigins []string      `envconfig:"FARMFRESH_CORS_ALLOWED_ORIGINS" default:"*"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type DBConfig struct {
	DSN    string `envconfig:"FARMFRESH_DB_DSN"`
	Driver string `envconfig:"FARMFRESH_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FARMFRESH_DB_HOST"`
	LegacyPort     int    `envconfig:"FARMFRESH_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FARMFRESH_DB_USER"`
	LegacyPassword string `envconfig:"FARMFRESH_DB_PASSWORD"`
	LegacyName     string `envconfig:"FARMFRESH_DB_NAME"`
	LegacySSLMode  string `envconfig:"FARMFRESH_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FARMFRESH_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FARMFRESH_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FARMFRESH_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FARMFRESH_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the configured driver is the embedded sqlite engine.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"FARMFRESH_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FARMFRESH_REDIS_ADDR"`
	Password     string        `envconfig:"FARMFRESH_REDIS_PASSWORD"`
	DB           int           `envconfig:"FARMFRESH_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FARMFRESH_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FARMFRESH_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FARMFRESH_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FARMFRESH_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FARMFRESH_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"FARMFRESH_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"FARMFRESH_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"FARMFRESH_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"FARMFRESH_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// AccessTokenTTL returns the access token lifetime.
func (j JWTConfig) AccessTokenTTL() time.Duration {
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"FARMFRESH_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"FARMFRESH_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"FARMFRESH_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"FARMFRESH_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"FARMFRESH_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"FARMFRESH_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"FARMFRESH_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"FARMFRESH_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"FARMFRESH_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"FARMFRESH_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"FARMFRESH_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"FARMFRESH_AUTO_MIGRATE" default:"false"`
}

type OrdersConfig struct {
	IdempotencyTTL time.Duration `envconfig:"FARMFRESH_ORDERS_IDEMPOTENCY_TTL" default:"24h"`
	// PlaceLimit caps order placements per customer per PlaceWindow. Zero disables.
	PlaceLimit  int           `envconfig:"FARMFRESH_ORDERS_PLACE_LIMIT" default:"10"`
	PlaceWindow time.Duration `envconfig:"FARMFRESH_ORDERS_PLACE_WINDOW" default:"1m"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"FARMFRESH_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"FARMFRESH_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"FARMFRESH_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName    string `envconfig:"FARMFRESH_GCS_BUCKET_NAME"`
	PublicBaseURL string `envconfig:"FARMFRESH_GCS_PUBLIC_BASE_URL" default:"https://storage.googleapis.com"`
}

// Enabled reports whether uploads have a bucket to write to.
func (g GCSConfig) Enabled() bool {
	return strings.TrimSpace(g.BucketName) != ""
}

type UploadConfig struct {
	MaxUploadMB int `envconfig:"FARMFRESH_UPLOAD_MAX_MB" default:"10"`
}

// MaxBytes returns the upload size cap in bytes.
func (u UploadConfig) MaxBytes() int64 {
	if u.MaxUploadMB <= 0 {
		return 10 << 20
	}
	return int64(u.MaxUploadMB) << 20
}

type PubSubConfig struct {
	OrdersTopic string `envconfig:"FARMFRESH_PUBSUB_ORDERS_TOPIC" default:"farmfresh-order-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"FARMFRESH_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"FARMFRESH_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"FARMFRESH_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type CronConfig struct {
	Interval            time.Duration `envconfig:"FARMFRESH_CRON_INTERVAL" default:"24h"`
	OutboxRetentionDays int           `envconfig:"FARMFRESH_CRON_OUTBOX_RETENTION_DAYS" default:"30"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if db.IsSQLite() {
		return fmt.Errorf("%s is required for the sqlite driver", EnvDBDSN)
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
