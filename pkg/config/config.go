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
	FeatureFlags FeatureFlagsConfig
	Cep          CepConfig
	Functions    FunctionsConfig
	Cron         CronConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
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
	Env          string `envconfig:"CONSTRUPRO_APP_ENV" required:"true"`
	Port         string `envconfig:"CONSTRUPRO_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CONSTRUPRO_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CONSTRUPRO_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"CONSTRUPRO_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"CONSTRUPRO_DB_DSN"`
	Driver string `envconfig:"CONSTRUPRO_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CONSTRUPRO_DB_HOST"`
	LegacyPort     int    `envconfig:"CONSTRUPRO_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CONSTRUPRO_DB_USER"`
	LegacyPassword string `envconfig:"CONSTRUPRO_DB_PASSWORD"`
	LegacyName     string `envconfig:"CONSTRUPRO_DB_NAME"`
	LegacySSLMode  string `envconfig:"CONSTRUPRO_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CONSTRUPRO_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CONSTRUPRO_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CONSTRUPRO_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CONSTRUPRO_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CONSTRUPRO_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CONSTRUPRO_REDIS_ADDR"`
	Password     string        `envconfig:"CONSTRUPRO_REDIS_PASSWORD"`
	DB           int           `envconfig:"CONSTRUPRO_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CONSTRUPRO_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CONSTRUPRO_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CONSTRUPRO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CONSTRUPRO_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CONSTRUPRO_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig verifies tokens issued by the platform auth module. This service
// never issues tokens itself.
type JWTConfig struct {
	Secret string `envconfig:"CONSTRUPRO_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"CONSTRUPRO_JWT_ISSUER" required:"true"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"CONSTRUPRO_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"CONSTRUPRO_AUTO_MIGRATE" default:"false"`
}

// CepConfig tunes the postal-code resolution subsystem.
type CepConfig struct {
	ViaCepBaseURL    string        `envconfig:"CONSTRUPRO_CEP_VIACEP_BASE_URL" default:"https://viacep.com.br/ws"`
	BrasilAPIBaseURL string        `envconfig:"CONSTRUPRO_CEP_BRASILAPI_BASE_URL" default:"https://brasilapi.com.br/api/cep/v1"`
	LookupTimeout    time.Duration `envconfig:"CONSTRUPRO_CEP_LOOKUP_TIMEOUT" default:"10s"`
	CacheTTL         time.Duration `envconfig:"CONSTRUPRO_CEP_CACHE_TTL" default:"24h"`
	WarmCodes        []string      `envconfig:"CONSTRUPRO_CEP_WARM_CODES"`
	WarmThrottle     time.Duration `envconfig:"CONSTRUPRO_CEP_WARM_THROTTLE" default:"500ms"`
	MaxSuggestions   int           `envconfig:"CONSTRUPRO_CEP_MAX_SUGGESTIONS" default:"5"`
}

// FunctionsConfig points at the serverless functions this service calls as
// opaque collaborators.
type FunctionsConfig struct {
	BaseURL              string        `envconfig:"CONSTRUPRO_FUNCTIONS_BASE_URL"`
	CouponValidatePath   string        `envconfig:"CONSTRUPRO_FUNCTIONS_COUPON_VALIDATE_PATH" default:"/validate-coupon"`
	RestrictionCheckPath string        `envconfig:"CONSTRUPRO_FUNCTIONS_RESTRICTION_CHECK_PATH" default:"/check-delivery-restriction"`
	PointsAdjustPath     string        `envconfig:"CONSTRUPRO_FUNCTIONS_POINTS_ADJUST_PATH" default:"/adjust-points"`
	InvokeTimeout        time.Duration `envconfig:"CONSTRUPRO_FUNCTIONS_INVOKE_TIMEOUT" default:"10s"`
}

type CronConfig struct {
	Interval             time.Duration `envconfig:"CONSTRUPRO_CRON_INTERVAL" default:"30s"`
	CartStaleAfter       time.Duration `envconfig:"CONSTRUPRO_CRON_CART_STALE_AFTER" default:"30m"`
	RevalidationBatch    int           `envconfig:"CONSTRUPRO_CRON_REVALIDATION_BATCH" default:"100"`
	CepCachePruneEnabled bool          `envconfig:"CONSTRUPRO_CRON_CEP_PRUNE_ENABLED" default:"true"`
}

type GCPConfig struct {
	ProjectID       string `envconfig:"CONSTRUPRO_GCP_PROJECT_ID"`
	CredentialsJSON string `envconfig:"CONSTRUPRO_GCP_CREDENTIALS_JSON"`
}

type PubSubConfig struct {
	OrdersTopic string `envconfig:"CONSTRUPRO_PUBSUB_ORDERS_TOPIC" default:"cp-order-events"`
	PointsTopic string `envconfig:"CONSTRUPRO_PUBSUB_POINTS_TOPIC" default:"cp-points-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"CONSTRUPRO_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"CONSTRUPRO_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"CONSTRUPRO_OUTBOX_MAX_ATTEMPTS" default:"10"`
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
