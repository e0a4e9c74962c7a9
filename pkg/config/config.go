package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix scopes every environment variable consumed by the storefront.
const EnvPrefix = "BOUTIQUE"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

// Environment variable names referenced from code and tests.
const (
	EnvAppEnv     = "BOUTIQUE_APP_ENV"
	EnvPort       = "BOUTIQUE_APP_PORT"
	EnvDBDSN      = "BOUTIQUE_DB_DSN"
	EnvDBHost     = "BOUTIQUE_DB_HOST"
	EnvDBUser     = "BOUTIQUE_DB_USER"
	EnvDBName     = "BOUTIQUE_DB_NAME"
	EnvUseSQLite  = "BOUTIQUE_USE_SQLITE"
	EnvRedisURL   = "BOUTIQUE_REDIS_URL"
	EnvJWTSecret  = "BOUTIQUE_JWT_SECRET"
	EnvJWTIssuer  = "BOUTIQUE_JWT_ISSUER"
	EnvJWTExpMins = "BOUTIQUE_JWT_EXPIRATION_MINUTES"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	Payment      PaymentConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.FeatureFlags.UseSQLite {
		return &cfg, nil
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"BOUTIQUE_APP_ENV" required:"true"`
	Port         string `envconfig:"BOUTIQUE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BOUTIQUE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BOUTIQUE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN string `envconfig:"BOUTIQUE_DB_DSN"`

	LegacyHost     string `envconfig:"BOUTIQUE_DB_HOST"`
	LegacyPort     int    `envconfig:"BOUTIQUE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BOUTIQUE_DB_USER"`
	LegacyPassword string `envconfig:"BOUTIQUE_DB_PASSWORD"`
	LegacyName     string `envconfig:"BOUTIQUE_DB_NAME"`
	LegacySSLMode  string `envconfig:"BOUTIQUE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BOUTIQUE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BOUTIQUE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BOUTIQUE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BOUTIQUE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BOUTIQUE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"BOUTIQUE_REDIS_ADDR"`
	Password     string        `envconfig:"BOUTIQUE_REDIS_PASSWORD"`
	DB           int           `envconfig:"BOUTIQUE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BOUTIQUE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BOUTIQUE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BOUTIQUE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BOUTIQUE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BOUTIQUE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"BOUTIQUE_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"BOUTIQUE_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"BOUTIQUE_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"BOUTIQUE_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"BOUTIQUE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"BOUTIQUE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"BOUTIQUE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"BOUTIQUE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"BOUTIQUE_ARGON_KEY_LEN" default:"32"`
}

// PaymentConfig tunes the card authorizer boundary. ChargeTimeout bounds the
// synchronous gateway call; an expired deadline reads as a decline.
type PaymentConfig struct {
	Provider      string        `envconfig:"BOUTIQUE_PAYMENT_PROVIDER" default:"mock-cb"`
	ChargeTimeout time.Duration `envconfig:"BOUTIQUE_PAYMENT_CHARGE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"BOUTIQUE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"BOUTIQUE_AUTO_MIGRATE" default:"false"`
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
