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
	Password     PasswordConfig
	Mpesa        MpesaConfig
	Orders       OrdersConfig
	Webhooks     WebhooksConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"SOKOHUB_APP_ENV" required:"true"`
	Port         string `envconfig:"SOKOHUB_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SOKOHUB_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SOKOHUB_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SOKOHUB_DB_DSN"`
	Driver string `envconfig:"SOKOHUB_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SOKOHUB_DB_HOST"`
	LegacyPort     int    `envconfig:"SOKOHUB_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SOKOHUB_DB_USER"`
	LegacyPassword string `envconfig:"SOKOHUB_DB_PASSWORD"`
	LegacyName     string `envconfig:"SOKOHUB_DB_NAME"`
	LegacySSLMode  string `envconfig:"SOKOHUB_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SOKOHUB_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SOKOHUB_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SOKOHUB_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SOKOHUB_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SOKOHUB_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SOKOHUB_REDIS_ADDR"`
	Password     string        `envconfig:"SOKOHUB_REDIS_PASSWORD"`
	DB           int           `envconfig:"SOKOHUB_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SOKOHUB_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SOKOHUB_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SOKOHUB_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SOKOHUB_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SOKOHUB_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"SOKOHUB_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SOKOHUB_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"SOKOHUB_JWT_EXPIRATION_MINUTES" required:"true"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"SOKOHUB_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"SOKOHUB_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"SOKOHUB_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"SOKOHUB_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"SOKOHUB_ARGON_KEY_LEN" default:"32"`
}

type MpesaConfig struct {
	ConsumerKey       string        `envconfig:"SOKOHUB_MPESA_CONSUMER_KEY"`
	ConsumerSecret    string        `envconfig:"SOKOHUB_MPESA_CONSUMER_SECRET"`
	BusinessShortcode string        `envconfig:"SOKOHUB_MPESA_SHORTCODE" default:"174379"`
	Passkey           string        `envconfig:"SOKOHUB_MPESA_PASSKEY"`
	CallbackURL       string        `envconfig:"SOKOHUB_MPESA_CALLBACK_URL"`
	Env               string        `envconfig:"SOKOHUB_MPESA_ENV" default:"sandbox"`
	HTTPTimeout       time.Duration `envconfig:"SOKOHUB_MPESA_HTTP_TIMEOUT" default:"30s"`
}

// Environment returns the normalized Daraja environment (sandbox/production).
func (m MpesaConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(m.Env))
	if env == "" {
		return "sandbox"
	}
	return env
}

type OrdersConfig struct {
	PlacementRetryAttempts int           `envconfig:"SOKOHUB_ORDER_PLACEMENT_RETRY_ATTEMPTS" default:"3"`
	PlacementRetryBackoff  time.Duration `envconfig:"SOKOHUB_ORDER_PLACEMENT_RETRY_BACKOFF" default:"25ms"`
}

type WebhooksConfig struct {
	CallbackIdempotencyTTL time.Duration `envconfig:"SOKOHUB_WEBHOOK_IDEMPOTENCY_TTL" default:"72h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SOKOHUB_AUTO_MIGRATE" default:"false"`
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
