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
	Booking      BookingConfig
	Idempotency  IdempotencyConfig
	RateLimit    RateLimitConfig
	Cron         CronConfig
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
	Env          string `envconfig:"BRIGHTSTAY_APP_ENV" required:"true"`
	Port         string `envconfig:"BRIGHTSTAY_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BRIGHTSTAY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BRIGHTSTAY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"BRIGHTSTAY_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"BRIGHTSTAY_DB_DSN"`
	Driver string `envconfig:"BRIGHTSTAY_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"BRIGHTSTAY_DB_HOST"`
	Port     int    `envconfig:"BRIGHTSTAY_DB_PORT" default:"5432"`
	User     string `envconfig:"BRIGHTSTAY_DB_USER"`
	Password string `envconfig:"BRIGHTSTAY_DB_PASSWORD"`
	Name     string `envconfig:"BRIGHTSTAY_DB_NAME"`
	SSLMode  string `envconfig:"BRIGHTSTAY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BRIGHTSTAY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BRIGHTSTAY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BRIGHTSTAY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BRIGHTSTAY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BRIGHTSTAY_REDIS_URL" required:"true"`
	Address      string        `envconfig:"BRIGHTSTAY_REDIS_ADDR"`
	Password     string        `envconfig:"BRIGHTSTAY_REDIS_PASSWORD"`
	DB           int           `envconfig:"BRIGHTSTAY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BRIGHTSTAY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BRIGHTSTAY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BRIGHTSTAY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BRIGHTSTAY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BRIGHTSTAY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type BookingConfig struct {
	// ProvisionalTTL bounds how long an unconfirmed booking may hold
	// inventory before the expiry job cancels it.
	ProvisionalTTL time.Duration `envconfig:"BRIGHTSTAY_BOOKING_PROVISIONAL_TTL" default:"30m"`
	MaxStayNights  int           `envconfig:"BRIGHTSTAY_BOOKING_MAX_STAY_NIGHTS" default:"365"`
	ExpiryBatch    int           `envconfig:"BRIGHTSTAY_BOOKING_EXPIRY_BATCH" default:"100"`
}

type IdempotencyConfig struct {
	// Retention controls how long key bindings are kept for replay
	// detection, independent of the referenced booking's status.
	Retention time.Duration `envconfig:"BRIGHTSTAY_IDEMPOTENCY_RETENTION" default:"168h"`
}

type RateLimitConfig struct {
	ReserveWindow  time.Duration `envconfig:"BRIGHTSTAY_RATE_LIMIT_RESERVE_WINDOW" default:"1m"`
	ReserveIPLimit int           `envconfig:"BRIGHTSTAY_RATE_LIMIT_RESERVE_IP_LIMIT" default:"30"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"BRIGHTSTAY_CRON_INTERVAL" default:"5m"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"BRIGHTSTAY_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	parts := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range requiredDBEnvVars {
		if parts[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
