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
	FeatureFlags FeatureFlagsConfig
	Square       SquareConfig
	Clover       CloverConfig
	Sync         SyncConfig
	Alerts       AlertsConfig
	SMS          SMSConfig
	Email        EmailConfig
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
	Env          string `envconfig:"SHELFWATCH_APP_ENV" required:"true"`
	Port         string `envconfig:"SHELFWATCH_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SHELFWATCH_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SHELFWATCH_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"SHELFWATCH_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"SHELFWATCH_DB_DSN"`
	Driver string `envconfig:"SHELFWATCH_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SHELFWATCH_DB_HOST"`
	LegacyPort     int    `envconfig:"SHELFWATCH_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SHELFWATCH_DB_USER"`
	LegacyPassword string `envconfig:"SHELFWATCH_DB_PASSWORD"`
	LegacyName     string `envconfig:"SHELFWATCH_DB_NAME"`
	LegacySSLMode  string `envconfig:"SHELFWATCH_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SHELFWATCH_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SHELFWATCH_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SHELFWATCH_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SHELFWATCH_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SHELFWATCH_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SHELFWATCH_REDIS_ADDR"`
	Password     string        `envconfig:"SHELFWATCH_REDIS_PASSWORD"`
	DB           int           `envconfig:"SHELFWATCH_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SHELFWATCH_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SHELFWATCH_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SHELFWATCH_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SHELFWATCH_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SHELFWATCH_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"SHELFWATCH_AUTO_MIGRATE" default:"false"`
}

type SquareConfig struct {
	Environment   string `envconfig:"SHELFWATCH_SQUARE_ENV" default:"sandbox"`
	WebhookSecret string `envconfig:"SHELFWATCH_SQUARE_WEBHOOK_SECRET"`
}

type CloverConfig struct {
	Environment   string `envconfig:"SHELFWATCH_CLOVER_ENV" default:"sandbox"`
	WebhookSecret string `envconfig:"SHELFWATCH_CLOVER_WEBHOOK_SECRET"`
}

type SyncConfig struct {
	MaxPages     int           `envconfig:"SHELFWATCH_SYNC_MAX_PAGES" default:"200"`
	PageSize     int           `envconfig:"SHELFWATCH_SYNC_PAGE_SIZE" default:"100"`
	WorkerPeriod time.Duration `envconfig:"SHELFWATCH_SYNC_WORKER_PERIOD" default:"1h"`
}

type AlertsConfig struct {
	Cooldown time.Duration `envconfig:"SHELFWATCH_ALERT_COOLDOWN" default:"24h"`
	LockTTL  time.Duration `envconfig:"SHELFWATCH_ALERT_LOCK_TTL" default:"30s"`
}

type SMSConfig struct {
	AccountSID string `envconfig:"SHELFWATCH_TWILIO_ACCOUNT_SID"`
	AuthToken  string `envconfig:"SHELFWATCH_TWILIO_AUTH_TOKEN"`
	FromNumber string `envconfig:"SHELFWATCH_TWILIO_FROM_NUMBER"`
	Region     string `envconfig:"SHELFWATCH_SMS_DEFAULT_REGION" default:"US"`
}

type EmailConfig struct {
	APIKey      string `envconfig:"SHELFWATCH_SENDGRID_API_KEY"`
	DefaultFrom string `envconfig:"SHELFWATCH_SENDGRID_FROM_EMAIL"`
}

// NormalizedEnvironment returns the Square environment lowercased and
// trimmed, defaulting to sandbox.
func (s SquareConfig) NormalizedEnvironment() string {
	env := strings.TrimSpace(strings.ToLower(s.Environment))
	if env == "" {
		return "sandbox"
	}
	return env
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if strings.EqualFold(db.Driver, "sqlite") {
		return fmt.Errorf("%s is required when the sqlite driver is selected", EnvDBDSN)
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
