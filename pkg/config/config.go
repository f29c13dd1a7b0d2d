package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "GUILDFORGE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "GUILDFORGE_DB_DSN"
	EnvDBHost = "GUILDFORGE_DB_HOST"
	EnvDBUser = "GUILDFORGE_DB_USER"
	EnvDBName = "GUILDFORGE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Decay        DecayConfig
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
	Env          string `envconfig:"GUILDFORGE_APP_ENV" required:"true"`
	Port         string `envconfig:"GUILDFORGE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"GUILDFORGE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"GUILDFORGE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"GUILDFORGE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"GUILDFORGE_DB_DSN"`
	Driver string `envconfig:"GUILDFORGE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"GUILDFORGE_DB_HOST"`
	LegacyPort     int    `envconfig:"GUILDFORGE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"GUILDFORGE_DB_USER"`
	LegacyPassword string `envconfig:"GUILDFORGE_DB_PASSWORD"`
	LegacyName     string `envconfig:"GUILDFORGE_DB_NAME"`
	LegacySSLMode  string `envconfig:"GUILDFORGE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"GUILDFORGE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"GUILDFORGE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"GUILDFORGE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"GUILDFORGE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"GUILDFORGE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"GUILDFORGE_REDIS_ADDR"`
	Password     string        `envconfig:"GUILDFORGE_REDIS_PASSWORD"`
	DB           int           `envconfig:"GUILDFORGE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"GUILDFORGE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"GUILDFORGE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"GUILDFORGE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"GUILDFORGE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"GUILDFORGE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"GUILDFORGE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"GUILDFORGE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"GUILDFORGE_JWT_EXPIRATION_MINUTES" default:"60"`
}

// DecayConfig drives the point-decay worker cadence.
type DecayConfig struct {
	Interval time.Duration `envconfig:"GUILDFORGE_DECAY_INTERVAL" default:"24h"`
	LockTTL  time.Duration `envconfig:"GUILDFORGE_DECAY_LOCK_TTL" default:"25h"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"GUILDFORGE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"GUILDFORGE_AUTO_MIGRATE" default:"false"`
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
