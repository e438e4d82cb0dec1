// Package config loads the relay's configuration from the environment.
// A .env file in the working directory is read first when present; real
// environment variables always win over it.
package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	DBModeEmbedded = "embedded"
	DBModePostgres = "postgres"
)

type Config struct {
	Port     string `envconfig:"PORT" default:"8000" validate:"required,numeric"`
	AppEnv   string `envconfig:"APP_ENV" default:"production"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info" validate:"oneof=debug info warn error"`

	DashboardPath string `envconfig:"DASHBOARD_PATH" default:"web/dashboard/index.html"`

	Database  DatabaseConfig
	Redis     RedisConfig
	Expo      ExpoConfig
	Scheduler SchedulerConfig
}

type DatabaseConfig struct {
	Mode     string `envconfig:"DB_MODE" default:"embedded" validate:"oneof=embedded postgres"`
	URL      string `envconfig:"DATABASE_URL"`
	Host     string `envconfig:"POSTGRES_HOST" default:"localhost"`
	Port     string `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" default:"postgres"`
	Password string `envconfig:"POSTGRES_PASSWORD"`
	Name     string `envconfig:"POSTGRES_DB" default:"expo_tokens_db"`
	SSLMode  string `envconfig:"POSTGRES_SSLMODE" default:"disable"`
}

type RedisConfig struct {
	Enabled  bool          `envconfig:"REDIS_ENABLED" default:"false"`
	Host     string        `envconfig:"REDIS_HOST" default:"localhost"`
	Port     string        `envconfig:"REDIS_PORT" default:"6379"`
	Password string        `envconfig:"REDIS_PASSWORD"`
	DB       int           `envconfig:"REDIS_DB" default:"0" validate:"gte=0"`
	TokenTTL time.Duration `envconfig:"TOKEN_CACHE_TTL" default:"24h" validate:"gt=0"`
}

type ExpoConfig struct {
	PushURL      string        `envconfig:"EXPO_PUSH_URL" default:"https://exp.host/--/api/v2/push/send" validate:"url"`
	AccessToken  string        `envconfig:"EXPO_ACCESS_TOKEN"`
	MaxBatchSize int           `envconfig:"EXPO_MAX_BATCH_SIZE" default:"100" validate:"gte=1,lte=100"`
	HTTPTimeout  time.Duration `envconfig:"EXPO_HTTP_TIMEOUT" default:"10s" validate:"gt=0"`
}

type SchedulerConfig struct {
	Enabled       bool          `envconfig:"RUN_CRON" default:"true"`
	Timezone      string        `envconfig:"CRON_TIMEZONE" default:"UTC"`
	DailyReminder string        `envconfig:"DAILY_REMINDER_SCHEDULE" default:"0 9 * * *"`
	WeeklyReport  string        `envconfig:"WEEKLY_REPORT_SCHEDULE" default:"0 8 * * 1"`
	DailyCleanup  string        `envconfig:"DAILY_CLEANUP_SCHEDULE" default:"0 2 * * *"`
	JobTimeout    time.Duration `envconfig:"JOB_TIMEOUT" default:"5m" validate:"gte=0"`
}

// Load reads .env (if any) and the environment into a validated Config.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv is Load without the .env file.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment configuration: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	if _, err := cfg.Scheduler.Location(); err != nil {
		return nil, fmt.Errorf("invalid CRON_TIMEZONE: %w", err)
	}
	return &cfg, nil
}

// IsDevelopment reports whether APP_ENV selects development logging.
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development" || c.AppEnv == "local"
}

// DSN returns DATABASE_URL, or a URL assembled from the POSTGRES_* parts.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     d.Host + ":" + d.Port,
		Path:     "/" + d.Name,
		RawQuery: "sslmode=" + url.QueryEscape(d.SSLMode),
	}
	return u.String()
}

func (r RedisConfig) Addr() string {
	return r.Host + ":" + r.Port
}

func (s SchedulerConfig) Location() (*time.Location, error) {
	return time.LoadLocation(s.Timezone)
}
