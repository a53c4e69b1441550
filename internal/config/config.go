package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// Data backends
const (
	BackendPostgres  = "postgres"
	BackendFirestore = "firestore"
)

// Config holds all configuration for our application. Sections are squashed
// so every key maps to one flat environment variable.
type Config struct {
	Server    ServerConfig    `mapstructure:",squash"`
	Database  DatabaseConfig  `mapstructure:",squash"`
	Firestore FirestoreConfig `mapstructure:",squash"`
	Redis     RedisConfig     `mapstructure:",squash"`
	Scheduler SchedulerConfig `mapstructure:",squash"`
	Report    ReportConfig    `mapstructure:",squash"`
	Mail      MailConfig      `mapstructure:",squash"`
	Logging   LoggingConfig   `mapstructure:",squash"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"SERVER_PORT"`
	Host         string        `mapstructure:"SERVER_HOST"`
	Env          string        `mapstructure:"ENV"`
	ReadTimeout  time.Duration `mapstructure:"SERVER_READ_TIMEOUT"`
	WriteTimeout time.Duration `mapstructure:"SERVER_WRITE_TIMEOUT"`
}

type DatabaseConfig struct {
	Backend         string        `mapstructure:"DATA_BACKEND"`
	URL             string        `mapstructure:"DATABASE_URL"`
	MaxOpenConns    int           `mapstructure:"DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `mapstructure:"DATABASE_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `mapstructure:"DATABASE_CONN_MAX_LIFETIME"`
	AutoMigrate     bool          `mapstructure:"DATABASE_AUTO_MIGRATE"`
}

type FirestoreConfig struct {
	ProjectID string `mapstructure:"FIRESTORE_PROJECT_ID"`
}

type RedisConfig struct {
	Host     string `mapstructure:"REDIS_HOST"`
	Port     string `mapstructure:"REDIS_PORT"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`
}

type SchedulerConfig struct {
	Spec      string        `mapstructure:"SCHEDULER_SPEC"`
	Timezone  string        `mapstructure:"SCHEDULER_TIMEZONE"`
	LedgerTTL time.Duration `mapstructure:"SCHEDULER_LEDGER_TTL"`
}

type ReportConfig struct {
	Timezone string `mapstructure:"REPORT_TIMEZONE"`
}

type MailConfig struct {
	APIKey        string        `mapstructure:"MAILERSEND_API_KEY"`
	FromEmail     string        `mapstructure:"MAIL_FROM_EMAIL"`
	FromName      string        `mapstructure:"MAIL_FROM_NAME"`
	RecipientName string        `mapstructure:"MAIL_RECIPIENT_NAME"`
	Signature     string        `mapstructure:"MAIL_SIGNATURE"`
	Timeout       time.Duration `mapstructure:"MAIL_TIMEOUT"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"LOG_LEVEL"`
	Format string `mapstructure:"LOG_FORMAT"`
}

var defaults = map[string]any{
	"SERVER_PORT":                "8080",
	"SERVER_HOST":                "0.0.0.0",
	"ENV":                        "development",
	"SERVER_READ_TIMEOUT":        "15s",
	"SERVER_WRITE_TIMEOUT":       "60s",
	"DATA_BACKEND":               BackendPostgres,
	"DATABASE_URL":               "",
	"DATABASE_MAX_OPEN_CONNS":    10,
	"DATABASE_MAX_IDLE_CONNS":    5,
	"DATABASE_CONN_MAX_LIFETIME": "30m",
	"DATABASE_AUTO_MIGRATE":      true,
	"FIRESTORE_PROJECT_ID":       "",
	"REDIS_HOST":                 "",
	"REDIS_PORT":                 "6379",
	"REDIS_PASSWORD":             "",
	"REDIS_DB":                   0,
	"SCHEDULER_SPEC":             "0 0 10 * * *",
	"SCHEDULER_TIMEZONE":         "Europe/Zurich",
	"SCHEDULER_LEDGER_TTL":       "72h",
	"REPORT_TIMEZONE":            "Europe/Zurich",
	"MAILERSEND_API_KEY":         "",
	"MAIL_FROM_EMAIL":            "",
	"MAIL_FROM_NAME":             "Sonos Dialoger-App",
	"MAIL_RECIPIENT_NAME":        "Sonos",
	"MAIL_SIGNATURE":             "Sonos Dialoger-App",
	"MAIL_TIMEOUT":               "30s",
	"LOG_LEVEL":                  "info",
	"LOG_FORMAT":                 "json",
}

// Load reads configuration from environment variables and files
func Load() (*Config, error) {
	v := viper.New()

	// Every key needs a default, Unmarshal only sees keys viper knows about
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.AutomaticEnv()

	// Try to read from .env file (optional)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./deployments")

	// Don't fail if .env file doesn't exist
	_ = v.ReadInConfig()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	switch c.Database.Backend {
	case BackendPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for the %s backend", BackendPostgres)
		}
	case BackendFirestore:
		if c.Firestore.ProjectID == "" {
			return fmt.Errorf("FIRESTORE_PROJECT_ID is required for the %s backend", BackendFirestore)
		}
	default:
		return fmt.Errorf("DATA_BACKEND must be %q or %q, got %q", BackendPostgres, BackendFirestore, c.Database.Backend)
	}

	if _, err := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor).Parse(c.Scheduler.Spec); err != nil {
		return fmt.Errorf("SCHEDULER_SPEC must be a valid cron expression with seconds: %w", err)
	}

	if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
		return fmt.Errorf("SCHEDULER_TIMEZONE must be a valid time zone: %w", err)
	}

	if _, err := time.LoadLocation(c.Report.Timezone); err != nil {
		return fmt.Errorf("REPORT_TIMEZONE must be a valid time zone: %w", err)
	}

	if c.Mail.APIKey != "" && c.Mail.FromEmail == "" {
		return fmt.Errorf("MAIL_FROM_EMAIL is required when MAILERSEND_API_KEY is set")
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or text, got %q", c.Logging.Format)
	}

	return nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development" || c.Server.Env == "dev"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production" || c.Server.Env == "prod"
}

// ReportLocation returns the time zone export days and dates are computed in
func (c *Config) ReportLocation() *time.Location {
	return loadLocation(c.Report.Timezone)
}

// SchedulerLocation returns the time zone the cron spec is evaluated in
func (c *Config) SchedulerLocation() *time.Location {
	return loadLocation(c.Scheduler.Timezone)
}

// RedisEnabled reports whether a Redis host is configured
func (c *Config) RedisEnabled() bool {
	return c.Redis.Host != ""
}

// RedisAddr returns host:port of the Redis server
func (c *Config) RedisAddr() string {
	return c.Redis.Host + ":" + c.Redis.Port
}

// MailEnabled reports whether email delivery is configured
func (c *Config) MailEnabled() bool {
	return c.Mail.APIKey != ""
}

func loadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}
