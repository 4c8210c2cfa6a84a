package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	// Database
	DBDriver   string        `env:"DB_DRIVER" envDefault:"postgres"`
	DBPath     string        `env:"DB_PATH" envDefault:"auth.db"`
	DBHost     string        `env:"DB_HOST" envDefault:"localhost"`
	DBPort     string        `env:"DB_PORT" envDefault:"5432"`
	DBUser     string        `env:"DB_USER" envDefault:"postgres"`
	DBPassword string        `env:"DB_PASSWORD"`
	DBName     string        `env:"DB_NAME" envDefault:"auth_db"`
	DBSSLMode  string        `env:"DB_SSLMODE" envDefault:"disable"`
	DBTimeout  time.Duration `env:"DB_TIMEOUT" envDefault:"5s"`

	// Auth
	AuthSecret       string `env:"AUTH_SECRET"`
	BaseURL          string `env:"BASE_URL" envDefault:"http://localhost:3000"`
	ResetPasswordURL string `env:"RESET_PASSWORD_URL"`

	SessionTTL           time.Duration `env:"SESSION_TTL" envDefault:"168h"`
	SessionUpdateAge     time.Duration `env:"SESSION_UPDATE_AGE" envDefault:"24h"`
	EmailVerificationTTL time.Duration `env:"EMAIL_VERIFICATION_TTL" envDefault:"24h"`
	PasswordResetTTL     time.Duration `env:"PASSWORD_RESET_TTL" envDefault:"1h"`

	PasswordMinLength             int  `env:"PASSWORD_MIN_LENGTH" envDefault:"8"`
	PasswordMaxLength             int  `env:"PASSWORD_MAX_LENGTH" envDefault:"72"`
	RequireEmailVerification      bool `env:"REQUIRE_EMAIL_VERIFICATION" envDefault:"false"`
	SendVerificationOnSignUp      bool `env:"SEND_VERIFICATION_ON_SIGNUP" envDefault:"true"`
	RevokeSessionsOnPasswordReset bool `env:"REVOKE_SESSIONS_ON_PASSWORD_RESET" envDefault:"true"`

	// Email
	MailerSendAPIKey string        `env:"MAILERSEND_API_KEY"`
	EmailFrom        string        `env:"EMAIL_FROM" envDefault:"auth@example.com"`
	EmailFromName    string        `env:"EMAIL_FROM_NAME" envDefault:"Auth Service"`
	EmailTimeout     time.Duration `env:"EMAIL_TIMEOUT" envDefault:"10s"`

	// Server
	Port            string        `env:"PORT" envDefault:"3000"`
	CORSOrigins     string        `env:"CORS_ORIGINS" envDefault:"*"`
	CleanupInterval time.Duration `env:"CLEANUP_INTERVAL" envDefault:"1h"`
	LogRetention    time.Duration `env:"LOG_RETENTION" envDefault:"720h"`

	// Observability
	SentryDSN string `env:"SENTRY_DSN"`
	AppEnv    string `env:"APP_ENV" envDefault:"development"`
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.ResetPasswordURL == "" {
		cfg.ResetPasswordURL = cfg.BaseURL + "/reset-password"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	switch c.DBDriver {
	case DriverPostgres:
		if c.DBPassword == "" {
			errs = append(errs, errors.New("DB_PASSWORD environment variable is required"))
		}
	case DriverSQLite:
		if c.DBPath == "" {
			errs = append(errs, errors.New("DB_PATH environment variable is required for sqlite"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver))
	}
	if len(c.AuthSecret) < 32 {
		errs = append(errs, errors.New("AUTH_SECRET must be at least 32 characters"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.SessionUpdateAge < 0 || c.SessionUpdateAge >= c.SessionTTL {
		errs = append(errs, errors.New("SESSION_UPDATE_AGE must be between 0 and SESSION_TTL"))
	}
	if c.EmailVerificationTTL <= 0 || c.PasswordResetTTL <= 0 {
		errs = append(errs, errors.New("verification token TTLs must be positive"))
	}
	if c.CleanupInterval <= 0 {
		errs = append(errs, errors.New("CLEANUP_INTERVAL must be positive"))
	}
	if c.LogRetention <= 0 {
		errs = append(errs, errors.New("LOG_RETENTION must be positive"))
	}
	if c.PasswordMinLength < 1 || c.PasswordMaxLength < c.PasswordMinLength || c.PasswordMaxLength > 72 {
		errs = append(errs, errors.New("password length bounds must satisfy 1 <= min <= max <= 72"))
	}
	return errors.Join(errs...)
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}
