package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name string `envconfig:"APP_NAME" default:"Ledger"`
		Port int    `envconfig:"PORT" default:"8080"`
	}

	DB struct {
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"ledger"`
		SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	}

	Server struct {
		Timeout         time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
		ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"10s"`
	}

	Auth struct {
		Secret   string        `envconfig:"JWT_SECRET"`
		Issuer   string        `envconfig:"JWT_ISSUER" default:"ledger"`
		TokenTTL time.Duration `envconfig:"JWT_TTL" default:"12h"`

		// Login attempts per client IP: sustained rate per second and burst.
		LoginRate  float64 `envconfig:"LOGIN_RATE" default:"0.2"`
		LoginBurst int     `envconfig:"LOGIN_BURST" default:"5"`

		// Bootstrap admin, created on startup when both are set and the email is unknown.
		AdminEmail    string `envconfig:"ADMIN_EMAIL"`
		AdminPassword string `envconfig:"ADMIN_PASSWORD"`
	}

	CORS struct {
		AllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:5173"`
	}

	Log struct {
		Level      string `envconfig:"LOG_LEVEL" default:"info"`
		File       string `envconfig:"LOG_FILE"`
		MaxSizeMB  int    `envconfig:"LOG_MAX_SIZE_MB" default:"100"`
		MaxBackups int    `envconfig:"LOG_MAX_BACKUPS" default:"3"`
		MaxAgeDays int    `envconfig:"LOG_MAX_AGE_DAYS" default:"7"`
	}

	Report struct {
		Currency string `envconfig:"REPORT_CURRENCY" default:"COP"`
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name, c.DB.SSLMode)
}

// Validate reports settings that have no usable default.
func (c *Config) Validate() error {
	var errs []error

	if c.Auth.Secret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}

	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("JWT_TTL must be positive, got %s", c.Auth.TokenTTL))
	}

	if c.Auth.LoginRate <= 0 || c.Auth.LoginBurst <= 0 {
		errs = append(errs, errors.New("LOGIN_RATE and LOGIN_BURST must be positive"))
	}

	if c.Report.Currency == "" {
		errs = append(errs, errors.New("REPORT_CURRENCY must not be empty"))
	}

	return errors.Join(errs...)
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
