// Package config provides application configuration loaded from environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Store drivers.
const (
	DriverPostgres  = "postgres"
	DriverSQLite    = "sqlite"
	DriverSurrealDB = "surrealdb"
)

// Render engines.
const (
	EngineNative = "native"
	EngineChrome = "chrome"
)

const devJWTSecret = "dev-jwt-secret-change-me"

// Config holds all application configuration.
type Config struct {
	App      AppConfig
	Server   ServerConfig
	Database DatabaseConfig
	Surreal  SurrealConfig
	Auth     AuthConfig
	Mail     MailConfig
	Render   RenderConfig
	Brand    BrandConfig
	Log      LogConfig
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Env         string   `env:"APP_ENV" env-default:"development"`
	FrontendURL string   `env:"FRONTEND_URL"`
	CORSOrigins []string `env:"CORS_ALLOWED_ORIGINS" env-separator:"," env-default:"http://localhost:5173,http://localhost:5174,http://localhost:3000"`
}

// Production reports whether stack traces and dev defaults must be suppressed.
func (a AppConfig) Production() bool { return strings.EqualFold(a.Env, "production") }

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            string        `env:"PORT" env-default:"5000"`
	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" env-default:"15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" env-default:"60s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// DatabaseConfig selects and configures the persistence backend.
type DatabaseConfig struct {
	Driver        string `env:"STORE_DRIVER" env-default:"postgres"`
	DSN           string `env:"DATABASE_DSN"`
	SQLitePath    string `env:"SQLITE_PATH" env-default:"invoices.db"`
	Migrations    bool   `env:"MIGRATIONS" env-default:"false"`
	MigrationsDir string `env:"MIGRATIONS_DIR" env-default:"migrations"`
	Debug         bool   `env:"DB_DEBUG" env-default:"false"`
	ConnectTries  int    `env:"DB_CONNECT_TRIES" env-default:"5"`
}

// SurrealConfig is used when Driver is surrealdb.
type SurrealConfig struct {
	URL       string `env:"SURREAL_URL" env-default:"ws://localhost:8000/rpc"`
	Namespace string `env:"SURREAL_NS" env-default:"invoices"`
	Database  string `env:"SURREAL_DB" env-default:"invoices"`
	User      string `env:"SURREAL_USER"`
	Pass      string `env:"SURREAL_PASS"`
}

// AuthConfig holds session token settings.
type AuthConfig struct {
	JWTSecret string        `env:"JWT_SECRET" env-default:"dev-jwt-secret-change-me"`
	JWTIssuer string        `env:"JWT_ISSUER" env-default:"invoice-api"`
	JWTTTL    time.Duration `env:"JWT_TTL" env-default:"168h"`
	ResetTTL  time.Duration `env:"RESET_TOKEN_TTL" env-default:"1h"`
}

// MailConfig holds outbound SMTP settings. Without credentials reset links are logged.
type MailConfig struct {
	Host     string `env:"SMTP_HOST" env-default:"smtp.gmail.com"`
	Port     int    `env:"SMTP_PORT" env-default:"587"`
	User     string `env:"SMTP_USER"`
	Pass     string `env:"SMTP_PASS"`
	From     string `env:"SMTP_FROM"`
	FromName string `env:"SMTP_FROM_NAME" env-default:"iTEK Invoices"`
}

// Enabled reports whether SMTP credentials are present.
func (m MailConfig) Enabled() bool { return m.User != "" && m.Pass != "" }

// RenderConfig selects the PDF backend and the brand asset source.
type RenderConfig struct {
	Engine          string        `env:"RENDER_ENGINE" env-default:"native"`
	Timeout         time.Duration `env:"RENDER_TIMEOUT" env-default:"30s"`
	ChromePath      string        `env:"CHROME_PATH"`
	FontPath        string        `env:"PDF_FONT_PATH"`
	AssetsDir       string        `env:"ASSETS_DIR" env-default:"assets"`
	AssetsS3Bucket  string        `env:"ASSETS_S3_BUCKET"`
	AssetsS3Prefix  string        `env:"ASSETS_S3_PREFIX"`
	AWSRegion       string        `env:"AWS_REGION" env-default:"ap-southeast-2"`
	PaymentLinkBase string        `env:"PAYMENT_LINK_BASE"`
}

// BrandConfig provides the fallback company block printed when an invoice has none.
type BrandConfig struct {
	Name    string `env:"BRAND_NAME" env-default:"iTEK Solutions PVT LTD"`
	Address string `env:"BRAND_ADDRESS" env-default:"130,\nUniversity Drive,\nCallaghan"`
	Phone   string `env:"BRAND_PHONE" env-default:"(04) 5066 2270"`
	ABN     string `env:"BRAND_ABN" env-default:"96 678 973 085"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" env-default:"info"`
	Format string `env:"LOG_FORMAT" env-default:"json"`
}

// Load reads configuration from environment variables (a .env file is loaded by main beforehand).
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}
	cfg.Brand.Address = strings.ReplaceAll(cfg.Brand.Address, `\n`, "\n")
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	var errs []error
	switch c.Database.Driver {
	case DriverPostgres:
		if strings.TrimSpace(c.Database.DSN) == "" {
			errs = append(errs, errors.New("DATABASE_DSN is required for the postgres driver"))
		}
	case DriverSQLite:
		if c.Database.SQLitePath == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required for the sqlite driver"))
		}
	case DriverSurrealDB:
		if c.Surreal.URL == "" {
			errs = append(errs, errors.New("SURREAL_URL is required for the surrealdb driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.Database.Driver))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	} else if c.App.Production() && c.Auth.JWTSecret == devJWTSecret {
		errs = append(errs, errors.New("JWT_SECRET must be set in production"))
	}
	if c.Auth.JWTTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	if c.Auth.ResetTTL <= 0 {
		errs = append(errs, errors.New("RESET_TOKEN_TTL must be positive"))
	}
	switch c.Render.Engine {
	case EngineNative, EngineChrome:
	default:
		errs = append(errs, fmt.Errorf("unknown RENDER_ENGINE %q", c.Render.Engine))
	}
	return errors.Join(errs...)
}
