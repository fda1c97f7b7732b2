package config

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Port            string        `env:"PORT" envDefault:"8080"`
	SiteURL         string        `env:"SITE_URL" envDefault:"http://localhost:8080"`
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"10s"`
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"1m"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`
	AllowedOrigins  []string      `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	DB DBConfig

	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"JWT_TTL" envDefault:"72h"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	Languages       []string `env:"LANGUAGES" envDefault:"en,ar" envSeparator:","`
	DefaultLanguage string   `env:"DEFAULT_LANGUAGE" envDefault:"en"`

	PageSize      int `env:"PAGE_SIZE" envDefault:"25"`
	PageOrphans   int `env:"PAGE_ORPHANS" envDefault:"0"`
	LinkCacheSize int `env:"LINK_CACHE_SIZE" envDefault:"1024"`

	// memory, redis or postgres
	LiveBackend string `env:"LIVE_BACKEND" envDefault:"memory"`
	RedisURL    string `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`

	WriteRateLimit float64 `env:"WRITE_RATE_LIMIT" envDefault:"5"`
	WriteRateBurst int     `env:"WRITE_RATE_BURST" envDefault:"10"`

	MeiliHost   string `env:"MEILI_HOST"`
	MeiliAPIKey string `env:"MEILI_API_KEY"`
	MeiliIndex  string `env:"MEILI_INDEX" envDefault:"articles"`

	HFToken   string `env:"HF_TOKEN"`
	HFModel   string `env:"HF_TRANSLATION_MODEL" envDefault:"meta-llama/Meta-Llama-3-8B-Instruct"`
	HFBaseURL string `env:"HF_BASE_URL" envDefault:"https://router.huggingface.co/v1"`

	TwilioAccountSID string `env:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken  string `env:"TWILIO_AUTH_TOKEN"`
	TwilioFrom       string `env:"TWILIO_FROM_NUMBER"`
}

// DBConfig holds the Postgres connection settings.
type DBConfig struct {
	Host            string        `env:"DB_HOST" envDefault:"localhost"`
	Port            string        `env:"DB_PORT" envDefault:"5432"`
	User            string        `env:"DB_USER" envDefault:"postgres"`
	Password        string        `env:"DB_PASSWORD"`
	Name            string        `env:"DB_NAME" envDefault:"tcn"`
	SSLMode         string        `env:"DB_SSLMODE" envDefault:"disable"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"100"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"1h"`
}

// DSN returns the key/value connection string understood by both pgx and lib/pq.
func (c DBConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Load reads an optional .env file and parses the environment.
func Load() (*Config, error) {
	// a missing .env is fine, the environment may be set by the container
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if len(c.Languages) == 0 {
		return errors.New("LANGUAGES must list at least one language")
	}
	if !slices.Contains(c.Languages, c.DefaultLanguage) {
		return fmt.Errorf("DEFAULT_LANGUAGE %q is not one of LANGUAGES", c.DefaultLanguage)
	}
	if c.PageSize < 1 {
		return errors.New("PAGE_SIZE must be at least 1")
	}
	if c.PageOrphans < 0 {
		return errors.New("PAGE_ORPHANS cannot be negative")
	}
	switch c.LiveBackend {
	case "memory", "redis", "postgres":
	default:
		return fmt.Errorf("LIVE_BACKEND %q is not one of memory, redis, postgres", c.LiveBackend)
	}
	return nil
}

// TranslationEnabled reports whether an inference token is configured.
func (c *Config) TranslationEnabled() bool {
	return c.HFToken != ""
}

// SMSEnabled reports whether Twilio credentials are configured.
func (c *Config) SMSEnabled() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != "" && c.TwilioFrom != ""
}
