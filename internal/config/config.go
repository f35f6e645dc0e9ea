package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// MinJWTSecretBytes is the smallest accepted signing secret.
const MinJWTSecretBytes = 32

// ErrMissingJWTSecret is returned when AUTH_JWT_SECRET is unset.
var ErrMissingJWTSecret = errors.New("AUTH_JWT_SECRET is required")

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret         string
	Issuer            string
	Audience          string
	BcryptCost        int
	RevocationEnabled bool
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
}

// Load reads configuration from .env (when present) and the environment.
// Malformed values and a missing or short signing secret are errors; callers
// are expected to abort startup.
func Load() (*Config, error) {
	_ = godotenv.Load()

	env := &envReader{}
	cfg := &Config{
		App: AppConfig{
			Name:                  env.str("APP_NAME", "monitor-report"),
			Env:                   env.str("APP_ENV", "development"),
			Host:                  env.str("APP_HOST", "0.0.0.0"),
			Port:                  env.str("APP_PORT", "8080"),
			Version:               env.str("APP_VERSION", "dev"),
			RequestTimeoutSeconds: env.integer("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            env.str("POSTGRES_DSN", ""),
			MaxConns:       int32(env.integer("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(env.integer("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  env.boolean("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(env.integer("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(env.integer("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     env.str("REDIS_ADDR", "127.0.0.1:6379"),
			Password: env.str("REDIS_PASSWORD", ""),
			DB:       env.integer("REDIS_DB", 0),
		},
		Logger: LoggerConfig{
			Level: env.str("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:         env.str("AUTH_JWT_SECRET", ""),
			Issuer:            env.str("AUTH_ISSUER", "discord-monitor-report"),
			Audience:          env.str("AUTH_AUDIENCE", "discord-monitor-report-api"),
			BcryptCost:        clampCost(env.integer("AUTH_BCRYPT_COST", bcrypt.DefaultCost)),
			RevocationEnabled: env.boolean("AUTH_REVOCATION_ENABLED", false),
		},
		Notification: NotificationConfig{
			EmailFrom:  env.str("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			WebhookURL: env.str("NOTIFY_WEBHOOK_URL", ""),
		},
	}

	if err := errors.Join(env.errs...); err != nil {
		return nil, err
	}
	if err := cfg.Auth.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the signing material is usable.
func (a AuthConfig) Validate() error {
	if a.JWTSecret == "" {
		return ErrMissingJWTSecret
	}
	if len(a.JWTSecret) < MinJWTSecretBytes {
		return fmt.Errorf("AUTH_JWT_SECRET must be at least %d bytes, got %d", MinJWTSecretBytes, len(a.JWTSecret))
	}
	if a.Issuer == "" || a.Audience == "" {
		return errors.New("AUTH_ISSUER and AUTH_AUDIENCE must not be empty")
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

func clampCost(cost int) int {
	if cost < bcrypt.MinCost {
		return bcrypt.MinCost
	}
	if cost > bcrypt.MaxCost {
		return bcrypt.MaxCost
	}
	return cost
}

// envReader reads typed variables, remembering every malformed one.
type envReader struct {
	errs []error
}

func (r *envReader) str(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func (r *envReader) integer(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %q is not an integer", key, val))
		return fallback
	}
	return parsed
}

func (r *envReader) boolean(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s: %q is not a boolean", key, val))
		return fallback
	}
	return parsed
}
