package app

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/odyssey-erp/rbac-console/internal/credentials"
)

// Config holds runtime configuration for the application.
type Config struct {
	AppEnv                string        `envconfig:"APP_ENV" default:"development"`
	ConsoleAddr           string        `envconfig:"CONSOLE_ADDR" default:"127.0.0.1:8080"`
	ConsoleReadTimeout    time.Duration `envconfig:"CONSOLE_READ_TIMEOUT" default:"15s"`
	ConsoleWriteTimeout   time.Duration `envconfig:"CONSOLE_WRITE_TIMEOUT" default:"30s"`
	ConsoleRequestTimeout time.Duration `envconfig:"CONSOLE_REQUEST_TIMEOUT" default:"30s"`

	APIBaseURL     string        `envconfig:"API_BASE_URL" default:"http://localhost:3000/api"`
	APITimeout     time.Duration `envconfig:"API_TIMEOUT" default:"30s"`
	RefreshTimeout time.Duration `envconfig:"REFRESH_TIMEOUT" default:"15s"`

	LogFormat string `envconfig:"LOG_FORMAT" default:"pretty"`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	CredentialBackend string `envconfig:"CREDENTIAL_BACKEND" default:"file"`
	CredentialsPath   string `envconfig:"CREDENTIALS_PATH"`

	RedisAddr      string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`
	RedisKeyPrefix string `envconfig:"REDIS_KEY_PREFIX" default:"rbac-console"`

	WorkerConcurrency int    `envconfig:"WORKER_CONCURRENCY" default:"5"`
	WorkerMetricsAddr string `envconfig:"WORKER_METRICS_ADDR"`
}

// LoadConfig reads configuration from environment variables.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values envconfig cannot.
func (c *Config) Validate() error {
	switch c.CredentialBackend {
	case credentials.BackendFile, credentials.BackendRedis, credentials.BackendMemory:
	default:
		return fmt.Errorf("%w: %q", credentials.ErrUnknownBackend, c.CredentialBackend)
	}
	u, err := url.Parse(c.APIBaseURL)
	if err != nil {
		return fmt.Errorf("api base url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api base url %q must be absolute http(s)", c.APIBaseURL)
	}
	if c.WorkerConcurrency <= 0 {
		return errors.New("worker concurrency must be positive")
	}
	return nil
}

// IsProduction returns true when the application runs in production.
func (c *Config) IsProduction() bool {
	return c != nil && c.AppEnv == "production"
}
