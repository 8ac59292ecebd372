package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Defaults for the subscription mailboxes. They are applied again after
// loading because an env var that is set but empty counts as unset.
const (
	DefaultFromEmail     = "noreply@healthmatters.clinic"
	DefaultInternalEmail = "contact@healthmatters.clinic"
)

// Config represents the application configuration structure.
// It contains settings for the environment, HTTP server, the SendGrid
// delivery API, the subscription emails and graceful shutdown behavior.
type Config struct {
	// Environment specifies the current running environment (development, production, etc.)
	Environment string `env:"ENVIRONMENT" env-default:"development" yaml:"environment"`

	// HTTP contains all HTTP server related configurations
	HTTP struct {
		// Addr is the address and port the HTTP server will listen on
		Addr string `env:"HTTP_ADDR" env-default:":8080" yaml:"addr"`
		// ReadTimeout is the maximum duration for reading the entire request, including the body
		ReadTimeout time.Duration `env:"HTTP_READ_TIMEOUT" env-default:"1m" yaml:"readTimeout"`
		// ReadHeaderTimeout is the amount of time allowed to read request headers
		ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" env-default:"10s" yaml:"readHeaderTimeout"`
		// WriteTimeout is the maximum duration before timing out writes of the response
		WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" env-default:"2m" yaml:"writeTimeout"`
		// IdleTimeout is the maximum amount of time to wait for the next request when keep-alives are enabled
		IdleTimeout time.Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"2m" yaml:"idleTimeout"`
		// RequestTimeout is the maximum time allowed for processing a single request
		RequestTimeout time.Duration `env:"HTTP_REQUEST_TIMEOUT" env-default:"1m" yaml:"requestTimeout"`
		// MaxHeaderBytes controls the maximum number of bytes the server will read parsing the request header
		MaxHeaderBytes int `env:"HTTP_MAX_HEADER_BYTES" env-default:"0" yaml:"maxHeaderBytes"`
		// MetricsPath defines the URL path where metrics are exposed
		MetricsPath string `env:"HTTP_METRICS_PATH" env-default:"/metrics" yaml:"metricsPath"`
		// NotifyPath is the path of the subscription endpoint, matching the serverless deployment
		NotifyPath string `env:"HTTP_NOTIFY_PATH" env-default:"/api/notify" yaml:"notifyPath"`
		// PprofEnabled mounts net/http/pprof under /debug/pprof/
		PprofEnabled bool `env:"HTTP_PPROF_ENABLED" env-default:"false" yaml:"pprofEnabled"`
	} `yaml:"http"`

	// SendGrid contains the delivery API settings
	SendGrid struct {
		// APIKey authenticates against SendGrid. It has no default: a missing key is
		// reported per request, not at startup
		APIKey string `env:"SENDGRID_API_KEY" yaml:"apiKey"`
		// FromEmail is the sender address of every email
		FromEmail string `env:"SENDGRID_FROM_EMAIL" env-default:"noreply@healthmatters.clinic" yaml:"fromEmail"`
		// BaseURL is the SendGrid API host
		BaseURL string `env:"SENDGRID_BASE_URL" env-default:"https://api.sendgrid.com" yaml:"baseUrl"`
		// Timeout bounds a single Mail Send call
		Timeout time.Duration `env:"SENDGRID_TIMEOUT" env-default:"30s" yaml:"timeout"`
	} `yaml:"sendgrid"`

	// Subscription contains the content settings of the two emails
	Subscription struct {
		// InternalEmail is the team mailbox notified about every new subscriber
		InternalEmail string `env:"SUBSCRIPTION_INTERNAL_EMAIL" env-default:"contact@healthmatters.clinic" yaml:"internalEmail"` //nolint: lll
		// Source describes where subscribers sign up; it is shown in the internal alert
		Source string `env:"SUBSCRIPTION_SOURCE" env-default:"2026 Updates Landing Page" yaml:"source"`
		// TimeZone is the IANA zone used to print the submission time
		TimeZone string `env:"SUBSCRIPTION_TIME_ZONE" env-default:"UTC" yaml:"timeZone"`
	} `yaml:"subscription"`

	// GracefulShutdownTimeout is the maximum duration to wait for ongoing requests to complete during shutdown
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_TIMEOUT" env-default:"10s" yaml:"gracefulShutdownTimeout"` //nolint: lll
}

// applyDefaults restores defaults for values that were explicitly set to "".
func (cfg *Config) applyDefaults() {
	if cfg.SendGrid.FromEmail == "" {
		cfg.SendGrid.FromEmail = DefaultFromEmail
	}
	if cfg.Subscription.InternalEmail == "" {
		cfg.Subscription.InternalEmail = DefaultInternalEmail
	}
}

// Load receives the path for yaml config file and returns a filled Config struct.
// Environment variables override file values. When the file does not exist the
// configuration is read from the environment only.
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		return FromEnv()
	}
	if _, err := os.Stat(configPath); errors.Is(err, fs.ErrNotExist) {
		return FromEnv()
	}

	var cfg Config
	err := cleanenv.ReadConfig(configPath, &cfg)
	if err != nil {
		return nil, fmt.Errorf("could not read config: %w", err)
	}
	cfg.applyDefaults()

	return &cfg, nil
}

// FromEnv builds a Config from environment variables only. Serverless
// entrypoints call it on every invocation so secrets are never cached.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("could not read environment: %w", err)
	}
	cfg.applyDefaults()

	return &cfg, nil
}
