package config

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/kelseyhightower/envconfig"

	"hairsby-console/internal/imaging"
)

// Config holds the application's configuration values.
// Tags like `envconfig:"APP_PORT"` specify the environment variable name.
// `default:""` provides a default value if the env var is not set.
// `required:"true"` makes an environment variable mandatory.
type Config struct {
	AppEnv     string `envconfig:"APP_ENV" default:"development"` // development, staging, production
	LogLevel   string `envconfig:"LOG_LEVEL" default:"info"`      // debug, info, warn, error
	HttpServer ServerConfig
	Remote     RemoteConfig
	Imaging    ImagingConfig
	Session    SessionConfig
	Notify     NotifyConfig
}

// ServerConfig holds HTTP server-specific configurations.
type ServerConfig struct {
	Port         string        `envconfig:"HTTP_SERVER_PORT" default:"8080"`
	TimeoutRead  time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_READ" default:"15s"`
	TimeoutWrite time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_WRITE" default:"60s"`
	TimeoutIdle  time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_IDLE" default:"60s"`
}

// RemoteConfig points at the Hairsby backend. A zero Timeout means requests
// only fail on network or HTTP errors.
type RemoteConfig struct {
	BaseURL string        `envconfig:"REMOTE_BASE_URL" required:"true"`
	Timeout time.Duration `envconfig:"REMOTE_TIMEOUT" default:"0s"`
}

// ImagingConfig bounds the images produced for upload.
type ImagingConfig struct {
	MaxWidth        int   `envconfig:"IMAGE_MAX_WIDTH" default:"1920"`
	MaxHeight       int   `envconfig:"IMAGE_MAX_HEIGHT" default:"1920"`
	MaxBytes        int   `envconfig:"IMAGE_MAX_BYTES" default:"1048576"`
	StartQuality    int   `envconfig:"IMAGE_START_QUALITY" default:"85"`
	MinQuality      int   `envconfig:"IMAGE_MIN_QUALITY" default:"40"`
	Concurrency     int   `envconfig:"IMAGE_CONCURRENCY" default:"4"`
	MaxSourcePixels int   `envconfig:"IMAGE_MAX_SOURCE_PIXELS" default:"40000000"` // decoded size limit, checked from the header
	MaxUploadBytes  int64 `envconfig:"IMAGE_MAX_UPLOAD_BYTES" default:"33554432"`  // raw multipart body accepted from the browser
}

// Options converts the config into compressor options.
func (ic ImagingConfig) Options() imaging.Options {
	return imaging.Options{
		MaxWidth:     ic.MaxWidth,
		MaxHeight:    ic.MaxHeight,
		MaxBytes:     ic.MaxBytes,
		StartQuality: ic.StartQuality,
		MinQuality:   ic.MinQuality,
		Concurrency:  ic.Concurrency,

		MaxSourcePixels: ic.MaxSourcePixels,
	}
}

type SessionConfig struct {
	Path string `envconfig:"SESSION_DB_PATH" default:"hairsby-session.db"`
}

type NotifyConfig struct {
	FeedSize int `envconfig:"TOAST_FEED_SIZE" default:"50"`
}

// Load reads the configuration from the environment and validates it.
// It should be called once during application startup.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values envconfig accepts but the service cannot run with.
func (c *Config) Validate() error {
	switch c.AppEnv {
	case "development", "staging", "production":
	default:
		return fmt.Errorf("invalid APP_ENV: %s", c.AppEnv)
	}
	u, err := url.Parse(c.Remote.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid REMOTE_BASE_URL: %q", c.Remote.BaseURL)
	}
	if c.Remote.Timeout < 0 {
		return errors.New("REMOTE_TIMEOUT must not be negative")
	}
	if _, err := imaging.NewCompressor(c.Imaging.Options(), nil); err != nil {
		return fmt.Errorf("invalid imaging config: %w", err)
	}
	if c.Imaging.MaxUploadBytes <= 0 {
		return errors.New("IMAGE_MAX_UPLOAD_BYTES must be positive")
	}
	if c.Notify.FeedSize <= 0 {
		return errors.New("TOAST_FEED_SIZE must be positive")
	}
	return nil
}

// IsDevelopment reports whether human-readable console logging should be used.
func (c *Config) IsDevelopment() bool { return c.AppEnv == "development" }
