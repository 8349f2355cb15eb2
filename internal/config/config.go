package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is the environment variable prefix, e.g. FINANCE_BASE_URL.
const EnvPrefix = "FINANCE"

// Session storage backends.
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendGCS    = "gcs"
)

// Config holds the client and dev server settings loaded from the env.
type Config struct {
	// BaseURL is the origin of the finance service, without trailing slash.
	BaseURL string        `envconfig:"BASE_URL" default:"http://localhost:8080"`
	Timeout time.Duration `envconfig:"TIMEOUT" default:"15s"`

	SessionBackend string `envconfig:"SESSION_BACKEND" default:"file"`
	SessionDir     string `envconfig:"SESSION_DIR" default:".finance"`
	SessionBucket  string `envconfig:"SESSION_BUCKET"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"console"`

	DevPort string `envconfig:"DEV_PORT" default:"8080"`
}

// Load reads Config from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate normalizes BaseURL and checks the session backend settings.
func (c *Config) Validate() error {
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.BaseURL == "" {
		return fmt.Errorf("%s_BASE_URL is required", EnvPrefix)
	}

	switch c.SessionBackend {
	case BackendFile:
		if c.SessionDir == "" {
			return fmt.Errorf("%s_SESSION_DIR is required for the file backend", EnvPrefix)
		}
	case BackendMemory:
	case BackendGCS:
		if c.SessionBucket == "" {
			return fmt.Errorf("%s_SESSION_BUCKET is required for the gcs backend", EnvPrefix)
		}
	default:
		return fmt.Errorf("unknown session backend %q", c.SessionBackend)
	}
	return nil
}
