package keywords

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"

	"github.com/ava-labs/mqlibrary/pkg/mq"
	"github.com/ava-labs/mqlibrary/pkg/timestr"
)

// Default values for Config.
const (
	DefaultAlias         = "default"
	DefaultGetTimeout    = "0"
	DefaultBrowseTimeout = "5s"
)

// Config holds the keyword argument defaults.
type Config struct {
	DefaultAlias  string `env:"MQ_DEFAULT_ALIAS"   envDefault:"default"` // Alias used when a keyword gets none
	DefaultCCSID  int32  `env:"MQ_DEFAULT_CCSID"   envDefault:"1208"`    // CCSID set on put messages
	GetTimeout    string `env:"MQ_GET_TIMEOUT"     envDefault:"0"`       // Per-message wait of Get MQ Messages
	BrowseTimeout string `env:"MQ_BROWSE_TIMEOUT"  envDefault:"5s"`      // Per-message wait of Browse MQ Messages
}

// LoadConfig reads Config from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse keyword config: %w", err)
	}
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// WithDefaults returns a copy of the config with empty fields filled in.
func (c Config) WithDefaults() Config {
	if c.DefaultAlias == "" {
		c.DefaultAlias = DefaultAlias
	}
	if c.DefaultCCSID == 0 {
		c.DefaultCCSID = mq.DefaultCCSID
	}
	if c.GetTimeout == "" {
		c.GetTimeout = DefaultGetTimeout
	}
	if c.BrowseTimeout == "" {
		c.BrowseTimeout = DefaultBrowseTimeout
	}
	return c
}

// Validate checks that the configured timeouts parse.
func (c Config) Validate() error {
	var errs []error
	if _, err := timestr.Parse(c.GetTimeout); err != nil {
		errs = append(errs, fmt.Errorf("MQ_GET_TIMEOUT: %w", err))
	}
	if _, err := timestr.Parse(c.BrowseTimeout); err != nil {
		errs = append(errs, fmt.Errorf("MQ_BROWSE_TIMEOUT: %w", err))
	}
	if c.DefaultCCSID < 0 {
		errs = append(errs, fmt.Errorf("MQ_DEFAULT_CCSID must not be negative, got %d", c.DefaultCCSID))
	}
	return errors.Join(errs...)
}
