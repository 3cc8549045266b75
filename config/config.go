package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"time"

	"github.com/spacemeshos/smutil"
)

const (
	DefaultBaseURL = "https://api.rulerunner.io"
	DefaultTimeout = 30 * time.Second

	DefaultConfigDirName  = ".rulerunner"
	DefaultConfigFileName = "config.toml"
)

var (
	DefaultConfigDir  = filepath.Join(smutil.GetUserHomeDirectory(), DefaultConfigDirName)
	DefaultConfigFile = filepath.Join(DefaultConfigDir, DefaultConfigFileName)

	ErrAPIKeyRequired = errors.New("API key is required")
)

type Config struct {
	APIKey  string        `mapstructure:"api-key"`
	BaseURL string        `mapstructure:"base-url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

func DefaultConfig() Config {
	return Config{
		BaseURL: DefaultBaseURL,
		Timeout: DefaultTimeout,
	}
}

func Validate(cfg Config) error {
	if cfg.APIKey == "" {
		return ErrAPIKeyRequired
	}

	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid `BaseURL`: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid `BaseURL`; expected: http or https scheme, given: %q", cfg.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid `BaseURL`; expected: a host, given: %q", cfg.BaseURL)
	}

	if cfg.Timeout <= 0 {
		return fmt.Errorf("invalid `Timeout`; expected: > 0, given: %v", cfg.Timeout)
	}

	return nil
}
