package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spacemeshos/smutil"
	"github.com/spf13/viper"
)

const EnvPrefix = "RULERUNNER"

// Load builds a Config from, in increasing priority: defaults, the config file,
// RULERUNNER_* environment variables and flags bound to vip.
//
// An empty path falls back to DefaultConfigFile, which may be absent.
// An explicit path must exist.
func Load(vip *viper.Viper, path string) (Config, error) {
	cfg := DefaultConfig()

	vip.SetDefault("api-key", cfg.APIKey)
	vip.SetDefault("base-url", cfg.BaseURL)
	vip.SetDefault("timeout", cfg.Timeout)

	vip.SetEnvPrefix(EnvPrefix)
	vip.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	vip.AutomaticEnv()

	if err := loadConfigFile(vip, path); err != nil {
		return Config{}, err
	}

	if err := vip.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func loadConfigFile(vip *viper.Viper, path string) error {
	if path == "" {
		if _, err := os.Stat(DefaultConfigFile); errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		path = DefaultConfigFile
	}

	vip.SetConfigFile(smutil.GetCanonicalPath(path))
	if err := vip.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}
