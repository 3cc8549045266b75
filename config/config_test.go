package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/rulerunner/rulerunner-go/config"
)

func TestValidate(t *testing.T) {
	t.Parallel()

	cfg := config.DefaultConfig()
	require.ErrorIs(t, config.Validate(cfg), config.ErrAPIKeyRequired)
	require.EqualError(t, config.Validate(cfg), "API key is required")

	cfg.APIKey = "test_api_key_123"
	require.NoError(t, config.Validate(cfg))

	for _, u := range []string{"ftp://api.rulerunner.io", "api.rulerunner.io", "http://", "://bad"} {
		bad := cfg
		bad.BaseURL = u
		require.Error(t, config.Validate(bad), u)
	}

	bad := cfg
	bad.Timeout = 0
	require.Error(t, config.Validate(bad))
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_File(t *testing.T) {
	r := require.New(t)

	path := writeConfig(t, `
api-key = "from-file"
base-url = "http://localhost:8000"
timeout = "5s"
`)
	cfg, err := config.Load(viper.New(), path)
	r.NoError(err)
	r.Equal("from-file", cfg.APIKey)
	r.Equal("http://localhost:8000", cfg.BaseURL)
	r.Equal(5*time.Second, cfg.Timeout)
}

func TestLoad_Defaults(t *testing.T) {
	r := require.New(t)

	cfg, err := config.Load(viper.New(), writeConfig(t, ""))
	r.NoError(err)
	r.Equal(config.DefaultConfig(), cfg)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(viper.New(), filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	r := require.New(t)
	t.Setenv("RULERUNNER_API_KEY", "from-env")
	t.Setenv("RULERUNNER_TIMEOUT", "1m")

	cfg, err := config.Load(viper.New(), writeConfig(t, `api-key = "from-file"`))
	r.NoError(err)
	r.Equal("from-env", cfg.APIKey)
	r.Equal(time.Minute, cfg.Timeout)
	r.Equal(config.DefaultBaseURL, cfg.BaseURL)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	r := require.New(t)
	t.Setenv("RULERUNNER_API_KEY", "from-env")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("api-key", "", "")
	flags.String("base-url", config.DefaultBaseURL, "")
	r.NoError(flags.Parse([]string{"--api-key", "from-flag"}))

	vip := viper.New()
	r.NoError(vip.BindPFlags(flags))

	cfg, err := config.Load(vip, writeConfig(t, `base-url = "https://staging.rulerunner.io"`))
	r.NoError(err)
	r.Equal("from-flag", cfg.APIKey)
	r.Equal("https://staging.rulerunner.io", cfg.BaseURL)
}
