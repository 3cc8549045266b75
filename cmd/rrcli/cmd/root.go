package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rulerunner/rulerunner-go/client"
	"github.com/rulerunner/rulerunner-go/config"
)

var (
	Version = "0.0.0"
	Commit  = ""
)

// cli holds the state shared by the commands of one root command.
type cli struct {
	vip      *viper.Viper
	cfgFile  string
	logLevel string
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func NewRootCmd() *cobra.Command {
	c := &cli{vip: viper.New()}

	rootCmd := &cobra.Command{
		Use:   "rrcli",
		Short: "Check addresses against the RuleRunner sanctions lists",
		Long: `rrcli queries the RuleRunner compliance service and verifies the
Merkle proofs it returns locally, without trusting the service.`,
		Version:      fmt.Sprintf("%s (%s)", Version, Commit),
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&c.cfgFile, "config", "", fmt.Sprintf("path to configuration file (default %s)", config.DefaultConfigFile))
	flags.String("api-key", "", "RuleRunner API key (env "+config.EnvPrefix+"_API_KEY)")
	flags.String("base-url", config.DefaultBaseURL, "RuleRunner API base URL")
	flags.Duration("timeout", config.DefaultTimeout, "request timeout")
	flags.StringVar(&c.logLevel, "log-level", zapcore.InfoLevel.String(), "log level (debug, info, warn, error, dpanic, panic, fatal)")

	for _, name := range []string{"api-key", "base-url", "timeout"} {
		if err := c.vip.BindPFlag(name, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}

	rootCmd.AddCommand(
		c.newHealthCmd(),
		c.newCheckCmd(),
		c.newVerifyCmd(),
		newTreeCmd(),
		c.newConfigCmd(),
	)
	return rootCmd
}

func (c *cli) loadConfig() (config.Config, error) {
	return config.Load(c.vip, c.cfgFile)
}

func (c *cli) logger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.logLevel)
	if err != nil {
		return nil, err
	}

	zapCfg := zap.Config{
		Level:    zap.NewAtomicLevelAt(level),
		Encoding: "console",
		EncoderConfig: zapcore.EncoderConfig{
			TimeKey:        "T",
			LevelKey:       "L",
			NameKey:        "N",
			MessageKey:     "M",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.CapitalLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.StringDurationEncoder,
		},
		// stdout carries command output
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}
	return zapCfg.Build()
}

func (c *cli) client() (*client.Client, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := c.logger()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize zap logger: %w", err)
	}
	return client.New(cfg, client.WithLogger(logger.Named("client")))
}
