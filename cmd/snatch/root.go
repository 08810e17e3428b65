package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"snatch/internal/app"
	"snatch/internal/config"
)

type cli struct {
	v   *viper.Viper
	app *app.App
}

func newRootCmd() *cobra.Command {
	c := &cli{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:           "snatch",
		Short:         "Find business names that are still free to register",
		Long:          "snatch generates business name variants for a seed term, checks domain, trademark, business registry and social handle availability, and tracks per-account search quotas and plans.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations["skip-app"] == "true" {
				return nil
			}
			return c.open()
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			if c.app == nil {
				return nil
			}
			return c.app.Close()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("config", "config/config.yaml", "path to the YAML configuration")
	flags.String("db-type", "", "account store: gorm, sqlx or memory")
	flags.String("db-path", "", "SQLite database file")
	flags.String("probe-backend", "", "availability backend: simulated or http")
	flags.Bool("json", false, "print JSON instead of tables")
	flags.BoolP("verbose", "v", false, "log service activity to stderr")
	for _, name := range []string{"config", "db-type", "db-path", "probe-backend", "json", "verbose"} {
		_ = c.v.BindPFlag(name, flags.Lookup(name))
	}
	c.v.SetEnvPrefix("SNATCH")
	c.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.v.AutomaticEnv()

	rootCmd.AddCommand(
		newSignupCmd(c),
		newSearchCmd(c),
		newHistoryCmd(c),
		newStatsCmd(c),
		newUpgradeCmd(c),
		newBillingCmd(c),
		newClaimCmd(c),
		newSweepCmd(c),
		newConfigCmd(c),
	)

	return rootCmd
}

// loadConfig reads the YAML file and applies flag and SNATCH_* overrides
func (c *cli) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(c.v.GetString("config"))
	if errors.Is(err, os.ErrNotExist) {
		cfg, err = config.Default(), nil
	}
	if err != nil {
		return nil, err
	}

	if v := c.v.GetString("db-type"); v != "" {
		cfg.Database.Type = v
	}
	if v := c.v.GetString("db-path"); v != "" {
		cfg.Database.Path = v
	}
	if v := c.v.GetString("probe-backend"); v != "" {
		cfg.Probe.Backend = v
	}
	if v := c.v.GetString("jwt-secret"); v != "" {
		cfg.Auth.JWTSecret = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *cli) open() error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}

	logger := zap.NewNop()
	if c.v.GetBool("verbose") {
		if logger, err = zap.NewDevelopment(); err != nil {
			return err
		}
	}

	application, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	c.app = application
	return nil
}

func (c *cli) jsonOutput() bool {
	return c.v.GetBool("json")
}
