package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rustyeddy/riskexec/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "trader",
	Short: "Risk-gated order planning and submission",
	Long: `Trader turns trade signals into sized, risk-checked orders.

It provides tools for:
  - Sizing positions by risk distance or percent of balance
  - Deriving stop and target levels from venue volatility
  - Enforcing a 2:1 reward:risk floor and a 2% per-trade cap
  - Submitting orders to practice or real accounts
  - Journaling accepted orders and serving the engine over HTTP

Venue credentials are read from the environment, optionally loaded from a
.env file.`,
	SilenceUsage: true,
}

var (
	cfgFile  string
	envFile  string
	logLevel string
)

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (YAML or JSON; defaults when unset)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file with venue credentials")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level from the config")
}

// loadConfig loads the env file and the config named by the global flags.
func loadConfig() (*config.Config, error) {
	if err := loadEnvFile(envFile); err != nil {
		return nil, fmt.Errorf("env file: %w", err)
	}

	cfg := config.Default()
	if cfgFile != "" {
		var err error
		if cfg, err = config.LoadFromFile(cfgFile); err != nil {
			return nil, err
		}
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	return cfg, nil
}

// loadEnvFile loads path if it exists. Variables already set win.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return godotenv.Load(path)
}
