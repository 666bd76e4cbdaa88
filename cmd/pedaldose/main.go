// Package main implements the pedaldose CLI.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/calvinmclean/pedaldose/config"
	"github.com/calvinmclean/pedaldose/logger"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:          "pedaldose",
	Short:        "Pedal-driven dual stepper dispenser",
	SilenceUsage: true,
}

var (
	configPath string
	verbose    bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to pedaldose.toml (default $"+config.EnvPath+")")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log at debug level")

	rootCmd.AddCommand(runCmd, portsCmd, jogCmd)
}

func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return nil, err
	}

	if verbose {
		cfg.Log.Level = "debug"
	}
	return cfg, nil
}

// setup loads the config and its logger. The returned closer flushes the log output
func setup() (*config.Config, *slog.Logger, func() error, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("error loading config: %w", err)
	}

	log, closeLog, err := logger.New(cfg.Log)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, log, closeLog, nil
}
