package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/RobertRuizz/AWS-Honeypot-with-AI-forecast/internal/config"
	"github.com/RobertRuizz/AWS-Honeypot-with-AI-forecast/internal/logger"
)

const defaultConfigPath = "configs/config.yaml"

var (
	cfgFile string
	cfg     *config.Config
	rootCmd = &cobra.Command{
		Use:   "attackcast",
		Short: "Honeypot attack category trends and forecasts",
		Long: `attackcast turns honeypot alert logs into daily attack-category trends.

It reduces raw exports to the timestamp and category columns, synthesizes daily
alert volumes over the reporting window, ranks the busiest categories and forecasts
the leading one with a weekly seasonal model.`,
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", defaultConfigPath, "Path to configuration file")

	rootCmd.AddCommand(cleanCmd())
	rootCmd.AddCommand(forecastCmd())
	rootCmd.AddCommand(runsCmd())
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(cmd *cobra.Command, _ []string) error {
	path := cfgFile
	// A missing default config file means defaults plus environment.
	if !cmd.Flags().Changed("config") {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			path = ""
		}
	}

	loaded, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := loaded.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	cfg = loaded

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	if path != "" {
		logger.Debug("Configuration loaded from %s", path)
	} else {
		logger.Debug("No configuration file, using defaults and environment")
	}
	return nil
}
