package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"narrative_framework/config"
	"narrative_framework/logging"
	"narrative_framework/metrics"
)

var (
	rootCmd = &cobra.Command{
		Use:           "narrative",
		Short:         "Compose EMS incident narratives from structured call records",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	envFile  string
	logLevel string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: ")+err.Error())
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(scenarioCmd)
	rootCmd.AddCommand(similarityCmd)
}

// setup loads the environment and configuration shared by every command.
func setup() (config.Config, *logging.Logger, *metrics.Metrics, error) {
	if err := config.LoadDotEnv(envFile); err != nil {
		return config.Config{}, nil, nil, fmt.Errorf("load %s: %w", envFile, err)
	}
	cfg, err := config.Load()
	if err != nil {
		return cfg, nil, nil, err
	}
	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	return cfg, logging.New(level), metrics.New(), nil
}
