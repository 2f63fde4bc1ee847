package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpalmerr/envmon"
	"github.com/jpalmerr/envmon/config"
	"github.com/spf13/cobra"
)

const (
	shutdownTimeout = 10 * time.Second
)

// serveCmd starts the monitor.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the monitor",
	Long: `Run the envmon monitor.

The monitor will:
  - Load configuration from the specified YAML file
  - Sample the configured sensor on a fixed period
  - Drive the LED, level bar and display on the terminal
  - Publish readings to any configured telemetry sinks
  - Serve the override panel on the configured port

The monitor runs until interrupted (Ctrl+C) or receives SIGTERM.

Example:
  envmon serve -c config.yaml
  envmon serve --config /etc/envmon/config.yaml`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = serveCmd.MarkFlagRequired("config")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}

	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger.Info("config loaded",
		"sensor", cfg.Sensor.Type,
		"sample_period", cfg.SamplePeriod.Duration().String(),
		"actuators", len(cfg.Actuators),
	)

	// set up context with signal handling - cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts, cleanup, err := config.BuildOptions(ctx, cfg, os.Stdout, logger)
	if err != nil {
		return fmt.Errorf("failed to build monitor: %w", err)
	}
	defer cleanup()

	mon, err := envmon.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create monitor: %w", err)
	}

	if config.Enabled(cfg.Server.Enabled) {
		logger.Info("starting override panel", "port", mon.Port())
	}

	// start monitor - blocks until context cancelled
	errChan := make(chan error, 1)
	go func() {
		errChan <- mon.Start(ctx)
	}()

	// wait for monitor to finish
	select {
	case err := <-errChan:
		if err != nil {
			return fmt.Errorf("monitor error: %w", err)
		}
		logger.Info("shutdown complete")
		return nil

	case <-ctx.Done():
		// signal received, wait for graceful shutdown with timeout
		select {
		case err := <-errChan:
			if err != nil {
				return fmt.Errorf("monitor error: %w", err)
			}
			logger.Info("shutdown complete", "stats", mon.Stats())
			return nil
		case <-time.After(shutdownTimeout):
			logger.Warn("shutdown timed out",
				"timeout", shutdownTimeout.String(),
				"action", "forcing exit",
			)
			return nil
		}
	}
}
