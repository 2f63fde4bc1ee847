package main

import (
	"fmt"

	"github.com/jpalmerr/envmon/config"
	"github.com/spf13/cobra"
)

// validateCmd validates a config file without starting the monitor.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate an envmon configuration file without starting the monitor.

This command parses the YAML, expands environment variables, and validates
all fields. It does not open the sensor or connect to telemetry brokers.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  envmon validate -c config.yaml
  envmon validate --config /etc/envmon/config.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	th := cfg.ClassifierThresholds()

	var sinks []string
	if cfg.Telemetry.Line != nil {
		sinks = append(sinks, "line")
	}
	if cfg.Telemetry.MQTT != nil {
		sinks = append(sinks, "mqtt")
	}
	if cfg.Telemetry.Redis != nil {
		sinks = append(sinks, "redis")
	}
	if cfg.Telemetry.Kafka != nil {
		sinks = append(sinks, "kafka")
	}

	fmt.Printf("Config is valid!\n")
	fmt.Printf("  Sensor:        %s\n", cfg.Sensor.Type)
	fmt.Printf("  Sample period: %s\n", cfg.SamplePeriod.Duration())
	fmt.Printf("  Warning at:    %.1f C / %.1f %%\n", th.Warning.Temperature, th.Warning.Humidity)
	fmt.Printf("  Critical at:   %.1f C / %.1f %%\n", th.Critical.Temperature, th.Critical.Humidity)
	if config.Enabled(cfg.Server.Enabled) {
		fmt.Printf("  Port:          %d\n", cfg.Server.Port)
	} else {
		fmt.Printf("  Port:          disabled\n")
	}
	fmt.Printf("  Telemetry:     %d sink(s) %v\n", len(sinks), sinks)

	return nil
}
