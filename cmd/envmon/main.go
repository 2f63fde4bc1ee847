// Package main is the entry point for the envmon CLI.
//
// envmon can be run either as a library (SDK) or as a standalone binary
// with YAML configuration. This CLI provides the standalone binary approach.
//
// Usage:
//
//	envmon serve -c config.yaml                  # Run the monitor
//	envmon validate -c config.yaml               # Validate configuration
//	envmon dataset --in raw.log --out data.csv   # Label a raw sensor log
//	envmon version                               # Show version info
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
// It just displays help - actual functionality is in subcommands.
var rootCmd = &cobra.Command{
	Use:   "envmon",
	Short: "A single-board temperature and humidity monitor",
	Long: `envmon samples a temperature/humidity sensor, classifies each reading
as Normal, Warning or Critical, and drives a status LED, a humidity level
bar and a status display from the latest reading. A small web panel shows
the current state and lets you switch actuators on and off.

Quick start:
  1. Create a config file (envmon.yaml)
  2. Run: envmon serve -c envmon.yaml
  3. Open http://localhost:8080 in your browser

Example config:
  title: Greenhouse
  sample_period: 2s
  sensor:
    type: line
    path: /dev/ttyUSB0
  actuators: [fan, heater]`,
	SilenceUsage: true,
	// No Run/RunE means this just shows help when called without subcommands
}

// Execute runs the root command.
// This is the main entry point called from main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// newLogger creates a JSON logger on stderr at the --log-level level.
func newLogger(cmd *cobra.Command) (*slog.Logger, error) {
	name, _ := cmd.Flags().GetString("log-level")

	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(name))); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q", name)
	}

	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})), nil
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this envmon binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("envmon %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	// Register subcommands with root
	rootCmd.AddCommand(versionCmd)
}
