package main

import (
	"fmt"
	"os"

	"github.com/jpalmerr/envmon/config"
	"github.com/jpalmerr/envmon/internal/climate"
	"github.com/jpalmerr/envmon/internal/dataset"
	"github.com/spf13/cobra"
)

// datasetCmd turns a raw sensor log into a labelled CSV.
var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Build a labelled CSV from a raw sensor log",
	Long: `Build a labelled CSV dataset from a raw sensor log.

Every "DATA,<temperature>,<humidity>" line in the input becomes a
temp,hum,label row where label is 0 (Normal), 1 (Warning) or 2 (Critical). Other lines are skipped. Thresholds come from the config
file when one is given, otherwise the defaults are used.

Example:
  envmon dataset --in raw_log.txt --out dataset.csv
  envmon dataset --in raw_log.txt --out dataset.csv -c config.yaml`,
	RunE: runDataset,
}

func init() {
	rootCmd.AddCommand(datasetCmd)

	datasetCmd.Flags().String("in", "", "raw sensor log (required)")
	datasetCmd.Flags().String("out", "", "output CSV file (required)")
	datasetCmd.Flags().StringP("config", "c", "", "config file to take thresholds from")
	_ = datasetCmd.MarkFlagRequired("in")
	_ = datasetCmd.MarkFlagRequired("out")
}

func runDataset(cmd *cobra.Command, args []string) error {
	inPath, _ := cmd.Flags().GetString("in")
	outPath, _ := cmd.Flags().GetString("out")
	configFile, _ := cmd.Flags().GetString("config")

	th := climate.DefaultThresholds()
	if configFile != "" {
		cfg, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		th = cfg.ClassifierThresholds()
	}

	in, err := os.Open(inPath)
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer in.Close()

	out, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}

	rows, err := dataset.Build(in, out, th)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("failed to build dataset: %w", err)
	}

	fmt.Printf("Wrote %d rows to %s\n", rows, outPath)
	return nil
}
