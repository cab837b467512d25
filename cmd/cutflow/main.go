// Command cutflow selects events from columnar datasets and fills
// histograms, cutflows and row outputs from selection expressions.
//
// Logging:
//   - The base logger is created here from the configured format and level
//   - It is passed to every component; nothing calls slog.SetDefault
//   - Components scope the logger with their own attributes
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vegasq/cutflow/internal/config"
	"github.com/vegasq/cutflow/internal/logging"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "cutflow",
		Short:        "Expression driven event selection over columnar datasets",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().String("config", "", "YAML configuration file (default: $CUTFLOW_CONFIG)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "", "log format: text or json")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}

	rootCmd.AddCommand(newRunCmd(), newPlanCmd(), newMergeCmd(), newSchemaCmd(), versionCmd)
	return rootCmd
}

// loadConfig layers the configuration file, the environment and the
// flags that were set on cmd.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	applyFlags(cmd, cfg)
	return cfg, nil
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	str := func(name string, dst *string) {
		if flags.Lookup(name) != nil && flags.Changed(name) {
			*dst, _ = flags.GetString(name)
		}
	}
	list := func(name string, dst *[]string) {
		if flags.Lookup(name) != nil && flags.Changed(name) {
			*dst, _ = flags.GetStringArray(name)
		}
	}

	str("log-level", &cfg.LogLevel)
	str("log-format", &cfg.LogFormat)
	str("channel", &cfg.Channel)
	str("output", &cfg.Output)
	str("clean-jet", &cfg.CleanJet)
	str("frame-suffix", &cfg.FrameSuffix)
	str("metrics-file", &cfg.MetricsFile)
	list("input", &cfg.Inputs)
	list("param", &cfg.Parameters)
	list("cut", &cfg.Cuts)
	list("extra-weight", &cfg.ExtraWeights)

	if flags.Lookup("workers") != nil && flags.Changed("workers") {
		cfg.Workers, _ = flags.GetInt("workers")
	}
	if flags.Lookup("fraction") != nil && flags.Changed("fraction") {
		cfg.Fraction, _ = flags.GetFloat64("fraction")
	}
	if flags.Lookup("max-partition-entries") != nil && flags.Changed("max-partition-entries") {
		cfg.MaxPartitionEntries, _ = flags.GetInt64("max-partition-entries")
	}
	if flags.Lookup("batch-rows") != nil && flags.Changed("batch-rows") {
		cfg.BatchRows, _ = flags.GetInt("batch-rows")
	}
	if flags.Lookup("pin-threads") != nil && flags.Changed("pin-threads") {
		cfg.PinThreads, _ = flags.GetBool("pin-threads")
	}
}

func newLogger(cmd *cobra.Command, cfg *config.Config) (*slog.Logger, error) {
	return logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
}

// addSelectionFlags registers the flags shared by run and plan.
func addSelectionFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("channel", "c", "", "analysis channel, the event file name inside each dataset")
	cmd.Flags().StringArrayP("input", "i", nil, "dataset directory or glob pattern (repeatable)")
	cmd.Flags().IntP("workers", "j", 0, "number of partitions to scan in parallel (default: number of CPUs)")
	cmd.Flags().Float64("fraction", 0, "fraction of each dataset to scan, in (0, 1]")
	cmd.Flags().Int64("max-partition-entries", 0, "split partitions longer than this many entries (0: no limit)")
}
