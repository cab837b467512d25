// Package config defines the run configuration and how it is layered from
// defaults, a YAML file, the environment and command line flags.
package config

import (
	"fmt"
	"runtime"
	"slices"

	"github.com/vegasq/cutflow/internal/logging"
)

// ModelConfig locates the trained discriminants used when an event file
// carries no precomputed score.
type ModelConfig struct {
	// BaseDir is the root of the model resources.
	BaseDir string `koanf:"base_dir"`
	// ChannelDirs maps a channel to its directory below BaseDir. Each holds
	// one subdirectory per mass hypothesis.
	ChannelDirs map[string]string `koanf:"channel_dirs"`
	// Features are the input expressions of the models, in input order.
	Features []string `koanf:"features"`
}

// Config is the configuration of one run.
type Config struct {
	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`

	Channel    string   `koanf:"channel"`
	Inputs     []string `koanf:"inputs"`
	Parameters []string `koanf:"parameters"`
	Cuts       []string `koanf:"cuts"`
	// Output is the path prefix of every file the run writes.
	Output string `koanf:"output"`
	// CleanJet names the objects jets are cleaned against, e.g. "e/t".
	CleanJet string `koanf:"clean_jet"`
	// ExtraWeights are event weight columns multiplied into simulated
	// events.
	ExtraWeights []string `koanf:"extra_weights"`
	// FrameSuffix selects the row frame encoding and compression, e.g.
	// ".csv", ".csv.zst" or ".jsonl.gz".
	FrameSuffix string `koanf:"frame_suffix"`

	Workers    int     `koanf:"workers"`
	Fraction   float64 `koanf:"fraction"`
	PinThreads bool    `koanf:"pin_threads"`

	// MaxPartitionEntries caps the entries of one partition; zero lets
	// the partitions follow the worker count alone.
	MaxPartitionEntries int64 `koanf:"max_partition_entries"`

	// BatchRows is the number of selected rows buffered per output file.
	BatchRows int `koanf:"batch_rows"`

	MetricsFile string `koanf:"metrics_file"`

	Model ModelConfig `koanf:"model"`
}

// FrameSuffixes lists the accepted row frame file suffixes.
var FrameSuffixes = []string{".csv", ".csv.gz", ".csv.zst", ".jsonl", ".jsonl.gz", ".jsonl.zst"}

// New returns a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:    "info",
		LogFormat:   "text",
		Output:      "cutflow",
		FrameSuffix: ".csv",
		Workers:     runtime.NumCPU(),
		Fraction:    1,
		BatchRows:   4096,
		Model: ModelConfig{
			ChannelDirs: map[string]string{},
		},
	}
}

// Validate checks that the configuration can drive a run.
func (c *Config) Validate() error {
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if c.Channel == "" {
		return fmt.Errorf("%w: channel must not be empty", ErrInvalidConfig)
	}
	if len(c.Inputs) == 0 {
		return fmt.Errorf("%w: no inputs given", ErrInvalidConfig)
	}
	if c.Output == "" {
		return fmt.Errorf("%w: output must not be empty", ErrInvalidConfig)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidConfig, c.Workers)
	}
	if !(c.Fraction > 0 && c.Fraction <= 1) {
		return fmt.Errorf("%w: fraction must be in (0, 1], got %g", ErrInvalidConfig, c.Fraction)
	}
	if c.MaxPartitionEntries < 0 {
		return fmt.Errorf("%w: max_partition_entries must not be negative, got %d", ErrInvalidConfig, c.MaxPartitionEntries)
	}
	if c.BatchRows < 1 {
		return fmt.Errorf("%w: batch_rows must be positive, got %d", ErrInvalidConfig, c.BatchRows)
	}
	if !slices.Contains(FrameSuffixes, c.FrameSuffix) {
		return fmt.Errorf("%w: unsupported frame suffix %q", ErrInvalidConfig, c.FrameSuffix)
	}
	return nil
}
