package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/vegasq/cutflow/engine"
	"github.com/vegasq/cutflow/internal/config"
	"github.com/vegasq/cutflow/internal/metrics"
	"github.com/vegasq/cutflow/model"
	"github.com/vegasq/cutflow/output"
	"github.com/vegasq/cutflow/query"
	"github.com/vegasq/cutflow/reader"
	"github.com/vegasq/cutflow/scan"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Select events and fill histograms, trees and frames",
		Example: `  cutflow run -c Ele4J -i 'data/TT*' \
    --cut 'f:n=N/p:n=e,wp=t/c:n=equal,v=1' \
    --cut 'pt_e1/c:n=bigger,v=30' \
    --param 'f:n=HT/h:' --param 'pt_e1/h:/t:' -o out/Ele4J`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger, err := newLogger(cmd, cfg)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer cancel()
			return run(ctx, cmd, cfg, logger)
		},
	}
	addSelectionFlags(cmd)
	cmd.Flags().StringArrayP("param", "p", nil, "output expression (repeatable)")
	cmd.Flags().StringArray("cut", nil, "cut expression, applied in order (repeatable)")
	cmd.Flags().StringP("output", "o", "", "output path prefix")
	cmd.Flags().String("clean-jet", "", "clean jets against leptons, e.g. e/t")
	cmd.Flags().StringArray("extra-weight", nil, "event weight column for simulation (repeatable)")
	cmd.Flags().String("frame-suffix", "", "row frame suffix: .csv, .csv.gz, .csv.zst, .jsonl, ...")
	cmd.Flags().Int("batch-rows", 0, "selected rows buffered per output file before writing (default 4096)")
	cmd.Flags().Bool("pin-threads", false, "pin partition workers to CPUs")
	cmd.Flags().String("metrics-file", "", "write Prometheus metrics to this file when done")
	return cmd
}

func run(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) error {
	compiler := query.NewCompiler(query.DefaultTables())
	params, err := compiler.CompileAll(cfg.Parameters)
	if err != nil {
		return err
	}
	cuts, err := compiler.CompileCuts(cfg.Cuts)
	if err != nil {
		return err
	}
	clean, err := engine.ParseCleanRef(cfg.CleanJet, compiler.Tables())
	if err != nil {
		return err
	}

	opts := scan.Options{
		Parameters:   params,
		Cuts:         cuts,
		Clean:        clean,
		ExtraWeights: cfg.ExtraWeights,
		Output:       cfg.Output,
		FrameSuffix:  cfg.FrameSuffix,
		BatchRows:    cfg.BatchRows,
		PinThreads:   cfg.PinThreads,
		Metrics:      metrics.NewManager(),
		Logger:       logger,
	}
	if err := loadModels(cfg, compiler, &opts, logger); err != nil {
		return err
	}

	dirs, err := reader.ExpandInputs(cfg.Inputs)
	if err != nil {
		return err
	}
	plan, err := scan.NewPlan(dirs, cfg.Channel, cfg.Workers, cfg.Fraction, logger)
	if err != nil {
		return err
	}
	plan.Split(cfg.MaxPartitionEntries)

	res, err := scan.NewRunner(plan, opts).Run(ctx)
	if err != nil {
		return err
	}

	if cf := res.Cutflow(cfg.Channel); cf != nil {
		output.RenderCutflow(cmd.OutOrStdout(), cf)
	}
	for _, f := range res.Files {
		fmt.Fprintln(cmd.OutOrStdout(), f)
	}
	if cfg.MetricsFile != "" {
		return opts.Metrics.WriteTextfile(cfg.MetricsFile)
	}
	return nil
}

// loadModels opens the channel's models when a model directory is
// configured for it.
func loadModels(cfg *config.Config, compiler *query.Compiler, opts *scan.Options, logger *slog.Logger) error {
	dir, ok := cfg.Model.ChannelDirs[cfg.Channel]
	if cfg.Model.BaseDir == "" || !ok {
		return nil
	}
	features, err := compiler.CompileAll(cfg.Model.Features)
	if err != nil {
		return fmt.Errorf("model features: %w", err)
	}
	registry, err := model.Open(cfg.Model.BaseDir, dir, logger)
	if err != nil {
		return err
	}
	if err := registry.CheckInputs(len(features)); err != nil {
		return err
	}
	opts.Models = registry
	opts.Features = features
	return nil
}
