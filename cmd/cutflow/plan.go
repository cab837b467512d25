package main

import (
	"path/filepath"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/vegasq/cutflow/reader"
	"github.com/vegasq/cutflow/scan"
)

func newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show how the inputs would be partitioned",
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

			dirs, err := reader.ExpandInputs(cfg.Inputs)
			if err != nil {
				return err
			}
			plan, err := scan.NewPlan(dirs, cfg.Channel, cfg.Workers, cfg.Fraction, logger)
			if err != nil {
				return err
			}
			plan.Split(cfg.MaxPartitionEntries)

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetHeader([]string{"Partition", "Dataset", "Start", "End", "Entries"})
			for _, p := range plan.Partitions {
				table.Append([]string{
					strconv.Itoa(p.ID),
					filepath.Base(p.Dir),
					strconv.FormatInt(p.Start, 10),
					strconv.FormatInt(p.End, 10),
					strconv.FormatInt(p.Len(), 10),
				})
			}
			table.SetFooter([]string{"", "", "", "Total", strconv.FormatInt(plan.Entries(), 10)})
			table.Render()
			return nil
		},
	}
	addSelectionFlags(cmd)
	return cmd
}
