package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/vegasq/cutflow/hist"
	"github.com/vegasq/cutflow/output"
)

func newMergeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "merge -o <out.msgpack> <in.msgpack>...",
		Short: "Add histogram files together",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("output")
			quiet, _ := cmd.Flags().GetBool("quiet")
			if out == "" {
				return fmt.Errorf("merge: --output is required")
			}

			merged := hist.NewFile()
			for _, path := range args {
				f, err := hist.Load(path)
				if err != nil {
					return err
				}
				if err := merged.Merge(f); err != nil {
					return fmt.Errorf("merge %s: %w", path, err)
				}
			}
			if err := merged.Save(out); err != nil {
				return err
			}

			if quiet {
				return nil
			}
			names := make([]string, 0, len(merged.Cutflows))
			for name := range merged.Cutflows {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
				output.RenderCutflow(cmd.OutOrStdout(), merged.Cutflows[name])
			}
			return nil
		},
	}
	cmd.Flags().StringP("output", "o", "", "merged histogram file")
	cmd.Flags().BoolP("quiet", "q", false, "do not print the merged cutflows")
	return cmd
}
