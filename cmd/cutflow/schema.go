package main

import (
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/vegasq/cutflow/reader"
)

func newSchemaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema <dataset>",
		Short: "List the columns of a dataset channel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			channel, _ := cmd.Flags().GetString("channel")
			format, _ := cmd.Flags().GetString("format")

			ds, err := reader.OpenDataset(args[0])
			if err != nil {
				return err
			}
			infos, err := ds.ExtractSchemaInfo(channel)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			switch format {
			case "collections":
				table := tablewriter.NewWriter(w)
				table.SetHeader([]string{"Collection", "Shape", "Columns"})
				table.SetAutoWrapText(false)
				for _, c := range reader.Collections(infos) {
					shape := "scalar"
					if c.Jagged {
						shape = "jagged"
					}
					table.Append([]string{c.Name, shape, strings.Join(c.Columns, " ")})
				}
				table.Render()
			default:
				table := tablewriter.NewWriter(w)
				table.SetHeader([]string{"Column", "Type", "Shape", "Numeric"})
				for _, info := range infos {
					shape := "scalar"
					if info.Jagged {
						shape = "jagged"
					}
					numeric := "no"
					if info.Numeric {
						numeric = "yes"
					}
					table.Append([]string{info.Name, info.PhysicalType, shape, numeric})
				}
				table.Render()
			}

			if len(ds.Meta.Values) == 0 {
				return nil
			}
			keys := make([]string, 0, len(ds.Meta.Values))
			for k := range ds.Meta.Values {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			meta := tablewriter.NewWriter(w)
			meta.SetHeader([]string{"Metadata", "Value"})
			for _, k := range keys {
				meta.Append([]string{k, strconv.FormatFloat(ds.Meta.Values[k], 'g', -1, 64)})
			}
			meta.Render()
			return nil
		},
	}
	cmd.Flags().StringP("channel", "c", "", "analysis channel")
	cmd.Flags().String("format", "columns", "listing: columns or collections")
	_ = cmd.MarkFlagRequired("channel")
	return cmd
}
