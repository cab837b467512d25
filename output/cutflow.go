package output

import (
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/vegasq/cutflow/hist"
)

// RenderCutflow prints a cutflow as a table with the weighted count and
// the efficiency relative to the previous and to the first step.
func RenderCutflow(w io.Writer, cf *hist.Cutflow) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Step", "Selection", "Events", "Rel. eff", "Cum. eff"})
	table.SetAutoWrapText(false)

	for i, label := range cf.Labels {
		rel, cum := "", ""
		if i > 0 {
			rel = percent(cf.SumW[i], cf.SumW[i-1])
			cum = percent(cf.SumW[i], cf.SumW[0])
		}
		table.Append([]string{
			strconv.Itoa(i),
			label,
			strconv.FormatFloat(cf.SumW[i], 'g', 6, 64),
			rel,
			cum,
		})
	}
	table.Render()
}

func percent(num, den float64) string {
	if den == 0 {
		return "-"
	}
	return strconv.FormatFloat(100*num/den, 'f', 2, 64) + "%"
}
