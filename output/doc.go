// Package output turns selected events into results: histograms, row
// frames and cutflow summaries.
//
// Histograms are filled by a HistFiller and merged across partitions.
// Row outputs are buffered in a Frame and streamed by a Sink, which hands
// each full batch of rows to a Formatter:
//
//   - TreeWriter: a parquet file with one double column per quantity,
//     one row group per batch
//   - CSVFormatter: comma separated values with a header row
//   - JSONFormatter: JSON Lines, one object per event
//
// Unavailable values are written as engine.Sentinel in frames and are
// counted in a histogram's Missing bin instead of being binned.
//
// # Basic Usage
//
//	frame := output.NewFrame(quantities, output.TreeColumns)
//	sink, err := output.NewSink(path, frame, 0, func(w io.Writer) (output.Formatter, error) {
//	    return output.NewTreeWriter(w, runID), nil
//	})
//	if err != nil {
//	    return err
//	}
//	for entry := range ctx.Len() {
//	    ev := ctx.Begin(entry)
//	    if chain.Apply(ev, cutflow) {
//	        if err := sink.Fill(ev); err != nil {
//	            _ = sink.Close()
//	            return err
//	        }
//	    }
//	}
//	return sink.Close()
package output
