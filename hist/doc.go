// Package hist implements the fixed-binned histograms the engine fills and
// reads back: 1D and 2D histograms with underflow and overflow bins, the
// labeled cutflow, and the msgpack file that stores them.
//
// The same File type is used for dataset metadata (generator counts,
// pileup profiles, cutflow seeds, b-tag efficiency maps) and for run
// outputs, so run outputs can be merged with Merge:
//
//	f, err := hist.Load("run.msgpack")
//	if err != nil {
//	    return err
//	}
//	h := f.H1["Pt_Electron_1"]
//	fmt.Println(h.Integral())
//
// Errors on bin contents are tracked as sums of squared weights. Divide
// does not propagate them.
package hist
