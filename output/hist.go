package output

import (
	"fmt"

	"github.com/vegasq/cutflow/engine"
	"github.com/vegasq/cutflow/hist"
)

type histogram struct {
	q  *engine.Quantity
	h1 *hist.H1
	h2 *hist.H2
}

// HistFiller fills one histogram per quantity marked for histogramming.
// Quantities with a secondary axis fill a 2D histogram.
type HistFiller struct {
	hists       []histogram
	unavailable int
}

// NewHistFiller creates the histograms. Quantities without a histogram
// output are ignored.
func NewHistFiller(qs []*engine.Quantity) (*HistFiller, error) {
	f := &HistFiller{}
	for _, q := range qs {
		d := q.Descriptor()
		if !d.Hist || d.Binning == nil {
			continue
		}
		b := d.Binning
		x, err := hist.NewAxis(b.NX, b.XLow, b.XHigh)
		if err != nil {
			return nil, fmt.Errorf("histogram %s: %w", d.Name, err)
		}
		h := histogram{q: q}
		if q.Y() == nil {
			h.h1 = hist.NewH1(d.Name, d.Label, x)
		} else {
			y, err := hist.NewAxis(b.NY, b.YLow, b.YHigh)
			if err != nil {
				return nil, fmt.Errorf("histogram %s: %w", d.Name, err)
			}
			h.h2 = hist.NewH2(d.Name, d.Label+";"+d.Y.Label, x, y)
		}
		f.hists = append(f.hists, h)
	}
	return f, nil
}

// Fill adds the event with its running weight times each quantity's own
// weight.
func (f *HistFiller) Fill(ev *engine.Event) {
	for _, h := range f.hists {
		w := ev.Weight * h.q.Weight(ev)
		x := h.q.Value(ev)
		if h.h1 != nil {
			if !x.OK {
				f.unavailable++
				h.h1.FillMissing(w)
				continue
			}
			h.h1.Fill(x.V, w)
			continue
		}

		yq := h.q.Y()
		y := yq.Value(ev)
		w *= yq.Weight(ev)
		if !x.OK || !y.OK {
			f.unavailable++
			h.h2.FillMissing(w)
			continue
		}
		h.h2.Fill(x.V, y.V, w)
	}
}

// Unavailable returns how many fills had no value.
func (f *HistFiller) Unavailable() int {
	return f.unavailable
}

// AddTo stores the histograms in out, adding to same-named ones.
func (f *HistFiller) AddTo(out *hist.File) error {
	partial := hist.NewFile()
	for _, h := range f.hists {
		if h.h1 != nil {
			partial.H1[h.h1.Name] = h.h1
		} else {
			partial.H2[h.h2.Name] = h.h2
		}
	}
	return out.Merge(partial)
}
