package hist

import "fmt"

// H1 is a one dimensional weighted histogram.
type H1 struct {
	Name    string    `msgpack:"name"`
	Title   string    `msgpack:"title"`
	X       Axis      `msgpack:"x"`
	SumW    []float64 `msgpack:"sumw"`
	SumW2   []float64 `msgpack:"sumw2"`
	Entries int64     `msgpack:"entries"`
	// Missing is the summed weight of fills whose value was unavailable.
	Missing float64 `msgpack:"missing"`
}

// NewH1 creates an empty histogram.
func NewH1(name, title string, x Axis) *H1 {
	return &H1{
		Name:  name,
		Title: title,
		X:     x,
		SumW:  make([]float64, x.cells()),
		SumW2: make([]float64, x.cells()),
	}
}

// Fill adds weight w at x.
func (h *H1) Fill(x, w float64) {
	bin := h.X.FindBin(x)
	h.SumW[bin] += w
	h.SumW2[bin] += w * w
	h.Entries++
}

// FillMissing records a fill whose value could not be computed.
func (h *H1) FillMissing(w float64) {
	h.Missing += w
}

// FindBin returns the bin holding x.
func (h *H1) FindBin(x float64) int {
	return h.X.FindBin(x)
}

// Content returns the summed weight in bin.
func (h *H1) Content(bin int) float64 {
	if bin < 0 || bin >= len(h.SumW) {
		return 0
	}
	return h.SumW[bin]
}

// Lookup returns the content of the bin holding x and whether x lies
// inside the axis range.
func (h *H1) Lookup(x float64) (float64, bool) {
	bin := h.X.FindBin(x)
	if bin == 0 || bin == h.X.N+1 {
		return 0, false
	}
	return h.SumW[bin], true
}

// Integral returns the summed weight of the in-range bins.
func (h *H1) Integral() float64 {
	var sum float64
	for bin := 1; bin <= h.X.N; bin++ {
		sum += h.SumW[bin]
	}
	return sum
}

// Scale multiplies every bin by f.
func (h *H1) Scale(f float64) {
	for i := range h.SumW {
		h.SumW[i] *= f
		h.SumW2[i] *= f * f
	}
	h.Missing *= f
}

// Add adds o bin by bin.
func (h *H1) Add(o *H1) error {
	if h.X != o.X {
		return fmt.Errorf("%w: %s", ErrBinningMismatch, h.Name)
	}
	for i := range h.SumW {
		h.SumW[i] += o.SumW[i]
		h.SumW2[i] += o.SumW2[i]
	}
	h.Entries += o.Entries
	h.Missing += o.Missing
	return nil
}

// Divide divides h by o bin by bin. Bins with an empty denominator are
// set to zero.
func (h *H1) Divide(o *H1) error {
	if h.X != o.X {
		return fmt.Errorf("%w: %s", ErrBinningMismatch, h.Name)
	}
	for i := range h.SumW {
		if o.SumW[i] == 0 {
			h.SumW[i] = 0
		} else {
			h.SumW[i] /= o.SumW[i]
		}
		h.SumW2[i] = 0
	}
	return nil
}

// Clone returns a deep copy of h renamed to name.
func (h *H1) Clone(name string) *H1 {
	c := *h
	c.Name = name
	c.SumW = append([]float64(nil), h.SumW...)
	c.SumW2 = append([]float64(nil), h.SumW2...)
	return &c
}
