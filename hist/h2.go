package hist

import "fmt"

// H2 is a two dimensional weighted histogram. Cells are stored row-major
// with the x bin varying fastest.
type H2 struct {
	Name    string    `msgpack:"name"`
	Title   string    `msgpack:"title"`
	X       Axis      `msgpack:"x"`
	Y       Axis      `msgpack:"y"`
	SumW    []float64 `msgpack:"sumw"`
	SumW2   []float64 `msgpack:"sumw2"`
	Entries int64     `msgpack:"entries"`
	Missing float64   `msgpack:"missing"`
}

// NewH2 creates an empty histogram.
func NewH2(name, title string, x, y Axis) *H2 {
	n := x.cells() * y.cells()
	return &H2{
		Name:  name,
		Title: title,
		X:     x,
		Y:     y,
		SumW:  make([]float64, n),
		SumW2: make([]float64, n),
	}
}

func (h *H2) cell(bx, by int) int {
	return by*h.X.cells() + bx
}

// Fill adds weight w at (x, y).
func (h *H2) Fill(x, y, w float64) {
	c := h.cell(h.X.FindBin(x), h.Y.FindBin(y))
	h.SumW[c] += w
	h.SumW2[c] += w * w
	h.Entries++
}

// FillMissing records a fill where either coordinate was unavailable.
func (h *H2) FillMissing(w float64) {
	h.Missing += w
}

// FindBin returns the x and y bins holding (x, y).
func (h *H2) FindBin(x, y float64) (int, int) {
	return h.X.FindBin(x), h.Y.FindBin(y)
}

// Content returns the summed weight of cell (bx, by).
func (h *H2) Content(bx, by int) float64 {
	if bx < 0 || bx >= h.X.cells() || by < 0 || by >= h.Y.cells() {
		return 0
	}
	return h.SumW[h.cell(bx, by)]
}

// Lookup returns the content at (x, y) and whether the point lies inside
// both axis ranges.
func (h *H2) Lookup(x, y float64) (float64, bool) {
	bx, by := h.FindBin(x, y)
	if bx == 0 || bx == h.X.N+1 || by == 0 || by == h.Y.N+1 {
		return 0, false
	}
	return h.SumW[h.cell(bx, by)], true
}

// Integral returns the summed weight of the in-range cells.
func (h *H2) Integral() float64 {
	var sum float64
	for by := 1; by <= h.Y.N; by++ {
		for bx := 1; bx <= h.X.N; bx++ {
			sum += h.SumW[h.cell(bx, by)]
		}
	}
	return sum
}

// Scale multiplies every cell by f.
func (h *H2) Scale(f float64) {
	for i := range h.SumW {
		h.SumW[i] *= f
		h.SumW2[i] *= f * f
	}
	h.Missing *= f
}

func (h *H2) compatible(o *H2) error {
	if h.X != o.X || h.Y != o.Y {
		return fmt.Errorf("%w: %s", ErrBinningMismatch, h.Name)
	}
	return nil
}

// Add adds o cell by cell.
func (h *H2) Add(o *H2) error {
	if err := h.compatible(o); err != nil {
		return err
	}
	for i := range h.SumW {
		h.SumW[i] += o.SumW[i]
		h.SumW2[i] += o.SumW2[i]
	}
	h.Entries += o.Entries
	h.Missing += o.Missing
	return nil
}

// Divide divides h by o cell by cell. Cells with an empty denominator are
// set to zero.
func (h *H2) Divide(o *H2) error {
	if err := h.compatible(o); err != nil {
		return err
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
func (h *H2) Clone(name string) *H2 {
	c := *h
	c.Name = name
	c.SumW = append([]float64(nil), h.SumW...)
	c.SumW2 = append([]float64(nil), h.SumW2...)
	return &c
}
