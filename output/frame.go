package output

import (
	"github.com/vegasq/cutflow/engine"
	"github.com/vegasq/cutflow/query"
)

// TreeColumns selects the quantities written to the parquet tree.
func TreeColumns(d *query.Descriptor) bool { return d.Tree }

// CSVColumns selects the quantities written to the row frame.
func CSVColumns(d *query.Descriptor) bool { return d.CSV }

// Frame holds one row per selected event of a partition. Column names
// are the quantity names; a name seen twice keeps its first quantity.
type Frame struct {
	Columns []string
	Rows    [][]float64

	quantities  []*engine.Quantity
	unavailable int
}

// NewFrame builds a frame over the quantities accepted by pick.
func NewFrame(qs []*engine.Quantity, pick func(*query.Descriptor) bool) *Frame {
	f := &Frame{}
	seen := make(map[string]bool)
	for _, q := range qs {
		d := q.Descriptor()
		if !pick(d) || seen[d.Name] {
			continue
		}
		seen[d.Name] = true
		f.Columns = append(f.Columns, d.Name)
		f.quantities = append(f.quantities, q)
	}
	return f
}

// Empty reports whether the frame has no columns.
func (f *Frame) Empty() bool {
	return len(f.Columns) == 0
}

// Fill appends the event's row.
func (f *Frame) Fill(ev *engine.Event) {
	if f.Empty() {
		return
	}
	row := make([]float64, len(f.quantities))
	for i, q := range f.quantities {
		v := q.Value(ev)
		if !v.OK {
			f.unavailable++
		}
		row[i] = v.Recorded()
	}
	f.Rows = append(f.Rows, row)
}

// Reset drops the buffered rows. The unavailable count is kept.
func (f *Frame) Reset() {
	clear(f.Rows)
	f.Rows = f.Rows[:0]
}

// Unavailable returns how many values were recorded as the sentinel.
func (f *Frame) Unavailable() int {
	return f.unavailable
}
