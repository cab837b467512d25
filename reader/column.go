package reader

import "math"

// Column is a materialized numeric column of a partition. Scalar columns
// hold one value per entry; jagged columns hold a list per entry.
type Column struct {
	Name   string
	Jagged bool
	starts []int
	values []float64
}

func (c *Column) startRow() {
	c.starts = append(c.starts, len(c.values))
}

func (c *Column) append(v float64) {
	c.values = append(c.values, v)
}

// Rows returns the number of entries held.
func (c *Column) Rows() int {
	return len(c.starts)
}

func (c *Column) bounds(entry int) (int, int) {
	if entry < 0 || entry >= len(c.starts) {
		return 0, 0
	}
	hi := len(c.values)
	if entry+1 < len(c.starts) {
		hi = c.starts[entry+1]
	}
	return c.starts[entry], hi
}

// Len returns the number of values stored for entry.
func (c *Column) Len(entry int) int {
	lo, hi := c.bounds(entry)
	return hi - lo
}

// Row returns the values of entry. The slice aliases column storage.
func (c *Column) Row(entry int) []float64 {
	lo, hi := c.bounds(entry)
	return c.values[lo:hi:hi]
}

// At returns the i-th value of entry.
func (c *Column) At(entry, i int) (float64, bool) {
	lo, hi := c.bounds(entry)
	if i < 0 || lo+i >= hi {
		return 0, false
	}
	v := c.values[lo+i]
	return v, !math.IsNaN(v)
}

// Scalar returns the first value of entry; null scalars are reported as
// unavailable.
func (c *Column) Scalar(entry int) (float64, bool) {
	return c.At(entry, 0)
}
