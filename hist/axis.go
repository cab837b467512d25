package hist

import (
	"errors"
	"fmt"
)

// ErrBinningMismatch is returned when two histograms with different axes
// are combined.
var ErrBinningMismatch = errors.New("histogram binning mismatch")

// Axis is a fixed-width binning. Bin 0 is the underflow bin and bin N+1
// the overflow bin.
type Axis struct {
	N    int     `msgpack:"n"`
	Low  float64 `msgpack:"low"`
	High float64 `msgpack:"high"`
}

// NewAxis returns an axis, rejecting empty or inverted ranges.
func NewAxis(n int, low, high float64) (Axis, error) {
	if n <= 0 {
		return Axis{}, fmt.Errorf("invalid bin count %d", n)
	}
	if !(high > low) {
		return Axis{}, fmt.Errorf("invalid axis range [%g, %g)", low, high)
	}
	return Axis{N: n, Low: low, High: high}, nil
}

// FindBin returns the bin holding x.
func (a Axis) FindBin(x float64) int {
	switch {
	case x < a.Low:
		return 0
	case x >= a.High:
		return a.N + 1
	}
	bin := 1 + int(float64(a.N)*(x-a.Low)/(a.High-a.Low))
	if bin > a.N {
		bin = a.N
	}
	return bin
}

// Width returns the width of a single bin.
func (a Axis) Width() float64 {
	return (a.High - a.Low) / float64(a.N)
}

// Center returns the center of bin.
func (a Axis) Center(bin int) float64 {
	return a.Low + (float64(bin)-0.5)*a.Width()
}

func (a Axis) cells() int {
	return a.N + 2
}
