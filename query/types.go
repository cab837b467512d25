package query

import (
	"math"
	"strconv"

	"github.com/vegasq/cutflow/hep"
)

// Func identifies the quantity an expression computes.
type Func int

const (
	FuncNone Func = iota
	FuncPt
	FuncEta
	FuncPhi
	FuncMass
	FuncDeltaR
	FuncDeltaPhi
	FuncCount
	FuncHT
	FuncEventBits
	FuncDNN
	FuncConst
	FuncTau
	FuncHTag
	FuncDAK8
)

// Kinematic reports whether f reads one of the four momentum components.
func (f Func) Kinematic() bool {
	switch f {
	case FuncPt, FuncEta, FuncPhi, FuncMass:
		return true
	}
	return false
}

// Pairwise reports whether f combines two objects.
func (f Func) Pairwise() bool {
	return f == FuncDeltaR || f == FuncDeltaPhi
}

// Comparison is a cut operator.
type Comparison int

const (
	Bigger Comparison = iota
	BiggerEqual
	Equal
	SmallerEqual
	Smaller
	Divisible
	NotDivisible
)

// Symbol returns the operator as written in cut labels.
func (c Comparison) Symbol() string {
	switch c {
	case Bigger:
		return ">"
	case BiggerEqual:
		return ">="
	case Equal:
		return "=="
	case SmallerEqual:
		return "<="
	case Smaller:
		return "<"
	case Divisible:
		return "%"
	case NotDivisible:
		return "%!"
	default:
		return "?"
	}
}

// Apply reports whether value passes the comparison against threshold.
// Divisibility is tested on the truncated integers; a zero divisor never
// divides.
func (c Comparison) Apply(value, threshold float64) bool {
	switch c {
	case Bigger:
		return value > threshold
	case BiggerEqual:
		return value >= threshold
	case Equal:
		return value == threshold
	case SmallerEqual:
		return value <= threshold
	case Smaller:
		return value < threshold
	case Divisible, NotDivisible:
		d := int64(threshold)
		divides := d != 0 && int64(value)%d == 0
		if c == Divisible {
			return divides
		}
		return !divides
	}
	return false
}

// Operand is a reference to one object: the ordinal-th object of a
// collection that meets the tier floor.
type Operand struct {
	Particle hep.Particle
	Tier     hep.Tier
	// Index is 1-based.
	Index int
}

// Cut is the selection attached to an expression.
type Cut struct {
	Op        Comparison
	Threshold float64
}

// Binning is the fixed binning of a histogram output. NY is zero for 1D.
type Binning struct {
	NX    int
	XLow  float64
	XHigh float64
	NY    int
	YLow  float64
	YHigh float64
}

// Descriptor is a compiled expression. Descriptors are immutable once
// returned by the compiler and may be shared between goroutines.
type Descriptor struct {
	Expr     string
	Func     Func
	Value    float64
	HasValue bool
	Operands []Operand
	Cut      *Cut
	Binning  *Binning
	// Y is the quantity on the secondary axis of a 2D histogram.
	Y *Descriptor

	Hist bool
	Tree bool
	CSV  bool

	Name  string
	Label string
}

// CutLabel returns the cutflow bin label of the cut, or "" when the
// expression carries no cut.
func (d *Descriptor) CutLabel() string {
	if d.Cut == nil {
		return ""
	}
	return d.Label + " " + d.Cut.Op.Symbol() + " " + FormatNumber(d.Cut.Threshold)
}

// Operand returns the i-th operand, or the zero operand.
func (d *Descriptor) Operand(i int) Operand {
	if i < len(d.Operands) {
		return d.Operands[i]
	}
	return Operand{}
}

// FormatNumber formats v with the shortest representation, without
// trailing zeros.
func FormatNumber(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
