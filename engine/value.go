package engine

// Sentinel is recorded in row outputs for unavailable values.
const Sentinel = -999.0

// Value is the result of evaluating a quantity for one event.
type Value struct {
	V  float64
	OK bool
}

// Available wraps a computed value.
func Available(v float64) Value {
	return Value{V: v, OK: true}
}

// Recorded returns the value, or Sentinel when it is unavailable.
func (v Value) Recorded() float64 {
	if !v.OK {
		return Sentinel
	}
	return v.V
}
