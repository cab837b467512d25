package hep

import "math"

// Vector is a 4-momentum in collider coordinates.
type Vector struct {
	Pt  float64
	Eta float64
	Phi float64
	M   float64
}

// Px returns the x component of the momentum.
func (v Vector) Px() float64 { return v.Pt * math.Cos(v.Phi) }

// Py returns the y component of the momentum.
func (v Vector) Py() float64 { return v.Pt * math.Sin(v.Phi) }

// Pz returns the z component of the momentum.
func (v Vector) Pz() float64 { return v.Pt * math.Sinh(v.Eta) }

// E returns the energy.
func (v Vector) E() float64 {
	p := v.Pt * math.Cosh(v.Eta)
	return math.Sqrt(p*p + v.M*v.M)
}

// DeltaR returns the distance to o in the eta-phi plane.
func (v Vector) DeltaR(o Vector) float64 {
	return DeltaR(v.Eta, v.Phi, o.Eta, o.Phi)
}

// DeltaPhi returns the azimuthal opening angle to o.
func (v Vector) DeltaPhi(o Vector) float64 {
	return DeltaPhi(v.Phi, o.Phi)
}

// DeltaPhi returns the opening angle between two azimuthal directions,
// always in [0, pi].
func DeltaPhi(phi1, phi2 float64) float64 {
	c := math.Cos(phi1)*math.Cos(phi2) + math.Sin(phi1)*math.Sin(phi2)
	// rounding can push the dot product just outside [-1, 1]
	c = math.Max(-1, math.Min(1, c))
	return math.Acos(c)
}

// DeltaR returns the Euclidean distance in the eta-phi plane. The phi
// difference is not wrapped.
func DeltaR(eta1, phi1, eta2, phi2 float64) float64 {
	return math.Hypot(eta1-eta2, phi1-phi2)
}
