package hep

// Particle identifies a reconstructed object collection or a composite
// hypothesis object.
type Particle int

const (
	Vacuum Particle = iota
	Electron
	Muon
	Jet
	BJet
	SubJet
	BSubJet
	FatJet
	MET
	W
	H1
	H2
	ChargedHiggs
)

// String returns the output name used in histogram and column names.
func (p Particle) String() string {
	switch p {
	case Electron:
		return "Electron"
	case Muon:
		return "Muon"
	case Jet:
		return "Jet"
	case BJet:
		return "BJet"
	case SubJet:
		return "SubJet"
	case BSubJet:
		return "BSubJet"
	case FatJet:
		return "FatJet"
	case MET:
		return "MET"
	case W:
		return "W"
	case H1:
		return "H1"
	case H2:
		return "H2"
	case ChargedHiggs:
		return "HPlus"
	default:
		return ""
	}
}

// Prefix returns the column prefix of the collection backing p. Tagged
// collections share the columns of their untagged parents.
func (p Particle) Prefix() string {
	switch p {
	case BJet:
		return "Jet"
	case BSubJet:
		return "SubJet"
	default:
		return p.String()
	}
}

// IsLepton reports whether p is a charged lepton collection.
func (p Particle) IsLepton() bool {
	return p == Electron || p == Muon
}

// IsTagged reports whether p is a b-tagged view of a jet collection.
func (p Particle) IsTagged() bool {
	return p == BJet || p == BSubJet
}

// IsJagged reports whether p is stored as a per-event list of objects.
// MET and the hypothesis objects are stored as event scalars.
func (p Particle) IsJagged() bool {
	switch p {
	case Electron, Muon, Jet, BJet, SubJet, BSubJet, FatJet:
		return true
	default:
		return false
	}
}
