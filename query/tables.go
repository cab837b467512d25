package query

import (
	"math"
	"strings"

	"github.com/vegasq/cutflow/hep"
)

// ValueMode tells whether a function takes the v= literal.
type ValueMode int

const (
	NoValue ValueMode = iota
	OptionalValue
	RequiredValue
)

// FunctionInfo describes one entry of the function table.
type FunctionInfo struct {
	Name string
	Func Func
	// Label is a template; each '@' is replaced in order by the literal
	// (when the function takes one) and then by the operand labels.
	Label        string
	MinOperands  int
	MaxOperands  int
	Value        ValueMode
	DefaultValue float64
	Default      Binning
}

// ParticleInfo describes one entry of the particle table.
type ParticleInfo struct {
	Name     string
	Particle hep.Particle
	// Label holds one '@' for the ordinal of indexed collections.
	Label string
}

// Tables holds the name tables the compiler resolves against. Build them
// once with DefaultTables and share them; they are never modified.
type Tables struct {
	functions   map[string]FunctionInfo
	byFunc      map[Func]FunctionInfo
	particles   map[string]ParticleInfo
	byParticle  map[hep.Particle]ParticleInfo
	tiers       map[string]hep.Tier
	comparisons map[string]Comparison
}

func oneD(n int, lo, hi float64) Binning {
	return Binning{NX: n, XLow: lo, XHigh: hi}
}

// DefaultTables returns the standard function, particle, tier and
// comparison tables.
func DefaultTables() *Tables {
	functions := []FunctionInfo{
		{Name: "Pt", Func: FuncPt, Label: "p_{T}(@) [GeV]", MinOperands: 1, MaxOperands: 1, Default: oneD(30, 0, 500)},
		{Name: "Eta", Func: FuncEta, Label: "#eta(@) [rad]", MinOperands: 1, MaxOperands: 1, Default: oneD(30, -2.5, 2.5)},
		{Name: "Phi", Func: FuncPhi, Label: "#phi(@) [rad]", MinOperands: 1, MaxOperands: 1, Default: oneD(30, -math.Pi, math.Pi)},
		{Name: "Mass", Func: FuncMass, Label: "m(@) [GeV]", MinOperands: 1, MaxOperands: 1, Default: oneD(30, 0, 600)},
		{Name: "dR", Func: FuncDeltaR, Label: "#Delta R(@, @) [rad]", MinOperands: 2, MaxOperands: 2, Default: oneD(30, 0, 6)},
		{Name: "dPhi", Func: FuncDeltaPhi, Label: "#Delta #phi(@, @) [rad]", MinOperands: 2, MaxOperands: 2, Default: oneD(30, 0, math.Pi)},
		{Name: "N", Func: FuncCount, Label: "N(@)", MinOperands: 1, MaxOperands: 1, Default: oneD(10, 0, 10)},
		{Name: "HT", Func: FuncHT, Label: "H_{T} [GeV]", Default: oneD(30, 0, 1000)},
		{Name: "EvNr", Func: FuncEventBits, Label: "Event number", Default: oneD(32, 0, 32)},
		{Name: "DNN", Func: FuncDNN, Label: "DNN score(m_{H^{#pm}} = @ GeV)", Value: RequiredValue, Default: oneD(30, 0, 1)},
		{Name: "Const", Func: FuncConst, Label: "Bin number", Value: OptionalValue, DefaultValue: 1, Default: oneD(1, 0, 2)},
		{Name: "Tau", Func: FuncTau, Label: "#tau_{@}(@)", MinOperands: 1, MaxOperands: 1, Value: OptionalValue, DefaultValue: 2, Default: oneD(30, 0, 1)},
		{Name: "HTag", Func: FuncHTag, Label: "Higgs score(@)", MinOperands: 1, MaxOperands: 1, Default: oneD(30, 0, 1)},
		{Name: "DAK8", Func: FuncDAK8, Label: "DeepAK8 score(@)", MinOperands: 1, MaxOperands: 1, Default: oneD(30, 0, 1)},
	}

	particles := []ParticleInfo{
		{Name: "e", Particle: hep.Electron, Label: "e_{@}"},
		{Name: "mu", Particle: hep.Muon, Label: "#mu_{@}"},
		{Name: "j", Particle: hep.Jet, Label: "j_{@}"},
		{Name: "bj", Particle: hep.BJet, Label: "b_{@}"},
		{Name: "sj", Particle: hep.SubJet, Label: "j^{sub}_{@}"},
		{Name: "bsj", Particle: hep.BSubJet, Label: "b^{sub}_{@}"},
		{Name: "fj", Particle: hep.FatJet, Label: "j_{@}^{AK8}"},
		{Name: "met", Particle: hep.MET, Label: "#vec{p}_{T}^{miss}"},
		{Name: "W", Particle: hep.W, Label: "W^{#pm}"},
		{Name: "h1", Particle: hep.H1, Label: "h_{1}"},
		{Name: "h2", Particle: hep.H2, Label: "h_{2}"},
		{Name: "hc", Particle: hep.ChargedHiggs, Label: "H^{#pm}"},
	}

	t := &Tables{
		functions:  make(map[string]FunctionInfo, len(functions)),
		byFunc:     make(map[Func]FunctionInfo, len(functions)),
		particles:  make(map[string]ParticleInfo, len(particles)),
		byParticle: make(map[hep.Particle]ParticleInfo, len(particles)),
		tiers: map[string]hep.Tier{
			"":       hep.None,
			"none":   hep.None,
			"l":      hep.Loose,
			"loose":  hep.Loose,
			"m":      hep.Medium,
			"medium": hep.Medium,
			"t":      hep.Tight,
			"tight":  hep.Tight,
		},
		comparisons: map[string]Comparison{
			"bigger":       Bigger,
			"biggerequal":  BiggerEqual,
			"equal":        Equal,
			"smallerequal": SmallerEqual,
			"smaller":      Smaller,
			"divisible":    Divisible,
			"notdivisible": NotDivisible,
		},
	}
	for _, f := range functions {
		t.functions[strings.ToLower(f.Name)] = f
		t.byFunc[f.Func] = f
	}
	for _, p := range particles {
		t.particles[strings.ToLower(p.Name)] = p
		t.byParticle[p.Particle] = p
	}
	return t
}

// Function looks up a function by name, ignoring case.
func (t *Tables) Function(name string) (FunctionInfo, bool) {
	f, ok := t.functions[strings.ToLower(name)]
	return f, ok
}

// FunctionOf returns the table entry of f.
func (t *Tables) FunctionOf(f Func) (FunctionInfo, bool) {
	info, ok := t.byFunc[f]
	return info, ok
}

// Particle looks up a particle by name, ignoring case.
func (t *Tables) Particle(name string) (ParticleInfo, bool) {
	p, ok := t.particles[strings.ToLower(name)]
	return p, ok
}

// ParticleOf returns the table entry of p.
func (t *Tables) ParticleOf(p hep.Particle) (ParticleInfo, bool) {
	info, ok := t.byParticle[p]
	return info, ok
}

// Tier looks up a working point by name, ignoring case.
func (t *Tables) Tier(name string) (hep.Tier, bool) {
	tier, ok := t.tiers[strings.ToLower(name)]
	return tier, ok
}

// Comparison looks up a cut operator by name, ignoring case.
func (t *Tables) Comparison(name string) (Comparison, bool) {
	c, ok := t.comparisons[strings.ToLower(name)]
	return c, ok
}
