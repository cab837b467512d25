package engine

import (
	"math"

	"github.com/vegasq/cutflow/hep"
	"github.com/vegasq/cutflow/hist"
	"github.com/vegasq/cutflow/query"
	"github.com/vegasq/cutflow/reader"
)

// bTagFlavour is the generator flavour of a genuine b jet.
const bTagFlavour = 5

// scaleFactorColumns lists the scale factor columns applied to objects of
// p selected at tier.
func scaleFactorColumns(p hep.Particle, tier hep.Tier) []string {
	switch p {
	case hep.Electron:
		return []string{"Electron_recoSF", "Electron_" + tier.String() + "SF"}
	case hep.Muon:
		return []string{"Muon_triggerSF", "Muon_" + tier.String() + "SF", "Muon_tightIso" + tier.Title() + "SF"}
	case hep.BJet, hep.BSubJet:
		return []string{p.Prefix() + "_" + tier.String() + "CSVbTagSF"}
	}
	return nil
}

// bindWeight returns the scale factor weight of a counted selection, or
// nil when the operand carries none. Every stored factor of the
// collection enters the product, whatever the tier of its object.
// Recorded data is never reweighted.
func (c *Context) bindWeight(op query.Operand) func(*Event) float64 {
	if c.isData || op.Tier <= hep.None {
		return nil
	}
	names := scaleFactorColumns(op.Particle, op.Tier)
	if len(names) == 0 {
		return nil
	}

	var sfs []*reader.Column
	for _, name := range names {
		if col := c.column(name); col != nil {
			sfs = append(sfs, col)
		}
	}
	if len(sfs) == 0 {
		return nil
	}

	if eff, ok := c.effMaps[op.Tier]; ok && op.Particle.IsTagged() {
		if w := c.bindEfficiencyWeight(op.Particle, eff, sfs[0]); w != nil {
			return w
		}
	}

	return func(ev *Event) float64 {
		w := 1.0
		for _, col := range sfs {
			for i, n := 0, col.Len(ev.entry); i < n; i++ {
				w *= scaleFactor(col, ev, i)
			}
		}
		return w
	}
}

// bindEfficiencyWeight reweights every jet of the collection with the
// tagging efficiency measured in simulation: genuine b jets take the
// scale factor, others (1-SF*eff)/(1-eff).
func (c *Context) bindEfficiencyWeight(p hep.Particle, eff *hist.H2, sf *reader.Column) func(*Event) float64 {
	prefix := p.Prefix()
	pt, eta := c.column(prefix+"_Pt"), c.column(prefix+"_Eta")
	flavour := c.column(prefix + "_TrueFlavour")
	if pt == nil || eta == nil || flavour == nil {
		return nil
	}

	return func(ev *Event) float64 {
		w := 1.0
		for i, n := 0, pt.Len(ev.entry); i < n; i++ {
			w *= efficiencyFactor(eff, read(pt, ev, i), read(eta, ev, i), read(flavour, ev, i), scaleFactor(sf, ev, i))
		}
		return w
	}
}

func efficiencyFactor(eff *hist.H2, pt, eta, flavour Value, sf float64) float64 {
	if !pt.OK || !eta.OK {
		return 1
	}
	e, in := eff.Lookup(pt.V, eta.V)
	if !in || e <= 0 || e >= 1 {
		return 1
	}
	if flavour.OK && math.Abs(flavour.V) == bTagFlavour {
		return sf
	}
	return (1 - sf*e) / (1 - e)
}

// scaleFactor reads a scale factor; zero or unreadable factors count as 1.
func scaleFactor(col *reader.Column, ev *Event, i int) float64 {
	v, ok := col.At(ev.entry, i)
	if !ok || v == 0 {
		return 1
	}
	return v
}
