package engine

import (
	"fmt"

	"github.com/vegasq/cutflow/hep"
)

// Working point thresholds.
const (
	electronTightIso  = 0.15
	electronMediumIso = 0.20
	electronLooseIso  = 0.25

	bTagTight  = 0.8001
	bTagMedium = 0.4941
	bTagLoose  = 0.1522

	cleaningRadius = 0.4
)

func electronTier(id, iso float64) hep.Tier {
	switch {
	case id > float64(hep.Medium) && iso < electronTightIso:
		return hep.Tight
	case id > float64(hep.Loose) && iso < electronMediumIso:
		return hep.Medium
	case id > float64(hep.None) && iso < electronLooseIso:
		return hep.Loose
	}
	return hep.None
}

// muonTier uses the discrete isolation working point; every tier needs
// isolation above medium.
func muonTier(id, isoID float64) hep.Tier {
	if isoID <= float64(hep.Medium) {
		return hep.None
	}
	switch {
	case id > float64(hep.Medium):
		return hep.Tight
	case id > float64(hep.Loose):
		return hep.Medium
	case id > float64(hep.None):
		return hep.Loose
	}
	return hep.None
}

func bTagTier(score float64) hep.Tier {
	switch {
	case score > bTagTight:
		return hep.Tight
	case score > bTagMedium:
		return hep.Medium
	case score > bTagLoose:
		return hep.Loose
	}
	return hep.None
}

// cleans reports whether p is subject to overlap cleaning.
func (c *Context) cleans(p hep.Particle) bool {
	if c.opts.Clean == nil {
		return false
	}
	return p == hep.Jet || p == hep.BJet || p == hep.BSubJet
}

// tierColumns lists the columns needed to decide whether objects of p
// reach floor.
func (c *Context) tierColumns(p hep.Particle, floor hep.Tier) []string {
	var cols []string
	if floor > hep.None {
		switch p {
		case hep.Electron:
			cols = append(cols, "Electron_ID", "Electron_Isolation")
		case hep.Muon:
			cols = append(cols, "Muon_ID", "Muon_isoID")
		case hep.BJet, hep.BSubJet:
			cols = append(cols, p.Prefix()+"_CSVScore")
		}
	}
	if c.cleans(p) {
		ref := c.opts.Clean.Particle.Prefix()
		cols = append(cols, p.Prefix()+"_Eta", p.Prefix()+"_Phi", ref+"_Pt", ref+"_Eta", ref+"_Phi")
	}
	return cols
}

// requireTier loads the columns tier resolution of p at floor depends on.
// They are required: a missing one fails the partition.
func (c *Context) requireTier(p hep.Particle, floor hep.Tier) error {
	for _, name := range c.tierColumns(p, floor) {
		if _, ok := c.resolverCols[name]; ok {
			continue
		}
		col, err := c.tree.Column(name)
		if err != nil {
			return fmt.Errorf("%w: %s needed for %s working points: %v", ErrMissingColumn, name, p, err)
		}
		c.resolverCols[name] = col
	}
	if c.cleans(p) && c.opts.Clean.Particle != p {
		return c.requireTier(c.opts.Clean.Particle, c.opts.Clean.Tier)
	}
	return nil
}

func (c *Context) resolved(name string, ev *Event, idx int) (float64, bool) {
	col := c.resolverCols[name]
	if col == nil {
		return 0, false
	}
	return col.At(ev.entry, idx)
}

// qualifies reports whether object idx of p reaches floor.
func (c *Context) qualifies(ev *Event, p hep.Particle, idx int, floor hep.Tier) bool {
	if floor <= hep.None && !c.cleans(p) {
		return true
	}
	return c.Tier(ev, p, idx) >= floor
}

// Tier returns the quality tier of object idx of p, resolving it on first
// use within the entry.
func (c *Context) Tier(ev *Event, p hep.Particle, idx int) hep.Tier {
	key := objectKey{particle: p, index: idx}
	if t, ok := ev.tiers[key]; ok {
		return t
	}
	t := c.resolveTier(ev, p, idx)
	ev.tiers[key] = t
	return t
}

func (c *Context) resolveTier(ev *Event, p hep.Particle, idx int) hep.Tier {
	switch p {
	case hep.Electron:
		id, okID := c.resolved("Electron_ID", ev, idx)
		iso, okIso := c.resolved("Electron_Isolation", ev, idx)
		if !okID || !okIso {
			return hep.None
		}
		return electronTier(id, iso)
	case hep.Muon:
		id, okID := c.resolved("Muon_ID", ev, idx)
		iso, okIso := c.resolved("Muon_isoID", ev, idx)
		if !okID || !okIso {
			return hep.None
		}
		return muonTier(id, iso)
	case hep.Jet:
		if c.cleans(p) && !c.isClean(ev, p, idx) {
			return hep.NotClean
		}
		return hep.None
	case hep.BJet, hep.BSubJet:
		if c.cleans(p) && !c.isClean(ev, p, idx) {
			return hep.NotClean
		}
		score, ok := c.resolved(p.Prefix()+"_CSVScore", ev, idx)
		if !ok {
			return hep.None
		}
		return bTagTier(score)
	}
	return hep.None
}

// isClean reports whether the jet is separated from every reference
// object by at least the cleaning radius.
func (c *Context) isClean(ev *Event, p hep.Particle, idx int) bool {
	eta, okEta := c.resolved(p.Prefix()+"_Eta", ev, idx)
	phi, okPhi := c.resolved(p.Prefix()+"_Phi", ev, idx)
	if !okEta || !okPhi {
		return true
	}
	ref := c.opts.Clean
	for _, v := range c.Collection(ev, ref.Particle, ref.Tier) {
		if hep.DeltaR(eta, phi, v.Eta, v.Phi) < cleaningRadius {
			return false
		}
	}
	return true
}
