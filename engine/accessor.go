package engine

import (
	"github.com/vegasq/cutflow/hep"
	"github.com/vegasq/cutflow/reader"
)

// sizeColumn returns the column whose row length is the size of p's
// collection.
func (c *Context) sizeColumn(p hep.Particle) *reader.Column {
	return c.column(p.Prefix() + "_Pt")
}

// Size returns the number of stored objects of p in the event.
func (c *Context) Size(ev *Event, p hep.Particle) int {
	col := c.sizeColumn(p)
	if col == nil {
		return 0
	}
	return col.Len(ev.entry)
}

// Index returns the physical position of the ordinal-th (1-based) object
// of p whose tier reaches floor, in storage order. It reports false when
// fewer objects qualify.
func (c *Context) Index(ev *Event, p hep.Particle, floor hep.Tier, ordinal int) (int, bool) {
	key := indexKey{particle: p, floor: floor, ordinal: ordinal}
	if idx, ok := ev.indices[key]; ok {
		return idx, idx >= 0
	}

	idx := -1
	seen := 0
	for i, n := 0, c.Size(ev, p); i < n; i++ {
		if !c.qualifies(ev, p, i, floor) {
			continue
		}
		seen++
		if seen == ordinal {
			idx = i
			break
		}
	}
	ev.indices[key] = idx
	return idx, idx >= 0
}

// Collection returns the momenta of all objects of p reaching floor, in
// storage order. Objects without a readable direction are skipped.
func (c *Context) Collection(ev *Event, p hep.Particle, floor hep.Tier) []hep.Vector {
	key := collectionKey{particle: p, floor: floor}
	if vs, ok := ev.collections[key]; ok {
		return vs
	}

	prefix := p.Prefix()
	pt, eta, phi := c.sizeColumn(p), c.lookup(prefix+"_Eta"), c.lookup(prefix+"_Phi")
	mass := c.lookup(prefix + "_Mass")

	var vs []hep.Vector
	if pt != nil && eta != nil && phi != nil {
		for i, n := 0, pt.Len(ev.entry); i < n; i++ {
			if !c.qualifies(ev, p, i, floor) {
				continue
			}
			v := hep.Vector{}
			var okPt, okEta, okPhi bool
			v.Pt, okPt = pt.At(ev.entry, i)
			v.Eta, okEta = eta.At(ev.entry, i)
			v.Phi, okPhi = phi.At(ev.entry, i)
			if !okPt || !okEta || !okPhi {
				continue
			}
			if mass != nil {
				v.M, _ = mass.At(ev.entry, i)
			}
			vs = append(vs, v)
		}
	}
	ev.collections[key] = vs
	return vs
}
