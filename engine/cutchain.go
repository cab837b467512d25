package engine

import (
	"fmt"

	"github.com/vegasq/cutflow/hist"
	"github.com/vegasq/cutflow/query"
)

// CutChain applies an ordered list of cuts. An event passes when every
// cut passes; evaluation stops at the first failure.
type CutChain struct {
	ctx    *Context
	cuts   []*Quantity
	labels []string
}

// NewCutChain binds the cut descriptors to the context. Every descriptor
// must carry a cut.
func (c *Context) NewCutChain(descs []*query.Descriptor) (*CutChain, error) {
	chain := &CutChain{ctx: c}
	for _, d := range descs {
		if d.Cut == nil {
			return nil, fmt.Errorf("%s: %w", d.Expr, query.ErrMissingCut)
		}
		q, err := c.Bind(d)
		if err != nil {
			return nil, err
		}
		chain.cuts = append(chain.cuts, q)
		chain.labels = append(chain.labels, d.CutLabel())
	}
	return chain, nil
}

// Labels returns the cutflow labels in cut order.
func (ch *CutChain) Labels() []string {
	return ch.labels
}

// Apply runs the chain on the event. It starts from the base weight,
// multiplies in the weight of every passed cut and fills the cutflow with
// the running weight after each one. Unavailable values reject. The final
// weight is left in ev.Weight. cf may be nil.
func (ch *CutChain) Apply(ev *Event, cf *hist.Cutflow) bool {
	ev.Weight = ch.ctx.BaseWeight(ev)
	for i, q := range ch.cuts {
		v := q.Value(ev)
		cut := q.desc.Cut
		if !v.OK || !cut.Op.Apply(v.V, cut.Threshold) {
			return false
		}
		ev.Weight *= q.Weight(ev)
		if cf != nil {
			cf.Fill(ch.labels[i], ev.Weight)
		}
	}
	return true
}
