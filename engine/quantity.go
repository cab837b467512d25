package engine

import (
	"fmt"
	"math"
	"math/bits"

	"github.com/vegasq/cutflow/hep"
	"github.com/vegasq/cutflow/query"
	"github.com/vegasq/cutflow/reader"
)

// Quantity is a descriptor bound to the columns of one partition.
type Quantity struct {
	ctx    *Context
	desc   *query.Descriptor
	eval   func(ev *Event) Value
	weight func(ev *Event) float64
	y      *Quantity
}

// Bind resolves the columns the descriptor reads. Columns the working
// point resolver depends on must exist; any other missing column only
// makes the quantity unavailable.
func (c *Context) Bind(desc *query.Descriptor) (*Quantity, error) {
	for _, op := range desc.Operands {
		if err := c.requireTier(op.Particle, op.Tier); err != nil {
			return nil, fmt.Errorf("binding %s: %w", desc.Name, err)
		}
	}

	q := &Quantity{ctx: c, desc: desc}
	var err error
	switch {
	case desc.Func.Kinematic():
		q.eval = c.bindKinematic(desc)
	case desc.Func.Pairwise():
		q.eval = c.bindPairwise(desc)
	case desc.Func == query.FuncCount:
		q.eval = c.bindCount(desc.Operand(0))
		q.weight = c.bindWeight(desc.Operand(0))
	case desc.Func == query.FuncHT:
		q.eval = c.bindHT()
	case desc.Func == query.FuncEventBits:
		q.eval = c.bindEventBits()
	case desc.Func == query.FuncDNN:
		q.eval, err = c.bindDNN(desc.Value)
	case desc.Func == query.FuncConst:
		v := desc.Value
		q.eval = func(*Event) Value { return Available(v) }
	case desc.Func == query.FuncTau:
		q.eval = c.bindTau(desc.Operand(0), int(desc.Value))
	case desc.Func == query.FuncHTag:
		q.eval = c.bindScalar(fmt.Sprintf("ML_HTagFJ%d", desc.Operand(0).Index))
	case desc.Func == query.FuncDAK8:
		op := desc.Operand(0)
		q.eval = c.bindObject(op, op.Particle.Prefix()+"_DeepAK8VsHiggs")
	default:
		return nil, fmt.Errorf("binding %s: %w", desc.Name, query.ErrUnknownFunction)
	}
	if err != nil {
		return nil, fmt.Errorf("binding %s: %w", desc.Name, err)
	}

	if desc.Y != nil {
		if q.y, err = c.Bind(desc.Y); err != nil {
			return nil, err
		}
	}
	return q, nil
}

// BindAll binds every descriptor.
func (c *Context) BindAll(descs []*query.Descriptor) ([]*Quantity, error) {
	qs := make([]*Quantity, 0, len(descs))
	for _, d := range descs {
		q, err := c.Bind(d)
		if err != nil {
			return nil, err
		}
		qs = append(qs, q)
	}
	return qs, nil
}

// Descriptor returns the compiled expression q was bound from.
func (q *Quantity) Descriptor() *query.Descriptor {
	return q.desc
}

// Y returns the quantity of the secondary histogram axis, or nil.
func (q *Quantity) Y() *Quantity {
	return q.y
}

// Value evaluates q for the event.
func (q *Quantity) Value(ev *Event) Value {
	return q.eval(ev)
}

// Weight returns the multiplicative weight q contributes to the event,
// 1 for quantities without scale factors.
func (q *Quantity) Weight(ev *Event) float64 {
	if q.weight == nil {
		return 1
	}
	return q.weight(ev)
}

// object returns the physical index the operand points at. Scalar
// collections always read position 0.
func (c *Context) object(ev *Event, op query.Operand) (int, bool) {
	if !op.Particle.IsJagged() {
		return 0, true
	}
	return c.Index(ev, op.Particle, op.Tier, op.Index)
}

func read(col *reader.Column, ev *Event, idx int) Value {
	if col == nil {
		return Value{}
	}
	v, ok := col.At(ev.entry, idx)
	return Value{V: v, OK: ok}
}

func component(f query.Func) string {
	switch f {
	case query.FuncPt:
		return "Pt"
	case query.FuncEta:
		return "Eta"
	case query.FuncPhi:
		return "Phi"
	default:
		return "Mass"
	}
}

func (c *Context) bindObject(op query.Operand, column string) func(*Event) Value {
	col := c.column(column)
	return func(ev *Event) Value {
		idx, ok := c.object(ev, op)
		if !ok {
			return Value{}
		}
		return read(col, ev, idx)
	}
}

func (c *Context) bindKinematic(desc *query.Descriptor) func(*Event) Value {
	op := desc.Operand(0)
	return c.bindObject(op, op.Particle.Prefix()+"_"+component(desc.Func))
}

func (c *Context) bindScalar(column string) func(*Event) Value {
	col := c.column(column)
	return func(ev *Event) Value {
		return read(col, ev, 0)
	}
}

func (c *Context) bindPairwise(desc *query.Descriptor) func(*Event) Value {
	type side struct {
		op       query.Operand
		eta, phi *reader.Column
	}
	sides := make([]side, 2)
	for i := range sides {
		op := desc.Operand(i)
		sides[i] = side{op: op, phi: c.column(op.Particle.Prefix() + "_Phi")}
		if desc.Func == query.FuncDeltaR {
			sides[i].eta = c.column(op.Particle.Prefix() + "_Eta")
		}
	}

	return func(ev *Event) Value {
		var eta, phi [2]float64
		for i, s := range sides {
			idx, ok := c.object(ev, s.op)
			if !ok {
				return Value{}
			}
			p := read(s.phi, ev, idx)
			if !p.OK {
				return Value{}
			}
			phi[i] = p.V
			if s.eta != nil {
				e := read(s.eta, ev, idx)
				if !e.OK {
					return Value{}
				}
				eta[i] = e.V
			} else if desc.Func == query.FuncDeltaR {
				return Value{}
			}
		}
		if desc.Func == query.FuncDeltaPhi {
			return Available(hep.DeltaPhi(phi[0], phi[1]))
		}
		return Available(hep.DeltaR(eta[0], phi[0], eta[1], phi[1]))
	}
}

// bindCount counts the objects of the operand's collection reaching its
// tier floor.
func (c *Context) bindCount(op query.Operand) func(*Event) Value {
	size := c.sizeColumn(op.Particle)
	return func(ev *Event) Value {
		if size == nil {
			return Value{}
		}
		n := 0
		for i, total := 0, size.Len(ev.entry); i < total; i++ {
			if c.qualifies(ev, op.Particle, i, op.Tier) {
				n++
			}
		}
		return Available(float64(n))
	}
}

func (c *Context) bindHT() func(*Event) Value {
	cols := make([]*reader.Column, 0, 2)
	for _, name := range []string{"Jet_Pt", "FatJet_Pt"} {
		if col := c.column(name); col != nil {
			cols = append(cols, col)
		}
	}
	return func(ev *Event) Value {
		if len(cols) == 0 {
			return Value{}
		}
		var ht float64
		for _, col := range cols {
			for _, pt := range col.Row(ev.entry) {
				if !math.IsNaN(pt) {
					ht += pt
				}
			}
		}
		return Available(ht)
	}
}

func (c *Context) bindEventBits() func(*Event) Value {
	col := c.column("Misc_eventNumber")
	return func(ev *Event) Value {
		v := read(col, ev, 0)
		if !v.OK {
			return v
		}
		return Available(float64(bits.OnesCount64(uint64(int64(v.V)))))
	}
}

// bindTau returns the ratio of the order-th to the (order-1)-th
// N-subjettiness of the indexed object.
func (c *Context) bindTau(op query.Operand, order int) func(*Event) Value {
	prefix := op.Particle.Prefix()
	num := c.column(fmt.Sprintf("%s_Njettiness%d", prefix, order))
	den := c.column(fmt.Sprintf("%s_Njettiness%d", prefix, order-1))
	return func(ev *Event) Value {
		idx, ok := c.object(ev, op)
		if !ok {
			return Value{}
		}
		n, d := read(num, ev, idx), read(den, ev, idx)
		if !n.OK || !d.OK || d.V == 0 {
			return Value{}
		}
		return Available(n.V / d.V)
	}
}

// bindDNN reads a precomputed score column when the file has one and
// falls back to evaluating the channel model on the feature quantities.
func (c *Context) bindDNN(mass float64) (func(*Event) Value, error) {
	if col := c.lookup("ML_DNN" + query.FormatNumber(mass)); col != nil {
		return func(ev *Event) Value { return read(col, ev, 0) }, nil
	}

	var scorer Scorer
	if c.opts.Models != nil {
		scorer, _ = c.opts.Models.Scorer(mass)
	}
	if scorer == nil {
		c.logger.Warn("no score column or model for mass hypothesis", "mass", mass)
		return func(*Event) Value { return Value{} }, nil
	}

	features := make([]*Quantity, 0, len(c.opts.Features))
	for _, d := range c.opts.Features {
		if d.Func == query.FuncDNN {
			return nil, fmt.Errorf("model feature %s: %w", d.Name, query.ErrUnknownFunction)
		}
		q, err := c.Bind(d)
		if err != nil {
			return nil, fmt.Errorf("model feature: %w", err)
		}
		features = append(features, q)
	}
	buf := make([]float64, len(features))

	return func(ev *Event) Value {
		if v, ok := ev.scores[mass]; ok {
			return v
		}
		for i, f := range features {
			buf[i] = f.Value(ev).Recorded()
		}
		var v Value
		if score, err := scorer.Score(buf); err == nil {
			v = Available(score)
		}
		ev.scores[mass] = v
		return v
	}, nil
}
