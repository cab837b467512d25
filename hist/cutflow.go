package hist

// Cutflow is an ordered sequence of labeled bins. Bin i holds the weighted
// number of events that survived the first i+1 selection steps.
type Cutflow struct {
	Labels []string  `msgpack:"labels"`
	SumW   []float64 `msgpack:"sumw"`
	SumW2  []float64 `msgpack:"sumw2"`
}

// NewCutflow returns a cutflow with the given labels and empty bins.
func NewCutflow(labels ...string) *Cutflow {
	c := &Cutflow{}
	for _, l := range labels {
		c.bin(l)
	}
	return c
}

// bin returns the index of label, appending a new bin when it is unknown.
func (c *Cutflow) bin(label string) int {
	for i, l := range c.Labels {
		if l == label {
			return i
		}
	}
	c.Labels = append(c.Labels, label)
	c.SumW = append(c.SumW, 0)
	c.SumW2 = append(c.SumW2, 0)
	return len(c.Labels) - 1
}

// Fill adds w to the bin named label.
func (c *Cutflow) Fill(label string, w float64) {
	i := c.bin(label)
	c.SumW[i] += w
	c.SumW2[i] += w * w
}

// Len returns the number of bins.
func (c *Cutflow) Len() int {
	return len(c.Labels)
}

// Value returns the content of the bin named label.
func (c *Cutflow) Value(label string) (float64, bool) {
	for i, l := range c.Labels {
		if l == label {
			return c.SumW[i], true
		}
	}
	return 0, false
}

// Scale multiplies every bin by f.
func (c *Cutflow) Scale(f float64) {
	for i := range c.SumW {
		c.SumW[i] *= f
		c.SumW2[i] *= f * f
	}
}

// Add adds o bin by bin, matching bins by label. Labels unknown to c are
// appended in the order o lists them.
func (c *Cutflow) Add(o *Cutflow) {
	for i, l := range o.Labels {
		j := c.bin(l)
		c.SumW[j] += o.SumW[i]
		c.SumW2[j] += o.SumW2[i]
	}
}

// Clone returns a deep copy of c.
func (c *Cutflow) Clone() *Cutflow {
	return &Cutflow{
		Labels: append([]string(nil), c.Labels...),
		SumW:   append([]float64(nil), c.SumW...),
		SumW2:  append([]float64(nil), c.SumW2...),
	}
}
