package query

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/vegasq/cutflow/hep"
)

// Compiler turns expression strings into descriptors.
type Compiler struct {
	tables *Tables
}

// NewCompiler creates a compiler resolving names against tables.
func NewCompiler(tables *Tables) *Compiler {
	return &Compiler{tables: tables}
}

// Tables returns the tables the compiler resolves against.
func (c *Compiler) Tables() *Tables {
	return c.tables
}

type axisSpec struct {
	fn       Clause
	fnSet    bool
	operands []Clause
}

type builder struct {
	x, y    axisSpec
	cut     Clause
	hasCut  bool
	hist    Clause
	hasHist bool
	tree    bool
	csv     bool
}

// Compile compiles a quantity expression.
func (c *Compiler) Compile(expr string) (*Descriptor, error) {
	segments, err := Parse(expr)
	if err != nil {
		return nil, &ParseError{Expr: expr, Err: err}
	}

	b := &builder{}
	for _, seg := range segments {
		if err := c.collect(b, seg); err != nil {
			return nil, &ParseError{Expr: expr, Segment: seg.String(), Err: err}
		}
	}

	d, err := c.build(expr, b)
	if err != nil {
		return nil, &ParseError{Expr: expr, Err: err}
	}
	return d, nil
}

// CompileCut compiles an expression that must carry a cut segment.
func (c *Compiler) CompileCut(expr string) (*Descriptor, error) {
	d, err := c.Compile(expr)
	if err != nil {
		return nil, err
	}
	if d.Cut == nil {
		return nil, &ParseError{Expr: expr, Err: ErrMissingCut}
	}
	return d, nil
}

// CompileAll compiles every expression, stopping at the first error.
func (c *Compiler) CompileAll(exprs []string) ([]*Descriptor, error) {
	out := make([]*Descriptor, 0, len(exprs))
	for _, e := range exprs {
		d, err := c.Compile(e)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// CompileCuts compiles every cut expression, stopping at the first error.
func (c *Compiler) CompileCuts(exprs []string) ([]*Descriptor, error) {
	out := make([]*Descriptor, 0, len(exprs))
	for _, e := range exprs {
		d, err := c.CompileCut(e)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func setFunction(axis *axisSpec, fn Clause) error {
	if axis.fnSet {
		return ErrDuplicateSegment
	}
	axis.fn = fn
	axis.fnSet = true
	return nil
}

func single(seg Segment) (Clause, error) {
	switch len(seg.Clauses) {
	case 0:
		return nil, nil
	case 1:
		return seg.Clauses[0], nil
	}
	return nil, fmt.Errorf("%w: only particle segments take '~'", ErrSyntax)
}

func (c *Compiler) collect(b *builder, seg Segment) error {
	switch seg.Prefix {
	case "":
		fn, ops, err := c.expandShorthand(seg.Clauses[0][0].Value)
		if err != nil {
			return err
		}
		if err := setFunction(&b.x, fn); err != nil {
			return err
		}
		b.x.operands = append(b.x.operands, ops...)
	case "f", "yf":
		fn, err := single(seg)
		if err != nil {
			return err
		}
		axis := &b.x
		if seg.Prefix == "yf" {
			axis = &b.y
		}
		return setFunction(axis, fn)
	case "p":
		b.x.operands = append(b.x.operands, seg.Clauses...)
	case "yp":
		b.y.operands = append(b.y.operands, seg.Clauses...)
	case "c":
		if b.hasCut {
			return ErrDuplicateSegment
		}
		cut, err := single(seg)
		if err != nil {
			return err
		}
		b.cut, b.hasCut = cut, true
	case "h":
		if b.hasHist {
			return ErrDuplicateSegment
		}
		hist, err := single(seg)
		if err != nil {
			return err
		}
		b.hist, b.hasHist = hist, true
	case "t", "csv":
		if len(seg.Clauses) > 0 {
			return fmt.Errorf("%w: %s: takes no keys", ErrUnknownKey, seg.Prefix)
		}
		if seg.Prefix == "t" {
			b.tree = true
		} else {
			b.csv = true
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSegment, seg.Prefix)
	}
	return nil
}

func (c *Compiler) build(expr string, b *builder) (*Descriptor, error) {
	d, info, err := c.buildAxis(b.x)
	if err != nil {
		return nil, err
	}
	d.Expr = expr
	d.Hist, d.Tree, d.CSV = b.hasHist, b.tree, b.csv

	var yInfo *FunctionInfo
	if b.y.fnSet || len(b.y.operands) > 0 {
		if !b.hasHist {
			return nil, ErrAxisWithoutHist
		}
		yd, yi, err := c.buildAxis(b.y)
		if err != nil {
			return nil, fmt.Errorf("y axis: %w", err)
		}
		d.Y = yd
		d.Name += "_VS_" + yd.Name
		yInfo = &yi
	}

	if b.hasHist {
		binning, err := c.binning(b.hist, info, yInfo)
		if err != nil {
			return nil, err
		}
		d.Binning = binning
	}

	if b.hasCut {
		cut, err := c.cut(b.cut)
		if err != nil {
			return nil, err
		}
		d.Cut = cut
	}
	return d, nil
}

func (c *Compiler) buildAxis(axis axisSpec) (*Descriptor, FunctionInfo, error) {
	if !axis.fnSet {
		return nil, FunctionInfo{}, ErrMissingFunction
	}
	info, value, hasValue, err := c.function(axis.fn)
	if err != nil {
		return nil, FunctionInfo{}, err
	}

	if len(axis.operands) > MaxOperands || len(axis.operands) > info.MaxOperands {
		return nil, FunctionInfo{}, fmt.Errorf("%w: %s takes at most %d", ErrTooManyParticles, info.Name, info.MaxOperands)
	}
	if len(axis.operands) < info.MinOperands {
		return nil, FunctionInfo{}, fmt.Errorf("%w: %s needs %d", ErrMissingParticle, info.Name, info.MinOperands)
	}

	d := &Descriptor{Func: info.Func, Value: value, HasValue: hasValue}
	for _, clause := range axis.operands {
		op, err := c.operand(clause)
		if err != nil {
			return nil, FunctionInfo{}, err
		}
		d.Operands = append(d.Operands, op)
	}

	d.Name = c.name(info, d)
	d.Label = c.label(info, d)
	return d, info, nil
}

func (c *Compiler) function(clause Clause) (FunctionInfo, float64, bool, error) {
	var (
		name     string
		rawValue string
		hasValue bool
	)
	for _, it := range clause {
		switch it.Key {
		case "", "n":
			name = it.Value
		case "v":
			rawValue, hasValue = it.Value, true
		default:
			return FunctionInfo{}, 0, false, fmt.Errorf("%w: f:%s", ErrUnknownKey, it.Key)
		}
	}
	if name == "" {
		return FunctionInfo{}, 0, false, ErrMissingFunction
	}

	info, ok := c.tables.Function(name)
	if !ok {
		return FunctionInfo{}, 0, false, fmt.Errorf("%w: %q", ErrUnknownFunction, name)
	}

	switch info.Value {
	case NoValue:
		if hasValue {
			return FunctionInfo{}, 0, false, fmt.Errorf("%w: %s takes no value", ErrUnknownKey, info.Name)
		}
		return info, 0, false, nil
	case RequiredValue:
		if !hasValue {
			return FunctionInfo{}, 0, false, fmt.Errorf("%w: %s", ErrMissingValue, info.Name)
		}
	case OptionalValue:
		if !hasValue {
			return info, info.DefaultValue, true, nil
		}
	}

	value, err := parseNumber(rawValue)
	if err != nil {
		return FunctionInfo{}, 0, false, err
	}
	if info.Func == FuncTau && (value < 2 || value != math.Trunc(value)) {
		return FunctionInfo{}, 0, false, fmt.Errorf("%w: tau order %q", ErrInvalidNumber, rawValue)
	}
	return info, value, true, nil
}

func (c *Compiler) operand(clause Clause) (Operand, error) {
	op := Operand{Tier: hep.None, Index: 1}
	var name string
	for _, it := range clause {
		switch it.Key {
		case "", "n":
			name = it.Value
		case "wp":
			tier, ok := c.tables.Tier(it.Value)
			if !ok {
				return Operand{}, fmt.Errorf("%w: %q", ErrUnknownTier, it.Value)
			}
			op.Tier = tier
		case "i":
			idx, err := strconv.Atoi(it.Value)
			if err != nil || idx < 1 {
				return Operand{}, fmt.Errorf("%w: index %q", ErrInvalidNumber, it.Value)
			}
			op.Index = idx
		default:
			return Operand{}, fmt.Errorf("%w: p:%s", ErrUnknownKey, it.Key)
		}
	}
	if name == "" {
		return Operand{}, ErrMissingParticle
	}
	info, ok := c.tables.Particle(name)
	if !ok {
		return Operand{}, fmt.Errorf("%w: %q", ErrUnknownParticle, name)
	}
	op.Particle = info.Particle
	return op, nil
}

func (c *Compiler) cut(clause Clause) (*Cut, error) {
	var (
		opName    string
		rawValue  string
		hasThresh bool
	)
	for _, it := range clause {
		switch it.Key {
		case "", "n":
			opName = it.Value
		case "v":
			rawValue, hasThresh = it.Value, true
		default:
			return nil, fmt.Errorf("%w: c:%s", ErrUnknownKey, it.Key)
		}
	}
	op, ok := c.tables.Comparison(opName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownComparison, opName)
	}
	if !hasThresh {
		return nil, fmt.Errorf("%w: no threshold", ErrMissingCut)
	}
	threshold, err := parseNumber(rawValue)
	if err != nil {
		return nil, err
	}
	return &Cut{Op: op, Threshold: threshold}, nil
}

func (c *Compiler) binning(clause Clause, x FunctionInfo, y *FunctionInfo) (*Binning, error) {
	b := x.Default
	if y != nil {
		b.NY, b.YLow, b.YHigh = y.Default.NX, y.Default.XLow, y.Default.XHigh
	}

	for _, it := range clause {
		if y == nil && strings.HasPrefix(it.Key, "y") || y == nil && it.Key == "nyb" {
			return nil, fmt.Errorf("%w: h:%s without a y axis", ErrUnknownKey, it.Key)
		}
		switch it.Key {
		case "nxb", "nyb":
			n, err := strconv.Atoi(it.Value)
			if err != nil || n < 1 {
				return nil, fmt.Errorf("%w: bin count %q", ErrInvalidNumber, it.Value)
			}
			if it.Key == "nxb" {
				b.NX = n
			} else {
				b.NY = n
			}
		case "xl", "xh", "yl", "yh":
			v, err := parseNumber(it.Value)
			if err != nil {
				return nil, err
			}
			switch it.Key {
			case "xl":
				b.XLow = v
			case "xh":
				b.XHigh = v
			case "yl":
				b.YLow = v
			case "yh":
				b.YHigh = v
			}
		default:
			return nil, fmt.Errorf("%w: h:%s", ErrUnknownKey, it.Key)
		}
	}

	if !(b.XHigh > b.XLow) {
		return nil, fmt.Errorf("%w: empty x range [%g, %g)", ErrInvalidNumber, b.XLow, b.XHigh)
	}
	if y == nil {
		b.NY, b.YLow, b.YHigh = 0, 0, 0
	} else if !(b.YHigh > b.YLow) {
		return nil, fmt.Errorf("%w: empty y range [%g, %g)", ErrInvalidNumber, b.YLow, b.YHigh)
	}
	return &b, nil
}

func (c *Compiler) name(info FunctionInfo, d *Descriptor) string {
	var b strings.Builder
	b.WriteString(info.Name)
	if d.HasValue {
		b.WriteByte('_')
		b.WriteString(FormatNumber(d.Value))
	}
	for _, op := range d.Operands {
		b.WriteByte('_')
		b.WriteString(op.Particle.String())
		if op.Particle.IsJagged() && d.Func != FuncCount {
			b.WriteByte('_')
			b.WriteString(strconv.Itoa(op.Index))
		}
		if op.Tier != hep.None {
			b.WriteByte('_')
			b.WriteString(op.Tier.String())
		}
	}
	return b.String()
}

func (c *Compiler) label(info FunctionInfo, d *Descriptor) string {
	label := info.Label
	if d.HasValue {
		v := FormatNumber(d.Value)
		if d.Func == FuncTau {
			v += FormatNumber(d.Value - 1)
		}
		label = strings.Replace(label, "@", v, 1)
	}
	for _, op := range d.Operands {
		label = strings.Replace(label, "@", c.operandLabel(op, d.Func), 1)
	}
	return label
}

func (c *Compiler) operandLabel(op Operand, f Func) string {
	info, ok := c.tables.ParticleOf(op.Particle)
	if !ok {
		return op.Particle.String()
	}
	label := info.Label
	if f == FuncCount || !op.Particle.IsJagged() {
		label = strings.ReplaceAll(label, "_{@}", "")
		label = strings.ReplaceAll(label, "@", "")
	} else {
		label = strings.ReplaceAll(label, "@", strconv.Itoa(op.Index))
	}
	if op.Tier != hep.None {
		label += "^{" + op.Tier.String() + "}"
	}
	return label
}

func parseNumber(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNumber, s)
	}
	return v, nil
}
