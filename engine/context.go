package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/vegasq/cutflow/hep"
	"github.com/vegasq/cutflow/hist"
	"github.com/vegasq/cutflow/internal/logging"
	"github.com/vegasq/cutflow/query"
	"github.com/vegasq/cutflow/reader"
)

// ErrMissingColumn is returned when a column needed to resolve working
// points is absent from the event file.
var ErrMissingColumn = errors.New("required column missing")

// Metadata histogram names.
const (
	PileupData  = "pileUp"
	PileupMC    = "puMC"
	TrueBJets   = "nTrueB"
	CutflowName = "cutflow"
)

// Scorer evaluates a trained discriminant on a feature vector.
type Scorer interface {
	Score(features []float64) (float64, error)
}

// ModelSource provides the scorer for a mass hypothesis.
type ModelSource interface {
	Scorer(mass float64) (Scorer, bool)
}

// CleanRef selects the objects jets are cleaned against.
type CleanRef struct {
	Particle hep.Particle
	Tier     hep.Tier
}

// ParseCleanRef parses a reference such as "e/t" or "mu/m". An empty
// string means no cleaning.
func ParseCleanRef(s string, tables *query.Tables) (*CleanRef, error) {
	if s == "" {
		return nil, nil
	}
	name, tierName, _ := strings.Cut(s, "/")
	p, ok := tables.Particle(name)
	if !ok {
		return nil, fmt.Errorf("%w: cleaning reference %q", query.ErrUnknownParticle, name)
	}
	if !p.Particle.IsLepton() {
		return nil, fmt.Errorf("cleaning reference %q is not a lepton collection", name)
	}
	tier, ok := tables.Tier(tierName)
	if !ok {
		return nil, fmt.Errorf("%w: cleaning reference %q", query.ErrUnknownTier, tierName)
	}
	return &CleanRef{Particle: p.Particle, Tier: tier}, nil
}

// Options configures a partition context.
type Options struct {
	Channel string
	Clean   *CleanRef
	// ExtraWeights are scalar columns multiplied into the event weight of
	// simulated events.
	ExtraWeights []string
	Models       ModelSource
	// Features are the model inputs, evaluated per event when no
	// precomputed score column exists.
	Features []*query.Descriptor
	Logger   *slog.Logger
}

// Context holds the state of one partition: its tree, metadata derived
// weights and the columns bound so far.
type Context struct {
	tree   *reader.Tree
	meta   *hist.File
	opts   Options
	logger *slog.Logger

	isData  bool
	nGen    float64
	norm    float64
	pileup  *hist.H1
	nTrue   *reader.Column
	extra   []*reader.Column
	effMaps map[hep.Tier]*hist.H2

	resolverCols map[string]*reader.Column
	warned       map[string]bool
	event        *Event
}

// NewContext prepares a partition context.
func NewContext(tree *reader.Tree, meta *hist.File, opts Options) (*Context, error) {
	if meta == nil {
		meta = hist.NewFile()
	}
	logger := logging.Default(opts.Logger)
	c := &Context{
		tree:         tree,
		meta:         meta,
		opts:         opts,
		logger:       logger.With("component", "engine", "file", tree.Path()),
		isData:       meta.Value(hist.KeyIsData, 0) != 0,
		effMaps:      make(map[hep.Tier]*hist.H2),
		resolverCols: make(map[string]*reader.Column),
		warned:       make(map[string]bool),
		event:        newEvent(),
	}

	c.nGen = meta.Value(hist.KeyNGen, 1)
	if c.nGen <= 0 || c.isData {
		c.nGen = 1
	}
	c.norm = meta.Value(hist.KeyXSec, 1) * meta.Value(hist.KeyLumi, 1) / c.nGen

	if !c.isData {
		if err := c.preparePileup(); err != nil {
			return nil, err
		}
		for _, name := range opts.ExtraWeights {
			if col := c.column(name); col != nil {
				c.extra = append(c.extra, col)
			}
		}
		if err := c.prepareEfficiencies(); err != nil {
			return nil, err
		}
	}
	if opts.Clean != nil {
		if err := c.requireTier(opts.Clean.Particle, opts.Clean.Tier); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Context) preparePileup() error {
	data, okData := c.meta.H1[PileupData]
	mc, okMC := c.meta.H1[PileupMC]
	if !okData || !okMC || data.Integral() == 0 || mc.Integral() == 0 {
		return nil
	}
	weights := data.Clone("pileupWeight")
	weights.Scale(1 / data.Integral())
	norm := mc.Clone("puMCNorm")
	norm.Scale(1 / mc.Integral())
	if err := weights.Divide(norm); err != nil {
		return fmt.Errorf("failed to build pileup weights: %w", err)
	}
	c.pileup = weights
	c.nTrue = c.column("Misc_TrueInteraction")
	return nil
}

func (c *Context) prepareEfficiencies() error {
	den, ok := c.meta.H2[TrueBJets]
	if !ok {
		return nil
	}
	for _, tier := range []hep.Tier{hep.Loose, hep.Medium, hep.Tight} {
		num, ok := c.meta.H2["n"+tier.Title()+"CSVbTag"]
		if !ok {
			continue
		}
		eff := num.Clone("eff" + tier.Title())
		if err := eff.Divide(den); err != nil {
			return fmt.Errorf("failed to build %s b-tag efficiency: %w", tier, err)
		}
		c.effMaps[tier] = eff
	}
	return nil
}

// Len returns the number of entries in the partition.
func (c *Context) Len() int {
	return c.tree.Len()
}

// IsData reports whether the dataset holds recorded rather than simulated
// events.
func (c *Context) IsData() bool {
	return c.isData
}

// Begin resets the shared event to entry and returns it.
func (c *Context) Begin(entry int) *Event {
	c.event.reset(entry)
	return c.event
}

// BaseWeight returns the normalization weight of the event before any
// cut: cross section times luminosity over generated events, times the
// pileup weight and any extra weight columns. Recorded data weighs 1.
func (c *Context) BaseWeight(ev *Event) float64 {
	if c.isData {
		return 1
	}
	w := c.norm
	if c.pileup != nil && c.nTrue != nil {
		if n, ok := c.nTrue.Scalar(ev.entry); ok {
			if pw, ok := c.pileup.Lookup(n); ok {
				w *= pw
			}
		}
	}
	for _, col := range c.extra {
		if v, ok := col.Scalar(ev.entry); ok {
			w *= v
		}
	}
	return w
}

// CutflowSeed returns the pre-existing cutflow of the channel, scaled by
// 1/nGen and by the fraction of the file this partition covers.
func (c *Context) CutflowSeed() *hist.Cutflow {
	var seed *hist.Cutflow
	if stored, ok := c.meta.Cutflows[CutflowName+"_"+c.opts.Channel]; ok {
		seed = stored.Clone()
	} else {
		seed = hist.NewCutflow()
	}

	scale := 1 / c.nGen
	if total := c.tree.Total(); total > 0 {
		scale *= float64(c.tree.Len()) / float64(total)
	}
	seed.Scale(scale)
	return seed
}

// column returns the named column, or nil when it is absent or unreadable.
// Absence is logged once per column.
func (c *Context) column(name string) *reader.Column {
	col, err := c.tree.Column(name)
	if err != nil {
		if !c.warned[name] {
			c.warned[name] = true
			c.logger.Warn("column unavailable", "column", name, "error", err)
		}
		return nil
	}
	return col
}

// lookup returns the named column without logging its absence.
func (c *Context) lookup(name string) *reader.Column {
	if !c.tree.Has(name) {
		return nil
	}
	return c.column(name)
}
