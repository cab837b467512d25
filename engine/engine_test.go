package engine

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vegasq/cutflow/hep"
	"github.com/vegasq/cutflow/hist"
	"github.com/vegasq/cutflow/internal/testdata"
	"github.com/vegasq/cutflow/query"
	"github.com/vegasq/cutflow/reader"
)

const channel = "Ele4J"

var compiler = query.NewCompiler(query.DefaultTables())

func openContext(t *testing.T, events []testdata.Event, meta *hist.File, opts Options) *Context {
	t.Helper()
	dir := testdata.WriteDataset(t, filepath.Join(t.TempDir(), "ds"), channel, events, meta, 0)
	return openDir(t, dir, opts)
}

func openDir(t *testing.T, dir string, opts Options) *Context {
	t.Helper()
	ds, err := reader.OpenDataset(dir)
	require.NoError(t, err)
	tree, err := ds.OpenTree(channel, 0, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tree.Close() })

	opts.Channel = channel
	ctx, err := NewContext(tree, ds.Meta, opts)
	require.NoError(t, err)
	return ctx
}

func bind(t *testing.T, ctx *Context, expr string) *Quantity {
	t.Helper()
	d, err := compiler.Compile(expr)
	require.NoError(t, err, expr)
	q, err := ctx.Bind(d)
	require.NoError(t, err, expr)
	return q
}

func simulation(nGen float64) *hist.File {
	meta := hist.NewFile()
	meta.Values[hist.KeyNGen] = nGen
	meta.Values[hist.KeyXSec] = 1
	meta.Values[hist.KeyLumi] = 1
	return meta
}

func TestTierThresholds(t *testing.T) {
	tests := []struct {
		name string
		got  hep.Tier
		want hep.Tier
	}{
		{"tight electron", electronTier(3, 0.1), hep.Tight},
		{"tight id loose iso", electronTier(3, 0.22), hep.Loose},
		{"medium electron", electronTier(2, 0.18), hep.Medium},
		{"loose electron", electronTier(1, 0.24), hep.Loose},
		{"non isolated electron", electronTier(3, 0.3), hep.None},
		{"no id electron", electronTier(0, 0.01), hep.None},
		{"tight muon", muonTier(3, 3), hep.Tight},
		{"medium muon", muonTier(2, 3), hep.Medium},
		{"loose muon", muonTier(1, 3), hep.Loose},
		{"muon failing isolation", muonTier(3, 2), hep.None},
		{"tight b tag", bTagTier(0.9), hep.Tight},
		{"medium b tag", bTagTier(0.5), hep.Medium},
		{"loose b tag", bTagTier(0.2), hep.Loose},
		{"untagged", bTagTier(0.1), hep.None},
		{"at threshold", bTagTier(bTagTight), hep.Medium},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestTierMonotonicity(t *testing.T) {
	// An object satisfying a floor satisfies every lower floor.
	for id := 0; id <= 3; id++ {
		for iso := 0.0; iso < 0.3; iso += 0.01 {
			tier := electronTier(float64(id), iso)
			for floor := hep.Tight; floor >= hep.None; floor-- {
				if tier.Satisfies(floor) {
					for lower := floor; lower >= hep.None; lower-- {
						assert.True(t, tier.Satisfies(lower))
					}
				}
			}
		}
	}
	for score := 0.0; score <= 1; score += 0.01 {
		assert.GreaterOrEqual(t, bTagTier(score+0.01), bTagTier(score))
	}
}

func mixedElectrons() []testdata.Event {
	return []testdata.Event{{
		ElectronPt:        []float32{80, 60, 40},
		ElectronEta:       []float32{0.1, 0.2, 0.3},
		ElectronPhi:       []float32{0, 1, 2},
		ElectronID:        []int32{1, 3, 2},
		ElectronIsolation: []float32{0.05, 0.05, 0.1},
	}}
}

func TestIndex(t *testing.T) {
	ctx := openContext(t, mixedElectrons(), nil, Options{})
	for _, floor := range []hep.Tier{hep.Loose, hep.Medium, hep.Tight} {
		require.NoError(t, ctx.requireTier(hep.Electron, floor))
	}
	ev := ctx.Begin(0)

	tests := []struct {
		floor   hep.Tier
		ordinal int
		want    int
		ok      bool
	}{
		{hep.None, 1, 0, true},
		{hep.None, 3, 2, true},
		{hep.None, 4, -1, false},
		{hep.Loose, 2, 1, true},
		{hep.Medium, 1, 1, true},
		{hep.Medium, 2, 2, true},
		{hep.Tight, 1, 1, true},
		{hep.Tight, 2, -1, false},
	}
	for _, tt := range tests {
		idx, ok := ctx.Index(ev, hep.Electron, tt.floor, tt.ordinal)
		assert.Equal(t, tt.ok, ok, "floor %s ordinal %d", tt.floor, tt.ordinal)
		if tt.ok {
			assert.Equal(t, tt.want, idx, "floor %s ordinal %d", tt.floor, tt.ordinal)
		}
	}
}

func TestAccessorIdentity(t *testing.T) {
	ctx := openContext(t, mixedElectrons(), nil, Options{})
	pt := bind(t, ctx, "f:n=Pt/p:n=e,wp=m,i=2")
	phi := bind(t, ctx, "f:n=Phi/p:n=e,wp=t")
	missing := bind(t, ctx, "f:n=Pt/p:n=e,wp=t,i=2")

	ev := ctx.Begin(0)
	assert.Equal(t, Available(40), pt.Value(ev))
	assert.Equal(t, Available(1), phi.Value(ev))
	assert.False(t, missing.Value(ev).OK)
	assert.Equal(t, Sentinel, missing.Value(ev).Recorded())
}

func TestQuantities(t *testing.T) {
	events := []testdata.Event{{
		ElectronPt:        []float32{50},
		ElectronEta:       []float32{1},
		ElectronPhi:       []float32{0},
		ElectronID:        []int32{3},
		ElectronIsolation: []float32{0.05},
		JetPt:             []float32{100, 40},
		JetEta:            []float32{1, -1},
		JetPhi:            []float32{math.Pi / 2, 3},
		JetCSVScore:       []float32{0.9, 0.3},
		FatJetPt:          []float32{300, 200},
		FatJetEta:         []float32{0, 1},
		FatJetPhi:         []float32{0, 1},
		FatJetTau1:        []float32{0.5, 0},
		FatJetTau2:        []float32{0.25, 0.1},
		FatJetTau3:        []float32{0, 0.05},
		FatJetDeepAK8:     []float32{0.75, 0.1},
		METPt:             42,
		EventNumber:       0b1011,
		HTagFJ1:           0.5,
		DNN200:            0.25,
	}}
	ctx := openContext(t, events, nil, Options{})

	tests := []struct {
		expr string
		want float64
	}{
		{"f:n=Pt/p:n=met", 42},
		{"f:n=N/p:n=j", 2},
		{"f:n=N/p:n=bj,wp=t", 1},
		{"f:n=N/p:n=bj,wp=l", 2},
		{"f:n=N/p:n=e,wp=t", 1},
		{"f:n=HT", 640},
		{"f:n=EvNr", 3},
		{"f:n=Const", 1},
		{"f:n=Const,v=4", 4},
		{"f:n=dPhi/p:n=e~p:n=j", math.Pi / 2},
		{"f:n=dR/p:n=e~p:n=j", math.Hypot(0, math.Pi/2)},
		{"f:n=Tau/p:n=fj", 0.5},
		{"f:n=Tau,v=3/p:n=fj", 0},
		{"f:n=HTag/p:n=fj", 0.5},
		{"f:n=DAK8/p:n=fj", 0.75},
		{"f:n=DNN,v=200", 0.25},
		{"pt_e1", 50},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			q := bind(t, ctx, tt.expr)
			v := q.Value(ctx.Begin(0))
			require.True(t, v.OK)
			assert.InDelta(t, tt.want, v.V, 1e-6)
		})
	}

	unavailable := []string{
		"f:n=Tau/p:n=fj,i=2",
		"f:n=Pt/p:n=fj,i=3",
		"f:n=DNN,v=300",
		"f:n=Mass/p:n=W",
	}
	for _, expr := range unavailable {
		t.Run(expr, func(t *testing.T) {
			q := bind(t, ctx, expr)
			assert.False(t, q.Value(ctx.Begin(0)).OK)
		})
	}
}

type sumScorer struct{}

func (sumScorer) Score(features []float64) (float64, error) {
	var total float64
	for _, f := range features {
		total += f
	}
	return total / 100, nil
}

type models map[float64]Scorer

func (m models) Scorer(mass float64) (Scorer, bool) {
	s, ok := m[mass]
	return s, ok
}

func TestDNNFallsBackToModel(t *testing.T) {
	features, err := compiler.CompileAll([]string{"f:n=Pt/p:n=e", "f:n=N/p:n=j"})
	require.NoError(t, err)

	events := testdata.Electrons(1, func(int) float32 { return 48 })
	ctx := openContext(t, events, nil, Options{
		Models:   models{500: sumScorer{}},
		Features: features,
	})
	q := bind(t, ctx, "f:n=DNN,v=500")
	ev := ctx.Begin(0)
	assert.InDelta(t, 0.48, q.Value(ev).V, 1e-9)
	assert.Contains(t, ev.scores, 500.0)
}

func efficiencyMeta(t *testing.T) *hist.File {
	t.Helper()
	x, err := hist.NewAxis(1, 0, 1000)
	require.NoError(t, err)
	y, err := hist.NewAxis(1, -3, 3)
	require.NoError(t, err)

	meta := simulation(1)
	truth := hist.NewH2(TrueBJets, "", x, y)
	truth.Fill(100, 0, 2)
	tagged := hist.NewH2("nTightCSVbTag", "", x, y)
	tagged.Fill(100, 0, 1)
	meta.H2[TrueBJets] = truth
	meta.H2["nTightCSVbTag"] = tagged
	return meta
}

func TestEfficiencyReweighting(t *testing.T) {
	jet := func(pt float32, flavour int32) testdata.Event {
		return testdata.Event{
			JetPt:          []float32{pt},
			JetEta:         []float32{0.5},
			JetPhi:         []float32{0},
			JetCSVScore:    []float32{0.95},
			JetTrueFlavour: []int32{flavour},
			JetTightCSVSF:  []float32{1.1},
		}
	}
	events := []testdata.Event{jet(100, 5), jet(100, 21), jet(2000, 0), jet(100, -5)}
	ctx := openContext(t, events, efficiencyMeta(t), Options{})
	q := bind(t, ctx, "f:n=N/p:n=bj,wp=t")

	for entry, want := range []float64{1.1, 0.9, 1, 1.1} {
		assert.InDelta(t, want, q.Weight(ctx.Begin(entry)), 1e-6, "entry %d", entry)
	}
}

func TestEfficiencyFactor(t *testing.T) {
	x, err := hist.NewAxis(3, 0, 300)
	require.NoError(t, err)
	y, err := hist.NewAxis(1, -3, 3)
	require.NoError(t, err)
	eff := hist.NewH2("effTight", "", x, y)
	eff.Fill(150, 0, 1)
	eff.Fill(250, 0, 0.5)

	missing := Value{}
	tests := []struct {
		name    string
		pt, eta Value
		flavour Value
		sf      float64
		want    float64
	}{
		{"zero efficiency", Available(50), Available(0), Available(0), 0.9, 1},
		{"zero efficiency genuine", Available(50), Available(0), Available(5), 0.9, 1},
		{"full efficiency", Available(150), Available(0), Available(0), 0.9, 1},
		{"full efficiency genuine", Available(150), Available(0), Available(-5), 0.9, 1},
		{"mistagged", Available(250), Available(0), Available(0), 0.9, 1.1},
		{"genuine", Available(250), Available(0), Available(5), 0.9, 0.9},
		{"genuine antiquark", Available(250), Available(0), Available(-5), 0.9, 0.9},
		{"unknown flavour", Available(250), Available(0), missing, 0.9, 1.1},
		{"outside map", Available(400), Available(0), Available(0), 0.9, 1},
		{"unreadable pt", missing, Available(0), Available(5), 0.9, 1},
		{"unreadable eta", Available(250), missing, Available(0), 0.9, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, efficiencyFactor(eff, tt.pt, tt.eta, tt.flavour, tt.sf), 1e-9)
		})
	}
}

func TestEfficiencyReweightingEdges(t *testing.T) {
	x, err := hist.NewAxis(3, 0, 300)
	require.NoError(t, err)
	y, err := hist.NewAxis(1, -3, 3)
	require.NoError(t, err)

	meta := simulation(1)
	truth := hist.NewH2(TrueBJets, "", x, y)
	tagged := hist.NewH2("nTightCSVbTag", "", x, y)
	for _, pt := range []float64{50, 150, 250} {
		truth.Fill(pt, 0, 2)
	}
	tagged.Fill(150, 0, 2)
	tagged.Fill(250, 0, 1)
	meta.H2[TrueBJets] = truth
	meta.H2["nTightCSVbTag"] = tagged

	jet := func(pt float32, flavour int32) testdata.Event {
		return testdata.Event{
			JetPt:          []float32{pt},
			JetEta:         []float32{0.5},
			JetPhi:         []float32{0},
			JetCSVScore:    []float32{0.95},
			JetTrueFlavour: []int32{flavour},
			JetTightCSVSF:  []float32{0.9},
		}
	}
	events := []testdata.Event{jet(50, 0), jet(150, 0), jet(150, 5), jet(250, 21), jet(250, 5)}
	ctx := openContext(t, events, meta, Options{})
	q := bind(t, ctx, "f:n=N/p:n=bj,wp=t")

	for entry, want := range []float64{1, 1, 1, 1.1, 0.9} {
		assert.InDelta(t, want, q.Weight(ctx.Begin(entry)), 1e-6, "entry %d", entry)
	}
}

func TestScaleFactorWeight(t *testing.T) {
	events := []testdata.Event{{
		ElectronPt:        []float32{50, 30},
		ElectronEta:       []float32{0, 0},
		ElectronPhi:       []float32{0, 0},
		ElectronID:        []int32{3, 1},
		ElectronIsolation: []float32{0.05, 0.05},
		ElectronRecoSF:    []float32{1.1, 2},
		ElectronTightSF:   []float32{0, 2},
	}}

	ctx := openContext(t, events, simulation(1), Options{})
	q := bind(t, ctx, "f:n=N/p:n=e,wp=t")
	// 1.1 * 1 (zero factor) * 2 * 2: the loose electron is weighted too.
	assert.InDelta(t, 4.4, q.Weight(ctx.Begin(0)), 1e-6)
	assert.Equal(t, 1.0, bind(t, ctx, "f:n=N/p:n=e").Weight(ctx.Begin(0)))

	data := simulation(1)
	data.Values[hist.KeyIsData] = 1
	ctx = openContext(t, events, data, Options{})
	q = bind(t, ctx, "f:n=N/p:n=e,wp=t")
	assert.Equal(t, 1.0, q.Weight(ctx.Begin(0)))
}

func TestCleaning(t *testing.T) {
	events := []testdata.Event{{
		ElectronPt:        []float32{50},
		ElectronEta:       []float32{0},
		ElectronPhi:       []float32{0},
		ElectronID:        []int32{3},
		ElectronIsolation: []float32{0.05},
		JetPt:             []float32{60, 45},
		JetEta:            []float32{0.1, 0},
		JetPhi:            []float32{0.1, 2},
		JetCSVScore:       []float32{0.9, 0.9},
	}}
	ref, err := ParseCleanRef("e/t", compiler.Tables())
	require.NoError(t, err)
	ctx := openContext(t, events, nil, Options{Clean: ref})

	ev := ctx.Begin(0)
	assert.Equal(t, 1.0, bind(t, ctx, "f:n=N/p:n=j").Value(ev).V)
	assert.Equal(t, 1.0, bind(t, ctx, "f:n=N/p:n=bj,wp=t").Value(ev).V)
	assert.Equal(t, 45.0, bind(t, ctx, "f:n=Pt/p:n=j,i=1").Value(ev).V)
	assert.Equal(t, hep.NotClean, ctx.Tier(ev, hep.Jet, 0))

	_, err = ParseCleanRef("j/t", compiler.Tables())
	assert.Error(t, err)
	_, err = ParseCleanRef("e/x", compiler.Tables())
	assert.ErrorIs(t, err, query.ErrUnknownTier)
}

type bareEvent struct {
	ElectronPt []float32 `parquet:"Electron_Pt"`
}

func TestMissingColumns(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "bare")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	f, err := os.Create(filepath.Join(dir, channel+".parquet"))
	require.NoError(t, err)
	w := parquet.NewGenericWriter[bareEvent](f)
	_, err = w.Write([]bareEvent{{ElectronPt: []float32{25}}})
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
	ctx := openDir(t, dir, Options{})

	d, err := compiler.Compile("f:n=N/p:n=e,wp=t")
	require.NoError(t, err)
	_, err = ctx.Bind(d)
	assert.ErrorIs(t, err, ErrMissingColumn)

	eta := bind(t, ctx, "f:n=Eta/p:n=e")
	assert.False(t, eta.Value(ctx.Begin(0)).OK)
	assert.Equal(t, Available(25), bind(t, ctx, "f:n=Pt/p:n=e").Value(ctx.Begin(0)))
}

func TestCutChain(t *testing.T) {
	events := testdata.Electrons(1000, func(i int) float32 {
		if i%2 == 0 {
			return 50
		}
		return 20
	})
	ctx := openContext(t, events, simulation(1000), Options{})

	cuts, err := compiler.CompileCuts([]string{
		"f:n=N/p:n=e,wp=t/c:n=equal,v=1",
		"f:n=Pt/p:n=e/c:n=bigger,v=30",
		"f:n=EvNr/c:n=divisible,v=2",
	})
	require.NoError(t, err)
	chain, err := ctx.NewCutChain(cuts)
	require.NoError(t, err)

	cf := ctx.CutflowSeed()
	passed := 0
	for entry, n := 0, ctx.Len(); entry < n; entry++ {
		if chain.Apply(ctx.Begin(entry), cf) {
			passed++
		}
	}

	labels := chain.Labels()
	require.Len(t, labels, 3)
	assert.Equal(t, "p_{T}(e_{1}) [GeV] > 30", labels[1])

	n, _ := cf.Value(labels[0])
	pt, _ := cf.Value(labels[1])
	assert.InDelta(t, 1.0, n, 1e-9)
	assert.InDelta(t, 0.5, pt, 1e-9)
	for i := 1; i < cf.Len(); i++ {
		assert.LessOrEqual(t, cf.SumW[i], cf.SumW[i-1])
	}
	assert.Positive(t, passed)

	d, err := compiler.Compile("f:n=Pt/p:n=e")
	require.NoError(t, err)
	_, err = ctx.NewCutChain([]*query.Descriptor{d})
	assert.ErrorIs(t, err, query.ErrMissingCut)
}

func TestUnavailableRejects(t *testing.T) {
	ctx := openContext(t, testdata.Electrons(3, func(int) float32 { return 50 }), nil, Options{})
	cuts, err := compiler.CompileCuts([]string{"f:n=Pt/p:n=e,i=2/c:n=smaller,v=1000"})
	require.NoError(t, err)
	chain, err := ctx.NewCutChain(cuts)
	require.NoError(t, err)

	cf := hist.NewCutflow(chain.Labels()...)
	for entry, n := 0, ctx.Len(); entry < n; entry++ {
		assert.False(t, chain.Apply(ctx.Begin(entry), cf))
	}
	assert.Equal(t, 0.0, cf.SumW[0])
}

func TestBaseWeightAndSeed(t *testing.T) {
	meta := simulation(100)
	meta.Values[hist.KeyXSec] = 2
	meta.Values[hist.KeyLumi] = 50

	x, err := hist.NewAxis(2, 0, 2)
	require.NoError(t, err)
	data := hist.NewH1(PileupData, "", x)
	data.Fill(0.5, 3)
	data.Fill(1.5, 1)
	mc := hist.NewH1(PileupMC, "", x)
	mc.Fill(0.5, 1)
	mc.Fill(1.5, 1)
	meta.H1[PileupData] = data
	meta.H1[PileupMC] = mc

	seed := hist.NewCutflow("No cut")
	seed.Fill("No cut", 100)
	meta.Cutflows[CutflowName+"_"+channel] = seed

	events := []testdata.Event{{TrueInteraction: 0.5, PrefireWeight: 0.5}, {TrueInteraction: 1.5, PrefireWeight: 1}}
	ctx := openContext(t, events, meta, Options{ExtraWeights: []string{"Weight_prefire"}})

	assert.InDelta(t, 1.0*1.5*0.5, ctx.BaseWeight(ctx.Begin(0)), 1e-9)
	assert.InDelta(t, 1.0*0.5, ctx.BaseWeight(ctx.Begin(1)), 1e-9)

	v, ok := ctx.CutflowSeed().Value("No cut")
	require.True(t, ok)
	assert.InDelta(t, 1.0, v, 1e-9)
	assert.Equal(t, 100.0, seed.SumW[0])
}
