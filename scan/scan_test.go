package scan

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vegasq/cutflow/engine"
	"github.com/vegasq/cutflow/hist"
	"github.com/vegasq/cutflow/internal/metrics"
	"github.com/vegasq/cutflow/internal/testdata"
	"github.com/vegasq/cutflow/output"
	"github.com/vegasq/cutflow/query"
	"github.com/vegasq/cutflow/reader"
)

const channel = "Ele4J"

var compiler = query.NewCompiler(query.DefaultTables())

func meta(nGen float64) *hist.File {
	m := hist.NewFile()
	m.Values[hist.KeyNGen] = nGen
	m.Values[hist.KeyXSec] = 1
	m.Values[hist.KeyLumi] = 1
	seed := hist.NewCutflow("Skim")
	seed.Fill("Skim", 2*nGen)
	m.Cutflows[engine.CutflowName+"_"+channel] = seed
	return m
}

func halfAbove30(i int) float32 {
	if i%2 == 0 {
		return 50
	}
	return 20
}

func dataset(t *testing.T, root, name string, n int) string {
	t.Helper()
	return testdata.WriteDataset(t, filepath.Join(root, name), channel, testdata.Electrons(n, halfAbove30), meta(float64(max(n, 1))), 100)
}

func TestPlan(t *testing.T) {
	root := t.TempDir()
	big := dataset(t, root, "big", 300)
	small := dataset(t, root, "small", 100)
	empty := dataset(t, root, "empty", 0)
	other := filepath.Join(root, "other")
	require.NoError(t, os.MkdirAll(other, 0o755))

	plan, err := NewPlan([]string{big, small, empty, other}, channel, 4, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{other}, plan.Skipped)

	perDataset := map[string][]Partition{}
	for i, p := range plan.Partitions {
		assert.Equal(t, i, p.ID)
		perDataset[p.Dir] = append(perDataset[p.Dir], p)
	}
	assert.Len(t, perDataset[big], 3)
	assert.Len(t, perDataset[small], 1)
	require.Len(t, perDataset[empty], 1)
	assert.Equal(t, int64(0), perDataset[empty][0].Len())

	for dir, parts := range perDataset {
		var next int64
		for _, p := range parts {
			assert.Equal(t, next, p.Start, dir)
			next = p.End
		}
		assert.Equal(t, parts[0].Entries, next, dir)
	}
	assert.Equal(t, int64(400), plan.Entries())
}

func TestPlanFraction(t *testing.T) {
	root := t.TempDir()
	ds := dataset(t, root, "ds", 301)

	plan, err := NewPlan([]string{ds}, channel, 2, 0.5, nil)
	require.NoError(t, err)
	require.Len(t, plan.Partitions, 2)
	assert.Equal(t, int64(150), plan.Entries())
	assert.Equal(t, int64(301), plan.Partitions[1].Entries)

	_, err = NewPlan([]string{ds}, channel, 2, 0, nil)
	assert.Error(t, err)
}

func TestPlanNoDatasets(t *testing.T) {
	dir := t.TempDir()
	_, err := NewPlan([]string{dir}, channel, 4, 1, nil)
	assert.ErrorIs(t, err, ErrNoDatasets)
}

func TestPlanSplit(t *testing.T) {
	root := t.TempDir()
	ds := dataset(t, root, "ds", 1000)
	plan, err := NewPlan([]string{ds}, channel, 2, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, plan.Workers)

	plan.Split(0)
	require.Len(t, plan.Partitions, 2)

	plan.Split(300)
	require.Len(t, plan.Partitions, 4)
	var next int64
	for i, p := range plan.Partitions {
		assert.Equal(t, i, p.ID)
		assert.Equal(t, next, p.Start)
		assert.Equal(t, int64(250), p.Len())
		assert.Equal(t, int64(1000), p.Entries)
		next = p.End
	}
	assert.Equal(t, int64(1000), plan.Entries())
}

func TestShares(t *testing.T) {
	tests := []struct {
		n, total int64
		workers  int
		want     int
	}{
		{1000, 1000, 4, 4},
		{10, 1000, 4, 1},
		{0, 1000, 4, 1},
		{3, 3, 8, 3},
		{500, 1000, 5, 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, shares(tt.n, tt.total, tt.workers), "%+v", tt)
	}
}

func options(t *testing.T, out string) Options {
	t.Helper()
	params, err := compiler.CompileAll([]string{
		"f:n=Pt/p:n=e/h:nxb=10,xl=0,xh=100/t:/csv:",
		"f:n=EvNr/t:",
	})
	require.NoError(t, err)
	cuts, err := compiler.CompileCuts([]string{
		"f:n=N/p:n=e,wp=t/c:n=biggerequal,v=1",
		"f:n=Pt/p:n=e/c:n=bigger,v=30",
	})
	require.NoError(t, err)
	return Options{Parameters: params, Cuts: cuts, Output: out}
}

func run(t *testing.T, dirs []string, workers int, opts Options) *Result {
	t.Helper()
	plan, err := NewPlan(dirs, channel, workers, 1, nil)
	require.NoError(t, err)
	res, err := NewRunner(plan, opts).Run(context.Background())
	require.NoError(t, err)
	return res
}

func TestRunEndToEnd(t *testing.T) {
	root := t.TempDir()
	ds := dataset(t, root, "ds", 1000)

	m := metrics.NewManager()
	opts := options(t, filepath.Join(root, "out"))
	opts.Metrics = m
	res := run(t, []string{ds}, 4, opts)

	cf := res.Cutflow(channel)
	require.NotNil(t, cf)
	require.Equal(t, []string{"Skim", "N(e^{tight}) >= 1", "p_{T}(e_{1}) [GeV] > 30"}, cf.Labels)
	assert.InDelta(t, 2.0, cf.SumW[0], 1e-9)
	assert.InDelta(t, 1.0, cf.SumW[1], 1e-9)
	assert.InDelta(t, 0.5, cf.SumW[2], 1e-9)
	assert.Equal(t, 1000, res.Scanned)
	assert.Equal(t, 500, res.Selected)

	h := res.Hists.H1["Pt_Electron_1"]
	require.NotNil(t, h)
	assert.InDelta(t, 0.5, h.Integral(), 1e-9)

	// histogram file plus one tree and one frame per partition
	assert.Len(t, res.Files, 1+2*4)
	for _, f := range res.Files {
		assert.FileExists(t, f)
	}
	loaded, err := hist.Load(res.Files[0])
	require.NoError(t, err)
	assert.Equal(t, res.RunID, loaded.RunID)
}

func TestRunPartitionedMatchesSingle(t *testing.T) {
	root := t.TempDir()
	ds := dataset(t, root, "ds", 1000)

	single := run(t, []string{ds}, 1, options(t, filepath.Join(root, "single")))
	parallel := run(t, []string{ds}, 4, options(t, filepath.Join(root, "parallel")))

	a, b := single.Cutflow(channel), parallel.Cutflow(channel)
	require.Equal(t, a.Labels, b.Labels)
	for i := range a.SumW {
		assert.InDelta(t, a.SumW[i], b.SumW[i], 1e-9, a.Labels[i])
	}
	ha, hb := single.Hists.H1["Pt_Electron_1"], parallel.Hists.H1["Pt_Electron_1"]
	for i := range ha.SumW {
		assert.InDelta(t, ha.SumW[i], hb.SumW[i], 1e-9)
	}
}

func TestRunMultipleDatasets(t *testing.T) {
	root := t.TempDir()
	a := dataset(t, root, "a", 200)
	b := dataset(t, root, "b", 600)
	empty := dataset(t, root, "empty", 0)

	opts := options(t, filepath.Join(root, "out"))
	opts.FrameSuffix = ".csv.zst"
	opts.PinThreads = true
	res := run(t, []string{a, b, empty}, 3, opts)

	cf := res.Cutflow(channel)
	// every dataset contributes its scaled seed, the empty one included
	assert.InDelta(t, 6.0, cf.SumW[0], 1e-9)
	assert.InDelta(t, 1.0, cf.SumW[2], 1e-9)
	assert.Equal(t, 800, res.Scanned)
}

func TestRunCancelled(t *testing.T) {
	root := t.TempDir()
	ds := dataset(t, root, "ds", 10)
	plan, err := NewPlan([]string{ds}, channel, 2, 1, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewRunner(plan, options(t, filepath.Join(root, "out"))).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunRejectsFrameSuffix(t *testing.T) {
	root := t.TempDir()
	ds := dataset(t, root, "ds", 10)
	plan, err := NewPlan([]string{ds}, channel, 1, 1, nil)
	require.NoError(t, err)

	opts := options(t, filepath.Join(root, "out"))
	opts.FrameSuffix = ".xml"
	_, err = NewRunner(plan, opts).Run(context.Background())
	assert.Error(t, err)
}

func TestRunStreamsBatches(t *testing.T) {
	root := t.TempDir()
	ds := dataset(t, root, "ds", 1000)
	single := run(t, []string{ds}, 1, options(t, filepath.Join(root, "single")))

	plan, err := NewPlan([]string{ds}, channel, 2, 1, nil)
	require.NoError(t, err)
	plan.Split(150)
	require.Len(t, plan.Partitions, 8)

	opts := options(t, filepath.Join(root, "split"))
	opts.BatchRows = 7
	res, err := NewRunner(plan, opts).Run(context.Background())
	require.NoError(t, err)

	a, b := single.Cutflow(channel), res.Cutflow(channel)
	require.Equal(t, a.Labels, b.Labels)
	for i := range a.SumW {
		assert.InDelta(t, a.SumW[i], b.SumW[i], 1e-9, a.Labels[i])
	}
	assert.Len(t, res.Files, 1+2*8)

	// partition 0 covers entries [0, 125), of which the 63 even ones pass
	f, err := output.Open(filepath.Join(root, "split_0.csv"))
	require.NoError(t, err)
	content, err := io.ReadAll(f)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	assert.Equal(t, "Pt_Electron_1", lines[0])
	assert.Len(t, lines, 1+63)

	out, err := reader.OpenDataset(root)
	require.NoError(t, err)
	tree, err := out.OpenTree("split_0", 0, -1)
	require.NoError(t, err)
	defer func() { _ = tree.Close() }()
	assert.Equal(t, 63, tree.Len())
}
