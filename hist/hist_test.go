package hist

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustAxis(t *testing.T, n int, lo, hi float64) Axis {
	t.Helper()
	a, err := NewAxis(n, lo, hi)
	require.NoError(t, err)
	return a
}

func TestAxisFindBin(t *testing.T) {
	a := mustAxis(t, 4, 0, 100)

	tests := []struct {
		x    float64
		want int
	}{
		{-1, 0},
		{0, 1},
		{24.999, 1},
		{25, 2},
		{99.999, 4},
		{100, 5},
		{1e9, 5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, a.FindBin(tt.x), "x=%g", tt.x)
	}
}

func TestNewAxisRejectsBadRanges(t *testing.T) {
	_, err := NewAxis(0, 0, 1)
	assert.Error(t, err)
	_, err = NewAxis(10, 1, 1)
	assert.Error(t, err)
}

func TestH1FillScaleAdd(t *testing.T) {
	h := NewH1("pt", "p_{T}", mustAxis(t, 10, 0, 100))
	h.Fill(15, 2)
	h.Fill(15, 1)
	h.Fill(150, 1)
	h.FillMissing(0.5)

	assert.Equal(t, 3.0, h.Content(2))
	assert.Equal(t, 5.0, h.SumW2[2])
	assert.Equal(t, 3.0, h.Integral())
	assert.Equal(t, 1.0, h.Content(11))

	h.Scale(0.5)
	assert.Equal(t, 1.5, h.Content(2))
	assert.Equal(t, 0.25, h.Missing)

	o := h.Clone("other")
	require.NoError(t, h.Add(o))
	assert.Equal(t, 3.0, h.Content(2))
	assert.Equal(t, "pt", h.Name)
	assert.Equal(t, "other", o.Name)

	bad := NewH1("x", "", mustAxis(t, 5, 0, 100))
	assert.ErrorIs(t, h.Add(bad), ErrBinningMismatch)
}

func TestH1Lookup(t *testing.T) {
	h := NewH1("pu", "", mustAxis(t, 2, 0, 2))
	h.Fill(0.5, 3)
	v, ok := h.Lookup(0.2)
	assert.True(t, ok)
	assert.Equal(t, 3.0, v)
	_, ok = h.Lookup(5)
	assert.False(t, ok)
}

func TestH2DivideAndLookup(t *testing.T) {
	x := mustAxis(t, 2, 0, 200)
	y := mustAxis(t, 2, -2.5, 2.5)
	num := NewH2("nTagged", "", x, y)
	den := NewH2("nTrueB", "", x, y)

	num.Fill(50, 1, 1)
	den.Fill(50, 1, 4)
	den.Fill(150, -1, 2)

	eff := num.Clone("eff")
	require.NoError(t, eff.Divide(den))

	v, ok := eff.Lookup(60, 0.5)
	assert.True(t, ok)
	assert.Equal(t, 0.25, v)

	v, ok = eff.Lookup(160, -2)
	assert.True(t, ok)
	assert.Equal(t, 0.0, v)

	_, ok = eff.Lookup(300, 0)
	assert.False(t, ok)

	assert.Equal(t, 1.0, num.Integral())
}

func TestCutflowFillAndAdd(t *testing.T) {
	c := NewCutflow("No cuts")
	c.Fill("No cuts", 10)
	c.Fill("p_{T} > 30", 4)
	c.Fill("p_{T} > 30", 1)

	assert.Equal(t, []string{"No cuts", "p_{T} > 30"}, c.Labels)
	v, ok := c.Value("p_{T} > 30")
	assert.True(t, ok)
	assert.Equal(t, 5.0, v)

	other := NewCutflow()
	other.Fill("p_{T} > 30", 1)
	other.Fill("No cuts", 2)
	other.Fill("N(b) >= 1", 0.5)
	c.Add(other)

	assert.Equal(t, []string{"No cuts", "p_{T} > 30", "N(b) >= 1"}, c.Labels)
	assert.Equal(t, []float64{12, 6, 0.5}, c.SumW)

	clone := c.Clone()
	clone.Scale(2)
	assert.Equal(t, 12.0, c.SumW[0])
	assert.Equal(t, 24.0, clone.SumW[0])
}

func TestFileRoundTripAndMerge(t *testing.T) {
	f := NewFile()
	f.RunID = "run-1"
	f.Values[KeyNGen] = 1000
	f.H1["pt"] = NewH1("pt", "", mustAxis(t, 10, 0, 100))
	f.H1["pt"].Fill(42, 1)
	f.Cutflows["cutflow"] = NewCutflow("start")
	f.Cutflows["cutflow"].Fill("start", 3)

	path := filepath.Join(t.TempDir(), "out.msgpack")
	require.NoError(t, f.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "run-1", loaded.RunID)
	assert.Equal(t, 1000.0, loaded.Value(KeyNGen, 1))
	assert.Equal(t, 1.0, loaded.Value(KeyXSec, 1))
	assert.Equal(t, 1.0, loaded.H1["pt"].Integral())
	assert.Empty(t, loaded.H2)

	require.NoError(t, loaded.Merge(f))
	assert.Equal(t, 2.0, loaded.H1["pt"].Integral())
	v, _ := loaded.Cutflows["cutflow"].Value("start")
	assert.Equal(t, 6.0, v)

	var buf bytes.Buffer
	require.NoError(t, NewFile().Encode(&buf))
	empty, err := Decode(&buf)
	require.NoError(t, err)
	assert.NotNil(t, empty.H1)
}
