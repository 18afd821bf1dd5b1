package eda

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderCharts_OrderAndFiles(t *testing.T) {
	dir := t.TempDir()
	charts, err := RenderCharts(frameFromCSV(t, mixedCSV), dir, Options{})
	require.NoError(t, err)

	titles := make([]string, len(charts))
	for i, c := range charts {
		titles[i] = c.Title
	}
	assert.Equal(t, []string{
		"Missingness",
		"Correlation heatmap",
		"Distribution — id",
		"Distribution — score",
		"Distribution — score.1",
		"Top categories — Unnamed: 2",
		"Top categories — city",
		"Top categories — when",
	}, titles)

	assert.Equal(t, filepath.Join(dir, "bar_Unnamed__2.png"), charts[5].Path)
	for _, c := range charts {
		fh, err := os.Open(c.Path)
		require.NoError(t, err, c.Title)
		cfg, err := png.DecodeConfig(fh)
		fh.Close()
		require.NoError(t, err, c.Title)
		assert.Greater(t, cfg.Width, 0)
	}
}

func TestRenderCharts_SkipsOptionalCharts(t *testing.T) {
	charts, err := RenderCharts(frameFromCSV(t, "n,label\n1,a\n2,b\n"), t.TempDir(), Options{})
	require.NoError(t, err)
	require.Len(t, charts, 2)
	assert.Equal(t, "Distribution — n", charts[0].Title)
	assert.Equal(t, "Top categories — label", charts[1].Title)
}

func TestRenderCharts_RespectsLimits(t *testing.T) {
	f := frameFromCSV(t, "a,b,c,x,y\n1,2,3,p,q\n2,3,5,r,s\n")
	charts, err := RenderCharts(f, t.TempDir(), Options{MaxNumericHists: 1, MaxCategoricalBars: 1})
	require.NoError(t, err)
	assert.Len(t, charts, 3)
}

func TestHistogram(t *testing.T) {
	counts, lo, hi := histogram([]float64{0, 1, 2, 3, 10}, 5)
	assert.Equal(t, []int{2, 2, 0, 0, 1}, counts)
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 10.0, hi)

	counts, lo, hi = histogram([]float64{4, 4}, 3)
	assert.Equal(t, 3.5, lo)
	assert.Equal(t, 4.5, hi)
	assert.Equal(t, []int{0, 2, 0}, counts)
}

func TestSafeFileName(t *testing.T) {
	assert.Equal(t, "a_b_c.d-e", SafeFileName("a b/c.d-e"))
	assert.Equal(t, "__", SafeFileName("é?"))
}

func TestRunnerCachesResult(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "cached.csv")
	require.NoError(t, os.WriteFile(path, []byte(mixedCSV), 0o644))

	r := NewRunner(root, Options{}, 4)
	first, err := r.Run(path)
	require.NoError(t, err)
	second, err := r.Run(path)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, "cached", first.DatasetID)
	assert.DirExists(t, ImageDir(root, "cached"))

	require.NoError(t, os.RemoveAll(ImageDir(root, "cached")))
	third, err := r.Run(path)
	require.NoError(t, err)
	assert.NotSame(t, first, third, "missing charts force a rerun")
}
