package eda

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescriptiveStats(t *testing.T) {
	x := []float64{1, 2, 3, 4}

	assert.Equal(t, 2.5, Mean(x))
	assert.InDelta(t, 1.290994, StdSample(x), 1e-6)
	assert.Equal(t, 1.75, Quantile(x, 0.25))
	assert.Equal(t, 2.5, Quantile(x, 0.5))
	assert.Equal(t, 3.25, Quantile(x, 0.75))
	assert.InDelta(t, 0, Skew(x), 1e-12)
	assert.InDelta(t, -1.2, Kurtosis(x), 1e-9)

	lo, hi := MinMax(x)
	assert.Equal(t, 1.0, lo)
	assert.Equal(t, 4.0, hi)
}

func TestDescriptiveStats_SmallSamples(t *testing.T) {
	assert.True(t, math.IsNaN(Mean(nil)))
	assert.True(t, math.IsNaN(StdSample([]float64{1})))
	assert.True(t, math.IsNaN(Skew([]float64{1, 2})))
	assert.True(t, math.IsNaN(Kurtosis([]float64{1, 2, 3})))
	assert.Equal(t, 0.0, Skew([]float64{5, 5, 5}))
}

func TestSkewMatchesPandas(t *testing.T) {
	// pandas.Series([1, 2, 3, 4, 10]).skew()
	assert.InDelta(t, 1.6971, Skew([]float64{1, 2, 3, 4, 10}), 1e-4)
}

func TestPairwisePearson(t *testing.T) {
	f := frameFromCSV(t, "a,b,c,k\n1,8,1,3\n2,6,NA,3\n3,4,3,3\n4,2,4,3\n")

	r, ok := PairwisePearson(column(t, f, "a"), column(t, f, "b"))
	require.True(t, ok)
	assert.InDelta(t, -1, r, 1e-12)

	r, ok = PairwisePearson(column(t, f, "a"), column(t, f, "c"))
	require.True(t, ok)
	assert.InDelta(t, 1, r, 1e-12)

	_, ok = PairwisePearson(column(t, f, "a"), column(t, f, "k"))
	assert.False(t, ok, "constant column has no correlation")
}

func TestFloatJSON(t *testing.T) {
	b, err := json.Marshal([]Float{1.5, Float(math.NaN()), Float(math.Inf(1))})
	require.NoError(t, err)
	assert.JSONEq(t, `[1.5,null,null]`, string(b))

	var back []Float
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, Float(1.5), back[0])
	assert.True(t, math.IsNaN(float64(back[1])))
}

func TestRound(t *testing.T) {
	assert.Equal(t, 0.123, Round(0.12345, 3))
	assert.Equal(t, 1.0, Round(0.9996, 3))
}
