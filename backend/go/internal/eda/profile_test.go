package eda

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfile_MixedFrame(t *testing.T) {
	st := Profile(frameFromCSV(t, mixedCSV), Options{})

	assert.Equal(t, 4, st.NRows)
	assert.Equal(t, 6, st.NCols)
	assert.Equal(t, "int64", st.Dtypes["id"])
	assert.Equal(t, "object", st.Dtypes["city"])

	require.NotEmpty(t, st.MissingByCol)
	assert.Equal(t, Count{Name: "city", Count: 2}, st.MissingByCol[0])
	assert.Equal(t, Count{Name: "id", Count: 0}, st.MissingByCol[len(st.MissingByCol)-1])

	require.Len(t, st.NumericSummary, 3)
	id := st.NumericSummary[0]
	assert.Equal(t, "id", id.Column)
	assert.Equal(t, 4, id.Count)
	assert.Equal(t, Float(1.75), id.Q25)
	assert.InDelta(t, -1.2, float64(id.Kurtosis), 1e-9)

	pairs := make([]string, 0, len(st.TopCorrelations))
	for _, c := range st.TopCorrelations {
		pairs = append(pairs, c.ColX+"~"+c.ColY)
		assert.Equal(t, 1.0, c.AbsR)
	}
	assert.ElementsMatch(t, []string{"score~id", "score.1~id", "score.1~score"}, pairs)

	require.Len(t, st.TopCategories, 3)
	assert.Equal(t, "Unnamed: 2", st.TopCategories[0].Column)
	city := st.TopCategories[1]
	assert.Equal(t, OrderedCounts{{Name: "Paris", Count: 2}, {Name: "<NA>", Count: 2}}, city.Top)
}

func TestProfile_Limits(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 30; i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "c%d", i)
	}
	b.WriteString("\n")
	for r := 0; r < 3; r++ {
		for i := 0; i < 30; i++ {
			if i > 0 {
				b.WriteByte(',')
			}
			if r == 0 && i%2 == 0 {
				continue
			}
			fmt.Fprintf(&b, "%d", r*i+i)
		}
		b.WriteString("\n")
	}

	st := Profile(frameFromCSV(t, b.String()), Options{MaxCols: 5, CorrTopK: 7})
	assert.Len(t, st.Columns, 5)
	assert.Len(t, st.Dtypes, 5)
	assert.Len(t, st.MissingByCol, 20)
	assert.Len(t, st.TopCorrelations, 7)
	assert.Equal(t, 30, st.NCols)
}

func TestProfile_NoNumericColumns(t *testing.T) {
	st := Profile(frameFromCSV(t, "a,b\nx,y\nz,w\n"), Options{})
	assert.Empty(t, st.NumericSummary)
	assert.Empty(t, st.TopCorrelations)

	b, err := json.Marshal(st)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"numeric_summary":[]`)
	assert.Contains(t, string(b), `"top_correlations":[]`)
}

func TestOrderedCountsJSONKeepsOrder(t *testing.T) {
	oc := OrderedCounts{{Name: "z", Count: 3}, {Name: "a", Count: 1}, {Name: `q"x`, Count: 0}}
	b, err := json.Marshal(oc)
	require.NoError(t, err)
	assert.Equal(t, `{"z":3,"a":1,"q\"x":0}`, string(b))

	var back OrderedCounts
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, oc, back)
}

func TestNumericSummaryJSONNames(t *testing.T) {
	st := Profile(frameFromCSV(t, "v\n1\n"), Options{})
	b, err := json.Marshal(st.NumericSummary[0])
	require.NoError(t, err)
	var m map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	for _, k := range []string{"column", "count", "mean", "std", "min", "25%", "50%", "75%", "max", "skew", "kurtosis"} {
		assert.Contains(t, m, k)
	}
	assert.Nil(t, m["std"], "std of one value is null")
}
