package eda

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
)

// Options bound how much of a dataset is profiled and charted.
type Options struct {
	SampleRows         int
	MaxCols            int
	MaxNumericHists    int
	MaxCategoricalBars int
	CorrTopK           int
	TopCategories      int
}

// DefaultOptions returns the limits used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		SampleRows:         50000,
		MaxCols:            100,
		MaxNumericHists:    4,
		MaxCategoricalBars: 4,
		CorrTopK:           20,
		TopCategories:      10,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.SampleRows == 0 {
		o.SampleRows = d.SampleRows
	}
	if o.MaxCols <= 0 {
		o.MaxCols = d.MaxCols
	}
	if o.MaxNumericHists <= 0 {
		o.MaxNumericHists = d.MaxNumericHists
	}
	if o.MaxCategoricalBars <= 0 {
		o.MaxCategoricalBars = d.MaxCategoricalBars
	}
	if o.CorrTopK <= 0 {
		o.CorrTopK = d.CorrTopK
	}
	if o.TopCategories <= 0 {
		o.TopCategories = d.TopCategories
	}
	return o
}

const (
	maxMissingListed  = 20
	maxNumericSummary = 50
)

// Count is one (name, count) entry of an ordered mapping.
type Count struct {
	Name  string
	Count int
}

// OrderedCounts is a mapping that keeps insertion order in JSON.
type OrderedCounts []Count

func (oc OrderedCounts) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range oc {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.WriteString(strconv.Itoa(c.Count))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON keeps the key order of the source document.
func (oc *OrderedCounts) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	if _, err := dec.Token(); err != nil {
		return err
	}
	var out OrderedCounts
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		var n int
		if err := dec.Decode(&n); err != nil {
			return err
		}
		out = append(out, Count{Name: tok.(string), Count: n})
	}
	*oc = out
	return nil
}

// NumericSummary is one row of the describe() style table.
type NumericSummary struct {
	Column   string `json:"column"`
	Count    int    `json:"count"`
	Mean     Float  `json:"mean"`
	Std      Float  `json:"std"`
	Min      Float  `json:"min"`
	Q25      Float  `json:"25%"`
	Q50      Float  `json:"50%"`
	Q75      Float  `json:"75%"`
	Max      Float  `json:"max"`
	Skew     Float  `json:"skew"`
	Kurtosis Float  `json:"kurtosis"`
}

// Correlation is an absolute Pearson r between two numeric columns.
type Correlation struct {
	ColX string  `json:"col_x"`
	ColY string  `json:"col_y"`
	AbsR float64 `json:"abs_r"`
}

// CategoryCounts lists the most frequent values of one categorical column.
type CategoryCounts struct {
	Column string        `json:"column"`
	Top    OrderedCounts `json:"top"`
}

// Stats is the statistical part of a profile.
type Stats struct {
	NRows           int               `json:"n_rows"`
	NCols           int               `json:"n_cols"`
	Columns         []string          `json:"columns"`
	Dtypes          map[string]string `json:"dtypes"`
	MissingByCol    OrderedCounts     `json:"missing_by_col"`
	NumericSummary  []NumericSummary  `json:"numeric_summary"`
	TopCorrelations []Correlation     `json:"top_correlations"`
	TopCategories   []CategoryCounts  `json:"top_categories"`
}

// Chart is a rendered image with its slide title.
type Chart struct {
	Title string `json:"title"`
	Path  string `json:"path"`
}

// Result is the output of one EDA run.
type Result struct {
	DatasetID string  `json:"dataset_id"`
	Stats     Stats   `json:"stats"`
	Charts    []Chart `json:"charts"`
}

// Profile computes statistics for f. It does not render charts.
func Profile(f *Frame, opts Options) Stats {
	opts = opts.withDefaults()

	st := Stats{
		NRows:           f.NRows,
		NCols:           len(f.Columns),
		Dtypes:          make(map[string]string),
		NumericSummary:  []NumericSummary{},
		TopCorrelations: []Correlation{},
		TopCategories:   []CategoryCounts{},
	}
	for i, c := range f.Columns {
		if i >= opts.MaxCols {
			break
		}
		st.Columns = append(st.Columns, c.Name)
		st.Dtypes[c.Name] = string(c.Kind)
	}

	st.MissingByCol = missingByColumn(f)

	for i, c := range f.NumericColumns() {
		if i >= maxNumericSummary {
			break
		}
		st.NumericSummary = append(st.NumericSummary, summarize(c))
	}

	st.TopCorrelations = correlationPairs(f, opts.CorrTopK)

	for _, c := range f.CategoricalColumns() {
		if len(st.TopCategories) >= opts.MaxCategoricalBars {
			break
		}
		st.TopCategories = append(st.TopCategories, CategoryCounts{Column: c.Name, Top: TopValues(c, opts.TopCategories)})
	}
	return st
}

func missingByColumn(f *Frame) OrderedCounts {
	out := make(OrderedCounts, 0, len(f.Columns))
	for _, c := range f.Columns {
		out = append(out, Count{Name: c.Name, Count: c.MissingCount()})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if len(out) > maxMissingListed {
		out = out[:maxMissingListed]
	}
	return out
}

func summarize(c *Column) NumericSummary {
	vals := c.Values()
	lo, hi := MinMax(vals)
	return NumericSummary{
		Column:   c.Name,
		Count:    len(vals),
		Mean:     Float(Mean(vals)),
		Std:      Float(StdSample(vals)),
		Min:      Float(lo),
		Q25:      Float(Quantile(vals, 0.25)),
		Q50:      Float(Quantile(vals, 0.50)),
		Q75:      Float(Quantile(vals, 0.75)),
		Max:      Float(hi),
		Skew:     Float(Skew(vals)),
		Kurtosis: Float(Kurtosis(vals)),
	}
}

// correlationPairs returns the top-k |r| pairs (i > j) in descending order.
func correlationPairs(f *Frame, topK int) []Correlation {
	num := f.NumericColumns()
	pairs := []Correlation{}
	if len(num) < 2 {
		return pairs
	}
	type scored struct {
		c Correlation
		r float64
	}
	var all []scored
	for i := 1; i < len(num); i++ {
		for j := 0; j < i; j++ {
			r, ok := PairwisePearson(num[i], num[j])
			if !ok {
				continue
			}
			if r < 0 {
				r = -r
			}
			all = append(all, scored{c: Correlation{ColX: num[i].Name, ColY: num[j].Name}, r: r})
		}
	}
	sort.SliceStable(all, func(a, b int) bool { return all[a].r > all[b].r })
	for i, s := range all {
		if i >= topK {
			break
		}
		s.c.AbsR = Round(s.r, 3)
		pairs = append(pairs, s.c)
	}
	return pairs
}

// TopValues counts values of c, with "<NA>" for missing cells, and returns the
// k most frequent. Ties keep first-seen order.
func TopValues(c *Column, k int) OrderedCounts {
	counts := make(map[string]int)
	var order []string
	for i, raw := range c.Raw {
		v := raw
		if c.Missing[i] {
			v = "<NA>"
		}
		if _, ok := counts[v]; !ok {
			order = append(order, v)
		}
		counts[v]++
	}
	out := make(OrderedCounts, 0, len(order))
	for _, v := range order {
		out = append(out, Count{Name: v, Count: counts[v]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if k > 0 && len(out) > k {
		out = out[:k]
	}
	return out
}
