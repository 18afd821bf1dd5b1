// Package eda loads tabular datasets and profiles them: column types,
// missingness, numeric summaries, correlations and category counts.
package eda

import (
	"math"
	"strings"
	"time"
)

// Kind is the inferred type of a column, reported with pandas-style dtype names
// so that downstream consumers of the JSON stats see familiar labels.
type Kind string

const (
	KindInt      Kind = "int64"
	KindFloat    Kind = "float64"
	KindBool     Kind = "bool"
	KindDatetime Kind = "datetime64[ns]"
	KindObject   Kind = "object"
)

// Numeric reports whether the kind takes part in numeric summaries.
func (k Kind) Numeric() bool {
	return k == KindInt || k == KindFloat
}

// Categorical reports whether the kind takes part in category counts.
func (k Kind) Categorical() bool {
	return k == KindObject
}

// Column holds one column of a Frame. Raw always keeps the original cells;
// Num and Time are filled according to Kind. Missing[i] marks NA cells.
type Column struct {
	Name    string
	Kind    Kind
	Raw     []string
	Missing []bool
	Num     []float64
	Time    []time.Time
}

// MissingCount returns the number of NA cells.
func (c *Column) MissingCount() int {
	n := 0
	for _, m := range c.Missing {
		if m {
			n++
		}
	}
	return n
}

// Values returns the non-missing numeric values of a numeric column.
func (c *Column) Values() []float64 {
	out := make([]float64, 0, len(c.Num))
	for i, v := range c.Num {
		if !c.Missing[i] {
			out = append(out, v)
		}
	}
	return out
}

// Frame is a loaded dataset.
type Frame struct {
	Name    string
	Columns []*Column
	NRows   int
}

// NumericColumns returns numeric columns in column order.
func (f *Frame) NumericColumns() []*Column {
	var out []*Column
	for _, c := range f.Columns {
		if c.Kind.Numeric() {
			out = append(out, c)
		}
	}
	return out
}

// CategoricalColumns returns object columns in column order.
func (f *Frame) CategoricalColumns() []*Column {
	var out []*Column
	for _, c := range f.Columns {
		if c.Kind.Categorical() {
			out = append(out, c)
		}
	}
	return out
}

var naTokens = map[string]struct{}{
	"": {}, "NA": {}, "N/A": {}, "n/a": {}, "NaN": {}, "nan": {}, "-NaN": {}, "-nan": {},
	"null": {}, "NULL": {}, "None": {}, "#N/A": {}, "<NA>": {},
}

// IsMissing reports whether a raw cell is a missing-value token.
func IsMissing(s string) bool {
	_, ok := naTokens[strings.TrimSpace(s)]
	return ok
}

func newColumn(name string, raw []string) *Column {
	c := &Column{Name: name, Kind: KindObject, Raw: raw, Missing: make([]bool, len(raw))}
	for i, v := range raw {
		c.Missing[i] = IsMissing(v)
	}
	return c
}

// NaN is shorthand used by the statistics helpers.
var NaN = math.NaN()
