package eda

import (
	"encoding/json"
	"math"
	"sort"
	"strconv"

	"github.com/montanaflynn/stats"
)

// Float is a float64 that serialises NaN and ±Inf as JSON null.
type Float float64

func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(v, 'g', -1, 64)), nil
}

func (f *Float) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = Float(math.NaN())
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = Float(v)
	return nil
}

// Mean returns the arithmetic mean, NaN when empty.
func Mean(x []float64) float64 {
	m, err := stats.Mean(x)
	if err != nil {
		return math.NaN()
	}
	return m
}

// StdSample returns the sample standard deviation (ddof=1), NaN when n < 2.
func StdSample(x []float64) float64 {
	if len(x) < 2 {
		return math.NaN()
	}
	s, err := stats.StandardDeviationSample(x)
	if err != nil {
		return math.NaN()
	}
	return s
}

// MinMax returns the extremes, NaN when empty.
func MinMax(x []float64) (float64, float64) {
	lo, err := stats.Min(x)
	if err != nil {
		return math.NaN(), math.NaN()
	}
	hi, _ := stats.Max(x)
	return lo, hi
}

// Quantile returns the q-th quantile (0..1) using linear interpolation
// between closest ranks.
func Quantile(x []float64, q float64) float64 {
	n := len(x)
	if n == 0 {
		return math.NaN()
	}
	cp := make([]float64, n)
	copy(cp, x)
	sort.Float64s(cp)
	if q <= 0 {
		return cp[0]
	}
	if q >= 1 {
		return cp[n-1]
	}
	rank := q * float64(n-1)
	lower := int(rank)
	weight := rank - float64(lower)
	if lower+1 >= n {
		return cp[lower]
	}
	return cp[lower]*(1-weight) + cp[lower+1]*weight
}

func centralSums(x []float64) (m2, m3, m4 float64) {
	mean := Mean(x)
	for _, v := range x {
		d := v - mean
		d2 := d * d
		m2 += d2
		m3 += d2 * d
		m4 += d2 * d2
	}
	return
}

// Skew returns the adjusted Fisher-Pearson skewness. NaN when n < 3, 0 for a
// constant series.
func Skew(x []float64) float64 {
	n := float64(len(x))
	if n < 3 {
		return math.NaN()
	}
	m2, m3, _ := centralSums(x)
	if m2 == 0 {
		return 0
	}
	return (n * math.Sqrt(n-1) / (n - 2)) * (m3 / math.Pow(m2, 1.5))
}

// Kurtosis returns bias-corrected excess kurtosis. NaN when n < 4, 0 for a
// constant series.
func Kurtosis(x []float64) float64 {
	n := float64(len(x))
	if n < 4 {
		return math.NaN()
	}
	m2, _, m4 := centralSums(x)
	if m2 == 0 {
		return 0
	}
	num := n * (n + 1) * (n - 1) * m4
	den := (n - 2) * (n - 3) * m2 * m2
	adj := 3 * (n - 1) * (n - 1) / ((n - 2) * (n - 3))
	return num/den - adj
}

// PairwisePearson computes r over rows where both columns are present.
// ok is false when fewer than two pairs remain or either side is constant.
func PairwisePearson(a, b *Column) (r float64, ok bool) {
	var xs, ys []float64
	for i := range a.Num {
		if a.Missing[i] || b.Missing[i] {
			continue
		}
		xs = append(xs, a.Num[i])
		ys = append(ys, b.Num[i])
	}
	if len(xs) < 2 {
		return math.NaN(), false
	}
	// stats.Pearson reports 0 for a constant series; correlation is undefined there
	if lo, hi := MinMax(xs); lo == hi {
		return math.NaN(), false
	}
	if lo, hi := MinMax(ys); lo == hi {
		return math.NaN(), false
	}
	r, err := stats.Pearson(xs, ys)
	if err != nil || math.IsNaN(r) || math.IsInf(r, 0) {
		return math.NaN(), false
	}
	return r, true
}

// Round rounds v to the given number of decimals.
func Round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
