package table

import (
	"sort"

	"github.com/go-gota/gota/series"
)

// CategoryCount is one entry of a value-count table.
type CategoryCount struct {
	Value string `yaml:"value"`
	Count int    `yaml:"count"`
}

// ValueCounts tallies non-null values, most frequent first. Ties are broken by value
// so the ordering is deterministic.
func ValueCounts(values []string) []CategoryCount {
	counts := make(map[string]int)
	for _, v := range values {
		if IsNull(v) {
			continue
		}
		counts[v]++
	}
	out := make([]CategoryCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, CategoryCount{Value: k, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count == out[j].Count {
			return out[i].Value < out[j].Value
		}
		return out[i].Count > out[j].Count
	})
	return out
}

// SortByValue reorders counts by value using less, leaving the input untouched.
func SortByValue(counts []CategoryCount, less func(a, b string) bool) []CategoryCount {
	out := make([]CategoryCount, len(counts))
	copy(out, counts)
	sort.SliceStable(out, func(i, j int) bool { return less(out[i].Value, out[j].Value) })
	return out
}

// CountNulls returns how many values are missing.
func CountNulls(values []string) int {
	n := 0
	for _, v := range values {
		if IsNull(v) {
			n++
		}
	}
	return n
}

// NumSummary describes a numeric column.
type NumSummary struct {
	Count int     `yaml:"count"`
	Mean  float64 `yaml:"mean"`
	Min   float64 `yaml:"min"`
	Max   float64 `yaml:"max"`
}

// Describe computes count, mean and range. An empty input yields a zero summary.
func Describe(vals []float64) NumSummary {
	if len(vals) == 0 {
		return NumSummary{}
	}
	s := series.New(vals, series.Float, "")
	return NumSummary{Count: s.Len(), Mean: s.Mean(), Min: s.Min(), Max: s.Max()}
}
