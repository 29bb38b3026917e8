package stats

import (
	"cmp"
	"math"
	"slices"
)

// Group is the mean rate and sample count for one categorical value.
type Group struct {
	Key   string  `json:"key"`
	Mean  float64 `json:"mean"`
	Count int     `json:"count"`
}

// BinGroup is the mean rate and sample count for one age bin.
type BinGroup struct {
	Bin   AgeBin  `json:"bin"`
	Mean  float64 `json:"mean"`
	Count int     `json:"count"`
}

// GroupBy partitions items by key and reports the mean of value per group,
// ordered by ascending mean. Items with an empty key or a missing value are skipped.
func GroupBy[T any](items []T, key func(T) string, value func(T) float64) []Group {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, it := range items {
		k := key(it)
		v := value(it)
		if k == "" || math.IsNaN(v) {
			continue
		}
		sums[k] += v
		counts[k]++
	}

	groups := make([]Group, 0, len(sums))
	for k, sum := range sums {
		groups = append(groups, Group{Key: k, Mean: sum / float64(counts[k]), Count: counts[k]})
	}
	slices.SortFunc(groups, func(a, b Group) int {
		if c := cmp.Compare(a.Mean, b.Mean); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})
	return groups
}

// GroupByAgeBin reports the mean of value per age bin in bin order. Bins
// without valid items are omitted.
func GroupByAgeBin[T any](items []T, age func(T) float64, value func(T) float64) []BinGroup {
	var sums [len(ageBinLower)]float64
	var counts [len(ageBinLower)]int
	for _, it := range items {
		v := value(it)
		if math.IsNaN(v) {
			continue
		}
		b, err := ClassifyAge(age(it))
		if err != nil {
			continue
		}
		sums[b] += v
		counts[b]++
	}

	var out []BinGroup
	for _, b := range AgeBins() {
		if counts[b] == 0 {
			continue
		}
		out = append(out, BinGroup{Bin: b, Mean: sums[b] / float64(counts[b]), Count: counts[b]})
	}
	return out
}

// TopBottom returns the first n and the last n groups of an ascending-mean
// ordering. Both slices keep ascending order.
func TopBottom(groups []Group, n int) (top, bottom []Group) {
	if n <= 0 {
		return nil, nil
	}
	k := min(n, len(groups))
	top = slices.Clone(groups[:k])
	bottom = slices.Clone(groups[len(groups)-k:])
	return top, bottom
}
