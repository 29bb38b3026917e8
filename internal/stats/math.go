// Package stats holds the sample statistics the engine is built on: cleaning,
// quantiles, descriptive summaries, grouping and IQR outlier detection.
package stats

import (
	"errors"
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"
)

// ErrEmptySample is returned when a statistic is requested over zero valid values.
var ErrEmptySample = errors.New("stats: empty sample")

// Clean returns a copy of values with NaN and infinite entries removed.
func Clean(values []float64) []float64 {
	out := make([]float64, 0, len(values))
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// sortedClean works on a copy to avoid mutating the caller's slice.
func sortedClean(values []float64) []float64 {
	temp := Clean(values)
	slices.Sort(temp)
	return temp
}

// Quantile returns the p-quantile (0..1) of the valid values in the sample.
func Quantile(values []float64, p float64) (float64, error) {
	sorted := sortedClean(values)
	if len(sorted) == 0 {
		return 0, ErrEmptySample
	}
	return quantileSorted(sorted, p), nil
}

// Median is Quantile(values, 0.5).
func Median(values []float64) (float64, error) {
	return Quantile(values, 0.5)
}

// Mean returns the arithmetic mean of the valid values in the sample.
func Mean(values []float64) (float64, error) {
	clean := Clean(values)
	if len(clean) == 0 {
		return 0, ErrEmptySample
	}
	return stat.Mean(clean, nil), nil
}

// quantileSorted interpolates linearly between closest ranks, h = (n-1)p.
// The median of an even-sized sample is the mean of the two middle values.
func quantileSorted(sorted []float64, p float64) float64 {
	p = math.Max(0, math.Min(1, p))
	h := float64(len(sorted)-1) * p
	lo := int(math.Floor(h))
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[lo+1]-sorted[lo])
}
