package stats

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary holds the descriptive statistics of a corrosion-rate sample.
// Quantiles are nil when the sample has no valid values.
type Summary struct {
	N    int      `json:"n"`
	Mean float64  `json:"mean"`
	Std  float64  `json:"std"`
	Min  float64  `json:"min"`
	Max  float64  `json:"max"`
	P10  *float64 `json:"p10,omitempty"`
	P25  *float64 `json:"p25,omitempty"`
	P50  *float64 `json:"p50,omitempty"`
	P75  *float64 `json:"p75,omitempty"`
	P90  *float64 `json:"p90,omitempty"`
}

// Empty reports whether the summary was computed over zero valid values.
func (s Summary) Empty() bool {
	return s.N == 0
}

// Describe computes count, mean, population standard deviation, range and the
// 10/25/50/75/90 quantiles. Missing values are excluded first.
func Describe(values []float64) Summary {
	sorted := sortedClean(values)
	n := len(sorted)
	if n == 0 {
		return Summary{}
	}

	s := Summary{
		N:    n,
		Mean: stat.Mean(sorted, nil),
		Min:  floats.Min(sorted),
		Max:  floats.Max(sorted),
	}
	if n > 1 {
		s.Std = stat.PopStdDev(sorted, nil)
	}

	q := func(p float64) *float64 {
		v := quantileSorted(sorted, p)
		return &v
	}
	s.P10 = q(0.10)
	s.P25 = q(0.25)
	s.P50 = q(0.50)
	s.P75 = q(0.75)
	s.P90 = q(0.90)
	return s
}
