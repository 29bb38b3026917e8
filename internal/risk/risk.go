// Package risk scores a single tank against its cohort.
//
// The composite index blends three bounded sub-scores:
//
//	absolute (0-40)  thickness margin above the allowable minimum
//	relative (0-30)  user rate against the cohort mean rate
//	future   (0-30)  margin left after a 20-year linear projection
//
// The total is clamped to [0,100] and bucketed into grades A-D.
package risk

import (
	"errors"
	"fmt"
	"math"

	"tankscope/internal/config"
)

// ErrMissingInput signals that the measured thickness or the user rate is
// absent, so no score can be produced.
var ErrMissingInput = errors.New("risk: missing input")

const (
	absoluteMax  = 40.0
	relativeMax  = 30.0
	futureMax    = 30.0
	marginSpan   = 5.0  // mm of margin at which the absolute score reaches 0
	futureSpan   = 10.0 // mm of projected thickness at which the future score reaches 0
	futureYears  = 20.0
	relativeUnit = 15.0 // points per multiple of the cohort mean
)

// Grade is the ordinal risk bucket.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
)

// GradeFor buckets a clamped total: [0,30) A, [30,55) B, [55,80) C, [80,100] D.
func GradeFor(total float64) Grade {
	switch {
	case total < 30:
		return GradeA
	case total < 55:
		return GradeB
	case total < 80:
		return GradeC
	default:
		return GradeD
	}
}

// Input carries the values the index is computed from. Nil means not supplied.
type Input struct {
	MeasuredThickness *float64
	UserRate          *float64
	CohortMeanRate    float64
}

// Index is a computed risk assessment.
type Index struct {
	Absolute           float64 `json:"absolute"`
	Relative           float64 `json:"relative"`
	Future             float64 `json:"future"`
	Total              float64 `json:"total"`
	Grade              Grade   `json:"grade"`
	Margin             float64 `json:"margin_mm"`
	ProjectedThickness float64 `json:"projected_thickness_20y_mm"`
	CohortMeanUsed     float64 `json:"cohort_mean_used"`
}

// Evaluate computes the composite index. The cohort mean is floored at the
// configured epsilon; a NaN cohort mean is treated as the floor.
func Evaluate(in Input, cfg config.Engine) (Index, error) {
	if in.MeasuredThickness == nil || in.UserRate == nil {
		return Index{}, ErrMissingInput
	}
	measured, rate := *in.MeasuredThickness, *in.UserRate
	if math.IsNaN(measured) || math.IsNaN(rate) {
		return Index{}, fmt.Errorf("%w: NaN thickness or rate", ErrMissingInput)
	}

	idx := Index{Margin: measured - cfg.AllowableThickness}
	idx.Absolute = clamp(0, absoluteMax, (marginSpan-idx.Margin)/marginSpan*absoluteMax)

	idx.CohortMeanUsed = cfg.RateFloor
	if !math.IsNaN(in.CohortMeanRate) && in.CohortMeanRate > cfg.RateFloor {
		idx.CohortMeanUsed = in.CohortMeanRate
	}
	idx.Relative = clamp(0, relativeMax, rate/idx.CohortMeanUsed*relativeUnit)

	idx.ProjectedThickness = measured - rate*futureYears
	if idx.ProjectedThickness <= cfg.AllowableThickness {
		idx.Future = futureMax
	} else {
		idx.Future = clamp(0, futureMax, (futureSpan-idx.ProjectedThickness)*3)
	}

	idx.Total = clamp(0, 100, idx.Absolute+idx.Relative+idx.Future)
	idx.Grade = GradeFor(idx.Total)
	return idx, nil
}

func clamp(lo, hi, v float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
