package assessment

import (
	"fmt"
	"math"

	"tankscope/internal/config"
	"tankscope/internal/dataset"
	"tankscope/internal/projection"
)

// UserTank is the operator's own tank. Nil fields were not supplied.
type UserTank struct {
	DesignThickness   *float64 `json:"design_thickness_mm,omitempty"`
	MeasuredThickness *float64 `json:"measured_thickness_mm,omitempty"`
	Age               *float64 `json:"age_years,omitempty"`
}

// Rate derives the tank's corrosion rate. It is defined only when design
// thickness, measured thickness and age are all strictly positive.
//
//	per_year         (design - measured) / age              mm/year
//	legacy_fraction  (design - measured) / (design * age)   fraction/year
func (u UserTank) Rate(formula string) (float64, error) {
	if !positive(u.DesignThickness) || !positive(u.MeasuredThickness) || !positive(u.Age) {
		return 0, fmt.Errorf("design thickness, measured thickness and age must all be positive")
	}
	d, m, a := *u.DesignThickness, *u.MeasuredThickness, *u.Age
	switch formula {
	case config.RateFormulaPerYear, "":
		return (d - m) / a, nil
	case config.RateFormulaLegacyFraction:
		return (d - m) / (d * a), nil
	}
	return 0, fmt.Errorf("unknown rate formula %q", formula)
}

func positive(p *float64) bool {
	return p != nil && !math.IsNaN(*p) && *p > 0
}

// Query is the complete, immutable input of one assessment pass.
type Query struct {
	Filter    dataset.Filter      `json:"filter"`
	Tank      UserTank            `json:"tank"`
	YearsLeft *float64            `json:"years_left,omitempty"`
	RateMode  projection.RateMode `json:"rate_mode,omitempty"`
	// Seed fixes the Monte Carlo generator; zero seeds from the clock.
	Seed uint64 `json:"seed,omitempty"`
	// TopN bounds the best/worst material and region lists.
	TopN int `json:"top_n,omitempty"`
}

func (q Query) yearsLeft(cfg config.Engine) float64 {
	if q.YearsLeft == nil || math.IsNaN(*q.YearsLeft) || *q.YearsLeft < 0 {
		return cfg.DefaultYearsLeft
	}
	return *q.YearsLeft
}

func (q Query) topN() int {
	if q.TopN <= 0 {
		return 5
	}
	return q.TopN
}

func (q Query) mode() projection.RateMode {
	if q.RateMode == "" {
		return projection.ModeMean
	}
	return q.RateMode
}
