package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Locate returns the percentage (0-100) of valid sample values that are less
// than or equal to q, i.e. the empirical CDF evaluated at q.
func Locate(values []float64, q float64) (float64, error) {
	sorted := sortedClean(values)
	if len(sorted) == 0 {
		return 0, ErrEmptySample
	}
	if math.IsNaN(q) {
		return 0, fmt.Errorf("stats: locate NaN query")
	}
	return stat.CDF(q, stat.Empirical, sorted, nil) * 100, nil
}

// QuickAssessment compares the user's rate against a multiple of the cohort mean.
type QuickAssessment struct {
	Factor    float64 `json:"factor"`
	Threshold float64 `json:"threshold"`
	Elevated  bool    `json:"elevated"`
	Message   string  `json:"message"`
}

// QuickAssess flags a user rate above factor x cohort mean as elevated.
func QuickAssess(userRate, cohortMean, factor float64) QuickAssessment {
	qa := QuickAssessment{Factor: factor}
	if math.IsNaN(cohortMean) {
		qa.Message = "The cohort mean corrosion rate cannot be computed."
		return qa
	}
	qa.Threshold = cohortMean * factor
	if userRate <= qa.Threshold {
		qa.Message = fmt.Sprintf("Your corrosion rate is at most %.1fx the cohort mean and relatively favourable.", factor)
		return qa
	}
	qa.Elevated = true
	qa.Message = fmt.Sprintf("Your corrosion rate is above %.1fx the cohort mean; conservative management is recommended.", factor)
	return qa
}
