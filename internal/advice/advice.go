// Package advice turns computed metrics into ordered maintenance guidance.
package advice

import (
	"fmt"

	"tankscope/internal/risk"
)

// DefaultMessage is emitted when no rule fires.
const DefaultMessage = "No additional risk factors found. Keep the current inspection cycle and log new measurements."

// marginAlert is the thickness margin (mm) at or below which repair planning is advised.
const marginAlert = 1.0

// replacementProbability is the long-horizon failure probability (%) that triggers replacement planning.
const replacementProbability = 50.0

// Inputs collects the metrics the rules read. Pointer fields are nil when the
// upstream component was unavailable.
type Inputs struct {
	MeasuredThickness  *float64
	UserRate           *float64
	CohortMeanRate     float64
	AllowableThickness float64
	YearsLeft          float64
	AnyProjectionFails bool
	Grade              *risk.Grade
	FailureHorizon     float64
	FailureProbability *float64
	SubCohortFallback  bool
}

// Rule inspects the inputs and returns a message, or "" when it does not fire.
type Rule func(Inputs) string

// Rules is the ordered decision table.
var Rules = []Rule{
	rateVersusCohort,
	thinMargin,
	failingProjection,
	gradeD,
	likelyFailure,
	thinEvidence,
}

// Recommend evaluates every rule in order and keeps each fired message. When
// the user's thickness or rate is missing only the data-entry prompt is returned.
func Recommend(in Inputs) []string {
	if in.MeasuredThickness == nil || in.UserRate == nil {
		return []string{"Enter the measured thickness and corrosion rate (design thickness, measured thickness and age) to receive recommendations."}
	}
	var out []string
	for _, rule := range Rules {
		if msg := rule(in); msg != "" {
			out = append(out, msg)
		}
	}
	if len(out) == 0 {
		out = append(out, DefaultMessage)
	}
	return out
}

func rateVersusCohort(in Inputs) string {
	if in.CohortMeanRate <= 0 {
		return ""
	}
	ratio := *in.UserRate / in.CohortMeanRate
	switch {
	case ratio <= 1.0:
		return fmt.Sprintf("Corrosion rate is at or below the cohort mean (%.2fx); keep the current inspection cycle.", ratio)
	case ratio <= 1.5:
		return fmt.Sprintf("Corrosion rate is %.2fx the cohort mean; increase measurement density at the next inspection.", ratio)
	default:
		return fmt.Sprintf("Corrosion rate is %.2fx the cohort mean; improve corrosion protection (coating, cathodic protection) and remeasure in the short term.", ratio)
	}
}

func thinMargin(in Inputs) string {
	margin := *in.MeasuredThickness - in.AllowableThickness
	if margin > marginAlert {
		return ""
	}
	return fmt.Sprintf("Only %.2f mm remain above the %.1f mm allowable thickness; plan short-term repair or review operating conditions.", margin, in.AllowableThickness)
}

func failingProjection(in Inputs) string {
	if in.YearsLeft < 3 || !in.AnyProjectionFails {
		return ""
	}
	return fmt.Sprintf("A projection fails the allowable thickness within the %.1f years before the next inspection; shorten the inspection interval.", in.YearsLeft)
}

func gradeD(in Inputs) string {
	if in.Grade == nil || *in.Grade != risk.GradeD {
		return ""
	}
	return "Risk grade D: prioritise a detailed inspection."
}

func likelyFailure(in Inputs) string {
	if in.FailureProbability == nil || *in.FailureProbability < replacementProbability {
		return ""
	}
	return fmt.Sprintf("Failure probability within %.0f years is %.1f%%; plan replacement or major repair.", in.FailureHorizon, *in.FailureProbability)
}

func thinEvidence(in Inputs) string {
	if !in.SubCohortFallback {
		return ""
	}
	return "Too few comparable tanks in the same age bin; the full dataset was used. Collect more comparable records."
}
