package projection

import (
	"fmt"
	"math"
	"strings"

	"tankscope/internal/config"
	"tankscope/internal/stats"
)

// RateMode selects the cohort statistic that drives a projection.
type RateMode string

const (
	ModeMean   RateMode = "mean"
	ModeMedian RateMode = "median"
	ModeP75    RateMode = "p75"
	ModeP90    RateMode = "p90"
)

// RateModes lists the modes from most optimistic to most conservative.
func RateModes() []RateMode {
	return []RateMode{ModeMean, ModeMedian, ModeP75, ModeP90}
}

// ParseRateMode accepts the mode names and their common spellings.
func ParseRateMode(s string) (RateMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "mean", "average", "평균":
		return ModeMean, nil
	case "median", "p50", "중위수", "중위수(p50)":
		return ModeMedian, nil
	case "p75", "상위 75% (보수)":
		return ModeP75, nil
	case "p90", "상위 90% (매우 보수)":
		return ModeP90, nil
	}
	return "", fmt.Errorf("unknown rate mode %q (want mean, median, p75 or p90)", s)
}

// Label is the short column label used in scenario tables.
func (m RateMode) Label() string {
	switch m {
	case ModeMedian:
		return "P50"
	case ModeP75:
		return "P75"
	case ModeP90:
		return "P90"
	}
	return "mean"
}

// Statistic computes the raw statistic for mode over values.
func Statistic(values []float64, mode RateMode) (float64, error) {
	switch mode {
	case ModeMean:
		return stats.Mean(values)
	case ModeMedian:
		return stats.Quantile(values, 0.50)
	case ModeP75:
		return stats.Quantile(values, 0.75)
	case ModeP90:
		return stats.Quantile(values, 0.90)
	}
	return 0, fmt.Errorf("unknown rate mode %q", mode)
}

// Representative is Statistic floored at floor, so projections never run on
// a zero or negative rate.
func Representative(values []float64, mode RateMode, floor float64) (float64, error) {
	v, err := Statistic(values, mode)
	if err != nil {
		return 0, err
	}
	return math.Max(v, floor), nil
}

// Verdict is the pass/fail outcome of a projected thickness against the allowable minimum.
type Verdict string

const (
	Pass Verdict = "pass"
	Fail Verdict = "fail"
)

// LifeState qualifies a remaining-life estimate.
type LifeState string

const (
	LifeOK         LifeState = "ok"
	LifeExceedsCap LifeState = "exceeds_cap"
	LifeAtOrBelow  LifeState = "at_or_below_threshold"
	LifeNoWear     LifeState = "no_wear"
)

// RemainingLife is the years until the allowable thickness is reached.
// Years is nil unless State is ok or exceeds_cap.
type RemainingLife struct {
	Years *float64  `json:"years,omitempty"`
	State LifeState `json:"state"`
}

func (l RemainingLife) String() string {
	switch l.State {
	case LifeOK:
		return fmt.Sprintf("%.1f years", *l.Years)
	case LifeExceedsCap:
		return "beyond display cap"
	case LifeAtOrBelow:
		return "already at or below allowable thickness"
	}
	return "no measurable wear"
}

// EstimateLife computes (measured - allowable) / rate with the sentinel states
// for a non-positive margin, a non-positive rate and the display cap.
func EstimateLife(measured, rate float64, cfg config.Engine) RemainingLife {
	margin := measured - cfg.AllowableThickness
	if margin <= 0 {
		return RemainingLife{State: LifeAtOrBelow}
	}
	if math.IsNaN(rate) || rate <= 0 {
		return RemainingLife{State: LifeNoWear}
	}
	years := margin / rate
	if years > cfg.RemainingLifeCap {
		return RemainingLife{Years: &years, State: LifeExceedsCap}
	}
	return RemainingLife{Years: &years, State: LifeOK}
}

// Row is one line of a projection table.
type Row struct {
	Label     string        `json:"label"`
	Rate      float64       `json:"rate_mm_per_year"`
	Horizon   float64       `json:"horizon_years"`
	Loss      float64       `json:"loss_mm"`
	Thickness float64       `json:"projected_thickness_mm"`
	Verdict   Verdict       `json:"verdict"`
	Life      RemainingLife `json:"remaining_life"`
}

// Project extrapolates measured linearly over horizon years. A zero horizon
// returns the measured thickness unchanged.
func Project(label string, rate, measured, horizon float64, cfg config.Engine) Row {
	r := Row{Label: label, Rate: rate, Horizon: horizon, Thickness: measured}
	if horizon != 0 {
		r.Loss = rate * horizon
		r.Thickness = measured - r.Loss
	}
	r.Verdict = Fail
	if r.Thickness >= cfg.AllowableThickness {
		r.Verdict = Pass
	}
	r.Life = EstimateLife(measured, rate, cfg)
	return r
}

// Scenarios builds the what-if table: one row per rate mode at a single
// horizon, each rate floored at the configured epsilon.
func Scenarios(values []float64, measured, yearsLeft float64, cfg config.Engine) ([]Row, error) {
	rows := make([]Row, 0, len(RateModes()))
	for _, mode := range RateModes() {
		rate, err := Representative(values, mode, cfg.RateFloor)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: %w", mode, err)
		}
		rows = append(rows, Project(mode.Label(), rate, measured, yearsLeft, cfg))
	}
	return rows, nil
}

// Schedule projects a single rate over several horizons.
func Schedule(rate float64, label string, measured float64, horizons []float64, cfg config.Engine) []Row {
	rows := make([]Row, 0, len(horizons))
	for _, h := range horizons {
		rows = append(rows, Project(label, rate, measured, h, cfg))
	}
	return rows
}

// AnyFail reports whether at least one row fails.
func AnyFail(rows []Row) bool {
	for _, r := range rows {
		if r.Verdict == Fail {
			return true
		}
	}
	return false
}
