// Package assessment runs one complete recomputation pass: cohort statistics,
// percentile, risk index, projections, Monte Carlo and recommendations.
package assessment

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"tankscope/internal/advice"
	"tankscope/internal/config"
	"tankscope/internal/dataset"
	"tankscope/internal/projection"
	"tankscope/internal/risk"
	"tankscope/internal/simulation"
	"tankscope/internal/stats"
)

// Report is the output of one assessment pass. Components that could not be
// computed are nil and explained in Warnings.
type Report struct {
	ID                 string                      `json:"id"`
	GeneratedAt        time.Time                   `json:"generated_at"`
	Query              Query                       `json:"query"`
	AllowableThickness float64                     `json:"allowable_thickness_mm"`
	RateFormula        string                      `json:"rate_formula"`
	SampleSize         int                         `json:"sample_size"`
	Cohort             *Cohort                     `json:"cohort"`
	UserRate           *float64                    `json:"user_rate,omitempty"`
	Percentile         *float64                    `json:"percentile,omitempty"`
	Quick              *stats.QuickAssessment      `json:"quick_assessment,omitempty"`
	Risk               *risk.Index                 `json:"risk,omitempty"`
	YearsLeft          float64                     `json:"years_left"`
	Scenarios          []projection.Row            `json:"scenarios,omitempty"`
	Schedule           []projection.Row            `json:"schedule,omitempty"`
	SubCohort          *projection.SubCohortResult `json:"sub_cohort,omitempty"`
	SubCohortRow       *projection.Row             `json:"sub_cohort_projection,omitempty"`
	MonteCarlo         simulation.Result           `json:"monte_carlo"`
	Recommendations    []string                    `json:"recommendations"`
	Warnings           []string                    `json:"warnings,omitempty"`
}

// Run executes the pass over ds. Only an invalid filter is an error; every
// other problem degrades the affected component and adds a warning. cache may
// be nil.
func Run(ds *dataset.Dataset, gen uint64, q Query, cfg config.Engine, cache *Cache) (Report, error) {
	if ds == nil {
		return Report{}, fmt.Errorf("no dataset loaded")
	}
	if err := ds.Validate(q.Filter); err != nil {
		return Report{}, err
	}
	q.Filter = q.Filter.Normalize()

	rep := Report{
		ID:                 uuid.NewString(),
		GeneratedAt:        time.Now(),
		Query:              q,
		AllowableThickness: cfg.AllowableThickness,
		RateFormula:        cfg.RateFormula,
		YearsLeft:          q.yearsLeft(cfg),
	}
	warn := func(format string, args ...any) {
		rep.Warnings = append(rep.Warnings, fmt.Sprintf(format, args...))
	}

	// 1. Cohort statistics
	sample := ds.Select(q.Filter)
	if cache != nil {
		rep.Cohort = cache.Cohort(gen, sample, q.topN())
	} else {
		rep.Cohort = DescribeCohort(sample, q.topN())
	}
	rep.SampleSize = rep.Cohort.Summary.N
	cohortMean := math.NaN()
	if !rep.Cohort.Summary.Empty() {
		cohortMean = rep.Cohort.Summary.Mean
	}
	switch {
	case rep.Cohort.Summary.Empty():
		warn("No corrosion-rate records match the selected filter.")
	case rep.SampleSize < cfg.MinCohortWarningSize:
		warn("Only %d records match the selected filter; statistics may be unstable (fewer than %d).", rep.SampleSize, cfg.MinCohortWarningSize)
	}
	if rep.Cohort.Outliers.Elevated {
		warn("%.1f%% of the cohort are IQR outliers; review the data before relying on the statistics.", rep.Cohort.Outliers.Share)
	}

	// 2. User rate, percentile and quick comparison
	measured := usable(q.Tank.MeasuredThickness)
	age := usable(q.Tank.Age)
	if r, err := q.Tank.Rate(cfg.RateFormula); err != nil {
		warn("User corrosion rate unavailable: %v.", err)
	} else {
		rep.UserRate = &r
		if pct, err := stats.Locate(rep.Cohort.Rates, r); err == nil {
			rep.Percentile = &pct
		} else {
			warn("Percentile unavailable: %v.", err)
		}
		qa := stats.QuickAssess(r, cohortMean, cfg.QuickAssessmentFactor)
		rep.Quick = &qa
	}

	// 3. Risk index
	idx, err := risk.Evaluate(risk.Input{
		MeasuredThickness: measured,
		UserRate:          rep.UserRate,
		CohortMeanRate:    cohortMean,
	}, cfg)
	if err != nil {
		if !errors.Is(err, risk.ErrMissingInput) {
			log.Warn().Err(err).Msg("Risk evaluation failed")
		}
		warn("Risk index unavailable: measured thickness and corrosion rate are required.")
	} else {
		rep.Risk = &idx
		if rep.Cohort.Summary.Empty() {
			warn("Risk index relative score uses the %.4f mm/year rate floor because the cohort has no rates; treat it as an upper bound.", idx.CohortMeanUsed)
		}
	}

	// 4. Projections
	mode := q.mode()
	if measured == nil {
		warn("Projections unavailable: measured thickness is required.")
	} else if !rep.Cohort.Summary.Empty() {
		if rows, err := projection.Scenarios(rep.Cohort.Rates, *measured, rep.YearsLeft, cfg); err == nil {
			rep.Scenarios = rows
		}
		if rate, err := projection.Representative(rep.Cohort.Rates, mode, cfg.RateFloor); err == nil {
			rep.Schedule = projection.Schedule(rate, mode.Label(), *measured, cfg.ProjectionSchedule, cfg)
		}
	}
	if measured != nil && age == nil {
		warn("Age-bin projection unavailable: a positive service age is required.")
	}
	if measured != nil && age != nil {
		sc, err := projection.SubCohort(ds, q.Filter, *age, mode, cfg)
		if err != nil {
			warn("Age-bin projection unavailable: %v.", err)
		} else {
			rep.SubCohort = &sc
			row := projection.Project("age bin "+mode.Label(), sc.Rate, *measured, rep.YearsLeft, cfg)
			rep.SubCohortRow = &row
			if sc.Fallback {
				warn("%s", sc.Warning)
			}
		}
	}

	// 5. Monte Carlo
	m := math.NaN()
	if measured != nil {
		m = *measured
	}
	rep.MonteCarlo = simulation.NewEngine(q.Seed).FailureProbability(
		cohortMean, rep.Cohort.Summary.Std, m, cfg.MonteCarloHorizons, cfg.MonteCarloTrials, cfg)
	rep.Warnings = append(rep.Warnings, rep.MonteCarlo.Warnings...)

	// 6. Recommendations
	in := advice.Inputs{
		MeasuredThickness:  measured,
		UserRate:           rep.UserRate,
		CohortMeanRate:     cohortMean,
		AllowableThickness: cfg.AllowableThickness,
		YearsLeft:          rep.YearsLeft,
		AnyProjectionFails: projection.AnyFail(rep.Scenarios),
		SubCohortFallback:  rep.SubCohort != nil && rep.SubCohort.Fallback,
	}
	if math.IsNaN(cohortMean) {
		in.CohortMeanRate = 0
	}
	if rep.SubCohortRow != nil && rep.SubCohortRow.Verdict == projection.Fail {
		in.AnyProjectionFails = true
	}
	if rep.Risk != nil {
		in.Grade = &rep.Risk.Grade
	}
	if last, ok := rep.MonteCarlo.Last(); ok && rep.MonteCarlo.Available {
		in.FailureHorizon = last.Horizon
		in.FailureProbability = &last.Percent
	}
	rep.Recommendations = advice.Recommend(in)

	log.Debug().
		Str("id", rep.ID).
		Str("filter", q.Filter.Key()).
		Int("n", rep.SampleSize).
		Int("warnings", len(rep.Warnings)).
		Msg("Assessment complete")

	return rep, nil
}

// usable returns p unless it is absent, NaN or not strictly positive.
func usable(p *float64) *float64 {
	if !positive(p) {
		return nil
	}
	return p
}
