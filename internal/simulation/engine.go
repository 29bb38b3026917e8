package simulation

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"time"

	"gonum.org/v1/gonum/stat/distuv"

	"tankscope/internal/config"
	"tankscope/internal/stats"
)

// Engine performs the Monte-Carlo failure-time simulation. It owns its random
// source, so separate engines never share generator state.
type Engine struct {
	src rand.Source
}

// Probability is the share of trials that reach the allowable thickness
// before Horizon years.
type Probability struct {
	Horizon float64 `json:"horizon_years"`
	Percent float64 `json:"probability_pct"`
}

// Result holds the failure probabilities and failure-time percentiles.
type Result struct {
	Available     bool          `json:"available"`
	Trials        int           `json:"trials"`
	Probabilities []Probability `json:"probabilities,omitempty"`
	FailureP10    *float64      `json:"failure_years_p10,omitempty"`
	FailureP50    *float64      `json:"failure_years_p50,omitempty"`
	FailureP90    *float64      `json:"failure_years_p90,omitempty"`
	Warnings      []string      `json:"warnings,omitempty"`
}

// At returns the probability for horizon h.
func (r Result) At(h float64) (float64, bool) {
	for _, p := range r.Probabilities {
		if p.Horizon == h {
			return p.Percent, true
		}
	}
	return 0, false
}

// Last returns the probability at the largest simulated horizon.
func (r Result) Last() (Probability, bool) {
	if len(r.Probabilities) == 0 {
		return Probability{}, false
	}
	last := r.Probabilities[0]
	for _, p := range r.Probabilities[1:] {
		if p.Horizon > last.Horizon {
			last = p
		}
	}
	return last, true
}

// NewEngine creates an engine seeded with seed. A zero seed draws one from the
// clock; results are then not reproducible between runs.
func NewEngine(seed uint64) *Engine {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Engine{src: rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)}
}

// FailureProbability draws trials corrosion rates from Normal(mean, std),
// clipped below at the rate floor, converts each to a failure time
// (measured - allowable) / rate and reports, per horizon, the percentage of
// failure times below it.
func (e *Engine) FailureProbability(mean, std, measured float64, horizons []float64, trials int, cfg config.Engine) Result {
	res := Result{Trials: trials}

	// 1. Reject inputs that cannot be simulated
	if trials <= 0 {
		res.Warnings = append(res.Warnings, "Monte Carlo simulation disabled (0 trials).")
		return res
	}
	if math.IsNaN(mean) || math.IsNaN(measured) {
		res.Warnings = append(res.Warnings, "Monte Carlo simulation unavailable: cohort mean or measured thickness missing.")
		return res
	}
	if math.IsNaN(std) || std < 0 {
		std = 0
	}
	res.Available = true

	// 2. Already failed: every horizon is certain
	margin := measured - cfg.AllowableThickness
	if margin <= 0 {
		for _, h := range horizons {
			res.Probabilities = append(res.Probabilities, Probability{Horizon: h, Percent: 100})
		}
		zero := 0.0
		res.FailureP10, res.FailureP50, res.FailureP90 = &zero, &zero, &zero
		res.Warnings = append(res.Warnings, "Measured thickness is already at or below the allowable thickness.")
		return res
	}

	// 3. Sample failure times
	dist := distuv.Normal{Mu: mean, Sigma: std, Src: e.src}
	times := make([]float64, trials)
	clipped := 0
	for i := range times {
		rate := dist.Rand()
		if rate < cfg.RateFloor {
			rate = cfg.RateFloor
			clipped++
		}
		times[i] = margin / rate
	}
	slices.Sort(times)

	// 4. Probabilities per horizon
	for _, h := range horizons {
		failed, _ := slices.BinarySearch(times, h)
		res.Probabilities = append(res.Probabilities, Probability{
			Horizon: h,
			Percent: float64(failed) / float64(trials) * 100,
		})
	}

	// 5. Failure-time percentiles
	for _, q := range []struct {
		p   float64
		dst **float64
	}{{0.10, &res.FailureP10}, {0.50, &res.FailureP50}, {0.90, &res.FailureP90}} {
		v, err := stats.Quantile(times, q.p)
		if err == nil {
			*q.dst = &v
		}
	}

	if share := float64(clipped) / float64(trials); share > 0.25 {
		res.Warnings = append(res.Warnings, fmt.Sprintf(
			"%.0f%% of simulated rates fell below the %.4f mm/year floor; the cohort spread is wide relative to its mean.",
			share*100, cfg.RateFloor))
	}
	return res
}
