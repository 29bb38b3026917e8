package assessment

import (
	"errors"
	"math"
	"strings"
	"sync"
	"testing"

	"tankscope/internal/config"
	"tankscope/internal/dataset"
	"tankscope/internal/projection"
	"tankscope/internal/stats"
)

func ptr(v float64) *float64 { return &v }

// fixture builds 40 SS400 tanks spread over all age bins plus 3 STS304 tanks.
func fixture() *dataset.Dataset {
	var rows []dataset.Observation
	for i := 0; i < 40; i++ {
		rows = append(rows, dataset.Observation{
			Rate:        0.01 + float64(i%10)*0.002,
			Age:         float64(i),
			Material:    "SS400",
			Product:     "경유",
			Shape:       "CRT",
			Region:      []string{"울산", "여수"}[i%2],
			Cathodic:    dataset.FlagYes,
			HeatingCoil: dataset.FlagNo,
		})
	}
	for i := 0; i < 3; i++ {
		rows = append(rows, dataset.Observation{
			Rate: 0.05, Age: 25, Material: "STS304", Product: "휘발유", Shape: "FRT", Region: "울산",
			Cathodic: dataset.FlagNo, HeatingCoil: dataset.FlagNo,
		})
	}
	return dataset.New(rows, "fixture")
}

func fullTank() UserTank {
	return UserTank{DesignThickness: ptr(9.0), MeasuredThickness: ptr(7.5), Age: ptr(25)}
}

func TestUserTank_Rate(t *testing.T) {
	tank := fullTank()
	r, err := tank.Rate(config.RateFormulaPerYear)
	if err != nil || math.Abs(r-0.06) > 1e-12 {
		t.Errorf("per_year: expected 0.06, got %v (%v)", r, err)
	}
	r, err = tank.Rate(config.RateFormulaLegacyFraction)
	if err != nil || math.Abs(r-0.06/9) > 1e-12 {
		t.Errorf("legacy_fraction: expected %v, got %v (%v)", 0.06/9, r, err)
	}

	for name, u := range map[string]UserTank{
		"MissingAge":    {DesignThickness: ptr(9), MeasuredThickness: ptr(7.5)},
		"ZeroAge":       {DesignThickness: ptr(9), MeasuredThickness: ptr(7.5), Age: ptr(0)},
		"ZeroMeasured":  {DesignThickness: ptr(9), MeasuredThickness: ptr(0), Age: ptr(5)},
		"NaNThickness":  {DesignThickness: ptr(math.NaN()), MeasuredThickness: ptr(7.5), Age: ptr(5)},
		"NothingAtAll":  {},
	} {
		if _, err := u.Rate(config.RateFormulaPerYear); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestRun_InvalidFilter(t *testing.T) {
	_, err := Run(fixture(), 1, Query{Filter: dataset.Filter{Material: "Titanium"}}, config.DefaultEngine(), nil)
	if !errors.Is(err, dataset.ErrUnknownCategory) {
		t.Errorf("expected ErrUnknownCategory, got %v", err)
	}
}

func TestRun_Full(t *testing.T) {
	cfg := config.DefaultEngine()
	q := Query{
		Filter:   dataset.Filter{Material: "SS400"},
		Tank:     fullTank(),
		RateMode: projection.ModeP75,
		Seed:     11,
	}

	rep, err := Run(fixture(), 1, q, cfg, NewCache())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if rep.ID == "" {
		t.Error("report ID missing")
	}
	if rep.SampleSize != 40 {
		t.Errorf("expected 40 rates, got %d", rep.SampleSize)
	}
	if rep.UserRate == nil || math.Abs(*rep.UserRate-0.06) > 1e-12 {
		t.Fatalf("unexpected user rate %v", rep.UserRate)
	}
	if rep.Percentile == nil || *rep.Percentile != 100 {
		t.Errorf("user rate above every cohort rate should be at 100%%, got %v", rep.Percentile)
	}
	if rep.Quick == nil || !rep.Quick.Elevated {
		t.Errorf("expected elevated quick assessment, got %+v", rep.Quick)
	}
	if rep.Risk == nil {
		t.Fatal("risk missing")
	}
	if len(rep.Scenarios) != 4 || rep.Scenarios[0].Horizon != cfg.DefaultYearsLeft {
		t.Errorf("unexpected scenarios %+v", rep.Scenarios)
	}
	if len(rep.Schedule) != len(cfg.ProjectionSchedule) || rep.Schedule[0].Label != "P75" {
		t.Errorf("unexpected schedule %+v", rep.Schedule)
	}
	if rep.Schedule[0].Thickness != 7.5 {
		t.Errorf("horizon 0 should equal measured thickness, got %v", rep.Schedule[0].Thickness)
	}
	if rep.SubCohort == nil || rep.SubCohort.Fallback || rep.SubCohort.SampleSize != 10 {
		t.Errorf("expected a 10-record 20-30 sub-cohort without fallback, got %+v", rep.SubCohort)
	}
	if !rep.MonteCarlo.Available || len(rep.MonteCarlo.Probabilities) != 2 {
		t.Errorf("unexpected Monte Carlo result %+v", rep.MonteCarlo)
	}
	if len(rep.Recommendations) == 0 || !strings.Contains(rep.Recommendations[0], "improve corrosion protection") {
		t.Errorf("expected rate-ratio advice first, got %v", rep.Recommendations)
	}
}

func TestRun_MissingTankDegrades(t *testing.T) {
	rep, err := Run(fixture(), 1, Query{}, config.DefaultEngine(), nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if rep.Risk != nil || rep.UserRate != nil || rep.Percentile != nil || rep.Scenarios != nil {
		t.Error("user-dependent components should be unavailable")
	}
	if rep.MonteCarlo.Available {
		t.Error("Monte Carlo needs a measured thickness")
	}
	if rep.Cohort.Summary.N != 43 {
		t.Errorf("cohort statistics should still be computed, got n=%d", rep.Cohort.Summary.N)
	}
	if len(rep.Recommendations) != 1 || !strings.Contains(rep.Recommendations[0], "Enter the measured thickness") {
		t.Errorf("expected data-entry prompt, got %v", rep.Recommendations)
	}
	if len(rep.Warnings) == 0 {
		t.Error("expected warnings for unavailable components")
	}
}

func TestRun_SmallCohortFallsBack(t *testing.T) {
	q := Query{Filter: dataset.Filter{Material: "STS304"}, Tank: fullTank(), Seed: 3}
	rep, err := Run(fixture(), 1, q, config.DefaultEngine(), nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if rep.SubCohort == nil || !rep.SubCohort.Fallback {
		t.Fatalf("expected sub-cohort fallback, got %+v", rep.SubCohort)
	}
	var sawSmall, sawFallback bool
	for _, w := range rep.Warnings {
		sawSmall = sawSmall || strings.Contains(w, "Only 3 records")
		sawFallback = sawFallback || strings.Contains(w, "using the full dataset")
	}
	if !sawSmall || !sawFallback {
		t.Errorf("missing warnings: %v", rep.Warnings)
	}
	last := rep.Recommendations[len(rep.Recommendations)-1]
	if !strings.Contains(last, "Collect more comparable records") {
		t.Errorf("expected data-collection advice last, got %q", last)
	}
}

func TestCache_SharesAndInvalidates(t *testing.T) {
	ds := fixture()
	cache := NewCache()
	sample := ds.Select(dataset.Filter{Material: "SS400"})

	var wg sync.WaitGroup
	results := make([]*Cohort, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = cache.Cohort(1, sample, 5)
		}(i)
	}
	wg.Wait()
	for _, r := range results[1:] {
		if r != results[0] {
			t.Fatal("concurrent identical requests should share one cohort")
		}
	}
	if cache.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", cache.Len())
	}

	other := cache.Cohort(1, ds.Select(dataset.Filter{Region: "여수"}), 5)
	if other == results[0] || cache.Len() != 2 {
		t.Error("different filter should get its own entry")
	}

	next := cache.Cohort(2, sample, 5)
	if next == results[0] {
		t.Error("new dataset generation must not reuse old entries")
	}
	if cache.Len() != 1 {
		t.Errorf("generation change should drop old entries, got %d", cache.Len())
	}

	cache.Reset()
	if cache.Len() != 0 {
		t.Error("Reset should empty the cache")
	}
}

func TestDescribeCohort_Groups(t *testing.T) {
	c := DescribeCohort(fixture().All(), 1)
	if len(c.AgeBins) != 4 {
		t.Errorf("expected 4 age bins, got %d", len(c.AgeBins))
	}
	if len(c.MaterialTop) != 1 || c.MaterialTop[0].Key != "SS400" {
		t.Errorf("lowest-mean material should be SS400, got %+v", c.MaterialTop)
	}
	if len(c.MaterialBottom) != 1 || c.MaterialBottom[0].Key != "STS304" {
		t.Errorf("highest-mean material should be STS304, got %+v", c.MaterialBottom)
	}
}

func TestRequest_Query(t *testing.T) {
	r := Request{
		FilterRequest:     FilterRequest{Material: "SS400", AgeBin: "20-30"},
		MeasuredThickness: ptr(7.5),
		RateMode:          "P90",
		Seed:              4,
	}
	q, err := r.Query()
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if q.Filter.Material != "SS400" || q.Filter.AgeBin == nil || q.Filter.AgeBin.String() != "20 and over" {
		t.Errorf("unexpected filter %+v", q.Filter)
	}
	if q.RateMode != projection.ModeP90 || q.Seed != 4 || *q.Tank.MeasuredThickness != 7.5 {
		t.Errorf("unexpected query %+v", q)
	}

	for name, bad := range map[string]Request{
		"AgeBin":   {FilterRequest: FilterRequest{AgeBin: "ancient"}},
		"RateMode": {RateMode: "p99"},
	} {
		if _, err := bad.Query(); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestRun_NonPositiveInputsUnavailable(t *testing.T) {
	tests := []struct {
		name         string
		tank         UserTank
		wantProjects bool
		wantWarning  string
	}{
		{"NegativeMeasured", UserTank{DesignThickness: ptr(9), MeasuredThickness: ptr(-4), Age: ptr(25)}, false, "measured thickness is required"},
		{"ZeroMeasured", UserTank{DesignThickness: ptr(9), MeasuredThickness: ptr(0), Age: ptr(25)}, false, "measured thickness is required"},
		{"NaNMeasured", UserTank{DesignThickness: ptr(9), MeasuredThickness: ptr(math.NaN()), Age: ptr(25)}, false, "measured thickness is required"},
		{"ZeroAge", UserTank{DesignThickness: ptr(9), MeasuredThickness: ptr(7.5), Age: ptr(0)}, true, "positive service age"},
		{"NegativeAge", UserTank{DesignThickness: ptr(9), MeasuredThickness: ptr(7.5), Age: ptr(-3)}, true, "positive service age"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := Query{Filter: dataset.Filter{Material: "SS400"}, Tank: tt.tank, Seed: 2}
			rep, err := Run(fixture(), 1, q, config.DefaultEngine(), nil)
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			if rep.Risk != nil || rep.SubCohort != nil || rep.SubCohortRow != nil {
				t.Errorf("risk and age-bin projection should be unavailable, got risk=%v sub=%v", rep.Risk, rep.SubCohort)
			}
			if got := len(rep.Scenarios) > 0 && len(rep.Schedule) > 0; got != tt.wantProjects {
				t.Errorf("projections available = %v, want %v", got, tt.wantProjects)
			}
			if !tt.wantProjects && rep.MonteCarlo.Available {
				t.Error("Monte Carlo needs a positive measured thickness")
			}
			found := false
			for _, w := range rep.Warnings {
				found = found || strings.Contains(w, tt.wantWarning)
			}
			if !found {
				t.Errorf("expected a warning mentioning %q, got %v", tt.wantWarning, rep.Warnings)
			}
		})
	}
}

func TestRun_EmptyCohortFlagsFlooredRisk(t *testing.T) {
	under10 := stats.AgeUnder10
	q := Query{Filter: dataset.Filter{Material: "STS304", AgeBin: &under10}, Tank: fullTank(), Seed: 9}
	rep, err := Run(fixture(), 1, q, config.DefaultEngine(), nil)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !rep.Cohort.Summary.Empty() {
		t.Fatalf("expected an empty cohort, got n=%d", rep.Cohort.Summary.N)
	}
	if rep.Risk == nil {
		t.Fatal("risk index should still be produced")
	}
	if rep.Risk.Relative != 30 {
		t.Errorf("floored cohort mean should saturate the relative score, got %v", rep.Risk.Relative)
	}
	found := false
	for _, w := range rep.Warnings {
		found = found || strings.Contains(w, "rate floor")
	}
	if !found {
		t.Errorf("expected a rate-floor warning, got %v", rep.Warnings)
	}
}
