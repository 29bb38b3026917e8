package projection

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"

	"tankscope/internal/config"
	"tankscope/internal/dataset"
	"tankscope/internal/stats"
)

func TestProject_ReferenceScenario(t *testing.T) {
	cfg := config.DefaultEngine()
	row := Project("mean", 0.02, 5.0, 3, cfg)

	if math.Abs(row.Loss-0.06) > 1e-12 {
		t.Errorf("expected loss 0.06, got %v", row.Loss)
	}
	if math.Abs(row.Thickness-4.94) > 1e-12 {
		t.Errorf("expected thickness 4.94, got %v", row.Thickness)
	}
	if row.Verdict != Pass {
		t.Errorf("expected pass, got %s", row.Verdict)
	}
	if row.Life.State != LifeOK || math.Abs(*row.Life.Years-90) > 1e-9 {
		t.Errorf("expected 90 years remaining, got %+v", row.Life)
	}
}

func TestProject_ZeroHorizonIsIdentity(t *testing.T) {
	cfg := config.DefaultEngine()
	for _, rate := range []float64{0, 0.0005, 0.37, 12.5, math.Inf(1)} {
		row := Project("x", rate, 4.321, 0, cfg)
		if row.Thickness != 4.321 || row.Loss != 0 {
			t.Errorf("rate %v: horizon 0 changed thickness to %v", rate, row.Thickness)
		}
	}
}

func TestProject_VerdictBoundary(t *testing.T) {
	cfg := config.DefaultEngine()
	if v := Project("x", 0.1, 4.2, 10, cfg).Verdict; v != Pass {
		t.Errorf("projected exactly 3.2 should pass, got %s", v)
	}
	if v := Project("x", 0.1, 4.2, 10.5, cfg).Verdict; v != Fail {
		t.Errorf("projected below 3.2 should fail, got %s", v)
	}
}

func TestEstimateLife(t *testing.T) {
	cfg := config.DefaultEngine()
	tests := []struct {
		name     string
		measured float64
		rate     float64
		want     LifeState
	}{
		{"Normal", 5.2, 0.1, LifeOK},
		{"ExceedsCap", 9.2, 0.01, LifeExceedsCap},
		{"AtThreshold", 3.2, 0.1, LifeAtOrBelow},
		{"BelowThreshold", 2.9, 0.1, LifeAtOrBelow},
		{"ZeroRate", 6, 0, LifeNoWear},
		{"NegativeRate", 6, -0.01, LifeNoWear},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EstimateLife(tt.measured, tt.rate, cfg)
			if got.State != tt.want {
				t.Fatalf("expected %s, got %s", tt.want, got.State)
			}
			if (got.Years != nil) != (tt.want == LifeOK || tt.want == LifeExceedsCap) {
				t.Errorf("years presence mismatch for state %s", got.State)
			}
		})
	}

	cfg.RemainingLifeCap = 50
	if got := EstimateLife(9.2, 0.1, cfg); got.State != LifeExceedsCap {
		t.Errorf("60 years should exceed a 50-year cap, got %s", got.State)
	}
}

func TestRepresentative_Floor(t *testing.T) {
	values := []float64{0.0001, 0.0002, 0.0003}
	for _, mode := range RateModes() {
		got, err := Representative(values, mode, 0.0005)
		if err != nil {
			t.Fatal(err)
		}
		if got != 0.0005 {
			t.Errorf("%s: expected floor 0.0005, got %v", mode, got)
		}
	}
	if _, err := Representative(nil, ModeMean, 0.0005); !errors.Is(err, stats.ErrEmptySample) {
		t.Errorf("expected ErrEmptySample, got %v", err)
	}
}

func TestScenarios_OrderedByConservatism(t *testing.T) {
	cfg := config.DefaultEngine()
	values := []float64{0.01, 0.02, 0.02, 0.03, 0.05, 0.08, 0.12}

	rows, err := Scenarios(values, 6.0, 3, cfg)
	if err != nil {
		t.Fatal(err)
	}
	labels := make([]string, len(rows))
	for i, r := range rows {
		labels[i] = r.Label
		if r.Horizon != 3 {
			t.Errorf("row %s: expected horizon 3, got %v", r.Label, r.Horizon)
		}
	}
	if got := strings.Join(labels, ","); got != "mean,P50,P75,P90" {
		t.Errorf("unexpected labels %s", got)
	}
	for i := 2; i < len(rows); i++ {
		if rows[i].Rate < rows[i-1].Rate {
			t.Errorf("quantile rates should not decrease: %v then %v", rows[i-1].Rate, rows[i].Rate)
		}
	}
}

func TestSchedule(t *testing.T) {
	cfg := config.DefaultEngine()
	rows := Schedule(0.1, "user", 5.0, []float64{0, 5, 10, 20}, cfg)
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(rows))
	}
	want := []Verdict{Pass, Pass, Pass, Fail}
	for i, r := range rows {
		if r.Verdict != want[i] {
			t.Errorf("horizon %v: expected %s, got %s", r.Horizon, want[i], r.Verdict)
		}
	}
	if !AnyFail(rows) || AnyFail(rows[:3]) {
		t.Error("AnyFail mismatch")
	}
}

func TestParseRateMode(t *testing.T) {
	tests := map[string]RateMode{"": ModeMean, "Mean": ModeMean, "p50": ModeMedian, "median": ModeMedian, "P75": ModeP75, "p90": ModeP90}
	for in, want := range tests {
		got, err := ParseRateMode(in)
		if err != nil || got != want {
			t.Errorf("ParseRateMode(%q) = %s, %v; want %s", in, got, err, want)
		}
	}
	if _, err := ParseRateMode("p99"); err == nil {
		t.Error("expected error for p99")
	}
}

func buildDataset(t *testing.T, rows []dataset.Observation) *dataset.Dataset {
	t.Helper()
	return dataset.New(rows, "memory")
}

func obs(material string, age, rate float64) dataset.Observation {
	return dataset.Observation{Rate: rate, Age: age, Material: material, Product: "경유", Shape: "CRT", Region: "울산", Cathodic: dataset.FlagYes, HeatingCoil: dataset.FlagNo}
}

func TestSubCohort_Fallback(t *testing.T) {
	cfg := config.DefaultEngine()

	var rows []dataset.Observation
	// 4 matching records in the 20-30 bin.
	for i := 0; i < 4; i++ {
		rows = append(rows, obs("SS400", 22+float64(i), 0.10))
	}
	// 20 records elsewhere pull the full-dataset mean down.
	for i := 0; i < 20; i++ {
		rows = append(rows, obs("STS304", 5, 0.01))
	}
	ds := buildDataset(t, rows)

	res, err := SubCohort(ds, dataset.Filter{Material: "SS400"}, 25, ModeMean, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Fallback {
		t.Fatal("expected fallback with only 4 comparable records")
	}
	if res.Warning == "" {
		t.Error("fallback must carry a warning")
	}
	wantMean := (4*0.10 + 20*0.01) / 24
	if math.Abs(res.Rate-wantMean) > 1e-12 {
		t.Errorf("expected full-dataset mean %v, got %v", wantMean, res.Rate)
	}
	if res.SampleSize != 24 || res.Bin != stats.Age20Plus {
		t.Errorf("unexpected result %+v", res)
	}
	if res.SubCohortSize != 4 {
		t.Errorf("the comparable-record count should survive the fallback, got %d", res.SubCohortSize)
	}
}

func TestSubCohort_Sufficient(t *testing.T) {
	cfg := config.DefaultEngine()

	var rows []dataset.Observation
	for i := 0; i < 12; i++ {
		rows = append(rows, obs("SS400", 10+float64(i)*0.5, 0.02+float64(i)*0.001))
	}
	rows = append(rows, obs("SS400", 40, 0.9))
	ds := buildDataset(t, rows)

	res, err := SubCohort(ds, dataset.Filter{Material: "SS400"}, 10, ModeMedian, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if res.Fallback || res.SampleSize != 12 || res.SubCohortSize != 12 {
		t.Fatalf("expected 12-record sub-cohort without fallback, got %+v", res)
	}
	if res.Rate > 0.04 {
		t.Errorf("median should ignore the 30+ outlier, got %v", res.Rate)
	}
}

func TestSubCohort_InvalidAge(t *testing.T) {
	ds := buildDataset(t, []dataset.Observation{obs("SS400", 5, 0.01)})
	_, err := SubCohort(ds, dataset.Filter{}, -1, ModeMean, config.DefaultEngine())
	if !errors.Is(err, stats.ErrInvalidAge) {
		t.Errorf("expected ErrInvalidAge, got %v", err)
	}
}

func ExampleRemainingLife_String() {
	cfg := config.DefaultEngine()
	fmt.Println(EstimateLife(5.2, 0.1, cfg))
	fmt.Println(EstimateLife(3.0, 0.1, cfg))
	// Output:
	// 20.0 years
	// already at or below allowable thickness
}
