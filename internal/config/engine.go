package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Rate formulas for deriving the user's corrosion rate from thickness readings.
const (
	RateFormulaPerYear        = "per_year"
	RateFormulaLegacyFraction = "legacy_fraction"
)

// Engine holds every tunable constant of the assessment engine. It is passed
// explicitly into each computation.
type Engine struct {
	AllowableThickness    float64   `mapstructure:"allowable_thickness_mm" yaml:"allowable_thickness_mm" json:"allowable_thickness_mm"`
	MinSubCohortSize      int       `mapstructure:"min_subcohort_size" yaml:"min_subcohort_size" json:"min_subcohort_size"`
	MinCohortWarningSize  int       `mapstructure:"min_cohort_warning_size" yaml:"min_cohort_warning_size" json:"min_cohort_warning_size"`
	RateFloor             float64   `mapstructure:"rate_floor_mm_per_year" yaml:"rate_floor_mm_per_year" json:"rate_floor_mm_per_year"`
	RemainingLifeCap      float64   `mapstructure:"remaining_life_cap_years" yaml:"remaining_life_cap_years" json:"remaining_life_cap_years"`
	MonteCarloTrials      int       `mapstructure:"monte_carlo_trials" yaml:"monte_carlo_trials" json:"monte_carlo_trials"`
	MonteCarloHorizons    []float64 `mapstructure:"monte_carlo_horizons" yaml:"monte_carlo_horizons" json:"monte_carlo_horizons"`
	ProjectionSchedule    []float64 `mapstructure:"projection_schedule" yaml:"projection_schedule" json:"projection_schedule"`
	DefaultYearsLeft      float64   `mapstructure:"default_years_left" yaml:"default_years_left" json:"default_years_left"`
	QuickAssessmentFactor float64   `mapstructure:"quick_assessment_factor" yaml:"quick_assessment_factor" json:"quick_assessment_factor"`
	RateFormula           string    `mapstructure:"rate_formula" yaml:"rate_formula" json:"rate_formula"`
}

// DefaultEngine returns the reference constants.
func DefaultEngine() Engine {
	return Engine{
		AllowableThickness:    3.2,
		MinSubCohortSize:      10,
		MinCohortWarningSize:  30,
		RateFloor:             0.0005,
		RemainingLifeCap:      100,
		MonteCarloTrials:      10000,
		MonteCarloHorizons:    []float64{5, 10},
		ProjectionSchedule:    []float64{0, 5, 10, 20},
		DefaultYearsLeft:      3,
		QuickAssessmentFactor: 1.5,
		RateFormula:           RateFormulaPerYear,
	}
}

// Validate rejects profiles that would make the engine meaningless.
func (e Engine) Validate() error {
	var errs []error
	if e.AllowableThickness <= 0 {
		errs = append(errs, fmt.Errorf("allowable_thickness_mm must be positive, got %v", e.AllowableThickness))
	}
	if e.RateFloor <= 0 {
		errs = append(errs, fmt.Errorf("rate_floor_mm_per_year must be positive, got %v", e.RateFloor))
	}
	if e.RemainingLifeCap <= 0 {
		errs = append(errs, fmt.Errorf("remaining_life_cap_years must be positive, got %v", e.RemainingLifeCap))
	}
	if e.MinSubCohortSize < 1 {
		errs = append(errs, fmt.Errorf("min_subcohort_size must be at least 1, got %d", e.MinSubCohortSize))
	}
	if e.MonteCarloTrials < 0 {
		errs = append(errs, fmt.Errorf("monte_carlo_trials must not be negative, got %d", e.MonteCarloTrials))
	}
	for _, h := range append(append([]float64{}, e.MonteCarloHorizons...), e.ProjectionSchedule...) {
		if h < 0 {
			errs = append(errs, fmt.Errorf("horizons must not be negative, got %v", h))
			break
		}
	}
	switch e.RateFormula {
	case RateFormulaPerYear, RateFormulaLegacyFraction:
	default:
		errs = append(errs, fmt.Errorf("rate_formula must be %q or %q, got %q", RateFormulaPerYear, RateFormulaLegacyFraction, e.RateFormula))
	}
	return errors.Join(errs...)
}

// LoadEngine resolves the engine profile. Precedence: TANKSCOPE_* environment
// variables > profile file > defaults. An empty profile path skips the file.
func LoadEngine(profile string) (Engine, error) {
	v := viper.New()
	v.SetEnvPrefix("TANKSCOPE")
	v.AutomaticEnv()

	d := DefaultEngine()
	v.SetDefault("allowable_thickness_mm", d.AllowableThickness)
	v.SetDefault("min_subcohort_size", d.MinSubCohortSize)
	v.SetDefault("min_cohort_warning_size", d.MinCohortWarningSize)
	v.SetDefault("rate_floor_mm_per_year", d.RateFloor)
	v.SetDefault("remaining_life_cap_years", d.RemainingLifeCap)
	v.SetDefault("monte_carlo_trials", d.MonteCarloTrials)
	v.SetDefault("monte_carlo_horizons", d.MonteCarloHorizons)
	v.SetDefault("projection_schedule", d.ProjectionSchedule)
	v.SetDefault("default_years_left", d.DefaultYearsLeft)
	v.SetDefault("quick_assessment_factor", d.QuickAssessmentFactor)
	v.SetDefault("rate_formula", d.RateFormula)

	if profile != "" {
		v.SetConfigFile(profile)
		if err := v.ReadInConfig(); err != nil {
			return Engine{}, fmt.Errorf("read engine profile %s: %w", profile, err)
		}
	}

	var e Engine
	if err := v.Unmarshal(&e); err != nil {
		return Engine{}, fmt.Errorf("unmarshal engine profile: %w", err)
	}
	if err := e.Validate(); err != nil {
		return Engine{}, fmt.Errorf("invalid engine profile: %w", err)
	}
	return e, nil
}

// SaveEngine writes e as a YAML profile, creating parent directories.
func SaveEngine(e Engine, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir profile dir: %w", err)
	}
	b, err := yaml.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write profile: %w", err)
	}
	return nil
}
