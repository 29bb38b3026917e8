package projection

import (
	"fmt"

	"tankscope/internal/config"
	"tankscope/internal/dataset"
	"tankscope/internal/stats"
)

// SubCohortResult is the representative rate of the records that share the
// user's categorical filter and age bin. SubCohortSize counts those records;
// SampleSize counts the rates the statistic was computed over, which is the
// whole dataset on fallback.
type SubCohortResult struct {
	Filter        dataset.Filter `json:"filter"`
	Bin           stats.AgeBin   `json:"age_bin"`
	Mode          RateMode       `json:"mode"`
	Rate          float64        `json:"rate_mm_per_year"`
	SubCohortSize int            `json:"sub_cohort_size"`
	SampleSize    int            `json:"sample_size"`
	Fallback      bool           `json:"fallback"`
	Warning       string         `json:"warning,omitempty"`
}

// SubCohort narrows base to the user's age bin. When fewer than
// cfg.MinSubCohortSize rates remain, the full dataset's statistic is used
// instead and the result is flagged.
func SubCohort(ds *dataset.Dataset, base dataset.Filter, userAge float64, mode RateMode, cfg config.Engine) (SubCohortResult, error) {
	bin, err := stats.ClassifyAge(userAge)
	if err != nil {
		return SubCohortResult{}, err
	}

	res := SubCohortResult{Filter: base.WithAgeBin(bin), Bin: bin, Mode: mode}
	rates := ds.Select(res.Filter).Rates()
	res.SubCohortSize = len(rates)
	res.SampleSize = len(rates)

	if len(rates) < cfg.MinSubCohortSize {
		all := ds.All().Rates()
		res.Fallback = true
		res.Warning = fmt.Sprintf("only %d comparable records in age bin %q; using the full dataset (%d records)",
			len(rates), bin.String(), len(all))
		res.SampleSize = len(all)
		rates = all
	}

	res.Rate, err = Representative(rates, mode, cfg.RateFloor)
	if err != nil {
		return res, fmt.Errorf("sub-cohort %s: %w", mode, err)
	}
	return res, nil
}
