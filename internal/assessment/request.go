package assessment

import (
	"fmt"
	"strings"

	"tankscope/internal/dataset"
	"tankscope/internal/projection"
	"tankscope/internal/stats"
)

// FilterRequest is the string-typed form of a cohort filter.
type FilterRequest struct {
	Material           string `json:"material,omitempty" jsonschema:"Tank material, e.g. SS400. Must be one of the values returned by list_categories."`
	Product            string `json:"product,omitempty" jsonschema:"Stored product, e.g. 경유. Must be one of the values returned by list_categories."`
	Shape              string `json:"shape,omitempty" jsonschema:"Tank shape, e.g. CRT or FRT."`
	CathodicProtection string `json:"cathodic_protection,omitempty" jsonschema:"Cathodic protection installed: O (yes) or X (no)."`
	HeatingCoil        string `json:"heating_coil,omitempty" jsonschema:"Heating coil installed: O (yes) or X (no)."`
	Region             string `json:"region,omitempty" jsonschema:"Site region, e.g. 울산."`
	AgeBin             string `json:"age_bin,omitempty" jsonschema:"Restrict the cohort to one service-age bin: 'under 10', '10 and over', '20 and over' or '30 and over'."`
}

// Filter converts the request. Category values are validated later against
// the loaded dataset.
func (r FilterRequest) Filter() (dataset.Filter, error) {
	f := dataset.Filter{
		Material:    r.Material,
		Product:     r.Product,
		Shape:       r.Shape,
		Cathodic:    r.CathodicProtection,
		HeatingCoil: r.HeatingCoil,
		Region:      r.Region,
	}
	if s := strings.TrimSpace(r.AgeBin); s != "" {
		bin, err := stats.ParseAgeBin(s)
		if err != nil {
			return dataset.Filter{}, fmt.Errorf("age_bin: %w", err)
		}
		f.AgeBin = &bin
	}
	return f, nil
}

// Request is the flat, string-typed form of a Query accepted by the MCP
// tools, the HTTP API and the command line.
type Request struct {
	FilterRequest

	DesignThickness   *float64 `json:"design_thickness_mm,omitempty" jsonschema:"Original design plate thickness in mm."`
	MeasuredThickness *float64 `json:"measured_thickness_mm,omitempty" jsonschema:"Most recent measured plate thickness in mm."`
	Age               *float64 `json:"age_years,omitempty" jsonschema:"Years in service at the time of measurement."`
	YearsLeft         *float64 `json:"years_left,omitempty" jsonschema:"Planned remaining service in years. Defaults to the engine profile value."`

	RateMode string `json:"rate_mode,omitempty" jsonschema:"Representative cohort rate for the age-bin and schedule projections: mean, median, p75 or p90."`
	Seed     uint64 `json:"seed,omitempty" jsonschema:"Monte Carlo seed. Zero seeds from the clock; set it to make results reproducible."`
	TopN     int    `json:"top_n,omitempty" jsonschema:"Length of the best/worst material and region lists (default 5)."`
}

// Query converts the request. Unknown age bins and rate modes are errors.
func (r Request) Query() (Query, error) {
	f, err := r.Filter()
	if err != nil {
		return Query{}, err
	}
	q := Query{
		Filter: f,
		Tank: UserTank{
			DesignThickness:   r.DesignThickness,
			MeasuredThickness: r.MeasuredThickness,
			Age:               r.Age,
		},
		YearsLeft: r.YearsLeft,
		Seed:      r.Seed,
		TopN:      r.TopN,
	}
	if s := strings.TrimSpace(r.RateMode); s != "" {
		mode, err := projection.ParseRateMode(s)
		if err != nil {
			return Query{}, fmt.Errorf("rate_mode: %w", err)
		}
		q.RateMode = mode
	}
	return q, nil
}
