package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"tankscope/internal/projection"
)

// utf8BOM lets spreadsheet applications detect the encoding of Korean labels.
const utf8BOM = "\uFEFF"

var scenarioHeader = []string{
	"scenario",
	"rate_mm_per_year",
	"horizon_years",
	"loss_mm",
	"projected_thickness_mm",
	"remaining_life_years",
	"verdict",
}

// WriteScenarioCSV writes the projection rows with fixed precision: rates to
// 5 decimals, loss and thickness to 3, remaining life to 1 or ">cap" when the
// estimate exceeds lifeCap.
func WriteScenarioCSV(w io.Writer, rows []projection.Row, lifeCap float64) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(scenarioHeader); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			r.Label,
			fixed(r.Rate, 5),
			decimal.NewFromFloat(r.Horizon).String(),
			fixed(r.Loss, 3),
			fixed(r.Thickness, 3),
			formatLife(r.Life, lifeCap),
			string(r.Verdict),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write scenario %q: %w", r.Label, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func fixed(v float64, places int32) string {
	return decimal.NewFromFloat(v).StringFixed(places)
}

func formatLife(l projection.RemainingLife, lifeCap float64) string {
	switch l.State {
	case projection.LifeOK:
		return fixed(*l.Years, 1)
	case projection.LifeAtOrBelow:
		return fixed(0, 1)
	}
	return ">" + decimal.NewFromFloat(lifeCap).String()
}
