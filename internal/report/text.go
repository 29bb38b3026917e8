// Package report renders an assessment.Report for download: a plain-text
// summary, the scenario table as CSV and a Prometheus text exposition.
package report

import (
	"fmt"
	"io"
	"strings"

	"tankscope/internal/assessment"
	"tankscope/internal/projection"
)

// WriteText writes the human-readable report.
func WriteText(w io.Writer, rep assessment.Report) error {
	var sb strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&sb, format, args...)
		sb.WriteByte('\n')
	}

	line("=== Storage Tank Corrosion Assessment ===")
	line("Report:    %s", rep.ID)
	line("Generated: %s", rep.GeneratedAt.Format("2006-01-02 15:04:05"))
	line("Cohort:    %s", rep.Query.Filter)
	line("Sample size: %d", rep.SampleSize)
	if rep.Cohort != nil && !rep.Cohort.Summary.Empty() && rep.Cohort.Summary.P50 != nil {
		s := rep.Cohort.Summary
		line("Rate statistics: mean=%.5f, p50=%.5f, p75=%.5f, p90=%.5f", s.Mean, *s.P50, *s.P75, *s.P90)
	} else {
		line("Rate statistics: unavailable")
	}
	if rep.UserRate != nil {
		if rep.Percentile != nil {
			line("Your corrosion rate: %.5f mm/year (percentile %.1f%%)", *rep.UserRate, *rep.Percentile)
		} else {
			line("Your corrosion rate: %.5f mm/year", *rep.UserRate)
		}
	}
	if m := rep.Query.Tank.MeasuredThickness; m != nil {
		line("Measured thickness: %.3f mm (allowable %g mm)", *m, rep.AllowableThickness)
	}
	if a := rep.Query.Tank.Age; a != nil {
		line("Service age: %.1f years", *a)
	}
	if r := rep.Risk; r != nil {
		line("Risk index: %.1f / 100, grade %s (absolute %.1f, relative %.1f, future %.1f)",
			r.Total, r.Grade, r.Absolute, r.Relative, r.Future)
	}

	line("")
	line("[What-if] years left = %.1f", rep.YearsLeft)
	writeRows(&sb, rep.Scenarios)
	if sc := rep.SubCohort; sc != nil {
		if sc.Fallback {
			line("Age bin %s: %d comparable records, full dataset (%d) used", sc.Bin, sc.SubCohortSize, sc.SampleSize)
		} else {
			line("Age bin %s: %d comparable records", sc.Bin, sc.SubCohortSize)
		}
	}
	if rep.SubCohortRow != nil {
		writeRows(&sb, []projection.Row{*rep.SubCohortRow})
	}
	if len(rep.Schedule) > 0 {
		line("")
		line("[Schedule] %s rate", rep.Schedule[0].Label)
		writeRows(&sb, rep.Schedule)
	}

	if mc := rep.MonteCarlo; mc.Available {
		line("")
		line("[Monte Carlo] %d trials", mc.Trials)
		for _, p := range mc.Probabilities {
			line("- P(failure within %g years) = %.1f%%", p.Horizon, p.Percent)
		}
		if mc.FailureP50 != nil {
			line("- failure time p10/p50/p90 = %.1f / %.1f / %.1f years", *mc.FailureP10, *mc.FailureP50, *mc.FailureP90)
		}
	}

	line("")
	line("Recommendations:")
	for _, r := range rep.Recommendations {
		line("• %s", r)
	}
	if len(rep.Warnings) > 0 {
		line("")
		line("Warnings:")
		for _, wn := range rep.Warnings {
			line("! %s", wn)
		}
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

func writeRows(sb *strings.Builder, rows []projection.Row) {
	for _, r := range rows {
		fmt.Fprintf(sb, "- %s: rate=%.5f, loss=%.3f, thk=%.3f, life=%s, judge=%s\n",
			r.Label, r.Rate, r.Loss, r.Thickness, r.Life, r.Verdict)
	}
}
