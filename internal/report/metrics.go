package report

import (
	"fmt"
	"io"
	"strconv"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"

	"tankscope/internal/assessment"
	"tankscope/internal/projection"
)

const namespace = "tankscope"

type family struct {
	mf *dto.MetricFamily
}

func newGauge(name, help string) *family {
	return &family{mf: &dto.MetricFamily{
		Name: proto.String(namespace + "_" + name),
		Help: proto.String(help),
		Type: dto.MetricType_GAUGE.Enum(),
	}}
}

// add appends a sample; labels are name/value pairs.
func (f *family) add(v float64, labels ...string) {
	m := &dto.Metric{Gauge: &dto.Gauge{Value: proto.Float64(v)}}
	for i := 0; i+1 < len(labels); i += 2 {
		m.Label = append(m.Label, &dto.LabelPair{Name: proto.String(labels[i]), Value: proto.String(labels[i+1])})
	}
	f.mf.Metric = append(f.mf.Metric, m)
}

// WriteMetrics writes the report as Prometheus text exposition, suitable for
// the node_exporter textfile collector. Unavailable components are omitted.
func WriteMetrics(w io.Writer, rep assessment.Report) error {
	var families []*family

	size := newGauge("cohort_sample_size", "Number of corrosion-rate records in the selected cohort.")
	size.add(float64(rep.SampleSize))
	families = append(families, size)

	if rep.Cohort != nil && !rep.Cohort.Summary.Empty() {
		s := rep.Cohort.Summary
		rate := newGauge("cohort_rate_mm_per_year", "Cohort corrosion-rate statistics.")
		rate.add(s.Mean, "stat", "mean")
		for _, q := range []struct {
			name string
			v    *float64
		}{{"p50", s.P50}, {"p75", s.P75}, {"p90", s.P90}} {
			if q.v != nil {
				rate.add(*q.v, "stat", q.name)
			}
		}
		families = append(families, rate)
	}

	if rep.UserRate != nil {
		g := newGauge("tank_rate_mm_per_year", "Corrosion rate derived from the tank's own readings.")
		g.add(*rep.UserRate)
		families = append(families, g)
	}

	if r := rep.Risk; r != nil {
		g := newGauge("risk_score", "Composite risk index and its components (0-100).")
		g.add(r.Absolute, "component", "absolute")
		g.add(r.Relative, "component", "relative")
		g.add(r.Future, "component", "future")
		g.add(r.Total, "component", "total")
		families = append(families, g)
	}

	if len(rep.Scenarios) > 0 || len(rep.Schedule) > 0 {
		g := newGauge("projected_thickness_mm", "Linearly projected plate thickness.")
		for _, t := range []struct {
			name string
			rows []projection.Row
		}{{"scenario", rep.Scenarios}, {"schedule", rep.Schedule}} {
			for _, row := range t.rows {
				g.add(row.Thickness, "table", t.name, "scenario", row.Label, "horizon_years", formatHorizon(row.Horizon))
			}
		}
		families = append(families, g)
	}

	if rep.MonteCarlo.Available {
		g := newGauge("failure_probability_percent", "Monte Carlo probability of reaching the allowable thickness within the horizon.")
		for _, p := range rep.MonteCarlo.Probabilities {
			g.add(p.Percent, "horizon_years", formatHorizon(p.Horizon))
		}
		families = append(families, g)
	}

	for _, f := range families {
		if _, err := expfmt.MetricFamilyToText(w, f.mf); err != nil {
			return fmt.Errorf("write %s: %w", f.mf.GetName(), err)
		}
	}
	return nil
}

func formatHorizon(h float64) string {
	return strconv.FormatFloat(h, 'g', -1, 64)
}
