package visuals

import (
	"fmt"
	"math"
	"strings"

	"tankscope/internal/projection"
	"tankscope/internal/simulation"
	"tankscope/internal/stats"
)

// GenerateRateHistogram creates a Mermaid bar chart of the cohort's corrosion-rate
// distribution using equal-width buckets.
func GenerateRateHistogram(rates []float64, buckets int) string {
	clean := stats.Clean(rates)
	if len(clean) == 0 || buckets <= 0 {
		return ""
	}

	lo, hi := clean[0], clean[0]
	for _, v := range clean {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	width := (hi - lo) / float64(buckets)
	if width == 0 {
		buckets, width = 1, 1
	}

	counts := make([]int, buckets)
	for _, v := range clean {
		i := int((v - lo) / width)
		if i >= buckets {
			i = buckets - 1
		}
		counts[i]++
	}

	var labels []string
	var values []string
	maxVal := 0
	for i, c := range counts {
		labels = append(labels, fmt.Sprintf("\"%.3f\"", lo+width*float64(i)))
		values = append(values, fmt.Sprintf("%d", c))
		if c > maxVal {
			maxVal = c
		}
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"Cohort Corrosion Rate Distribution\"\n")
	sb.WriteString(fmt.Sprintf("    x-axis \"Rate (mm/year)\" [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Tanks\" 0 --> %d\n", maxVal+int(math.Max(1, float64(maxVal)*0.2))))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// GenerateScenarioChart creates a Mermaid bar chart of projected thickness per
// scenario with the allowable thickness as a reference line.
func GenerateScenarioChart(rows []projection.Row, allowable float64) string {
	if len(rows) == 0 {
		return ""
	}

	var labels []string
	var values []string
	var limits []string
	maxY := allowable
	for _, r := range rows {
		labels = append(labels, fmt.Sprintf("\"%s @%gy\"", r.Label, r.Horizon))
		values = append(values, fmt.Sprintf("%.2f", r.Thickness))
		limits = append(limits, fmt.Sprintf("%.2f", allowable))
		maxY = math.Max(maxY, r.Thickness)
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"Projected Thickness vs Allowable\"\n")
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Thickness (mm)\" 0 --> %d\n", int(math.Ceil(maxY*1.1))))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(limits, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// GenerateAgeBinChart creates a Mermaid bar chart of mean corrosion rate per age bin.
func GenerateAgeBinChart(groups []stats.BinGroup) string {
	if len(groups) == 0 {
		return ""
	}

	var labels []string
	var values []string
	maxVal := 0.0
	for _, g := range groups {
		labels = append(labels, fmt.Sprintf("\"%s (n=%d)\"", g.Bin, g.Count))
		values = append(values, fmt.Sprintf("%.4f", g.Mean))
		maxVal = math.Max(maxVal, g.Mean)
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"Mean Corrosion Rate by Service Age\"\n")
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Rate (mm/year)\" 0 --> %.4f\n", maxVal*1.2))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// GenerateFailureChart creates a Mermaid line chart of Monte Carlo failure
// probability against horizon.
func GenerateFailureChart(res simulation.Result) string {
	if !res.Available || len(res.Probabilities) == 0 {
		return ""
	}

	var labels []string
	var values []string
	for _, p := range res.Probabilities {
		labels = append(labels, fmt.Sprintf("\"%gy\"", p.Horizon))
		values = append(values, fmt.Sprintf("%.1f", p.Percent))
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString(fmt.Sprintf("    title \"Failure Probability (%d trials)\"\n", res.Trials))
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString("    y-axis \"Probability (%)\" 0 --> 100\n")
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(values, ", ")))
	sb.WriteString("```")
	return sb.String()
}
