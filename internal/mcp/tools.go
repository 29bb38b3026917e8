package mcp

import (
	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"tankscope/internal/assessment"
)

// cohortInput selects a cohort without describing a user tank.
type cohortInput struct {
	assessment.FilterRequest
	TopN int `json:"top_n,omitempty" jsonschema:"Length of the best/worst material and region lists (default 5)."`
}

// projectInput drives a what-if thickness projection at an explicit rate.
type projectInput struct {
	MeasuredThickness float64   `json:"measured_thickness_mm" jsonschema:"Measured plate thickness in mm."`
	Rate              float64   `json:"rate_mm_per_year" jsonschema:"Corrosion rate in mm/year to extrapolate with."`
	Horizons          []float64 `json:"horizons_years,omitempty" jsonschema:"Horizons in years. Defaults to the engine profile schedule."`
}

type noInput struct{}

func (s *Server) registerTools() {
	sdk.AddTool(s.mcp, &sdk.Tool{
		Name: "list_categories",
		Description: "List the distinct values of every categorical column in the loaded tank register, with the record count and source file. " +
			"Guidance: Call this first. Filter values passed to other tools MUST come from this list; unknown values are rejected.",
		Annotations: &sdk.ToolAnnotations{ReadOnlyHint: true, IdempotentHint: true},
	}, s.handleListCategories)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name: "describe_cohort",
		Description: "Describe the corrosion-rate distribution of the tanks matching a filter: summary statistics, mean rate per service-age bin, " +
			"best and worst materials and regions, and IQR outlier share. \n\n" +
			"Guidance: Use this to understand a cohort before assessing a tank. If the sample size is small, say so to the user.",
		Annotations: &sdk.ToolAnnotations{ReadOnlyHint: true, IdempotentHint: true},
	}, s.handleDescribeCohort)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name: "assess_tank",
		Description: "Assess one tank against its cohort: percentile of its corrosion rate, composite 0-100 risk index with grade A-D, " +
			"linear thickness projections and remaining life, Monte Carlo failure probability and recommended actions. \n\n" +
			"Guidance: Supply design_thickness_mm, measured_thickness_mm and age_years; without them only cohort statistics are returned. " +
			"Report the warnings verbatim. DO NOT extrapolate probabilities the tool did not return.",
		Annotations: &sdk.ToolAnnotations{ReadOnlyHint: true},
	}, s.handleAssessTank)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name: "project_thickness",
		Description: "Project thickness linearly at a given corrosion rate over a schedule of horizons and compare it with the allowable minimum. " +
			"Guidance: Use this for what-if questions only; assess_tank already projects with cohort rates.",
		Annotations: &sdk.ToolAnnotations{ReadOnlyHint: true, IdempotentHint: true},
	}, s.handleProjectThickness)

	sdk.AddTool(s.mcp, &sdk.Tool{
		Name:        "get_engine_config",
		Description: "Return the active engine profile: allowable thickness, rate floor, remaining-life cap, Monte Carlo settings and rate formula.",
		Annotations: &sdk.ToolAnnotations{ReadOnlyHint: true, IdempotentHint: true},
	}, s.handleEngineConfig)
}
