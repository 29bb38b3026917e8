package mcp

import (
	"context"
	"fmt"
	"math"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"

	"tankscope/internal/assessment"
	"tankscope/internal/projection"
	"tankscope/internal/visuals"
)

const histogramBuckets = 10

type categoriesResult struct {
	Source     string `json:"source"`
	Records    int    `json:"records"`
	Generation uint64 `json:"generation"`
	LoadedAt   string `json:"loaded_at"`
	Categories any    `json:"categories"`
}

func (s *Server) handleListCategories(ctx context.Context, req *sdk.CallToolRequest, _ noInput) (*sdk.CallToolResult, any, error) {
	ds, gen, err := s.dataset()
	if err != nil {
		return nil, nil, err
	}
	return s.result(categoriesResult{
		Source:     ds.Source,
		Records:    ds.Len(),
		Generation: gen,
		LoadedAt:   ds.LoadedAt.Format("2006-01-02 15:04:05"),
		Categories: ds.Categories,
	})
}

type cohortResult struct {
	Filter string             `json:"filter"`
	Cohort *assessment.Cohort `json:"cohort"`
}

func (s *Server) handleDescribeCohort(ctx context.Context, req *sdk.CallToolRequest, in cohortInput) (*sdk.CallToolResult, any, error) {
	ds, gen, err := s.dataset()
	if err != nil {
		return nil, nil, err
	}
	f, err := in.Filter()
	if err != nil {
		return nil, nil, err
	}
	if err := ds.Validate(f); err != nil {
		return nil, nil, err
	}
	f = f.Normalize()
	topN := in.TopN
	if topN <= 0 {
		topN = 5
	}

	c := s.cache.Cohort(gen, ds.Select(f), topN)
	log.Debug().Str("filter", f.Key()).Int("n", c.Summary.N).Msg("describe_cohort")
	return s.result(cohortResult{Filter: f.Key(), Cohort: c},
		visuals.GenerateRateHistogram(c.Rates, histogramBuckets),
		visuals.GenerateAgeBinChart(c.AgeBins),
	)
}

func (s *Server) handleAssessTank(ctx context.Context, req *sdk.CallToolRequest, in assessment.Request) (*sdk.CallToolResult, any, error) {
	ds, gen, err := s.dataset()
	if err != nil {
		return nil, nil, err
	}
	q, err := in.Query()
	if err != nil {
		return nil, nil, err
	}
	rep, err := assessment.Run(ds, gen, q, s.cfg.Engine, s.cache)
	if err != nil {
		return nil, nil, err
	}

	rows := append([]projection.Row{}, rep.Scenarios...)
	if rep.SubCohortRow != nil {
		rows = append(rows, *rep.SubCohortRow)
	}
	return s.result(rep,
		visuals.GenerateRateHistogram(rep.Cohort.Rates, histogramBuckets),
		visuals.GenerateScenarioChart(rows, rep.AllowableThickness),
		visuals.GenerateFailureChart(rep.MonteCarlo),
	)
}

type projectResult struct {
	AllowableThickness float64          `json:"allowable_thickness_mm"`
	Rows               []projection.Row `json:"rows"`
	AnyFail            bool             `json:"any_fail"`
}

func (s *Server) handleProjectThickness(ctx context.Context, req *sdk.CallToolRequest, in projectInput) (*sdk.CallToolResult, any, error) {
	if math.IsNaN(in.MeasuredThickness) || in.MeasuredThickness <= 0 {
		return nil, nil, fmt.Errorf("measured_thickness_mm must be positive")
	}
	if math.IsNaN(in.Rate) || in.Rate < 0 {
		return nil, nil, fmt.Errorf("rate_mm_per_year must not be negative")
	}
	cfg := s.cfg.Engine
	horizons := in.Horizons
	if len(horizons) == 0 {
		horizons = cfg.ProjectionSchedule
	}
	for _, h := range horizons {
		if h < 0 {
			return nil, nil, fmt.Errorf("horizons must not be negative, got %v", h)
		}
	}

	rows := projection.Schedule(in.Rate, "custom", in.MeasuredThickness, horizons, cfg)
	return s.result(projectResult{
		AllowableThickness: cfg.AllowableThickness,
		Rows:               rows,
		AnyFail:            projection.AnyFail(rows),
	}, visuals.GenerateScenarioChart(rows, cfg.AllowableThickness))
}

func (s *Server) handleEngineConfig(ctx context.Context, req *sdk.CallToolRequest, _ noInput) (*sdk.CallToolResult, any, error) {
	return s.result(s.cfg.Engine)
}
