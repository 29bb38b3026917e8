package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"tankscope/internal/assessment"
	"tankscope/internal/report"
)

var (
	assessReq    assessment.Request
	tankDesign   float64
	tankMeasured float64
	tankAge      float64
	yearsLeft    float64
	outFormat    string
	outPath      string
)

var assessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Assess one tank against its cohort and print the report",
	Example: `  tankscope assess --material SS400 --design 9 --measured 7.5 --age 25
  tankscope assess --region 울산 --measured 6.1 --design 8 --age 18 --format csv -o scenarios.csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		switch outFormat {
		case "text", "json", "csv", "metrics":
		default:
			return fmt.Errorf("unknown format %q (want text, json, csv or metrics)", outFormat)
		}

		req := assessReq
		flags := cmd.Flags()
		for _, f := range []struct {
			name string
			v    *float64
			dst  **float64
		}{
			{"design", &tankDesign, &req.DesignThickness},
			{"measured", &tankMeasured, &req.MeasuredThickness},
			{"age", &tankAge, &req.Age},
			{"years-left", &yearsLeft, &req.YearsLeft},
		} {
			if flags.Changed(f.name) {
				*f.dst = f.v
			}
		}

		q, err := req.Query()
		if err != nil {
			return err
		}
		ds, err := loadDataset()
		if err != nil {
			return err
		}
		rep, err := assessment.Run(ds, 1, q, cfg.Engine, nil)
		if err != nil {
			return err
		}

		w, closeOut, err := openOutput(outPath)
		if err != nil {
			return err
		}
		defer closeOut()

		switch outFormat {
		case "json":
			return writeJSON(w, rep)
		case "csv":
			if len(rep.Scenarios) == 0 {
				return fmt.Errorf("no scenario table: --measured is required")
			}
			return report.WriteScenarioCSV(w, rep.Scenarios, cfg.Engine.RemainingLifeCap)
		case "metrics":
			return report.WriteMetrics(w, rep)
		}
		return report.WriteText(w, rep)
	},
}

func addFilterFlags(cmd *cobra.Command, f *assessment.FilterRequest) {
	fs := cmd.Flags()
	fs.StringVar(&f.Material, "material", "", "tank material (재질)")
	fs.StringVar(&f.Product, "product", "", "stored product (품명)")
	fs.StringVar(&f.Shape, "shape", "", "tank shape (탱크형상)")
	fs.StringVar(&f.CathodicProtection, "cathodic", "", "cathodic protection installed: O or X (전기방식)")
	fs.StringVar(&f.HeatingCoil, "heating-coil", "", "heating coil installed: O or X (히팅코일)")
	fs.StringVar(&f.Region, "region", "", "site region (지역)")
	fs.StringVar(&f.AgeBin, "age-bin", "", "restrict to an age bin: 'under 10', '10 and over', '20 and over', '30 and over'")
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "" || path == "-" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func init() {
	addFilterFlags(assessCmd, &assessReq.FilterRequest)
	fs := assessCmd.Flags()
	fs.Float64Var(&tankDesign, "design", 0, "design plate thickness in mm")
	fs.Float64Var(&tankMeasured, "measured", 0, "measured plate thickness in mm")
	fs.Float64Var(&tankAge, "age", 0, "years in service")
	fs.Float64Var(&yearsLeft, "years-left", 0, "planned remaining service in years (default from the engine profile)")
	fs.StringVar(&assessReq.RateMode, "rate-mode", "mean", "representative rate: mean, median, p75 or p90")
	fs.Uint64Var(&assessReq.Seed, "seed", 0, "Monte Carlo seed (0 seeds from the clock)")
	fs.IntVar(&assessReq.TopN, "top", 5, "length of best/worst material and region lists")
	fs.StringVarP(&outFormat, "format", "f", "text", "output format: text, json, csv or metrics")
	fs.StringVarP(&outPath, "output", "o", "", "write to a file instead of stdout")

	rootCmd.AddCommand(assessCmd)
}
