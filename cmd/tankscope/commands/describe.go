package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tankscope/internal/assessment"
	"tankscope/internal/visuals"
)

var (
	describeFilter assessment.FilterRequest
	describeTop    int
	describeCharts bool
)

var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Print cohort statistics for a filter as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := describeFilter.Filter()
		if err != nil {
			return err
		}
		ds, err := loadDataset()
		if err != nil {
			return err
		}
		if err := ds.Validate(f); err != nil {
			return err
		}
		f = f.Normalize()

		c := assessment.DescribeCohort(ds.Select(f), describeTop)
		if err := writeJSON(os.Stdout, map[string]any{"filter": f.String(), "cohort": c}); err != nil {
			return err
		}
		if describeCharts {
			for _, chart := range []string{
				visuals.GenerateRateHistogram(c.Rates, 10),
				visuals.GenerateAgeBinChart(c.AgeBins),
			} {
				if chart != "" {
					fmt.Println(chart)
				}
			}
		}
		return nil
	},
}

var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List the distinct values of every categorical column",
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := loadDataset()
		if err != nil {
			return err
		}
		return writeJSON(os.Stdout, map[string]any{
			"source":     ds.Source,
			"records":    ds.Len(),
			"categories": ds.Categories,
		})
	},
}

func init() {
	addFilterFlags(describeCmd, &describeFilter)
	describeCmd.Flags().IntVar(&describeTop, "top", 5, "length of best/worst material and region lists")
	describeCmd.Flags().BoolVar(&describeCharts, "charts", false, "append Mermaid charts")

	rootCmd.AddCommand(describeCmd, categoriesCmd)
}
