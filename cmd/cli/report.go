package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/om2468/stats-insights/internal/export"
	"github.com/om2468/stats-insights/internal/report"
)

var (
	reportName   string
	outDir       string
	topNPairs    int
	topNAccounts int
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Run the analytics reports",
	Long:  "Runs all eight reports (or one via --report) and prints a summary.\nWith --out, each report is also exported as a timestamped JSON file.",
	RunE:  runReport,
}

func init() {
	reportCmd.Flags().StringVarP(&reportName, "report", "r", "", "run a single named report")
	reportCmd.Flags().StringVarP(&outDir, "out", "o", "", "directory for JSON export")
	reportCmd.Flags().IntVar(&topNPairs, "top-n-pairs", 0, "top N service pairs for the basket chart (5-50)")
	reportCmd.Flags().IntVar(&topNAccounts, "top-n-accounts", 0, "top N accounts for the funnel charts (10-200)")
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	svc, cleanup, err := openService(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	params := report.Params{TopNAccounts: topNAccounts, TopNPairs: topNPairs}

	var widgets []report.Widget
	if reportName != "" {
		w, err := report.BuildOne(ctx, svc, reportName, params)
		if err != nil {
			return err
		}
		widgets = []report.Widget{w}
	} else {
		widgets = report.Build(ctx, svc, params)
	}

	for _, w := range widgets {
		printWidget(cmd, w)
		if outDir != "" {
			filename := export.TimestampedFilename(outDir, w.Name)
			if err := export.JSON(filename, w); err != nil {
				return err
			}
			cmd.Printf("  exported: %s\n", filename)
		}
	}
	return nil
}

func printWidget(cmd *cobra.Command, w report.Widget) {
	cmd.Printf("%s\n%s\n", w.Title, strings.Repeat("-", len(w.Title)))
	switch {
	case w.Error != "":
		cmd.Printf("  error: %s\n", w.Error)
	case w.Metric != nil:
		cmd.Printf("  %s: %s\n", w.Metric.Label, w.Metric.Value)
	case w.NoData:
		cmd.Println("  no data")
	case w.Table != nil:
		cmd.Printf("  %d rows (%s)\n", len(w.Table.Rows), strings.Join(w.Table.Columns, ", "))
		if w.Chart != nil {
			points := 0
			for _, s := range w.Chart.Series {
				points += len(s.Data)
			}
			cmd.Printf("  chart: %s, %d series, %d points\n", w.Chart.ChartType, len(w.Chart.Series), points)
		}
	}
	cmd.Println()
}
