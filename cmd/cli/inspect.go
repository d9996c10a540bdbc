package main

import (
	"github.com/spf13/cobra"
)

var sampleRows int

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Inspect a data source",
	Long:  "Validates the table schema and prints row counts, the type domain,\nthe covered date range and a sample of the earliest transactions.",
	RunE:  runInspect,
}

func init() {
	inspectCmd.Flags().IntVar(&sampleRows, "sample", 5, "number of sample transactions to print")
}

func runInspect(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	svc, cleanup, err := openService(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	summary, err := svc.Summarize(ctx)
	if err != nil {
		return err
	}

	cmd.Printf("Table:    %s\n", summary.Table)
	cmd.Printf("Rows:     %d\n", summary.Rows)
	cmd.Printf("Accounts: %d\n", summary.Accounts)
	cmd.Printf("Dates:    %s to %s\n", summary.EarliestDate, summary.LatestDate)
	cmd.Printf("Types:    %d\n", len(summary.Types))
	for _, t := range summary.Types {
		cmd.Printf("  - %s\n", t)
	}

	if sampleRows <= 0 {
		return nil
	}
	sample, err := svc.Sample(ctx, sampleRows)
	if err != nil {
		return err
	}
	if len(sample) > 0 {
		cmd.Println("\nEarliest transactions:")
		for _, tx := range sample {
			cmd.Printf("  %s  %-20s %-20s %10.2f\n", tx.Date, tx.Account, tx.Type, tx.Credit)
		}
	}
	return nil
}
