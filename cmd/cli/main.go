// stats is the command-line companion to the dashboard API: it runs the
// analytical report battery against a DuckDB file and prints or exports
// the results.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/om2468/stats-insights/internal/analytics"
	"github.com/om2468/stats-insights/internal/cache"
	"github.com/om2468/stats-insights/internal/config"
	"github.com/om2468/stats-insights/internal/duckdb"
	"github.com/om2468/stats-insights/internal/logger"
	"github.com/om2468/stats-insights/internal/source"
)

var (
	dbRef     string
	tableName string
)

var rootCmd = &cobra.Command{
	Use:   "stats",
	Short: "Customer-spend analytics over a DuckDB file",
	Long: "Runs the eight-report analytics battery (spend funnels, revenue\n" +
		"concentration, attach rate, service baskets, time to adoption,\n" +
		"monthly trends) against a transactions table in a DuckDB file.",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&dbRef, "db", "d", "", "path or gs:// URI of the .duckdb file (required)")
	rootCmd.PersistentFlags().StringVarP(&tableName, "table", "t", config.DefaultTableName, "table name inside the database")
	_ = rootCmd.MarkPersistentFlagRequired("db")

	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(inspectCmd)
}

// openService resolves the source reference, opens a read-only session
// and binds the query service to the configured table. The returned
// cleanup closes the session and removes any downloaded temp file.
func openService(ctx context.Context) (*analytics.Service, func(), error) {
	path, cleanupSrc, err := source.Resolve(ctx, dbRef)
	if err != nil {
		return nil, func() {}, err
	}

	sess, err := duckdb.Open(ctx, path)
	if err != nil {
		cleanupSrc()
		return nil, func() {}, err
	}

	svc, err := analytics.NewService(ctx, sess, tableName,
		analytics.WithCache(cache.NewResults()),
		analytics.WithLogger(logger.For(logger.New(), "cli")))
	if err != nil {
		sess.Close()
		cleanupSrc()
		return nil, func() {}, err
	}

	cleanup := func() {
		sess.Close()
		cleanupSrc()
	}
	return svc, cleanup, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
