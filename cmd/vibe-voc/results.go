package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/inodb/vibe-voc/internal/duckdb"
	"github.com/inodb/vibe-voc/internal/variant"
)

func newResultsCmd() *cobra.Command {
	var record string

	cmd := &cobra.Command{
		Use:   "results [run-id]",
		Short: "Query stored classification runs",
		Long: `Query the results store written by "classify --results-db".

Without arguments the stored runs are listed. With a run ID the run's
records are counted per variant. With --record the stored results for
one record are shown across all runs.`,
		Example: `  vibe-voc results --results-db results.duckdb
  vibe-voc results --results-db results.duckdb 1f0c9a4e-...
  vibe-voc results --results-db results.duckdb --record "hCoV-19/Sweden/1/2024"`,
		Args: usageArgs(cobra.MaximumNArgs(1)),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlags(cmd, map[string]string{"results-db": "results.db"})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath := viper.GetString("results.db")
			if dbPath == "" {
				return usageErrorf("no results store configured (set --results-db or results.db)")
			}

			store, err := duckdb.Open(dbPath)
			if err != nil {
				return fmt.Errorf("opening results store: %w", err)
			}
			defer store.Close()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			defer tw.Flush()

			switch {
			case record != "":
				return showRecord(tw, store, record)
			case len(args) == 1:
				return showRunCounts(tw, store, args[0])
			default:
				return showRuns(tw, store)
			}
		},
	}

	cmd.Flags().String("results-db", "", "DuckDB results database")
	cmd.Flags().StringVar(&record, "record", "", "Show stored results for one record")

	return cmd
}

func showRuns(tw *tabwriter.Writer, store *duckdb.Store) error {
	runs, err := store.Runs()
	if err != nil {
		return err
	}
	fmt.Fprintln(tw, "RUN\tSTARTED\tINPUT\tPRIMARY\tMONITORING")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.StartedAt.Format(time.RFC3339), r.Input, r.PrimarySource, r.MonitoringSource)
	}
	return nil
}

func showRunCounts(tw *tabwriter.Writer, store *duckdb.Store, runID string) error {
	counts, err := store.CountByVariant(runID)
	if err != nil {
		return err
	}
	if len(counts) == 0 {
		return fmt.Errorf("no results for run %s", runID)
	}
	fmt.Fprintln(tw, "VARIANT\tCLASSIFICATION\tRECORDS")
	for _, c := range counts {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", c.Variant, c.Classification, c.Count)
	}
	return nil
}

func showRecord(tw *tabwriter.Writer, store *duckdb.Store, recordID string) error {
	rows, err := store.LookupRecord(recordID)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("record %q not found", recordID)
	}
	fmt.Fprintln(tw, "RECORD\tLINEAGE\tVARIANT\tMONITORING")
	for _, r := range rows {
		v := variant.NotClassified
		if r.Variant != "" {
			v = fmt.Sprintf("%s (%s)", r.Variant, r.Classification)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.RecordID, r.Lineage, v, r.Monitoring)
	}
	return nil
}
