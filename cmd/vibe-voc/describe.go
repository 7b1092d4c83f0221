package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inodb/vibe-voc/internal/describe"
)

func newDescribeCmd() *cobra.Command {
	var (
		limit      int
		monitoring bool
	)

	cmd := &cobra.Command{
		Use:   "describe [variant]...",
		Short: "Describe the variants in a table",
		Long: `Print a one-line description of each variant: its listed sub-lineages
and examples of lineage rules that also assign records to it.`,
		Example: `  vibe-voc describe
  vibe-voc describe BA.2.86 KP.3
  vibe-voc describe --monitoring-table --monitoring monitoring.csv`,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlags(cmd, map[string]string{
				"primary":    "tables.primary",
				"monitoring": "tables.monitoring",
			})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			tables, err := loadTables(cmd.Context(), newTableLoader())
			if err != nil {
				return err
			}

			t := tables.Primary
			if monitoring {
				if tables.Monitoring == nil {
					return usageErrorf("--monitoring-table requires a monitoring table")
				}
				t = tables.Monitoring
			}

			out := cmd.OutOrStdout()
			if len(args) == 0 {
				for _, line := range describe.DescribeTable(t, limit) {
					fmt.Fprintln(out, line)
				}
				return nil
			}

			for _, name := range args {
				e, ok := t.Get(name)
				if !ok {
					return fmt.Errorf("variant %q not found", name)
				}
				fmt.Fprintln(out, describe.Describe(e, limit))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", describe.DefaultLimit, "Maximum number of rule examples per variant")
	cmd.Flags().BoolVar(&monitoring, "monitoring-table", false, "Describe the monitoring table instead of the primary table")
	cmd.Flags().String("primary", "", "Primary variant table (path or URL)")
	cmd.Flags().String("monitoring", "", "Monitoring variant table (path or URL)")

	return cmd
}
