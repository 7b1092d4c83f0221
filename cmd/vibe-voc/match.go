package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inodb/vibe-voc/internal/classify"
	"github.com/inodb/vibe-voc/internal/variant"
)

func newMatchCmd() *cobra.Command {
	var lineage, mutations string

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Classify a single lineage and mutation list",
		Example: `  vibe-voc match --lineage JN.1
  vibe-voc match --lineage XBB.1 --mutations "Spike_F456L,Spike_R346T"
  vibe-voc match --mutations "(Spike_F486P)" --monitoring monitoring.csv`,
		Args: usageArgs(cobra.NoArgs),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlags(cmd, map[string]string{
				"primary":    "tables.primary",
				"monitoring": "tables.monitoring",
			})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if lineage == "" && mutations == "" {
				return usageErrorf("at least one of --lineage or --mutations is required")
			}

			tables, err := loadTables(cmd.Context(), newTableLoader())
			if err != nil {
				return err
			}

			c := classify.NewClassifier(tables.Primary, tables.Monitoring)
			c.SetLogger(logger)
			res := c.Classify(variant.NewQuery(lineage, mutations, ""), nil)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Variant:    %s\n", res.PrimaryLabel())
			fmt.Fprintf(out, "Monitoring: %s\n", res.MonitoringLabel())
			return nil
		},
	}

	cmd.Flags().StringVar(&lineage, "lineage", "", "Pango lineage of the sequence")
	cmd.Flags().StringVar(&mutations, "mutations", "", "Comma or plus separated amino acid substitutions")
	cmd.Flags().String("primary", "", "Primary variant table (path or URL)")
	cmd.Flags().String("monitoring", "", "Monitoring variant table (path or URL)")

	return cmd
}
