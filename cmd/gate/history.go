package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/stellarlinkco/qa-gate/internal/store"
)

func newHistoryCmd(st *cliState) *cobra.Command {
	var suiteName string
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past gate runs",
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadState(st)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := store.Open(st.cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			runs, err := db.ListRuns(cmd.Context(), store.RunFilter{
				Suite: suiteName,
				Limit: limit,
			})
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no runs recorded")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSUITE\tSTARTED\tGATE\tOVERALL")
			for _, r := range runs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.3f\n",
					r.ID, r.Suite, r.StartedAt.Format(time.RFC3339), r.Gate, r.OverallPassRate)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&suiteName, "suite", "", "filter by suite name")
	cmd.Flags().IntVar(&limit, "limit", 20, "max runs to show")
	return cmd
}
