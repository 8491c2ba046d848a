package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/julianshen/codesensei/internal/store"
)

func runsCmd() *cobra.Command {
	var limitFlag int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent tutorial runs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			runs, err := st.RecentRuns(limitFlag)
			if err != nil {
				return fmt.Errorf("listing runs: %w", err)
			}

			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "STARTED\tPROJECT\tSOURCE\tSTATUS\tDURATION")
			for _, r := range runs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					r.StartedAt.Format("2006-01-02 15:04"),
					r.Project,
					r.Source,
					r.Status,
					runDuration(r),
				)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&limitFlag, "limit", 20, "maximum runs to show")

	return cmd
}

// runDuration formats the elapsed time of a finished run; runs without a
// finish time render as "-".
func runDuration(r store.Run) string {
	if !r.FinishedAt.Valid {
		return "-"
	}
	return r.FinishedAt.Time.Sub(r.StartedAt).Round(time.Second).String()
}
