package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/streetcode-ingestor/internal/app"
	"github.com/jonesrussell/streetcode-ingestor/internal/metrics"
)

func newStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print the ingestion counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				tracker, err := a.Tracker(ctx)
				if err != nil {
					return err
				}

				stats, err := tracker.Stats(ctx)
				if err != nil {
					return err
				}
				printStats(cmd.OutOrStdout(), stats)
				return nil
			})
		},
	}
}

func printStats(w io.Writer, s metrics.Stats) {
	t := newTable(w, table.Row{"Counter", "Total"})
	t.AppendRows([]table.Row{
		{"Received", s.ReceivedTotal},
		{"Ingested", s.IngestedTotal},
		{"Skipped (non-core)", s.SkippedNonCoreTotal},
		{"Duplicate", s.DuplicateTotal},
		{"Invalid", s.InvalidTotal},
		{"Failed", s.FailedTotal},
	})
	t.AppendFooter(table.Row{"Core ratio", fmt.Sprintf("%.2f%%", s.CoreRatio*100)})
	t.Render()
}
