package cmd

import (
	"context"
	"fmt"
	"io"
	"slices"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/streetcode-ingestor/internal/app"
	"github.com/jonesrussell/streetcode-ingestor/internal/database"
	"github.com/jonesrussell/streetcode-ingestor/internal/maintenance"
)

// reportSamples caps the titles printed per relevance.
const reportSamples = 5

func dryRunBanner(w io.Writer, dryRun bool) {
	if dryRun {
		fmt.Fprintln(w, "DRY RUN: no changes will be written")
	}
}

// batchSize returns the flag value when set, otherwise the configured size.
func batchSize(cmd *cobra.Command, flag int, a *app.App) int {
	if cmd.Flags().Changed("batch-size") {
		return flag
	}
	return a.Config().Ingest.MaintenanceBatchSize
}

func newReclassifyCommand() *cobra.Command {
	var (
		dryRun bool
		size   int
		all    bool
	)

	cmd := &cobra.Command{
		Use:   "reclassify",
		Short: "Re-run the title classifier over stored articles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				runner, err := a.Maintenance()
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				dryRunBanner(out, dryRun)

				report, err := runner.Reclassify(ctx, maintenance.ReclassifyOptions{
					DryRun:    dryRun,
					BatchSize: batchSize(cmd, size, a),
					All:       all,
				})
				if err != nil {
					return err
				}

				printReclassify(out, report)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report verdicts without updating articles")
	cmd.Flags().IntVar(&size, "batch-size", maintenance.DefaultBatchSize, "articles per batch")
	cmd.Flags().BoolVar(&all, "all", false, "reclassify every article, not only those without a verdict")
	return cmd
}

func printReclassify(w io.Writer, report *maintenance.ReclassifyReport) {
	relevances := make([]string, 0, len(report.ByRelevance))
	for relevance := range report.ByRelevance {
		relevances = append(relevances, relevance)
	}
	slices.Sort(relevances)

	t := newTable(w, table.Row{"Relevance", "Count"})
	for _, relevance := range relevances {
		t.AppendRow(table.Row{relevance, len(report.ByRelevance[relevance])})
	}
	t.AppendFooter(table.Row{"Scanned", report.Scanned})
	t.Render()

	for _, relevance := range relevances {
		items := report.ByRelevance[relevance]
		fmt.Fprintf(w, "\n%s:\n", relevance)
		for _, c := range items[:min(len(items), reportSamples)] {
			fmt.Fprintf(w, "  [%d] %s (%.2f)\n", c.ArticleID, c.Title, c.Result.Confidence)
		}
	}

	fmt.Fprintf(w, "\nUpdated: %d\n", report.Updated)
}

func newBackfillCommand() *cobra.Command {
	var (
		dryRun bool
		size   int
	)

	cmd := &cobra.Command{
		Use:   "backfill-locations",
		Short: "Link articles without a city to the city in their metadata",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				runner, err := a.Maintenance()
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				dryRunBanner(out, dryRun)

				report, err := runner.BackfillLocations(ctx, maintenance.BackfillOptions{
					DryRun:    dryRun,
					BatchSize: batchSize(cmd, size, a),
				})
				if err != nil {
					return err
				}

				verb := "Linked"
				if dryRun {
					verb = "Would link"
				}
				fmt.Fprintf(out, "Candidates: %d  %s: %d  Skipped: %d\n",
					report.Candidates, verb, report.Linked, report.Skipped)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report matches without linking")
	cmd.Flags().IntVar(&size, "batch-size", maintenance.DefaultBatchSize, "articles per batch")
	return cmd
}

func newSoftDeleteCommand() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "soft-delete",
		Short: "Soft-delete articles that should not be published",
	}
	cmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "report matches without deleting")

	nonCrime := &cobra.Command{
		Use:   "non-crime",
		Short: "Soft-delete articles not classified as core street crime",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				runner, err := a.Maintenance()
				if err != nil {
					return err
				}
				dryRunBanner(cmd.OutOrStdout(), dryRun)

				report, err := runner.SoftDeleteNonCrime(ctx, dryRun)
				if err != nil {
					return err
				}
				printSoftDelete(cmd.OutOrStdout(), report)
				return nil
			})
		},
	}

	var extra []string
	patterns := &cobra.Command{
		Use:   "patterns",
		Short: "Soft-delete articles whose title matches a junk pattern",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				runner, err := a.Maintenance()
				if err != nil {
					return err
				}
				dryRunBanner(cmd.OutOrStdout(), dryRun)

				report, err := runner.SoftDeletePatterns(ctx, extra, dryRun)
				if err != nil {
					return err
				}
				printSoftDelete(cmd.OutOrStdout(), report)
				return nil
			})
		},
	}
	patterns.Flags().StringArrayVar(&extra, "pattern", nil, "additional title pattern (repeatable)")

	cmd.AddCommand(nonCrime, patterns)
	return cmd
}

func printSoftDelete(w io.Writer, report *maintenance.SoftDeleteReport) {
	if report.Matched == 0 {
		fmt.Fprintln(w, "No articles matched.")
		return
	}

	if !report.DryRun {
		fmt.Fprintf(w, "Soft-deleted %d of %d matched articles.\n", report.Deleted, report.Matched)
		return
	}

	fmt.Fprintf(w, "Would soft-delete %d articles.\n", report.Matched)
	printSummaries(w, "", report.Samples)

	for _, p := range report.ByPattern {
		fmt.Fprintf(w, "\n%q: %d\n", p.Pattern, p.Count)
		printSummaries(w, "  ", p.Samples)
	}
}

func printSummaries(w io.Writer, indent string, items []database.ArticleSummary) {
	for _, s := range items {
		fmt.Fprintf(w, "%s  [%d] %s\n", indent, s.ID, s.Title)
	}
}

func newRecountTagsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "recount-tags",
		Short: "Recompute tag article counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				runner, err := a.Maintenance()
				if err != nil {
					return err
				}

				updated, err := runner.RecountTags(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Updated %d tags.\n", updated)
				return nil
			})
		},
	}
}
